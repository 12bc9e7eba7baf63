package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/verilens/verilens/internal/application"
	appai "github.com/verilens/verilens/internal/application/ai"
	appanalysis "github.com/verilens/verilens/internal/application/analysis"
	"github.com/verilens/verilens/internal/config"
	domain "github.com/verilens/verilens/internal/domain/analysis"
	"github.com/verilens/verilens/internal/domain/history"
	openaiclient "github.com/verilens/verilens/internal/infra/ai/openai"
	"github.com/verilens/verilens/internal/infra/db/postgres"
	"github.com/verilens/verilens/internal/infra/httpserver"
	"github.com/verilens/verilens/internal/infra/intake"
	"github.com/verilens/verilens/internal/infra/providers/resemble"
	"github.com/verilens/verilens/internal/infra/providers/sightengine"
	minioStore "github.com/verilens/verilens/internal/infra/storage"
	"github.com/verilens/verilens/internal/middleware"
	"github.com/verilens/verilens/internal/ratelimit"
)

func main() {
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	log.Printf("sightengine credentials: %s", configured(cfg.SightengineConfigured()))
	log.Printf("resemble credentials: %s", configured(cfg.ResembleConfigured()))

	ctx := context.Background()

	// outbound call budgets, shared by the provider clients
	outbound := ratelimit.NewLimiter(ratelimit.NewMemoryStore(), map[string]ratelimit.Limits{
		sightengine.Service: limits(cfg.Limits.Sightengine),
		resemble.Service:    limits(cfg.Limits.Resemble),
	})

	se := sightengine.New(
		cfg.Providers.Sightengine.User,
		cfg.Providers.Sightengine.Secret,
		cfg.Analysis.DeepfakeThreshold,
		outbound,
	)
	rs := resemble.New(cfg.Providers.Resemble.APIKey)

	uploads := intake.NewStore(cfg.Uploads.Dir, cfg.MaxUploadBytes())

	svc := &appanalysis.Service{
		Images: domain.AnalyzerFunc(se.AnalyzeImage),
		Videos: domain.AnalyzerFunc(se.AnalyzeVideo),
		Audio:  domain.AnalyzerFunc(rs.Analyze),
		Intake: uploads,
		Clock:  application.SystemClock{},
	}

	if cfg.OpenAI.APIKey != "" {
		svc.Explainer = appai.NewService(openaiclient.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model))
		log.Printf("verdict explanations enabled")
	}

	health := map[string]middleware.HealthChecker{}

	// optional analysis history
	var historyRepo history.Repository
	if cfg.Database.URL != "" {
		db, err := postgres.Connect(ctx, cfg.Database.URL)
		if err != nil {
			log.Fatalf("postgres connect error: %v", err)
		}
		defer db.Close()
		historyRepo = postgres.NewHistoryRepository(db)
		svc.History = historyRepo
		health["database"] = &middleware.DatabaseHealthChecker{DB: db}
		log.Printf("analysis history enabled")
	}

	// optional report archive
	if cfg.Minio.Endpoint != "" {
		store, err := minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			log.Fatalf("minio init error: %v", err)
		}
		svc.Reports = store
		log.Printf("report archive enabled")
	}

	inbound := ratelimit.NewMemoryStore()

	api := httpserver.NewRouter(httpserver.Deps{
		Analysis:     svc,
		Intake:       uploads,
		Sightengine:  se,
		Resemble:     rs,
		Outbound:     outbound,
		History:      historyRepo,
		Health:       health,
		InboundStore: inbound,
		MaxUpload:    cfg.MaxUploadBytes(),
		AnalysisMax:  cfg.Limits.HTTP.Analysis,
		StatusMax:    cfg.Limits.HTTP.Status,
	})

	mux := chi.NewRouter()
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{
			"http://localhost:3000",
			"http://localhost:5173",
			"http://localhost:8080",
			"http://127.0.0.1:3000",
			"http://127.0.0.1:5173",
			"http://127.0.0.1:8080",
		},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         86400,
	}))
	mux.Use(middleware.SecurityHeaders)
	mux.Use(middleware.MethodAllowlist)
	mux.Use(middleware.PayloadSizeLimit(cfg.MaxUploadBytes()))
	mux.Use(middleware.BlockSuspiciousAgents)
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(middleware.RateLimit(inbound, middleware.GeneralRule(cfg.Limits.HTTP.General)))
	mux.Mount("/", api)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  90 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

func configured(ok bool) string {
	if ok {
		return "SET"
	}
	return "MISSING (demo mode)"
}

func limits(l config.ServiceLimits) ratelimit.Limits {
	return ratelimit.Limits{
		PerMinute: l.PerMinute,
		PerHour:   l.PerHour,
		PerDay:    l.PerDay,
	}
}
