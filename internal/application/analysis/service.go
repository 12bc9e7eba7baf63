package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/verilens/verilens/internal/application"
	appai "github.com/verilens/verilens/internal/application/ai"
	domain "github.com/verilens/verilens/internal/domain/analysis"
	"github.com/verilens/verilens/internal/domain/history"
)

// Cleaner removes a persisted upload from transient storage.
type Cleaner interface {
	Remove(path string) error
}

// Service dispatches an uploaded file to the provider adapter for its
// category, times the run, and assembles the unified result. Explainer,
// Reports and History are optional collaborators; their failures are logged
// and never change the outcome of a request.
type Service struct {
	Images    domain.Analyzer
	Videos    domain.Analyzer
	Audio     domain.Analyzer
	Intake    Cleaner
	Explainer *appai.Service
	Reports   domain.ReportStore
	History   history.Repository
	Clock     application.Clock
}

// Analyze runs one uploaded file through the matching provider adapter.
// The transient file is removed on every path, success or failure.
func (s *Service) Analyze(ctx context.Context, up *domain.Upload) (*domain.Result, error) {
	defer func() {
		if err := s.Intake.Remove(up.Path); err != nil {
			log.Printf("analysis: failed to remove temp file %s: %v", up.Path, err)
		}
	}()

	category := domain.CategoryOf(up.MimeType)
	start := s.Clock.Now()

	var (
		provider domain.ProviderResult
		err      error
	)
	switch category {
	case domain.CategoryImage:
		provider, err = s.Images.Analyze(ctx, up.Path)
	case domain.CategoryVideo:
		provider, err = s.Videos.Analyze(ctx, up.Path)
	case domain.CategoryAudio:
		provider, err = s.Audio.Analyze(ctx, up.Path)
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedType, up.MimeType)
	}
	if err != nil {
		return nil, err
	}

	elapsed := s.Clock.Now().Sub(start)

	result := &domain.Result{
		Type:           category,
		IsDeepfake:     provider.Flagged,
		Confidence:     provider.Score,
		AnalysisTimeMS: elapsed.Milliseconds(),
		Metadata:       provider.Metadata,
	}
	if category == domain.CategoryAudio {
		result.ResembleData = &provider
	} else {
		result.SightengineData = &provider
	}

	if s.Explainer != nil {
		if text, xerr := s.Explainer.Explain(ctx, result); xerr != nil {
			log.Printf("analysis: explanation unavailable: %v", xerr)
		} else {
			result.Explanation = text
		}
	}

	s.record(ctx, up, result, &provider)

	return result, nil
}

// record archives the raw provider response and saves a history row when
// those collaborators are configured. Best effort only.
func (s *Service) record(ctx context.Context, up *domain.Upload, res *domain.Result, provider *domain.ProviderResult) {
	if s.History == nil && s.Reports == nil {
		return
	}

	id := uuid.New().String()

	var reportURL string
	if s.Reports != nil {
		report, err := json.Marshal(provider)
		if err == nil {
			key := fmt.Sprintf("reports/%s/%s.json", res.Type, id)
			reportURL, err = s.Reports.PutReport(ctx, key, report)
		}
		if err != nil {
			log.Printf("analysis: report archive failed: %v", err)
		}
	}

	if s.History == nil {
		return
	}

	rec := &history.Record{
		ID:             id,
		CreatedAt:      s.Clock.Now(),
		Category:       res.Type,
		FileName:       up.OriginalName,
		SizeBytes:      up.SizeBytes,
		IsDeepfake:     res.IsDeepfake,
		Confidence:     res.Confidence,
		AnalysisTimeMS: res.AnalysisTimeMS,
		DemoMode:       provider.DemoMode,
		ReportURL:      reportURL,
	}
	if err := s.History.Save(ctx, rec); err != nil {
		log.Printf("analysis: history save failed: %v", err)
	}
}
