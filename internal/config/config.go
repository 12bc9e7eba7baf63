package config

import (
	"errors"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`

	Uploads struct {
		Dir       string `yaml:"dir"`
		MaxSizeMB int64  `yaml:"maxSizeMB"`
	} `yaml:"uploads"`

	Analysis struct {
		// Score at or above which an image/video is flagged as a deepfake.
		DeepfakeThreshold float64 `yaml:"deepfakeThreshold"`
	} `yaml:"analysis"`

	Providers struct {
		Sightengine struct {
			User   string `yaml:"user"`
			Secret string `yaml:"secret"`
		} `yaml:"sightengine"`
		Resemble struct {
			APIKey string `yaml:"apiKey"`
		} `yaml:"resemble"`
	} `yaml:"providers"`

	OpenAI struct {
		APIKey string `yaml:"apiKey"`
		Model  string `yaml:"model"`
	} `yaml:"openai"`

	Limits struct {
		Sightengine ServiceLimits `yaml:"sightengine"`
		Resemble    ServiceLimits `yaml:"resemble"`
		HTTP        struct {
			General  int `yaml:"general"`
			Analysis int `yaml:"analysis"`
			Upload   int `yaml:"upload"`
			Status   int `yaml:"status"`
		} `yaml:"http"`
	} `yaml:"limits"`

	Database struct {
		URL string `yaml:"url"`
	} `yaml:"database"`

	Minio struct {
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`
}

type ServiceLimits struct {
	PerMinute int `yaml:"perMinute"`
	PerHour   int `yaml:"perHour"`
	PerDay    int `yaml:"perDay"`
}

// Load reads the YAML config file and applies env overrides. A missing file
// is not an error: credentials commonly arrive via environment only.
func Load(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func defaults() *Config {
	cfg := &Config{}
	cfg.Server.Port = 8080
	cfg.Uploads.Dir = "uploads"
	cfg.Uploads.MaxSizeMB = 10
	cfg.Analysis.DeepfakeThreshold = 0.7
	cfg.Limits.Sightengine = ServiceLimits{PerMinute: 20, PerHour: 200, PerDay: 2000}
	cfg.Limits.Resemble = ServiceLimits{PerMinute: 10, PerHour: 100, PerDay: 1000}
	cfg.Limits.HTTP.General = 500
	cfg.Limits.HTTP.Analysis = 200
	cfg.Limits.HTTP.Upload = 100
	cfg.Limits.HTTP.Status = 200
	return cfg
}

// applyEnv lets environment variables override file values for secrets.
func (c *Config) applyEnv() {
	setenv(&c.Providers.Sightengine.User, "SIGHTENGINE_USER")
	setenv(&c.Providers.Sightengine.Secret, "SIGHTENGINE_SECRET")
	setenv(&c.Providers.Resemble.APIKey, "RESEMBLE_API_KEY")
	setenv(&c.OpenAI.APIKey, "OPENAI_API_KEY")
	setenv(&c.Database.URL, "DATABASE_URL")
}

func setenv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// SightengineConfigured reports whether real vision-provider credentials are
// present; absence toggles demo mode.
func (c *Config) SightengineConfigured() bool {
	return c.Providers.Sightengine.User != "" && c.Providers.Sightengine.Secret != ""
}

func (c *Config) ResembleConfigured() bool {
	return c.Providers.Resemble.APIKey != ""
}

// MaxUploadBytes is the upload size ceiling in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return c.Uploads.MaxSizeMB * 1024 * 1024
}
