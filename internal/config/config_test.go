package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{
		"PORT", "CISAUDIT_API_KEY", "DATABASE_DRIVER", "DATABASE_URL", "REDIS_URL",
		"WORKER_COUNT", "MAX_QUEUE_SIZE", "MAX_UPLOAD_BYTES", "JOB_TTL", "SESSION_TTL",
		"PDF_FALLBACK_PDFTOTEXT", "TOC_MARKER", "TOC_STOP_MARKER",
	} {
		t.Setenv(k, "")
	}

	cfg := Load()
	if cfg.Port != "8091" {
		t.Errorf("Port = %q, want 8091", cfg.Port)
	}
	if cfg.DatabaseDriver != "sqlite" || cfg.DatabaseURL != "file:cisaudit.db" {
		t.Errorf("database = %q %q", cfg.DatabaseDriver, cfg.DatabaseURL)
	}
	if cfg.WorkerCount != 2 || cfg.MaxQueueSize != 50 {
		t.Errorf("workers = %d queue = %d", cfg.WorkerCount, cfg.MaxQueueSize)
	}
	if cfg.MaxUploadBytes != 52428800 {
		t.Errorf("MaxUploadBytes = %d", cfg.MaxUploadBytes)
	}
	if cfg.JobTTL != time.Hour || cfg.SessionTTL != 24*time.Hour {
		t.Errorf("ttl = %v / %v", cfg.JobTTL, cfg.SessionTTL)
	}
	if !cfg.PDFFallbackPdftotext {
		t.Error("expected pdftotext fallback on by default")
	}
	if cfg.TOCMarker != "Table of Contents" || cfg.TOCStopMarker != "Appendix" {
		t.Errorf("markers = %q %q", cfg.TOCMarker, cfg.TOCStopMarker)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("DATABASE_DRIVER", "pgx")
	t.Setenv("DATABASE_URL", "postgres://localhost/cis")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("WORKER_COUNT", "8")
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("PDF_FALLBACK_PDFTOTEXT", "false")
	t.Setenv("TOC_MARKER", "Contents")

	cfg := Load()
	if cfg.Port != "9000" || cfg.DatabaseDriver != "pgx" || cfg.RedisURL == "" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.WorkerCount != 8 || cfg.SessionTTL != 30*time.Minute {
		t.Errorf("workers = %d session ttl = %v", cfg.WorkerCount, cfg.SessionTTL)
	}
	if cfg.PDFFallbackPdftotext {
		t.Error("expected fallback disabled")
	}
	if cfg.TOCMarker != "Contents" {
		t.Errorf("TOCMarker = %q", cfg.TOCMarker)
	}
}

func TestLoad_ClampsInvalid(t *testing.T) {
	t.Setenv("WORKER_COUNT", "-1")
	t.Setenv("MAX_QUEUE_SIZE", "0")
	t.Setenv("JOB_TTL", "garbage")
	t.Setenv("SESSION_TTL", "-5m")

	cfg := Load()
	if cfg.WorkerCount != 2 || cfg.MaxQueueSize != 50 {
		t.Errorf("workers = %d queue = %d", cfg.WorkerCount, cfg.MaxQueueSize)
	}
	if cfg.JobTTL != time.Hour || cfg.SessionTTL != 24*time.Hour {
		t.Errorf("ttl = %v / %v", cfg.JobTTL, cfg.SessionTTL)
	}
}

func TestValidate(t *testing.T) {
	base := Config{APIKey: "k", DatabaseDriver: "sqlite", DatabaseURL: "file:x.db"}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"missing api key", func(c *Config) { c.APIKey = "" }, true},
		{"unknown driver", func(c *Config) { c.DatabaseDriver = "mysql" }, true},
		{"postgres alias", func(c *Config) { c.DatabaseDriver = "postgres" }, false},
		{"missing url", func(c *Config) { c.DatabaseURL = "" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
