package internal

import (
	"testing"

	"github.com/starford/laguz/internal/uploader"
)

func validConfig() *Config {
	cfg := NewDefaultConfig()
	cfg.Source.Path = "/exports"
	cfg.Notion.BaseURL = "https://api.example.com"
	cfg.Notion.RootID = "root-page"
	return cfg
}

func TestConfig_ValidDefaults(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid config should pass: %v", err)
	}
	if cfg.Notion.Mode != uploader.ModePage {
		t.Errorf("default mode = %q, want %q", cfg.Notion.Mode, uploader.ModePage)
	}
}

func TestSourceConfig_PathRequired(t *testing.T) {
	cfg := validConfig()
	cfg.Source.Path = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("missing source path should fail validation")
	}
}

func TestNotionConfig_EmptyModeDefaultsPage(t *testing.T) {
	cfg := NotionConfig{BaseURL: "https://x", RootID: "r", Mode: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to page: %v", err)
	}
	if cfg.Mode != uploader.ModePage {
		t.Errorf("mode = %q, want %q", cfg.Mode, uploader.ModePage)
	}
}

func TestNotionConfig_InvalidMode(t *testing.T) {
	cfg := NotionConfig{BaseURL: "https://x", RootID: "r", Mode: "magic"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestNotionConfig_DBMode(t *testing.T) {
	cfg := NotionConfig{BaseURL: "https://x", RootID: "r", Mode: uploader.ModeDB}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("DB mode should pass: %v", err)
	}
}

func TestNotionConfig_DryRunSkipsDestinationFields(t *testing.T) {
	cfg := NotionConfig{DryRun: true}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("dry run without base_url/root_id should pass: %v", err)
	}
}

func TestNotionConfig_MissingRootID(t *testing.T) {
	cfg := NotionConfig{BaseURL: "https://x", Mode: uploader.ModePage}
	if err := cfg.Validate(); err == nil {
		t.Fatal("missing root_id should fail when not a dry run")
	}
}

func TestUploadConfig_ParallelismBounds(t *testing.T) {
	cfg := validConfig()
	cfg.Upload.Parallelism = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("parallelism 0 should fail validation")
	}
	cfg.Upload.Parallelism = 8
	if err := cfg.Validate(); err != nil {
		t.Fatalf("parallelism 8 should pass: %v", err)
	}
}

func TestStatusConfig_PortRange(t *testing.T) {
	cfg := validConfig()
	cfg.App.Status.Port = 70000
	if err := cfg.Validate(); err == nil {
		t.Fatal("out-of-range port should fail validation")
	}
	cfg.App.Status.Port = 0
	if err := cfg.Validate(); err != nil {
		t.Fatalf("port 0 (disabled) should pass: %v", err)
	}
	if cfg.App.Status.Enabled() {
		t.Error("port 0 should mean disabled")
	}
}
