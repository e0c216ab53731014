package internal

import (
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/laguz/internal/translate"
	"github.com/starford/laguz/internal/uploader"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Source  SourceConfig      `yaml:"source"`
	Notion  NotionConfig      `yaml:"notion"`
	Upload  UploadConfig      `yaml:"upload"`
	Journal JournalConfig     `yaml:"journal"`
	Rules   translate.Rules   `yaml:"rules"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Source.Validate(); err != nil {
		return err
	}
	if err := c.Notion.Validate(); err != nil {
		return err
	}
	return c.Upload.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level   `yaml:"log_level"`
	Status   StatusConfig `yaml:"status"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.Status.Validate()
}

// StatusConfig holds the optional status HTTP server configuration.
// Port 0 disables the server.
type StatusConfig struct {
	Port int `yaml:"port"`
}

// Address returns the status server address.
func (c *StatusConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Enabled reports whether the status server should run.
func (c *StatusConfig) Enabled() bool {
	return c.Port > 0
}

// Validate validates the status configuration.
func (c *StatusConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Min(0), validation.Max(65535)),
	)
}

// SourceConfig points at the ENEX export directory (or a single .enex file).
type SourceConfig struct {
	Path  string `yaml:"path"`
	Watch bool   `yaml:"watch"`
}

// Validate validates the source configuration.
func (c *SourceConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// NotionConfig holds the destination workspace configuration.
//
// Mode selects the container strategy per notebook:
//   - "page" (default): notes become child pages of a per-notebook page.
//   - "DB": notes become rows of a per-notebook database.
//
// DryRun parses and translates notes without touching the workspace.
type NotionConfig struct {
	BaseURL string `yaml:"base_url"`
	Token   string `yaml:"token"`
	RootID  string `yaml:"root_id"`
	Mode    string `yaml:"mode"`
	DryRun  bool   `yaml:"dry_run"`
}

// Validate validates the destination configuration.
func (c *NotionConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = uploader.ModePage
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(uploader.ModePage, uploader.ModeDB)),
	); err != nil {
		return err
	}
	if c.DryRun {
		return nil
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.BaseURL, validation.Required),
		validation.Field(&c.RootID, validation.Required),
	)
}

// UploadConfig holds upload pipeline configuration. DoneFile is the
// completion ledger path; leaving it empty disables cross-run resume.
type UploadConfig struct {
	Parallelism int    `yaml:"parallelism"`
	DoneFile    string `yaml:"done_file"`
}

// Validate validates the upload configuration.
func (c *UploadConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Parallelism, validation.Required, validation.Min(1)),
	)
}

// JournalConfig holds the optional migration journal database path.
type JournalConfig struct {
	Path string `yaml:"path"`
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			Status: StatusConfig{
				Port: 0,
			},
		},
		Notion: NotionConfig{
			Mode: uploader.ModePage,
		},
		Upload: UploadConfig{
			Parallelism: 1,
		},
	}
}
