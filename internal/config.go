package internal

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/zk/internal/gitsync"
	"github.com/starford/zk/internal/models"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Config represents the application configuration.
type Config struct {
	App    ApplicationConfig `yaml:"app"`
	ZK     ZKConfig          `yaml:"zk"`
	Editor string            `yaml:"editor"`
	Shell  string            `yaml:"shell"`
	Sync   SyncConfig        `yaml:"sync"`
	Index  IndexConfig       `yaml:"index"`
	Auth   AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.ZK.Validate(); err != nil {
		return err
	}
	if err := c.Sync.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel  slog.Level `yaml:"log_level"`
	LogFormat string     `yaml:"log_format"`
	HTTP      HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	if c.LogFormat == "" {
		c.LogFormat = LogFormatText
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.LogFormat, validation.In(LogFormatText, LogFormatJSON)),
	); err != nil {
		return err
	}
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// ZKConfig locates the zettelkasten.
type ZKConfig struct {
	Path      string `yaml:"path"`
	DefaultID string `yaml:"default_id"`
}

// Validate validates the zettelkasten configuration.
func (c *ZKConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.DefaultID, validation.Required, validation.By(func(any) error {
			return models.ValidateID(c.DefaultID)
		})),
	)
}

// SyncConfig configures the git synchronizer.
type SyncConfig struct {
	CommitMessage string `yaml:"commit_message"`
}

// Validate validates the sync configuration.
func (c *SyncConfig) Validate() error {
	if c.CommitMessage == "" {
		c.CommitMessage = gitsync.DefaultCommitMessage
	}
	return nil
}

// IndexConfig holds the SQLite search index location.
type IndexConfig struct {
	Path string `yaml:"path"`
}

// Resolve returns the configured index path, or a per-zettelkasten file in
// the user cache directory. The index never lives inside the zettelkasten so
// it is not committed by sync.
func (c *IndexConfig) Resolve(zkPath string) (string, error) {
	if c.Path != "" {
		return c.Path, nil
	}
	abs, err := filepath.Abs(zkPath)
	if err != nil {
		return "", err
	}
	cache, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("locate cache dir: %w", err)
	}
	sum := sha256.Sum256([]byte(abs))
	return filepath.Join(cache, "zk", hex.EncodeToString(sum[:6])+".db"), nil
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local use.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return &Config{
		App: ApplicationConfig{
			LogLevel:  slog.LevelInfo,
			LogFormat: LogFormatText,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		ZK: ZKConfig{
			Path:      filepath.Join(home, "zk"),
			DefaultID: "index",
		},
		Sync: SyncConfig{
			CommitMessage: gitsync.DefaultCommitMessage,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
