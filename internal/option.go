package internal

import (
	"io"
	"log/slog"

	"github.com/starford/zk/internal/gitsync"
)

// Option is a functional option for configuring the application.
type Option func(*App)

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *App) {
		a.config = cfg
	}
}

// WithLogger overrides the logger built from the configuration.
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) {
		a.logger = logger
	}
}

// WithRunner sets the runner used by the git synchronizer.
func WithRunner(r gitsync.Runner) Option {
	return func(a *App) {
		a.runner = r
	}
}

// WithLauncher sets how interactive programs (editor, shell) are started.
func WithLauncher(l Launcher) Option {
	return func(a *App) {
		a.launch = l
	}
}

// WithStdout sets where command output is written.
func WithStdout(w io.Writer) Option {
	return func(a *App) {
		a.stdout = w
	}
}

// WithVersion sets the version reported by the MCP server.
func WithVersion(v string) Option {
	return func(a *App) {
		a.version = v
	}
}
