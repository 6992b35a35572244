// Package internal wires configuration, storage, the search index and the
// git synchronizer into the zk commands.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/starford/zk/internal/gitsync"
	"github.com/starford/zk/internal/index"
	"github.com/starford/zk/internal/models"
	"github.com/starford/zk/internal/noteservice"
	"github.com/starford/zk/internal/storage"
)

// Launcher starts an interactive program in dir and waits for it to exit.
type Launcher func(ctx context.Context, dir string, args []string) error

// App holds the resources shared by the zk commands.
type App struct {
	config  *Config
	logger  *slog.Logger
	runner  gitsync.Runner
	launch  Launcher
	stdout  io.Writer
	version string

	store *storage.FS
	db    *index.DB
}

// New builds an App from opts and opens the zettelkasten, creating its
// directory if needed. The search index is opened lazily.
func New(opts ...Option) (*App, error) {
	app := &App{}
	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	cfg := app.config

	if app.logger == nil {
		app.logger = NewLogger(cfg.App, os.Stderr)
	}
	if app.runner == nil {
		app.runner = gitsync.ExecRunner{}
	}
	if app.launch == nil {
		app.launch = execLauncher
	}
	if app.stdout == nil {
		app.stdout = os.Stdout
	}
	if app.version == "" {
		app.version = "dev"
	}

	app.logger.Debug("Configuration loaded",
		slog.String("zk_path", cfg.ZK.Path),
		slog.String("default_id", cfg.ZK.DefaultID),
		slog.String("log_level", cfg.App.LogLevel.String()))

	store, err := storage.NewFS(cfg.ZK.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	app.store = store
	return app, nil
}

// NewLogger builds the process logger. Output goes to w so stdout stays free
// for command output.
func NewLogger(cfg ApplicationConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	if cfg.LogFormat == LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Close releases the search index, if it was opened.
func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	return err
}

// Store returns the zettel store.
func (a *App) Store() *storage.FS {
	return a.store
}

// openIndex opens the search index and brings it up to date with the store.
func (a *App) openIndex() (*index.DB, error) {
	if a.db != nil {
		return a.db, nil
	}
	path, err := a.config.Index.Resolve(a.store.Root())
	if err != nil {
		return nil, fmt.Errorf("resolve index path: %w", err)
	}
	db, err := index.Open(path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}
	if err := index.Sync(db, a.store, a.logger); err != nil {
		db.Close()
		return nil, fmt.Errorf("sync index: %w", err)
	}
	a.db = db
	return db, nil
}

func (a *App) service() (*noteservice.Service, error) {
	db, err := a.openIndex()
	if err != nil {
		return nil, err
	}
	return noteservice.NewService(a.store, db, a.config.ZK.DefaultID, a.logger), nil
}

// zettelID returns id, or the configured default when id is empty.
func (a *App) zettelID(id string) (string, error) {
	if id == "" {
		id = a.config.ZK.DefaultID
	}
	if err := models.ValidateID(id); err != nil {
		return "", err
	}
	return id, nil
}

// ensure creates an empty zettel for id unless one exists.
func (a *App) ensure(id string) error {
	if a.store.Contains(id) {
		return nil
	}
	z, err := models.New(id, "", nil, nil)
	if err != nil {
		return err
	}
	if err := a.store.Save(z); err != nil {
		return err
	}
	a.logger.Info("created zettel", slog.String("id", id))
	return nil
}

// program splits a configured command line, falling back to the environment
// variable env and then to def.
func program(configured, env, def string) []string {
	for _, v := range []string{configured, os.Getenv(env)} {
		if fields := strings.Fields(v); len(fields) > 0 {
			return fields
		}
	}
	return []string{def}
}

func execLauncher(ctx context.Context, dir string, args []string) error {
	c := exec.CommandContext(ctx, args[0], args[1:]...)
	c.Dir = dir
	c.Stdin = os.Stdin
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	if err := c.Run(); err != nil {
		res := gitsync.Result{ExitCode: -1, Err: err}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
		}
		return &gitsync.CommandError{Command: gitsync.Command{Dir: dir, Args: args}, Result: res}
	}
	return nil
}
