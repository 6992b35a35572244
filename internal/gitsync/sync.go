package gitsync

import (
	"context"
	"log/slog"
	"strings"
)

// DefaultCommitMessage is used when no commit message is configured.
const DefaultCommitMessage = "updates"

// Synchronizer sequences git commands in the zettelkasten directory. Every
// step waits for the previous one; the first failure aborts the rest.
type Synchronizer struct {
	dir     string
	runner  Runner
	message string
	logger  *slog.Logger
}

// New creates a Synchronizer for the repository at dir.
func New(dir string, runner Runner, commitMessage string, logger *slog.Logger) *Synchronizer {
	if commitMessage == "" {
		commitMessage = DefaultCommitMessage
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Synchronizer{dir: dir, runner: runner, message: commitMessage, logger: logger}
}

// HasChanges reports whether the working tree has uncommitted changes.
func (s *Synchronizer) HasChanges(ctx context.Context) (bool, error) {
	res, err := s.run(ctx, "git", "status", "--porcelain")
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(res.Stdout) != "", nil
}

// CommitChanges stages everything and commits it.
func (s *Synchronizer) CommitChanges(ctx context.Context) error {
	if _, err := s.run(ctx, "git", "add", "."); err != nil {
		return err
	}
	_, err := s.run(ctx, "git", "commit", "-m", s.message)
	return err
}

// FetchAndRebase pulls the remote and rebases local commits onto it.
func (s *Synchronizer) FetchAndRebase(ctx context.Context) error {
	_, err := s.run(ctx, "git", "pull", "--rebase")
	return err
}

// Push pushes local commits to the remote.
func (s *Synchronizer) Push(ctx context.Context) error {
	_, err := s.run(ctx, "git", "push")
	return err
}

// Sync commits pending changes, if any, then pulls with rebase and pushes.
func (s *Synchronizer) Sync(ctx context.Context) error {
	changed, err := s.HasChanges(ctx)
	if err != nil {
		return err
	}
	if changed {
		if err := s.CommitChanges(ctx); err != nil {
			return err
		}
	} else {
		s.logger.Debug("sync: no local changes")
	}
	if err := s.FetchAndRebase(ctx); err != nil {
		return err
	}
	if err := s.Push(ctx); err != nil {
		return err
	}
	s.logger.Info("sync: done", slog.String("dir", s.dir))
	return nil
}

func (s *Synchronizer) run(ctx context.Context, args ...string) (Result, error) {
	cmd := Command{Dir: s.dir, Args: args}
	s.logger.Debug("sync: run", slog.String("cmd", cmd.String()))
	res := s.runner.Run(ctx, cmd)
	if !res.OK() {
		return res, &CommandError{Command: cmd, Result: res}
	}
	return res, nil
}
