package internal

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/starford/zk/internal/apperr"
	"github.com/starford/zk/internal/gitsync"
	"github.com/starford/zk/internal/graph"
	"github.com/starford/zk/internal/index"
	"github.com/starford/zk/internal/mcpserver"
	"github.com/starford/zk/internal/models"
)

// Edit opens zettel id (the default zettel when empty) in the editor,
// creating it first if it does not exist.
func (a *App) Edit(ctx context.Context, id string) error {
	id, err := a.zettelID(id)
	if err != nil {
		return err
	}
	if err := a.ensure(id); err != nil {
		return err
	}

	args := append(program(a.config.Editor, "EDITOR", "vim"), a.store.Path(id))
	if err := a.launch(ctx, a.store.Root(), args); err != nil {
		return err
	}

	a.reindex(id)
	return nil
}

// Prepare creates zettel id if needed and prints its absolute path.
func (a *App) Prepare(_ context.Context, id string) error {
	id, err := a.zettelID(id)
	if err != nil {
		return err
	}
	if err := a.ensure(id); err != nil {
		return err
	}
	_, err = fmt.Fprintln(a.stdout, a.store.Path(id))
	return err
}

// NewZettel adds a zettel that must not exist yet and prints its path.
func (a *App) NewZettel(_ context.Context, id, title string) error {
	z, err := models.New(id, title, nil, nil)
	if err != nil {
		return err
	}
	if err := a.store.Add(z); err != nil {
		return err
	}
	a.reindex(id)
	_, err = fmt.Fprintln(a.stdout, a.store.Path(id))
	return err
}

// Rename moves zettel oldID to newID and rewrites every citation of it.
func (a *App) Rename(ctx context.Context, oldID, newID string) error {
	svc, err := a.service()
	if err != nil {
		return err
	}
	note, err := svc.RenameNote(ctx, oldID, newID)
	if err != nil {
		return err
	}
	a.logger.Info("renamed zettel",
		slog.String("from", oldID),
		slog.String("to", newID),
		slog.Int("citing", len(note.Backlinks)))
	return nil
}

// Sync commits local changes and reconciles them with the git remote.
func (a *App) Sync(ctx context.Context) error {
	return gitsync.New(a.store.Root(), a.runner, a.config.Sync.CommitMessage, a.logger).Sync(ctx)
}

// Shell starts the configured shell in the zettelkasten directory. A non-empty
// command is run with -c instead of an interactive session.
func (a *App) Shell(ctx context.Context, command string) error {
	args := program(a.config.Shell, "SHELL", "/bin/sh")
	if command != "" {
		args = append(args, "-c", command)
	}
	return a.launch(ctx, a.store.Root(), args)
}

// Graph builds the citation graph, logs its warnings and prints a summary.
func (a *App) Graph(_ context.Context) error {
	g, warnings, err := graph.Build(a.store, a.config.ZK.DefaultID)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		a.logger.Warn(w.String(), slog.String("kind", string(w.Kind)), slog.String("id", w.Source))
	}

	root := "(missing)"
	if r := g.Root(); r != nil {
		root = r.ID()
	}
	fmt.Fprintf(a.stdout, "zettels: %d\nlinks: %d\nroot: %s\nwarnings: %d\n",
		g.Len(), len(g.Links()), root, len(warnings))
	a.printNodes("orphans", g.Orphans())
	a.printNodes("dead ends", g.DeadEnds())
	a.printNodes("unreachable", g.Unreachable())
	return nil
}

// Refs prints the zettels cited by id, the zettels citing it, and any of its
// citations that point at missing zettels.
func (a *App) Refs(_ context.Context, id string) error {
	id, err := a.zettelID(id)
	if err != nil {
		return err
	}
	g, warnings, err := graph.Build(a.store, a.config.ZK.DefaultID)
	if err != nil {
		return err
	}
	n, ok := g.Node(id)
	if !ok {
		return fmt.Errorf("zettel %q: %w", id, apperr.ErrNotFound)
	}

	a.printNodes("cites", n.Downstream())
	a.printNodes("cited by", n.Upstream())
	var dangling []string
	for _, w := range warnings {
		if w.Kind == graph.WarnDangling && w.Source == id {
			dangling = append(dangling, w.Target)
		}
	}
	a.printIDs("dangling", dangling)
	return nil
}

// Search prints index matches for query.
func (a *App) Search(ctx context.Context, query string, limit int) error {
	svc, err := a.service()
	if err != nil {
		return err
	}
	results, err := svc.Search(ctx, query, limit)
	if err != nil {
		return err
	}
	for _, r := range results {
		fmt.Fprintf(a.stdout, "%s\t%s\n", r.ID, r.Title)
		if r.Snippet != "" {
			fmt.Fprintf(a.stdout, "\t%s\n", strings.Join(strings.Fields(r.Snippet), " "))
		}
	}
	return nil
}

// Reindex brings the search index up to date with the store.
func (a *App) Reindex(_ context.Context) error {
	start := time.Now()
	if _, err := a.openIndex(); err != nil {
		return err
	}
	a.logger.Info("index up to date", slog.Duration("took", time.Since(start)))
	return nil
}

// MCP serves the MCP tools on stdin/stdout until the client disconnects.
func (a *App) MCP(_ context.Context) error {
	svc, err := a.service()
	if err != nil {
		return err
	}
	return mcpserver.New(svc, a.version).ServeStdio()
}

// reindex refreshes the index entry for id. The index is derived data, so
// failures are logged and not returned.
func (a *App) reindex(id string) {
	if a.db == nil {
		// Opening the index syncs every changed zettel, id included.
		if _, err := a.openIndex(); err != nil {
			a.logger.Warn("index unavailable", slog.String("error", err.Error()))
		}
		return
	}
	data, err := a.store.Read(id)
	if err != nil {
		a.logger.Warn("reindex failed", slog.String("id", id), slog.String("error", err.Error()))
		return
	}
	if err := index.IndexFile(a.db, id, data, time.Now()); err != nil {
		a.logger.Warn("reindex failed", slog.String("id", id), slog.String("error", err.Error()))
	}
}

func (a *App) printNodes(label string, nodes []*graph.Node) {
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID()
	}
	a.printIDs(label, ids)
}

func (a *App) printIDs(label string, ids []string) {
	fmt.Fprintf(a.stdout, "%s: %d\n", label, len(ids))
	for _, id := range ids {
		fmt.Fprintf(a.stdout, "  %s\n", id)
	}
}
