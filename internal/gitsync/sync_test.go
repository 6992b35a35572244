package gitsync_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/starford/zk/internal/gitsync"
	"github.com/starford/zk/internal/gitsync/mocks"
)

const dir = "/tmp/zk"

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func cmd(args ...string) gitsync.Command {
	return gitsync.Command{Dir: dir, Args: args}
}

func ok(stdout string) gitsync.Result {
	return gitsync.Result{Stdout: stdout}
}

func failed(stderr string) gitsync.Result {
	return gitsync.Result{ExitCode: 1, Stderr: stderr, Err: errors.New("exit status 1")}
}

func TestSync_CommitsWhenChanged(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := mocks.NewMockRunner(ctrl)
	ctx := context.Background()

	gomock.InOrder(
		runner.EXPECT().Run(ctx, cmd("git", "status", "--porcelain")).Return(ok(" M index.md\n")),
		runner.EXPECT().Run(ctx, cmd("git", "add", ".")).Return(ok("")),
		runner.EXPECT().Run(ctx, cmd("git", "commit", "-m", "updates")).Return(ok("")),
		runner.EXPECT().Run(ctx, cmd("git", "pull", "--rebase")).Return(ok("")),
		runner.EXPECT().Run(ctx, cmd("git", "push")).Return(ok("")),
	)

	s := gitsync.New(dir, runner, "", quiet)
	if err := s.Sync(ctx); err != nil {
		t.Fatalf("Sync: %v", err)
	}
}

func TestSync_SkipsCommitWithoutChanges(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := mocks.NewMockRunner(ctrl)
	ctx := context.Background()

	gomock.InOrder(
		runner.EXPECT().Run(ctx, cmd("git", "status", "--porcelain")).Return(ok("")),
		runner.EXPECT().Run(ctx, cmd("git", "pull", "--rebase")).Return(ok("")),
		runner.EXPECT().Run(ctx, cmd("git", "push")).Return(ok("")),
	)

	s := gitsync.New(dir, runner, "", quiet)
	if err := s.Sync(ctx); err != nil {
		t.Fatalf("Sync: %v", err)
	}
}

func TestSync_StopsAtFirstFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := mocks.NewMockRunner(ctrl)
	ctx := context.Background()

	gomock.InOrder(
		runner.EXPECT().Run(ctx, cmd("git", "status", "--porcelain")).Return(ok("?? new.md\n")),
		runner.EXPECT().Run(ctx, cmd("git", "add", ".")).Return(ok("")),
		runner.EXPECT().Run(ctx, cmd("git", "commit", "-m", "notes")).Return(ok("")),
		runner.EXPECT().Run(ctx, cmd("git", "pull", "--rebase")).Return(failed("CONFLICT (content): Merge conflict in a.md")),
	)

	s := gitsync.New(dir, runner, "notes", quiet)
	err := s.Sync(ctx)
	var cmdErr *gitsync.CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("err = %v, want *CommandError", err)
	}
	if cmdErr.Command.String() != "git pull --rebase" {
		t.Errorf("failing command = %q", cmdErr.Command)
	}
	if !strings.Contains(cmdErr.Result.Output(), "Merge conflict") {
		t.Errorf("output = %q", cmdErr.Result.Output())
	}
}

func TestSync_StatusFailureAbortsEverything(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := mocks.NewMockRunner(ctrl)
	ctx := context.Background()

	runner.EXPECT().Run(ctx, cmd("git", "status", "--porcelain")).Return(failed("fatal: not a git repository"))

	s := gitsync.New(dir, runner, "", quiet)
	if err := s.Sync(ctx); err == nil {
		t.Fatal("expected error")
	}
}

func TestCommitChanges_AddFailureSkipsCommit(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := mocks.NewMockRunner(ctrl)
	ctx := context.Background()

	runner.EXPECT().Run(ctx, cmd("git", "add", ".")).Return(failed("index.lock exists"))

	s := gitsync.New(dir, runner, "", quiet)
	if err := s.CommitChanges(ctx); err == nil {
		t.Fatal("expected error")
	}
}

func TestExecRunner(t *testing.T) {
	ctx := context.Background()
	r := gitsync.ExecRunner{}

	res := r.Run(ctx, gitsync.Command{Dir: t.TempDir(), Args: []string{"sh", "-c", "echo out; echo err >&2"}})
	if !res.OK() {
		t.Fatalf("unexpected failure: %v", res.Err)
	}
	if res.Stdout != "out\n" || res.Stderr != "err\n" {
		t.Errorf("stdout = %q, stderr = %q", res.Stdout, res.Stderr)
	}

	res = r.Run(ctx, gitsync.Command{Args: []string{"sh", "-c", "exit 3"}})
	if res.OK() || res.ExitCode != 3 {
		t.Errorf("result = %+v, want exit 3", res)
	}

	res = r.Run(ctx, gitsync.Command{})
	if res.OK() {
		t.Error("empty command should fail")
	}
}
