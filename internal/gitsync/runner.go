// Package gitsync commits local zettelkasten changes and reconciles them with
// a git remote.
//
// Commands run through a Runner, which turns a command and working directory
// into a Result. The production Runner spawns processes; tests substitute a
// mock.
package gitsync

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_runner.go -package=mocks github.com/starford/zk/internal/gitsync Runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Command is a program invocation in a working directory.
type Command struct {
	Dir  string
	Args []string
}

func (c Command) String() string {
	return strings.Join(c.Args, " ")
}

// Result captures the outcome of a Command. Err is set when the command could
// not be started or exited non-zero.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Err      error
}

// OK reports whether the command succeeded.
func (r Result) OK() bool {
	return r.Err == nil
}

// Output returns stdout and stderr combined for display.
func (r Result) Output() string {
	return strings.TrimSpace(strings.TrimSpace(r.Stdout) + "\n" + strings.TrimSpace(r.Stderr))
}

// Runner executes commands.
type Runner interface {
	Run(ctx context.Context, cmd Command) Result
}

// ExecRunner runs commands as child processes and waits for them to exit.
type ExecRunner struct{}

// Run implements Runner.
func (ExecRunner) Run(ctx context.Context, cmd Command) Result {
	if len(cmd.Args) == 0 {
		return Result{ExitCode: -1, Err: errors.New("gitsync: empty command")}
	}
	c := exec.CommandContext(ctx, cmd.Args[0], cmd.Args[1:]...)
	c.Dir = cmd.Dir
	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	res := Result{}
	if err := c.Run(); err != nil {
		res.Err = err
		res.ExitCode = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
		}
	}
	res.Stdout = stdout.String()
	res.Stderr = stderr.String()
	return res
}

// CommandError reports a failed synchronizer step.
type CommandError struct {
	Command Command
	Result  Result
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command `%s` failed (exit %d): %v", e.Command, e.Result.ExitCode, e.Result.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Result.Err
}
