package executor

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"

	"github.com/oshokin/oclhelpers-release/internal/logger"
)

const (
	// defaultTailLines is how many output lines a CommandError keeps.
	defaultTailLines = 20

	// waitDelay bounds how long Wait blocks on I/O after the process was killed.
	waitDelay = 5 * time.Second
)

// Command describes a single external invocation.
type Command struct {
	// Step is a short human name used in logs and errors, e.g. "configure Debug".
	Step string
	// Name is the executable looked up in PATH.
	Name string
	// Args are passed verbatim, no shell is involved.
	Args []string
	// Dir is the working directory; empty means the current one.
	Dir string
	// Env is appended to the inherited environment.
	Env []string
}

// String renders the command line for logs.
func (c Command) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// Runner executes commands and waits for them.
type Runner interface {
	Run(ctx context.Context, cmd Command) error
}

// CommandError is returned when a command cannot be started or exits unsuccessfully.
type CommandError struct {
	// Step is copied from Command.Step.
	Step string
	// Argv is the full command line.
	Argv []string
	// ExitCode is the process exit status, or -1 if it never ran to completion.
	ExitCode int
	// Output holds the last lines printed by the command.
	Output []string
	// Err is the underlying error from os/exec or the context.
	Err error
}

// Error implements error.
func (e *CommandError) Error() string {
	if e.ExitCode >= 0 {
		return fmt.Sprintf("%s: %q exited with code %d", e.Step, strings.Join(e.Argv, " "), e.ExitCode)
	}

	return fmt.Sprintf("%s: %q: %v", e.Step, strings.Join(e.Argv, " "), e.Err)
}

// Unwrap returns the underlying cause.
func (e *CommandError) Unwrap() error {
	return e.Err
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	timeout     time.Duration
	outputLevel zapcore.Level
	tailLines   int
}

// Option configures an ExecRunner.
type Option func(*ExecRunner)

// WithTimeout limits every command to d. Zero disables the limit.
func WithTimeout(d time.Duration) Option {
	return func(r *ExecRunner) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithOutputLevel sets the level tool output is logged at.
func WithOutputLevel(level zapcore.Level) Option {
	return func(r *ExecRunner) {
		r.outputLevel = level
	}
}

// WithTailLines sets how many output lines are kept for errors.
func WithTailLines(n int) Option {
	return func(r *ExecRunner) {
		if n > 0 {
			r.tailLines = n
		}
	}
}

// NewExecRunner creates a runner that logs tool output at debug level.
func NewExecRunner(opts ...Option) *ExecRunner {
	r := &ExecRunner{
		outputLevel: zapcore.DebugLevel,
		tailLines:   defaultTailLines,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Run starts cmd and blocks until it exits.
// Cancelling ctx kills the process.
func (r *ExecRunner) Run(ctx context.Context, cmd Command) error {
	if r.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	ctx = logger.WithKV(ctx, "step", cmd.Step)
	logger.InfoKV(ctx, "Running command", "command", cmd.String())

	out := newLineWriter(ctx, r.outputLevel, r.tailLines)

	//nolint:gosec // Commands are assembled from configuration, not from untrusted input.
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	c.Stdout = out
	c.Stderr = out
	c.WaitDelay = waitDelay

	if len(cmd.Env) > 0 {
		c.Env = append(c.Environ(), cmd.Env...)
	}

	started := time.Now()
	err := c.Run()

	out.Flush()

	if err == nil {
		logger.DebugKV(ctx, "Command finished", "elapsed", time.Since(started))
		return nil
	}

	cmdErr := &CommandError{
		Step:     cmd.Step,
		Argv:     append([]string{cmd.Name}, cmd.Args...),
		ExitCode: -1,
		Output:   out.Tail(),
		Err:      err,
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && ctx.Err() == nil {
		cmdErr.ExitCode = exitErr.ExitCode()
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		cmdErr.Err = fmt.Errorf("%w: %w", ctxErr, err)
	}

	logger.ErrorKV(ctx, "Command failed", "error", cmdErr, "output", strings.Join(cmdErr.Output, "\n"))

	return cmdErr
}
