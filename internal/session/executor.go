package session

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"
)

// Executor runs a command and returns its combined stdout and stderr.
// A non-zero exit status is not an error: ab exits non-zero on
// connection failures and still prints a partial report.
type Executor interface {
	Execute(ctx context.Context, argv []string) ([]byte, error)
}

// ExecExecutor spawns argv[0] directly.
type ExecExecutor struct{}

func (ExecExecutor) Execute(ctx context.Context, argv []string) ([]byte, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("%w: empty command", ErrExecutionFailed)
	}
	out, err := exec.CommandContext(ctx, argv[0], argv[1:]...).CombinedOutput()
	return out, classify(ctx, argv[0], err)
}

// ShellExecutor runs the command line through the platform shell, so a
// missing tool shows up as shell error text.
type ShellExecutor struct {
	GOOS string
}

func (e ShellExecutor) Execute(ctx context.Context, argv []string) ([]byte, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("%w: empty command", ErrExecutionFailed)
	}
	goos := e.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}

	line := ShellLine(goos, argv)
	var cmd *exec.Cmd
	if goos == "windows" {
		cmd = exec.CommandContext(ctx, "cmd", "/C", line)
	} else {
		cmd = exec.CommandContext(ctx, "sh", "-c", line)
	}
	out, err := cmd.CombinedOutput()
	return out, classify(ctx, argv[0], err)
}

// ShellLine joins argv into one command line for the shell of goos, quoting
// every argument that holds anything besides plain word characters. A URL
// with ? or & must reach the tool as one literal argument.
func ShellLine(goos string, argv []string) string {
	quote := posixQuote
	if goos == "windows" {
		quote = cmdQuote
	}
	parts := make([]string, len(argv))
	for i, a := range argv {
		if a != "" && strings.Trim(a, shellSafe) == "" {
			parts[i] = a
			continue
		}
		parts[i] = quote(a)
	}
	return strings.Join(parts, " ")
}

const shellSafe = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789_-+=.,/:@"

func posixQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// cmd.exe treats & | < > ^ literally inside double quotes. A literal
// double quote is doubled.
func cmdQuote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func classify(ctx context.Context, name string, err error) error {
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w: %s: %w", ErrExecutionFailed, name, ctxErr)
	}
	if errors.Is(err, exec.ErrNotFound) {
		return fmt.Errorf("%w: %q must be on your PATH", ErrToolNotFound, name)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrExecutionFailed, name, err)
}

// NewExecutor returns the shell executor when useShell is set.
func NewExecutor(useShell bool) Executor {
	if useShell {
		return ShellExecutor{}
	}
	return ExecExecutor{}
}

// WithTimeout bounds every execution of ex by d. A zero d returns ex.
func WithTimeout(ex Executor, d time.Duration) Executor {
	if d <= 0 {
		return ex
	}
	return timeoutExecutor{ex: ex, d: d}
}

type timeoutExecutor struct {
	ex Executor
	d  time.Duration
}

func (t timeoutExecutor) Execute(ctx context.Context, argv []string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()
	return t.ex.Execute(ctx, argv)
}
