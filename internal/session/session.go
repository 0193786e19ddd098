package session

import (
	"context"
	"errors"
	"fmt"
	"net"
	"regexp"
	"strconv"
	"strings"
	"time"

	"abchart/internal/report"
)

var (
	ErrInvalidConfiguration = errors.New("invalid benchmark configuration")
	ErrToolNotFound         = errors.New("benchmark tool not found")
	ErrExecutionFailed      = errors.New("benchmark execution failed")
)

const DefaultTool = "ab"

// Session is one configured invocation of the benchmark tool. It is a
// value; sweeps build a new one per run.
type Session struct {
	Tool        string
	Host        string
	Port        int
	Path        string
	Requests    int
	Concurrency int
}

// Result holds the captured report of one run.
type Result struct {
	Command []string
	Output  string
	Fields  report.Fields
	Elapsed time.Duration
}

func (s Session) URL() string {
	path := s.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return "http://" + net.JoinHostPort(s.Host, strconv.Itoa(s.Port)) + path
}

// BuildCommand returns the tool's argv for the current configuration.
func (s Session) BuildCommand() ([]string, error) {
	if s.Requests <= 0 {
		return nil, fmt.Errorf("%w: request count must be positive, got %d", ErrInvalidConfiguration, s.Requests)
	}
	if s.Concurrency <= 0 {
		return nil, fmt.Errorf("%w: concurrency must be positive, got %d", ErrInvalidConfiguration, s.Concurrency)
	}

	tool := s.Tool
	if tool == "" {
		tool = DefaultTool
	}
	return []string{
		tool,
		"-n", strconv.Itoa(s.Requests),
		"-c", strconv.Itoa(s.Concurrency),
		s.URL(),
	}, nil
}

// Command is BuildCommand joined into a single shell line.
func (s Session) Command() (string, error) {
	argv, err := s.BuildCommand()
	if err != nil {
		return "", err
	}
	return strings.Join(argv, " "), nil
}

// Run executes the tool and parses its report. A report with missing
// fields is not an error.
func (s Session) Run(ctx context.Context, ex Executor) (*Result, error) {
	argv, err := s.BuildCommand()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	out, err := ex.Execute(ctx, argv)
	elapsed := time.Since(start)
	if err != nil {
		return nil, err
	}

	output := string(out)
	if notFound(output) {
		return nil, fmt.Errorf("%w: %q must be on your PATH", ErrToolNotFound, argv[0])
	}

	return &Result{
		Command: argv,
		Output:  output,
		Fields:  report.Parse(output),
		Elapsed: elapsed,
	}, nil
}

// Shell messages printed when a command cannot be found.
var notFoundSignatures = []*regexp.Regexp{
	regexp.MustCompile(`^'[^']*' is not recognized`),            // cmd.exe
	regexp.MustCompile(`^bash: .*: No such file`),               // bash
	regexp.MustCompile(`^(?:da|k)?sh: (?:\d+: )?.*: not found`), // sh, dash
	regexp.MustCompile(`^zsh: command not found: `),             // zsh
	regexp.MustCompile(`^.*: command not found`),                // bash, ksh
}

func notFound(output string) bool {
	for _, re := range notFoundSignatures {
		if re.MatchString(output) {
			return true
		}
	}
	return false
}
