// Command interview-helper distills interview transcripts into key quotes, per-interview
// summaries and a Gioia data structure.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	charmlog "github.com/charmbracelet/log"

	"github.com/theimaginaryfoundation/interview-helper/analysis"
	"github.com/theimaginaryfoundation/interview-helper/analysis/logging"
	"github.com/theimaginaryfoundation/interview-helper/analysis/provider"
)

var version = "dev"

const (
	noticeInvalidInput = "Cannot start analysis, missing required inputs or wrong inputs provided."
	noticeRunFailed    = "An error occurred. This could be because the LLM service is currently overloaded. Please try again later."
)

// exitError carries the process exit code and the message shown to the user. The wrapped
// error is only logged.
type exitError struct {
	code   int
	notice string
	err    error
}

func (e *exitError) Error() string { return e.notice }
func (e *exitError) Unwrap() error { return e.err }

func usageError(err error) error {
	return &exitError{code: 2, notice: err.Error(), err: err}
}

func invalidInput(err error) error {
	return &exitError{code: 2, notice: noticeInvalidInput, err: err}
}

func runFailed(err error) error {
	return &exitError{code: 1, notice: noticeRunFailed, err: err}
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return 1
}

// app is the state shared by all commands.
type app struct {
	stdout io.Writer
	stderr io.Writer
	logger *charmlog.Logger

	// connect builds the model client factory for a run.
	connect func(cfg Config) analysis.ClientFactory
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{
		stdout:  stdout,
		stderr:  stderr,
		logger:  logging.Discard(),
		connect: openAIFactory,
	}
}

func openAIFactory(cfg Config) analysis.ClientFactory {
	return func(apiKey string) (provider.Completer, error) {
		return provider.NewOpenAI(provider.OpenAIOptions{
			APIKey:         apiKey,
			Model:          cfg.Model,
			RequestTimeout: cfg.RequestTimeout,
		})
	}
}

// execute runs the command line and reports errors the way the process exit expects.
func execute(ctx context.Context, a *app, args []string) int {
	root := newRootCommand(a)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err != nil {
		var ee *exitError
		if errors.As(err, &ee) && ee.err != nil {
			a.logger.Debug("command failed", "err", ee.err)
		}
		fmt.Fprintln(a.stderr, err.Error())
	}
	return exitCode(err)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, newApp(os.Stdout, os.Stderr), os.Args[1:])
	stop()
	os.Exit(code)
}
