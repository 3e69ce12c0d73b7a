package analysis

import (
	"context"
	"errors"
	"slices"

	charmlog "github.com/charmbracelet/log"

	"github.com/theimaginaryfoundation/interview-helper/analysis/logging"
	"github.com/theimaginaryfoundation/interview-helper/analysis/provider"
)

// Caller runs one stage-level model call: retry, degrade to SummaryNotAvailable on
// exhaustion, then pace.
type Caller struct {
	Client provider.Completer
	Policy provider.RetryPolicy
	Pacer  Pacer
	Logger *charmlog.Logger
}

type callResult struct {
	Text     string
	Attempts int
	Degraded bool
}

// call returns an error only when the failure must stop the stage: cancellation or a
// missing client. Exhausted retries yield the sentinel.
func (c *Caller) call(ctx context.Context, stage Stage, req provider.Request, keyvals ...any) (callResult, error) {
	logger := logging.OrDiscard(c.Logger).With("stage", string(stage))

	text, attempts, err := provider.CompleteWithRetry(ctx, c.Client, req, c.Policy, logger.With(keyvals...))
	res := callResult{Text: text, Attempts: attempts}
	switch {
	case err == nil:
	case errors.Is(err, provider.ErrExhausted):
		logger.Warn("retries exhausted, using placeholder",
			slices.Concat(keyvals, []any{"attempts", attempts, "err", err})...)
		res.Text = SummaryNotAvailable
		res.Degraded = true
	default:
		return res, err
	}

	pacer := c.Pacer
	if pacer == nil {
		pacer = NoPacer{}
	}
	if err := pacer.Pace(ctx, stage); err != nil {
		return res, err
	}
	return res, nil
}

func logCaller(c *Caller) *charmlog.Logger {
	if c == nil {
		return logging.Discard()
	}
	return logging.OrDiscard(c.Logger)
}
