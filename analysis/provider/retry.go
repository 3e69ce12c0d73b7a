package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/sethvargo/go-retry"

	"github.com/theimaginaryfoundation/interview-helper/analysis/logging"
)

// ErrExhausted is returned by CompleteWithRetry when every attempt failed. It wraps the
// last attempt's failure.
var ErrExhausted = errors.New("provider: retries exhausted")

// ErrEmptyResponse marks an attempt that returned no text.
var ErrEmptyResponse = errors.New("empty response")

// RetryPolicy is a fixed-delay retry budget.
type RetryPolicy struct {
	Attempts int
	Backoff  time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 3, Backoff: 8 * time.Second}
}

// CompleteWithRetry calls client until it returns non-empty text or the policy's attempts are
// used up. Client errors and empty responses are treated the same: both are retried after
// policy.Backoff. Cancellation of ctx is never retried and is returned unwrapped.
// attempts reports how many calls were made.
func CompleteWithRetry(ctx context.Context, client Completer, req Request, policy RetryPolicy, logger *charmlog.Logger) (text string, attempts int, err error) {
	if client == nil {
		return "", 0, ErrNoClient
	}
	logger = logging.OrDiscard(logger)
	if policy.Attempts <= 0 {
		policy.Attempts = 1
	}
	// go-retry rejects non-positive constants.
	if policy.Backoff <= 0 {
		policy.Backoff = time.Nanosecond
	}

	backoff := retry.WithMaxRetries(uint64(policy.Attempts-1), retry.NewConstant(policy.Backoff))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++
		out, callErr := client.Complete(ctx, req)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if callErr == nil && strings.TrimSpace(out) == "" {
			callErr = ErrEmptyResponse
		}
		if callErr != nil {
			logger.Warn("completion attempt failed",
				"attempt", attempts, "of", policy.Attempts, "class", failureClass(callErr), "err", callErr)
			return retry.RetryableError(callErr)
		}
		text = out
		return nil
	})
	if err == nil {
		return text, attempts, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", attempts, ctxErr
	}
	return "", attempts, fmt.Errorf("%w after %d attempts: %w", ErrExhausted, attempts, err)
}

func failureClass(err error) string {
	switch {
	case errors.Is(err, ErrEmptyResponse):
		return "empty_response"
	case isRateLimitError(err):
		return "rate_limit"
	case isServerError(err):
		return "server_error"
	default:
		return "other"
	}
}
