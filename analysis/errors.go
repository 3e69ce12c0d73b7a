package analysis

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidInput is returned before any model call when a run cannot start.
var ErrInvalidInput = errors.New("invalid input")

// StageError reports the stage at which a run stopped. Artifacts of earlier stages are still
// returned alongside it.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// RunContext is everything a single run needs. The API key is used to build the client and
// is never stored in Artifacts.
type RunContext struct {
	APIKey     string
	FocusAreas string
	Interviews []RawInterview
}

// Validate checks the inputs are usable. MaxInterviews <= 0 disables the count limit.
func (rc RunContext) Validate(maxInterviews int) error {
	var problems []string
	if strings.TrimSpace(rc.APIKey) == "" {
		problems = append(problems, "missing API key")
	}
	if strings.TrimSpace(rc.FocusAreas) == "" {
		problems = append(problems, "missing focus areas")
	}
	if len(rc.Interviews) == 0 {
		problems = append(problems, "no interviews")
	}
	if maxInterviews > 0 && len(rc.Interviews) > maxInterviews {
		problems = append(problems, fmt.Sprintf("%d interviews exceeds limit of %d", len(rc.Interviews), maxInterviews))
	}
	seen := make(map[int]bool, len(rc.Interviews))
	for i, iv := range rc.Interviews {
		if iv.Index <= 0 {
			problems = append(problems, fmt.Sprintf("interview %d: index must be >= 1", i+1))
			continue
		}
		if seen[iv.Index] {
			problems = append(problems, fmt.Sprintf("interview %d: duplicate index", iv.Index))
		}
		seen[iv.Index] = true
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(problems, "; "))
	}
	return nil
}
