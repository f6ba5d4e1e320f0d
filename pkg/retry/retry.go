package retry

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/Islam-amara1/mapsscraper/pkg/errors"
	"github.com/Islam-amara1/mapsscraper/pkg/logger"
)

// Outcome is the terminal classification of a retried operation.
type Outcome int

const (
	// Success means the operation eventually returned without error.
	Success Outcome = iota
	// Terminal means the operation failed and will not be retried,
	// either because the error is not transient or the attempt budget
	// ran out.
	Terminal
	// Cancelled means the surrounding context was cancelled at a retry
	// boundary before the operation could finish.
	Cancelled
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case Terminal:
		return "terminal"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Waiter pauses before an attempt. pacing.Pacer satisfies this.
type Waiter interface {
	Wait(ctx context.Context) error
}

// Config holds retry behavior.
type Config struct {
	// MaxAttempts bounds the number of attempts. Must be at least 1.
	MaxAttempts int
	// Waiter runs before every attempt, including the first. Nil means
	// no delay.
	Waiter Waiter
	// RetryIf decides whether an error is worth another attempt.
	RetryIf func(error) bool
	// OnRetry is called before each re-attempt.
	OnRetry func(attempt int, err error)
	// Logger for attempt outcomes.
	Logger logger.Logger
}

// DefaultConfig returns a retry configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		MaxAttempts: 3,
		RetryIf:     DefaultRetryIf,
		Logger:      logger.GetLogger(),
	}
}

// DefaultRetryIf retries errors classified as transient and anything
// unclassified, but never context cancellation or deadline expiry that
// bubbled up from the caller's own context.
func DefaultRetryIf(err error) bool {
	if err == nil {
		return false
	}
	if stderrors.Is(err, context.Canceled) {
		return false
	}

	var classified *errors.Error
	if stderrors.As(err, &classified) {
		return errors.IsTransient(classified.Type)
	}

	return true
}

// Result reports what happened across the whole retry loop.
type Result[T any] struct {
	Value    T
	Err      error
	Outcome  Outcome
	Attempts int
}

// Do runs op through the bounded retry loop. The configured Waiter runs
// before every attempt; cancellation during a wait ends the loop with
// Outcome Cancelled and the sink's partial results untouched.
func Do[T any](ctx context.Context, op func(context.Context) (T, error), cfg *Config) Result[T] {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	retryIf := cfg.RetryIf
	if retryIf == nil {
		retryIf = DefaultRetryIf
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var result Result[T]

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result.Attempts = attempt

		if cfg.Waiter != nil {
			if err := cfg.Waiter.Wait(ctx); err != nil {
				result.Outcome = Cancelled
				result.Err = err
				return result
			}
		} else if err := ctx.Err(); err != nil {
			result.Outcome = Cancelled
			result.Err = err
			return result
		}

		value, err := op(ctx)
		if err == nil {
			if attempt > 1 && cfg.Logger != nil {
				cfg.Logger.DebugWithFields("operation succeeded after retry", map[string]interface{}{
					"attempt": attempt,
				})
			}
			result.Outcome = Success
			result.Value = value
			result.Err = nil
			return result
		}

		result.Err = err

		if !retryIf(err) {
			if cfg.Logger != nil {
				cfg.Logger.DebugWithFields("error is not retryable", map[string]interface{}{
					"error": err.Error(),
				})
			}
			result.Outcome = Terminal
			return result
		}

		if attempt == maxAttempts {
			break
		}

		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err)
		}
		if cfg.Logger != nil {
			cfg.Logger.WarnWithFields("retrying operation", map[string]interface{}{
				"attempt":      attempt,
				"max_attempts": maxAttempts,
				"error":        err.Error(),
			})
		}
	}

	result.Outcome = Terminal
	result.Err = fmt.Errorf("max retry attempts (%d) exceeded: %w", maxAttempts, result.Err)
	return result
}
