package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
)

const (
	// DefaultAttempts is the number of tries for network calls
	DefaultAttempts = 3
	// DefaultDelay is the pause between tries
	DefaultDelay = time.Second
)

// Policy bounds a retry loop
type Policy struct {
	Attempts int
	Delay    time.Duration
}

// Default returns the policy used for GitHub API calls and downloads
func Default() Policy {
	return Policy{Attempts: DefaultAttempts, Delay: DefaultDelay}
}

// Permanent marks err as not worth retrying
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Do calls fn until it succeeds, returns a Permanent error, the context is
// cancelled or the attempts are used up. The last error is returned.
func Do(ctx context.Context, p Policy, op string, fn func(ctx context.Context) error) error {
	if p.Attempts < 1 {
		p.Attempts = 1
	}

	attempt := 0
	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(p.Delay), uint64(p.Attempts-1)),
		ctx,
	)

	err := backoff.RetryNotify(func() error {
		attempt++
		return fn(ctx)
	}, b, func(err error, wait time.Duration) {
		ctxlog.From(ctx).Warn("Retrying after failure",
			"operation", op,
			"attempt", attempt,
			"max_attempts", p.Attempts,
			"wait", wait,
			"error", err,
		)
	})
	if err == nil {
		return nil
	}

	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		err = perm.Err
	}

	return goerr.Wrap(err, "operation failed",
		goerr.V("operation", op),
		goerr.V("attempts", attempt),
	)
}
