package stream

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
)

// RetryPolicy decides how many times, and with what delay, a single
// physical call is attempted. attempt is called with attemptNo starting
// at 1; the policy returns once attempt succeeds or it gives up. A nil
// RetryPolicy means "exactly one attempt" (see withRetry).
//
// This is a function value by design, not an interface with an
// implementation hierarchy — spec.md §9 calls this out explicitly.
type RetryPolicy func(ctx context.Context, attempt func(ctx context.Context, attemptNo int) error) error

// withRetry drives fn through policy, presenting attempt 1 with the base
// logger and every later attempt with a logger augmented by
// {"attempt": attemptNo}, per spec.md §4.A.
func withRetry(ctx context.Context, policy RetryPolicy, logger Logger, fn func(ctx context.Context, log Logger) error) error {
	run := func(ctx context.Context, attemptNo int) error {
		log := logger
		if attemptNo > 1 {
			log = logger.ForContext("attempt", attemptNo)
		}
		return fn(ctx, log)
	}
	if policy == nil {
		return run(ctx, 1)
	}
	return policy(ctx, run)
}

// isFatal reports whether err is one of the fatal sentinels spec.md §7
// excludes from retry (only TransportFault is retryable: "Conflict... Not
// an error... StreamDeleted — fatal... BatchLimitExceeded — fatal...
// MissingVersion — fatal invariant breach").
func isFatal(err error) bool {
	return errors.Is(err, ErrStreamDeleted) ||
		errors.Is(err, ErrBatchLimitExceeded) ||
		errors.Is(err, ErrMissingVersion) ||
		errors.Is(err, ErrUnknownSliceStatus)
}

// NewExponentialBackoffPolicy returns a RetryPolicy built on
// github.com/cenkalti/backoff/v4, attempting fn up to maxAttempts times
// with exponential backoff between attempts. Cancellation of ctx aborts
// the retry loop immediately. Fatal sentinel errors (stream deleted, batch
// limit exceeded, missing version, unknown slice status) are never
// retried, regardless of attempts remaining; only transport faults are.
func NewExponentialBackoffPolicy(maxAttempts int, initialInterval time.Duration) RetryPolicy {
	return func(ctx context.Context, attempt func(ctx context.Context, attemptNo int) error) error {
		var eb = backoff.NewExponentialBackOff()
		eb.InitialInterval = initialInterval
		eb.MaxElapsedTime = 0 // bounded by maxAttempts, not wall-clock time

		var b backoff.BackOff = eb
		if maxAttempts > 0 {
			b = backoff.WithMaxRetries(b, uint64(maxAttempts-1))
		}
		b = backoff.WithContext(b, ctx)

		var attemptNo int
		var err = backoff.Retry(func() error {
			attemptNo++
			var attemptErr = attempt(ctx, attemptNo)
			if isFatal(attemptErr) {
				return backoff.Permanent(attemptErr)
			}
			return attemptErr
		}, b)
		return unwrapPermanent(err)
	}
}

// unwrapPermanent strips backoff.Permanent's wrapper so callers see the
// original sentinel via errors.Is, not an opaque *backoff.PermanentError.
func unwrapPermanent(err error) error {
	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		return permanent.Err
	}
	return err
}
