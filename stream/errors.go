package stream

import "github.com/pkg/errors"

var (
	// ErrWrongExpectedVersion is returned (or wrapped) by a Client's Append
	// when the stream's actual version no longer matches the expected
	// version presented by the caller. The gateway translates this into a
	// Conflict result rather than propagating it as an error.
	ErrWrongExpectedVersion = errors.New("wrong expected version")

	// ErrStreamDeleted is fatal: the stream has been tombstoned and can no
	// longer be read or written.
	ErrStreamDeleted = errors.New("stream deleted")

	// ErrBatchLimitExceeded is fatal: a paged read exceeded its configured
	// MaxBatches before reaching end-of-stream. It indicates the caller's
	// MaxBatches is too small for the stream being read.
	ErrBatchLimitExceeded = errors.New("batch limit exceeded before end of stream")

	// ErrMissingVersion is a fatal invariant breach: a batch sequence
	// terminated without ever reporting a stream version.
	ErrMissingVersion = errors.New("no stream version encountered")

	// ErrUnknownSliceStatus is fatal: a Client returned a SliceStatus this
	// package does not recognize.
	ErrUnknownSliceStatus = errors.New("slice status out of range")

	// ErrTooManyConflicts is returned by Stream.TrySync when maxAttempts
	// conflict/resync cycles have elapsed without a successful append.
	ErrTooManyConflicts = errors.New("too many sync conflicts")
)
