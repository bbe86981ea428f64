package stream

import "context"

// AppendResult is the successful outcome of Client.Append.
type AppendResult struct {
	// NextExpectedVersion is the stream version immediately after the
	// appended events (i.e. the version of the last event written).
	NextExpectedVersion int64
	// LogPosition is an opaque, log-wide position of the append, if the
	// Client supplies one.
	LogPosition int64
}

// Client is the physical event-log collaborator. It is consumed, never
// implemented, by this package: a concrete Client talks to whatever log
// store the caller runs (EventStoreDB, a Gazette journal, a SQL-backed
// log, ...). Its wire protocol is entirely out of scope here.
//
// Append must return an error satisfying errors.Is(err, ErrWrongExpectedVersion)
// when expectedVersion no longer matches the stream's actual version; any
// other error is treated as a transport fault and propagated (subject to
// the caller's RetryPolicy).
type Client interface {
	Append(ctx context.Context, stream string, expectedVersion int64, events []EventData) (AppendResult, error)

	// ReadForward reads up to maxCount events starting at event number
	// from, in ascending order.
	ReadForward(ctx context.Context, stream string, from int64, maxCount int, resolveLinks bool) (StreamSlice, error)

	// ReadBackward reads up to maxCount events starting at event number
	// from (or StreamEnd for the stream's current tail) in descending
	// order.
	ReadBackward(ctx context.Context, stream string, from int64, maxCount int, resolveLinks bool) (StreamSlice, error)
}
