package stream

import (
	"context"
	"time"
)

// batch is one page produced by a batchReader. firstBatchVersion is only
// populated on the first batch of a sequence (spec.md §4.C).
type batch struct {
	firstBatchVersion *int64
	events            []ResolvedEvent
}

// batchReader is the paged slice reader (component C): a pull-based
// iterator modeled as next() → (item, isDone, err), per Design Note §9.
// It performs no internal retry or metrics; those are layered on by the
// forward/backward loaders around each call to next (so that each page
// read is its own metered physical call, per spec.md §4.D/§4.E).
type batchReader struct {
	ctx       context.Context
	client    Client
	stream    string
	direction Direction
	batchSize int
	maxBatches int

	pos        int64
	batchCount int
	done       bool
}

func newBatchReader(ctx context.Context, client Client, streamName string, direction Direction, batchSize, maxBatches int, startPosition int64) *batchReader {
	return &batchReader{
		ctx:        ctx,
		client:     client,
		stream:     streamName,
		direction:  direction,
		batchSize:  batchSize,
		maxBatches: maxBatches,
		pos:        startPosition,
	}
}

// sliceFunc fetches one raw StreamSlice, metered and retried, emitting the
// component A "Slice" metric. fetch is supplied by the caller (forward or
// backward loader) so that it can thread its own logger/metrics/retry
// policy through.
type sliceFunc func(ctx context.Context, pos int64) (StreamSlice, error)

func meteredSlice(g *Gateway, streamName string, direction Direction) sliceFunc {
	var nextBatchIndex int
	return func(ctx context.Context, pos int64) (StreamSlice, error) {
		var batchIndex = nextBatchIndex
		nextBatchIndex++
		return runMetered(ctx, g.readRetry, g.logger.ForContext("stream", streamName), g.metrics,
			func(ctx context.Context, log Logger) (StreamSlice, error) {
				addTrace(ctx, "reading %s slice of %s from %d", direction, streamName, pos)
				if direction == Forward {
					return g.client.ReadForward(ctx, streamName, pos, g.batchSize, false)
				}
				return g.client.ReadBackward(ctx, streamName, pos, g.batchSize, false)
			},
			func(slice StreamSlice, elapsed time.Duration) (Logger, Metric, string, []interface{}) {
				var count = len(slice.Events)
				var b = eventsResolvedByteLen(slice.Events)
				var log = g.logger.
					ForContext("stream", streamName).
					ForContext("direction", direction.String()).
					ForContext("batchSize", g.batchSize).
					ForContext("batchIndex", batchIndex).
					ForContext("startPos", pos).
					ForContext("count", count).
					ForContext("bytes", b)
				return log,
					Metric{Kind: MetricSlice, Stream: streamName, Direction: &direction, Bytes: b, Count: count, Elapsed: elapsed},
					"read %s slice of %s: %d event(s) from %d", []interface{}{direction, streamName, count, pos}
			},
		)
	}
}

func eventsResolvedByteLen(events []ResolvedEvent) int {
	var n int
	for _, e := range events {
		n += e.byteLen()
	}
	return n
}

// next advances the reader one page. It returns (batch{}, true, nil) once
// the sequence is exhausted, and a non-nil error for any fatal condition
// (stream deleted, unknown status, batch limit exceeded).
func (r *batchReader) next(fetch sliceFunc) (batch, bool, error) {
	if r.done {
		return batch{}, true, nil
	}

	var slice, err = fetch(r.ctx, r.pos)
	if err != nil {
		r.done = true
		return batch{}, true, err
	}

	switch slice.Status {
	case SliceStreamNotFound:
		// Yield exactly one synthetic item, then terminate.
		r.done = true
		var v = EmptyStreamVersion
		return batch{firstBatchVersion: &v}, false, nil

	case SliceStreamDeleted:
		r.done = true
		return batch{}, true, ErrStreamDeleted

	case SliceSuccess:
		// fall through below

	default:
		r.done = true
		return batch{}, true, ErrUnknownSliceStatus
	}

	r.batchCount++
	if r.maxBatches > 0 && r.batchCount > r.maxBatches && !slice.IsEndOfStream {
		r.done = true
		return batch{}, true, ErrBatchLimitExceeded
	}

	var b batch
	if r.batchCount == 1 {
		var v = slice.LastEventNumber
		b.firstBatchVersion = &v
	}
	b.events = slice.Events

	if slice.IsEndOfStream {
		r.done = true
	} else {
		r.pos = slice.NextEventNumber
	}
	return b, false, nil
}
