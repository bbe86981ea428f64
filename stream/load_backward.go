package stream

import (
	"context"
	"time"
)

// IsSnapshot recognizes a compaction (snapshot) event by its wire event
// type, so that the same predicate applies uniformly to events already
// read back (ResolvedEvent) and events about to be written (EventData).
type IsSnapshot func(eventType string) bool

// loadBackward streams backward batches from fromPosition, stopping
// inclusively at the first snapshot event found (component E). If no
// snapshot is ever found the loader runs to the start of the stream. The
// result is reversed into chronological order before return.
func (g *Gateway) loadBackward(ctx context.Context, streamName string, fromPosition int64, isSnapshot IsSnapshot) (LoadedSlice, error) {
	var started = time.Now()
	var reader = newBatchReader(ctx, g.client, streamName, Backward, g.batchSize, g.maxBatches, fromPosition)
	var fetch = meteredSlice(g, streamName, Backward)

	var version *int64
	var events []ResolvedEvent
	var slices int
	var stopped bool

	for !stopped {
		var b, done, err = reader.next(fetch)
		if err != nil {
			return LoadedSlice{}, err
		}
		if done {
			break
		}
		slices++
		if b.firstBatchVersion != nil && version == nil {
			version = b.firstBatchVersion
		}

		// Take-while-inclusive: keep events (still in the batch's own,
		// descending order) until the snapshot event is found, which is
		// itself kept, and then stop consuming further batches.
		var snapIdx = -1
		for i, e := range b.events {
			events = append(events, e)
			if isSnapshot != nil && isSnapshot(e.EventType) {
				snapIdx = i
				break
			}
		}

		if snapIdx >= 0 {
			stopped = true
			if snapIdx+1 < len(b.events) {
				var used = eventsResolvedByteLen(b.events[:snapIdx+1])
				var residual = eventsResolvedByteLen(b.events[snapIdx+1:])
				g.logger.
					ForContext("stream", streamName).
					ForContext("used", used).
					ForContext("residual", residual).
					Info("backward batch of %s split at snapshot: %d byte(s) used, %d discarded", streamName, used, residual)
			}
		}
	}

	if version == nil {
		return LoadedSlice{}, ErrMissingVersion
	}

	reverseResolvedEvents(events)

	var b = eventsResolvedByteLen(events)
	var elapsed = time.Since(started)
	g.metrics.observe(Metric{Kind: MetricBatch, Stream: streamName, Direction: directionPtr(Backward), Bytes: b, Count: len(events), Elapsed: elapsed})
	g.logger.
		ForContext("stream", streamName).
		ForContext("direction", Backward.String()).
		ForContext("slices", slices).
		ForContext("count", len(events)).
		ForContext("bytes", b).
		ForContext("esEvt", MetricBatch).
		ForContext("elapsed", elapsed).
		Info("loaded %d event(s) from %s backward in %d slice(s)", len(events), streamName, slices)

	return LoadedSlice{Version: *version, Events: events}, nil
}

// reverseResolvedEvents reverses events in place. Safe because the slice
// is freshly owned by the loader (spec Design Note: "a permitted mutation
// because the buffer is freshly owned by the loader").
func reverseResolvedEvents(events []ResolvedEvent) {
	for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
		events[i], events[j] = events[j], events[i]
	}
}
