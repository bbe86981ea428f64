package stream

import (
	"context"
	"time"
)

// LoadedSlice is the flattened result of a completed load: the version
// observed and the chronologically-ordered events that make it up.
type LoadedSlice struct {
	Version int64
	Events  []ResolvedEvent
}

// loadForward concatenates forward batches starting at fromPosition into
// one LoadedSlice (component D). Fails with ErrMissingVersion if the
// underlying sequence never reported a firstBatchVersion, which can only
// happen on a client implementation bug.
func (g *Gateway) loadForward(ctx context.Context, streamName string, fromPosition int64) (LoadedSlice, error) {
	var started = time.Now()
	var reader = newBatchReader(ctx, g.client, streamName, Forward, g.batchSize, g.maxBatches, fromPosition)
	var fetch = meteredSlice(g, streamName, Forward)

	var version *int64
	var events []ResolvedEvent
	var slices int
	for {
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
		events = append(events, b.events...)
	}
	if version == nil {
		return LoadedSlice{}, ErrMissingVersion
	}

	var b = eventsResolvedByteLen(events)
	var elapsed = time.Since(started)
	g.metrics.observe(Metric{Kind: MetricBatch, Stream: streamName, Direction: directionPtr(Forward), Bytes: b, Count: len(events), Elapsed: elapsed})
	g.logger.
		ForContext("stream", streamName).
		ForContext("direction", Forward.String()).
		ForContext("slices", slices).
		ForContext("count", len(events)).
		ForContext("bytes", b).
		ForContext("esEvt", MetricBatch).
		ForContext("elapsed", elapsed).
		Info("loaded %d event(s) from %s forward in %d slice(s)", len(events), streamName, slices)

	return LoadedSlice{Version: *version, Events: events}, nil
}

func directionPtr(d Direction) *Direction { return &d }
