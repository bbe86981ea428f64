package stream_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pippio/streamstore/memorylog"
	"github.com/pippio/streamstore/stream"
)

func TestLoadBatched_StreamNotFoundYieldsEmptyStreamVersion(t *testing.T) {
	var log = memorylog.New()
	var gw = stream.NewGateway(log, newTestLogger(), 10)

	var result, err = gw.LoadBatched(context.Background(), "never-written", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(stream.EmptyStreamVersion), result.Token.StreamVersion)
	assert.Empty(t, result.Events)
}

func TestLoadBatched_StreamDeletedIsFatal(t *testing.T) {
	var log = memorylog.New()
	var ctx = context.Background()
	var _, err = log.Append(ctx, "cart-1", -1, []stream.EventData{marshalEvent(added("a"))})
	require.NoError(t, err)
	log.Delete("cart-1")

	var gw = stream.NewGateway(log, newTestLogger(), 10)
	var _, loadErr = gw.LoadBatched(ctx, "cart-1", nil)
	require.Error(t, loadErr)
	assert.ErrorIs(t, loadErr, stream.ErrStreamDeleted)
}

// LoadBatched's predicate branch (Category.Load never reaches it directly,
// since a compacted category always routes through
// LoadBackwardsStoppingAtCompactionEvent instead): the last matching event
// in the loaded slice becomes the token's snapshot.
func TestLoadBatched_PredicateMatchUsesLastSnapshot(t *testing.T) {
	var log = memorylog.New()
	var ctx = context.Background()
	var isSnapshot = stream.IsSnapshot(func(eventType string) bool { return eventType == "Snapshot" })

	var seed = []stream.EventData{
		marshalEvent(added("e0")), marshalEvent(added("e1")),
		marshalEvent(snapshot("e0", "e1")),
		marshalEvent(added("e3")),
		marshalEvent(snapshot("e0", "e1", "e3")),
		marshalEvent(added("e5")),
	}
	for i, e := range seed {
		var _, err = log.Append(ctx, "cart-1", int64(i)-1, []stream.EventData{e})
		require.NoError(t, err)
	}

	var gw = stream.NewGateway(log, newTestLogger(), 10)
	var result, err = gw.LoadBatched(ctx, "cart-1", isSnapshot)
	require.NoError(t, err)
	require.Len(t, result.Events, 6)
	require.True(t, result.Token.HasSnapshot())
	assert.Equal(t, int64(4), *result.Token.SnapshotEventNumber)
}

// Property 4: the backward loader returns exactly the events from the
// snapshot (inclusive) to the tail, in chronological order, for a batch
// size as small as 1 (forcing the snapshot split across many pages).
func TestLoadBackward_SnapshotStopWithSmallBatches(t *testing.T) {
	var log = memorylog.New()
	var ctx = context.Background()
	var isSnapshot = stream.IsSnapshot(func(eventType string) bool { return eventType == "Snapshot" })

	var seed = []stream.EventData{
		marshalEvent(added("e0")), marshalEvent(added("e1")),
		marshalEvent(snapshot("e0", "e1")),
		marshalEvent(added("e3")), marshalEvent(added("e4")),
	}
	for i, e := range seed {
		var _, err = log.Append(ctx, "cart-1", int64(i)-1, []stream.EventData{e})
		require.NoError(t, err)
	}

	var gw = stream.NewGateway(log, newTestLogger(), 1)
	var result, err = gw.LoadBackwardsStoppingAtCompactionEvent(ctx, "cart-1", isSnapshot)
	require.NoError(t, err)
	require.Len(t, result.Events, 3)
	assert.Equal(t, "Snapshot", result.Events[0].EventType)
	assert.Equal(t, int64(2), result.Events[0].EventNumber)
	assert.Equal(t, int64(3), result.Events[1].EventNumber)
	assert.Equal(t, int64(4), result.Events[2].EventNumber)
}
