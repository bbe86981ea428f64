package stream_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pippio/streamstore/memorylog"
	"github.com/pippio/streamstore/stream"
)

func newCategory(log stream.Client, batchSize int, isSnapshot stream.IsSnapshot) *stream.Category[cartEvent, cartState] {
	var gw = stream.NewGateway(log, newTestLogger(), batchSize)
	return stream.NewCategory[cartEvent, cartState](gw, cartCodec{}, foldCart, cartState{}, isSnapshot)
}

// S1: empty stream.
func TestScenario_EmptyStreamLoad(t *testing.T) {
	var log = memorylog.New()
	var cat = newCategory(log, 10, nil)

	var ts, err = cat.Load(context.Background(), "cart-1")
	require.NoError(t, err)
	assert.Equal(t, int64(stream.EmptyStreamVersion), ts.Token.StreamVersion)
	assert.False(t, ts.Token.HasSnapshot())
	assert.Nil(t, ts.Token.BatchCapacityLimit)
	assert.Empty(t, ts.State.Items)
}

// S2: append two events to an empty stream.
func TestScenario_AppendToEmptyStream(t *testing.T) {
	var log = memorylog.New()
	var cat = newCategory(log, 10, nil)
	var ctx = context.Background()

	var initial, err = cat.Load(ctx, "cart-1")
	require.NoError(t, err)

	var result, syncErr = cat.TrySync(ctx, "cart-1", initial, []cartEvent{added("a"), added("b")})
	require.NoError(t, syncErr)
	require.False(t, result.Conflict)
	assert.Equal(t, int64(1), result.Written.Token.StreamVersion)
	assert.False(t, result.Written.Token.HasSnapshot())
	assert.Equal(t, []string{"a", "b"}, result.Written.State.Items)
}

// S3/S4: compacted stream, backward load finds the snapshot, then a
// further append carries the token forward (rule 4).
func TestScenario_BackwardLoadAndCarryForward(t *testing.T) {
	var log = memorylog.New()
	var ctx = context.Background()
	var isSnapshot = stream.IsSnapshot(func(eventType string) bool { return eventType == "Snapshot" })

	var seed = []stream.EventData{
		marshalEvent(added("e0")), marshalEvent(added("e1")), marshalEvent(added("e2")),
		marshalEvent(added("e3")), marshalEvent(added("e4")),
		marshalEvent(snapshot("e0", "e1", "e2", "e3", "e4")),
		marshalEvent(added("e6")), marshalEvent(added("e7")), marshalEvent(added("e8")),
	}
	for i, e := range seed {
		var _, err = log.Append(ctx, "cart-1", int64(i)-1, []stream.EventData{e})
		require.NoError(t, err)
	}

	var cat = newCategory(log, 10, isSnapshot)
	var loaded, err = cat.Load(ctx, "cart-1")
	require.NoError(t, err)

	assert.Equal(t, int64(8), loaded.Token.StreamVersion)
	require.True(t, loaded.Token.HasSnapshot())
	assert.Equal(t, int64(5), *loaded.Token.SnapshotEventNumber)
	require.NotNil(t, loaded.Token.BatchCapacityLimit)
	assert.Equal(t, int64(6), *loaded.Token.BatchCapacityLimit) // max(0, 10 - (8-5+1))
	assert.Equal(t, []string{"e0", "e1", "e2", "e3", "e4", "e6", "e7", "e8"}, loaded.State.Items)

	// S4: append E9 under the loaded token.
	var synced, syncErr = cat.TrySync(ctx, "cart-1", loaded, []cartEvent{added("e9")})
	require.NoError(t, syncErr)
	require.False(t, synced.Conflict)
	assert.Equal(t, int64(9), synced.Written.Token.StreamVersion)
	require.True(t, synced.Written.Token.HasSnapshot())
	assert.Equal(t, int64(5), *synced.Written.Token.SnapshotEventNumber)
	require.NotNil(t, synced.Written.Token.BatchCapacityLimit)
	assert.Equal(t, int64(4), *synced.Written.Token.BatchCapacityLimit) // max(0, 10 - 1 - (9-5+1))
}

// S5: concurrent append from the same starting token.
func TestScenario_ConflictAndResync(t *testing.T) {
	var log = memorylog.New()
	var ctx = context.Background()
	var cat = newCategory(log, 10, nil)

	var initial, err = cat.Load(ctx, "cart-1")
	require.NoError(t, err)

	var first, firstErr = cat.TrySync(ctx, "cart-1", initial, []cartEvent{added("e0")})
	require.NoError(t, firstErr)
	require.False(t, first.Conflict)

	var second, secondErr = cat.TrySync(ctx, "cart-1", initial, []cartEvent{added("e9")})
	require.NoError(t, secondErr)
	require.True(t, second.Conflict)
	require.NotNil(t, second.Resync)

	var resynced, resyncErr = second.Resync(ctx)
	require.NoError(t, resyncErr)
	assert.Equal(t, int64(0), resynced.Token.StreamVersion)
	assert.Equal(t, []string{"e0"}, resynced.State.Items)
}

// S6: MaxBatches too small for the stream fails with ErrBatchLimitExceeded.
func TestScenario_BatchLimitExceeded(t *testing.T) {
	var log = memorylog.New()
	var ctx = context.Background()
	for i := 0; i < 5; i++ {
		var _, err = log.Append(ctx, "cart-1", int64(i)-1, []stream.EventData{marshalEvent(added("e"))})
		require.NoError(t, err)
	}

	var gw = stream.NewGateway(log, newTestLogger(), 2, stream.WithMaxBatches(1))
	var _, err = gw.LoadBatched(ctx, "cart-1", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, stream.ErrBatchLimitExceeded)
}

// Property 6: an event of a type unknown to the codec is silently
// skipped and never reaches fold.
func TestProperty_UnknownEventsSkipped(t *testing.T) {
	var log = memorylog.New()
	var ctx = context.Background()

	var _, err = log.Append(ctx, "cart-1", -1, []stream.EventData{
		marshalEvent(added("a")),
		{EventType: "SomeFutureEvent", Payload: []byte(`{}`)},
		marshalEvent(added("b")),
	})
	require.NoError(t, err)

	var cat = newCategory(log, 10, nil)
	var loaded, loadErr = cat.Load(ctx, "cart-1")
	require.NoError(t, loadErr)
	assert.Equal(t, []string{"a", "b"}, loaded.State.Items)
}

// Property 2: streamVersion strictly increases by len(events) on each
// successful TrySync.
func TestProperty_VersionMonotonicity(t *testing.T) {
	var log = memorylog.New()
	var ctx = context.Background()
	var cat = newCategory(log, 10, nil)

	var current, err = cat.Load(ctx, "cart-1")
	require.NoError(t, err)

	var batches = [][]cartEvent{
		{added("a")},
		{added("b"), added("c")},
		{added("d")},
	}
	for _, events := range batches {
		var before = current.Token.StreamVersion
		var result, syncErr = cat.TrySync(ctx, "cart-1", current, events)
		require.NoError(t, syncErr)
		require.False(t, result.Conflict)
		assert.Equal(t, before+int64(len(events)), result.Written.Token.StreamVersion)
		current = result.Written
	}
}

func marshalEvent(e cartEvent) stream.EventData {
	var ed, err = cartCodec{}.Encode(context.Background(), e)
	if err != nil {
		panic(err)
	}
	return ed
}
