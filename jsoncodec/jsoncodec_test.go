package jsoncodec_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pippio/streamstore/jsoncodec"
	"github.com/pippio/streamstore/stream"
)

type widgetCreated struct {
	Name string
}

func (widgetCreated) Fixup() error { return nil }

func TestCodec_RoundTrip(t *testing.T) {
	var codec = jsoncodec.New(
		func(widgetCreated) string { return "WidgetCreated" },
		func(t string) bool { return t == "WidgetCreated" },
	)

	var ed, err = codec.Encode(context.Background(), widgetCreated{Name: "sprocket"})
	require.NoError(t, err)
	assert.Equal(t, "WidgetCreated", ed.EventType)

	var decoded, ok, decodeErr = codec.TryDecode(context.Background(), stream.ResolvedEvent{EventData: ed})
	require.NoError(t, decodeErr)
	require.True(t, ok)
	assert.Equal(t, "sprocket", decoded.Name)
}

func TestCodec_UnknownTypeSkipped(t *testing.T) {
	var codec = jsoncodec.New(
		func(widgetCreated) string { return "WidgetCreated" },
		func(t string) bool { return t == "WidgetCreated" },
	)

	var _, ok, err = codec.TryDecode(context.Background(), stream.ResolvedEvent{
		EventData: stream.EventData{EventType: "SomethingElse", Payload: []byte(`{}`)},
	})
	require.NoError(t, err)
	assert.False(t, ok)
}
