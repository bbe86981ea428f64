package stream_test

import (
	"context"
	"encoding/json"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/pippio/streamstore/stream"
)

// cartEvent is the tiny domain event type shared by this package's tests:
// a shopping cart that accumulates items and can be snapshotted.
type cartEvent struct {
	Type  string   `json:"-"`
	Item  string   `json:"item,omitempty"`
	Items []string `json:"items,omitempty"`
}

func added(item string) cartEvent    { return cartEvent{Type: "Added", Item: item} }
func snapshot(items ...string) cartEvent { return cartEvent{Type: "Snapshot", Items: items} }

type cartState struct {
	Items []string
}

func foldCart(s cartState, events []cartEvent) cartState {
	for _, e := range events {
		switch e.Type {
		case "Added":
			s.Items = append(s.Items, e.Item)
		case "Snapshot":
			s.Items = append([]string(nil), e.Items...)
		}
	}
	return s
}

// cartCodec implements stream.Codec[cartEvent] over plain JSON, in the
// spirit of the teacher's message/json_framing.go.
type cartCodec struct{}

func (cartCodec) Encode(_ context.Context, e cartEvent) (stream.EventData, error) {
	var b, err = json.Marshal(e)
	if err != nil {
		return stream.EventData{}, err
	}
	return stream.EventData{EventType: e.Type, Payload: b}, nil
}

func (cartCodec) TryDecode(_ context.Context, re stream.ResolvedEvent) (cartEvent, bool, error) {
	if re.EventType != "Added" && re.EventType != "Snapshot" {
		return cartEvent{}, false, nil
	}
	var e cartEvent
	if err := json.Unmarshal(re.Payload, &e); err != nil {
		return cartEvent{}, false, err
	}
	e.Type = re.EventType
	return e, true, nil
}

var _ stream.Codec[cartEvent] = cartCodec{}

func newTestLogger() stream.Logger {
	var l = logrus.New()
	l.SetOutput(io.Discard)
	return stream.NewLogrusLogger(logrus.NewEntry(l))
}
