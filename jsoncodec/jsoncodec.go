// Package jsoncodec provides a stream.Codec built on plain
// encoding/json, adapted from the teacher's line-delimited JSON framing
// (message.JSONFraming): Marshal/Unmarshal a whole value rather than a
// framed line, and call an optional post-unmarshal Fixup hook.
package jsoncodec

import (
	"context"
	"encoding/json"

	"github.com/pippio/streamstore/stream"
)

// Fixupable lets a decoded event repair itself after json.Unmarshal, the
// way message.Fixupable does for line-framed messages — useful for
// fields json can't represent directly (e.g. recomputing a derived
// value, or rejecting a malformed decode).
type Fixupable interface {
	Fixup() error
}

// Codec is a stream.Codec[E] over encoding/json. EventType extracts the
// wire type tag from a value of E before encoding; Accept decides, from
// that same tag, whether a resolved event should be decoded at all
// (returning false causes the category to skip it silently, per the
// codec's unknown-event contract).
type Codec[E any] struct {
	EventType func(E) string
	Accept    func(eventType string) bool
}

// New returns a Codec[E] with the given tag/accept functions.
func New[E any](eventType func(E) string, accept func(string) bool) Codec[E] {
	return Codec[E]{EventType: eventType, Accept: accept}
}

// Encode implements stream.Codec.
func (c Codec[E]) Encode(_ context.Context, e E) (stream.EventData, error) {
	var payload, err = json.Marshal(e)
	if err != nil {
		return stream.EventData{}, err
	}
	return stream.EventData{EventType: c.EventType(e), Payload: payload}, nil
}

// TryDecode implements stream.Codec.
func (c Codec[E]) TryDecode(_ context.Context, re stream.ResolvedEvent) (E, bool, error) {
	var zero E
	if c.Accept != nil && !c.Accept(re.EventType) {
		return zero, false, nil
	}

	var e E
	if err := json.Unmarshal(re.Payload, &e); err != nil {
		return zero, false, err
	}
	if f, ok := any(e).(Fixupable); ok {
		if err := f.Fixup(); err != nil {
			return zero, false, err
		}
	}
	return e, true, nil
}

var _ stream.Codec[struct{}] = Codec[struct{}]{}
