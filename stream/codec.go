package stream

import "context"

// Codec maps a caller's domain event type E to and from the wire
// representation stored in the log. It is the sole authority on event
// type tags; the core never interprets EventType beyond passing it to a
// CompactionStrategy.
type Codec[E any] interface {
	// Encode serializes a domain event for appending.
	Encode(ctx context.Context, e E) (EventData, error)

	// TryDecode attempts to deserialize a ResolvedEvent into a domain
	// event. Returning ok == false (with a nil error) signals that the
	// event's type is unknown to this codec; such events are silently
	// skipped by the Category so that forward-compatible consumers can
	// read streams containing event types they don't yet understand.
	TryDecode(ctx context.Context, re ResolvedEvent) (e E, ok bool, err error)
}
