package stream

import "context"

// CompactionStrategy selects which events within a stream are recognized
// as snapshots. Build one with EventTypeStrategy or PredicateStrategy.
type CompactionStrategy IsSnapshot

// EventTypeStrategy treats any event whose wire type equals eventType as
// a snapshot (component I).
func EventTypeStrategy(eventType string) CompactionStrategy {
	return func(t string) bool { return t == eventType }
}

// PredicateStrategy wraps an arbitrary caller-supplied predicate over the
// wire event type.
func PredicateStrategy(p func(eventType string) bool) CompactionStrategy {
	return CompactionStrategy(p)
}

// Builder constructs a Category from a Gateway, a codec, and a fold, with
// an optional compaction strategy (component I).
type Builder[E any, S any] struct {
	gateway    *Gateway
	codec      Codec[E]
	fold       Fold[E, S]
	initial    S
	compaction CompactionStrategy
}

// NewBuilder returns a Builder over gateway. WithCompaction, if called,
// configures the compaction strategy before Build.
func NewBuilder[E any, S any](gateway *Gateway, codec Codec[E], fold Fold[E, S], initial S) *Builder[E, S] {
	return &Builder[E, S]{gateway: gateway, codec: codec, fold: fold, initial: initial}
}

// WithCompaction sets the compaction strategy used by every Stream this
// Builder subsequently creates.
func (b *Builder[E, S]) WithCompaction(strategy CompactionStrategy) *Builder[E, S] {
	b.compaction = strategy
	return b
}

// Build assembles the configured Category.
func (b *Builder[E, S]) Build() *Category[E, S] {
	var isSnapshot IsSnapshot
	if b.compaction != nil {
		isSnapshot = IsSnapshot(b.compaction)
	}
	return NewCategory(b.gateway, b.codec, b.fold, b.initial, isSnapshot)
}

// Create returns a Stream bound to a single named stream, built fresh
// from this Builder's configuration.
func (b *Builder[E, S]) Create(streamName string) *Stream[E, S] {
	return &Stream[E, S]{streamName: streamName, category: b.Build()}
}

// Stream is the caller-facing façade bound to one stream name: it
// carries no token/state of its own between calls (the caller owns
// that). Load forwards to its underlying Category; TrySync wraps the
// Category's TrySync in a bounded conflict/resync loop
// (spec.md §4.I: "out of scope here", provided for caller convenience).
type Stream[E any, S any] struct {
	streamName string
	category   ICategory[E, S]
}

// Load returns the current (token, state) for this stream.
func (s *Stream[E, S]) Load(ctx context.Context) (TokenAndState[S], error) {
	return s.category.Load(ctx, s.streamName)
}

// TrySync appends events against current, retrying through conflicts by
// resyncing and re-invoking decide with the freshly loaded state, up to
// maxAttempts times. decide derives the next batch of events to append
// from the current folded state; it may return zero events to mean "no
// new events needed".
func (s *Stream[E, S]) TrySync(ctx context.Context, current TokenAndState[S], decide func(state S) ([]E, error), maxAttempts int) (TokenAndState[S], error) {
	for attempt := 1; ; attempt++ {
		var events, decideErr = decide(current.State)
		if decideErr != nil {
			return TokenAndState[S]{}, decideErr
		}

		var result, err = s.category.TrySync(ctx, s.streamName, current, events)
		if err != nil {
			return TokenAndState[S]{}, err
		}
		if !result.Conflict {
			return result.Written, nil
		}
		if maxAttempts > 0 && attempt >= maxAttempts {
			return TokenAndState[S]{}, ErrTooManyConflicts
		}

		current, err = result.Resync(ctx)
		if err != nil {
			return TokenAndState[S]{}, err
		}
	}
}
