package stream

import "context"

// Fold narrows the caller's domain logic to the single operation the
// category needs: combine a sequence of decoded events onto a state.
type Fold[E any, S any] func(state S, events []E) S

// TokenAndState is the handle upstream holds across load/sync calls: the
// gateway token plus the caller's folded state.
type TokenAndState[S any] struct {
	Token Token
	State S
}

// CategorySyncResult mirrors Gateway's SyncResult at the decoded-event
// level: either the new (token, state) following a successful append, or
// a Resync continuation to run instead of assuming success.
type CategorySyncResult[E any, S any] struct {
	Conflict bool
	Written  TokenAndState[S]
	// Resync, present only when Conflict is true, reloads the tail since
	// the token presented to TrySync and re-folds it onto the caller's own
	// prior state — a deferred continuation, not eagerly evaluated (spec
	// Design Note: avoid eagerly reloading if the caller abandons).
	Resync func(ctx context.Context) (TokenAndState[S], error)
}

// Category wraps a Gateway with a codec, a fold, and an optional
// compaction predicate (component H). It is immutable after construction
// and safe for concurrent use across streams.
type Category[E any, S any] struct {
	gateway    *Gateway
	codec      Codec[E]
	fold       Fold[E, S]
	initial    S
	isSnapshot IsSnapshot
}

// NewCategory constructs a Category. isSnapshot may be nil, meaning no
// compaction strategy: Load always uses the forward loader and tokens
// never carry snapshot/headroom information.
func NewCategory[E any, S any](gateway *Gateway, codec Codec[E], fold Fold[E, S], initial S, isSnapshot IsSnapshot) *Category[E, S] {
	return &Category[E, S]{
		gateway:    gateway,
		codec:      codec,
		fold:       fold,
		initial:    initial,
		isSnapshot: isSnapshot,
	}
}

// decodeAll runs the codec's TryDecode over resolved events, silently
// dropping any whose event type the codec does not recognize (spec.md
// §4.H: "this is required behavior for forward-compatible consumers").
func (c *Category[E, S]) decodeAll(ctx context.Context, events []ResolvedEvent) ([]E, error) {
	var decoded []E
	for _, re := range events {
		var e, ok, err = c.codec.TryDecode(ctx, re)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		decoded = append(decoded, e)
	}
	return decoded, nil
}

// Load fetches and folds the current state of streamName, choosing the
// forward or backward-to-snapshot loader depending on whether a
// compaction predicate is configured.
func (c *Category[E, S]) Load(ctx context.Context, streamName string) (TokenAndState[S], error) {
	var result LoadResult
	var err error
	if c.isSnapshot == nil {
		result, err = c.gateway.LoadBatched(ctx, streamName, nil)
	} else {
		result, err = c.gateway.LoadBackwardsStoppingAtCompactionEvent(ctx, streamName, c.isSnapshot)
	}
	if err != nil {
		return TokenAndState[S]{}, err
	}

	var decoded, decodeErr = c.decodeAll(ctx, result.Events)
	if decodeErr != nil {
		return TokenAndState[S]{}, decodeErr
	}
	return TokenAndState[S]{Token: result.Token, State: c.fold(c.initial, decoded)}, nil
}

// TrySync encodes events through the codec and appends them via the
// gateway under current.Token. On success it folds events onto
// current.State to produce the new state without a round trip. On
// conflict it returns a Resync continuation instead.
func (c *Category[E, S]) TrySync(ctx context.Context, streamName string, current TokenAndState[S], events []E) (CategorySyncResult[E, S], error) {
	var encoded = make([]EventData, len(events))
	for i, e := range events {
		var ed, err = c.codec.Encode(ctx, e)
		if err != nil {
			return CategorySyncResult[E, S]{}, err
		}
		encoded[i] = ed
	}

	var outcome, err = c.gateway.TrySync(ctx, streamName, current.Token, encoded, c.isSnapshot)
	if err != nil {
		return CategorySyncResult[E, S]{}, err
	}
	if outcome.Conflict {
		return CategorySyncResult[E, S]{
			Conflict: true,
			Resync: func(ctx context.Context) (TokenAndState[S], error) {
				var result, err = c.gateway.LoadFromToken(ctx, streamName, current.Token, c.isSnapshot)
				if err != nil {
					return TokenAndState[S]{}, err
				}
				var decoded, decodeErr = c.decodeAll(ctx, result.Events)
				if decodeErr != nil {
					return TokenAndState[S]{}, decodeErr
				}
				return TokenAndState[S]{Token: result.Token, State: c.fold(current.State, decoded)}, nil
			},
		}, nil
	}

	return CategorySyncResult[E, S]{
		Written: TokenAndState[S]{Token: outcome.Token, State: c.fold(current.State, events)},
	}, nil
}

// ICategory is the codec-agnostic contract upstream caller orchestration
// depends on (spec.md §6). Category[E, S] satisfies it directly.
type ICategory[E any, S any] interface {
	Load(ctx context.Context, streamName string) (TokenAndState[S], error)
	TrySync(ctx context.Context, streamName string, current TokenAndState[S], events []E) (CategorySyncResult[E, S], error)
}

var _ ICategory[any, any] = (*Category[any, any])(nil)

// Folder narrows a Category to ICategory, matching spec.md §4.H: "the
// folder simply narrows the category to the upstream ICategory contract
// so caller orchestration is codec-agnostic."
func Folder[E any, S any](c *Category[E, S]) ICategory[E, S] {
	return c
}
