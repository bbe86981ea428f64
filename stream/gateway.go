package stream

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
)

// Gateway is the stateless entry point onto a single Client (component G):
// every exported load/sync operation on it composes the paged reader (C),
// the version-checked writer (B), and the token algebra (F) into the four
// operations a category needs. A Gateway holds no per-stream state and is
// safe for concurrent use across many streams.
type Gateway struct {
	client Client
	logger Logger

	readRetry  RetryPolicy
	writeRetry RetryPolicy
	metrics    *metricsCollector

	batchSize  int
	maxBatches int
}

// GatewayOption configures a Gateway at construction time.
type GatewayOption func(*Gateway)

// WithReadRetryPolicy overrides the retry policy applied to slice reads.
func WithReadRetryPolicy(policy RetryPolicy) GatewayOption {
	return func(g *Gateway) { g.readRetry = policy }
}

// WithWriteRetryPolicy overrides the retry policy applied to appends.
func WithWriteRetryPolicy(policy RetryPolicy) GatewayOption {
	return func(g *Gateway) { g.writeRetry = policy }
}

// WithMetrics disables metrics collection entirely (collector == nil) or
// restores the process-wide default (collector != nil is otherwise
// unreachable from outside the package; see WithMetricsRegistry for a
// caller-supplied prometheus.Registerer).
func WithMetrics(collector *metricsCollector) GatewayOption {
	return func(g *Gateway) { g.metrics = collector }
}

// WithMetricsRegistry publishes this Gateway's metrics under reg instead
// of the process-wide default registry, e.g. a test-scoped
// prometheus.NewRegistry() or a service's own Registerer.
func WithMetricsRegistry(reg prometheus.Registerer) GatewayOption {
	return func(g *Gateway) { g.metrics = newMetricsCollector(reg) }
}

// WithMaxBatches caps the number of pages a single load may consume before
// failing with ErrBatchLimitExceeded. Zero (the default) means unbounded.
func WithMaxBatches(n int) GatewayOption {
	return func(g *Gateway) { g.maxBatches = n }
}

// NewGateway builds a Gateway over client, paging reads batchSize events
// at a time. logger must not be nil; options may override the retry
// policies (default: a single attempt, no retry) and metrics collector
// (default: the process-wide Prometheus registry).
func NewGateway(client Client, logger Logger, batchSize int, opts ...GatewayOption) *Gateway {
	var g = &Gateway{
		client:    client,
		logger:    logger,
		batchSize: batchSize,
		metrics:   defaultMetrics,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// LoadResult pairs a freshly computed Token with the chronologically
// ordered events it was derived from, ready for the caller to fold.
type LoadResult struct {
	Token  Token
	Events []ResolvedEvent
}

// LoadBatched loads streamName forward from the start (component G). With
// no compaction predicate the returned token never carries a snapshot
// (rule 1). With one, the last matching event in the loaded slice (if
// any) becomes the token's snapshot (rule 3); otherwise the whole prefix
// is assumed live (rule 2).
func (g *Gateway) LoadBatched(ctx context.Context, streamName string, isSnapshot IsSnapshot) (LoadResult, error) {
	var loaded, err = g.loadForward(ctx, streamName, 0)
	if err != nil {
		return LoadResult{}, err
	}
	if isSnapshot == nil {
		return LoadResult{Token: NonCompactingToken(loaded.Version), Events: loaded.Events}, nil
	}

	var snapshot *ResolvedEvent
	for i := range loaded.Events {
		if isSnapshot(loaded.Events[i].EventType) {
			snapshot = &loaded.Events[i]
		}
	}
	if snapshot != nil {
		return LoadResult{Token: TokenFromSnapshot(*snapshot, g.batchSize, loaded.Version), Events: loaded.Events}, nil
	}
	return LoadResult{Token: UncompactedToken(g.batchSize, loaded.Version), Events: loaded.Events}, nil
}

// LoadBackwardsStoppingAtCompactionEvent loads streamName backward,
// stopping inclusively at the first snapshot event encountered
// (component G). isSnapshot must not be nil.
func (g *Gateway) LoadBackwardsStoppingAtCompactionEvent(ctx context.Context, streamName string, isSnapshot IsSnapshot) (LoadResult, error) {
	var loaded, err = g.loadBackward(ctx, streamName, StreamEnd, isSnapshot)
	if err != nil {
		return LoadResult{}, err
	}
	if len(loaded.Events) > 0 && isSnapshot(loaded.Events[0].EventType) {
		return LoadResult{Token: TokenFromSnapshot(loaded.Events[0], g.batchSize, loaded.Version), Events: loaded.Events}, nil
	}
	return LoadResult{Token: UncompactedToken(g.batchSize, loaded.Version), Events: loaded.Events}, nil
}

// LoadFromToken incrementally catches up streamName from token's stream
// version, for use as a conflict resync (component G). With no predicate
// the refreshed token never carries a snapshot (rule 1); a fresh snapshot
// seen in the new tail resets the token (rule 3); otherwise the prior
// token's snapshot position carries forward (rule 4).
func (g *Gateway) LoadFromToken(ctx context.Context, streamName string, token Token, isSnapshot IsSnapshot) (LoadResult, error) {
	var loaded, err = g.loadForward(ctx, streamName, token.StreamVersion+1)
	if err != nil {
		return LoadResult{}, err
	}
	if isSnapshot == nil {
		return LoadResult{Token: NonCompactingToken(loaded.Version), Events: loaded.Events}, nil
	}

	var snapshot *ResolvedEvent
	for i := range loaded.Events {
		if isSnapshot(loaded.Events[i].EventType) {
			snapshot = &loaded.Events[i]
		}
	}
	if snapshot != nil {
		return LoadResult{Token: TokenFromSnapshot(*snapshot, g.batchSize, loaded.Version), Events: loaded.Events}, nil
	}
	return LoadResult{Token: TokenCarryForward(token, len(loaded.Events), g.batchSize, loaded.Version), Events: loaded.Events}, nil
}

// SyncResult is the outcome of TrySync: either the new token following a
// successful append, or a conflict carrying nothing further (the caller is
// expected to reload and retry at the category level).
type SyncResult struct {
	Conflict bool
	Token    Token
}

// TrySync appends events to streamName under current.StreamVersion as the
// expected version (component G). On Conflict the caller is expected to
// resync via LoadFromToken and retry; on success the new token is built
// from whichever compaction rule applies: no predicate configured → rule
// 1; the predicate matches the last written event → rule 5 (this batch's
// own snapshot); otherwise → rule 4 (carry forward the prior snapshot
// position).
func (g *Gateway) TrySync(ctx context.Context, streamName string, current Token, events []EventData, isSnapshot IsSnapshot) (SyncResult, error) {
	var outcome, err = g.write(ctx, streamName, current.StreamVersion, events)
	if err != nil {
		return SyncResult{}, err
	}
	if outcome.Conflict {
		return SyncResult{Conflict: true}, nil
	}

	if isSnapshot == nil {
		return SyncResult{Token: NonCompactingToken(outcome.NextExpectedVersion)}, nil
	}
	if len(events) > 0 && isSnapshot(events[len(events)-1].EventType) {
		return SyncResult{Token: TokenFromWrittenSnapshot(current.StreamVersion, len(events)-1, len(events), g.batchSize, outcome.NextExpectedVersion)}, nil
	}
	return SyncResult{Token: TokenCarryForward(current, len(events), g.batchSize, outcome.NextExpectedVersion)}, nil
}
