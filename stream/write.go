package stream

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// WriteOutcome is the result of a version-checked append.
type WriteOutcome struct {
	// Conflict reports that the stream's actual version no longer matched
	// expectedVersion. Only NextExpectedVersion/LogPosition are valid when
	// Conflict is false.
	Conflict            bool
	NextExpectedVersion int64
	LogPosition         int64
}

func eventsByteLen(events []EventData) int {
	var n int
	for _, e := range events {
		n += e.byteLen()
	}
	return n
}

// write performs a single version-checked append (component B), retried
// per g.writeRetry and metered per g.metrics. A "wrong expected version"
// fault is an expected outcome, not an error: it is translated into
// WriteOutcome.Conflict and logged at information level, mirroring
// broker/append_fsm.go's onValidateOffset treatment of
// Status_WRONG_APPEND_OFFSET.
func (g *Gateway) write(ctx context.Context, streamName string, expectedVersion int64, events []EventData) (WriteOutcome, error) {
	type result struct {
		outcome WriteOutcome
		append  AppendResult
	}

	var r, err = runMetered(ctx, g.writeRetry, g.logger.ForContext("stream", streamName), g.metrics,
		func(ctx context.Context, log Logger) (result, error) {
			var appendResult, appendErr = g.client.Append(ctx, streamName, expectedVersion, events)
			if appendErr != nil {
				if errors.Is(appendErr, ErrWrongExpectedVersion) {
					return result{outcome: WriteOutcome{Conflict: true}}, nil
				}
				return result{}, errors.WithMessage(appendErr, "append")
			}
			return result{
				outcome: WriteOutcome{
					NextExpectedVersion: appendResult.NextExpectedVersion,
					LogPosition:         appendResult.LogPosition,
				},
				append: appendResult,
			}, nil
		},
		func(r result, elapsed time.Duration) (Logger, Metric, string, []interface{}) {
			if r.outcome.Conflict {
				return g.logger.ForContext("stream", streamName),
					Metric{Kind: MetricWriteConflict, Stream: streamName, Bytes: eventsByteLen(events), Count: len(events), Elapsed: elapsed},
					"append to %s conflicted at expected version %d", []interface{}{streamName, expectedVersion}
			}
			var log = g.logger.
				ForContext("stream", streamName).
				ForContext("expectedVersion", expectedVersion).
				ForContext("nextExpectedVersion", r.outcome.NextExpectedVersion).
				ForContext("logPosition", r.outcome.LogPosition).
				ForContext("count", len(events)).
				ForContext("bytes", eventsByteLen(events))
			return log,
				Metric{Kind: MetricWriteSuccess, Stream: streamName, Bytes: eventsByteLen(events), Count: len(events), Elapsed: elapsed},
				"wrote %d event(s) to %s", []interface{}{len(events), streamName}
		},
	)
	if err != nil {
		return WriteOutcome{}, err
	}
	return r.outcome, nil
}
