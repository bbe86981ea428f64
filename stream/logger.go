package stream

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/trace"
)

// Logger is the structured-logging collaborator. ForContext returns a
// Logger with an additional property attached; Info emits one structured
// log event. The core publishes the property names listed in spec.md §6
// (stream, bytes, count, expectedVersion, nextExpectedVersion, logPosition,
// batchSize, batchIndex, direction, startPos, esEvt), plus elapsed: every
// successful physical call's structured log event carries esEvt (the
// WriteSuccess|WriteConflict|Slice|Batch discriminator) and elapsed,
// attached centrally by runMetered in stream/metrics.go.
type Logger interface {
	ForContext(key string, value interface{}) Logger
	Info(template string, args ...interface{})
}

// logrusLogger adapts a *logrus.Entry to Logger, the way the teacher's
// broker and consumer packages use logrus.WithFields(...).Info(...)
// throughout (e.g. broker/append_fsm.go's mustState, consumer/resolver.go's
// cancelReplicas).
type logrusLogger struct {
	entry *logrus.Entry
}

// NewLogrusLogger returns a Logger backed by logrus, using the package
// logger if entry is nil.
func NewLogrusLogger(entry *logrus.Entry) Logger {
	if entry == nil {
		entry = logrus.NewEntry(logrus.StandardLogger())
	}
	return logrusLogger{entry: entry}
}

func (l logrusLogger) ForContext(key string, value interface{}) Logger {
	return logrusLogger{entry: l.entry.WithField(key, value)}
}

func (l logrusLogger) Info(template string, args ...interface{}) {
	if len(args) == 0 {
		l.entry.Info(template)
		return
	}
	l.entry.Info(fmt.Sprintf(template, args...))
}

// addTrace appends a breadcrumb to ctx's golang.org/x/net/trace.Trace, if
// one is present, without allocating a structured log event for it. This
// mirrors consumer/service.go's addTrace helper in the teacher: cheap,
// high-frequency progress notes (e.g. "reading batch 3") live here, while
// the coarser-grained, once-per-operation events (e.g. "Batch Forward 3
// slices") go through Logger.Info so they can be scraped or alerted on.
func addTrace(ctx context.Context, format string, args ...interface{}) {
	if tr, ok := trace.FromContext(ctx); ok {
		tr.LazyPrintf(format, args...)
	}
}
