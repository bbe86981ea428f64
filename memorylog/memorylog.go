// Package memorylog is an in-process stream.Client fake backed by a plain
// map, used by the stream package's own tests and available to callers
// that want to exercise a Category/Stream without a real log store. It is
// not a production store: all state lives in a single process and is
// lost on restart.
package memorylog

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/pippio/streamstore/stream"
)

type streamState struct {
	events  []stream.EventData
	deleted bool
}

// Log implements stream.Client entirely in memory, guarded by a single
// mutex. Safe for concurrent use.
type Log struct {
	mu      sync.Mutex
	streams map[string]*streamState
}

// New returns an empty Log.
func New() *Log {
	return &Log{streams: make(map[string]*streamState)}
}

// Delete tombstones streamName: subsequent reads and appends observe
// stream.SliceStreamDeleted / a fatal error, matching the teacher's
// treatment of a deleted stream as fatal rather than retryable.
func (l *Log) Delete(streamName string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.streams[streamName] = &streamState{deleted: true}
}

func (l *Log) get(streamName string) *streamState {
	if st, ok := l.streams[streamName]; ok {
		return st
	}
	return nil
}

// Append implements stream.Client.
func (l *Log) Append(_ context.Context, streamName string, expectedVersion int64, events []stream.EventData) (stream.AppendResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var st = l.get(streamName)
	if st != nil && st.deleted {
		return stream.AppendResult{}, errors.WithStack(stream.ErrStreamDeleted)
	}
	if st == nil {
		st = &streamState{}
		l.streams[streamName] = st
	}

	var current = int64(len(st.events)) - 1
	if expectedVersion != current {
		return stream.AppendResult{}, errors.Wrapf(stream.ErrWrongExpectedVersion, "stream %s at %d, expected %d", streamName, current, expectedVersion)
	}

	st.events = append(st.events, events...)
	var next = int64(len(st.events)) - 1
	return stream.AppendResult{NextExpectedVersion: next, LogPosition: next}, nil
}

// ReadForward implements stream.Client.
func (l *Log) ReadForward(_ context.Context, streamName string, from int64, maxCount int, _ bool) (stream.StreamSlice, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var st = l.get(streamName)
	if st == nil {
		return stream.StreamSlice{Status: stream.SliceStreamNotFound, LastEventNumber: stream.EmptyStreamVersion, NextEventNumber: from, IsEndOfStream: true}, nil
	}
	if st.deleted {
		return stream.StreamSlice{Status: stream.SliceStreamDeleted}, nil
	}

	var last = int64(len(st.events)) - 1
	if from > last {
		return stream.StreamSlice{Status: stream.SliceSuccess, LastEventNumber: last, NextEventNumber: from, IsEndOfStream: true}, nil
	}

	var count = int64(maxCount)
	if count <= 0 || from+count > last+1 {
		count = last + 1 - from
	}
	var events = make([]stream.ResolvedEvent, 0, count)
	for i := from; i < from+count; i++ {
		events = append(events, toResolved(st.events[i], i))
	}
	var next = from + count
	return stream.StreamSlice{
		Status:          stream.SliceSuccess,
		Events:          events,
		LastEventNumber: last,
		NextEventNumber: next,
		IsEndOfStream:   next > last,
	}, nil
}

// ReadBackward implements stream.Client. from == stream.StreamEnd means
// "start at the stream's current tail".
func (l *Log) ReadBackward(_ context.Context, streamName string, from int64, maxCount int, _ bool) (stream.StreamSlice, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var st = l.get(streamName)
	if st == nil {
		return stream.StreamSlice{Status: stream.SliceStreamNotFound, LastEventNumber: stream.EmptyStreamVersion, NextEventNumber: from, IsEndOfStream: true}, nil
	}
	if st.deleted {
		return stream.StreamSlice{Status: stream.SliceStreamDeleted}, nil
	}

	var last = int64(len(st.events)) - 1
	var start = from
	if start == stream.StreamEnd || start > last {
		start = last
	}
	if start < 0 {
		return stream.StreamSlice{Status: stream.SliceSuccess, LastEventNumber: last, NextEventNumber: -1, IsEndOfStream: true}, nil
	}

	var count = int64(maxCount)
	if count <= 0 || count > start+1 {
		count = start + 1
	}
	var events = make([]stream.ResolvedEvent, 0, count)
	for i := start; i > start-count; i-- {
		events = append(events, toResolved(st.events[i], i))
	}
	var next = start - count
	return stream.StreamSlice{
		Status:          stream.SliceSuccess,
		Events:          events,
		LastEventNumber: last,
		NextEventNumber: next,
		IsEndOfStream:   next < 0,
	}, nil
}

func toResolved(e stream.EventData, eventNumber int64) stream.ResolvedEvent {
	return stream.ResolvedEvent{EventData: e, EventNumber: eventNumber}
}

var _ stream.Client = (*Log)(nil)
