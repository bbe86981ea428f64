package stream

// Token is the opaque handle returned on load and re-presented on sync. It
// is immutable: every transition below returns a new Token value (spec.md
// §3). A concrete record, per Design Note §9, rather than an untyped box.
type Token struct {
	// StreamVersion is the highest event number observed or written, or
	// EmptyStreamVersion (-1) for an empty stream.
	StreamVersion int64
	// SnapshotEventNumber is the event number of the most recent in-stream
	// snapshot known to this token, if any.
	SnapshotEventNumber *int64
	// BatchCapacityLimit ("headroom") is the number of events that may
	// still be appended before the next snapshot is advisable. Present iff
	// the token was constructed under a compaction strategy.
	BatchCapacityLimit *int64
}

// HasSnapshot reports whether this token knows of an in-stream snapshot.
func (t Token) HasSnapshot() bool {
	return t.SnapshotEventNumber != nil
}

// newToken computes the shared headroom formula (spec.md §4.F):
//
//	headroom = max(0, batchSize - unstoredEventsPending - (streamVersion - snapshotEventNumber + 1))
//
// with snapshotEventNumber = -1 when no compaction strategy has observed a
// snapshot yet (the uncompacted case). batchSize == nil means no
// compaction strategy is configured at all, in which case no headroom is
// computed (spec.md §3: "a missing value means not applicable").
func newToken(version int64, snapshotEventNumber *int64, batchSize *int, unstoredEventsPending int) Token {
	var t = Token{StreamVersion: version, SnapshotEventNumber: snapshotEventNumber}
	if batchSize == nil {
		return t
	}

	var sEN int64 = -1
	if snapshotEventNumber != nil {
		sEN = *snapshotEventNumber
	}
	var h = int64(*batchSize) - int64(unstoredEventsPending) - (version - sEN + 1)
	if h < 0 {
		h = 0
	}
	t.BatchCapacityLimit = &h
	return t
}

// NonCompactingToken is rule 1: no compaction strategy is configured at
// all, so there is neither a snapshot nor a headroom.
func NonCompactingToken(version int64) Token {
	return newToken(version, nil, nil, 0)
}

// UncompactedToken is rule 2: a compaction strategy is configured but no
// snapshot has ever been observed in the stream, so the entire prefix is
// assumed live.
func UncompactedToken(batchSize int, version int64) Token {
	return newToken(version, nil, &batchSize, 0)
}

// TokenFromSnapshot is rule 3: a snapshot event was directly observed in a
// just-read slice.
func TokenFromSnapshot(snapshot ResolvedEvent, batchSize int, version int64) Token {
	var s = snapshot.EventNumber
	return newToken(version, &s, &batchSize, 0)
}

// TokenCarryForward is rule 4: reuse prev's snapshot position, accounting
// for addedCount events read since prev was issued but not yet reflected
// in a fresh snapshot.
func TokenCarryForward(prev Token, addedCount int, batchSize int, newVersion int64) Token {
	return newToken(newVersion, prev.SnapshotEventNumber, &batchSize, addedCount)
}

// TokenFromWrittenSnapshot is rule 5: the caller's own just-written batch
// included a snapshot event, at snapshotIndexWithinWrittenBatch within it.
func TokenFromWrittenSnapshot(prevStreamVersion int64, snapshotIndexWithinWrittenBatch, writtenCount, batchSize int, newVersion int64) Token {
	var s = prevStreamVersion + 1 + int64(snapshotIndexWithinWrittenBatch)
	return newToken(newVersion, &s, &batchSize, 0)
}
