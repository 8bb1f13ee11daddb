package audit

// Log is the in-memory view of an order's audit trail, loaded alongside the
// order for the duration of one turn. Lookup answers the idempotency check;
// Appended returns only the entries added during this turn so the repository
// can persist them incrementally.
type Log struct {
	entries  []Entry
	byKey    map[string]int
	appended int
}

// NewLog builds a log over the previously persisted entries.
func NewLog(entries []Entry) *Log {
	l := &Log{
		entries:  make([]Entry, 0, len(entries)),
		byKey:    make(map[string]int, len(entries)),
		appended: len(entries),
	}
	for _, e := range entries {
		l.byKey[e.IdempotencyKey()] = len(l.entries)
		l.entries = append(l.entries, e)
	}
	return l
}

// Lookup returns the stored outcome for an idempotency key, if any.
func (l *Log) Lookup(idempotencyKey string) (Entry, bool) {
	idx, ok := l.byKey[idempotencyKey]
	if !ok {
		return Entry{}, false
	}
	return l.entries[idx], true
}

// Append records a new outcome. A duplicate key is ignored so a replayed
// command can never produce a second entry.
func (l *Log) Append(entry Entry) {
	if _, ok := l.byKey[entry.IdempotencyKey()]; ok {
		return
	}
	l.byKey[entry.IdempotencyKey()] = len(l.entries)
	l.entries = append(l.entries, entry)
}

// Entries returns every entry in application order.
func (l *Log) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Appended returns the entries added since the log was loaded.
func (l *Log) Appended() []Entry {
	out := make([]Entry, len(l.entries)-l.appended)
	copy(out, l.entries[l.appended:])
	return out
}

// Len returns the total number of entries.
func (l *Log) Len() int {
	return len(l.entries)
}
