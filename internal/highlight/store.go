// Package highlight keeps the append-only, process-lifetime list of
// triggered highlights and notes.
package highlight

import (
	"fmt"
	"sync"

	"pkt.systems/hapticnote/schema"
)

type entry struct {
	record  schema.HighlightRecord
	textKey string
	noteKey string
}

// Store is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	entries []entry
}

// NewStore constructs an empty Store.
func NewStore() *Store {
	return &Store{}
}

// Append validates and appends record.
func (s *Store) Append(record schema.HighlightRecord) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("append highlight: %w", err)
	}
	e := entry{record: cloneRecord(record), textKey: schema.NormalizeText(record.Text)}
	if record.Note != nil {
		e.noteKey = schema.NormalizeText(*record.Note)
	}
	s.mu.Lock()
	s.entries = append(s.entries, e)
	s.mu.Unlock()
	return nil
}

// FindByText returns the earliest record whose text equals query after
// normalization.
func (s *Store) FindByText(query string) (schema.HighlightRecord, bool) {
	return s.find(query, func(e entry) string { return e.textKey })
}

// FindByNote returns the earliest record whose note equals query after
// normalization. Records without a note never match.
func (s *Store) FindByNote(query string) (schema.HighlightRecord, bool) {
	return s.find(query, func(e entry) string { return e.noteKey })
}

func (s *Store) find(query string, key func(entry) string) (schema.HighlightRecord, bool) {
	q := schema.NormalizeText(query)
	if q == "" {
		return schema.HighlightRecord{}, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.entries {
		if key(e) == q {
			return cloneRecord(e.record), true
		}
	}
	return schema.HighlightRecord{}, false
}

// List returns every record in insertion order.
func (s *Store) List() []schema.HighlightRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]schema.HighlightRecord, len(s.entries))
	for i, e := range s.entries {
		out[i] = cloneRecord(e.record)
	}
	return out
}

// Len returns the number of records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func cloneRecord(r schema.HighlightRecord) schema.HighlightRecord {
	if r.Note != nil {
		note := *r.Note
		r.Note = &note
	}
	return r
}
