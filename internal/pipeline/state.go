package pipeline

import "sort"

// ProcessedSet is the in-memory dedup ledger: message IDs that have already
// been handled. Membership only; IDs are never removed.
type ProcessedSet struct {
	ids map[string]struct{}
}

// NewProcessedSet builds a set from previously persisted IDs. Empty strings
// are ignored.
func NewProcessedSet(ids []string) *ProcessedSet {
	set := &ProcessedSet{ids: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		if id != "" {
			set.ids[id] = struct{}{}
		}
	}
	return set
}

// Has reports whether id was already processed.
func (s *ProcessedSet) Has(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// Add marks id as processed.
func (s *ProcessedSet) Add(id string) {
	s.ids[id] = struct{}{}
}

// Len returns the number of distinct processed IDs.
func (s *ProcessedSet) Len() int {
	return len(s.ids)
}

// IDs returns the members in sorted order so saves are deterministic.
func (s *ProcessedSet) IDs() []string {
	ids := make([]string, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
