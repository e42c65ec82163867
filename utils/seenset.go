package utils

// SeenSet tracks listing identifiers already persisted for a category. It is
// loaded from the store once per crawl and grown in memory as new records are
// inserted; the store remains the durable copy. One crawler owns one SeenSet,
// so no locking is needed.
type SeenSet struct {
	ids map[string]struct{}
}

// NewSeenSet creates a SeenSet pre-populated with the given identifiers.
func NewSeenSet(ids map[string]struct{}) *SeenSet {
	s := &SeenSet{ids: make(map[string]struct{}, len(ids))}
	for id := range ids {
		s.ids[id] = struct{}{}
	}
	return s
}

// Add returns true if the identifier was newly added, false if already present.
func (s *SeenSet) Add(id string) bool {
	if _, exists := s.ids[id]; exists {
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

// Contains returns true if the identifier has already been persisted.
func (s *SeenSet) Contains(id string) bool {
	_, exists := s.ids[id]
	return exists
}

// Size returns the number of identifiers tracked.
func (s *SeenSet) Size() int {
	return len(s.ids)
}
