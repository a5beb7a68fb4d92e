package memory

import (
	"context"
	"errors"
	"sync"

	"docqa/internal/domain"
	"docqa/internal/vectorstore"
)

var errDimensionMismatch = errors.New("vector dimension mismatch")

var (
	_ domain.VectorStore = (*Storage)(nil)
	_ domain.Replacer    = (*Storage)(nil)
)

// Storage is a simple in-memory vector store using brute-force cosine similarity.
// Records keep insertion order; upserting an existing id replaces it in place.
type Storage struct {
	mu      sync.RWMutex
	records []domain.Record
	byID    map[string]int
}

func NewStorage() *Storage { return &Storage{byID: make(map[string]int)} }

func (s *Storage) Upsert(_ context.Context, records []domain.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.upsertLocked(records)
}

func (s *Storage) Delete(_ context.Context, filter map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteLocked(filter)
	return nil
}

// Replace deletes every record matching filter and upserts records atomically.
// On error the stored set is unchanged.
func (s *Storage) Replace(_ context.Context, filter map[string]string, records []domain.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.without(filter)
	dim := 0
	if len(kept) > 0 {
		dim = len(kept[0].Vector)
	}
	if err := checkDimensions(records, dim); err != nil {
		return err
	}
	s.reset(kept)
	return s.upsertLocked(records)
}

func (s *Storage) Query(_ context.Context, vectors [][]float32, k int, filter map[string]string) ([][]domain.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var candidates []domain.Record
	for _, r := range s.records {
		if vectorstore.MatchesFilter(r.Metadata, filter) {
			candidates = append(candidates, r)
		}
	}
	groups := make([][]domain.Match, len(vectors))
	for i, v := range vectors {
		groups[i] = vectorstore.Rank(v, candidates, k)
	}
	return groups, nil
}

// Len returns the number of stored records.
func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Get returns the record stored under id.
func (s *Storage) Get(id string) (domain.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byID[id]
	if !ok {
		return domain.Record{}, false
	}
	return s.records[i], true
}

func (s *Storage) Close() error { return nil }

func (s *Storage) upsertLocked(records []domain.Record) error {
	dim := 0
	if len(s.records) > 0 {
		dim = len(s.records[0].Vector)
	}
	if err := checkDimensions(records, dim); err != nil {
		return err
	}
	for _, r := range records {
		r.Vector = append([]float32(nil), r.Vector...)
		r.Metadata = copyMetadata(r.Metadata)
		if i, ok := s.byID[r.ID]; ok {
			s.records[i] = r
			continue
		}
		s.byID[r.ID] = len(s.records)
		s.records = append(s.records, r)
	}
	return nil
}

func (s *Storage) deleteLocked(filter map[string]string) {
	s.reset(s.without(filter))
}

// without returns a new slice of the records not matching filter.
func (s *Storage) without(filter map[string]string) []domain.Record {
	kept := make([]domain.Record, 0, len(s.records))
	for _, r := range s.records {
		if !vectorstore.MatchesFilter(r.Metadata, filter) {
			kept = append(kept, r)
		}
	}
	return kept
}

func (s *Storage) reset(records []domain.Record) {
	s.records = records
	s.byID = make(map[string]int, len(records))
	for i, r := range records {
		s.byID[r.ID] = i
	}
}

// checkDimensions requires every vector to have length dim. A zero dim is
// taken from the first record.
func checkDimensions(records []domain.Record, dim int) error {
	for _, r := range records {
		if dim == 0 {
			dim = len(r.Vector)
		}
		if len(r.Vector) != dim {
			return errDimensionMismatch
		}
	}
	return nil
}

func copyMetadata(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
