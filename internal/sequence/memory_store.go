package sequence

import (
	"context"
	"sync"
)

// MemoryCounterStore keeps counters in process memory. Suitable for a single
// instance and tests; numbers restart with the process. The zero value is ready to use.
type MemoryCounterStore struct {
	mu       sync.Mutex
	counters map[string]int64
}

func NewMemoryCounterStore() *MemoryCounterStore {
	return &MemoryCounterStore{counters: make(map[string]int64)}
}

func (s *MemoryCounterStore) GetAndIncrement(ctx context.Context, yearMonthKey string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.counters == nil {
		s.counters = make(map[string]int64)
	}
	s.counters[yearMonthKey]++
	return s.counters[yearMonthKey], nil
}
