package dedup

import "sync"

// State is the bookkeeping of one dedup pass: the last signature seen in each
// bucket and the number of buckets finished. A State is created by Run and
// dropped when Run returns, so concurrent passes never observe each other.
type State struct {
	mu   sync.Mutex
	last map[int]string
	done int
}

func newState(buckets int) *State {
	return &State{last: make(map[int]string, buckets)}
}

// observe records sig as the latest signature of bucket idx and reports
// whether it repeats the previous one.
func (s *State) observe(idx int, sig string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.last[idx]; ok && prev == sig {
		return true
	}
	s.last[idx] = sig
	return false
}

func (s *State) finish() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.done++
	return s.done
}

// Done reports how many buckets have finished scanning.
func (s *State) Done() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}
