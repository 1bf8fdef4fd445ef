package orchestrator

// processedSet remembers which card IDs have already been handled, bounded by
// a fixed capacity with FIFO eviction. Membership keeps a finished card from
// being re-dispatched while it waits for a human to move it along.
type processedSet struct {
	capacity int
	order    []string
	members  map[string]struct{}
}

func newProcessedSet(capacity int) *processedSet {
	return &processedSet{
		capacity: capacity,
		members:  make(map[string]struct{}, capacity),
	}
}

// Add records id, evicting the oldest entry when the set is full. Adding an
// existing id is a no-op.
func (s *processedSet) Add(id string) {
	if _, ok := s.members[id]; ok {
		return
	}
	if len(s.order) >= s.capacity {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.members, oldest)
	}
	s.order = append(s.order, id)
	s.members[id] = struct{}{}
}

func (s *processedSet) Contains(id string) bool {
	_, ok := s.members[id]
	return ok
}

func (s *processedSet) Len() int {
	return len(s.order)
}
