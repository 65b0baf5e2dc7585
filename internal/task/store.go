package task

import "sync"

// Store is an in-memory task map. Tasks are stored by value, so readers
// always get a snapshot; Save is the only mutator and is atomic with
// respect to concurrently running tasks. Entries live for the lifetime of
// the process. A durable store is a drop-in replacement behind the same
// surface.
type Store struct {
	mu    sync.Mutex
	tasks map[string]Task
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{tasks: make(map[string]Task)}
}

// Save inserts or replaces a task snapshot.
func (s *Store) Save(t Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[t.ID] = t
}

// Get returns a snapshot of the task, if known.
func (s *Store) Get(id string) (Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	return t, ok
}

// Len reports how many tasks the store holds.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}
