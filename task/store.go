package task

import (
	"log"
	"os"
	"sync"
)

// Store holds the live task records for the process. One instance is created
// at startup and handed to every component that needs it; sync.Map gives
// per-entry granularity so polling one task never blocks another.
type Store struct {
	tasks sync.Map
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) Put(t *Task) {
	s.tasks.Store(t.ID(), t)
}

func (s *Store) Get(id string) (*Task, bool) {
	if val, ok := s.tasks.Load(id); ok {
		return val.(*Task), true
	}
	return nil, false
}

// Remove deletes the record and returns it, if it existed.
func (s *Store) Remove(id string) (*Task, bool) {
	if val, ok := s.tasks.LoadAndDelete(id); ok {
		return val.(*Task), true
	}
	return nil, false
}

// Reclaim removes the record and its working directory. Called by the delivery
// path after the artifact has been streamed; a later lookup for the same id
// finds nothing. Safe to call more than once.
func (s *Store) Reclaim(id string) {
	t, ok := s.Remove(id)
	if !ok {
		return
	}
	if dir := t.WorkDir(); dir != "" {
		if err := os.RemoveAll(dir); err != nil {
			log.Printf("Failed to remove working directory %s for task %s: %v", dir, id, err)
			return
		}
		log.Printf("Reclaimed working directory for task %s", id)
	}
}
