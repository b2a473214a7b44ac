package download

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Store is the in-memory task registry, insertion order preserved. Every
// mutation swaps in a freshly copied slice, so a snapshot handed out is
// never written again. Tasks leave the store only through Remove and
// ClearCompleted.
type Store struct {
	mu      sync.RWMutex
	tasks   []Task
	subs    map[uint64]chan []Task
	nextSub uint64
}

func NewStore() *Store {
	return &Store{subs: make(map[uint64]chan []Task)}
}

// Snapshot returns the current tasks in insertion order.
func (s *Store) Snapshot() []Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Task(nil), s.tasks...)
}

func (s *Store) Get(id uuid.UUID) (Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return Task{}, false
}

// Upsert replaces the task with the same id, or appends a new one.
func (s *Store) Upsert(task Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := make([]Task, len(s.tasks), len(s.tasks)+1)
	copy(next, s.tasks)
	replaced := false
	for i := range next {
		if next[i].ID == task.ID {
			next[i] = task
			replaced = true
			break
		}
	}
	if !replaced {
		next = append(next, task)
	}
	s.tasks = next
	s.notifyLocked()
}

func (s *Store) Remove(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := make([]Task, 0, len(s.tasks))
	removed := false
	for _, t := range s.tasks {
		if t.ID == id {
			removed = true
			continue
		}
		next = append(next, t)
	}
	if !removed {
		return false
	}
	s.tasks = next
	s.notifyLocked()
	return true
}

// ClearCompleted removes every completed task and reports how many.
func (s *Store) ClearCompleted() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := make([]Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if t.Status == StatusCompleted {
			continue
		}
		next = append(next, t)
	}
	n := len(s.tasks) - len(next)
	if n == 0 {
		return 0
	}
	s.tasks = next
	s.notifyLocked()
	return n
}

// Observe delivers the current snapshot immediately, then a snapshot after
// every mutation. A slow receiver misses only intermediate snapshots; the
// latest is always pending. The channel closes when ctx ends.
func (s *Store) Observe(ctx context.Context) <-chan []Task {
	ch := make(chan []Task, 1)
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	ch <- append([]Task(nil), s.tasks...)
	s.mu.Unlock()
	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
		close(ch)
	}()
	return ch
}

// notifyLocked hands the new snapshot to every subscriber, displacing an
// undelivered older one rather than blocking.
func (s *Store) notifyLocked() {
	snap := append([]Task(nil), s.tasks...)
	for _, ch := range s.subs {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}
