package download

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const DefaultMaxConcurrent = 2

// Config holds the dispatch policy. A change applies on the next dispatch
// pass; workers already running are not cancelled by a reconfigure alone.
type Config struct {
	MaxConcurrent     int
	NetworkRestricted bool
}

type Option func(*Scheduler)

func WithLogger(log zerolog.Logger) Option {
	return func(s *Scheduler) { s.log = log }
}

func WithNetworkState(n NetworkState) Option {
	return func(s *Scheduler) {
		if n != nil {
			s.network = n
		}
	}
}

func WithCleaner(c Cleaner) Option {
	return func(s *Scheduler) {
		if c != nil {
			s.cleaner = c
		}
	}
}

func WithEventSink(e EventSink) Option {
	return func(s *Scheduler) {
		if e != nil {
			s.events = e
		}
	}
}

// Scheduler owns the task lifecycle: it queues requests, keeps at most
// MaxConcurrent of them running, and settles worker outcomes back into the
// store. All transitions out of queued happen inside its lock, so the
// running count is always derived from store contents, never tracked apart
// from them.
type Scheduler struct {
	store   *Store
	fetcher Fetcher
	network NetworkState
	cleaner Cleaner
	events  EventSink
	log     zerolog.Logger

	mu      sync.Mutex
	cfg     Config
	workers map[uuid.UUID]*worker
	wg      sync.WaitGroup
	stopped bool
}

func New(store *Store, fetcher Fetcher, cfg Config, opts ...Option) *Scheduler {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = DefaultMaxConcurrent
	}
	s := &Scheduler{
		store:   store,
		fetcher: fetcher,
		network: nopNetwork{},
		cleaner: nopCleaner{},
		events:  nopSink{},
		log:     zerolog.Nop(),
		cfg:     cfg,
		workers: make(map[uuid.UUID]*worker),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Enqueue creates a queued task for the given group and units and triggers
// a dispatch pass. A request whose group and unit set match a task that has
// not completed is rejected with ErrDuplicateTask.
func (s *Scheduler) Enqueue(groupID, groupTitle string, unitIDs []string) (Task, error) {
	groupID = strings.TrimSpace(groupID)
	if groupID == "" {
		return Task{}, fmt.Errorf("%w: empty group id", ErrInvalidRequest)
	}
	units := dedupeUnits(unitIDs)
	if len(units) == 0 {
		return Task{}, fmt.Errorf("%w: no unit ids", ErrInvalidRequest)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	key := requestKey(groupID, units)
	for _, t := range s.store.Snapshot() {
		if t.Status != StatusCompleted && requestKey(t.GroupID, t.UnitIDs) == key {
			return Task{}, fmt.Errorf("%w: group %s already has task %s", ErrDuplicateTask, groupID, t.ID)
		}
	}
	task := Task{
		ID:         uuid.New(),
		GroupID:    groupID,
		GroupTitle: strings.TrimSpace(groupTitle),
		UnitIDs:    units,
		Status:     StatusQueued,
		EnqueuedAt: time.Now().UTC(),
	}
	s.store.Upsert(task)
	s.events.Append(task.ID, "info", "added group="+groupID+" units="+strconv.Itoa(len(units)))
	s.log.Info().Str("task", task.ID.String()).Str("group", groupID).Int("units", len(units)).Msg("task enqueued")
	s.dispatchLocked()
	return task, nil
}

// Pause moves a queued or running task to paused, cancelling its worker.
// Paused, terminal and unknown tasks are left alone without error; pausing
// a failed task is an invalid transition.
func (s *Scheduler) Pause(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.store.Get(id)
	if !ok {
		return nil
	}
	switch t.Status {
	case StatusQueued:
		t.Status = StatusPaused
		s.store.Upsert(t)
		s.events.Append(id, "info", "paused")
	case StatusInProgress:
		s.cancelWorkerLocked(id)
		t.Status = StatusPaused
		s.store.Upsert(t)
		s.events.Append(id, "info", "paused")
		s.dispatchLocked()
	case StatusPaused, StatusCompleted, StatusCancelled:
		// nothing to do
	default:
		return fmt.Errorf("%w: cannot pause a %s task", ErrInvalidState, t.Status)
	}
	return nil
}

// Resume requeues a paused task.
func (s *Scheduler) Resume(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.store.Get(id)
	if !ok {
		return fmt.Errorf("%w: unknown task %s", ErrInvalidState, id)
	}
	if t.Status != StatusPaused {
		return fmt.Errorf("%w: cannot resume a %s task", ErrInvalidState, t.Status)
	}
	t.Status = StatusQueued
	s.store.Upsert(t)
	s.events.Append(id, "info", "resumed")
	s.dispatchLocked()
	return nil
}

// Retry requeues a failed task and clears its error.
func (s *Scheduler) Retry(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.store.Get(id)
	if !ok {
		return fmt.Errorf("%w: unknown task %s", ErrInvalidState, id)
	}
	if t.Status != StatusFailed {
		return fmt.Errorf("%w: cannot retry a %s task", ErrInvalidState, t.Status)
	}
	t.Status = StatusQueued
	t.ErrorMessage = ""
	s.store.Upsert(t)
	s.events.Append(id, "info", "retry requeued")
	s.dispatchLocked()
	return nil
}

// Cancel removes a task, cancelling its worker and discarding partial
// output. Cancelling an unknown task is a no-op, and a completed task is
// left in place; neither is an error. Cleanup failures are logged only.
func (s *Scheduler) Cancel(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	t, ok := s.store.Get(id)
	if !ok || t.Status == StatusCompleted {
		s.mu.Unlock()
		return nil
	}
	s.cancelWorkerLocked(id)
	s.store.Remove(id)
	s.events.Append(id, "info", "cancelled")
	s.log.Info().Str("task", id.String()).Msg("task cancelled")
	s.dispatchLocked()
	s.mu.Unlock()

	if err := s.cleaner.DiscardPartial(ctx, id); err != nil {
		s.log.Warn().Err(err).Str("task", id.String()).Msg("discard partial output")
	}
	return nil
}

// ClearCompleted removes all completed tasks and reports how many.
func (s *Scheduler) ClearCompleted() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.ClearCompleted()
}

// Reconfigure swaps the dispatch policy and runs a pass under the new one.
func (s *Scheduler) Reconfigure(cfg Config) error {
	if cfg.MaxConcurrent <= 0 {
		return fmt.Errorf("%w: max_concurrent must be positive", ErrInvalidRequest)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
	s.dispatchLocked()
	return nil
}

func (s *Scheduler) Config() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// Dispatch runs one dispatch pass. Safe to call from any goroutine at any
// time; the network monitor hooks it to start held tasks when the network
// clears.
func (s *Scheduler) Dispatch() {
	s.mu.Lock()
	s.dispatchLocked()
	s.mu.Unlock()
}

// Stop halts dispatching, pauses running tasks in place and waits for their
// workers to exit. Queued and paused tasks stay in the store untouched.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	for id, w := range s.workers {
		delete(s.workers, id)
		w.cancel()
		if t, ok := s.store.Get(id); ok && t.Status == StatusInProgress {
			t.Status = StatusPaused
			s.store.Upsert(t)
			s.events.Append(id, "info", "paused by shutdown")
		}
	}
	s.mu.Unlock()
	s.wg.Wait()
}

// dispatchLocked starts queued tasks oldest first until the running count
// reaches MaxConcurrent. The count comes from a store snapshot taken under
// s.mu, the same critical section that starts workers, so concurrent
// triggers cannot overshoot the limit. Caller holds s.mu.
func (s *Scheduler) dispatchLocked() {
	if s.stopped {
		return
	}
	if s.cfg.NetworkRestricted && !s.network.Unrestricted() {
		return
	}
	snap := s.store.Snapshot()
	running := 0
	for _, t := range snap {
		if t.Status == StatusInProgress {
			running++
		}
	}
	for _, t := range snap {
		if running >= s.cfg.MaxConcurrent {
			return
		}
		if t.Status != StatusQueued {
			continue
		}
		s.startLocked(t)
		running++
	}
}
