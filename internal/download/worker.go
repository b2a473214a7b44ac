package download

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// worker is the cancellable handle for one in-flight task, owned by the
// scheduler. Whoever settles a task out of band (pause, cancel, shutdown)
// removes its worker from the table before cancelling it, so a fetch
// goroutine that finds itself replaced knows the task is no longer its to
// report on.
type worker struct {
	id     uuid.UUID
	cancel context.CancelFunc
}

// startLocked moves a queued task into progress and launches its worker.
// Caller holds s.mu.
func (s *Scheduler) startLocked(t Task) {
	ctx, cancel := context.WithCancel(context.Background())
	w := &worker{id: t.ID, cancel: cancel}
	s.workers[t.ID] = w
	t.Status = StatusInProgress
	if t.StartedAt.IsZero() {
		t.StartedAt = time.Now().UTC()
	}
	t.ErrorMessage = ""
	s.store.Upsert(t)
	s.events.Append(t.ID, "info", "started")
	s.log.Debug().Str("task", t.ID.String()).Msg("worker started")
	s.wg.Add(1)
	go s.runWorker(ctx, w, t)
}

func (s *Scheduler) runWorker(ctx context.Context, w *worker, t Task) {
	defer s.wg.Done()
	err := s.fetcher.Fetch(ctx, t, func(u ProgressUpdate) {
		s.applyProgress(ctx, w, t.ID, u)
	})
	s.finishWorker(w, t.ID, err)
}

// applyProgress folds a fetcher report into the store, unless the worker
// was superseded after the report was issued.
func (s *Scheduler) applyProgress(ctx context.Context, w *worker, id uuid.UUID, u ProgressUpdate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ctx.Err() != nil || s.workers[id] != w {
		return
	}
	t, ok := s.store.Get(id)
	if !ok || t.Status != StatusInProgress {
		return
	}
	if u.TotalBytes > t.TotalBytes {
		t.TotalBytes = u.TotalBytes
	}
	d := u.DownloadedBytes
	if d < 0 {
		d = 0
	}
	if t.TotalBytes > 0 && d > t.TotalBytes {
		d = t.TotalBytes
	}
	t.DownloadedBytes = d
	if t.TotalBytes > 0 {
		t.Progress = float64(d) / float64(t.TotalBytes)
	}
	s.store.Upsert(t)
}

// finishWorker settles a worker outcome. A worker that was superseded by
// pause, cancel or shutdown finds itself gone from the table and backs off;
// the superseding path already settled the task.
func (s *Scheduler) finishWorker(w *worker, id uuid.UUID, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.workers[id] != w {
		return
	}
	delete(s.workers, id)
	w.cancel()
	if t, ok := s.store.Get(id); ok && t.Status == StatusInProgress {
		if err == nil {
			t.Status = StatusCompleted
			t.Progress = 1
			if t.TotalBytes == 0 {
				t.TotalBytes = t.DownloadedBytes
			}
			t.DownloadedBytes = t.TotalBytes
			if t.CompletedAt.IsZero() {
				t.CompletedAt = time.Now().UTC()
			}
			s.store.Upsert(t)
			s.events.Append(id, "info", "completed")
			s.log.Info().Str("task", id.String()).Msg("task completed")
		} else {
			t.Status = StatusFailed
			t.ErrorMessage = err.Error()
			s.store.Upsert(t)
			s.events.Append(id, "error", err.Error())
			s.log.Warn().Err(err).Str("task", id.String()).Msg("task failed")
		}
	}
	s.dispatchLocked()
}

// cancelWorkerLocked detaches and cancels the worker for id, if any.
// Caller holds s.mu.
func (s *Scheduler) cancelWorkerLocked(id uuid.UUID) {
	if w, ok := s.workers[id]; ok {
		delete(s.workers, id)
		w.cancel()
	}
}
