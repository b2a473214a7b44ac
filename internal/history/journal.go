package history

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Heartless-Veteran/Project-Myriad-sub002/internal/download"
)

// Event is one journal row for a task.
type Event struct {
	ID        int64  `json:"id"`
	TaskID    string `json:"task_id"`
	Level     string `json:"level"`
	Message   string `json:"message"`
	CreatedAt string `json:"created_at"`
}

type entry struct {
	taskID    string
	level     string
	message   string
	createdAt string
}

// Journal is an append-only record of task lifecycle events. Append queues
// the row and returns immediately; a single goroutine owns the writes. When
// the buffer is full the event is dropped and counted rather than blocking
// the caller. The journal is a log for inspection, never read back as queue
// state.
type Journal struct {
	db   *sql.DB
	log  zerolog.Logger
	done chan struct{}

	mu      sync.Mutex
	pending chan entry
	closed  bool
	dropped int64
}

type Option func(*Journal)

func WithLogger(log zerolog.Logger) Option {
	return func(j *Journal) { j.log = log }
}

func New(conn *sql.DB, opts ...Option) *Journal {
	j := &Journal{
		db:      conn,
		log:     zerolog.Nop(),
		done:    make(chan struct{}),
		pending: make(chan entry, 256),
	}
	for _, opt := range opts {
		opt(j)
	}
	go j.run()
	return j
}

func (j *Journal) Append(taskID uuid.UUID, level, message string) {
	e := entry{
		taskID:    taskID.String(),
		level:     level,
		message:   message,
		createdAt: time.Now().UTC().Format(time.RFC3339),
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return
	}
	select {
	case j.pending <- e:
	default:
		j.dropped++
	}
}

// Dropped reports how many events were discarded on a full buffer.
func (j *Journal) Dropped() int64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.dropped
}

// Events returns up to limit events for a task, newest first.
func (j *Journal) Events(ctx context.Context, taskID uuid.UUID, limit int) ([]Event, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := j.db.QueryContext(ctx, `
SELECT id, task_id, level, message, created_at
FROM task_events WHERE task_id = ? ORDER BY id DESC LIMIT ?
`, taskID.String(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.TaskID, &e.Level, &e.Message, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close drains queued events and stops the writer. The database handle is
// the caller's to close.
func (j *Journal) Close() {
	j.mu.Lock()
	if !j.closed {
		j.closed = true
		close(j.pending)
	}
	j.mu.Unlock()
	<-j.done
}

func (j *Journal) run() {
	defer close(j.done)
	for e := range j.pending {
		_, err := j.db.Exec(`
INSERT INTO task_events (task_id, level, message, created_at)
VALUES (?, ?, ?, ?)
`, e.taskID, e.level, e.message, e.createdAt)
		if err != nil {
			j.log.Warn().Err(err).Str("task", e.taskID).Msg("journal insert failed")
		}
	}
}

var _ download.EventSink = (*Journal)(nil)
