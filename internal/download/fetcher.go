package download

import (
	"context"

	"github.com/google/uuid"
)

// ProgressUpdate carries cumulative byte counts for one task. TotalBytes is
// 0 while the total is unknown.
type ProgressUpdate struct {
	DownloadedBytes int64
	TotalBytes      int64
}

// Fetcher retrieves the content of one task. Implementations call report
// with nondecreasing cumulative counts, one call at a time, and return nil
// on success, ctx.Err() when cancelled, or the failure otherwise. The
// scheduler never looks inside the transfer.
type Fetcher interface {
	Fetch(ctx context.Context, task Task, report func(ProgressUpdate)) error
}

// NetworkState tells dispatch whether large transfers are currently allowed.
// Consulted only when Config.NetworkRestricted is set.
type NetworkState interface {
	Unrestricted() bool
}

// Cleaner discards partial output left behind by a cancelled task.
type Cleaner interface {
	DiscardPartial(ctx context.Context, taskID uuid.UUID) error
}

// EventSink receives task lifecycle events. Append is called with the
// scheduler lock held and must not block.
type EventSink interface {
	Append(taskID uuid.UUID, level, message string)
}

type nopNetwork struct{}

func (nopNetwork) Unrestricted() bool { return true }

type nopCleaner struct{}

func (nopCleaner) DiscardPartial(context.Context, uuid.UUID) error { return nil }

type nopSink struct{}

func (nopSink) Append(uuid.UUID, string, string) {}
