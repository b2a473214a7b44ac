package download

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusQueued     Status = "queued"
	StatusInProgress Status = "in_progress"
	StatusPaused     Status = "paused"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// Terminal statuses admit no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Active reports whether the task is queued or running.
func (s Status) Active() bool {
	return s == StatusQueued || s == StatusInProgress
}

// Task is one download request: a group of units fetched together.
// ID, GroupID, GroupTitle and UnitIDs never change after creation.
type Task struct {
	ID              uuid.UUID
	GroupID         string
	GroupTitle      string
	UnitIDs         []string
	Status          Status
	Progress        float64
	DownloadedBytes int64
	TotalBytes      int64
	ErrorMessage    string
	EnqueuedAt      time.Time
	StartedAt       time.Time
	CompletedAt     time.Time
}

// dedupeUnits drops blank entries and repeats, keeping first-seen order.
func dedupeUnits(unitIDs []string) []string {
	out := make([]string, 0, len(unitIDs))
	seen := make(map[string]struct{}, len(unitIDs))
	for _, u := range unitIDs {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}

// requestKey identifies a request by group and unit set; unit order is
// irrelevant to duplicate detection.
func requestKey(groupID string, unitIDs []string) string {
	units := append([]string(nil), unitIDs...)
	sort.Strings(units)
	return groupID + "\x00" + strings.Join(units, "\x00")
}
