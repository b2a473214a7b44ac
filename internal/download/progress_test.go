package download

import (
	"context"
	"testing"
	"time"
)

func TestOverallProgressAveragesRunningTasks(t *testing.T) {
	store := NewStore()
	agg := NewAggregator(store)

	if got := agg.OverallProgress(); got != 0 {
		t.Fatalf("empty store progress = %v", got)
	}

	running1 := testTask("g1", StatusInProgress)
	running1.Progress = 0.2
	running2 := testTask("g2", StatusInProgress)
	running2.Progress = 0.6
	queued := testTask("g3", StatusQueued)
	queued.Progress = 0.9
	done := testTask("g4", StatusCompleted)
	done.Progress = 1
	for _, task := range []Task{running1, running2, queued, done} {
		store.Upsert(task)
	}

	if got := agg.OverallProgress(); got != 0.4 {
		t.Fatalf("progress = %v, want 0.4", got)
	}

	// Only running tasks count; without them the figure drops to zero.
	store.Remove(running1.ID)
	store.Remove(running2.ID)
	if got := agg.OverallProgress(); got != 0 {
		t.Fatalf("progress without running tasks = %v", got)
	}
}

func TestHasActiveDownloads(t *testing.T) {
	store := NewStore()
	agg := NewAggregator(store)

	if agg.HasActiveDownloads() {
		t.Fatalf("empty store reported active")
	}

	paused := testTask("g1", StatusPaused)
	failed := testTask("g2", StatusFailed)
	done := testTask("g3", StatusCompleted)
	for _, task := range []Task{paused, failed, done} {
		store.Upsert(task)
	}
	if agg.HasActiveDownloads() {
		t.Fatalf("paused/failed/completed reported active")
	}

	queued := testTask("g4", StatusQueued)
	store.Upsert(queued)
	if !agg.HasActiveDownloads() {
		t.Fatalf("queued task not reported active")
	}

	queued.Status = StatusInProgress
	store.Upsert(queued)
	if !agg.HasActiveDownloads() {
		t.Fatalf("running task not reported active")
	}
}

func TestStatusCounts(t *testing.T) {
	store := NewStore()
	agg := NewAggregator(store)

	for _, status := range []Status{StatusQueued, StatusQueued, StatusQueued, StatusInProgress, StatusFailed} {
		store.Upsert(testTask("g"+string(status), status))
	}

	counts := agg.StatusCounts()
	if counts[StatusQueued] != 3 || counts[StatusInProgress] != 1 || counts[StatusFailed] != 1 {
		t.Fatalf("counts = %v", counts)
	}
}

func TestObserveProgressTracksChanges(t *testing.T) {
	store := NewStore()
	agg := NewAggregator(store)

	task := testTask("g1", StatusInProgress)
	task.Progress = 0.5
	store.Upsert(task)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := agg.ObserveProgress(ctx)

	if got := recvFloat(t, ch); got != 0.5 {
		t.Fatalf("initial progress = %v", got)
	}

	task.Progress = 0.75
	store.Upsert(task)
	waitForValue(t, ch, 0.75)
}

func TestObserveActiveFlips(t *testing.T) {
	store := NewStore()
	agg := NewAggregator(store)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := agg.ObserveActive(ctx)

	select {
	case v, ok := <-ch:
		if !ok || v {
			t.Fatalf("initial active = %v ok=%v", v, ok)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no initial value")
	}

	task := testTask("g1", StatusQueued)
	store.Upsert(task)
	waitForBool(t, ch, true)

	task.Status = StatusCompleted
	store.Upsert(task)
	waitForBool(t, ch, false)
}

func recvFloat(t *testing.T, ch <-chan float64) float64 {
	t.Helper()
	select {
	case v, ok := <-ch:
		if !ok {
			t.Fatalf("progress channel closed")
		}
		return v
	case <-time.After(2 * time.Second):
		t.Fatalf("no progress value within 2s")
		return 0
	}
}

func waitForValue(t *testing.T, ch <-chan float64, want float64) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case v, ok := <-ch:
			if !ok {
				t.Fatalf("progress channel closed before %v", want)
			}
			if v == want {
				return
			}
		case <-deadline:
			t.Fatalf("never observed %v", want)
		}
	}
}

func waitForBool(t *testing.T, ch <-chan bool, want bool) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case v, ok := <-ch:
			if !ok {
				t.Fatalf("active channel closed before %v", want)
			}
			if v == want {
				return
			}
		case <-deadline:
			t.Fatalf("never observed %v", want)
		}
	}
}
