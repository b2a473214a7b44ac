package download

import "context"

// Aggregator derives queue-wide figures from store snapshots. Every value is
// computed fresh from the current snapshot; nothing is cached across
// mutations.
type Aggregator struct {
	store *Store
}

func NewAggregator(store *Store) *Aggregator {
	return &Aggregator{store: store}
}

// OverallProgress is the mean progress of the tasks currently in progress,
// 0 when none are.
func (a *Aggregator) OverallProgress() float64 {
	return overallProgress(a.store.Snapshot())
}

// HasActiveDownloads reports whether any task is queued or in progress.
func (a *Aggregator) HasActiveDownloads() bool {
	return hasActive(a.store.Snapshot())
}

// StatusCounts tallies tasks by status.
func (a *Aggregator) StatusCounts() map[Status]int {
	counts := make(map[Status]int)
	for _, t := range a.store.Snapshot() {
		counts[t.Status]++
	}
	return counts
}

// ObserveProgress streams the overall progress, current value first,
// consecutive duplicates dropped. The channel closes when ctx ends.
func (a *Aggregator) ObserveProgress(ctx context.Context) <-chan float64 {
	out := make(chan float64, 1)
	go func() {
		defer close(out)
		first := true
		var last float64
		for snap := range a.store.Observe(ctx) {
			v := overallProgress(snap)
			if !first && v == last {
				continue
			}
			first = false
			last = v
			select {
			case out <- v:
			default:
				select {
				case <-out:
				default:
				}
				out <- v
			}
		}
	}()
	return out
}

// ObserveActive streams the has-active-downloads flag, current value first,
// consecutive duplicates dropped. The channel closes when ctx ends.
func (a *Aggregator) ObserveActive(ctx context.Context) <-chan bool {
	out := make(chan bool, 1)
	go func() {
		defer close(out)
		first := true
		var last bool
		for snap := range a.store.Observe(ctx) {
			v := hasActive(snap)
			if !first && v == last {
				continue
			}
			first = false
			last = v
			select {
			case out <- v:
			default:
				select {
				case <-out:
				default:
				}
				out <- v
			}
		}
	}()
	return out
}

func overallProgress(tasks []Task) float64 {
	sum := 0.0
	n := 0
	for _, t := range tasks {
		if t.Status == StatusInProgress {
			sum += t.Progress
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func hasActive(tasks []Task) bool {
	for _, t := range tasks {
		if t.Status.Active() {
			return true
		}
	}
	return false
}
