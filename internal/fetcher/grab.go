package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cavaliergopher/grab/v3"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/Heartless-Veteran/Project-Myriad-sub002/internal/download"
	"github.com/Heartless-Veteran/Project-Myriad-sub002/internal/source"
)

const (
	defaultUnitConcurrency = 3
	progressInterval       = 200 * time.Millisecond
	headTimeout            = 10 * time.Second
)

// Fetcher downloads every unit of a task into its own directory under the
// data dir and reports cumulative byte progress. Unit URLs come from the
// locator registry.
type Fetcher struct {
	dataDir         string
	locators        *source.Registry
	client          *grab.Client
	head            *http.Client
	unitConcurrency int
	log             zerolog.Logger
}

var _ download.Fetcher = (*Fetcher)(nil)
var _ download.Cleaner = (*Fetcher)(nil)

type Option func(*Fetcher)

func WithLogger(log zerolog.Logger) Option {
	return func(f *Fetcher) { f.log = log }
}

// WithUnitConcurrency caps how many units of one task transfer at once.
func WithUnitConcurrency(n int) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.unitConcurrency = n
		}
	}
}

func New(dataDir string, locators *source.Registry, opts ...Option) *Fetcher {
	f := &Fetcher{
		dataDir:         dataDir,
		locators:        locators,
		client:          grab.NewClient(),
		head:            &http.Client{Timeout: headTimeout},
		unitConcurrency: defaultUnitConcurrency,
		log:             zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Fetcher) Fetch(ctx context.Context, task download.Task, report func(download.ProgressUpdate)) error {
	dir := f.taskDir(task.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create task dir: %w", err)
	}

	urls := make([]string, len(task.UnitIDs))
	for i, unitID := range task.UnitIDs {
		u, err := f.locators.Resolve(ctx, task.GroupID, unitID)
		if err != nil {
			return fmt.Errorf("resolve unit %s: %w", unitID, err)
		}
		urls[i] = u
	}

	tr := newTracker(f.preSizes(ctx, urls), report)
	tr.flush()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(f.unitConcurrency)
	for i, unitID := range task.UnitIDs {
		g.Go(func() error {
			return f.fetchUnit(ctx, tr, i, dir, unitID, urls[i])
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	tr.flush()
	return nil
}

// DiscardPartial removes everything a task wrote under the data dir.
func (f *Fetcher) DiscardPartial(ctx context.Context, taskID uuid.UUID) error {
	return os.RemoveAll(f.taskDir(taskID))
}

func (f *Fetcher) taskDir(id uuid.UUID) string {
	return filepath.Join(f.dataDir, id.String())
}

func (f *Fetcher) fetchUnit(ctx context.Context, tr *tracker, idx int, dir, unitID, rawURL string) error {
	dest := filepath.Join(dir, unitFilename(unitID, rawURL))
	req, err := grab.NewRequest(dest, rawURL)
	if err != nil {
		return fmt.Errorf("unit %s: %w", unitID, err)
	}
	req = req.WithContext(ctx)

	resp := f.client.Do(req)
	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			tr.update(idx, resp.BytesComplete(), resp.Size())
		case <-resp.Done:
			if err := resp.Err(); err != nil {
				return fmt.Errorf("unit %s: %w", unitID, err)
			}
			tr.update(idx, resp.BytesComplete(), resp.Size())
			f.log.Debug().Str("unit", unitID).Str("file", resp.Filename).Msg("unit fetched")
			return nil
		}
	}
}

// preSizes asks each URL for its Content-Length so the task can report a
// total before any bytes move. Sizes that cannot be learned stay zero and
// the transfer fills them in later.
func (f *Fetcher) preSizes(ctx context.Context, urls []string) []int64 {
	sizes := make([]int64, len(urls))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(f.unitConcurrency)
	for i, rawURL := range urls {
		g.Go(func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
			if err != nil {
				return nil
			}
			resp, err := f.head.Do(req)
			if err != nil {
				return nil
			}
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK && resp.ContentLength > 0 {
				sizes[i] = resp.ContentLength
			}
			return nil
		})
	}
	_ = g.Wait()
	return sizes
}

// tracker folds per-unit byte counts into one cumulative stream. Reports are
// serialized and never move backwards. The total stays zero until every unit
// size is known, so callers never see a total that still grows.
type tracker struct {
	mu     sync.Mutex
	report func(download.ProgressUpdate)
	done   []int64
	size   []int64
	last   download.ProgressUpdate
	sent   bool
}

func newTracker(sizes []int64, report func(download.ProgressUpdate)) *tracker {
	return &tracker{
		report: report,
		done:   make([]int64, len(sizes)),
		size:   sizes,
	}
}

func (tr *tracker) update(idx int, done, size int64) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	if done > tr.done[idx] {
		tr.done[idx] = done
	}
	if size > tr.size[idx] {
		tr.size[idx] = size
	}
	tr.send()
}

func (tr *tracker) flush() {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.send()
}

func (tr *tracker) send() {
	var done, total int64
	known := true
	for i := range tr.done {
		done += tr.done[i]
		if tr.size[i] <= 0 {
			known = false
		} else {
			total += tr.size[i]
		}
	}
	u := download.ProgressUpdate{DownloadedBytes: done}
	if known {
		u.TotalBytes = total
	}
	if tr.sent && (u == tr.last || u.DownloadedBytes < tr.last.DownloadedBytes) {
		return
	}
	tr.last = u
	tr.sent = true
	tr.report(u)
}
