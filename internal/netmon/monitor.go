package netmon

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Heartless-Veteran/Project-Myriad-sub002/internal/download"
)

const (
	defaultInterval = 30 * time.Second
	probeTimeout    = 5 * time.Second
)

// Monitor reports whether the network path is open for large transfers by
// probing a URL on an interval. With no probe URL it always reports open.
// Until the first probe lands the network counts as restricted. Start and
// Stop are safe to call from any goroutine.
type Monitor struct {
	probeURL string
	interval time.Duration
	client   *http.Client
	onChange func(unrestricted bool)
	log      zerolog.Logger

	mu           sync.Mutex
	unrestricted bool
	cancel       context.CancelFunc
	done         chan struct{}
}

var _ download.NetworkState = (*Monitor)(nil)

type Option func(*Monitor)

func WithLogger(log zerolog.Logger) Option {
	return func(m *Monitor) { m.log = log }
}

func WithInterval(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.interval = d
		}
	}
}

// WithOnChange registers a callback invoked whenever the probed state flips.
func WithOnChange(fn func(unrestricted bool)) Option {
	return func(m *Monitor) { m.onChange = fn }
}

func New(probeURL string, opts ...Option) *Monitor {
	m := &Monitor{
		probeURL: probeURL,
		interval: defaultInterval,
		client:   &http.Client{Timeout: probeTimeout},
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start launches the probe loop, unless one is already running or there is
// no probe URL.
func (m *Monitor) Start() {
	if m.probeURL == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	m.cancel = cancel
	m.done = done
	go m.loop(ctx, done)
}

// Stop cancels the probe loop and waits for it to exit. The wait happens
// outside the mutex: the exiting loop may still call setState, which needs
// the lock.
func (m *Monitor) Stop() {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel = nil
	m.done = nil
	m.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (m *Monitor) Unrestricted() bool {
	if m.probeURL == "" {
		return true
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.unrestricted
}

func (m *Monitor) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	ok := m.probe(ctx)
	if ctx.Err() != nil {
		return
	}
	m.setState(ok)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ok := m.probe(ctx)
			if ctx.Err() != nil {
				return
			}
			m.setState(ok)
		}
	}
}

// probe counts any 2xx or 3xx answer as an open network path.
func (m *Monitor) probe(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, m.probeURL, nil)
	if err != nil {
		return false
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode < 400
}

// setState must not hold the mutex while invoking the callback: the callback
// typically re-enters code that reads Unrestricted.
func (m *Monitor) setState(v bool) {
	m.mu.Lock()
	changed := m.unrestricted != v
	m.unrestricted = v
	m.mu.Unlock()
	if !changed {
		return
	}
	m.log.Info().Bool("unrestricted", v).Msg("network state changed")
	if m.onChange != nil {
		m.onChange(v)
	}
}
