package netmon

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestMonitorWithoutProbeURLIsAlwaysOpen(t *testing.T) {
	m := New("")
	if !m.Unrestricted() {
		t.Fatal("monitor without probe URL should report unrestricted")
	}
	m.Start()
	m.Stop()
	if !m.Unrestricted() {
		t.Fatal("state changed without a probe URL")
	}
}

func TestMonitorTracksProbeResults(t *testing.T) {
	var broken atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if broken.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)

	changes := make(chan bool, 8)
	m := New(srv.URL,
		WithInterval(20*time.Millisecond),
		WithOnChange(func(v bool) { changes <- v }),
	)

	if m.Unrestricted() {
		t.Fatal("monitor should start restricted until the first probe lands")
	}

	m.Start()
	t.Cleanup(m.Stop)

	select {
	case v := <-changes:
		if !v {
			t.Fatalf("first change = %v, want unrestricted", v)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no change after first probe")
	}
	if !m.Unrestricted() {
		t.Fatal("expected unrestricted after successful probe")
	}

	broken.Store(true)
	select {
	case v := <-changes:
		if v {
			t.Fatalf("second change = %v, want restricted", v)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no change after probe began failing")
	}
	if m.Unrestricted() {
		t.Fatal("expected restricted after failing probe")
	}
}

func TestMonitorStopEndsProbing(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)

	m := New(srv.URL, WithInterval(10*time.Millisecond))
	m.Start()
	waitFor(t, 2*time.Second, func() bool { return hits.Load() > 0 })
	m.Stop()

	// One probe may already be on the wire when Stop lands.
	after := hits.Load()
	time.Sleep(50 * time.Millisecond)
	if hits.Load() > after+1 {
		t.Fatalf("probes continued after stop: %d -> %d", after, hits.Load())
	}
	m.Stop()
}

func TestMonitorRestartsAfterStop(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)

	m := New(srv.URL, WithInterval(10*time.Millisecond))
	m.Start()
	waitFor(t, 2*time.Second, func() bool { return hits.Load() > 0 })
	m.Stop()

	before := hits.Load()
	m.Start()
	t.Cleanup(m.Stop)
	waitFor(t, 2*time.Second, func() bool { return hits.Load() > before+1 })
}

func TestMonitorConcurrentStartStop(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)

	m := New(srv.URL, WithInterval(10*time.Millisecond))
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Start()
			m.Stop()
		}()
	}
	wg.Wait()
	m.Stop()

	// Let probes cancelled mid-flight land before sampling.
	time.Sleep(50 * time.Millisecond)
	after := hits.Load()
	time.Sleep(50 * time.Millisecond)
	if got := hits.Load(); got != after {
		t.Fatalf("probes continued after stop: %d -> %d", after, got)
	}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}
