package provision

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ZebulonRouseFrantzich/addonprov/internal/testutil"
)

// recordingSleeper records requested waits without sleeping.
type recordingSleeper struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (s *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.waits = append(s.waits, d)
	return nil
}

func (s *recordingSleeper) Waits() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.waits...)
}

// hitCounter wraps a handler and counts requests.
type hitCounter struct {
	hits    atomic.Int32
	handler http.HandlerFunc
}

func (h *hitCounter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.hits.Add(1)
	h.handler(w, r)
}

func (h *hitCounter) Hits() int {
	return int(h.hits.Load())
}

// dropConnection closes the client connection without a response.
func dropConnection(t *testing.T, w http.ResponseWriter) {
	t.Helper()
	hj, ok := w.(http.Hijacker)
	if !ok {
		t.Fatal("response writer does not support hijacking")
	}
	conn, _, err := hj.Hijack()
	if err != nil {
		t.Fatalf("hijack: %v", err)
	}
	conn.Close()
}

// testConfig returns a config for root with fast, deterministic fetching.
func testConfig(root string, sleeper Sleeper) Config {
	return Config{
		Root:           root,
		PackageName:    "@min-html/core",
		PackageVersion: "0.8.5",
		Detector:       testutil.LinuxX64(),
		Sleeper:        sleeper,
		AttemptTimeout: 5 * time.Second,
		HTTPClient: &http.Client{
			Transport: &http.Transport{DisableKeepAlives: true},
		},
	}
}

func newTestProvisioner(t *testing.T, cfg Config) *Provisioner {
	t.Helper()
	p, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return p
}

func assertNotExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Lstat(path); !os.IsNotExist(err) {
		t.Errorf("expected %s to be absent, stat error = %v", path, err)
	}
}

func assertNoTempFiles(t *testing.T, dir string) {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, ".index.node-*.tmp"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(matches) > 0 {
		t.Errorf("temp files left behind: %v", matches)
	}
}
