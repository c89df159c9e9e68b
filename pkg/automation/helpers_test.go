package automation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/hashicorp-forge/aps-automation/pkg/aps"
)

// fakeAPS records every request it serves.
type fakeAPS struct {
	*http.ServeMux
	server *httptest.Server

	mu    sync.Mutex
	calls []string
}

func (f *fakeAPS) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.calls = append(f.calls, r.Method+" "+r.URL.Path)
	f.mu.Unlock()
	f.ServeMux.ServeHTTP(w, r)
}

func (f *fakeAPS) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeAPS) count(call string) int {
	n := 0
	for _, c := range f.Calls() {
		if c == call {
			n++
		}
	}
	return n
}

func newFakeAPS(t *testing.T) (*fakeAPS, *aps.Client) {
	t.Helper()

	f := &fakeAPS{ServeMux: http.NewServeMux()}
	f.server = httptest.NewServer(f)
	t.Cleanup(f.server.Close)

	client, err := aps.NewClient(&aps.Config{
		BaseURL: f.server.URL,
		FS:      afero.NewMemMapFs(),
	}, hclog.NewNullLogger())
	require.NoError(t, err)

	return f, client
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// instantTimer fires immediately and records the requested waits.
type instantTimer struct {
	c     chan time.Time
	waits []time.Duration
}

func newInstantTimer() *instantTimer {
	return &instantTimer{c: make(chan time.Time, 1)}
}

func (t *instantTimer) Start(d time.Duration) {
	t.waits = append(t.waits, d)
	t.c <- time.Now()
}

func (t *instantTimer) Stop() {}

func (t *instantTimer) C() <-chan time.Time {
	return t.c
}

// scriptedFetcher returns statuses in order, repeating the last one.
type scriptedFetcher struct {
	statuses []aps.Status
	err      error
	calls    int
}

func (f *scriptedFetcher) GetWorkItemStatus(_ context.Context, _, workItemID string) (*aps.WorkItemStatus, error) {
	if f.err != nil {
		f.calls++
		return nil, f.err
	}
	i := f.calls
	if i >= len(f.statuses) {
		i = len(f.statuses) - 1
	}
	f.calls++
	return &aps.WorkItemStatus{ID: workItemID, Status: f.statuses[i]}, nil
}

func testPoller(fetcher StatusFetcher, interval, maxWait time.Duration) (*Poller, *instantTimer) {
	timer := newInstantTimer()
	p := NewPoller(fetcher, hclog.NewNullLogger())
	p.Interval = interval
	p.MaxWait = maxWait
	p.timer = timer
	return p, timer
}
