package splithttp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tanq16/splitdl/internal/utils"
)

type recorder struct {
	mu       sync.Mutex
	states   []State
	received []int64
	total    int64
}

func (r *recorder) callbacks() Callbacks {
	return Callbacks{
		OnProgress: func(received, total int64) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.received = append(r.received, received)
			r.total = total
		},
		OnState: func(s State) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.states = append(r.states, s)
		},
	}
}

func (r *recorder) snapshot() ([]State, []int64, int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]State(nil), r.states...), append([]int64(nil), r.received...), r.total
}

func newTestCoordinator(rs *rangeServer) *Coordinator {
	return NewCoordinator(rs.client(), Options{ProgressInterval: 5 * time.Millisecond})
}

func TestDownloadSegmented(t *testing.T) {
	data := randomBytes(1<<20 + 17)
	rs := newRangeServer(t, data, func(rs *rangeServer) {
		rs.sliceSize = 3000
		rs.maxPause = 200 * time.Microsecond
	})
	out := filepath.Join(t.TempDir(), "file.bin")
	rec := &recorder{}

	session, err := newTestCoordinator(rs).Download(context.Background(), Request{URL: rs.URL + "/file.bin", LocalPath: out, Workers: 8}, rec.callbacks())
	if err != nil {
		t.Fatalf("Download: %v", err)
	}

	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("output differs from source (got %d bytes, want %d)", len(got), len(data))
	}
	if session.Strategy != StrategySegmented {
		t.Errorf("expected segmented strategy, got %q", session.Strategy)
	}
	if len(session.Ranges) != 8 {
		t.Errorf("expected 8 ranges, got %d", len(session.Ranges))
	}
	if session.Received != int64(len(data)) {
		t.Errorf("expected %d bytes received, got %d", len(data), session.Received)
	}
	if session.ID == "" {
		t.Error("expected a session ID")
	}

	states, received, total := rec.snapshot()
	wantStates := []State{StateProbing, StateSegmented, StateFinalizing, StateDone}
	if !reflect.DeepEqual(states, wantStates) {
		t.Errorf("expected states %v, got %v", wantStates, states)
	}
	if len(received) == 0 || received[len(received)-1] != int64(len(data)) {
		t.Errorf("expected final progress of %d, got %v", len(data), received)
	}
	if total != int64(len(data)) {
		t.Errorf("expected progress total %d, got %d", len(data), total)
	}
	for i := 1; i < len(received); i++ {
		if received[i] < received[i-1] {
			t.Fatalf("progress went backwards: %v", received)
		}
	}
	if _, plain := rs.seen(); plain != 0 {
		t.Errorf("expected no unranged GETs, got %d", plain)
	}
}

func TestDownloadSegmentedInterleavings(t *testing.T) {
	for round := 0; round < 10; round++ {
		data := randomBytes(20000 + round*131)
		rs := newRangeServer(t, data, func(rs *rangeServer) {
			rs.sliceSize = 1 + round*7
			rs.maxPause = 50 * time.Microsecond
		})
		out := filepath.Join(t.TempDir(), "file.bin")

		workers := 2 + round%15
		if _, err := newTestCoordinator(rs).Download(context.Background(), Request{URL: rs.URL, LocalPath: out, Workers: workers}, Callbacks{}); err != nil {
			t.Fatalf("round %d: Download: %v", round, err)
		}
		got, err := os.ReadFile(out)
		if err != nil {
			t.Fatalf("round %d: read output: %v", round, err)
		}
		if !bytes.Equal(got, data) {
			t.Fatalf("round %d: output differs from source", round)
		}
	}
}

func TestDownloadSmallFileRequestsClampedRanges(t *testing.T) {
	data := []byte("abcdefghij")
	rs := newRangeServer(t, data)
	out := filepath.Join(t.TempDir(), "ten.txt")

	if _, err := newTestCoordinator(rs).Download(context.Background(), Request{URL: rs.URL, LocalPath: out, Workers: 3}, Callbacks{}); err != nil {
		t.Fatalf("Download: %v", err)
	}
	got, _ := os.ReadFile(out)
	if string(got) != string(data) {
		t.Errorf("expected %q, got %q", data, got)
	}

	ranges, _ := rs.seen()
	seen := map[string]bool{}
	for _, r := range ranges {
		seen[r] = true
	}
	for _, want := range []string{"bytes=0-2", "bytes=3-5", "bytes=6-9"} {
		if !seen[want] {
			t.Errorf("expected request %s, saw %v", want, ranges)
		}
	}
}

func TestDownloadUnknownSizeUsesSingleStream(t *testing.T) {
	data := randomBytes(70000)
	rs := newRangeServer(t, data, func(rs *rangeServer) { rs.headLength = false })
	out := filepath.Join(t.TempDir(), "stream.bin")
	rec := &recorder{}

	session, err := newTestCoordinator(rs).Download(context.Background(), Request{URL: rs.URL, LocalPath: out, Workers: 8}, rec.callbacks())
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if session.Strategy != StrategySingleStream {
		t.Errorf("expected single-stream strategy, got %q", session.Strategy)
	}
	if session.Target.TotalSize != 0 {
		t.Errorf("expected unknown size, got %d", session.Target.TotalSize)
	}
	ranges, plain := rs.seen()
	if len(ranges) != 0 || plain != 1 {
		t.Errorf("expected one unranged GET, got ranges=%v plain=%d", ranges, plain)
	}
	got, _ := os.ReadFile(out)
	if !bytes.Equal(got, data) {
		t.Error("output differs from source")
	}

	states, _, total := rec.snapshot()
	wantStates := []State{StateProbing, StateSingleStream, StateFinalizing, StateDone}
	if !reflect.DeepEqual(states, wantStates) {
		t.Errorf("expected states %v, got %v", wantStates, states)
	}
	if total > 0 {
		t.Errorf("expected no known total for a chunked response, got %d", total)
	}
}

func TestDownloadOneWorkerUsesSingleStream(t *testing.T) {
	data := randomBytes(1000000)
	rs := newRangeServer(t, data)
	out := filepath.Join(t.TempDir(), "one.bin")
	rec := &recorder{}

	session, err := newTestCoordinator(rs).Download(context.Background(), Request{URL: rs.URL, LocalPath: out, Workers: 1}, rec.callbacks())
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if session.Strategy != StrategySingleStream {
		t.Errorf("expected single-stream strategy, got %q", session.Strategy)
	}
	if !session.Target.SupportsRange || session.Target.TotalSize != 1000000 {
		t.Errorf("expected rangeable target of 1000000 bytes, got %+v", session.Target)
	}
	if ranges, plain := rs.seen(); len(ranges) != 0 || plain != 1 {
		t.Errorf("expected one unranged GET, got ranges=%v plain=%d", ranges, plain)
	}
	got, _ := os.ReadFile(out)
	if !bytes.Equal(got, data) {
		t.Error("output differs from source")
	}
	if _, _, total := rec.snapshot(); total != 1000000 {
		t.Errorf("expected progress total 1000000, got %d", total)
	}
}

func TestDownloadProbeFailureLeavesNoFile(t *testing.T) {
	rs := newRangeServer(t, randomBytes(10))
	url := rs.URL
	client := rs.client()
	rs.Close()

	out := filepath.Join(t.TempDir(), "never.bin")
	rec := &recorder{}
	session, err := NewCoordinator(client, Options{}).Download(context.Background(), Request{URL: url, LocalPath: out, Workers: 4}, rec.callbacks())

	var netErr *utils.NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected NetworkError, got %v", err)
	}
	if session.State != StateFailed {
		t.Errorf("expected failed state, got %s", session.State)
	}
	if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
		t.Errorf("expected no output file, stat returned %v", statErr)
	}
	states, _, _ := rec.snapshot()
	if want := []State{StateProbing, StateFailed}; !reflect.DeepEqual(states, want) {
		t.Errorf("expected states %v, got %v", want, states)
	}
}

func TestDownloadSegmentFailureAbortsSession(t *testing.T) {
	data := randomBytes(40000)
	// Second of four ranges starts at 10000.
	rs := newRangeServer(t, data, func(rs *rangeServer) {
		rs.failFrom = 10000
		rs.sliceSize = 64
		rs.maxPause = 100 * time.Microsecond
	})
	out := filepath.Join(t.TempDir(), "partial.bin")
	rec := &recorder{}

	session, err := newTestCoordinator(rs).Download(context.Background(), Request{URL: rs.URL, LocalPath: out, Workers: 4}, rec.callbacks())
	var netErr *utils.NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected NetworkError, got %v", err)
	}
	if session.State != StateFailed {
		t.Errorf("expected failed state, got %s", session.State)
	}
	if info, statErr := os.Stat(out); statErr != nil || info.Size() != int64(len(data)) {
		t.Errorf("expected the pre-sized partial file to remain, got %v %v", info, statErr)
	}
	states, _, _ := rec.snapshot()
	want := []State{StateProbing, StateSegmented, StateFinalizing, StateFailed}
	if !reflect.DeepEqual(states, want) {
		t.Errorf("expected states %v, got %v", want, states)
	}
}

func TestDownloadCancelled(t *testing.T) {
	data := randomBytes(200000)
	rs := newRangeServer(t, data, func(rs *rangeServer) {
		rs.sliceSize = 16
		rs.maxPause = 2 * time.Millisecond
	})
	out := filepath.Join(t.TempDir(), "cancel.bin")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	session, err := newTestCoordinator(rs).Download(ctx, Request{URL: rs.URL, LocalPath: out, Workers: 4}, Callbacks{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if session.State != StateFailed {
		t.Errorf("expected failed state, got %s", session.State)
	}
}

func TestDownloadReplacesExistingFile(t *testing.T) {
	data := []byte("fresh content")
	rs := newRangeServer(t, data, func(rs *rangeServer) { rs.headLength = false })
	out := filepath.Join(t.TempDir(), "existing.txt")
	if err := os.WriteFile(out, bytes.Repeat([]byte("stale"), 100), 0644); err != nil {
		t.Fatalf("write existing file: %v", err)
	}

	if _, err := newTestCoordinator(rs).Download(context.Background(), Request{URL: rs.URL, LocalPath: out, Workers: 4}, Callbacks{}); err != nil {
		t.Fatalf("Download: %v", err)
	}
	got, _ := os.ReadFile(out)
	if !bytes.Equal(got, data) {
		t.Errorf("expected %q, got %q", data, got)
	}
}

func TestDownloadMissingDirectoryIsIOError(t *testing.T) {
	rs := newRangeServer(t, randomBytes(100))
	out := filepath.Join(t.TempDir(), "missing", "file.bin")

	session, err := newTestCoordinator(rs).Download(context.Background(), Request{URL: rs.URL, LocalPath: out, Workers: 2}, Callbacks{})
	var ioErr *utils.IOError
	if !errors.As(err, &ioErr) {
		t.Fatalf("expected IOError, got %v", err)
	}
	if session.State != StateFailed {
		t.Errorf("expected failed state, got %s", session.State)
	}
}

func TestDownloadWithRateLimit(t *testing.T) {
	data := randomBytes(64 * 1024)
	rs := newRangeServer(t, data)
	out := filepath.Join(t.TempDir(), "limited.bin")

	c := NewCoordinator(rs.client(), Options{RateLimit: 1 << 30})
	if _, err := c.Download(context.Background(), Request{URL: rs.URL, LocalPath: out, Workers: 4}, Callbacks{}); err != nil {
		t.Fatalf("Download: %v", err)
	}
	got, _ := os.ReadFile(out)
	if !bytes.Equal(got, data) {
		t.Error("output differs from source")
	}
}

func TestDownloadSingleStreamRejectsShortBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.Header().Set("Accept-Ranges", "bytes")
			w.Header().Set("Content-Length", "1000")
			return
		}
		// Flushing before the handler returns forces a chunked body.
		w.WriteHeader(http.StatusOK)
		w.Write(bytes.Repeat([]byte("x"), 500))
		w.(http.Flusher).Flush()
	}))
	t.Cleanup(srv.Close)
	client := utils.WrapHTTPClient(srv.Client(), utils.HTTPClientConfig{})
	out := filepath.Join(t.TempDir(), "short.bin")

	session, err := NewCoordinator(client, Options{}).Download(context.Background(), Request{URL: srv.URL, LocalPath: out, Workers: 1}, Callbacks{})
	var netErr *utils.NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected NetworkError, got %v", err)
	}
	if !strings.Contains(err.Error(), "size mismatch") {
		t.Errorf("expected a size mismatch, got %v", err)
	}
	if session.Strategy != StrategySingleStream {
		t.Errorf("expected single-stream strategy, got %q", session.Strategy)
	}
	if session.State != StateFailed {
		t.Errorf("expected failed state, got %s", session.State)
	}
}

func TestDownloadSegmentFailureCancelsSiblings(t *testing.T) {
	const size = 4000
	const hold = 10 * time.Second
	data := randomBytes(size)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.Header().Set("Accept-Ranges", "bytes")
			w.Header().Set("Content-Length", fmt.Sprint(size))
			return
		}
		start, end, ok := parseRange(r.Header.Get("Range"), size)
		if !ok {
			w.WriteHeader(http.StatusRequestedRangeNotSatisfiable)
			return
		}
		if start == 1000 {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		// Healthy segments send a few bytes and then stall until the client goes away.
		w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, size))
		w.WriteHeader(http.StatusPartialContent)
		w.Write(data[start : start+10])
		w.(http.Flusher).Flush()
		select {
		case <-r.Context().Done():
		case <-time.After(hold):
		}
	}))
	t.Cleanup(srv.Close)
	client := utils.WrapHTTPClient(srv.Client(), utils.HTTPClientConfig{})
	out := filepath.Join(t.TempDir(), "stalled.bin")

	started := time.Now()
	session, err := NewCoordinator(client, Options{}).Download(context.Background(), Request{URL: srv.URL, LocalPath: out, Workers: 4}, Callbacks{})
	elapsed := time.Since(started)

	var netErr *utils.NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected NetworkError, got %v", err)
	}
	if !strings.Contains(err.Error(), "segment 1 ") {
		t.Errorf("expected the failing segment to be reported, got %v", err)
	}
	if elapsed >= hold/2 {
		t.Errorf("stalled segments were not cancelled: Download took %s", elapsed)
	}
	if session.State != StateFailed {
		t.Errorf("expected failed state, got %s", session.State)
	}
}
