package output

import (
	"bytes"
	"strings"
	"testing"
	"time"

	splithttp "github.com/tanq16/splitdl/internal/downloaders/http"
)

func TestSizeLabel(t *testing.T) {
	tests := []struct {
		size int64
		want string
	}{
		{0, "unknown size"},
		{-1, "unknown size"},
		{512, "512 B"},
		{1536, "1.50 KB"},
	}
	for _, tt := range tests {
		if got := SizeLabel(tt.size); got != tt.want {
			t.Errorf("SizeLabel(%d) = %q, want %q", tt.size, got, tt.want)
		}
	}
}

func TestStrategyLine(t *testing.T) {
	tests := []struct {
		name    string
		session splithttp.Session
		want    string
	}{
		{
			name: "segmented",
			session: splithttp.Session{
				Strategy: splithttp.StrategySegmented,
				Workers:  4,
				Target:   splithttp.Target{TotalSize: 2048, SupportsRange: true},
			},
			want: "2.00 KB, 4 connections",
		},
		{
			name: "unknown size",
			session: splithttp.Session{
				Strategy: splithttp.StrategySingleStream,
				Workers:  4,
			},
			want: "unknown size, single stream",
		},
		{
			name: "one worker",
			session: splithttp.Session{
				Strategy: splithttp.StrategySingleStream,
				Workers:  1,
				Target:   splithttp.Target{TotalSize: 100, SupportsRange: true},
			},
			want: "100 B, single stream",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StrategyLine(&tt.session); got != tt.want {
				t.Errorf("StrategyLine() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSummaryLine(t *testing.T) {
	start := time.Now()
	session := &splithttp.Session{
		Target:   splithttp.Target{LocalPath: "/tmp/file.iso"},
		Received: 2 * 1024 * 1024,
		Started:  start,
		Finished: start.Add(2 * time.Second),
	}
	line := SummaryLine(session)
	for _, want := range []string{"/tmp/file.iso", "2.00 MB", "2s", "1.00 MB/s"} {
		if !strings.Contains(line, want) {
			t.Errorf("summary %q does not mention %q", line, want)
		}
	}
}

func TestProgressRendererKnownTotal(t *testing.T) {
	var buf bytes.Buffer
	r := NewProgressRenderer(&buf, "file.bin")

	r.Update(0, 1000)
	r.Update(500, 1000)
	r.Update(1000, 1000)
	r.Finish()

	if !strings.Contains(buf.String(), "file.bin") {
		t.Errorf("expected the label in the output, got %q", buf.String())
	}
	r.Finish()
}

func TestProgressRendererUnknownTotal(t *testing.T) {
	var buf bytes.Buffer
	r := NewProgressRenderer(&buf, "stream")

	r.Update(100, 0)
	r.Update(4096, 0)
	r.Update(8192, 8192)
	r.Abort()

	if buf.Len() == 0 {
		t.Error("expected spinner output")
	}
}

func TestProgressRendererWithoutUpdates(t *testing.T) {
	var buf bytes.Buffer
	r := NewProgressRenderer(&buf, "idle")
	r.Finish()
	r.Abort()
	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}
