package splithttp

import (
	"fmt"
	"time"
)

// ByteRange is an inclusive byte interval of the remote resource.
type ByteRange struct {
	Start int64
	End   int64
}

func (r ByteRange) Len() int64 {
	return r.End - r.Start + 1
}

// Clamp caps End at the last valid index of a resource of totalSize bytes.
func (r ByteRange) Clamp(totalSize int64) ByteRange {
	if r.End > totalSize-1 {
		r.End = totalSize - 1
	}
	return r
}

func (r ByteRange) String() string {
	return fmt.Sprintf("%d-%d", r.Start, r.End)
}

// Target describes the remote resource and where it is written.
// TotalSize is 0 when the size is unknown.
type Target struct {
	URL           string
	ResolvedURL   string
	LocalPath     string
	TotalSize     int64
	SupportsRange bool
}

type Request struct {
	SessionID string // optional; generated when empty
	URL       string
	LocalPath string
	Workers   int
}

// Callbacks are optional. OnProgress runs on a dedicated goroutine and
// OnState on the goroutine calling Download.
type Callbacks struct {
	OnProgress func(received, total int64)
	OnState    func(State)
}

type State int

const (
	StateIdle State = iota
	StateProbing
	StateSingleStream
	StateSegmented
	StateFinalizing
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateProbing:
		return "probing"
	case StateSingleStream:
		return "single-stream"
	case StateSegmented:
		return "segmented"
	case StateFinalizing:
		return "finalizing"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

type Strategy string

const (
	StrategyNone         Strategy = ""
	StrategySingleStream Strategy = "single-stream"
	StrategySegmented    Strategy = "segmented"
)

// Session is the record of one Download call.
type Session struct {
	ID       string
	Target   Target
	Ranges   []ByteRange
	Workers  int
	Strategy Strategy
	State    State
	Received int64
	Started  time.Time
	Finished time.Time
}

func (s *Session) Elapsed() time.Duration {
	if s.Finished.IsZero() {
		return time.Since(s.Started)
	}
	return s.Finished.Sub(s.Started)
}
