package output

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"
)

// ProgressRenderer draws a byte progress bar for one session. It switches to a
// spinner with a byte counter while the total size is unknown.
type ProgressRenderer struct {
	mu    sync.Mutex
	out   io.Writer
	label string
	bar   *progressbar.ProgressBar
	total int64
}

func NewProgressRenderer(out io.Writer, label string) *ProgressRenderer {
	return &ProgressRenderer{out: out, label: label}
}

// Update is safe to use as a progress callback.
func (r *ProgressRenderer) Update(received, total int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.bar == nil {
		r.total = total
		r.bar = r.newBar(total)
	} else if total > 0 && total != r.total {
		r.total = total
		r.bar.ChangeMax64(total)
	}
	_ = r.bar.Set64(received)
}

// Finish completes the bar, if one was drawn, and moves to a fresh line.
func (r *ProgressRenderer) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.bar == nil {
		return
	}
	_ = r.bar.Finish()
	fmt.Fprintln(r.out)
	r.bar = nil
}

// Abort leaves the bar where it stopped and moves to a fresh line.
func (r *ProgressRenderer) Abort() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.bar == nil {
		return
	}
	_ = r.bar.Exit()
	fmt.Fprintln(r.out)
	r.bar = nil
}

func (r *ProgressRenderer) newBar(total int64) *progressbar.ProgressBar {
	limit := int64(-1)
	if total > 0 {
		limit = total
	}
	return progressbar.NewOptions64(limit,
		progressbar.OptionSetWriter(r.out),
		progressbar.OptionSetDescription(FDetail(r.label)),
		progressbar.OptionShowBytes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(barWidth(r.out)),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        StyleSymbols["bullet"],
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

func barWidth(out io.Writer) int {
	f, ok := out.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 30
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return 30
	}
	return max(10, min(50, width/3))
}
