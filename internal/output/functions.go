package output

import (
	"fmt"
	"strings"
	"time"

	splithttp "github.com/tanq16/splitdl/internal/downloaders/http"
	"github.com/tanq16/splitdl/internal/utils"
)

func PrintError(text string) {
	fmt.Println(errorStyle.Render(text))
}
func PrintInfo(text string) {
	fmt.Println(infoStyle.Render(text))
}
func PrintDetail(text string) {
	fmt.Println(detailStyle.Render(text))
}
func PrintHeader(text string) {
	fmt.Println(headerStyle.Render(text))
}
func FDetail(text string) string {
	return detailStyle.Render(text)
}

// StateIndicator returns the coloured symbol shown next to a session state.
func StateIndicator(state splithttp.State) string {
	switch state {
	case splithttp.StateDone:
		return successStyle.Render(StyleSymbols["pass"])
	case splithttp.StateFailed:
		return errorStyle.Render(StyleSymbols["fail"])
	case splithttp.StateProbing, splithttp.StateIdle:
		return pendingStyle.Render(StyleSymbols["pending"])
	case splithttp.StateFinalizing:
		return warningStyle.Render(StyleSymbols["bullet"])
	default:
		return infoStyle.Render(StyleSymbols["arrow"])
	}
}

// SizeLabel renders a remote size, or "unknown size" when it is not known.
func SizeLabel(size int64) string {
	if size <= 0 {
		return "unknown size"
	}
	return utils.FormatBytes(uint64(size))
}

// StrategyLine describes how a session is about to transfer its target.
func StrategyLine(session *splithttp.Session) string {
	if session.Strategy == splithttp.StrategySegmented {
		return fmt.Sprintf("%s, %d connections", SizeLabel(session.Target.TotalSize), session.Workers)
	}
	if session.Target.TotalSize > 0 && !session.Target.SupportsRange {
		return fmt.Sprintf("%s, single stream (no range support)", SizeLabel(session.Target.TotalSize))
	}
	return fmt.Sprintf("%s, single stream", SizeLabel(session.Target.TotalSize))
}

// SummaryLine is printed once a session has finished successfully.
func SummaryLine(session *splithttp.Session) string {
	elapsed := session.Elapsed()
	return fmt.Sprintf("%s %s %s %s",
		successStyle.Render(StyleSymbols["pass"]),
		successStyle.Render(fmt.Sprintf("Downloaded %s", session.Target.LocalPath)),
		StyleSymbols["arrow"],
		debugStyle.Render(fmt.Sprintf("%s in %s at %s",
			utils.FormatBytes(uint64(session.Received)),
			elapsed.Round(time.Millisecond),
			utils.FormatSpeed(session.Received, elapsed.Seconds()),
		)),
	)
}

// FailureLine is printed when a session could not complete.
func FailureLine(message string) string {
	return strings.Join([]string{errorStyle.Render(StyleSymbols["fail"]), errorStyle.Render(message)}, " ")
}
