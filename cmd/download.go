package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/tanq16/splitdl/internal/config"
	splithttp "github.com/tanq16/splitdl/internal/downloaders/http"
	"github.com/tanq16/splitdl/internal/output"
	"github.com/tanq16/splitdl/internal/scheduler"
	"github.com/tanq16/splitdl/internal/utils"
)

// runDownload blocks until the session ends and reports whether it succeeded.
// An interrupt cancels the session; the partial file is left in place.
func runDownload(ctx context.Context, cfg config.Config, url string) bool {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	log := utils.GetLogger("cli")

	renderer := output.NewProgressRenderer(os.Stderr, utils.FileNameFromURL(url))
	handle := scheduler.Run(ctx, cfg, scheduler.Job{URL: url}, scheduler.Notifier{
		OnProgress: renderer.Update,
		OnState: func(state splithttp.State) {
			log.Debug().Str("state", state.String()).Msg("Session state")
		},
		OnSuccess: func(session *splithttp.Session) {
			renderer.Finish()
			output.PrintInfo(fmt.Sprintf("%s %s", output.StateIndicator(session.State), output.StrategyLine(session)))
			fmt.Println(output.SummaryLine(session))
		},
		OnFailure: func(message string) {
			renderer.Abort()
			fmt.Println(output.FailureLine(message))
		},
	})
	log.Debug().Str("session", handle.ID()).Msg("Session started")
	return handle.Wait() == nil
}
