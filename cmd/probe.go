package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tanq16/splitdl/internal/config"
	splithttp "github.com/tanq16/splitdl/internal/downloaders/http"
	"github.com/tanq16/splitdl/internal/output"
	"github.com/tanq16/splitdl/internal/scheduler"
	"github.com/tanq16/splitdl/internal/utils"
)

func newProbeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "probe [URL]",
		Short: "Show the remote size and range support without downloading",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			cfg, err := loadConfig()
			if err != nil {
				output.PrintError(err.Error())
				os.Exit(1)
			}
			utils.InitLogger(cfg.Debug)
			url, err := config.ValidateURL(args[0])
			if err != nil {
				output.PrintError(scheduler.FailureMessage(err))
				os.Exit(1)
			}
			client := utils.NewHTTPClient(utils.HTTPClientConfig{
				Timeout:   cfg.Timeout,
				UserAgent: cfg.UserAgent,
			})
			target, err := splithttp.Probe(cmd.Context(), client, url)
			if err != nil {
				fmt.Println(output.FailureLine(scheduler.FailureMessage(err)))
				os.Exit(1)
			}
			output.PrintHeader(target.ResolvedURL)
			output.PrintDetail(fmt.Sprintf("  Size:          %s", output.SizeLabel(target.TotalSize)))
			output.PrintDetail(fmt.Sprintf("  Range support: %s", yesNo(target.SupportsRange)))
			output.PrintDetail(fmt.Sprintf("  Saves as:      %s", utils.FileNameFromURL(url)))
		},
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
