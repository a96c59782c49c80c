package splithttp

import (
	"context"
	"fmt"
	"os"

	"github.com/tanq16/splitdl/internal/progress"
	"github.com/tanq16/splitdl/internal/utils"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// performMultiDownload fetches every range concurrently into file, which must
// already be sized to the target. The first failure cancels the others.
func performMultiDownload(ctx context.Context, client *utils.HTTPClient, session *Session, file *os.File, agg *progress.Aggregator, limiter *rate.Limiter) error {
	log := utils.GetLogger("multi-download").With().Str("session", session.ID).Logger()
	session.Ranges = PlanRanges(session.Target.TotalSize, session.Workers)
	log.Debug().Int("segments", len(session.Ranges)).Int64("size", session.Target.TotalSize).Msg("Ranges planned")

	group, groupCtx := errgroup.WithContext(ctx)
	for i, rng := range session.Ranges {
		job := segmentJob{
			id:        i,
			url:       session.Target.URL,
			rng:       rng,
			totalSize: session.Target.TotalSize,
		}
		group.Go(func() error {
			if _, err := fetchSegment(groupCtx, client, job, file, agg, limiter); err != nil {
				return fmt.Errorf("segment %d (%s): %w", job.id, job.rng, err)
			}
			return nil
		})
	}
	return group.Wait()
}
