package splithttp

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/tanq16/splitdl/internal/progress"
	"github.com/tanq16/splitdl/internal/utils"
	"golang.org/x/time/rate"
)

type Options struct {
	// RateLimit caps the combined transfer rate in bytes per second. 0 disables it.
	RateLimit int64

	// ProgressInterval is how often OnProgress is polled. Default: 100ms.
	ProgressInterval time.Duration
}

// Coordinator runs downloads: probe, choose a strategy, transfer, close.
type Coordinator struct {
	client *utils.HTTPClient
	opts   Options
}

func NewCoordinator(client *utils.HTTPClient, opts Options) *Coordinator {
	if opts.ProgressInterval <= 0 {
		opts.ProgressInterval = 100 * time.Millisecond
	}
	return &Coordinator{client: client, opts: opts}
}

// Download blocks until the transfer is finished or has failed. The returned
// Session is never nil; on failure its State is StateFailed and the error is
// a *utils.NetworkError, *utils.IOError or a context error.
func (c *Coordinator) Download(ctx context.Context, req Request, cb Callbacks) (*Session, error) {
	session := &Session{
		ID:      req.SessionID,
		Workers: max(req.Workers, 1),
		State:   StateIdle,
		Started: time.Now(),
	}
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	log := utils.GetLogger("coordinator").With().Str("session", session.ID).Logger()
	setState := func(state State) {
		session.State = state
		log.Debug().Str("state", state.String()).Msg("State change")
		if cb.OnState != nil {
			cb.OnState(state)
		}
	}
	fail := func(err error) (*Session, error) {
		session.Finished = time.Now()
		setState(StateFailed)
		log.Error().Err(err).Msg("Download failed")
		return session, err
	}

	setState(StateProbing)
	target, err := Probe(ctx, c.client, req.URL)
	if err != nil {
		return fail(err)
	}
	target.LocalPath = req.LocalPath
	session.Target = target

	agg := progress.NewAggregator(target.TotalSize)
	watchCtx, stopWatch := context.WithCancel(context.Background())
	watchDone := make(chan struct{})
	go func() {
		defer close(watchDone)
		progress.Watch(watchCtx, agg, c.opts.ProgressInterval, cb.OnProgress)
	}()
	stopProgress := func() {
		stopWatch()
		<-watchDone
		session.Received, _ = agg.Snapshot()
	}

	var limiter *rate.Limiter
	if c.opts.RateLimit > 0 {
		burst := max(c.opts.RateLimit, int64(utils.DefaultBufferSize))
		limiter = rate.NewLimiter(rate.Limit(c.opts.RateLimit), int(burst))
	}

	segmented := target.TotalSize > 0 && target.SupportsRange && session.Workers > 1
	var preSize int64
	if segmented {
		session.Strategy = StrategySegmented
		preSize = target.TotalSize
		setState(StateSegmented)
	} else {
		session.Strategy = StrategySingleStream
		setState(StateSingleStream)
	}
	log.Debug().Str("strategy", string(session.Strategy)).Int("workers", session.Workers).Str("output", target.LocalPath).Msg("Strategy selected")

	file, err := createOutputFile(target.LocalPath, preSize)
	if err != nil {
		stopProgress()
		return fail(err)
	}

	var runErr error
	if segmented {
		runErr = performMultiDownload(ctx, c.client, session, file, agg, limiter)
	} else {
		_, runErr = performSimpleDownload(ctx, c.client, target.URL, target.TotalSize, file, agg, limiter)
	}

	setState(StateFinalizing)
	if closeErr := file.Close(); closeErr != nil && runErr == nil {
		runErr = &utils.IOError{Op: "close", Path: target.LocalPath, Err: closeErr}
	}
	stopProgress()
	if runErr != nil {
		return fail(runErr)
	}

	session.Finished = time.Now()
	setState(StateDone)
	log.Debug().Int64("bytes", session.Received).Dur("elapsed", session.Elapsed()).Msg("Download complete")
	return session, nil
}

// createOutputFile replaces any existing file at path and, when size > 0,
// extends it to size so segments can be written at their offsets.
func createOutputFile(path string, size int64) (*os.File, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, &utils.IOError{Op: "create", Path: path, Err: err}
	}
	if size > 0 {
		if err := file.Truncate(size); err != nil {
			file.Close()
			return nil, &utils.IOError{Op: "resize", Path: path, Err: err}
		}
	}
	return file, nil
}
