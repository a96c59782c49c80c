package scheduler

import (
	"context"
	"errors"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/tanq16/splitdl/internal/config"
	splithttp "github.com/tanq16/splitdl/internal/downloaders/http"
	"github.com/tanq16/splitdl/internal/utils"
)

// Job is one download request as the user typed it. Empty SaveDir and zero
// Workers fall back to the Config passed to Run.
type Job struct {
	URL     string
	SaveDir string
	Workers int
}

// Notifier receives session events. Every field is optional. Exactly one of
// OnSuccess and OnFailure is called per Run.
type Notifier struct {
	OnProgress func(received, total int64)
	OnState    func(state splithttp.State)
	OnSuccess  func(session *splithttp.Session)
	OnFailure  func(message string)
}

// Handle tracks a session started by Run.
type Handle struct {
	id     string
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

func (h *Handle) ID() string {
	return h.id
}

// Cancel stops the session. The failure is still reported through OnFailure.
func (h *Handle) Cancel() {
	h.cancel()
}

// Wait blocks until the terminal notification has been delivered and returns
// the session error, if any.
func (h *Handle) Wait() error {
	<-h.done
	return h.err
}

// Run validates job and, if it is acceptable, downloads it in the background.
// Validation failures are reported through OnFailure before Run returns and
// no request is sent.
func Run(ctx context.Context, cfg config.Config, job Job, cb Notifier) *Handle {
	log := utils.GetLogger("scheduler")
	sessionCtx, cancel := context.WithCancel(ctx)
	h := &Handle{
		id:     uuid.NewString(),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	var once sync.Once
	finish := func(session *splithttp.Session, err error) {
		once.Do(func() {
			h.err = err
			if err != nil {
				if cb.OnFailure != nil {
					cb.OnFailure(FailureMessage(err))
				}
			} else if cb.OnSuccess != nil {
				cb.OnSuccess(session)
			}
			cancel()
			close(h.done)
		})
	}

	req, err := buildRequest(cfg, job)
	if err != nil {
		log.Debug().Err(err).Str("url", job.URL).Msg("Job rejected")
		finish(nil, err)
		return h
	}
	req.SessionID = h.id
	log.Debug().Str("session", h.id).Str("url", req.URL).Str("output", req.LocalPath).Int("workers", req.Workers).Msg("Job accepted")

	client := utils.NewHTTPClient(utils.HTTPClientConfig{
		Timeout:        cfg.Timeout,
		UserAgent:      cfg.UserAgent,
		HighThreadMode: req.Workers >= utils.HardWorkerCap,
	})
	coordinator := splithttp.NewCoordinator(client, splithttp.Options{RateLimit: cfg.RateLimit})
	go func() {
		session, err := coordinator.Download(sessionCtx, req, splithttp.Callbacks{
			OnProgress: cb.OnProgress,
			OnState:    cb.OnState,
		})
		finish(session, err)
	}()
	return h
}

// buildRequest applies the job's overrides to cfg and validates the result.
func buildRequest(cfg config.Config, job Job) (splithttp.Request, error) {
	url, err := config.ValidateURL(job.URL)
	if err != nil {
		return splithttp.Request{}, err
	}
	effective := cfg.Merge(config.Config{SaveDir: job.SaveDir, Workers: job.Workers})
	if err := effective.Validate(); err != nil {
		return splithttp.Request{}, err
	}
	saveDir, err := config.ResolveSaveDir(effective.SaveDir)
	if err != nil {
		return splithttp.Request{}, err
	}
	return splithttp.Request{
		URL:       url,
		LocalPath: filepath.Join(saveDir, utils.FileNameFromURL(url)),
		Workers:   effective.Workers,
	}, nil
}

// FailureMessage turns a session error into the line shown to the user.
func FailureMessage(err error) string {
	var validationErr *utils.ValidationError
	var networkErr *utils.NetworkError
	var ioErr *utils.IOError
	switch {
	case errors.Is(err, context.Canceled):
		return "download cancelled"
	case errors.Is(err, context.DeadlineExceeded):
		return "download timed out"
	case errors.As(err, &validationErr):
		return "validation failed: " + validationErr.Error()
	case errors.As(err, &networkErr):
		return "download failed: " + networkErr.Error()
	case errors.As(err, &ioErr):
		return "could not write file: " + ioErr.Error()
	default:
		return err.Error()
	}
}
