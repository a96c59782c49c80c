package splithttp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/tanq16/splitdl/internal/progress"
	"github.com/tanq16/splitdl/internal/utils"
	"golang.org/x/time/rate"
)

// segmentFile is the slice of *os.File a segment worker is allowed to use.
type segmentFile interface {
	io.WriterAt
	Name() string
}

type segmentJob struct {
	id        int
	url       string
	rng       ByteRange
	totalSize int64
}

// fetchSegment downloads one range and writes it at its own offsets in file.
// It returns the number of bytes written for the range.
func fetchSegment(ctx context.Context, client *utils.HTTPClient, job segmentJob, file segmentFile, agg *progress.Aggregator, limiter *rate.Limiter) (int64, error) {
	log := utils.GetLogger("segment").With().Int("segment", job.id).Logger()
	wire := job.rng.Clamp(job.totalSize)
	rangeHeader := fmt.Sprintf("bytes=%d-%d", wire.Start, wire.End)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, job.url, nil)
	if err != nil {
		return 0, &utils.NetworkError{Op: "segment request", URL: job.url, Err: err}
	}
	req.Header.Set("Range", rangeHeader)
	log.Debug().Str("range", rangeHeader).Msg("Sending range request")
	resp, err := client.Do(req)
	if err != nil {
		return 0, &utils.NetworkError{Op: "segment request", URL: job.url, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusPartialContent {
		return 0, &utils.NetworkError{Op: "segment request", URL: job.url, Err: fmt.Errorf("unexpected status %s for %s", resp.Status, rangeHeader)}
	}

	limit := wire.End + 1
	cursor := wire.Start
	buffer := make([]byte, utils.DefaultBufferSize)
	for {
		if err := ctx.Err(); err != nil {
			return cursor - wire.Start, err
		}
		bytesRead, readErr := resp.Body.Read(buffer)
		if bytesRead > 0 {
			if cursor+int64(bytesRead) > limit {
				return cursor - wire.Start, &utils.NetworkError{Op: "segment read", URL: job.url, Err: fmt.Errorf("server sent more than %s", rangeHeader)}
			}
			if limiter != nil {
				if err := limiter.WaitN(ctx, bytesRead); err != nil {
					return cursor - wire.Start, err
				}
			}
			if _, writeErr := file.WriteAt(buffer[:bytesRead], cursor); writeErr != nil {
				return cursor - wire.Start, &utils.IOError{Op: "write", Path: file.Name(), Err: writeErr}
			}
			cursor += int64(bytesRead)
			agg.Add(int64(bytesRead))
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				break
			}
			if ctx.Err() != nil {
				return cursor - wire.Start, ctx.Err()
			}
			return cursor - wire.Start, &utils.NetworkError{Op: "segment read", URL: job.url, Err: readErr}
		}
	}

	written := cursor - wire.Start
	if written != wire.Len() {
		return written, &utils.NetworkError{Op: "segment read", URL: job.url, Err: fmt.Errorf("size mismatch: expected %d bytes for %s, got %d", wire.Len(), rangeHeader, written)}
	}
	log.Debug().Int64("bytes", written).Msg("Segment complete")
	return written, nil
}
