package splithttp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/tanq16/splitdl/internal/progress"
	"github.com/tanq16/splitdl/internal/utils"
	"golang.org/x/time/rate"
)

// performSimpleDownload streams the whole body of url into file sequentially.
// expectedSize is the probed size, 0 when unknown; a body of any other length
// is rejected even when the response carries no Content-Length.
func performSimpleDownload(ctx context.Context, client *utils.HTTPClient, url string, expectedSize int64, file *os.File, agg *progress.Aggregator, limiter *rate.Limiter) (int64, error) {
	log := utils.GetLogger("simple-download")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, &utils.NetworkError{Op: "download", URL: url, Err: err}
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, &utils.NetworkError{Op: "download", URL: url, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, &utils.NetworkError{Op: "download", URL: url, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}
	if _, total := agg.Snapshot(); total <= 0 && resp.ContentLength > 0 {
		agg.SetTotal(resp.ContentLength)
		log.Debug().Int64("size", resp.ContentLength).Msg("Size learned from response")
	}

	var written int64
	buffer := make([]byte, utils.DefaultBufferSize)
	for {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		bytesRead, readErr := resp.Body.Read(buffer)
		if bytesRead > 0 {
			if limiter != nil {
				if err := limiter.WaitN(ctx, bytesRead); err != nil {
					return written, err
				}
			}
			if _, writeErr := file.Write(buffer[:bytesRead]); writeErr != nil {
				return written, &utils.IOError{Op: "write", Path: file.Name(), Err: writeErr}
			}
			written += int64(bytesRead)
			agg.Add(int64(bytesRead))
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				break
			}
			if ctx.Err() != nil {
				return written, ctx.Err()
			}
			return written, &utils.NetworkError{Op: "download", URL: url, Err: readErr}
		}
	}
	want := resp.ContentLength
	if want <= 0 {
		want = expectedSize
	}
	if want > 0 && written != want {
		return written, &utils.NetworkError{Op: "download", URL: url, Err: fmt.Errorf("size mismatch: expected %d bytes, got %d", want, written)}
	}
	log.Debug().Int64("bytes", written).Msg("Simple download complete")
	return written, nil
}
