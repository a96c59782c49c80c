package splithttp

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/tanq16/splitdl/internal/utils"
)

// Probe issues a HEAD request for rawURL. The size is reported only when the
// server advertises "Accept-Ranges: bytes" and sends a Content-Length;
// otherwise TotalSize is 0 and SupportsRange is false. Transport failures and
// error statuses are returned as *utils.NetworkError.
func Probe(ctx context.Context, client *utils.HTTPClient, rawURL string) (Target, error) {
	log := utils.GetLogger("probe")
	target := Target{URL: rawURL, ResolvedURL: rawURL}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return target, &utils.NetworkError{Op: "probe", URL: rawURL, Err: err}
	}
	resp, err := client.Do(req)
	if err != nil {
		return target, &utils.NetworkError{Op: "probe", URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return target, &utils.NetworkError{Op: "probe", URL: rawURL, Err: fmt.Errorf("server returned %s", resp.Status)}
	}
	if resp.Request != nil && resp.Request.URL != nil {
		target.ResolvedURL = resp.Request.URL.String()
	}

	acceptRanges := strings.EqualFold(strings.TrimSpace(resp.Header.Get("Accept-Ranges")), "bytes")
	contentLength := strings.TrimSpace(resp.Header.Get("Content-Length"))
	if acceptRanges && contentLength != "" {
		size, err := strconv.ParseInt(contentLength, 10, 64)
		if err == nil && size > 0 {
			target.TotalSize = size
			target.SupportsRange = true
		} else {
			log.Debug().Str("contentLength", contentLength).Msg("Unusable Content-Length, size unknown")
		}
	}

	log.Debug().Str("url", target.ResolvedURL).Int64("size", target.TotalSize).Bool("rangeable", target.SupportsRange).Msg("Probe complete")
	return target, nil
}
