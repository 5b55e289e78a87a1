package pricing

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/medaid/platform/pkg/logger"
	"github.com/medaid/platform/pkg/monitoring"
	"github.com/medaid/platform/pkg/types"
)

// Fetcher obtains a live streaming response from the external price
// aggregation service, retrying transient connection failures with
// exponential backoff. It holds no state between calls.
type Fetcher struct {
	client         *http.Client
	baseURL        string
	maxAttempts    int
	attemptTimeout time.Duration
	backoffBase    time.Duration
	logger         *logger.Logger
}

// NewFetcher creates a new upstream fetcher
func NewFetcher(baseURL string, maxAttempts int, attemptTimeout, backoffBase time.Duration, log *logger.Logger) *Fetcher {
	return &Fetcher{
		// No Client.Timeout here: it would also bound the streaming body
		// read, which is the relay watchdog's job.
		client:         &http.Client{},
		baseURL:        baseURL,
		maxAttempts:    maxAttempts,
		attemptTimeout: attemptTimeout,
		backoffBase:    backoffBase,
		logger:         log,
	}
}

// buildURL constructs the aggregator URL from the caller-supplied query
func (f *Fetcher) buildURL(query types.PriceQuery) string {
	params := url.Values{}
	params.Set("name", query.Medicine)
	params.Set("pack", query.Pack)
	params.Set("pin", query.Pin)
	return f.baseURL + "?" + params.Encode()
}

// Fetch connects to the aggregator and returns the response with its body
// unread, plus a cancel function the caller must invoke once it is done with
// the body. The per-attempt timeout covers connection establishment and
// response headers only; once streaming starts the relay's idle watchdog
// takes over.
//
// On failure each attempt i is followed by a backoffBase*2^i delay before the
// next one. After maxAttempts failures the last error is surfaced as a
// gateway-unavailable error.
func (f *Fetcher) Fetch(ctx context.Context, sessionID string, query types.PriceQuery) (*http.Response, context.CancelFunc, error) {
	target := f.buildURL(query)

	var lastErr error
	for attempt := 0; attempt < f.maxAttempts; attempt++ {
		resp, cancel, err := f.attempt(ctx, target)
		if err == nil {
			f.logger.UpstreamAttempt(sessionID, attempt, true, nil)
			monitoring.RecordUpstreamAttempt("success")
			return resp, cancel, nil
		}

		lastErr = err
		f.logger.UpstreamAttempt(sessionID, attempt, false, err)
		monitoring.RecordUpstreamAttempt("failure")

		if attempt == f.maxAttempts-1 {
			break
		}

		delay := f.backoffBase << uint(attempt)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		}
	}

	return nil, nil, types.NewUpstreamError("GATEWAY_UNAVAILABLE",
		fmt.Sprintf("gateway unavailable: %v", lastErr), lastErr)
}

// attempt makes a single connection attempt. The attempt context is cancelled
// by a timer if headers do not arrive within attemptTimeout; the timer is
// stopped on success so the returned body is not bounded by it.
func (f *Fetcher) attempt(ctx context.Context, target string) (*http.Response, context.CancelFunc, error) {
	attemptCtx, cancel := context.WithCancel(ctx)
	timer := time.AfterFunc(f.attemptTimeout, cancel)

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, target, nil)
	if err != nil {
		timer.Stop()
		cancel()
		return nil, nil, fmt.Errorf("failed to build upstream request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := f.client.Do(req)
	if err != nil {
		timer.Stop()
		cancel()
		return nil, nil, fmt.Errorf("upstream connection failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		timer.Stop()
		cancel()
		return nil, nil, fmt.Errorf("upstream returned status %d", resp.StatusCode)
	}

	timer.Stop()
	return resp, cancel, nil
}
