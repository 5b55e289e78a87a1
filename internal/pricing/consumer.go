package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/tidwall/gjson"

	"github.com/medaid/platform/pkg/logger"
	"github.com/medaid/platform/pkg/monitoring"
	"github.com/medaid/platform/pkg/types"
)

// Consumer reads the relayed price stream and turns it into a deduplicated
// quote list. It enforces its own idle-read timeout independently of the
// relay's watchdog.
type Consumer struct {
	client      *http.Client
	baseURL     string
	idleTimeout time.Duration
	logger      *logger.Logger
}

// NewConsumer creates a consumer for the price service at baseURL
func NewConsumer(baseURL string, idleTimeout time.Duration, log *logger.Logger) *Consumer {
	return &Consumer{
		client:      &http.Client{},
		baseURL:     baseURL,
		idleTimeout: idleTimeout,
		logger:      log,
	}
}

// Fetch runs one price query to completion and returns the accumulated
// quotes. On any error the partial accumulation is discarded and a single
// error is returned, preferring a server-supplied message. Cancelling ctx
// cancels the underlying reader; no further chunks are processed.
func (c *Consumer) Fetch(ctx context.Context, query types.PriceQuery) ([]types.PriceQuote, error) {
	params := url.Values{}
	params.Set("name", query.Medicine)
	params.Set("pack", query.Pack)
	params.Set("pin", query.Pin)

	readCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// The watchdog cancels the reader if too long passes between successful
	// reads; timedOut distinguishes that from a caller-initiated cancel.
	var timedOut atomic.Bool
	watchdog := time.AfterFunc(c.idleTimeout, func() {
		timedOut.Store(true)
		cancel()
	})
	defer watchdog.Stop()

	req, err := http.NewRequestWithContext(readCtx, http.MethodGet, c.baseURL+"/price-details?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if timedOut.Load() {
			return nil, types.NewTimeoutError("RESPONSE_TIMEOUT", "response timeout")
		}
		return nil, fmt.Errorf("price request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.errorFromBody(resp)
	}

	dec := &streamDecoder{}
	seen := make(map[string]struct{})
	var quotes []types.PriceQuote
	var partial string

	consume := func(line string) {
		quote, ok := c.parseLine(line)
		if !ok {
			return
		}
		if _, dup := seen[quote.Link]; dup {
			return
		}
		seen[quote.Link] = struct{}{}
		quotes = append(quotes, quote)
	}

	buf := make([]byte, 4096)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			watchdog.Reset(c.idleTimeout)

			text := partial + dec.Decode(buf[:n])
			lines := strings.Split(text, "\n")
			partial = lines[len(lines)-1]
			for _, line := range lines[:len(lines)-1] {
				consume(line)
			}
		}

		if readErr == io.EOF {
			if tail := partial + dec.Flush(); tail != "" {
				consume(tail)
			}
			return quotes, nil
		}
		if readErr != nil {
			if timedOut.Load() {
				return nil, types.NewTimeoutError("RESPONSE_TIMEOUT", "response timeout")
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("stream read failed: %w", readErr)
		}
	}
}

// parseLine extracts one quote from a data: line. Lines without the prefix
// are ignored; unparseable payloads are logged and dropped, never fatal.
func (c *Consumer) parseLine(line string) (types.PriceQuote, bool) {
	line = strings.TrimSuffix(line, "\r")
	if !strings.HasPrefix(line, "data:") {
		return types.PriceQuote{}, false
	}

	payload := strings.TrimSpace(line[len("data:"):])
	if payload == "" {
		return types.PriceQuote{}, false
	}

	var quote types.PriceQuote
	if err := json.Unmarshal([]byte(payload), &quote); err != nil {
		c.logger.MalformedLine("", payload, err)
		monitoring.RecordMalformedLine()
		return types.PriceQuote{}, false
	}
	return quote, true
}

// errorFromBody builds the user-visible error for a non-200 response,
// preferring the server-supplied error field.
func (c *Consumer) errorFromBody(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if msg := gjson.GetBytes(body, "error").String(); msg != "" {
		return types.NewUpstreamError("PRICE_FETCH_FAILED", msg, nil)
	}
	return types.NewUpstreamError("PRICE_FETCH_FAILED",
		fmt.Sprintf("price lookup failed with status %d", resp.StatusCode), nil)
}
