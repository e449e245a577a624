// internal/adapters/rentapi/client.go
package rentapi

import (
	"bytes"
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"tenant_search/internal/adapters/observability"
	"tenant_search/internal/domain"
)

const (
	searchPath  = "/api/properties/search"
	reviewsPath = "/api/reviews/"

	maxBody = 8 << 20
)

type Options struct {
	Token       string        // sent as a Bearer token when set
	RPS         int           // client-side rate limit
	MaxInFlight int           // concurrent requests cap
	Attempts    int           // 1 = no retries
	Timeout     time.Duration // per request
}

type Client struct {
	base     string
	hc       *http.Client
	token    string
	rl       *rate.Limiter
	sem      *semaphore.Weighted
	attempts int
}

func New(base string, o Options) (*Client, error) {
	if base == "" {
		return nil, fmt.Errorf("rental API base URL is required")
	}
	if o.RPS <= 0 {
		o.RPS = 10
	}
	if o.MaxInFlight <= 0 {
		o.MaxInFlight = 8
	}
	if o.Attempts <= 0 {
		o.Attempts = 1
	}
	if o.Timeout <= 0 {
		o.Timeout = 20 * time.Second
	}
	return &Client{
		base:     strings.TrimRight(base, "/"),
		hc:       &http.Client{Timeout: o.Timeout},
		token:    o.Token,
		rl:       rate.NewLimiter(rate.Limit(o.RPS), o.RPS),
		sem:      semaphore.NewWeighted(int64(o.MaxInFlight)),
		attempts: o.Attempts,
	}, nil
}

// ---- Public API ----

func (c *Client) SearchProperties(ctx context.Context, q domain.SearchQuery) ([]map[string]any, error) {
	return c.get(ctx, "search", c.endpointURL(searchPath, q.Values()))
}

// ListReviews sends one reviewedItemId parameter per id.
func (c *Client) ListReviews(ctx context.Context, reviewType string, ids []int64) ([]map[string]any, error) {
	v := url.Values{}
	v.Set("reviewType", reviewType)
	for _, id := range ids {
		v.Add("reviewedItemId", strconv.FormatInt(id, 10))
	}
	return c.get(ctx, "reviews", c.endpointURL(reviewsPath, v))
}

// ---- Internals ----

func (c *Client) endpointURL(path string, v url.Values) string {
	u := c.base + path
	if enc := v.Encode(); enc != "" {
		u += "?" + enc
	}
	return u
}

// get performs a GET with rate limiting and an in-flight cap, and decodes a
// list of records. Retries on 429 and transient 5xx only when attempts > 1,
// honoring Retry-After when provided.
func (c *Client) get(ctx context.Context, endpoint, target string) ([]map[string]any, error) {
	start := time.Now()
	status := 0
	defer func() {
		observability.ObserveExternal("rentapi", endpoint, status, time.Since(start))
	}()

	if err := c.rl.Wait(ctx); err != nil {
		return nil, err
	}
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer c.sem.Release(1)

	last := c.attempts - 1
	var lastErr error
	for i := 0; i < c.attempts; i++ {
		// build a fresh request each attempt
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, err
		}
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "tenant-search/1.0")

		resp, err := c.hc.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			if i < last && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, lastErr
		}
		status = resp.StatusCode

		switch resp.StatusCode {
		case http.StatusOK:
			b, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
			resp.Body.Close()
			if err != nil {
				return nil, err
			}
			return decodeRecords(b)

		case http.StatusNoContent:
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			return nil, nil

		case http.StatusNotFound:
			resp.Body.Close()
			return nil, fmt.Errorf("%s: %w", endpoint, domain.ErrNotFound)

		case http.StatusUnauthorized, http.StatusForbidden:
			resp.Body.Close()
			return nil, fmt.Errorf("%s: %w", endpoint, domain.ErrUnauthorized)

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("%s: remote %d", endpoint, resp.StatusCode)
			if i < last && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, lastErr

		default:
			// read a small error body for diagnostics
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return nil, fmt.Errorf("%s: bad status %d: %s", endpoint, resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}
	return nil, lastErr
}

// decodeRecords accepts a bare JSON array or an object wrapping it in "data".
func decodeRecords(b []byte) ([]map[string]any, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil, nil
	}
	switch b[0] {
	case '[':
		var out []map[string]any
		if err := json.Unmarshal(b, &out); err != nil {
			return nil, fmt.Errorf("decode records: %w", err)
		}
		return out, nil
	case '{':
		var env struct {
			Data []map[string]any `json:"data"`
		}
		if err := json.Unmarshal(b, &env); err != nil {
			return nil, fmt.Errorf("decode records: %w", err)
		}
		return env.Data, nil
	}
	return nil, errors.New("decode records: body is neither an array nor an object")
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After header (seconds or HTTP-date). Returns 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff: 200ms, 400ms, 800ms... plus up to 50% jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	return base + time.Duration(0.5*f*float64(base))
}
