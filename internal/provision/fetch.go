package provision

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Fetcher downloads artifacts over HTTP with bounded retry
type Fetcher struct {
	client         *http.Client
	userAgent      string
	maxAttempts    int
	attemptTimeout time.Duration
	backoffBase    time.Duration
	backoffMax     time.Duration
	sleeper        Sleeper
	logger         *slog.Logger
}

// newFetcher builds a Fetcher from a defaulted Config.
func newFetcher(cfg Config) *Fetcher {
	return &Fetcher{
		client:         cfg.HTTPClient,
		userAgent:      cfg.UserAgent,
		maxAttempts:    cfg.MaxAttempts,
		attemptTimeout: cfg.AttemptTimeout,
		backoffBase:    cfg.BackoffBase,
		backoffMax:     cfg.BackoffMax,
		sleeper:        cfg.Sleeper,
		logger:         cfg.Logger,
	}
}

// Fetch GETs url and returns the full response body. Non-2xx responses and
// transport failures are retried until maxAttempts requests have been made.
// The returned attempts are in order, one per request.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, []Attempt, error) {
	var attempts []Attempt
	var lastErr *Error

	for attempt := 1; attempt <= f.maxAttempts; attempt++ {
		if attempt > 1 {
			wait := f.backoff(attempt - 1)
			f.logger.Debug("waiting before retry", "url", url, "attempt", attempt, "wait", wait)
			if err := f.sleeper.Sleep(ctx, wait); err != nil {
				lastErr = &Error{Kind: KindTransportError, Err: fmt.Errorf("fetch cancelled: %w", err)}
				break
			}
		}

		start := time.Now()
		data, status, err := f.fetchOnce(ctx, url)
		record := Attempt{
			Index:   attempt,
			Status:  status,
			Elapsed: time.Since(start),
			Bytes:   len(data),
		}
		if err != nil {
			record.Err = err
		}
		attempts = append(attempts, record)

		if err == nil {
			f.logger.Debug("fetched artifact", "url", url, "attempt", attempt, "bytes", len(data))
			return data, attempts, nil
		}

		lastErr = err
		if ctx.Err() != nil {
			break
		}
		if !err.Kind.Retryable() {
			break
		}
		if attempt < f.maxAttempts {
			f.logger.Warn("fetch attempt failed", "url", url, "attempt", attempt, "max_attempts", f.maxAttempts, "error", err)
		}
	}

	lastErr.Attempts = len(attempts)
	return nil, attempts, lastErr
}

// fetchOnce performs a single request bounded by attemptTimeout.
func (f *Fetcher) fetchOnce(ctx context.Context, url string) ([]byte, int, *Error) {
	ctx, cancel := context.WithTimeout(ctx, f.attemptTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, newError(KindTransportError, "create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, newError(KindTransportError, "execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused by the next attempt
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, resp.StatusCode, &Error{
			Kind:   KindBadStatus,
			Status: resp.StatusCode,
			Err:    fmt.Errorf("bad status of %d from %s", resp.StatusCode, url),
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, newError(KindTransportError, "read response body: %w", err)
	}

	return data, resp.StatusCode, nil
}

// backoff returns the wait before retry n (1-based): base, 2*base, 4*base...
// capped at backoffMax.
func (f *Fetcher) backoff(n int) time.Duration {
	wait := f.backoffBase
	for i := 1; i < n; i++ {
		wait *= 2
		if wait >= f.backoffMax {
			return f.backoffMax
		}
	}
	if wait > f.backoffMax {
		return f.backoffMax
	}
	return wait
}
