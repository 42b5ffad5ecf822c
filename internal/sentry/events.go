package sentry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"tagaudit/internal/event"
)

const (
	// maxAttempts is the total request budget for one ListEvents call.
	maxAttempts = 3
	// backoffBase feeds the exponential backoff: base^attempt seconds after
	// failed attempt n, so 2s then 4s. No wait follows the final attempt.
	backoffBase = 2

	userAgent = "tagaudit"
)

// ListEvents fetches up to limit recent events for one environment.
//
// Transport errors and non-2xx responses, rate limiting included, are retried
// up to maxAttempts with exponential backoff; exhausting the budget returns a
// *FetchError carrying the last status. A 2xx response that cannot be parsed
// returns a *DecodeError immediately. The call never returns partial results.
func (c *Client) ListEvents(ctx context.Context, environment string, limit int) ([]event.Event, error) {
	if environment == "" {
		return nil, errors.New("sentry: environment is required")
	}
	if limit < 1 {
		return nil, fmt.Errorf("sentry: limit must be >= 1, got %d", limit)
	}

	endpoint := c.eventsURL(environment, limit)

	var lastStatus int
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		events, status, err := c.fetchEvents(ctx, endpoint)

		var decodeErr *DecodeError
		switch {
		case err == nil:
			if attempt > 1 {
				c.log.Debug().Int("attempt", attempt).Msg("event fetch recovered")
			}
			return events, nil
		case errors.As(err, &decodeErr):
			return nil, err
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return nil, err
		}

		lastStatus, lastErr = status, err
		if status > 0 {
			// HTTP completed; the transport error is the response status.
			lastErr = nil
		}

		if attempt == maxAttempts {
			break
		}

		delay := backoffDelay(attempt)
		c.log.Warn().
			Int("attempt", attempt).
			Int("status", status).
			Dur("backoff", delay).
			Msg("event fetch failed, backing off")
		if err := c.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}

	return nil, &FetchError{Attempts: maxAttempts, Status: lastStatus, Err: lastErr}
}

// fetchEvents performs one request. The returned status is 0 when the request
// never completed at the HTTP layer.
func (c *Client) fetchEvents(ctx context.Context, endpoint string) ([]event.Event, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a bounded amount so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, resp.StatusCode, fmt.Errorf("backend returned status %d", resp.StatusCode)
	}

	var events []event.Event
	if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
		return nil, resp.StatusCode, &DecodeError{Err: err}
	}
	return events, resp.StatusCode, nil
}

func (c *Client) eventsURL(environment string, limit int) string {
	u := *c.baseURL
	u.Path = strings.TrimSuffix(u.Path, "/") + fmt.Sprintf(
		"/api/0/projects/%s/%s/events/",
		url.PathEscape(c.org), url.PathEscape(c.project),
	)

	q := url.Values{}
	q.Set("environment", environment)
	q.Set("per_page", strconv.Itoa(limit))
	u.RawQuery = q.Encode()

	return u.String()
}

// backoffDelay returns the wait after failed attempt n: backoffBase^n seconds.
func backoffDelay(attempt int) time.Duration {
	return time.Duration(math.Pow(backoffBase, float64(attempt))) * time.Second
}
