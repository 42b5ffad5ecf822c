package sentry

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

const defaultBaseURL = "https://sentry.io"

// DefaultTimeout bounds a single events request. Retries each get their own
// timeout; the caller's context bounds the run overall.
const DefaultTimeout = 30 * time.Second

// Client talks to a Sentry-compatible backend for one organization/project
// pair. Construct it with NewClient.
type Client struct {
	http    *http.Client
	baseURL *url.URL
	org     string
	project string
	log     zerolog.Logger

	// sleep waits between fetch attempts; tests swap it out so retry paths
	// run without real delays.
	sleep func(ctx context.Context, d time.Duration) error
}

type options struct {
	baseURL string
	timeout time.Duration
	verbose bool
	writer  io.Writer
	log     *zerolog.Logger
}

// Option customizes the client created by NewClient.
type Option func(*options)

// WithBaseURL points the client at a self-hosted backend instead of
// https://sentry.io.
func WithBaseURL(raw string) Option {
	return func(o *options) { o.baseURL = raw }
}

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithVerbose enables one log line per API request and response. A nil writer
// defaults to stderr so machine-readable output on stdout stays clean.
func WithVerbose(enabled bool, writer io.Writer) Option {
	return func(o *options) {
		o.verbose = enabled
		o.writer = writer
	}
}

// WithLogger attaches a structured logger for retry and fetch diagnostics.
func WithLogger(log zerolog.Logger) Option {
	return func(o *options) { o.log = &log }
}

// loggingRoundTripper emits one line per request and response, with latency,
// when verbose logging is enabled. It logs method, URL, and status only,
// never headers, so the bearer token cannot leak into logs.
type loggingRoundTripper struct {
	base http.RoundTripper
	w    io.Writer
}

func (t *loggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	if t.w != nil {
		_, _ = fmt.Fprintf(t.w, "[verbose] sentry api: %s %s\n", req.Method, req.URL.String())
	}

	resp, err := t.base.RoundTrip(req)

	elapsed := time.Since(start).Truncate(time.Millisecond)
	if t.w != nil {
		if err != nil {
			_, _ = fmt.Fprintf(t.w, "[verbose] sentry api: transport error after %s: %v\n", elapsed, err)
		} else {
			_, _ = fmt.Fprintf(t.w, "[verbose] sentry api: %d %s (%s)\n", resp.StatusCode, http.StatusText(resp.StatusCode), elapsed)
		}
	}
	return resp, err
}

// NewClient builds a backend client. token may be empty for unauthenticated
// backends; org and project are the slugs that scope every request.
func NewClient(ctx context.Context, token, org, project string, opts ...Option) (*Client, error) {
	if ctx == nil {
		return nil, fmt.Errorf("sentry client: ctx is nil")
	}
	if org == "" || project == "" {
		return nil, fmt.Errorf("sentry client: org and project are required")
	}

	o := &options{timeout: DefaultTimeout}
	for _, apply := range opts {
		if apply != nil {
			apply(o)
		}
	}
	if o.baseURL == "" {
		o.baseURL = defaultBaseURL
	}
	if o.verbose && o.writer == nil {
		o.writer = os.Stderr
	}

	base, err := url.Parse(o.baseURL)
	if err != nil {
		return nil, fmt.Errorf("sentry client: invalid base URL %q: %w", o.baseURL, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("sentry client: unsupported base URL scheme %q", base.Scheme)
	}

	transport := http.DefaultTransport
	if o.verbose {
		transport = &loggingRoundTripper{base: transport, w: o.writer}
	}
	if token != "" {
		src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		transport = &oauth2.Transport{Source: src, Base: transport}
	}

	log := zerolog.Nop()
	if o.log != nil {
		log = *o.log
	}

	return &Client{
		http:    &http.Client{Transport: transport, Timeout: o.timeout},
		baseURL: base,
		org:     org,
		project: project,
		log:     log,
		sleep:   sleepContext,
	}, nil
}

// sleepContext waits for d or until ctx is done, whichever comes first.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
