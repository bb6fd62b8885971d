package fetcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"strings"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

var tracer = otel.Tracer("github.com/comtw/admscrape/internal/fetcher")

// challengeMarkers are body fragments only present on Cloudflare interstitials.
var challengeMarkers = [][]byte{
	[]byte("challenge-platform"),
	[]byte("cf-chl"),
	[]byte("Just a moment..."),
}

// Options configures a Fetcher.
type Options struct {
	// UserAgent is sent until the solver hands out a different one.
	UserAgent string
	// Timeout bounds one direct request.
	Timeout time.Duration
	// Retry is the number of attempts per Fetch.
	Retry int
	// RetryDelay is the pause between attempts.
	RetryDelay time.Duration
	// Headers are sent with every direct request.
	Headers map[string]string
	// Cookies seed the session before any challenge is solved.
	Cookies []*http.Cookie
	// RateLimit caps direct requests per second. Zero means unlimited.
	RateLimit float64
}

// Option customises a Fetcher.
type Option func(*Fetcher)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithSolver sets the challenge solver. Without one, challenges fail the attempt.
func WithSolver(solver *Solver) Option {
	return func(f *Fetcher) {
		f.solver = solver
	}
}

// Fetcher retrieves pages, falling back to the solver on challenges.
// It is safe for concurrent use.
type Fetcher struct {
	opts    Options
	client  *resty.Client
	solver  *Solver
	session *session
	limiter *rate.Limiter
	logger  *slog.Logger
}

// New creates a Fetcher.
func New(opts Options, options ...Option) *Fetcher {
	if opts.Retry < 1 {
		opts.Retry = 1
	}
	opts.Headers = maps.Clone(opts.Headers)

	f := &Fetcher{
		opts:    opts,
		session: newSession(opts.UserAgent, opts.Cookies),
		logger:  slog.Default(),
	}
	if opts.RateLimit > 0 {
		f.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}
	for _, o := range options {
		o(f)
	}
	f.logger = f.logger.With("component", "fetcher")

	client := resty.New().
		SetTimeout(opts.Timeout).
		SetLogger(restyLogger{logger: f.logger}).
		SetHeaders(opts.Headers)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	f.client = client

	return f
}

// Session returns a copy of the current cookies and user agent.
func (f *Fetcher) Session() Session {
	return f.session.snapshot()
}

// Fetch returns the markup of pageURL. After Retry failed attempts it
// returns an error wrapping ErrRetriesExhausted and the last failure.
// Client errors other than challenges are returned without retrying.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	ctx, span := tracer.Start(ctx, "fetcher.fetch", trace.WithAttributes(attribute.String("url", pageURL)))
	defer span.End()

	var lastErr error
	for attempt := 1; attempt <= f.opts.Retry; attempt++ {
		body, err := f.attempt(ctx, pageURL)
		if err == nil {
			span.SetAttributes(attribute.Int("attempts", attempt))
			return body, nil
		}
		lastErr = err

		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", f.fail(span, ctxErr)
		}
		if !retryable(err) {
			return "", f.fail(span, err)
		}

		f.logger.Warn("fetch attempt failed",
			"url", pageURL,
			"attempt", attempt,
			"max_attempts", f.opts.Retry,
			"error", err,
		)
		if attempt == f.opts.Retry {
			break
		}
		if err := sleep(ctx, f.opts.RetryDelay); err != nil {
			return "", f.fail(span, err)
		}
	}

	return "", f.fail(span, fmt.Errorf("%w after %d attempts for %s: %w", ErrRetriesExhausted, f.opts.Retry, pageURL, lastErr))
}

func (f *Fetcher) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// attempt runs one direct request and, on a challenge, one solver call.
func (f *Fetcher) attempt(ctx context.Context, pageURL string) (string, error) {
	body, err := f.direct(ctx, pageURL)

	var challenge *ChallengeError
	if !errors.As(err, &challenge) {
		return body, err
	}
	if f.solver == nil {
		return "", fmt.Errorf("%w: %w", ErrNoSolver, err)
	}

	f.logger.Info("challenge detected, solving", "url", pageURL, "status", challenge.StatusCode)
	solution, err := f.solver.Solve(ctx, pageURL)
	if err != nil {
		return "", err
	}

	f.session.adopt(solution.Cookies, solution.UserAgent)
	f.logger.Info("session updated from solver",
		"url", pageURL,
		"cookies_adopted", len(solution.Cookies),
		"user_agent", f.session.snapshot().UserAgent,
	)
	return solution.Response, nil
}

// direct issues one GET with the current session.
func (f *Fetcher) direct(ctx context.Context, pageURL string) (string, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}
	current := f.session.snapshot()

	req := f.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		SetCookies(current.Cookies)
	if current.UserAgent != "" {
		req.SetHeader("User-Agent", current.UserAgent)
	}

	resp, err := req.Get(pageURL)
	if resp != nil && resp.RawBody() != nil {
		defer resp.RawBody().Close()
	}
	if err != nil {
		return "", fmt.Errorf("request to %s failed: %w", pageURL, err)
	}

	body, err := readBody(resp.RawBody(), resp.Header().Get("Content-Encoding"))
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", pageURL, err)
	}

	status := resp.StatusCode()
	if isChallenge(status, resp.Header(), body) {
		return "", &ChallengeError{URL: pageURL, StatusCode: status}
	}
	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		return "", &StatusError{URL: pageURL, StatusCode: status}
	}

	f.logger.Debug("fetched", "url", pageURL, "status", status, "bytes", len(body))
	return string(body), nil
}

// isChallenge recognises a Cloudflare interstitial.
func isChallenge(status int, header http.Header, body []byte) bool {
	switch status {
	case http.StatusForbidden, http.StatusTooManyRequests, http.StatusServiceUnavailable:
	default:
		return false
	}
	if strings.EqualFold(header.Get("cf-mitigated"), "challenge") {
		return true
	}
	if !strings.Contains(strings.ToLower(header.Get("Server")), "cloudflare") {
		return false
	}
	for _, marker := range challengeMarkers {
		if bytes.Contains(body, marker) {
			return true
		}
	}
	return false
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
