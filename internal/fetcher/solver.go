package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// solverGrace is added to the browser timeout for the HTTP call to FlareSolverr.
const solverGrace = 10 * time.Second

// Solution is what the solver returns for a solved page.
type Solution struct {
	// Response is the page markup as rendered by the solver's browser.
	Response string
	// Cookies is the full cookie set of the solver's browser, clearance included.
	Cookies []*http.Cookie
	// UserAgent is the browser user agent the cookies are bound to.
	UserAgent string
}

// Solver asks a FlareSolverr instance to load pages behind a challenge.
type Solver struct {
	endpoint   string
	maxTimeout time.Duration
	client     *resty.Client
	logger     *slog.Logger
}

// NewSolver creates a Solver for the FlareSolverr endpoint, e.g.
// http://localhost:8191/v1. maxTimeout bounds the browser-side load.
func NewSolver(endpoint string, maxTimeout time.Duration, logger *slog.Logger) *Solver {
	if logger == nil {
		logger = slog.Default()
	}
	client := resty.New().
		SetTimeout(maxTimeout + solverGrace).
		SetHeader("Content-Type", "application/json").
		SetLogger(restyLogger{logger: logger})

	return &Solver{
		endpoint:   endpoint,
		maxTimeout: maxTimeout,
		client:     client,
		logger:     logger.With("component", "solver"),
	}
}

type solverRequest struct {
	Cmd        string `json:"cmd"`
	URL        string `json:"url"`
	MaxTimeout int64  `json:"maxTimeout"`
}

type solverCookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"`
	HTTPOnly bool    `json:"httpOnly"`
	Secure   bool    `json:"secure"`
}

type solverResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Solution struct {
		URL       string         `json:"url"`
		Status    int            `json:"status"`
		Response  string         `json:"response"`
		Cookies   []solverCookie `json:"cookies"`
		UserAgent string         `json:"userAgent"`
	} `json:"solution"`
}

// Solve loads pageURL through the solver's browser.
func (s *Solver) Solve(ctx context.Context, pageURL string) (*Solution, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(solverRequest{
			Cmd:        "request.get",
			URL:        pageURL,
			MaxTimeout: s.maxTimeout.Milliseconds(),
		}).
		Post(s.endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to call solver: %w", err)
	}

	var result solverResponse
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("failed to decode solver response (status %d): %w", resp.StatusCode(), err)
	}
	if result.Status != "ok" {
		return nil, fmt.Errorf("%w: status=%q message=%q", ErrSolverFailed, result.Status, result.Message)
	}

	cookies := make([]*http.Cookie, 0, len(result.Solution.Cookies))
	for _, c := range result.Solution.Cookies {
		cookie := &http.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			HttpOnly: c.HTTPOnly,
			Secure:   c.Secure,
		}
		if c.Expires > 0 {
			cookie.Expires = time.Unix(int64(c.Expires), 0)
		}
		cookies = append(cookies, cookie)
	}

	s.logger.Debug("challenge solved",
		"url", pageURL,
		"cookies_received", len(cookies),
		"page_status", result.Solution.Status,
	)

	return &Solution{
		Response:  result.Solution.Response,
		Cookies:   cookies,
		UserAgent: result.Solution.UserAgent,
	}, nil
}
