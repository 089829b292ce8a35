// Package transport provides the thin HTTP/JSON client used by location
// resolution and the weather provider. Failures carry an explicit error kind
// so callers can branch on it (the orchestrator retries DNS failures only)
// without inspecting concrete net error types themselves.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Kind classifies a transport failure.
type Kind int

const (
	KindOther Kind = iota
	KindDNS
	KindTimeout
	KindStatus
	KindDecode
)

func (k Kind) String() string {
	switch k {
	case KindDNS:
		return "dns"
	case KindTimeout:
		return "timeout"
	case KindStatus:
		return "status"
	case KindDecode:
		return "decode"
	default:
		return "other"
	}
}

// Error is a transport failure tagged with its kind.
type Error struct {
	Kind Kind
	URL  string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("transport %s error for %s: %v", e.Kind, e.URL, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf extracts the kind from an error chain; non-transport errors are
// KindOther.
func KindOf(err error) Kind {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind
	}
	return KindOther
}

// Response reports the HTTP outcome of a GetJSON call. The body has already
// been decoded; for non-2xx statuses Reason carries the upstream "reason"
// field when one was present.
type Response struct {
	Status int
	Is2xx  bool
	Reason string
}

// Config controls the outbound HTTP behavior.
type Config struct {
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	UserAgent         string
	BreakerName       string
}

// Client issues GET requests and parses JSON responses. Outbound calls pass
// through a rate limiter and a circuit breaker.
type Client struct {
	http      *http.Client
	limiter   *rate.Limiter
	breaker   *gobreaker.CircuitBreaker
	userAgent string
	logger    *zap.Logger
}

var errServerStatus = errors.New("server error status")

func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 1
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 3
	}
	name := cfg.BreakerName
	if name == "" {
		name = "transport"
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return &Client{
		http:      &http.Client{Timeout: cfg.Timeout},
		limiter:   rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		breaker:   cb,
		userAgent: cfg.UserAgent,
		logger:    logger,
	}
}

// GetJSON issues one GET with the given query parameters and decodes the JSON
// body into v. The response is returned for any HTTP status; the caller
// decides what a non-2xx status means. An error is returned only when the
// request itself failed or the body could not be decoded.
func (c *Client) GetJSON(ctx context.Context, rawURL string, params url.Values, v any) (Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return Response{}, &Error{Kind: classify(err), URL: rawURL, Err: err}
	}

	reqURL := rawURL
	if len(params) > 0 {
		reqURL = rawURL + "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return Response{}, &Error{Kind: KindOther, URL: rawURL, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		resp, doErr := c.http.Do(req)
		if doErr != nil {
			return nil, doErr
		}
		// 5xx counts as a breaker failure but the response still flows
		// back so the caller can report status and reason.
		if resp.StatusCode >= 500 {
			return resp, errServerStatus
		}
		return resp, nil
	})
	if result == nil {
		return Response{}, &Error{Kind: classify(err), URL: rawURL, Err: err}
	}

	resp := result.(*http.Response)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, &Error{Kind: KindOther, URL: rawURL, Err: err}
	}

	out := Response{
		Status: resp.StatusCode,
		Is2xx:  resp.StatusCode/100 == 2,
	}

	if out.Is2xx {
		if v != nil {
			if err := json.Unmarshal(body, v); err != nil {
				return Response{}, &Error{Kind: KindDecode, URL: rawURL, Err: err}
			}
		}
		return out, nil
	}

	// Upstreams often include a reason field on failures; decode it
	// best-effort so error messages can quote it.
	var failure struct {
		Reason string `json:"reason"`
	}
	if err := json.Unmarshal(body, &failure); err == nil {
		out.Reason = failure.Reason
	}
	return out, nil
}

// classify maps a request error to its kind. DNS failures get their own kind
// because the orchestrator retries them with backoff; everything else ends
// the fetch cycle.
func classify(err error) Kind {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return KindDNS
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	return KindOther
}
