package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/vedsharma/reqbook/internal/model"
	"github.com/vedsharma/reqbook/internal/request"
)

const (
	// Default timeout for HTTP requests
	DefaultTimeout = 30 * time.Second

	// DefaultMaxRedirects is the maximum number of redirects to follow
	DefaultMaxRedirects = 10

	// StatusUnknown is recorded when the transport returned a response
	// without a usable status code. It is never a real status from a server
	// in this tool's context, so tests can tell it apart.
	StatusUnknown = http.StatusTeapot
)

// ErrInvalidRequest is returned when a descriptor cannot be turned into a URL
var ErrInvalidRequest = errors.New("invalid request")

// NetworkError is a transport-level failure: DNS, refused connection,
// timeout, TLS. The collection is never modified when one occurs.
type NetworkError struct {
	Method string
	URL    string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the failure was a timeout
func (e *NetworkError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var t interface{ Timeout() bool }
	return errors.As(e.Err, &t) && t.Timeout()
}

// Client sends assembled descriptors and turns responses into records
type Client struct {
	client         *http.Client
	transport      http.RoundTripper
	timeout        time.Duration
	scheme         string
	followRedirect bool
	maxRedirects   int
	logger         *slog.Logger
	now            func() time.Time
	newID          func() string
}

type ClientOption func(*Client)

// NewClient creates a new HTTP client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		timeout:        DefaultTimeout,
		scheme:         request.DefaultScheme,
		followRedirect: true,
		maxRedirects:   DefaultMaxRedirects,
		logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:            time.Now,
		newID:          func() string { return uuid.New().String() },
	}

	for _, opt := range opts {
		opt(c)
	}

	redirectPolicy := func(req *http.Request, via []*http.Request) error {
		if !c.followRedirect || len(via) >= c.maxRedirects {
			return http.ErrUseLastResponse
		}
		return nil
	}

	c.client = &http.Client{
		Transport:     c.transport,
		Timeout:       c.timeout,
		CheckRedirect: redirectPolicy,
	}

	return c
}

func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithScheme sets the scheme used for host addresses that do not carry one
func WithScheme(scheme string) ClientOption {
	return func(c *Client) {
		if scheme != "" {
			c.scheme = scheme
		}
	}
}

func WithFollowRedirects(follow bool) ClientOption {
	return func(c *Client) {
		c.followRedirect = follow
	}
}

// WithTransport replaces the round tripper, mostly for tests
func WithTransport(rt http.RoundTripper) ClientOption {
	return func(c *Client) {
		c.transport = rt
	}
}

func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClock overrides the timestamp source for received responses
func WithClock(now func() time.Time) ClientOption {
	return func(c *Client) {
		c.now = now
	}
}

// Dispatch sends the request and returns the response as a record.
// Any HTTP status, including 4xx and 5xx, is a successful dispatch.
// Failures before a response arrives are returned as *NetworkError.
func (c *Client) Dispatch(ctx context.Context, d request.Descriptor) (model.ResponseRecord, error) {
	u, err := d.URL(c.scheme)
	if err != nil {
		return model.ResponseRecord{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	reqURL := u.String()

	// Warn about insecure HTTP connections
	if u.Scheme == "http" {
		c.logger.Warn("using insecure HTTP connection", slog.String("url", reqURL))
	}

	req, err := http.NewRequestWithContext(ctx, d.Method().String(), reqURL, nil)
	if err != nil {
		return model.ResponseRecord{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	// Headers are sent verbatim; nothing is injected
	for key, value := range d.Headers() {
		req.Header.Set(key, value)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Debug("request failed",
			slog.String("method", req.Method),
			slog.String("url", reqURL),
			slog.String("error", err.Error()))
		return model.ResponseRecord{}, &NetworkError{Method: req.Method, URL: reqURL, Err: unwrapURLError(err)}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.ResponseRecord{}, &NetworkError{Method: req.Method, URL: reqURL, Err: err}
	}

	status := resp.StatusCode
	if status < 100 || status > 999 {
		status = StatusUnknown
	}

	c.logger.Debug("received response",
		slog.String("method", req.Method),
		slog.String("url", reqURL),
		slog.Int("status", status),
		slog.Int("bytes", len(payload)),
		slog.Duration("elapsed", time.Since(start)))

	return model.ResponseRecord{
		ID:         c.newID(),
		Payload:    payload,
		StatusCode: status,
		ReceivedAt: c.now().UTC(),
	}, nil
}

// unwrapURLError drops the *url.Error layer, which repeats method and URL
func unwrapURLError(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) && ue.Err != nil {
		return ue.Err
	}
	return err
}
