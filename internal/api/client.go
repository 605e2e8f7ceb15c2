// Package api is the JSON client for the Baralga backend REST API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02T15:04:05"

	defaultTimeout = 30 * time.Second
)

// StatusError is returned for every non-2xx response.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
}

// IsUnauthorized reports whether err is a 401 response.
func IsUnauthorized(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusUnauthorized
}

func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}

// Client sends attempt-once JSON requests to the backend.
type Client struct {
	http *resty.Client
	log  zerolog.Logger

	baseURL        string
	timeout        time.Duration
	httpClient     *http.Client
	onUnauthorized func()
}

// New constructs a Client for baseURL with optional functional arguments.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("empty base url")
	}

	c := &Client{
		baseURL: baseURL,
		timeout: defaultTimeout,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	rc := resty.New()
	if c.httpClient != nil {
		rc = resty.NewWithClient(c.httpClient)
	}
	c.http = rc.
		SetBaseURL(c.baseURL).
		SetHeader("Content-Type", "application/json;charset=UTF-8").
		SetHeader("Accept", "application/json").
		SetTimeout(c.timeout).
		SetLogger(restyLogger{c.log}).
		OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
			if resp.StatusCode() == http.StatusUnauthorized && c.onUnauthorized != nil {
				c.onUnauthorized()
			}
			return nil
		})

	return c, nil
}

func (c *Client) Get(ctx context.Context, path string, query map[string]string, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, nil, body, out)
}

func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPatch, path, nil, body, out)
}

func (c *Client) Delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, query map[string]string, body, out any) error {
	req := c.http.R().SetContext(ctx)
	if body != nil {
		req.SetBody(body)
	}
	if len(query) > 0 {
		req.SetQueryParams(query)
	}

	start := time.Now()
	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}

	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status_code", resp.StatusCode()).
		Dur("duration", time.Since(start)).
		Msg("request")

	if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		return &StatusError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode(),
			Body:       resp.String(),
		}
	}

	if out == nil || len(resp.Body()) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

// restyLogger routes resty's own diagnostics away from the terminal.
type restyLogger struct {
	log zerolog.Logger
}

func (l restyLogger) Errorf(format string, v ...any) { l.log.Error().Msgf(format, v...) }
func (l restyLogger) Warnf(format string, v ...any)  { l.log.Warn().Msgf(format, v...) }
func (l restyLogger) Debugf(format string, v ...any) { l.log.Debug().Msgf(format, v...) }
