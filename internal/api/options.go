package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Option mutates the Client during New().
type Option func(*Client) error

// WithHTTPClient injects a custom *http.Client, e.g. one from httptest.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		if hc == nil {
			return errors.New("nil http client")
		}
		c.httpClient = hc
		return nil
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d <= 0 {
			return errors.New("timeout must be positive")
		}
		c.timeout = d
		return nil
	}
}

func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) error {
		c.log = log
		return nil
	}
}

// WithUnauthorizedHandler registers fn to run on every 401 response. The
// request still fails with a *StatusError.
func WithUnauthorizedHandler(fn func()) Option {
	return func(c *Client) error {
		c.onUnauthorized = fn
		return nil
	}
}
