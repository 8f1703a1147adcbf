// Package transport is the JSON-over-HTTP client shared by the CRM and
// marketing integrations: bearer auth, outbound rate limiting and
// exponential-backoff retry on transport errors, 429 and 5xx.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// StatusError is a non-2xx response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	newBackOff func() backoff.BackOff
	log        *logrus.Entry
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithMaxElapsed bounds the total time spent retrying one call.
func WithMaxElapsed(d time.Duration) Option {
	return func(c *Client) {
		c.newBackOff = func() backoff.BackOff {
			bo := backoff.NewExponentialBackOff()
			bo.MaxElapsedTime = d
			return bo
		}
	}
}

// WithBackOff replaces the retry policy.
func WithBackOff(f func() backoff.BackOff) Option {
	return func(c *Client) {
		c.newBackOff = f
	}
}

// WithRateLimit caps outbound requests per second. perSec <= 0 disables it.
func WithRateLimit(perSec float64, burst int) Option {
	return func(c *Client) {
		if perSec <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSec), burst)
	}
}

func WithLogger(l *logrus.Entry) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

func New(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 12 * time.Second},
		log:        logrus.NewEntry(logrus.StandardLogger()),
	}
	WithMaxElapsed(12 * time.Second)(c)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PostJSON sends payload to path and decodes a JSON object reply into target.
// An empty 2xx body leaves target untouched.
func (c *Client) PostJSON(ctx context.Context, path string, payload, target any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	endpoint := c.baseURL + "/" + strings.TrimLeft(path, "/")
	log := c.log.WithField("endpoint", endpoint)

	attempt := 0
	op := func() error {
		attempt++
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return backoff.Permanent(err)
			}
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			log.WithField("attempt", attempt).WithError(err).Warn("request failed")
			return err
		}
		defer resp.Body.Close()
		respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			log.WithField("attempt", attempt).WithField("status", resp.StatusCode).WithError(err).Warn("reading response failed")
			return fmt.Errorf("read response body: %w", err)
		}

		if resp.StatusCode/100 != 2 {
			serr := &StatusError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(respBody))}
			if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
				log.WithField("attempt", attempt).WithField("status", resp.StatusCode).Warn("retryable response")
				return serr
			}
			return backoff.Permanent(serr)
		}
		if len(bytes.TrimSpace(respBody)) == 0 || target == nil {
			return nil
		}
		if err := json.Unmarshal(respBody, target); err != nil {
			return backoff.Permanent(fmt.Errorf("json decode error: %v body=%s", err, string(respBody)))
		}
		return nil
	}

	if err := backoff.Retry(op, backoff.WithContext(c.newBackOff(), ctx)); err != nil {
		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			return perm.Err
		}
		return err
	}
	return nil
}
