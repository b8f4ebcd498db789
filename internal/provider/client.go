// Package provider holds the HTTP clients for upstream market-data APIs.
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"TradeCouncil/internal/apperr"
	"TradeCouncil/internal/logger"
	"TradeCouncil/internal/ratelimit"
)

// Options configures one provider client.
type Options struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	RetryCount int
	RetryWait  time.Duration
	Proxy      string
	Limiter    *ratelimit.Limiter
	Log        *logrus.Entry
}

// maxRetries bounds resty retries regardless of configuration.
const maxRetries = 2

type httpClient struct {
	name string
	rc   *resty.Client
	log  *logrus.Entry
}

func newHTTPClient(name string, opts Options) *httpClient {
	log := opts.Log
	if log == nil {
		log = logger.Discard()
	}
	log = log.WithField("provider", name)

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	retries := opts.RetryCount
	if retries > maxRetries {
		retries = maxRetries
	}
	if retries < 0 {
		retries = 0
	}
	wait := opts.RetryWait
	if wait <= 0 {
		wait = time.Second
	}

	rc := resty.New().
		SetBaseURL(strings.TrimSuffix(opts.BaseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "Mozilla/5.0").
		SetRetryCount(retries).
		// Equal wait bounds give a fixed backoff between attempts.
		SetRetryWaitTime(wait).
		SetRetryMaxWaitTime(wait).
		AddRetryCondition(shouldRetry)

	if opts.Proxy != "" {
		rc.SetProxy(opts.Proxy)
	}

	if lim := opts.Limiter; lim != nil {
		// Runs before every attempt, retries included.
		rc.OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
			if err := lim.Acquire(r.Context()); err != nil {
				return err
			}
			if st := lim.Status(); st.ApproachingLimit {
				log.WithFields(logrus.Fields{
					"count":     st.Count,
					"remaining": st.Remaining,
					"queue":     st.QueueSize,
				}).Debug("rate limiter near budget")
			}
			return nil
		})
	}

	return &httpClient{name: name, rc: rc, log: log}
}

// shouldRetry retries network failures, 429 and 5xx. Limiter and context
// errors are final.
func shouldRetry(resp *resty.Response, err error) bool {
	if err != nil {
		var ae *apperr.Error
		if errors.As(err, &ae) {
			return false
		}
		return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
	}
	if resp == nil {
		return false
	}
	code := resp.StatusCode()
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

// getJSON issues a GET and decodes a 2xx body into out. Failures come back as
// tagged errors so callers can branch on the kind.
func (c *httpClient) getJSON(ctx context.Context, op, path string, params map[string]string, out any) error {
	req := c.rc.R().SetContext(ctx)
	if len(params) > 0 {
		req.SetQueryParams(params)
	}
	resp, err := req.Get(path)
	if err != nil {
		var ae *apperr.Error
		if errors.As(err, &ae) {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return apperr.Provider(c.name, op, 0, err)
	}

	code := resp.StatusCode()
	switch {
	case code == http.StatusTooManyRequests:
		return apperr.RateLimited(c.name, op, fmt.Errorf("status %d", code))
	case !resp.IsSuccess():
		return apperr.Provider(c.name, op, code, fmt.Errorf("unexpected status: %s", snippet(resp.Body())))
	}

	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return apperr.Provider(c.name, op, code, fmt.Errorf("decode: %w", err))
	}
	c.log.WithFields(logrus.Fields{"op": op, "status": code}).Debug("provider call ok")
	return nil
}

func snippet(body []byte) string {
	const limit = 200
	s := strings.TrimSpace(string(body))
	if len(s) > limit {
		s = s[:limit] + "..."
	}
	return s
}

// parseNum reads the numeric strings some APIs return, such as "1.25%".
func parseNum(s string) float64 {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	if s == "" || s == "None" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
