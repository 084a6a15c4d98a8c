package scraper

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/pfrederiksen/eor-ics/internal/config"
	"github.com/pfrederiksen/eor-ics/internal/logger"
)

// maxBodyBytes caps how much of a page is read.
const maxBodyBytes = 10 << 20

// Fetcher returns the body of the page at url.
// Any network failure or non-2xx response is reported as an error.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// HTTPFetcher fetches pages with bounded retries and exponential backoff.
type HTTPFetcher struct {
	client    *retryablehttp.Client
	userAgent string
}

// NewHTTPFetcher creates a fetcher configured from cfg: cfg.Retries total
// attempts, cfg.RetryDelay before the first retry, multiplied by
// cfg.BackoffFactor after each further failure.
func NewHTTPFetcher(cfg *config.Config) *HTTPFetcher {
	client := retryablehttp.NewClient()
	client.HTTPClient.Timeout = cfg.Timeout
	client.RetryMax = cfg.Retries - 1
	client.RetryWaitMin = cfg.RetryDelay
	client.RetryWaitMax = maxWait(cfg)
	client.Backoff = multiplierBackoff(cfg.BackoffFactor)
	client.Logger = retryLogger{log: logger.Default()}

	return &HTTPFetcher{
		client:    client,
		userAgent: cfg.UserAgent,
	}
}

// maxWait is the delay before the last retry.
func maxWait(cfg *config.Config) time.Duration {
	retries := cfg.Retries - 1
	if retries < 1 {
		return cfg.RetryDelay
	}
	return time.Duration(float64(cfg.RetryDelay) * math.Pow(cfg.BackoffFactor, float64(retries-1)))
}

// multiplierBackoff waits min * factor^attempt, capped at max.
func multiplierBackoff(factor float64) retryablehttp.Backoff {
	return func(min, max time.Duration, attemptNum int, resp *http.Response) time.Duration {
		wait := float64(min) * math.Pow(factor, float64(attemptNum))
		if wait > float64(max) {
			return max
		}
		return time.Duration(wait)
	}
}

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept-Language", "en")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("reading body: %w", err)
	}
	return string(body), nil
}

// retryLogger routes retryablehttp's leveled logging into the JSON logger.
// Everything is demoted to DEBUG except errors, which become WARN since the
// caller decides whether a failed fetch matters.
type retryLogger struct {
	log *logger.Logger
}

func (l retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.log.Warn(msg, kvFields(keysAndValues))
}

func (l retryLogger) Info(msg string, keysAndValues ...interface{}) {
	l.debug(msg, keysAndValues)
}

func (l retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.debug(msg, keysAndValues)
}

func (l retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.debug(msg, keysAndValues)
}

// debug skips building fields for every request unless DEBUG is on.
func (l retryLogger) debug(msg string, kv []interface{}) {
	if !l.log.Enabled(logger.LevelDebug) {
		return
	}
	l.log.Debug(msg, kvFields(kv))
}

func kvFields(kv []interface{}) logger.Fields {
	fields := make(logger.Fields, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		fields[key] = fmt.Sprint(kv[i+1])
	}
	return fields
}
