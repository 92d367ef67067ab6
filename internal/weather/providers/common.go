package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

// BackoffConfig controls exponential backoff behaviour. MaxRetries of zero
// means a failed attempt is surfaced immediately.
type BackoffConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// HTTPClientConfig bundles HTTP client and resilience settings.
type HTTPClientConfig struct {
	Client  *http.Client
	Backoff BackoffConfig
}

// maxBodyBytes caps how much of an upstream body is buffered.
const maxBodyBytes = 4 << 20

var (
	errCircuitOpen   = errors.New("circuit breaker open")
	errNoHTTPClient  = errors.New("http client not configured")
	errInvalidConfig = errors.New("invalid backoff configuration")
	errNoAPIKey      = errors.New("api key is not configured")
)

func newCircuitBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
		// Client errors such as 404 say nothing about provider health.
		IsSuccessful: func(err error) bool {
			return err == nil || !isRetryable(err)
		},
	})
}

// doRequest executes the request built by buildRequest through the circuit
// breaker and returns the body of a 2xx response. Non-2xx responses and
// transport failures come back as *weather.UpstreamError.
func doRequest(
	ctx context.Context,
	op string,
	cfg HTTPClientConfig,
	cb *gobreaker.CircuitBreaker,
	buildRequest func(ctx context.Context) (*http.Request, error),
) ([]byte, error) {
	if cfg.Client == nil {
		return nil, errNoHTTPClient
	}
	if cfg.Backoff.MaxRetries < 0 || (cfg.Backoff.MaxRetries > 0 && cfg.Backoff.InitialInterval <= 0) {
		return nil, errInvalidConfig
	}

	var attempt int

	for {
		if ctx.Err() != nil {
			return nil, &weather.UpstreamError{Op: op, Err: ctx.Err()}
		}

		req, err := buildRequest(ctx)
		if err != nil {
			return nil, &weather.UpstreamError{Op: op, Err: redactError(err)}
		}

		result, err := cb.Execute(func() (interface{}, error) {
			resp, execErr := cfg.Client.Do(req)
			if execErr != nil {
				return nil, &weather.UpstreamError{Op: op, Err: redactError(execErr)}
			}
			defer resp.Body.Close()

			body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
			if readErr != nil {
				return nil, &weather.UpstreamError{Op: op, Status: resp.StatusCode, Err: readErr}
			}
			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				return nil, &weather.UpstreamError{
					Op:     op,
					Status: resp.StatusCode,
					Body:   strings.TrimSpace(string(body)),
				}
			}
			return body, nil
		})

		if err == nil {
			body, ok := result.([]byte)
			if !ok {
				return nil, fmt.Errorf("unexpected result type from circuit breaker")
			}
			return body, nil
		}

		// If circuit is open, propagate immediately.
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &weather.UpstreamError{Op: op, Err: fmt.Errorf("%w: %v", errCircuitOpen, err)}
		}

		if !isRetryable(err) || attempt >= cfg.Backoff.MaxRetries {
			return nil, err
		}

		delay := cfg.Backoff.InitialInterval * time.Duration(math.Pow(2, float64(attempt)))
		if delay > cfg.Backoff.MaxInterval && cfg.Backoff.MaxInterval > 0 {
			delay = cfg.Backoff.MaxInterval
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, &weather.UpstreamError{Op: op, Err: ctx.Err()}
		case <-timer.C:
		}

		attempt++
	}
}

// isRetryable reports whether err signals a transient provider problem:
// transport failures, rate limiting and 5xx responses.
func isRetryable(err error) bool {
	var ue *weather.UpstreamError
	if !errors.As(err, &ue) {
		return false
	}
	if errors.Is(ue.Err, context.Canceled) || errors.Is(ue.Err, context.DeadlineExceeded) {
		return false
	}
	if ue.Status == 0 {
		return ue.Err != nil && !errors.Is(ue.Err, errNoAPIKey)
	}
	return ue.Status == http.StatusTooManyRequests || ue.Status >= 500
}

// redactError strips query strings from URLs embedded in transport errors so
// the API key never reaches logs.
func redactError(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return &url.Error{Op: uerr.Op, URL: redactURL(uerr.URL), Err: uerr.Err}
	}
	return err
}

func redactURL(raw string) string {
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		return raw[:i]
	}
	return raw
}
