package metar

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

	"meteo-stack/shared/logger"
)

// BackoffConfig controls exponential backoff between retrieval attempts
type BackoffConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

var DefaultBackoff = BackoffConfig{
	MaxRetries:      2,
	InitialInterval: 500 * time.Millisecond,
	MaxInterval:     5 * time.Second,
}

var (
	errServerError = errors.New("server error")
	errUnexpected  = errors.New("unexpected status code")
	errCircuitOpen = errors.New("circuit breaker open")
)

// Client downloads raw METAR text from the aviationweather.gov data API
type Client struct {
	baseURL string
	client  *http.Client
	backoff BackoffConfig
	breaker *gobreaker.CircuitBreaker
	logger  logger.Logger
}

func NewClient(baseURL string, timeout time.Duration, backoff BackoffConfig, log logger.Logger) *Client {
	c := &Client{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: timeout,
		},
		backoff: backoff,
		logger:  log,
	}

	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "metar",
		Timeout: time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warnf("Circuit breaker %s changed from %s to %s", name, from, to)
		},
	})

	return c
}

// FetchMETAR returns the raw report text for a station
func (c *Client) FetchMETAR(ctx context.Context, station string) (string, error) {
	query := url.Values{}
	query.Set("ids", station)
	query.Set("format", "raw")
	requestURL := c.baseURL + "?" + query.Encode()

	c.logger.Debugf("Fetching METAR from: %s", requestURL)

	resp, err := c.doWithResilience(ctx, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrRetrieval, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: failed to read response: %w", ErrRetrieval, err)
	}

	text := strings.TrimSpace(string(body))
	if text == "" {
		return "", fmt.Errorf("%w: no METAR found for station %s", ErrRetrieval, station)
	}

	return text, nil
}

// doWithResilience retries failed requests with exponential backoff behind a
// circuit breaker. Client errors (4xx) are not retried.
func (c *Client) doWithResilience(ctx context.Context, buildRequest func() (*http.Request, error)) (*http.Response, error) {
	var attempt int

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := buildRequest()
		if err != nil {
			return nil, err
		}

		result, err := c.breaker.Execute(func() (interface{}, error) {
			resp, execErr := c.client.Do(req)
			if execErr != nil {
				return nil, execErr
			}
			if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
				resp.Body.Close()
				return nil, fmt.Errorf("%w: %d", errServerError, resp.StatusCode)
			}
			return resp, nil
		})
		if err == nil {
			resp := result.(*http.Response)
			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				resp.Body.Close()
				return nil, fmt.Errorf("%w: %d", errUnexpected, resp.StatusCode)
			}
			return resp, nil
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", errCircuitOpen, err)
		}

		if attempt >= c.backoff.MaxRetries {
			return nil, err
		}

		delay := c.backoff.InitialInterval * time.Duration(math.Pow(2, float64(attempt)))
		if c.backoff.MaxInterval > 0 && delay > c.backoff.MaxInterval {
			delay = c.backoff.MaxInterval
		}
		c.logger.Warnf("METAR request failed (attempt %d): %v, retrying in %s", attempt+1, err, delay)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		attempt++
	}
}
