package promquery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/api"
	v1 "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/prometheus/common/model"

	"meteo-stack/shared/config"
)

// ErrEmptyVector is returned when an instant query yields a vector without samples
var ErrEmptyVector = errors.New("instant query returned an empty vector")

// QueryAPI is the part of the Prometheus HTTP API the adapters need.
// v1.API satisfies it.
type QueryAPI interface {
	Query(ctx context.Context, query string, ts time.Time, opts ...v1.Option) (model.Value, v1.Warnings, error)
}

// NewQueryAPI builds a Prometheus API client for the configured server
func NewQueryAPI(cfg *config.PrometheusConfig) (QueryAPI, error) {
	client, err := api.NewClient(api.Config{Address: cfg.URL})
	if err != nil {
		return nil, fmt.Errorf("failed to create Prometheus client: %w", err)
	}
	return v1.NewAPI(client), nil
}

// Client runs instant queries with a per-query timeout
type Client struct {
	api     QueryAPI
	timeout time.Duration
	now     func() time.Time
}

func NewClient(queryAPI QueryAPI, timeout time.Duration) *Client {
	return &Client{
		api:     queryAPI,
		timeout: timeout,
		now:     time.Now,
	}
}

// FirstSample runs an instant query and returns the value of its first
// sample. ok is false when the result is not a vector; the caller treats
// that as "no data" rather than an error.
func (c *Client) FirstSample(ctx context.Context, query string) (value float64, ok bool, err error) {
	var opts []v1.Option
	if c.timeout > 0 {
		opts = append(opts, v1.WithTimeout(c.timeout))
	}

	result, _, err := c.api.Query(ctx, query, c.now(), opts...)
	if err != nil {
		return 0, false, fmt.Errorf("query %q failed: %w", query, err)
	}

	if result == nil || result.Type() != model.ValVector {
		return 0, false, nil
	}

	vector, isVector := result.(model.Vector)
	if !isVector {
		return 0, false, nil
	}
	if len(vector) == 0 {
		return 0, false, fmt.Errorf("query %q: %w", query, ErrEmptyVector)
	}

	return float64(vector[0].Value), true, nil
}
