package metar

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meteo-stack/shared/logger"
)

var fastBackoff = BackoffConfig{
	MaxRetries:      2,
	InitialInterval: time.Millisecond,
	MaxInterval:     5 * time.Millisecond,
}

func TestClientFetchMETAR(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "UUEE", r.URL.Query().Get("ids"))
		assert.Equal(t, "raw", r.URL.Query().Get("format"))
		fmt.Fprintln(w, "UUEE 191030Z 24008KT 9999 BKN030 M02/M05 Q1013 NOSIG")
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second, fastBackoff, logger.Nop())
	raw, err := client.FetchMETAR(context.Background(), "UUEE")
	require.NoError(t, err)
	assert.Equal(t, "UUEE 191030Z 24008KT 9999 BKN030 M02/M05 Q1013 NOSIG", raw)
}

func TestClientRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, "UUEE 191030Z 24008KT")
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second, fastBackoff, logger.Nop())
	raw, err := client.FetchMETAR(context.Background(), "UUEE")
	require.NoError(t, err)
	assert.Equal(t, "UUEE 191030Z 24008KT", raw)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClientErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantCalls int32
	}{
		{"not found is not retried", http.StatusNotFound, "", 1},
		{"empty body", http.StatusOK, "  \n", 1},
		{"persistent server error", http.StatusInternalServerError, "", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer server.Close()

			client := NewClient(server.URL, time.Second, fastBackoff, logger.Nop())
			_, err := client.FetchMETAR(context.Background(), "UUEE")
			assert.ErrorIs(t, err, ErrRetrieval)
			assert.Equal(t, tt.wantCalls, calls.Load())
		})
	}
}

func TestClientCircuitBreakerOpens(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second, BackoffConfig{InitialInterval: time.Millisecond}, logger.Nop())
	for i := 0; i < 5; i++ {
		_, err := client.FetchMETAR(context.Background(), "UUEE")
		require.Error(t, err)
	}

	_, err := client.FetchMETAR(context.Background(), "UUEE")
	assert.ErrorIs(t, err, ErrRetrieval)
	assert.ErrorContains(t, err, "circuit breaker open")
	assert.Equal(t, int32(5), calls.Load())
}

func TestClientHonoursContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient(server.URL, time.Second, fastBackoff, logger.Nop())
	_, err := client.FetchMETAR(ctx, "UUEE")
	assert.ErrorIs(t, err, context.Canceled)
}
