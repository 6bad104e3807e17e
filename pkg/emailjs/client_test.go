package emailjs

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/akeren/waitlist-api/pkg/circuitbreaker"
	apperrors "github.com/akeren/waitlist-api/pkg/errors"
	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(Config{
		APIKey:      "secret",
		AccountID:   "acct-1",
		ContactsURL: server.URL + "/api/v1.1/contacts",
		Timeout:     time.Second,
	}, resty.NewWithClient(server.Client()))
}

func TestContactCount_ReadsTotal(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "acct-1", r.URL.Query().Get("account_id"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"total": 42}`))
	})

	count, err := client.ContactCount(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(42), count)
}

func TestContactCount_AcceptsCountField(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"count": 7}`))
	})

	count, err := client.ContactCount(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(7), count)
}

func TestContactCount_Failures(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"non-success status": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		},
		"malformed body": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"total":`))
		},
		"missing fields": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"contacts": []}`))
		},
	}

	for name, handler := range cases {
		t.Run(name, func(t *testing.T) {
			client := newTestClient(t, handler)

			_, err := client.ContactCount(context.Background())

			assert.True(t, apperrors.IsExternalServiceError(err), "got %v", err)
		})
	}
}

func TestContactCount_RejectsOversizedBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"total": 1, "pad": "` + strings.Repeat("x", 2<<20) + `"}`))
	})

	_, err := client.ContactCount(context.Background())

	assert.True(t, apperrors.IsExternalServiceError(err))
}

func TestContactCount_TimesOut(t *testing.T) {
	release := make(chan struct{})
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)
	client.config.Timeout = 50 * time.Millisecond

	_, err := client.ContactCount(context.Background())

	assert.True(t, apperrors.IsExternalServiceError(err))
}

func TestContactCount_NotConfigured(t *testing.T) {
	client := NewClient(Config{}, nil)

	_, err := client.ContactCount(context.Background())

	assert.True(t, apperrors.IsExternalServiceError(err))
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestContactCount_OpenCircuitFailsFast(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(Config{
		APIKey:      "secret",
		AccountID:   "acct-1",
		ContactsURL: server.URL,
		Breaker:     &circuitbreaker.Config{FailureThreshold: 2, RecoveryTimeout: time.Hour, SuccessThreshold: 1},
	}, resty.NewWithClient(server.Client()))

	for i := 0; i < 4; i++ {
		_, err := client.ContactCount(context.Background())
		assert.Error(t, err)
	}

	assert.Equal(t, 2, calls)
	assert.Equal(t, circuitbreaker.Open, client.BreakerState())
}
