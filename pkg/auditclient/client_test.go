package auditclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"audit-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordDeliversEvent(t *testing.T) {
	var received domain.SubmitEventRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/events", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	client := New(Config{BaseURL: srv.URL, Service: "ClientService"})
	result := client.Record(context.Background(), Entry{
		EventType: domain.EventTypeCreate,
		Entity:    "Client",
		EntityID:  7,
		Details:   "Client created: Acme",
	})

	assert.True(t, result.Delivered)
	assert.Equal(t, http.StatusCreated, result.Status)
	assert.NoError(t, result.Err)

	assert.Equal(t, "ClientService", received.Service)
	assert.Equal(t, domain.EventTypeCreate, received.EventType)
	assert.Equal(t, int64(7), received.EntityID)
}

func TestRecordSwallowsServerErrorWithoutRetry(t *testing.T) {
	var attempts int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&attempts, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := New(Config{BaseURL: srv.URL, Service: "ClientService"})
	result := client.Record(context.Background(), Entry{
		EventType: domain.EventTypeCreate,
		Entity:    "Client",
		EntityID:  1,
		Details:   "Client created",
	})

	assert.False(t, result.Delivered)
	assert.Equal(t, http.StatusInternalServerError, result.Status)
	assert.Error(t, result.Err)
	assert.Equal(t, int64(1), atomic.LoadInt64(&attempts))
}

func TestRecordSwallowsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := New(Config{BaseURL: srv.URL, Service: "ClientService"})
	result := client.Record(context.Background(), Entry{
		EventType: domain.EventTypeDelete,
		Entity:    "Client",
		EntityID:  2,
		Details:   "Client deleted",
	})

	assert.False(t, result.Delivered)
	assert.Error(t, result.Err)
}

func TestRecordSwallowsTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer func() {
		close(release)
		srv.Close()
	}()

	client := New(Config{BaseURL: srv.URL, Service: "ClientService", Timeout: 50 * time.Millisecond})
	result := client.Record(context.Background(), Entry{
		EventType: domain.EventTypeUpdate,
		Entity:    "Client",
		EntityID:  3,
		Details:   "Client updated",
	})

	assert.False(t, result.Delivered)
	assert.Error(t, result.Err)
}

func TestDefaultTimeoutApplied(t *testing.T) {
	client := New(Config{BaseURL: "http://audit", Service: "ClientService"})
	assert.Equal(t, defaultTimeout, client.httpClient.Timeout)
}
