package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fjod/go_cart/cart-api/internal/events"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingPublisher struct{ events.NoopPublisher }

func (failingPublisher) Publish(context.Context, events.CartEvent) error {
	return errors.New("boom")
}

func TestMiddleware_LabelsByRoutePattern(t *testing.T) {
	m := New("test")
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Post("/get-cart", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/get-cart", nil))

	assert.Equal(t, float64(1), testutil.ToFloat64(m.RequestsTotal.WithLabelValues(http.MethodPost, "/get-cart", "404")))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.InFlight))
}

func TestHandler_ExposesMetrics(t *testing.T) {
	m := New("test")
	m.RequestsTotal.WithLabelValues("GET", "/health", "200").Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "test_http_requests_total")
}

func TestInstrumentPublisher(t *testing.T) {
	m := New("test")
	ok := m.InstrumentPublisher(events.NoopPublisher{})
	bad := m.InstrumentPublisher(failingPublisher{})

	require.NoError(t, ok.Publish(context.Background(), events.CartEvent{Type: events.CartCreated}))
	require.Error(t, bad.Publish(context.Background(), events.CartEvent{Type: events.CartCreated}))

	assert.Equal(t, float64(1), testutil.ToFloat64(m.EventsPublished.WithLabelValues("cart.created", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.EventsPublished.WithLabelValues("cart.created", "error")))
}
