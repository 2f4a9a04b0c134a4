package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_ObserveAsk(t *testing.T) {
	c := NewCollector()

	c.ObserveAsk("ok", time.Second)
	c.ObserveAsk("ok", 2*time.Second)
	c.ObserveAsk("fallback", time.Second)

	assert.InDelta(t, 2, testutil.ToFloat64(c.asks.WithLabelValues("ok")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.asks.WithLabelValues("fallback")), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(c.askDuration))
}

func TestCollector_ObserveIndex(t *testing.T) {
	c := NewCollector()

	c.ObserveIndex("ok", 12, time.Second)
	c.ObserveIndex("error", 0, time.Second)

	assert.InDelta(t, 1, testutil.ToFloat64(c.builds.WithLabelValues("ok")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.builds.WithLabelValues("error")), 0)
	assert.InDelta(t, 12, testutil.ToFloat64(c.chunksIndexed), 0)
}

func TestCollector_SeparateRegistries(t *testing.T) {
	a, b := NewCollector(), NewCollector()

	a.ObserveAsk("ok", time.Millisecond)

	assert.InDelta(t, 1, testutil.ToFloat64(a.asks.WithLabelValues("ok")), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(b.asks.WithLabelValues("ok")), 0)
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector()
	c.ObserveAsk("timeout", time.Second)
	c.ObserveHTTP(http.MethodPost, "/v1/ask", http.StatusGatewayTimeout, time.Second)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `askdocs_questions_total{outcome="timeout"} 1`)
	assert.Contains(t, string(body), `askdocs_http_requests_total{method="POST",route="/v1/ask",status="504"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
