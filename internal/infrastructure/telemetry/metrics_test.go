package telemetry

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_ObserveRequest(t *testing.T) {
	m := NewMetrics()

	m.ObserveRequest("GET", "/api/v1/products/:id", "200", 20*time.Millisecond)
	m.ObserveRequest("GET", "/api/v1/products/:id", "200", 30*time.Millisecond)
	m.ObserveRequest("GET", "/api/v1/products/:id", "404", time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/api/v1/products/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/api/v1/products/:id", "404")))
}

func TestMetrics_DomainCounters(t *testing.T) {
	m := NewMetrics()

	m.StockMovement("receipt")
	m.DocumentIssued("invoice")
	m.CreditPosted("payment")
	m.ReadingsIngested(7)
	m.DocumentRendered("invoice", "pdf")
	m.JobFinished("credit_refresh", time.Second, nil)
	m.JobFinished("credit_refresh", time.Second, errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.stockMoves.WithLabelValues("receipt")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.docsIssued.WithLabelValues("invoice")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.creditPosts.WithLabelValues("payment")))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.readingsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.docsRendered.WithLabelValues("invoice", "pdf")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.jobRuns.WithLabelValues("credit_refresh", "error")))
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics()
	m.StockMovement("issue")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `drymix_stock_movements_total{type="issue"} 1`)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
