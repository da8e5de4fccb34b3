package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutcome(t *testing.T) {
	assert.Equal(t, "ok", Outcome(nil))
	assert.Equal(t, "error", Outcome(errors.New("x")))
}

func TestObserveHTTP(t *testing.T) {
	before := testutil.ToFloat64(HTTPRequests.WithLabelValues("/api/budgets", "GET", "200"))
	ObserveHTTP("/api/budgets", "GET", 200, 15*time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(HTTPRequests.WithLabelValues("/api/budgets", "GET", "200")))

	ObserveHTTP("", "GET", 404, time.Millisecond)
	assert.GreaterOrEqual(t, testutil.ToFloat64(HTTPRequests.WithLabelValues("unmatched", "GET", "404")), 1.0)
}

func TestHandlerExposesCollectors(t *testing.T) {
	LedgerMutations.WithLabelValues("budget", "create", "ok").Inc()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "homebudget_ledger_mutations_total"))
}
