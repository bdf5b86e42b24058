package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/inventory-scanner/constants"
)

func TestCounters(t *testing.T) {
	m := New()

	m.ObservePipelineRun(constants.DocControlSheet, constants.StateRemoteResolved, constants.SourceRemote, time.Second)
	m.ObservePipelineRun(constants.DocControlSheet, constants.StateRemoteResolved, constants.SourceRemote, time.Second)
	m.ObservePipelineRun(constants.DocTransactionIncome, constants.StateFailed, "", time.Millisecond)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.pipelineRuns.WithLabelValues("CONTROL_SHEET", "REMOTE_RESOLVED", "remote")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.pipelineRuns.WithLabelValues("TRANSACTION_INCOME", "FAILED", "")))

	m.ObserveProviderAttempt("gemini", "extract", time.Second, errors.New("quota"))
	m.ObserveProviderAttempt("openai", "extract", time.Second, nil)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.providerAttempts.WithLabelValues("gemini", "extract", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.providerAttempts.WithLabelValues("openai", "extract", "ok")))

	m.ObserveChat("local", 0, nil)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.chatQuestions.WithLabelValues("local", "ok")))
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveChat("remote", 0, nil)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `inventory_scanner_chat_questions_total{outcome="ok",route="remote"} 1`)
}
