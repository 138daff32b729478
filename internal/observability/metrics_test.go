package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureRegisteredIdempotent(t *testing.T) {
	EnsureRegistered()
	EnsureRegistered()
}

func TestRecordersDoNotPanic(t *testing.T) {
	SetActiveSessions(3)
	RecordSessionLoad(5 * time.Millisecond)
	RecordSessionSave(5 * time.Millisecond)
	RecordSessionTruncation()
	RecordPersistError()
	RecordQuery("phi-3.5-mini", 10*time.Millisecond, true)
	RecordQuery("phi-3.5-mini", 10*time.Millisecond, false)
	RecordProviderCall("stub", time.Millisecond, true)
}

func TestMetricsHandlerExposition(t *testing.T) {
	RecordQuery("phi-3.5-mini", time.Millisecond, true)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	MetricsHandler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "sheetpilot_queries_total")
	assert.Contains(t, body, "sheetpilot_active_sessions")
}
