package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
)

func newTestObservability(t *testing.T) (*Observability, *tracetest.SpanRecorder) {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	obs, err := New("sql-research-assistant-test", "", zap.NewNop(), WithSpanProcessor(recorder))
	require.NoError(t, err)
	t.Cleanup(func() { _ = obs.Shutdown(context.Background()) })
	return obs, recorder
}

func TestObserveStage_RecordsSpansAndMetrics(t *testing.T) {
	obs, recorder := newTestObservability(t)

	_, done := obs.ObserveStage(context.Background(), "sql")
	done(nil)
	_, done = obs.ObserveStage(context.Background(), "answer")
	done(errors.New("upstream unavailable"))

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "pipeline.sql", spans[0].Name())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
	assert.Equal(t, "pipeline.answer", spans[1].Name())
	assert.Equal(t, codes.Error, spans[1].Status().Code)

	w := httptest.NewRecorder()
	obs.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var calls []string
	for _, line := range strings.Split(w.Body.String(), "\n") {
		if strings.HasPrefix(line, "pipeline_stage_calls_total{") {
			calls = append(calls, line)
		}
	}
	require.Len(t, calls, 2)
	joined := strings.Join(calls, "\n")
	assert.Contains(t, joined, `stage="sql",status="ok"`)
	assert.Contains(t, joined, `stage="answer",status="error"`)
	assert.Contains(t, w.Body.String(), "pipeline_stage_duration_milliseconds_count{")
}

func TestDurationMillis(t *testing.T) {
	assert.Equal(t, 0.5, durationMillis(500*time.Microsecond))
	assert.Equal(t, 1500.0, durationMillis(1500*time.Millisecond))
}

func TestRecordQuestion(t *testing.T) {
	obs, _ := newTestObservability(t)

	obs.RecordQuestion("answered")
	obs.RecordQuestion("answered")
	obs.RecordQuestion("query_failed")

	assert.Equal(t, 2.0, testutil.ToFloat64(obs.questionsTotal.WithLabelValues("answered")))
	assert.Equal(t, 1.0, testutil.ToFloat64(obs.questionsTotal.WithLabelValues("query_failed")))
}

func TestMetricsMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	obs, _ := newTestObservability(t)

	router := gin.New()
	router.Use(obs.MetricsMiddleware())
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/metrics", gin.WrapH(obs.Handler()))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(obs.httpRequestsTotal.WithLabelValues("GET", "/health", "200")))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `sql_assistant_http_requests_total{method="GET",path="/health",status="200"} 1`)
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger("debug", "json")
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(-1))

	logger, err = NewLogger("warn", "console")
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(0))
}
