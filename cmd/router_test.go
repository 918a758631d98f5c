package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"sql-research-assistant/config"
	"sql-research-assistant/internal/observability"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewRouter_PanicIsLoggedAndCounted(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.DebugLevel)

	obs, err := observability.New("sql-research-assistant-test", "", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = obs.Shutdown(context.Background()) })

	router := newRouter(&config.Environment{CorsAllowedOrigin: "*"}, zap.New(core), obs)
	router.GET("/panic", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	require.Equal(t, http.StatusInternalServerError, w.Code)

	assert.Equal(t, 1, logs.FilterMessage("recovered from panic").Len())
	requests := logs.FilterMessage("http_request").All()
	require.Len(t, requests, 1)
	assert.Equal(t, zapcore.ErrorLevel, requests[0].Level)
	assert.Equal(t, int64(500), requests[0].ContextMap()["status"])

	scrape := httptest.NewRecorder()
	obs.Handler().ServeHTTP(scrape, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, scrape.Code)
	assert.Contains(t, scrape.Body.String(),
		`sql_assistant_http_requests_total{method="GET",path="/panic",status="500"} 1`)
}
