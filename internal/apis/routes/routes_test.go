package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"sql-research-assistant/internal/apis/handlers"
	"sql-research-assistant/internal/constants"
	"sql-research-assistant/internal/repositories"
	"sql-research-assistant/internal/services"
	"sql-research-assistant/internal/utils"
	"sql-research-assistant/pkg/dbmanager"
	"sql-research-assistant/pkg/llm"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type scriptedLLM struct {
	respond func(req llm.CompletionRequest) (string, error)
}

func (s *scriptedLLM) Complete(ctx context.Context, req llm.CompletionRequest) (string, error) {
	return s.respond(req)
}

func (s *scriptedLLM) GetModelInfo() llm.ModelInfo {
	return llm.ModelInfo{Name: "scripted", Provider: "test"}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *string         `json:"error"`
}

type testServer struct {
	router     *gin.Engine
	jwtService utils.JWTService
	sqlLLM     *scriptedLLM
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := dbmanager.Open(dbmanager.ConnectionConfig{
		Type: constants.DatabaseTypeSQLite,
		Path: fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
	})
	require.NoError(t, err)
	require.NoError(t, db.Exec(`CREATE TABLE retail_data ("index" INTEGER, "Country" TEXT, "Quantity" INTEGER)`).Error)
	require.NoError(t, db.Exec(`INSERT INTO retail_data VALUES (0, 'United Kingdom', 6), (1, 'France', 8), (2, 'France', 1)`).Error)

	manager := dbmanager.NewManager(db, constants.DatabaseTypeSQLite, true, dbmanager.SchemaOptions{SampleRows: 2}, zap.NewNop())
	t.Cleanup(func() { _ = manager.Close() })

	sqlLLM := &scriptedLLM{respond: func(req llm.CompletionRequest) (string, error) {
		return "SELECT COUNT(*) FROM retail_data\n\nSQLResult:", nil
	}}
	answerLLM := &scriptedLLM{respond: func(req llm.CompletionRequest) (string, error) {
		prompt := req.Messages[len(req.Messages)-1].Content
		result := prompt[strings.LastIndex(prompt, "SQL Response: ")+len("SQL Response: "):]
		return fmt.Sprintf("The result is %s. I remember %d earlier turns.", result, (len(req.Messages)-2)/2), nil
	}}

	logger := zap.NewNop()
	pipeline := services.NewPipeline(manager, manager, sqlLLM, answerLLM, nil, logger)
	assistantService := services.NewAssistantService(
		pipeline,
		manager,
		repositories.NewInMemoryRepository(10, time.Hour),
		nil,
		nil,
		services.AssistantServiceConfig{Timeout: 5 * time.Second},
		logger,
	)
	jwtService := utils.NewJWTService("test-secret", time.Hour)

	router := gin.New()
	SetupAssistantRoutes(router, handlers.NewAssistantHandler(assistantService), jwtService, logger)
	SetupSessionRoutes(router, handlers.NewSessionHandler(services.NewSessionService(jwtService), assistantService), jwtService, logger)

	return &testServer{router: router, jwtService: jwtService, sqlLLM: sqlLLM}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var resp envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return w.Code, resp
}

func (s *testServer) newSession(t *testing.T) string {
	t.Helper()
	code, resp := s.do(t, http.MethodPost, "/api/sessions", "", nil)
	require.Equal(t, http.StatusCreated, code)

	var session struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &session))
	require.NotEmpty(t, session.Token)
	return session.Token
}

func TestInvoke_Stateless(t *testing.T) {
	server := newTestServer(t)

	code, resp := server.do(t, http.MethodPost, "/sql-research-assistant/invoke", "", map[string]string{
		"question": "How many rows are in the retail data?",
	})
	require.Equal(t, http.StatusOK, code)
	require.True(t, resp.Success)

	var data struct {
		Output string `json:"output"`
		Query  string `json:"query"`
		Result string `json:"result"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Equal(t, "SELECT COUNT(*) FROM retail_data", data.Query)
	assert.Equal(t, "[(3,)]", data.Result)
	assert.Equal(t, "Question: How many rows are in the retail data?\n\nAnswer: The result is [(3,)]. I remember 0 earlier turns.", data.Output)
}

func TestInvoke_Validation(t *testing.T) {
	server := newTestServer(t)

	code, resp := server.do(t, http.MethodPost, "/sql-research-assistant/invoke", "", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.False(t, resp.Success)

	code, resp = server.do(t, http.MethodPost, "/sql-research-assistant/invoke", "", map[string]string{"question": "   "})
	assert.Equal(t, http.StatusBadRequest, code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, services.ErrEmptyQuestion.Error(), *resp.Error)

	code, _ = server.do(t, http.MethodPost, "/sql-research-assistant/invoke", "not-a-token", map[string]string{"question": "hi"})
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestInvoke_QueryFailure(t *testing.T) {
	server := newTestServer(t)
	server.sqlLLM.respond = func(req llm.CompletionRequest) (string, error) {
		return "SELECT * FROM missing_table", nil
	}

	code, resp := server.do(t, http.MethodPost, "/sql-research-assistant/invoke", "", map[string]string{"question": "anything"})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	require.NotNil(t, resp.Error)
	assert.Contains(t, *resp.Error, "missing_table")
}

func TestInvoke_AggregateQuery(t *testing.T) {
	server := newTestServer(t)
	server.sqlLLM.respond = func(req llm.CompletionRequest) (string, error) {
		return "SELECT \"Country\", SUM(\"Quantity\") FROM retail_data GROUP BY \"Country\" ORDER BY \"Country\"", nil
	}

	code, resp := server.do(t, http.MethodPost, "/sql-research-assistant/invoke", "", map[string]string{"question": "quantity per country"})
	require.Equal(t, http.StatusOK, code)

	var data struct {
		Result string `json:"result"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Equal(t, "[('France', 9), ('United Kingdom', 6)]", data.Result)
}

func TestSessions_MemoryFlow(t *testing.T) {
	server := newTestServer(t)
	token := server.newSession(t)

	for i := 0; i < 2; i++ {
		code, _ := server.do(t, http.MethodPost, "/sql-research-assistant/invoke", token, map[string]string{"question": "How many rows?"})
		require.Equal(t, http.StatusOK, code)
	}

	code, resp := server.do(t, http.MethodPost, "/sql-research-assistant/invoke", token, map[string]string{"question": "And now?"})
	require.Equal(t, http.StatusOK, code)
	var data struct {
		Answer string `json:"answer"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Equal(t, "The result is [(3,)]. I remember 2 earlier turns.", data.Answer)

	code, resp = server.do(t, http.MethodGet, "/api/sessions/history", token, nil)
	require.Equal(t, http.StatusOK, code)
	var history struct {
		Exchanges []struct {
			Question string `json:"question"`
		} `json:"exchanges"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &history))
	require.Len(t, history.Exchanges, 3)
	assert.Equal(t, "And now?", history.Exchanges[2].Question)

	code, _ = server.do(t, http.MethodDelete, "/api/sessions/history", token, nil)
	require.Equal(t, http.StatusOK, code)

	code, resp = server.do(t, http.MethodGet, "/api/sessions/history", token, nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(resp.Data, &history))
	assert.Empty(t, history.Exchanges)
}

func TestSessions_RequireToken(t *testing.T) {
	server := newTestServer(t)

	code, resp := server.do(t, http.MethodGet, "/api/sessions/history", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "Authorization header is required", *resp.Error)

	code, _ = server.do(t, http.MethodGet, "/api/sessions/transcripts", server.newSession(t), nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestSchema(t *testing.T) {
	server := newTestServer(t)

	code, resp := server.do(t, http.MethodGet, "/sql-research-assistant/schema", "", nil)
	require.Equal(t, http.StatusOK, code)

	var data struct {
		Schema string `json:"schema"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Contains(t, data.Schema, "CREATE TABLE retail_data (")
	assert.Contains(t, data.Schema, "2 rows from retail_data table:")
}
