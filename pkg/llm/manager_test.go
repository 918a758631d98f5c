package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClient struct {
	closed bool
}

func (s *stubClient) Complete(context.Context, CompletionRequest) (string, error) { return "ok", nil }
func (s *stubClient) GetModelInfo() ModelInfo                                   { return ModelInfo{Name: "stub"} }
func (s *stubClient) Close() error {
	s.closed = true
	return errors.New("close failed")
}

func TestManager_RegisterAndGet(t *testing.T) {
	m := NewManager()

	require.NoError(t, m.RegisterClient("sql", Config{Provider: "openai", APIKey: "k", Model: "gpt-4o-mini"}))
	client, err := m.GetClient("sql")
	require.NoError(t, err)
	assert.Equal(t, "openai", client.GetModelInfo().Provider)
	assert.Equal(t, "gpt-4o-mini", client.GetModelInfo().Name)

	m.RemoveClient("sql")
	_, err = m.GetClient("sql")
	assert.Error(t, err)
}

func TestManager_RegisterClientErrors(t *testing.T) {
	m := NewManager()

	err := m.RegisterClient("sql", Config{Provider: "unknown"})
	assert.ErrorContains(t, err, "unsupported LLM provider")

	err = m.RegisterClient("sql", Config{Provider: "openai"})
	assert.ErrorContains(t, err, "failed to create LLM client")

	err = m.RegisterClient("sql", Config{Provider: "gemini"})
	assert.ErrorContains(t, err, "gemini API key is required")
}

func TestManager_Close(t *testing.T) {
	m := NewManager()
	stub := &stubClient{}
	m.SetClient("answer", stub)

	err := m.Close()
	assert.True(t, stub.closed)
	assert.ErrorContains(t, err, "answer: close failed")
}
