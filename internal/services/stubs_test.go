package services

import (
	"context"
	"errors"
	"sync"

	"sql-research-assistant/internal/models"
	"sql-research-assistant/pkg/llm"
)

type stubSchema struct {
	mu      sync.Mutex
	schemas []string
	err     error
	calls   int
}

func (s *stubSchema) DescribeSchema(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++
	if s.err != nil {
		return "", s.err
	}
	if len(s.schemas) == 0 {
		return "CREATE TABLE retail_data (\n\t\"index\" INTEGER\n)", nil
	}
	i := s.calls - 1
	if i >= len(s.schemas) {
		i = len(s.schemas) - 1
	}
	return s.schemas[i], nil
}

type stubRunner struct {
	mu      sync.Mutex
	result  string
	err     error
	queries []string
}

func (r *stubRunner) Run(ctx context.Context, query string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.queries = append(r.queries, query)
	if r.err != nil {
		return "", r.err
	}
	return r.result, nil
}

type stubLLM struct {
	mu       sync.Mutex
	response string
	err      error
	requests []llm.CompletionRequest
	block    bool
}

func (c *stubLLM) Complete(ctx context.Context, req llm.CompletionRequest) (string, error) {
	c.mu.Lock()
	c.requests = append(c.requests, req)
	c.mu.Unlock()

	if c.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if c.err != nil {
		return "", c.err
	}
	return c.response, nil
}

func (c *stubLLM) GetModelInfo() llm.ModelInfo {
	return llm.ModelInfo{Name: "stub-model", Provider: "stub"}
}

func (c *stubLLM) calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.requests)
}

type failingMemory struct {
	recentErr error
	appendErr error
	appended  int
}

func (m *failingMemory) Recent(ctx context.Context, sessionID string) ([]models.Exchange, error) {
	return nil, m.recentErr
}

func (m *failingMemory) Append(ctx context.Context, sessionID string, exchange models.Exchange) error {
	m.appended++
	return m.appendErr
}

func (m *failingMemory) Clear(ctx context.Context, sessionID string) error {
	return errors.New("not supported")
}

type stubTranscripts struct {
	mu      sync.Mutex
	created []*models.Transcript
	err     error
}

func (s *stubTranscripts) Create(ctx context.Context, transcript *models.Transcript) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.created = append(s.created, transcript)
	return nil
}

func (s *stubTranscripts) FindBySession(ctx context.Context, sessionID string, limit int64) ([]*models.Transcript, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Transcript
	for i := len(s.created) - 1; i >= 0; i-- {
		if s.created[i].SessionID == sessionID {
			out = append(out, s.created[i])
		}
	}
	return out, s.err
}

type stageEvent struct {
	stage string
	err   error
}

type recordingObserver struct {
	mu     sync.Mutex
	events []stageEvent
}

func (o *recordingObserver) ObserveStage(ctx context.Context, stage string) (context.Context, func(error)) {
	return ctx, func(err error) {
		o.mu.Lock()
		defer o.mu.Unlock()
		o.events = append(o.events, stageEvent{stage: stage, err: err})
	}
}

func (o *recordingObserver) stages() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, len(o.events))
	for i, e := range o.events {
		out[i] = e.stage
	}
	return out
}

type countingRecorder struct {
	mu       sync.Mutex
	outcomes []string
}

func (r *countingRecorder) RecordQuestion(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}
