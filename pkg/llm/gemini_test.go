package llm

import (
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToGeminiContents(t *testing.T) {
	system, history, prompt, err := toGeminiContents([]Message{
		{Role: RoleSystem, Content: "be terse"},
		{Role: RoleUser, Content: "first question"},
		{Role: RoleAssistant, Content: "first answer"},
		{Role: RoleUser, Content: "second question"},
	})
	require.NoError(t, err)

	assert.Equal(t, "be terse", system)
	assert.Equal(t, "second question", prompt)
	require.Len(t, history, 2)
	assert.Equal(t, "user", history[0].Role)
	assert.Equal(t, "model", history[1].Role)
	assert.Equal(t, genai.Text("first answer"), history[1].Parts[0])
}

func TestToGeminiContents_RequiresTrailingUserMessage(t *testing.T) {
	_, _, _, err := toGeminiContents([]Message{
		{Role: RoleSystem, Content: "be terse"},
		{Role: RoleAssistant, Content: "dangling"},
	})
	assert.Error(t, err)

	_, _, _, err = toGeminiContents(nil)
	assert.Error(t, err)
}

func TestCandidateText(t *testing.T) {
	assert.Equal(t, "", candidateText(nil))
	assert.Equal(t, "", candidateText(&genai.GenerateContentResponse{}))

	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{genai.Text("SELECT "), genai.Text("1")}},
		}},
	}
	assert.Equal(t, "SELECT 1", candidateText(resp))
}
