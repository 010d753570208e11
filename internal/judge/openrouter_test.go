package judge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOpenRouter_RequiresAPIKey(t *testing.T) {
	_, err := NewOpenRouter("", "", nil)
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestOpenRouter_Ask(t *testing.T) {
	var gotReq openai.ChatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		resp := openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Content: `{"total_score": 80}`}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer server.Close()

	j, err := NewOpenRouter("test-key", server.URL, nil)
	require.NoError(t, err)

	content, err := j.Ask(context.Background(), "evaluate this", "some/model")
	require.NoError(t, err)
	assert.Equal(t, `{"total_score": 80}`, content)

	assert.Equal(t, "some/model", gotReq.Model)
	require.Len(t, gotReq.Messages, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, gotReq.Messages[0].Role)
	assert.Equal(t, "evaluate this", gotReq.Messages[1].Content)
}

func TestOpenRouter_Ask_EmptyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices": []}`))
	}))
	defer server.Close()

	j, err := NewOpenRouter("test-key", server.URL, nil)
	require.NoError(t, err)

	_, err = j.Ask(context.Background(), "prompt", "model")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}
