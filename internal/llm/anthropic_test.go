package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/jupytutor/internal/chat"
)

func anthropicConfig(endpoint string) LLMConfig {
	cfg := DefaultConfig()
	cfg.Provider = ProviderAnthropic
	cfg.Model = DefaultAnthropicModel
	cfg.APIKey = "sk-ant-test"
	cfg.Endpoint = endpoint
	cfg.MaxRetries = 0
	return cfg
}

const anthropicReply = `{
  "id": "msg_01",
  "type": "message",
  "role": "assistant",
  "model": "claude-sonnet-4-5",
  "content": [{"type": "text", "text": "Look at line 3."}],
  "stop_reason": "end_turn",
  "usage": {"input_tokens": 10, "output_tokens": 5}
}`

func TestAnthropicTransport_Send(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "sk-ant-test", r.Header.Get("X-Api-Key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(anthropicReply))
	}))
	defer srv.Close()

	var captured LLMCallEvent
	obs := &captureObserver{fn: func(e LLMCallEvent) { captured = e }}

	transport := NewAnthropicTransport(anthropicConfig(srv.URL), obs)
	msg, err := transport.Send(context.Background(), tutorRequest(
		"data:image/png;base64,AAAA",
		"https://example.com/plot.png",
		"figure.png",
	))
	require.NoError(t, err)
	assert.Equal(t, chat.RoleAssistant, msg.Role)
	assert.Equal(t, "Look at line 3.", msg.Text())

	assert.Equal(t, "claude-sonnet-4-5", body["model"])
	system := body["system"].([]any)
	require.Len(t, system, 1)
	assert.Equal(t, "You are a tutor.", system[0].(map[string]any)["text"])

	messages := body["messages"].([]any)
	require.Len(t, messages, 1, "consecutive user turns merge")
	user := messages[0].(map[string]any)
	assert.Equal(t, "user", user["role"])

	content := user["content"].([]any)
	require.Len(t, content, 4)
	types := make([]string, len(content))
	for i, c := range content {
		types[i] = c.(map[string]any)["type"].(string)
	}
	assert.Equal(t, []string{"image", "image", "text", "text"}, types)
	first := content[0].(map[string]any)["source"].(map[string]any)
	assert.Equal(t, "base64", first["type"])
	assert.Equal(t, "image/png", first["media_type"])
	second := content[1].(map[string]any)["source"].(map[string]any)
	assert.Equal(t, "https://example.com/plot.png", second["url"])

	assert.True(t, captured.Success)
	assert.Equal(t, ProviderAnthropic, captured.Provider)
	assert.Equal(t, 2, captured.Images)
	assert.Equal(t, 1, captured.DroppedImages)
}

func TestAnthropicTransport_Send_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"type":"error","error":{"type":"api_error","message":"boom"}}`))
	}))
	defer srv.Close()

	_, err := NewAnthropicTransport(anthropicConfig(srv.URL), nil).Send(context.Background(), tutorRequest())
	assert.ErrorIs(t, err, ErrRetryExhausted)
}

func TestAnthropicTransport_Send_NoText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"msg_02","type":"message","role":"assistant","model":"claude-sonnet-4-5",
"content":[],"stop_reason":"end_turn","usage":{"input_tokens":1,"output_tokens":0}}`))
	}))
	defer srv.Close()

	_, err := NewAnthropicTransport(anthropicConfig(srv.URL), nil).Send(context.Background(), tutorRequest())
	assert.ErrorIs(t, err, ErrInvalidOutput)
}

func TestAnthropicTransport_BuildParams_AlternatesRoles(t *testing.T) {
	transport := NewAnthropicTransport(anthropicConfig(""), nil)
	params := transport.buildParams(chat.Request{Messages: []chat.Message{
		chat.NewMessage(chat.RoleUser, "cell", true),
		chat.NewMessage(chat.RoleUser, "question", false),
		chat.NewMessage(chat.RoleAssistant, "answer", false),
		chat.NewMessage(chat.RoleAssistant, "", false),
		chat.NewMessage(chat.RoleUser, "follow-up", false),
	}})

	require.Len(t, params.Messages, 3)
	assert.Len(t, params.Messages[0].Content, 2)
	assert.EqualValues(t, "assistant", params.Messages[1].Role)
	assert.Len(t, params.Messages[1].Content, 1)
	assert.EqualValues(t, "user", params.Messages[2].Role)
	assert.Empty(t, params.System)
}

func TestAnthropicTransport_BuildParams_ImagesWithoutUserTurn(t *testing.T) {
	transport := NewAnthropicTransport(anthropicConfig(""), nil)
	params := transport.buildParams(chat.Request{
		Messages: []chat.Message{chat.NewMessage(chat.RoleSystem, "sys", true)},
		Images:   []string{"https://example.com/a.png"},
	})

	require.Len(t, params.Messages, 1)
	assert.EqualValues(t, "user", params.Messages[0].Role)
	require.Len(t, params.Messages[0].Content, 1)
	assert.NotNil(t, params.Messages[0].Content[0].OfImage)
}
