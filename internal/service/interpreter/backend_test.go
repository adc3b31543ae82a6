package interpreter

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	openaioption "github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChatModel struct {
	reply    string
	received []*schema.Message
}

func (m *fakeChatModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	m.received = input
	return schema.AssistantMessage(m.reply, nil), nil
}

func (m *fakeChatModel) Stream(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	m.received = input
	return schema.StreamReaderFromArray([]*schema.Message{schema.AssistantMessage(m.reply, nil)}), nil
}

func (m *fakeChatModel) BindTools(_ []*schema.ToolInfo) error { return nil }

func TestEinoBackendSendsSystemAndHistory(t *testing.T) {
	chatModel := &fakeChatModel{reply: "  {\"type\":\"complete\"}  "}
	backend, err := NewEinoBackend(context.Background(), "fake", chatModel)
	require.NoError(t, err)

	text, err := backend.Generate(context.Background(), "rules {with braces}", []Message{
		{Role: RoleUser, Content: `state {"name":"Ana"}`},
		{Role: RoleAssistant, Content: "bad"},
		{Role: RoleUser, Content: "fix it"},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"type":"complete"}`, text)
	assert.Equal(t, "fake", backend.Name())

	require.Len(t, chatModel.received, 4)
	assert.Equal(t, schema.System, chatModel.received[0].Role)
	assert.Equal(t, "rules {with braces}", chatModel.received[0].Content)
	assert.Equal(t, schema.User, chatModel.received[1].Role)
	assert.Equal(t, `state {"name":"Ana"}`, chatModel.received[1].Content)
	assert.Equal(t, schema.Assistant, chatModel.received[2].Role)
	assert.Equal(t, schema.User, chatModel.received[3].Role)
}

func TestNewEinoBackendRequiresModel(t *testing.T) {
	_, err := NewEinoBackend(context.Background(), "fake", nil)
	require.Error(t, err)
}

func TestAnthropicBackendGenerate(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/messages"), "unexpected path %s", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &captured))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "msg_01",
			"type": "message",
			"role": "assistant",
			"model": "claude-test",
			"content": [{"type": "text", "text": "{\"type\":\"complete\",\"updatedAnswers\":{}}"}],
			"stop_reason": "end_turn",
			"stop_sequence": null,
			"usage": {"input_tokens": 10, "output_tokens": 5}
		}`)
	}))
	defer server.Close()

	backend := NewAnthropicBackend("test-key", "claude-test", 256,
		anthropicoption.WithBaseURL(server.URL+"/"),
		anthropicoption.WithMaxRetries(0),
	)

	text, err := backend.Generate(context.Background(), "system rules", []Message{
		{Role: RoleUser, Content: "hello"},
		{Role: RoleAssistant, Content: "bad"},
		{Role: RoleUser, Content: "again"},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"type":"complete","updatedAnswers":{}}`, text)

	assert.Equal(t, "claude-test", captured["model"])
	assert.EqualValues(t, 256, captured["max_tokens"])
	messages, ok := captured["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 3)
	assert.Equal(t, "assistant", messages[1].(map[string]any)["role"])
	assert.NotNil(t, captured["system"])
}

func TestAnthropicBackendPropagatesHTTPErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"type":"error","error":{"type":"authentication_error","message":"bad key"}}`)
	}))
	defer server.Close()

	backend := NewAnthropicBackend("bad", "claude-test", 0,
		anthropicoption.WithBaseURL(server.URL+"/"),
		anthropicoption.WithMaxRetries(0),
	)
	_, err := backend.Generate(context.Background(), "", []Message{{Role: RoleUser, Content: "hi"}})
	require.Error(t, err)
}

func TestOpenAIBackendGenerate(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"), "unexpected path %s", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &captured))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1700000000,
			"model": "gpt-test",
			"choices": [{
				"index": 0,
				"finish_reason": "stop",
				"logprobs": null,
				"message": {"role": "assistant", "content": " {\"type\":\"complete\",\"updatedAnswers\":{}} ", "refusal": null}
			}]
		}`)
	}))
	defer server.Close()

	backend := NewOpenAIBackend("test-key", "gpt-test", server.URL+"/", 128, openaioption.WithMaxRetries(0))

	text, err := backend.Generate(context.Background(), "system rules", []Message{{Role: RoleUser, Content: "hello"}})
	require.NoError(t, err)
	assert.Equal(t, `{"type":"complete","updatedAnswers":{}}`, text)

	assert.Equal(t, "gpt-test", captured["model"])
	messages, ok := captured["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].(map[string]any)["role"])
	assert.Equal(t, "user", messages[1].(map[string]any)["role"])
}
