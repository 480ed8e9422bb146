package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatNormalizesNativeToolCalls(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, false, body["stream"])

		fmt.Fprint(w, `{
			"choices": [{
				"message": {
					"content": "Let me look.",
					"tool_calls": [{
						"id": "call_1",
						"function": {"name": "read_file", "arguments": "{\"path\":\"a.txt\"}"}
					}]
				},
				"finish_reason": "tool_calls"
			}]
		}`)
	}))
	defer server.Close()

	p := NewOpenAIProvider("openai", "sk-test", server.URL, "gpt-4o")
	text, err := p.Chat(context.Background(), ChatRequest{
		Messages: []Message{{Role: "user", Content: "read a.txt"}},
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(text, "Let me look.\n"))
	assert.Contains(t, text, `<invoke tool="read_file">`)
	assert.Contains(t, text, `<param name="path">a.txt</param>`)
	assert.True(t, strings.HasSuffix(text, "</action>"))
}

func TestChatStreamAccumulatesToolCallDeltas(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		chunks := []string{
			`{"choices":[{"delta":{"content":"Think"}}]}`,
			`{"choices":[{"delta":{"content":"ing."}}]}`,
			`{"choices":[{"delta":{"tool_calls":[{"index":0,"function":{"name":"grep_search","arguments":"{\"pat"}}]}}]}`,
			`{"choices":[{"delta":{"tool_calls":[{"index":0,"function":{"arguments":"tern\":\"x\"}"}}]}}]}`,
		}
		for _, c := range chunks {
			fmt.Fprintf(w, "data: %s\n", c)
		}
		fmt.Fprint(w, "data: [DONE]\n")
	}))
	defer server.Close()

	p := NewOpenAIProvider("openai", "sk-test", server.URL, "gpt-4o")

	var streamed strings.Builder
	text, err := p.ChatStream(context.Background(), ChatRequest{
		Messages: []Message{{Role: "user", Content: "search"}},
	}, func(s string) { streamed.WriteString(s) })
	require.NoError(t, err)

	assert.Contains(t, text, "Thinking.")
	assert.Contains(t, text, `<invoke tool="grep_search">`)
	assert.Contains(t, text, `<param name="pattern">x</param>`)
	// The rendered block is also delivered through the chunk callback so the
	// captured stream equals the returned text.
	assert.Equal(t, text, streamed.String())
}

func TestChatHTTPErrorSurfaced(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":"bad key"}`)
	}))
	defer server.Close()

	p := NewOpenAIProvider("openai", "sk-bad", server.URL, "gpt-4o")
	_, err := p.Chat(context.Background(), ChatRequest{Messages: []Message{{Role: "user", Content: "hi"}}})
	require.Error(t, err)

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Status)
}

func TestListModels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/models", r.URL.Path)
		fmt.Fprint(w, `{"data":[{"id":"gpt-4o"},{"id":"gpt-4o-mini"}]}`)
	}))
	defer server.Close()

	p := NewOpenAIProvider("openai", "sk-test", server.URL, "gpt-4o")
	models, err := p.ListModels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"gpt-4o", "gpt-4o-mini"}, models)
}
