package providers

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// OpenAIProvider implements Provider for OpenAI-compatible chat-completions
// APIs (OpenAI, OpenRouter, DeepSeek, local inference servers, etc.).
type OpenAIProvider struct {
	name         string
	apiKey       string
	apiBase      string
	defaultModel string
	client       *http.Client
	retryConfig  RetryConfig
	debugLogPath string // rolling raw-response log, empty = disabled
}

func NewOpenAIProvider(name, apiKey, apiBase, defaultModel string) *OpenAIProvider {
	if apiBase == "" {
		apiBase = "https://api.openai.com/v1"
	}
	apiBase = strings.TrimRight(apiBase, "/")

	return &OpenAIProvider{
		name:         name,
		apiKey:       apiKey,
		apiBase:      apiBase,
		defaultModel: defaultModel,
		client:       &http.Client{Timeout: 120 * time.Second},
		retryConfig:  DefaultRetryConfig(),
	}
}

// WithDebugLog enables appending raw assistant responses to the given file.
func (p *OpenAIProvider) WithDebugLog(path string) *OpenAIProvider {
	p.debugLogPath = path
	return p
}

func (p *OpenAIProvider) Name() string         { return p.name }
func (p *OpenAIProvider) DefaultModel() string { return p.defaultModel }

func (p *OpenAIProvider) resolveModel(model string) string {
	if model == "" {
		return p.defaultModel
	}
	return model
}

// Chat sends a non-streaming request and returns the normalized text:
// any native tool_calls are rendered into an appended <action> block.
func (p *OpenAIProvider) Chat(ctx context.Context, req ChatRequest) (string, error) {
	body := p.buildRequestBody(p.resolveModel(req.Model), req, false)

	return RetryDo(ctx, p.retryConfig, func() (string, error) {
		respBody, err := p.doRequest(ctx, "/chat/completions", body)
		if err != nil {
			return "", err
		}
		defer respBody.Close()

		var oaiResp openAIResponse
		if err := json.NewDecoder(respBody).Decode(&oaiResp); err != nil {
			return "", fmt.Errorf("%s: decode response: %w", p.name, err)
		}

		text := p.normalizeResponse(&oaiResp)
		p.debugLog(text)
		return text, nil
	})
}

// ChatStream sends a streaming request. Text deltas are forwarded to onChunk
// as they arrive; native tool_calls are accumulated across deltas and flushed
// as one rendered <action> chunk at the end of the stream.
func (p *OpenAIProvider) ChatStream(ctx context.Context, req ChatRequest, onChunk func(string)) (string, error) {
	body := p.buildRequestBody(p.resolveModel(req.Model), req, true)

	// Retry covers only the connection phase; an interrupted stream returns
	// whatever was captured so far along with the error.
	respBody, err := RetryDo(ctx, p.retryConfig, func() (io.ReadCloser, error) {
		return p.doRequest(ctx, "/chat/completions", body)
	})
	if err != nil {
		return "", err
	}
	defer respBody.Close()

	var captured strings.Builder
	accumulators := make(map[int]*toolCallAccumulator)

	scanner := bufio.NewScanner(respBody)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimPrefix(line, "data: ")
		if data == "[DONE]" {
			break
		}

		var chunk openAIStreamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			continue
		}
		if len(chunk.Choices) == 0 {
			continue
		}

		delta := chunk.Choices[0].Delta
		if delta.Content != "" {
			captured.WriteString(delta.Content)
			if onChunk != nil {
				onChunk(delta.Content)
			}
		}

		for _, tc := range delta.ToolCalls {
			acc, ok := accumulators[tc.Index]
			if !ok {
				acc = &toolCallAccumulator{name: strings.TrimSpace(tc.Function.Name)}
				accumulators[tc.Index] = acc
			}
			if tc.Function.Name != "" {
				acc.name = strings.TrimSpace(tc.Function.Name)
			}
			acc.rawArgs += tc.Function.Arguments
		}
	}
	scanErr := scanner.Err()

	if len(accumulators) > 0 {
		calls := make([]nativeToolCall, 0, len(accumulators))
		for i := 0; i < len(accumulators); i++ {
			acc, ok := accumulators[i]
			if !ok {
				continue
			}
			args := make(map[string]interface{})
			_ = json.Unmarshal([]byte(acc.rawArgs), &args)
			calls = append(calls, nativeToolCall{Name: acc.name, Arguments: args})
		}
		block := renderActionBlock(calls)
		if captured.Len() > 0 {
			captured.WriteString("\n")
		}
		captured.WriteString(block)
		if onChunk != nil {
			onChunk("\n" + block)
		}
	}

	text := captured.String()
	p.debugLog(text)

	if scanErr != nil {
		// Partial response is still usable by the caller.
		return text, fmt.Errorf("%s: stream interrupted: %w", p.name, scanErr)
	}
	return text, nil
}

// ListModels fetches the model IDs available at the endpoint.
func (p *OpenAIProvider) ListModels(ctx context.Context) ([]string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, "GET", p.apiBase+"/models", nil)
	if err != nil {
		return nil, fmt.Errorf("%s: create request: %w", p.name, err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s: request failed: %w", p.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, &HTTPError{Status: resp.StatusCode, Body: fmt.Sprintf("%s: %s", p.name, string(respBody))}
	}

	var parsed struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%s: decode models: %w", p.name, err)
	}

	models := make([]string, 0, len(parsed.Data))
	for _, m := range parsed.Data {
		models = append(models, m.ID)
	}
	return models, nil
}

func (p *OpenAIProvider) buildRequestBody(model string, req ChatRequest, stream bool) map[string]interface{} {
	msgs := make([]map[string]interface{}, 0, len(req.Messages))
	for _, m := range req.Messages {
		msgs = append(msgs, map[string]interface{}{
			"role":    m.Role,
			"content": m.Content,
		})
	}

	body := map[string]interface{}{
		"model":    model,
		"messages": msgs,
		"stream":   stream,
	}

	if len(req.Tools) > 0 {
		body["tools"] = req.Tools
		body["tool_choice"] = "auto"
	}

	if v, ok := req.Options[OptMaxTokens]; ok {
		body["max_tokens"] = v
	}
	if v, ok := req.Options[OptTemperature]; ok {
		body["temperature"] = v
	}

	return body
}

func (p *OpenAIProvider) doRequest(ctx context.Context, path string, body interface{}) (io.ReadCloser, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%s: marshal request: %w", p.name, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", p.apiBase+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: create request: %w", p.name, err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s: request failed: %w", p.name, err)
	}

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, &HTTPError{
			Status:     resp.StatusCode,
			Body:       fmt.Sprintf("%s: %s", p.name, string(respBody)),
			RetryAfter: ParseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}

	return resp.Body, nil
}

// normalizeResponse flattens a non-streaming response into tagged text.
func (p *OpenAIProvider) normalizeResponse(resp *openAIResponse) string {
	if len(resp.Choices) == 0 {
		return ""
	}

	msg := resp.Choices[0].Message
	text := msg.Content

	if len(msg.ToolCalls) > 0 {
		calls := make([]nativeToolCall, 0, len(msg.ToolCalls))
		for _, tc := range msg.ToolCalls {
			args := make(map[string]interface{})
			_ = json.Unmarshal([]byte(tc.Function.Arguments), &args)
			calls = append(calls, nativeToolCall{
				Name:      strings.TrimSpace(tc.Function.Name),
				Arguments: args,
			})
		}
		block := renderActionBlock(calls)
		if text != "" {
			text += "\n"
		}
		text += block
	}

	return text
}

func (p *OpenAIProvider) debugLog(text string) {
	if p.debugLogPath == "" {
		return
	}
	_ = os.MkdirAll(filepath.Dir(p.debugLogPath), 0755)
	f, err := os.OpenFile(p.debugLogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return
	}
	defer f.Close()

	// Keep the log bounded: truncate once it grows past 5 MiB.
	if info, err := f.Stat(); err == nil && info.Size() > 5*1024*1024 {
		f.Truncate(0)
	}
	fmt.Fprintf(f, "--- %s ---\n%s\n", time.Now().UTC().Format(time.RFC3339), text)
}

// --- OpenAI wire types ---

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content   string           `json:"content"`
			ToolCalls []openAIToolCall `json:"tool_calls"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage *openAIUsage `json:"usage"`
}

type openAIToolCall struct {
	ID       string `json:"id"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type openAIStreamChunk struct {
	Choices []struct {
		Delta struct {
			Content   string                 `json:"content"`
			ToolCalls []openAIToolCallDelta  `json:"tool_calls"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

type openAIToolCallDelta struct {
	Index    int    `json:"index"`
	ID       string `json:"id"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type openAIUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type toolCallAccumulator struct {
	name    string
	rawArgs string
}
