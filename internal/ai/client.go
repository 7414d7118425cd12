// Package ai is the transport to the OpenRouter completion service. It
// normalizes responses into plain text or a decoded JSON object and knows
// nothing about board invariants; validation belongs to the caller.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Errors surfaced by the gateway. Handlers map these to distinct statuses:
// missing credential is a service-availability condition (503), everything
// else upstream is a 502.
var (
	ErrMissingCredential = errors.New("openrouter api key is not configured")
	ErrUnavailable       = errors.New("failed to reach openrouter")
	ErrMalformedResponse = errors.New("openrouter response could not be parsed")
)

// UpstreamStatusError reports a non-success status from OpenRouter
type UpstreamStatusError struct {
	StatusCode int
}

func (e *UpstreamStatusError) Error() string {
	return fmt.Sprintf("openrouter request failed with status %d", e.StatusCode)
}

// Message is one turn of conversation history forwarded upstream
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Completer is the interface the chat orchestrator consumes
type Completer interface {
	CompleteText(ctx context.Context, prompt string) (string, error)
	CompleteStructured(ctx context.Context, boardJSON []byte, userMessage string, history []Message) (map[string]interface{}, error)
}

// Client talks to the OpenRouter chat-completions endpoint
type Client struct {
	APIKey      string
	URL         string
	Model       string
	TextTimeout time.Duration
	ChatTimeout time.Duration

	// HTTPClient may be replaced in tests; nil means http.DefaultClient
	HTTPClient *http.Client
}

const systemPrompt = "You are a project-management assistant. " +
	"Return only valid JSON with this schema: " +
	"{\"assistant_message\": string, \"board_update\": optional object}. " +
	"If board_update is included, it may contain \"board\" with a full board object. " +
	"Do not include markdown code fences."

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// CompleteText sends a single-turn prompt and returns the trimmed assistant
// message.
func (c *Client) CompleteText(ctx context.Context, prompt string) (string, error) {
	return c.send(ctx, c.TextTimeout, []Message{{Role: "user", Content: prompt}})
}

// CompleteStructured sends the current board, filtered history, and user
// message under the JSON-only system instruction, then extracts a JSON
// object from the assistant's reply. The reply text may wrap the object in
// incidental prose or code-fence artifacts; extraction tolerates both.
func (c *Client) CompleteStructured(ctx context.Context, boardJSON []byte, userMessage string, history []Message) (map[string]interface{}, error) {
	messages := make([]Message, 0, len(history)+2)
	messages = append(messages, Message{Role: "system", Content: systemPrompt})

	for _, item := range history {
		switch item.Role {
		case "system", "user", "assistant":
			messages = append(messages, item)
		}
	}

	messages = append(messages, Message{
		Role: "user",
		Content: fmt.Sprintf("Current board JSON:\n%s\n\nUser request:\n%s\n\nRespond with valid JSON only.",
			string(boardJSON), userMessage),
	})

	content, err := c.send(ctx, c.ChatTimeout, messages)
	if err != nil {
		return nil, err
	}

	return ExtractJSONObject(content)
}

func (c *Client) send(ctx context.Context, timeout time.Duration, messages []Message) (string, error) {
	if strings.TrimSpace(c.APIKey) == "" {
		return "", ErrMissingCredential
	}

	payload, err := json.Marshal(chatRequest{Model: c.Model, Messages: messages})
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", &UpstreamStatusError{StatusCode: resp.StatusCode}
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("%w: body is not valid JSON", ErrMalformedResponse)
	}

	if len(decoded.Choices) == 0 {
		return "", fmt.Errorf("%w: response did not include choices", ErrMalformedResponse)
	}

	content := strings.TrimSpace(decoded.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("%w: response content is empty", ErrMalformedResponse)
	}

	return content, nil
}

// ExtractJSONObject parses text as a JSON object, falling back to the
// substring between the first '{' and last '}' when a direct parse fails.
func ExtractJSONObject(text string) (map[string]interface{}, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: response content is empty", ErrMalformedResponse)
	}

	var direct interface{}
	if err := json.Unmarshal([]byte(text), &direct); err == nil {
		obj, ok := direct.(map[string]interface{})
		if !ok {
			// Valid JSON but not an object: no fallback applies
			return nil, fmt.Errorf("%w: top-level value is not an object", ErrMalformedResponse)
		}
		return obj, nil
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end <= start {
		return nil, fmt.Errorf("%w: no JSON object found", ErrMalformedResponse)
	}

	var parsed interface{}
	if err := json.Unmarshal([]byte(text[start:end+1]), &parsed); err != nil {
		return nil, fmt.Errorf("%w: no JSON object found", ErrMalformedResponse)
	}

	obj, ok := parsed.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: top-level value is not an object", ErrMalformedResponse)
	}

	return obj, nil
}
