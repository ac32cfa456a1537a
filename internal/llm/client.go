package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/alexanderramin/jupytutor/internal/chat"
)

// OllamaTransport implements chat.Transport using the Ollama chat API.
// Only data-URL images can be forwarded; remote image URLs are dropped.
type OllamaTransport struct {
	cfg      LLMConfig
	http     *http.Client
	observer Observer
}

// NewOllamaTransport creates a transport that talks to an Ollama instance.
func NewOllamaTransport(cfg LLMConfig, observer Observer) *OllamaTransport {
	if observer == nil {
		observer = NoopObserver{}
	}
	return &OllamaTransport{
		cfg: cfg,
		http: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 5 * time.Second,
				}).DialContext,
			},
		},
		observer: observer,
	}
}

// ollamaChatRequest is the JSON body sent to POST /api/chat.
type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  ollamaOptions   `json:"options,omitempty"`
}

type ollamaMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

// ollamaChatResponse is the JSON body returned by POST /api/chat (non-streaming).
type ollamaChatResponse struct {
	Model   string        `json:"model"`
	Message ollamaMessage `json:"message"`
}

func (c *OllamaTransport) Send(ctx context.Context, req chat.Request) (chat.Message, error) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout())
	defer cancel()

	inline, _ := splitImages(req.Images)
	body := ollamaChatRequest{
		Model:    c.cfg.Model,
		Messages: toOllamaMessages(req.Messages, inline),
		Stream:   false,
		Options: ollamaOptions{
			Temperature: c.cfg.Temperature,
			NumPredict:  c.cfg.MaxTokens,
		},
	}

	event := LLMCallEvent{
		Provider:      ProviderOllama,
		Model:         c.cfg.Model,
		Messages:      len(body.Messages),
		Images:        len(inline),
		DroppedImages: len(req.Images) - len(inline),
	}

	var lastErr error
	attempts := 1 + c.cfg.MaxRetries

	for i := 0; i < attempts; i++ {
		event.Attempts = i + 1
		resp, err := c.doRequest(ctx, body)
		if err == nil && strings.TrimSpace(resp.Message.Content) == "" {
			err = fmt.Errorf("%w: empty reply", ErrInvalidOutput)
		}
		if err == nil {
			event.LatencyMs = time.Since(start).Milliseconds()
			event.Success = true
			c.observer.OnCallComplete(event)
			return chat.NewMessage(chat.RoleAssistant, resp.Message.Content, false), nil
		}
		lastErr = err

		// Don't retry on context cancellation/timeout
		if ctx.Err() != nil {
			break
		}
	}

	event.LatencyMs = time.Since(start).Milliseconds()
	event.ErrorCode = errorCode(ctx, lastErr)
	c.observer.OnCallComplete(event)

	if ctx.Err() != nil {
		return chat.Message{}, ErrTimeout
	}
	if isConnectionError(lastErr) {
		return chat.Message{}, ErrUnavailable
	}
	return chat.Message{}, fmt.Errorf("%w: %w", ErrRetryExhausted, lastErr)
}

// toOllamaMessages flattens message parts and attaches images to the last
// user turn, or to the final message when there is no user turn.
func toOllamaMessages(msgs []chat.Message, images []dataImage) []ollamaMessage {
	out := make([]ollamaMessage, 0, len(msgs))
	lastUser := -1
	for _, m := range msgs {
		if m.Role == chat.RoleUser {
			lastUser = len(out)
		}
		out = append(out, ollamaMessage{Role: string(m.Role), Content: m.Text()})
	}
	if len(images) == 0 || len(out) == 0 {
		return out
	}
	target := lastUser
	if target < 0 {
		target = len(out) - 1
	}
	for _, img := range images {
		out[target].Images = append(out[target].Images, img.Data)
	}
	return out
}

func (c *OllamaTransport) doRequest(ctx context.Context, body ollamaChatRequest) (*ollamaChatResponse, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	url := c.cfg.Endpoint + "/api/chat"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama returned status %d: %s", httpResp.StatusCode, string(respBody))
	}

	var resp ollamaChatResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return &resp, nil
}

// Available checks whether the Ollama server is reachable.
func (c *OllamaTransport) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	url := c.cfg.Endpoint + "/api/tags"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	var netErr *net.OpError
	return errors.As(err, &netErr)
}

func errorCode(ctx context.Context, err error) string {
	switch {
	case err == nil:
		return ""
	case ctx.Err() != nil, errors.Is(err, ErrTimeout):
		return "TIMEOUT"
	case isConnectionError(err), errors.Is(err, ErrUnavailable):
		return "UNAVAILABLE"
	case errors.Is(err, ErrInvalidOutput):
		return "INVALID_OUTPUT"
	default:
		return "UNKNOWN"
	}
}
