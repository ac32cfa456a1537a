package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/alexanderramin/jupytutor/internal/chat"
)

// AnthropicTransport implements chat.Transport using the Anthropic
// Messages API. System messages become system blocks; images attach to the
// last user turn.
type AnthropicTransport struct {
	cfg      LLMConfig
	client   *anthropic.Client
	observer Observer
}

// NewAnthropicTransport creates a transport for the Anthropic API. Retries
// are delegated to the SDK.
func NewAnthropicTransport(cfg LLMConfig, observer Observer, opts ...option.RequestOption) *AnthropicTransport {
	if observer == nil {
		observer = NoopObserver{}
	}
	base := []option.RequestOption{option.WithMaxRetries(cfg.MaxRetries)}
	if cfg.APIKey != "" {
		base = append(base, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.Endpoint != "" {
		base = append(base, option.WithBaseURL(cfg.Endpoint))
	}
	client := anthropic.NewClient(append(base, opts...)...)
	return &AnthropicTransport{cfg: cfg, client: &client, observer: observer}
}

func (c *AnthropicTransport) Send(ctx context.Context, req chat.Request) (chat.Message, error) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout())
	defer cancel()

	params := c.buildParams(req)
	images := imageBlocks(req.Images)
	event := LLMCallEvent{
		Provider:      ProviderAnthropic,
		Model:         c.cfg.Model,
		Messages:      len(req.Messages),
		Images:        len(images),
		DroppedImages: len(req.Images) - len(images),
		Attempts:      1,
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err == nil {
		var b strings.Builder
		for _, block := range resp.Content {
			if text, ok := block.AsAny().(anthropic.TextBlock); ok {
				b.WriteString(text.Text)
			}
		}
		if strings.TrimSpace(b.String()) == "" {
			err = fmt.Errorf("%w: reply has no text blocks", ErrInvalidOutput)
		} else {
			event.LatencyMs = time.Since(start).Milliseconds()
			event.Success = true
			c.observer.OnCallComplete(event)
			return chat.NewMessage(chat.RoleAssistant, b.String(), false), nil
		}
	}

	event.LatencyMs = time.Since(start).Milliseconds()
	event.ErrorCode = errorCode(ctx, err)
	c.observer.OnCallComplete(event)

	switch {
	case ctx.Err() != nil:
		return chat.Message{}, ErrTimeout
	case isConnectionError(err):
		return chat.Message{}, ErrUnavailable
	}
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) && apiErr.StatusCode >= http.StatusInternalServerError {
		return chat.Message{}, fmt.Errorf("%w: %w", ErrRetryExhausted, err)
	}
	return chat.Message{}, err
}

// buildParams maps a chat request onto the Messages API. Consecutive turns
// with the same role are merged because the API expects alternation.
func (c *AnthropicTransport) buildParams(req chat.Request) anthropic.MessageNewParams {
	var system []anthropic.TextBlockParam
	var msgs []anthropic.MessageParam
	var roles []chat.Role

	for _, m := range req.Messages {
		text := m.Text()
		if m.Role == chat.RoleSystem {
			if text != "" {
				system = append(system, anthropic.TextBlockParam{Text: text})
			}
			continue
		}
		if text == "" {
			continue
		}
		block := anthropic.NewTextBlock(text)
		if n := len(msgs); n > 0 && roles[n-1] == m.Role {
			msgs[n-1].Content = append(msgs[n-1].Content, block)
			continue
		}
		if m.Role == chat.RoleAssistant {
			msgs = append(msgs, anthropic.NewAssistantMessage(block))
		} else {
			msgs = append(msgs, anthropic.NewUserMessage(block))
		}
		roles = append(roles, m.Role)
	}

	images := imageBlocks(req.Images)
	if len(images) > 0 {
		lastUser := -1
		for i, r := range roles {
			if r == chat.RoleUser {
				lastUser = i
			}
		}
		if lastUser < 0 {
			msgs = append(msgs, anthropic.NewUserMessage(images...))
		} else {
			msgs[lastUser].Content = append(images, msgs[lastUser].Content...)
		}
	}

	return anthropic.MessageNewParams{
		Model:       anthropic.Model(c.cfg.Model),
		MaxTokens:   int64(c.cfg.MaxTokens),
		Messages:    msgs,
		System:      system,
		Temperature: anthropic.Float(c.cfg.Temperature),
	}
}

func imageBlocks(srcs []string) []anthropic.ContentBlockParamUnion {
	blocks := make([]anthropic.ContentBlockParamUnion, 0, len(srcs))
	for _, src := range srcs {
		if img, ok := parseDataURL(src); ok {
			blocks = append(blocks, anthropic.NewImageBlockBase64(img.MediaType, img.Data))
			continue
		}
		if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
			blocks = append(blocks, anthropic.NewImageBlock(anthropic.URLImageSourceParam{URL: src}))
		}
	}
	return blocks
}
