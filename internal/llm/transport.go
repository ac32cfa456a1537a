package llm

import (
	"fmt"

	"github.com/alexanderramin/jupytutor/internal/chat"
)

// NewTransport builds the chat transport selected by cfg.Provider.
func NewTransport(cfg LLMConfig, observer Observer) (chat.Transport, error) {
	switch cfg.Provider {
	case ProviderOllama, "":
		return NewOllamaTransport(cfg, observer), nil
	case ProviderAnthropic:
		return NewAnthropicTransport(cfg, observer), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProvider, cfg.Provider)
	}
}
