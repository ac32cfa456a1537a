package llm

import (
	"context"
	"log/slog"
)

// LLMCallEvent records metadata about a single transport call.
type LLMCallEvent struct {
	Provider Provider
	Model    string
	Messages int
	Images   int
	// DroppedImages counts image references the provider could not accept.
	DroppedImages int
	Attempts      int
	LatencyMs     int64
	Success       bool
	ErrorCode     string
}

// Observer receives events about LLM calls for logging and metrics.
type Observer interface {
	OnCallComplete(event LLMCallEvent)
}

// LogObserver writes LLM call events to a structured logger.
type LogObserver struct {
	logger *slog.Logger
}

// NewLogObserver creates an Observer that logs events to logger.
func NewLogObserver(logger *slog.Logger) *LogObserver {
	return &LogObserver{logger: logger}
}

func (o *LogObserver) OnCallComplete(event LLMCallEvent) {
	level := slog.LevelInfo
	if !event.Success {
		level = slog.LevelWarn
	}
	o.logger.Log(context.Background(), level, "llm_call",
		"provider", event.Provider,
		"model", event.Model,
		"messages", event.Messages,
		"images", event.Images,
		"dropped_images", event.DroppedImages,
		"attempts", event.Attempts,
		"latency_ms", event.LatencyMs,
		"success", event.Success,
		"error_code", event.ErrorCode,
	)
}

// NoopObserver discards all events. Useful for tests.
type NoopObserver struct{}

func (NoopObserver) OnCallComplete(LLMCallEvent) {}
