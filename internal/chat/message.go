// Package chat defines conversation messages and assembles the hidden
// context that precedes a student's question.
package chat

import (
	"context"
	"strings"
	"time"

	"github.com/alexanderramin/jupytutor/internal/notebook"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Part is one text segment of a message.
type Part struct {
	Text string `json:"text"`
}

// Message is one conversation turn. Hidden messages are sent to the model
// but never shown to the student.
type Message struct {
	ID        string    `json:"id,omitempty"`
	Role      Role      `json:"role"`
	Content   []Part    `json:"content"`
	Hidden    bool      `json:"hidden"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
}

// Text concatenates the message parts.
func (m Message) Text() string {
	if len(m.Content) == 1 {
		return m.Content[0].Text
	}
	var b strings.Builder
	for _, p := range m.Content {
		b.WriteString(p.Text)
	}
	return b.String()
}

// NewMessage builds a single-part message.
func NewMessage(role Role, text string, hidden bool) Message {
	return Message{Role: role, Content: []Part{{Text: text}}, Hidden: hidden}
}

// Request is everything a transport needs for one model call.
type Request struct {
	NotebookPath string
	CellID       string
	CellKind     notebook.CellKind
	Messages     []Message
	// Images are URLs or data URLs gathered near the active cell.
	Images []string
}

// Transport sends a conversation to a language model and returns the
// assistant's reply.
type Transport interface {
	Send(ctx context.Context, req Request) (Message, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, req Request) (Message, error)

func (f TransportFunc) Send(ctx context.Context, req Request) (Message, error) {
	return f(ctx, req)
}
