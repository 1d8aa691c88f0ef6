package conversation

import (
	"errors"
	"time"

	"github.com/pantpujan017/ai-chatbot-appointment-system/internal/form"
)

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrConversationBusy     = errors.New("conversation is handling another message")
	ErrEmptyMessage         = errors.New("message is empty")
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role      `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// Session is everything remembered about one conversation between turns.
type Session struct {
	ID        string        `json:"id"`
	Form      form.Snapshot `json:"form"`
	History   []Message     `json:"history"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

func (s *Session) append(role Role, content string, at time.Time) {
	s.History = append(s.History, Message{Role: role, Content: content, At: at})
	s.UpdatedAt = at
}

// Clone returns a copy that shares no slices or pointers with s.
func (s Session) Clone() Session {
	out := s
	out.Form.Record = s.Form.Record.Clone()
	out.History = append([]Message(nil), s.History...)
	return out
}
