package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pantpujan017/ai-chatbot-appointment-system/internal/completion"
	"github.com/pantpujan017/ai-chatbot-appointment-system/internal/form"
)

// Searcher returns document passages relevant to a question, best first.
type Searcher interface {
	Search(ctx context.Context, query string) ([]string, error)
}

type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Handoff receives a completed appointment form.
type Handoff interface {
	Handoff(ctx context.Context, conversationID string, rec form.Record) error
}

type AssistantOption func(*Assistant)

// WithSearcher enables grounded answers. Without one every question goes to
// the general prompt.
func WithSearcher(s Searcher) AssistantOption {
	return func(a *Assistant) { a.searcher = s }
}

func WithHandoff(h Handoff) AssistantOption {
	return func(a *Assistant) { a.handoff = h }
}

func WithFormOptions(opts ...form.Option) AssistantOption {
	return func(a *Assistant) { a.formOpts = append(a.formOpts, opts...) }
}

func WithLogger(l *slog.Logger) AssistantOption {
	return func(a *Assistant) {
		if l != nil {
			a.logger = l
		}
	}
}

func WithClock(now func() time.Time) AssistantOption {
	return func(a *Assistant) {
		if now != nil {
			a.now = now
		}
	}
}

// Assistant decides, for each user message, whether it feeds the appointment
// form, starts a booking, or is answered from documents.
type Assistant struct {
	completer Completer
	searcher  Searcher
	handoff   Handoff
	formOpts  []form.Option
	logger    *slog.Logger
	now       func() time.Time
}

func NewAssistant(completer Completer, opts ...AssistantOption) *Assistant {
	a := &Assistant{
		completer: completer,
		logger:    slog.New(slog.DiscardHandler),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func apology(err error) string {
	return fmt.Sprintf("I apologize, but I encountered an error: %s. Please try rephrasing your question.", err)
}

// Respond handles one user turn and records both sides of it in sess.
// The returned error is reserved for a corrupt session; collaborator
// failures become an apologetic reply.
func (a *Assistant) Respond(ctx context.Context, sess *Session, text string) (string, error) {
	m, err := a.machine(sess)
	if err != nil {
		return "", err
	}

	now := a.now().UTC()
	sess.append(RoleUser, text, now)

	var reply string
	switch {
	case m.IsCollecting():
		reply = m.Submit(text)
		if m.IsComplete() {
			a.handOff(ctx, sess.ID, m.Record())
		}
	case DetectIntent(text) == IntentBooking:
		if m.IsComplete() {
			m.Reset()
		}
		reply = m.Start()
	default:
		reply = a.answer(ctx, text)
	}

	sess.Form = m.Snapshot()
	sess.append(RoleAssistant, reply, a.now().UTC())
	return reply, nil
}

// Reset clears the history and the form.
func (a *Assistant) Reset(sess *Session) {
	m := form.New(a.formOpts...)
	sess.Form = m.Snapshot()
	sess.History = nil
	sess.UpdatedAt = a.now().UTC()
}

func (a *Assistant) FormStatus(sess *Session) (form.Status, error) {
	m, err := a.machine(sess)
	if err != nil {
		return form.Status{}, err
	}
	return m.Status(), nil
}

func (a *Assistant) machine(sess *Session) (*form.Machine, error) {
	m := form.New(a.formOpts...)
	if err := m.Restore(sess.Form); err != nil {
		return nil, fmt.Errorf("restore form for conversation %s: %w", sess.ID, err)
	}
	return m, nil
}

func (a *Assistant) answer(ctx context.Context, question string) string {
	var passages []string
	if a.searcher != nil {
		found, err := a.searcher.Search(ctx, question)
		if err != nil {
			a.logger.Error("document search failed", "err", err)
			return apology(err)
		}
		passages = found
	}

	prompt := completion.GeneralPrompt(question)
	if len(passages) > 0 {
		prompt = completion.GroundedPrompt(question, passages)
	}

	answer, err := a.completer.Complete(ctx, prompt)
	if err != nil {
		a.logger.Error("completion failed", "err", err, "grounded", len(passages) > 0)
		return apology(err)
	}
	return strings.TrimSpace(answer)
}

func (a *Assistant) handOff(ctx context.Context, conversationID string, rec form.Record) {
	if a.handoff == nil {
		return
	}
	if err := a.handoff.Handoff(ctx, conversationID, rec); err != nil {
		a.logger.Error("appointment handoff failed", "conversation_id", conversationID, "err", err)
		return
	}
	a.logger.Info("appointment handed off", "conversation_id", conversationID)
}
