package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pantpujan017/ai-chatbot-appointment-system/internal/form"
)

// saveTimeout bounds the session write that ends a turn. The write gets its
// own context so a turn whose request was cancelled or timed out during a
// slow completion is still recorded.
const saveTimeout = 5 * time.Second

// Manager runs turns against stored sessions: load, respond, save, all while
// holding the conversation lock.
type Manager struct {
	assistant *Assistant
	store     Store
	locker    Locker
	logger    *slog.Logger
	now       func() time.Time
}

func NewManager(assistant *Assistant, store Store, locker Locker, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Manager{
		assistant: assistant,
		store:     store,
		locker:    locker,
		logger:    logger,
		now:       time.Now,
	}
}

// Reply is the outcome of one turn.
type Reply struct {
	Reply string      `json:"reply"`
	Form  form.Status `json:"form"`
}

func (m *Manager) Create(ctx context.Context) (Session, error) {
	now := m.now().UTC()
	sess := Session{
		ID:        uuid.NewString(),
		Form:      form.Snapshot{State: form.StateIdle},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := m.store.Save(ctx, sess); err != nil {
		return Session{}, fmt.Errorf("save conversation: %w", err)
	}
	m.logger.Info("conversation created", "conversation_id", sess.ID)
	return sess, nil
}

func (m *Manager) Send(ctx context.Context, id, text string) (Reply, error) {
	if strings.TrimSpace(text) == "" {
		return Reply{}, ErrEmptyMessage
	}

	var out Reply
	err := m.locked(ctx, id, func(ctx context.Context, sess *Session) error {
		reply, err := m.assistant.Respond(ctx, sess, text)
		if err != nil {
			return err
		}
		status, err := m.assistant.FormStatus(sess)
		if err != nil {
			return err
		}
		out = Reply{Reply: reply, Form: status}
		return nil
	})
	return out, err
}

func (m *Manager) Reset(ctx context.Context, id string) (form.Status, error) {
	var status form.Status
	err := m.locked(ctx, id, func(ctx context.Context, sess *Session) error {
		m.assistant.Reset(sess)
		st, err := m.assistant.FormStatus(sess)
		status = st
		return err
	})
	return status, err
}

func (m *Manager) FormStatus(ctx context.Context, id string) (form.Status, error) {
	sess, err := m.store.Get(ctx, id)
	if err != nil {
		return form.Status{}, err
	}
	return m.assistant.FormStatus(&sess)
}

func (m *Manager) History(ctx context.Context, id string) ([]Message, error) {
	sess, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return sess.History, nil
}

func (m *Manager) locked(ctx context.Context, id string, fn func(ctx context.Context, sess *Session) error) error {
	err := m.locker.WithLock(ctx, id, func(ctx context.Context) error {
		sess, err := m.store.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := fn(ctx, &sess); err != nil {
			return err
		}
		saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), saveTimeout)
		defer cancel()
		if err := m.store.Save(saveCtx, sess); err != nil {
			return fmt.Errorf("save conversation: %w", err)
		}
		return nil
	})
	if errors.Is(err, ErrConversationBusy) {
		m.logger.Warn("conversation busy", "conversation_id", id)
	}
	return err
}
