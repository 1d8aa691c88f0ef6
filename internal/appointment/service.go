package appointment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pantpujan017/ai-chatbot-appointment-system/internal/form"
)

const (
	EventAppointmentCollected = "APPOINTMENT_COLLECTED"
	EventAppointmentPublished = "APPOINTMENT_PUBLISHED"
)

type Service struct {
	repo      Repository
	publisher Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewService wires the repository and, for the handoff worker, a publisher.
// The API server passes a nil publisher.
func NewService(repo Repository, publisher Publisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// RecordCompleted stores a completed form so the handoff worker can publish it.
func (s *Service) RecordCompleted(ctx context.Context, conversationID string, rec form.Record) (*Appointment, error) {
	appt, err := FromRecord(conversationID, rec)
	if err != nil {
		return nil, err
	}

	created, err := s.repo.CreateAppointment(ctx, appt)
	if err != nil {
		return nil, fmt.Errorf("create appointment: %w", err)
	}

	s.logEvent(ctx, created.ID, EventAppointmentCollected, map[string]any{
		"conversation_id":  conversationID,
		"appointment_date": created.Payload().Date,
		"appointment_time": created.Time,
	})

	return created, nil
}

// Handoff lets the conversation layer record a completed form.
func (s *Service) Handoff(ctx context.Context, conversationID string, rec form.Record) error {
	_, err := s.RecordCompleted(ctx, conversationID, rec)
	return err
}

func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return appt, nil
}

func (s *Service) ListByConversation(ctx context.Context, conversationID string) ([]Appointment, error) {
	appts, err := s.repo.ListByConversation(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("list appointments by conversation: %w", err)
	}
	return appts, nil
}

// PublishPending is intended to be called by the worker periodically. It
// publishes up to limit collected appointments in creation order and stops at
// the first publish failure so ordering is kept.
func (s *Service) PublishPending(ctx context.Context, limit int) (int, error) {
	if s.publisher == nil {
		return 0, errors.New("no publisher configured")
	}
	if limit <= 0 {
		limit = 50
	}

	pending, err := s.repo.FindCollected(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("find collected appointments: %w", err)
	}

	published := 0
	for _, appt := range pending {
		body, err := json.Marshal(appt.Payload())
		if err != nil {
			return published, fmt.Errorf("marshal appointment %s: %w", appt.ID, err)
		}

		ev := Event{
			ID:      appt.ID.String(),
			Type:    EventAppointmentCollected,
			Key:     appt.ID.String(),
			Payload: body,
		}
		if err := s.publisher.Publish(ctx, ev); err != nil {
			return published, fmt.Errorf("publish appointment %s: %w", appt.ID, err)
		}

		_, err = s.repo.UpdateAppointmentStatus(ctx, appt.ID, StatusCollected, StatusPublished, s.now().UTC())
		if errors.Is(err, ErrAppointmentNotFound) {
			// another worker got there first
			continue
		}
		if err != nil {
			return published, fmt.Errorf("mark appointment %s published: %w", appt.ID, err)
		}

		published++
		s.logEvent(ctx, appt.ID, EventAppointmentPublished, map[string]any{})
	}

	return published, nil
}

func (s *Service) logEvent(ctx context.Context, appointmentID uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("failed to marshal event payload", "event_type", eventType, "err", err)
		data = nil
	}

	apptID := appointmentID

	ev := EventLog{
		EventType:     eventType,
		AppointmentID: &apptID,
		Payload:       data,
		CreatedAt:     s.now(),
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		s.logger.Error("failed to insert event log", "event_type", eventType, "appointment_id", appointmentID, "err", err)
	}
}
