package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrIncompleteRecord    = errors.New("appointment record is incomplete")
)

// Repository contains all DB interactions needed by the service.
type Repository interface {
	CreateAppointment(ctx context.Context, a Appointment) (*Appointment, error)
	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	ListByConversation(ctx context.Context, conversationID string) ([]Appointment, error)

	// Handoff worker
	FindCollected(ctx context.Context, limit int) ([]Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus, at time.Time) (*Appointment, error)

	// Event logging
	InsertEvent(ctx context.Context, ev EventLog) error
}

// Event is one message handed to a Publisher.
type Event struct {
	ID      string
	Type    string
	Key     string
	Payload []byte
}

// Publisher delivers collected appointments downstream.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}
