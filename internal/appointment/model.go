package appointment

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pantpujan017/ai-chatbot-appointment-system/internal/dateresolver"
	"github.com/pantpujan017/ai-chatbot-appointment-system/internal/form"
)

type AppointmentStatus string

const (
	StatusCollected AppointmentStatus = "collected" // stored, waiting for the handoff worker
	StatusPublished AppointmentStatus = "published"
)

// Appointment is a completed form waiting for (or past) handoff to the
// people who will make the call.
type Appointment struct {
	ID             uuid.UUID
	ConversationID string
	Name           string
	Phone          string
	Email          string
	Date           time.Time
	Time           string
	Purpose        string
	Status         AppointmentStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
	PublishedAt    *time.Time
}

type EventLog struct {
	ID            int64
	EventType     string
	AppointmentID *uuid.UUID
	Payload       []byte
	CreatedAt     time.Time
}

// FromRecord builds a new appointment from a complete form record.
func FromRecord(conversationID string, rec form.Record) (Appointment, error) {
	if !rec.Complete() {
		return Appointment{}, ErrIncompleteRecord
	}

	date, err := time.Parse(dateresolver.Layout, rec.Value(form.FieldAppointmentDate))
	if err != nil {
		return Appointment{}, fmt.Errorf("%w: appointment date %q", ErrIncompleteRecord, rec.Value(form.FieldAppointmentDate))
	}

	return Appointment{
		ID:             uuid.New(),
		ConversationID: conversationID,
		Name:           rec.Value(form.FieldName),
		Phone:          rec.Value(form.FieldPhone),
		Email:          rec.Value(form.FieldEmail),
		Date:           date,
		Time:           rec.Value(form.FieldAppointmentTime),
		Purpose:        rec.Value(form.FieldPurpose),
		Status:         StatusCollected,
	}, nil
}

// Payload is the JSON body published for a collected appointment.
type Payload struct {
	AppointmentID  string    `json:"appointment_id"`
	ConversationID string    `json:"conversation_id"`
	Name           string    `json:"name"`
	Phone          string    `json:"phone"`
	Email          string    `json:"email"`
	Date           string    `json:"appointment_date"`
	Time           string    `json:"appointment_time"`
	Purpose        string    `json:"purpose"`
	CollectedAt    time.Time `json:"collected_at"`
}

func (a Appointment) Payload() Payload {
	return Payload{
		AppointmentID:  a.ID.String(),
		ConversationID: a.ConversationID,
		Name:           a.Name,
		Phone:          a.Phone,
		Email:          a.Email,
		Date:           dateresolver.Format(a.Date),
		Time:           a.Time,
		Purpose:        a.Purpose,
		CollectedAt:    a.CreatedAt,
	}
}
