package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/pantpujan017/ai-chatbot-appointment-system/internal/appointment"
	"github.com/pantpujan017/ai-chatbot-appointment-system/internal/conversation"
	"github.com/pantpujan017/ai-chatbot-appointment-system/internal/dateresolver"
	"github.com/pantpujan017/ai-chatbot-appointment-system/internal/form"
)

type CreateConversationResponse struct {
	ConversationID string    `json:"conversation_id"`
	CreatedAt      time.Time `json:"created_at"`
}

type SendMessageRequest struct {
	Message string `json:"message"`
}

type SendMessageResponse struct {
	Reply string      `json:"reply"`
	Form  form.Status `json:"form"`
}

type FormResponse struct {
	Form form.Status `json:"form"`
}

type HistoryResponse struct {
	Messages []conversation.Message `json:"messages"`
}

type AppointmentResponse struct {
	ID              uuid.UUID  `json:"id"`
	ConversationID  string     `json:"conversation_id"`
	Name            string     `json:"name"`
	Phone           string     `json:"phone"`
	Email           string     `json:"email"`
	AppointmentDate string     `json:"appointment_date"`
	AppointmentTime string     `json:"appointment_time"`
	Purpose         string     `json:"purpose"`
	Status          string     `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
	PublishedAt     *time.Time `json:"published_at,omitempty"`
}

func toAppointmentResponse(a *appointment.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:              a.ID,
		ConversationID:  a.ConversationID,
		Name:            a.Name,
		Phone:           a.Phone,
		Email:           a.Email,
		AppointmentDate: dateresolver.Format(a.Date),
		AppointmentTime: a.Time,
		Purpose:         a.Purpose,
		Status:          string(a.Status),
		CreatedAt:       a.CreatedAt,
		PublishedAt:     a.PublishedAt,
	}
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
