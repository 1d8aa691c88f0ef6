package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pantpujan017/ai-chatbot-appointment-system/internal/appointment"
	"github.com/pantpujan017/ai-chatbot-appointment-system/internal/conversation"
	"github.com/pantpujan017/ai-chatbot-appointment-system/internal/documents"
	"github.com/pantpujan017/ai-chatbot-appointment-system/internal/form"
)

const maxUploadBytes = 10 << 20

type ConversationService interface {
	Create(ctx context.Context) (conversation.Session, error)
	Send(ctx context.Context, id, text string) (conversation.Reply, error)
	Reset(ctx context.Context, id string) (form.Status, error)
	FormStatus(ctx context.Context, id string) (form.Status, error)
	History(ctx context.Context, id string) ([]conversation.Message, error)
}

type DocumentService interface {
	Ingest(ctx context.Context, name string, data []byte) (documents.Ingested, error)
	List(ctx context.Context) ([]documents.DocumentSummary, error)
}

type AppointmentService interface {
	GetAppointment(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error)
	ListByConversation(ctx context.Context, conversationID string) ([]appointment.Appointment, error)
}

func createConversationHandler(svc ConversationService, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := svc.Create(r.Context())
		if err != nil {
			handleConversationError(w, r, logger, err)
			return
		}

		writeJSON(w, http.StatusCreated, CreateConversationResponse{
			ConversationID: sess.ID,
			CreatedAt:      sess.CreatedAt,
		})
	}
}

func sendMessageHandler(svc ConversationService, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SendMessageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		out, err := svc.Send(r.Context(), chi.URLParam(r, "id"), req.Message)
		if err != nil {
			handleConversationError(w, r, logger, err)
			return
		}

		writeJSON(w, http.StatusOK, SendMessageResponse{Reply: out.Reply, Form: out.Form})
	}
}

func resetConversationHandler(svc ConversationService, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, err := svc.Reset(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			handleConversationError(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, FormResponse{Form: status})
	}
}

func formStatusHandler(svc ConversationService, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, err := svc.FormStatus(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			handleConversationError(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, FormResponse{Form: status})
	}
}

func historyHandler(svc ConversationService, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		msgs, err := svc.History(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			handleConversationError(w, r, logger, err)
			return
		}
		if msgs == nil {
			msgs = []conversation.Message{}
		}
		writeJSON(w, http.StatusOK, HistoryResponse{Messages: msgs})
	}
}

func conversationAppointmentsHandler(svc AppointmentService, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		appts, err := svc.ListByConversation(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			logger.Error("list appointments failed", "err", err, "request_id", GetRequestID(r.Context()))
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		resp := make([]AppointmentResponse, 0, len(appts))
		for i := range appts {
			resp = append(resp, toAppointmentResponse(&appts[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func getAppointmentHandler(svc AppointmentService, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		appt, err := svc.GetAppointment(r.Context(), id)
		if err != nil {
			if errors.Is(err, appointment.ErrAppointmentNotFound) {
				writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
				return
			}
			logger.Error("get appointment failed", "err", err, "request_id", GetRequestID(r.Context()))
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func uploadDocumentHandler(svc DocumentService, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

		file, header, err := r.FormFile("file")
		if err != nil {
			if tooLarge(err) {
				writeError(w, http.StatusRequestEntityTooLarge, "upload_too_large", err.Error())
				return
			}
			writeError(w, http.StatusBadRequest, "invalid_upload", "multipart field \"file\" is required")
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			if tooLarge(err) {
				writeError(w, http.StatusRequestEntityTooLarge, "upload_too_large", err.Error())
				return
			}
			writeError(w, http.StatusBadRequest, "invalid_upload", err.Error())
			return
		}

		res, err := svc.Ingest(r.Context(), header.Filename, data)
		switch {
		case errors.Is(err, documents.ErrUnsupportedDocument):
			writeError(w, http.StatusUnsupportedMediaType, "unsupported_document", err.Error())
			return
		case errors.Is(err, documents.ErrEmptyDocument):
			writeError(w, http.StatusUnprocessableEntity, "empty_document", err.Error())
			return
		case err != nil:
			logger.Error("ingest document failed", "err", err, "request_id", GetRequestID(r.Context()))
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusCreated, res)
	}
}

func tooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

func listDocumentsHandler(svc DocumentService, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		docs, err := svc.List(r.Context())
		if err != nil {
			logger.Error("list documents failed", "err", err, "request_id", GetRequestID(r.Context()))
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		if docs == nil {
			docs = []documents.DocumentSummary{}
		}
		writeJSON(w, http.StatusOK, docs)
	}
}

func handleConversationError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, conversation.ErrConversationNotFound):
		writeError(w, http.StatusNotFound, "conversation_not_found", err.Error())
	case errors.Is(err, conversation.ErrEmptyMessage):
		writeError(w, http.StatusBadRequest, "empty_message", err.Error())
	case errors.Is(err, conversation.ErrConversationBusy):
		writeError(w, http.StatusConflict, "conversation_busy", "conversation is handling another message, please retry shortly")
	default:
		logger.Error("conversation request failed", "err", err, "request_id", GetRequestID(r.Context()))
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
