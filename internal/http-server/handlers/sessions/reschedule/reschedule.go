package reschedule

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"mentorship-service/api"
	"mentorship-service/pkg/response"
	"mentorship-service/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type SessionRescheduler interface {
	RescheduleSession(ctx context.Context, sessionID, newSlotID string) (*api.SessionResponse, error)
}

type Request struct {
	api.RescheduleSessionRequest
}

type Response struct {
	response.Response
	Session api.SessionResponse `json:"session,omitempty"`
}

func New(log *slog.Logger, rescheduler SessionRescheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.sessions.reschedule.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("Failed to decode request body", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "failed to decode request"))
			return
		}

		if req.SessionID == "" {
			log.Error("session_id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "session_id is required"))
			return
		}

		if req.NewSlotID == "" {
			log.Error("new_slot_id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "new_slot_id is required"))
			return
		}

		session, err := rescheduler.RescheduleSession(r.Context(), req.SessionID, req.NewSlotID)

		if errors.Is(err, response.ErrNotFound) {
			log.Error("resource not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "resource not found"))
			return
		}

		if errors.Is(err, response.ErrNotReschedulable) {
			log.Error("session is not reschedulable")
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.CONFLICT), "session is not reschedulable"))
			return
		}

		if errors.Is(err, response.ErrCrossMentorReschedule) {
			log.Error("cross-mentor reschedule rejected")
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.CONFLICT), "new slot belongs to a different mentor"))
			return
		}

		if errors.Is(err, response.ErrSlotInPast) {
			log.Error("new slot is in the past")
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.SLOT_IN_PAST), "new slot is in the past"))
			return
		}

		if errors.Is(err, response.ErrSlotNotAvailable) {
			log.Error("slot is not available")
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.SLOT_NOT_AVAILABLE), "slot is not available"))
			return
		}

		if errors.Is(err, response.ErrLocked) {
			log.Error("resource is locked")
			w.WriteHeader(http.StatusLocked)
			render.JSON(w, r, response.Error(string(response.LOCKED), "resource is locked"))
			return
		}

		if err != nil {
			log.Error("Failed to reschedule session", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to reschedule session"))
			return
		}

		log.Info("Session rescheduled", slog.Any("session", session))
		responseOK(w, r, session)
	}
}

func responseOK(w http.ResponseWriter, r *http.Request, session *api.SessionResponse) {
	render.JSON(w, r, Response{
		Session: *session,
	})
}
