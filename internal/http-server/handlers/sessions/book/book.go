package book

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

type SessionBooker interface {
	BookSession(ctx context.Context, req *api.BookSessionRequest) (*api.SessionResponse, error)
}

type Request struct {
	api.BookSessionRequest
}

type Response struct {
	response.Response
	Session api.SessionResponse `json:"session,omitempty"`
}

func New(log *slog.Logger, booker SessionBooker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.sessions.book.New"

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

		log.Info("Request body decoded", slog.Any("request", req))

		if req.SlotID == "" {
			log.Error("slot_id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "slot_id is required"))
			return
		}

		if req.MentorID == "" {
			log.Error("mentor_id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "mentor_id is required"))
			return
		}

		if req.MenteeID == "" {
			log.Error("mentee_id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "mentee_id is required"))
			return
		}

		session, err := booker.BookSession(r.Context(), &req.BookSessionRequest)

		if errors.Is(err, response.ErrValidation) {
			log.Error("validation failed", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.VALIDATION_FAILED), "topic and type are required"))
			return
		}

		if errors.Is(err, response.ErrLocked) {
			log.Error("resource is locked")
			w.WriteHeader(http.StatusLocked)
			render.JSON(w, r, response.Error(string(response.LOCKED), "resource is locked"))
			return
		}

		if errors.Is(err, response.ErrSlotInPast) {
			log.Error("slot is in the past")
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.SLOT_IN_PAST), "slot is in the past"))
			return
		}

		if errors.Is(err, response.ErrSlotNotAvailable) {
			log.Error("slot is not available")
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.SLOT_NOT_AVAILABLE), "slot is not available"))
			return
		}

		if errors.Is(err, response.ErrNotFound) {
			log.Error("resource not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "resource not found"))
			return
		}

		if err != nil {
			log.Error("Failed to book session", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to book session"))
			return
		}

		log.Info("Session booked", slog.Any("session", session))

		w.WriteHeader(http.StatusCreated)
		responseOK(w, r, session)
	}
}

func responseOK(w http.ResponseWriter, r *http.Request, session *api.SessionResponse) {
	render.JSON(w, r, Response{
		Session: *session,
	})
}
