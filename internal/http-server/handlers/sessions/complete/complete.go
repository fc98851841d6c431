package complete

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"mentorship-service/api"
	"mentorship-service/pkg/response"
	"mentorship-service/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type SessionCompleter interface {
	CompleteSession(ctx context.Context, sessionID string, notes *string) (*api.SessionResponse, error)
}

type Request struct {
	api.CompleteSessionRequest
}

type Response struct {
	response.Response
	Session api.SessionResponse `json:"session,omitempty"`
}

func New(log *slog.Logger, completer SessionCompleter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.sessions.complete.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id := chi.URLParam(r, "id")
		if id == "" {
			log.Error("id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "id is required"))
			return
		}

		// Notes are optional, so an empty body is accepted.
		var req Request
		if err := render.DecodeJSON(r.Body, &req); err != nil && !errors.Is(err, io.EOF) {
			log.Error("Failed to decode request body", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "failed to decode request"))
			return
		}

		session, err := completer.CompleteSession(r.Context(), id, req.Notes)

		if errors.Is(err, response.ErrNotFound) {
			log.Error("resource not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "resource not found"))
			return
		}

		if errors.Is(err, response.ErrNotCompletable) {
			log.Error("session is not completable")
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.CONFLICT), "session is not completable"))
			return
		}

		if err != nil {
			log.Error("Failed to complete session", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to complete session"))
			return
		}

		log.Info("Session completed", slog.Any("session", session))

		render.JSON(w, r, Response{Session: *session})
	}
}
