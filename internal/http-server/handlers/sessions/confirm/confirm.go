package confirm

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"mentorship-service/api"
	"mentorship-service/pkg/response"
	"mentorship-service/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type SessionConfirmer interface {
	ConfirmSession(ctx context.Context, sessionID string) (*api.SessionResponse, error)
}

type Response struct {
	response.Response
	Session api.SessionResponse `json:"session,omitempty"`
}

func New(log *slog.Logger, confirmer SessionConfirmer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.sessions.confirm.New"

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

		session, err := confirmer.ConfirmSession(r.Context(), id)

		if errors.Is(err, response.ErrNotFound) {
			log.Error("resource not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "resource not found"))
			return
		}

		if errors.Is(err, response.ErrNotConfirmable) {
			log.Error("session is not confirmable")
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.CONFLICT), "session is not confirmable"))
			return
		}

		if err != nil {
			log.Error("Failed to confirm session", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to confirm session"))
			return
		}

		log.Info("Session confirmed", slog.Any("session", session))

		render.JSON(w, r, Response{Session: *session})
	}
}
