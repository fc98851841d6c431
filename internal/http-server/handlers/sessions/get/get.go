package get

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

type SessionGetter interface {
	GetSession(ctx context.Context, id string) (*api.SessionResponse, error)
	ListSessions(ctx context.Context, userID, filter string) ([]*api.SessionResponse, error)
}

type Response struct {
	response.Response
	Sessions []api.SessionResponse `json:"sessions,omitempty"`
	Session  *api.SessionResponse  `json:"session,omitempty"`
}

func New(log *slog.Logger, getter SessionGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.sessions.get.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id := chi.URLParam(r, "id")

		if id != "" {
			session, err := getter.GetSession(r.Context(), id)

			if errors.Is(err, response.ErrNotFound) {
				log.Error("resource not found")
				w.WriteHeader(http.StatusNotFound)
				render.JSON(w, r, response.Error(string(response.NOT_FOUND), "resource not found"))
				return
			}

			if err != nil {
				log.Error("Failed to get session", sl.Err(err))
				w.WriteHeader(http.StatusInternalServerError)
				render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to get session"))
				return
			}

			log.Info("Session retrieved", slog.Any("session", session))
			render.JSON(w, r, Response{Session: session})
			return
		}

		userID := r.URL.Query().Get("user_id")
		if userID == "" {
			log.Error("user_id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "user_id is required"))
			return
		}

		filter := r.URL.Query().Get("filter")

		sessions, err := getter.ListSessions(r.Context(), userID, filter)

		if errors.Is(err, response.ErrValidation) {
			log.Error("unknown filter", slog.String("filter", filter))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.VALIDATION_FAILED), "filter must be upcoming or past"))
			return
		}

		if err != nil {
			log.Error("Failed to list sessions", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to list sessions"))
			return
		}

		log.Info("Sessions retrieved", slog.Int("count", len(sessions)))

		sessionsResponse := make([]api.SessionResponse, len(sessions))
		for i, s := range sessions {
			sessionsResponse[i] = *s
		}
		render.JSON(w, r, Response{Sessions: sessionsResponse})
	}
}
