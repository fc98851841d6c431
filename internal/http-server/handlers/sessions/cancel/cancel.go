package cancel

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

type SessionCanceller interface {
	CancelSession(ctx context.Context, sessionID string, reason *string) (*api.SessionResponse, error)
}

type Request struct {
	api.CancelSessionRequest
}

type Response struct {
	response.Response
	Session api.SessionResponse `json:"session,omitempty"`
}

func New(log *slog.Logger, canceller SessionCanceller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.sessions.cancel.New"

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

		// The body is optional: a cancel without a reason is fine.
		var req Request
		if err := render.DecodeJSON(r.Body, &req); err != nil && !errors.Is(err, io.EOF) {
			log.Error("Failed to decode request body", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "failed to decode request"))
			return
		}

		session, err := canceller.CancelSession(r.Context(), id, req.Reason)

		if errors.Is(err, response.ErrNotFound) {
			log.Error("resource not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "resource not found"))
			return
		}

		if errors.Is(err, response.ErrNotCancellable) {
			log.Error("session is not cancellable")
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.CONFLICT), "session is not cancellable"))
			return
		}

		if err != nil {
			log.Error("Failed to cancel session", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to cancel session"))
			return
		}

		log.Info("Session cancelled", slog.Any("session", session))
		responseOK(w, r, session)
	}
}

func responseOK(w http.ResponseWriter, r *http.Request, session *api.SessionResponse) {
	render.JSON(w, r, Response{
		Session: *session,
	})
}
