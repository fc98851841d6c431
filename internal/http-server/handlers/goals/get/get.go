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
	"github.com/go-chi/render"
)

type GoalLister interface {
	ListGoals(ctx context.Context, mentorID, menteeID string) ([]*api.GoalResponse, error)
}

type Response struct {
	response.Response
	Goals []api.GoalResponse `json:"goals"`
}

func New(log *slog.Logger, lister GoalLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.goals.get.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		mentorID := r.URL.Query().Get("mentor_id")
		menteeID := r.URL.Query().Get("mentee_id")

		if mentorID == "" && menteeID == "" {
			log.Error("mentor_id and mentee_id are empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "mentor_id or mentee_id is required"))
			return
		}

		goals, err := lister.ListGoals(r.Context(), mentorID, menteeID)

		if errors.Is(err, response.ErrNotFound) {
			log.Error("resource not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "resource not found"))
			return
		}

		if err != nil {
			log.Error("Failed to list goals", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to list goals"))
			return
		}

		log.Info("Goals retrieved", slog.Int("count", len(goals)))

		goalsResponse := make([]api.GoalResponse, len(goals))
		for i, g := range goals {
			goalsResponse[i] = *g
		}
		render.JSON(w, r, Response{Goals: goalsResponse})
	}
}
