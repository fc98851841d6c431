package milestone

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"mentorship-service/api"
	"mentorship-service/pkg/response"
	"mentorship-service/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type MilestoneSetter interface {
	SetMilestone(ctx context.Context, goalID string, index int, done bool) (*api.GoalResponse, error)
}

type Request struct {
	Done bool `json:"done"`
}

type Response struct {
	response.Response
	Goal api.GoalResponse `json:"goal,omitempty"`
}

func New(log *slog.Logger, setter MilestoneSetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.goals.milestone.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		goalID := chi.URLParam(r, "id")
		if goalID == "" {
			log.Error("id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "id is required"))
			return
		}

		index, err := strconv.Atoi(chi.URLParam(r, "index"))
		if err != nil {
			log.Error("Failed to parse milestone index", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "milestone index must be a number"))
			return
		}

		var req Request

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("Failed to decode request body", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "failed to decode request"))
			return
		}

		goal, err := setter.SetMilestone(r.Context(), goalID, index, req.Done)

		if errors.Is(err, response.ErrNotFound) {
			log.Error("resource not found", slog.Int("index", index))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "goal or milestone not found"))
			return
		}

		if err != nil {
			log.Error("Failed to update milestone", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to update milestone"))
			return
		}

		log.Info("Milestone updated", slog.Any("goal", goal))

		render.JSON(w, r, Response{Goal: *goal})
	}
}
