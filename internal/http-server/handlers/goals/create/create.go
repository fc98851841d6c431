package create

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"mentorship-service/api"
	"mentorship-service/pkg/response"
	"mentorship-service/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type GoalCreator interface {
	CreateGoal(ctx context.Context, req *api.GoalRequest) (*api.GoalResponse, error)
}

type Request struct {
	api.GoalRequest
}

type Response struct {
	response.Response
	Goal api.GoalResponse `json:"goal,omitempty"`
}

func New(log *slog.Logger, creator GoalCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.goals.create.New"

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

		if req.MentorID == "" || req.MenteeID == "" {
			log.Error("mentor_id or mentee_id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "mentor_id and mentee_id are required"))
			return
		}

		if strings.TrimSpace(req.Title) == "" {
			log.Error("title is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "title is required"))
			return
		}

		goal, err := creator.CreateGoal(r.Context(), &req.GoalRequest)

		if errors.Is(err, response.ErrValidation) {
			log.Error("validation failed", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.VALIDATION_FAILED), "invalid goal"))
			return
		}

		if err != nil {
			log.Error("Failed to create goal", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to create goal"))
			return
		}

		log.Info("Goal created", slog.Any("goal", goal))

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, Response{Goal: *goal})
	}
}
