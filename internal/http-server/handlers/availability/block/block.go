package block

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

type AvailabilityBlocker interface {
	BlockAvailability(ctx context.Context, req *api.BlockAvailabilityRequest) (int, error)
}

type Request struct {
	api.BlockAvailabilityRequest
}

type Response struct {
	response.Response
	SlotsBlocked int `json:"slots_blocked"`
}

func New(log *slog.Logger, blocker AvailabilityBlocker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.availability.block.New"

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

		if req.MentorID == "" {
			log.Error("mentor_id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "mentor_id is required"))
			return
		}

		blocked, err := blocker.BlockAvailability(r.Context(), &req.BlockAvailabilityRequest)

		if errors.Is(err, response.ErrValidation) {
			log.Error("validation failed", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.VALIDATION_FAILED), "invalid time window"))
			return
		}

		if err != nil {
			log.Error("Failed to block availability", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to block availability"))
			return
		}

		log.Info("Availability blocked", slog.Int("slots_blocked", blocked))

		render.JSON(w, r, Response{SlotsBlocked: blocked})
	}
}
