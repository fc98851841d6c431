package publish

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

type AvailabilityPublisher interface {
	PublishAvailability(ctx context.Context, req *api.PublishAvailabilityRequest) (int, error)
}

type Request struct {
	api.PublishAvailabilityRequest
}

type Response struct {
	response.Response
	SlotsCreated int `json:"slots_created"`
}

func New(log *slog.Logger, publisher AvailabilityPublisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.availability.publish.New"

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

		if req.MentorID == "" {
			log.Error("mentor_id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "mentor_id is required"))
			return
		}

		created, err := publisher.PublishAvailability(r.Context(), &req.PublishAvailabilityRequest)

		if errors.Is(err, response.ErrValidation) {
			log.Error("validation failed", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.VALIDATION_FAILED), "invalid availability pattern"))
			return
		}

		if err != nil {
			log.Error("Failed to publish availability", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to publish availability"))
			return
		}

		log.Info("Availability published", slog.Int("slots_created", created))

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, Response{SlotsCreated: created})
	}
}
