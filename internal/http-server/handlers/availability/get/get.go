package get

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"mentorship-service/api"
	"mentorship-service/pkg/response"
	"mentorship-service/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type AvailabilityGetter interface {
	GetAvailability(ctx context.Context, mentorID string, from, to time.Time) ([]*api.DayAvailabilityResponse, error)
}

type Response struct {
	response.Response
	Days []*api.DayAvailabilityResponse `json:"days"`
}

func New(log *slog.Logger, getter AvailabilityGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.availability.get.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		mentorID := chi.URLParam(r, "id")
		if mentorID == "" {
			log.Error("mentor id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "mentor id is required"))
			return
		}

		from, err := time.Parse("2006-01-02", r.URL.Query().Get("from"))
		if err != nil {
			log.Error("Failed to parse from", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "from must be YYYY-MM-DD"))
			return
		}

		to, err := time.Parse("2006-01-02", r.URL.Query().Get("to"))
		if err != nil {
			log.Error("Failed to parse to", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "to must be YYYY-MM-DD"))
			return
		}

		days, err := getter.GetAvailability(r.Context(), mentorID, from, to)

		if errors.Is(err, response.ErrValidation) {
			log.Error("invalid range", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.VALIDATION_FAILED), "invalid date range"))
			return
		}

		if err != nil {
			log.Error("Failed to get availability", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to get availability"))
			return
		}

		log.Info("Availability retrieved", slog.Int("days", len(days)))

		if days == nil {
			days = []*api.DayAvailabilityResponse{}
		}

		render.JSON(w, r, Response{Days: days})
	}
}
