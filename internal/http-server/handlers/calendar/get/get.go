package get

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"mentorship-service/api"
	"mentorship-service/pkg/response"
	"mentorship-service/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type CalendarGetter interface {
	GetCalendar(ctx context.Context, mentorID string, year int, month time.Month) ([]api.CalendarDayResponse, error)
}

type Response struct {
	response.Response
	Days []api.CalendarDayResponse `json:"days"`
}

func New(log *slog.Logger, getter CalendarGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.calendar.get.New"

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

		year, err := strconv.Atoi(r.URL.Query().Get("year"))
		if err != nil {
			log.Error("Failed to parse year", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "year is required"))
			return
		}

		month, err := strconv.Atoi(r.URL.Query().Get("month"))
		if err != nil {
			log.Error("Failed to parse month", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "month is required"))
			return
		}

		days, err := getter.GetCalendar(r.Context(), mentorID, year, time.Month(month))

		if errors.Is(err, response.ErrValidation) {
			log.Error("invalid month", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.VALIDATION_FAILED), "month must be 1-12"))
			return
		}

		if err != nil {
			log.Error("Failed to get calendar", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to get calendar"))
			return
		}

		log.Info("Calendar retrieved", slog.Int("days", len(days)))

		render.JSON(w, r, Response{Days: days})
	}
}
