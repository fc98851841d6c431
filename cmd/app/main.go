package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"mentorship-service/internal/app"
	"mentorship-service/internal/config"
	availBlock "mentorship-service/internal/http-server/handlers/availability/block"
	availGet "mentorship-service/internal/http-server/handlers/availability/get"
	availPublish "mentorship-service/internal/http-server/handlers/availability/publish"
	calendarGet "mentorship-service/internal/http-server/handlers/calendar/get"
	goalCreate "mentorship-service/internal/http-server/handlers/goals/create"
	goalGet "mentorship-service/internal/http-server/handlers/goals/get"
	goalMilestone "mentorship-service/internal/http-server/handlers/goals/milestone"
	sessionBook "mentorship-service/internal/http-server/handlers/sessions/book"
	sessionCancel "mentorship-service/internal/http-server/handlers/sessions/cancel"
	sessionComplete "mentorship-service/internal/http-server/handlers/sessions/complete"
	sessionConfirm "mentorship-service/internal/http-server/handlers/sessions/confirm"
	sessionGet "mentorship-service/internal/http-server/handlers/sessions/get"
	sessionReschedule "mentorship-service/internal/http-server/handlers/sessions/reschedule"
	"mentorship-service/internal/lock"
	"mentorship-service/internal/meeting"
	"mentorship-service/internal/notify"
	svc "mentorship-service/internal/service"
	"mentorship-service/internal/storage/postgres"
	slogpretty "mentorship-service/pkg/handlers/slogPretty"
	"mentorship-service/pkg/middleware/mwLogger"
	"mentorship-service/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Idempotency-Key")
		w.Header().Set("Content-Type", "application/json; charset=utf-8")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func main() {

	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)

	log.Info("Starting API", slog.String("env", cfg.Env))
	log.Debug("Debug messages are enabled")

	storage, err := postgres.New(cfg.StoragePath)
	if err != nil {
		log.Error("Failed to init storage", sl.Err(err))
		os.Exit(1)
	}

	migrator, err := app.NewMigrator(storage.DB(), cfg.MigrationsPath)
	if err != nil {
		log.Error("Failed to init migrator", sl.Err(err))
		os.Exit(1)
	}

	if err := migrator.Run(context.Background()); err != nil {
		log.Error("Failed to apply migrations", sl.Err(err))
		os.Exit(1)
	}

	if version, err := migrator.Version(context.Background()); err == nil {
		log.Info("Migrations applied", slog.Int64("version", version))
	}

	locker, err := lock.NewRedisLock(cfg.RedisAddr)
	if err != nil {
		log.Error("Failed to init redis lock", sl.Err(err))
		os.Exit(1)
	}

	notifier := notify.NewLogDispatcher(log)
	meetings := meeting.NewStaticProvisioner(cfg.MeetingBaseURL)

	service := svc.NewService(storage, locker, notifier, meetings)

	if cfg.AutoConfirm {
		service.SetConfirmPolicy(func(ctx context.Context, mentorID string) bool {
			return true
		})
	}

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(mwLogger.New(log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.URLFormat)
	router.Use(CORS)

	// Availability
	router.Get("/mentors/{id}/availability", availGet.New(log, service))
	router.Post("/availability/publish", availPublish.New(log, service))
	router.Post("/availability/block", availBlock.New(log, service))

	// Calendar
	router.Get("/mentors/{id}/calendar", calendarGet.New(log, service))

	// Sessions
	router.Post("/sessions", sessionBook.New(log, service))
	router.Get("/sessions", sessionGet.New(log, service))
	router.Get("/sessions/{id}", sessionGet.New(log, service))
	router.Put("/sessions/{id}/cancel", sessionCancel.New(log, service))
	router.Post("/sessions/reschedule", sessionReschedule.New(log, service))
	router.Post("/sessions/{id}/confirm", sessionConfirm.New(log, service))
	router.Post("/sessions/{id}/complete", sessionComplete.New(log, service))

	// Goals
	router.Post("/goals", goalCreate.New(log, service))
	router.Get("/goals", goalGet.New(log, service))
	router.Put("/goals/{id}/milestones/{index}", goalMilestone.New(log, service))

	serv := &http.Server{
		Addr:         cfg.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	serverErrCh := make(chan error, 1)

	go func() {
		log.Info("Starting HTTP server", slog.String("addr", cfg.Address))
		if err := serv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- err
		} else {
			serverErrCh <- nil
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("Received shutdown signal", slog.String("signal", sig.String()))
	case err := <-serverErrCh:
		if err != nil {
			log.Error("HTTP server stopped unexpectedly", sl.Err(err))
		} else {
			log.Info("HTTP server stopped gracefully")
		}
	}

	shutdownTimeout := cfg.HTTPServer.ShutdownTimeout

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	log.Info("Shutting down HTTP server", slog.String("timeout", shutdownTimeout.String()))

	if err := serv.Shutdown(ctx); err != nil {
		log.Error("Server shutdown failed", sl.Err(err))
	} else {
		log.Info("Server shutdown complete")
	}

	if storage != nil {
		if err := storage.Close(); err != nil {
			log.Error("Failed to close storage", sl.Err(err))
		} else {
			log.Info("Storage closed")
		}
	} else {
		log.Debug("Storage is nil, nothing to close")
	}

	if locker != nil {
		if err := locker.Close(); err != nil {
			log.Error("Failed to close locker", sl.Err(err))
		} else {
			log.Info("Locker closed")
		}
	}

	log.Info("Shutdown finished, server stopped")

}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger
	switch env {
	case envLocal:
		log = setupPrettySlog()
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}

func setupPrettySlog() *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	handler := opts.NewPrettyHandler(os.Stdout)

	return slog.New(handler)
}
