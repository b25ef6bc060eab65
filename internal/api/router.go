package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

func Router(h *Handler, log logrus.FieldLogger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(log))
	r.Use(middleware.Recoverer)

	r.Get("/health", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/messaging", func(r chi.Router) {
		r.Post("/process-scheduled-messages", h.ProcessScheduled)
		r.Get("/process-scheduled-messages", h.ProcessScheduled)

		r.Get("/messages/{id}/logs", h.ListMessageLogs)

		r.Get("/scheduler/status", h.SchedulerStatus)
		r.Post("/scheduler/start", h.SchedulerStart)
		r.Post("/scheduler/stop", h.SchedulerStop)
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("church-messaging"))
	})

	return r
}
