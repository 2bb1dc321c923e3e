package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type RouterConfig struct {
	Containers *ContainerHandler
	Slots      *SlotHandler
	Timetables *TimetableHandler
	// Metrics serves GET /metrics when set.
	Metrics http.Handler
	// Instrument wraps every routed request, typically telemetry.Metrics.Middleware.
	Instrument func(http.Handler) http.Handler
	Logger     *slog.Logger
	Middleware []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	if cfg.Instrument != nil {
		r.Use(cfg.Instrument)
	}
	for _, mw := range cfg.Middleware {
		if mw != nil {
			r.Use(mw)
		}
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	r.Group(func(r chi.Router) {
		r.Use(IdentifyPrincipal(cfg.Logger))

		if h := cfg.Containers; h != nil {
			r.Route("/containers", func(r chi.Router) {
				r.Get("/", h.List)
				r.Post("/", h.Create)
				r.Route("/{containerID}", func(r chi.Router) {
					r.Get("/", h.Get)
					r.Delete("/", h.Delete)
					r.Post("/publish", h.Publish)
					r.Post("/activate", h.Activate)
					r.Post("/archive", h.Archive)
					if s := cfg.Slots; s != nil {
						r.Get("/slots", s.List)
						r.Post("/slots", s.Create)
						r.Post("/conflicts", s.CheckConflicts)
					}
				})
			})
			r.Get("/classes/{classID}/exams", h.ClassExams)
			r.Get("/classes/{classID}/assessments", h.ClassAssessments)
		}

		if s := cfg.Slots; s != nil {
			r.Put("/slots/{slotID}", s.Update)
			r.Delete("/slots/{slotID}", s.Delete)
		}

		if t := cfg.Timetables; t != nil {
			r.Post("/timetables/generate", t.Generate)
			r.Get("/classes/{classID}/timetable/active", t.Active)
			r.Get("/classes/{classID}/lessons", t.Lessons)
		}
	})

	return r
}
