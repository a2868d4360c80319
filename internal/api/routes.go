package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yegors/vidscribe/internal/config"
	"github.com/yegors/vidscribe/internal/session"
	"github.com/yegors/vidscribe/pkg/logger"
)

// Router is the API router
type Router struct {
	handler    *Handler
	middleware *Middleware
	config     *config.Config
	logger     *logger.Logger
}

// NewRouter creates a new API router
func NewRouter(sess *session.Session, config *config.Config, logger *logger.Logger) *Router {
	return &Router{
		handler:    NewHandler(sess, config, logger),
		middleware: NewMiddleware(logger),
		config:     config,
		logger:     logger.Named("api-router"),
	}
}

// Routes returns the API routes
func (r *Router) Routes() http.Handler {
	router := chi.NewRouter()

	router.Use(r.middleware.RequestID)
	router.Use(r.middleware.Logger)
	router.Use(r.middleware.Recoverer)
	router.Use(r.middleware.CORS(r.config.Server.CORSAllowedOrigins))

	router.Route("/api/v1", func(router chi.Router) {
		router.Get("/health", r.handler.GetHealth)
		router.Get("/config", r.handler.GetConfig)
		router.Get("/session", r.handler.GetSession)

		// Settings
		router.Get("/settings", r.handler.GetSettings)
		router.Put("/settings", r.handler.PutSettings)
		router.Post("/settings/{key}/toggle", r.handler.ToggleSetting)

		// File selection and processing trigger
		router.Group(func(router chi.Router) {
			router.Use(r.middleware.RateLimit(r.config.Server.UploadRatePerMinute))
			router.Post("/file", r.handler.UploadFile)
			router.Post("/transcriptions", r.handler.StartTranscription)
		})
		router.Delete("/file", r.handler.ClearFile)

		// Progress
		router.Get("/status", r.handler.GetStatus)
		router.Get("/events", r.handler.GetEvents)
		router.Get("/events/ws", r.handler.StreamEvents)
		router.Post("/reset", r.handler.Reset)

		// Result and exports
		router.Get("/result", r.handler.GetResult)
		router.Get("/transcript", r.handler.GetTranscript)
		router.Put("/transcript", r.handler.PutTranscript)
		router.Post("/transcript/render", r.handler.RenderTranscript)
		router.Get("/export/txt", r.handler.ExportText)
		router.Get("/export/srt", r.handler.ExportSubtitles)
	})

	if r.config.Server.StaticFilesDir != "" {
		router.Handle("/*", NewStaticFileHandler(r.config.Server.StaticFilesDir, r.logger))
	}

	return router
}
