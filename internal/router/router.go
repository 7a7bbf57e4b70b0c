package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/mataluis2k/quizMgr/internal/handlers"
	"github.com/mataluis2k/quizMgr/internal/middleware"
	"github.com/mataluis2k/quizMgr/internal/websocket"
)

func New(
	jwtAuth *middleware.JWTAuth,
	authHandler *handlers.AuthHandler,
	quizHandler *handlers.QuizHandler,
	renderHandler *handlers.RenderHandler,
	wsHub *websocket.Hub,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// Auth rate limiter (10 req/min per IP)
	authLimiter := middleware.NewRateLimiter(10, time.Minute)
	// Public submit limiter, generous enough for embedded renderers
	submitLimiter := middleware.NewRateLimiter(60, time.Minute)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {

		// Auth routes (public)
		r.Route("/auth", func(r chi.Router) {
			r.Use(authLimiter.Middleware)
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)

			// Logout requires auth
			r.Group(func(r chi.Router) {
				r.Use(jwtAuth.Middleware)
				r.Post("/logout", authHandler.Logout)
			})
		})

		// Embedded renderer routes (public, no session on host pages)
		r.Get("/quiz_render/{quizId}", renderHandler.GetRenderPayload)
		r.Group(func(r chi.Router) {
			r.Use(submitLimiter.Middleware)
			r.Post("/quiz-submit", renderHandler.Submit)
		})

		// Builder routes
		r.Route("/quizzes", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Post("/", quizHandler.Create)
			r.Get("/", quizHandler.List)
			r.Get("/{id}", quizHandler.Get)
			r.Put("/{id}", quizHandler.Update)
			r.Delete("/{id}", quizHandler.Delete)
			r.Post("/{id}/draft-questions", quizHandler.DraftQuestions)
			r.Get("/{id}/preview", renderHandler.Preview)
		})

		// Job status
		r.Route("/jobs", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/{jobId}", quizHandler.GetJob)
		})

		// WebSocket
		r.Get("/ws", wsHub.HandleWebSocket)
	})

	return r
}
