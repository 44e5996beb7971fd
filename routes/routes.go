package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Dosada05/bracket-engine/handlers"
	"github.com/Dosada05/bracket-engine/middleware"
)

// InitRoutes wires the service surface: a health endpoint and the bracket
// event stream. The stream requires a token only when a secret is
// configured.
func InitRoutes(ws *handlers.WebSocketHandler, jwtSecret []byte) *chi.Mux {
	router := chi.NewRouter()

	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	router.Get("/healthz", handlers.Health)

	router.Group(func(r chi.Router) {
		if len(jwtSecret) > 0 {
			r.Use(middleware.Authenticate(jwtSecret))
		}
		r.Get("/ws/brackets/{bracketID}", ws.ServeWS)
	})

	return router
}
