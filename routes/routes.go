package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/parsix/parsix-backend/handlers"
	"github.com/parsix/parsix-backend/middleware"
)

type Config struct {
	JWTSecret      string
	AllowedOrigins []string
}

func SetupRoutes(
	router *chi.Mux,
	cfg Config,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	scoreHandler *handlers.ScoreHandler,
	tournamentHandler *handlers.TournamentHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticator(cfg.JWTSecret)

	router.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)

		r.Get("/tournaments/public", tournamentHandler.ListPublic)
		r.Get("/tournaments/search", tournamentHandler.Search)
		r.Get("/leaderboard", scoreHandler.Leaderboard)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)

			r.Get("/users/me", userHandler.Me)
			r.Put("/users/me/avatar", userHandler.UploadAvatar)

			r.Post("/scores", scoreHandler.Submit)
			r.Get("/scores", scoreHandler.ListMine)
			r.Get("/players/{playerID}/scores", scoreHandler.ListForPlayer)
			r.Get("/players/{playerID}/stats", scoreHandler.PlayerStats)

			r.Route("/tournaments", func(r chi.Router) {
				r.Post("/", tournamentHandler.Create)
				r.Get("/", tournamentHandler.ListMine)
				// The join segment accepts a full tournament id or an
				// 8-char join code.
				r.Post("/{tournamentID}/join", tournamentHandler.Join)
				r.Get("/{tournamentID}", tournamentHandler.Get)
				r.Delete("/{tournamentID}", tournamentHandler.Delete)
				r.Delete("/{tournamentID}/leave", tournamentHandler.Leave)
				r.Post("/{tournamentID}/end", tournamentHandler.End)
				r.Get("/{tournamentID}/results", tournamentHandler.Results)
			})
		})
	})

	// Subscribe performs its own token check: browser WebSocket clients
	// cannot set an Authorization header, so the token may arrive as a
	// query parameter instead.
	router.Get("/ws/tournaments/{tournamentID}", webSocketHandler.Subscribe)
}
