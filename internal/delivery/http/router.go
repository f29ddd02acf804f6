package http

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"eventsocials/internal/delivery/http/controllers"
	"eventsocials/internal/delivery/http/middleware"
	"eventsocials/internal/domain"
)

// NewRouter initializes the HTTP router with all application routes
func NewRouter(eventController *controllers.EventController, authController *controllers.AuthController, verifier domain.TokenVerifier) *http.ServeMux {
	mux := http.NewServeMux()
	auth := middleware.RequireAuth(verifier)

	// Auth
	mux.HandleFunc("POST /auth/signup", authController.SignUp)
	mux.HandleFunc("POST /auth/login", authController.Login)

	// Events
	mux.HandleFunc("POST /events", auth(eventController.CreateEvent))
	mux.HandleFunc("GET /events", eventController.ListEvents)
	mux.HandleFunc("POST /events/{eventID}/join", auth(eventController.JoinEvent))

	// Resolution links carry their own signed authorization; no session needed.
	mux.HandleFunc("GET /events/join-request/{token}", eventController.ResolveJoinRequest)

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
