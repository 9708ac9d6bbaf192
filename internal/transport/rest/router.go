package rest

import (
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"doubtdesk/internal/service"
	"doubtdesk/internal/transport/rest/handler"
	"doubtdesk/internal/transport/rest/middleware"
	"doubtdesk/internal/transport/ws"
)

// Container holds all dependencies for the router.
type Container struct {
	AuthService   *service.AuthService
	DoubtService  *service.DoubtService
	AnswerService *service.AnswerService
	AIResponder   *service.AIResponder
	WSHub         *ws.Hub
	Logger        *zap.Logger
}

// NewRouter creates the API router with all endpoints.
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	doubtHandler := handler.NewDoubtHandler(c.DoubtService, c.AnswerService, c.AIResponder)
	aiHandler := handler.NewAIHandler(c.AIResponder)
	wsHandler := ws.NewHandler(c.WSHub, c.Logger)

	authMW := middleware.NewAuthMiddleware(c.AuthService)

	// CORS middleware (apply first)
	r.Use(corsMiddleware)

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	// WebSocket route (public; room membership comes from the class id the
	// HTTP layer handed the client)
	v1.HandleFunc("/ws", wsHandler.Serve).Methods("GET")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Student routes (require student auth)
	studentRoutes := v1.NewRoute().Subrouter()
	studentRoutes.Use(authMW.RequireStudent)

	studentRoutes.HandleFunc("/doubts/ask", doubtHandler.Ask).Methods("POST", "OPTIONS")
	studentRoutes.HandleFunc("/doubts/all/{class}", doubtHandler.GetByClass).Methods("GET", "OPTIONS")
	studentRoutes.HandleFunc("/doubts/{studentId}", doubtHandler.GetByStudent).Methods("GET", "OPTIONS")
	studentRoutes.HandleFunc("/doubts/{doubtId}/answer", doubtHandler.Answer).Methods("POST", "OPTIONS")
	studentRoutes.HandleFunc("/doubts/{doubtId}/ai", doubtHandler.RequestAI).Methods("POST", "OPTIONS")
	studentRoutes.HandleFunc("/ai/ask", aiHandler.Ask).Methods("POST", "OPTIONS")

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
		if allowedOrigins == "" {
			allowedOrigins = "*"
		}

		w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
