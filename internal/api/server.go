package api

import (
	"context"
	"net/http"

	"SessionScope/internal/auth"
	"SessionScope/internal/model"
	"SessionScope/internal/query"
	"SessionScope/internal/user"

	"github.com/go-chi/cors"
	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// Gateway is the storage gateway contract the API depends on. Every
// operation reports whether its result is live or fallback data.
type Gateway interface {
	ListSessions(ctx context.Context, f model.SessionFilter, limit, offset int) (model.SessionPage, query.Source)
	Stats(ctx context.Context) (model.Stats, query.Source)
	TopIPs(ctx context.Context, limit int) ([]model.TopIP, query.Source)
	ProtocolStats(ctx context.Context) ([]model.ProtocolStat, query.Source)
	TimeRange(ctx context.Context) (model.TimeRange, query.Source)
}

// Server holds the dependencies for the API handlers.
type Server struct {
	gateway Gateway
	users   *user.Store
	tokens  *auth.JWTManager
	authmw  *auth.Middleware
	log     zerolog.Logger
}

func NewServer(gateway Gateway, users *user.Store, tokens *auth.JWTManager, log zerolog.Logger) *Server {
	return &Server{
		gateway: gateway,
		users:   users,
		tokens:  tokens,
		authmw:  auth.NewMiddleware(tokens, users, log),
		log:     log.With().Str("component", "api").Logger(),
	}
}

// Router builds the full handler chain: request ID, access logging,
// panic recovery, CORS, then the route table. Everything under
// /api/v1 is bearer-protected except login; user management is
// admin-only.
func (s *Server) Router(corsOrigins []string) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/", s.rootHandler).Methods(http.MethodGet)
	r.HandleFunc("/health", s.healthHandler).Methods(http.MethodGet)

	v1 := r.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/auth/login", s.loginHandler).Methods(http.MethodPost)
	v1.Handle("/auth/me", s.user(s.meHandler)).Methods(http.MethodGet)

	v1.Handle("/sessions", s.user(s.listSessionsHandler)).Methods(http.MethodGet)
	v1.Handle("/sessions/stats", s.user(s.statsHandler)).Methods(http.MethodGet)
	v1.Handle("/sessions/top-ips", s.user(s.topIPsHandler)).Methods(http.MethodGet)
	v1.Handle("/sessions/protocols", s.user(s.protocolsHandler)).Methods(http.MethodGet)
	v1.Handle("/sessions/time-range", s.user(s.timeRangeHandler)).Methods(http.MethodGet)
	v1.Handle("/sessions/export", s.user(s.exportHandler)).Methods(http.MethodGet)

	v1.Handle("/users", s.admin(s.listUsersHandler)).Methods(http.MethodGet)
	v1.Handle("/users", s.admin(s.createUserHandler)).Methods(http.MethodPost)
	v1.Handle("/users/{id:[0-9]+}", s.user(s.getUserHandler)).Methods(http.MethodGet)
	v1.Handle("/users/{id:[0-9]+}", s.admin(s.updateUserHandler)).Methods(http.MethodPut)
	v1.Handle("/users/{id:[0-9]+}", s.admin(s.deleteUserHandler)).Methods(http.MethodDelete)

	c := cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	return s.requestID(s.accessLog(s.recoverPanic(c(r))))
}

func (s *Server) user(h http.HandlerFunc) http.Handler {
	return s.authmw.RequireUser(h)
}

func (s *Server) admin(h http.HandlerFunc) http.Handler {
	return s.authmw.RequireAdmin(h)
}

func (s *Server) rootHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "network session analysis API",
		"version": "1.0.0",
	})
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"message": "network session analysis API is running",
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
