// Package gateway exposes the planner over HTTP and WebSocket.
package gateway

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dohr-michael/dayplanner/internal/events"
	"github.com/dohr-michael/dayplanner/internal/gateway/ws"
	"github.com/dohr-michael/dayplanner/internal/tasks"
)

// Config holds what the gateway needs to serve.
type Config struct {
	Store    *tasks.Store
	Bus      *events.Bus
	Host     string
	Port     int
	Defaults tasks.DraftDefaults
}

// Server is the dayplanner gateway HTTP server.
type Server struct {
	httpServer *http.Server
	hub        *ws.Hub
	bus        *events.Bus
	store      *tasks.Store
	defaults   tasks.DraftDefaults
	started    time.Time
	listener   net.Listener
}

// NewServer creates a new gateway server.
func NewServer(cfg Config) *Server {
	hub := ws.NewHub(cfg.Bus, NewWSTaskHandler(cfg.Store))

	s := &Server{
		hub:      hub,
		bus:      cfg.Bus,
		store:    cfg.Store,
		defaults: cfg.Defaults,
		started:  time.Now(),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(sourceMiddleware)

	r.Get("/api/health", s.handleHealth)
	r.Get("/api/ws", hub.ServeWS)
	r.Get("/api/events", s.handleEvents)

	r.Route("/api/tasks", func(r chi.Router) {
		r.Get("/", s.handleListTasks)
		r.Post("/", s.handleCreateTask)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetTask)
			r.Put("/", s.handleUpdateTask)
			r.Delete("/", s.handleDeleteTask)
			r.Post("/complete", s.handleCompleteTask)
			r.Post("/reopen", s.handleReopenTask)
			r.Post("/reschedule", s.handleRescheduleTask)
			r.Post("/move", s.handleMoveTask)
		})
	})
	r.Post("/api/days/{day}/complete", s.handleCompleteDay)
	r.Delete("/api/days/{day}", s.handleClearDay)

	s.httpServer = &http.Server{
		Addr:              net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// sourceMiddleware tags mutations made through the API so their events carry
// the gateway as source. The WS handler overrides it for socket requests.
func sourceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := events.ContextWithSource(r.Context(), events.SourceGateway)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Listen binds the server address and returns the bound address. A port of
// 0 picks a free one.
func (s *Server) Listen() (string, error) {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return "", err
	}
	s.listener = ln
	return ln.Addr().String(), nil
}

// Start begins listening. It blocks until the server is stopped.
func (s *Server) Start() error {
	if s.listener == nil {
		if _, err := s.Listen(); err != nil {
			return err
		}
	}
	slog.Info("dayplanner gateway listening", "addr", s.listener.Addr().String())
	return s.httpServer.Serve(s.listener)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()
	return s.httpServer.Shutdown(ctx)
}

// Handler returns the router, for embedding and tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

type healthResponse struct {
	Status    string `json:"status"`
	Tasks     int    `json:"tasks"`
	WSClients int    `json:"ws_clients"`
	Uptime    string `json:"uptime"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Tasks:     s.store.Len(),
		WSClients: s.hub.ClientCount(),
		Uptime:    time.Since(s.started).Truncate(time.Second).String(),
	})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, errBadRequestf("limit must be a positive integer"))
			return
		}
		limit = n
	}

	history := s.bus.History(limit)
	if history == nil {
		history = []events.Event{}
	}
	writeJSON(w, http.StatusOK, history)
}
