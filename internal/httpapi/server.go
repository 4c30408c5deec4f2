// Package httpapi exposes the toolbrain core over HTTP: need routing,
// usage reporting, ranking, stats, the conversation store, and a streaming
// surface for long-lived subscriber connections.
package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/valter-silva-au/toolbrain/internal/broadcast"
	"github.com/valter-silva-au/toolbrain/internal/core"
	"github.com/valter-silva-au/toolbrain/internal/observability"
	"github.com/valter-silva-au/toolbrain/internal/storage"
)

// Server bundles the HTTP handlers and their collaborators.
type Server struct {
	router        core.NeedRouter
	stats         core.StatsService
	registry      core.RegistryManager
	conversations storage.ConversationStoreManager
	broker        broadcast.Broker
	events        observability.EventLog
	logger        *slog.Logger
	keepAlive     time.Duration
}

// Options carries the collaborators for NewServer. Events may be nil.
type Options struct {
	Router        core.NeedRouter
	Stats         core.StatsService
	Registry      core.RegistryManager
	Conversations storage.ConversationStoreManager
	Broker        broadcast.Broker
	Events        observability.EventLog
	Logger        *slog.Logger
	KeepAlive     time.Duration
}

// NewServer creates a Server. A zero KeepAlive defaults to 30 seconds.
func NewServer(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.KeepAlive <= 0 {
		opts.KeepAlive = 30 * time.Second
	}
	return &Server{
		router:        opts.Router,
		stats:         opts.Stats,
		registry:      opts.Registry,
		conversations: opts.Conversations,
		broker:        opts.Broker,
		events:        opts.Events,
		logger:        opts.Logger,
		keepAlive:     opts.KeepAlive,
	}
}

// Handler builds the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/query", s.handleQuery)
		r.Post("/report", s.handleReport)
		r.Post("/rank", s.handleRank)
		r.Get("/stats", s.handleStats)
		r.Get("/resume", s.handleResume)
		r.Get("/capabilities", s.handleCapabilities)
		r.Post("/reload", s.handleReload)
	})

	r.Route("/conversations", func(r chi.Router) {
		r.Post("/", s.handleConversationCreate)
		r.Get("/", s.handleConversationList)
		r.Get("/{id}", s.handleConversationGet)
		r.Post("/{id}/messages", s.handleMessageAppend)
		r.Post("/{id}/artifacts", s.handleArtifactLink)
		r.Post("/{id}/close", s.handleConversationClose)
	})

	r.Get("/stream", s.handleStream)
	r.Post("/stream/{id}", s.handlePublish)

	return r
}

// emit writes an operational event, logging rather than failing on error.
func (s *Server) emit(eventType, msg string, data map[string]any) {
	if s.events == nil {
		return
	}
	err := s.events.Write(observability.Event{
		Time:    time.Now().UTC(),
		Level:   "INFO",
		Type:    eventType,
		Message: msg,
		Data:    data,
	})
	if err != nil {
		s.logger.Warn("writing event", "type", eventType, "error", err)
	}
}
