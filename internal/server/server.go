package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"tailscale.com/client/tailscale/apitype"

	"github.com/meltforce/fichatreino/internal/journal"
	"github.com/meltforce/fichatreino/internal/workspace"
)

// JournalReader lists recorded AI calls.
type JournalReader interface {
	Recent(ctx context.Context, limit int) ([]journal.Entry, error)
}

// WhoIser resolves the tailnet identity behind a remote address.
type WhoIser interface {
	WhoIs(ctx context.Context, remoteAddr string) (*apitype.WhoIsResponse, error)
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	ws      *workspace.Session
	journal JournalReader
	whois   WhoIser
	log     *slog.Logger
	router  chi.Router
}

// New creates a new Server with all routes configured. journal may be nil.
func New(ws *workspace.Session, journal JournalReader, log *slog.Logger) *Server {
	s := &Server{
		ws:      ws,
		journal: journal,
		log:     log,
		router:  chi.NewRouter(),
	}
	s.routes()
	return s
}

// SetTailscale enables tailnet identity lookups for /api/v1/me.
func (s *Server) SetTailscale(w WhoIser) {
	s.whois = w
}

// MountMCP serves an MCP transport handler at /mcp.
func (s *Server) MountMCP(h http.Handler) {
	s.router.Handle("/mcp", h)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/me", s.handleMe)
		r.Get("/state", s.handleState)
		r.Get("/catalog", s.handleCatalog)
		r.Get("/journal", s.handleJournal)

		// View router
		r.Post("/login", s.handleLogin)
		r.Post("/logout", s.handleLogout)
		r.Post("/students/select", s.handleSelectStudent)
		r.Post("/back", s.handleBack)

		// Exercise picker and AI enrichment
		r.Post("/muscle-group", s.handleMuscleGroup)
		r.Post("/exercise", s.handleSelectExercise)
		r.Post("/cue", s.handleCue)
		r.Get("/image", s.handleImage)

		// Intake and periodization
		r.Put("/profile", s.handleUpdateProfile)
		r.Post("/intake/close", s.handleCloseIntake)
		r.Post("/periodization", s.handlePeriodization)
		r.Get("/report", s.handleReport)
		r.Post("/report/close", s.handleCloseReport)

		// Workout cart
		r.Route("/workout", func(r chi.Router) {
			r.Post("/dialog", s.handleOpenDialog)
			r.Put("/dialog/buffer", s.handleSetBuffer)
			r.Post("/dialog/confirm", s.handleConfirm)
			r.Post("/dialog/cancel", s.handleCancelDialog)
			r.Delete("/entries/{id}", s.handleRemove)
			r.Post("/cycle-name", s.handleCycleName)
			r.Put("/defaults", s.handleSetDefaults)
			r.Get("/export", s.handleExport)
		})
	})
}
