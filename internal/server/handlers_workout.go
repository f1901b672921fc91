package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/meltforce/fichatreino/internal/export"
	"github.com/meltforce/fichatreino/internal/models"
)

type dialogRequest struct {
	// ID selects edit mode for that entry; empty opens the add dialog.
	ID string `json:"id"`
}

func (s *Server) handleOpenDialog(w http.ResponseWriter, r *http.Request) {
	var req dialogRequest
	if r.ContentLength != 0 && !decode(w, r, &req) {
		return
	}
	if req.ID == "" {
		s.respond(w, s.ws.OpenAddDialog())
		return
	}
	s.respond(w, s.ws.OpenEditDialog(req.ID))
}

func (s *Server) handleSetBuffer(w http.ResponseWriter, r *http.Request) {
	var d models.Dosage
	if !decode(w, r, &d) {
		return
	}
	s.respond(w, s.ws.SetBuffer(d))
}

func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	_, err := s.ws.Confirm()
	s.respond(w, err)
}

func (s *Server) handleCancelDialog(w http.ResponseWriter, r *http.Request) {
	s.respond(w, s.ws.CancelDialog())
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	_, err := s.ws.Remove(chi.URLParam(r, "id"))
	s.respond(w, err)
}

func (s *Server) handleCycleName(w http.ResponseWriter, r *http.Request) {
	_, err := s.ws.CycleName()
	s.respond(w, err)
}

func (s *Server) handleSetDefaults(w http.ResponseWriter, r *http.Request) {
	var d models.Dosage
	if !decode(w, r, &d) {
		return
	}
	s.ws.SetDefaults(d)
	s.respond(w, nil)
}

// handleExport renders the ficha in the requested format.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	out, err := export.Render(export.FromState(s.ws.Snapshot()), format, false)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeText(w, format.ContentType(), out)
}
