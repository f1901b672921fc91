package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/meltforce/fichatreino/internal/export"
	"github.com/meltforce/fichatreino/internal/models"
	"github.com/meltforce/fichatreino/internal/workspace"
)

// UserInfo is the identity of the caller.
type UserInfo struct {
	Login       string `json:"login"`
	DisplayName string `json:"display_name"`
}

type nameRequest struct {
	Name string `json:"name"`
}

type groupRequest struct {
	Group string `json:"group"`
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	info := UserInfo{Login: "local", DisplayName: "Local Dev User"}
	if s.whois != nil {
		who, err := s.whois.WhoIs(r.Context(), r.RemoteAddr)
		if err != nil {
			s.log.Warn("tailscale whois failed", "remote", r.RemoteAddr, "error", err)
		} else if who.UserProfile != nil {
			info = UserInfo{Login: who.UserProfile.LoginName, DisplayName: who.UserProfile.DisplayName}
		}
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ws.Snapshot())
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ws.Catalog().All())
}

func (s *Server) handleJournal(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}
	if s.journal == nil {
		writeJSON(w, http.StatusOK, []any{})
		return
	}
	entries, err := s.journal.Recent(r.Context(), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if entries == nil {
		writeJSON(w, http.StatusOK, []any{})
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if !decode(w, r, &req) {
		return
	}
	s.respond(w, s.ws.Login(req.Name))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.respond(w, s.ws.Logout())
}

func (s *Server) handleSelectStudent(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if !decode(w, r, &req) {
		return
	}
	s.respond(w, s.ws.SelectStudent(req.Name))
}

func (s *Server) handleBack(w http.ResponseWriter, r *http.Request) {
	s.respond(w, s.ws.Back())
}

func (s *Server) handleMuscleGroup(w http.ResponseWriter, r *http.Request) {
	var req groupRequest
	if !decode(w, r, &req) {
		return
	}
	_, err := s.ws.SelectMuscleGroup(req.Group)
	s.respond(w, err)
}

func (s *Server) handleSelectExercise(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if !decode(w, r, &req) {
		return
	}
	job, err := s.ws.StartExercise(req.Name)
	s.runJob(w, r, job, err)
}

func (s *Server) handleCue(w http.ResponseWriter, r *http.Request) {
	job, err := s.ws.StartCue()
	s.runJob(w, r, job, err)
}

func (s *Server) handlePeriodization(w http.ResponseWriter, r *http.Request) {
	job, err := s.ws.StartPlan()
	s.runJob(w, r, job, err)
}

// runJob runs an AI job in the background and answers 202 with the
// placeholder state. With ?wait=true the handler also waits for the job.
// The job always runs on the session context, so a client that hangs up
// only stops waiting.
func (s *Server) runJob(w http.ResponseWriter, r *http.Request, job workspace.Job, err error) {
	if err != nil {
		s.writeError(w, err)
		return
	}
	wait, _ := strconv.ParseBool(r.URL.Query().Get("wait"))
	if !wait {
		s.ws.Go(job)
		writeJSON(w, http.StatusAccepted, s.ws.Snapshot())
		return
	}
	done := make(chan struct{})
	s.ws.Go(func(ctx context.Context) {
		defer close(done)
		job(ctx)
	})
	select {
	case <-done:
		writeJSON(w, http.StatusOK, s.ws.Snapshot())
	case <-r.Context().Done():
		s.log.Debug("client stopped waiting for job", "path", r.URL.Path)
	}
}

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	img := s.ws.Image()
	if img == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no image available"})
		return
	}
	w.Header().Set("Content-Type", img.MIMEType)
	w.Header().Set("Content-Length", strconv.Itoa(len(img.Bytes)))
	w.WriteHeader(http.StatusOK)
	w.Write(img.Bytes)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var p models.Profile
	if !decode(w, r, &p) {
		return
	}
	s.respond(w, s.ws.UpdateProfile(p))
}

func (s *Server) handleCloseIntake(w http.ResponseWriter, r *http.Request) {
	s.respond(w, s.ws.CloseIntake())
}

func (s *Server) handleCloseReport(w http.ResponseWriter, r *http.Request) {
	s.respond(w, s.ws.CloseReport())
}

// handleReport serves the periodization report as JSON, Markdown or HTML.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	report, student := s.ws.Report()
	if report == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no periodization report"})
		return
	}

	switch format := r.URL.Query().Get("format"); format {
	case "", "json":
		writeJSON(w, http.StatusOK, report)
	case "markdown", "md":
		writeText(w, export.FormatMarkdown.ContentType(), export.ReportMarkdown(student, *report))
	case "html":
		html, err := export.ReportHTML(student, *report)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeText(w, export.FormatHTML.ContentType(), html)
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown report format " + strconv.Quote(format)})
	}
}

// respond answers with the session state, or the mapped error.
func (s *Server) respond(w http.ResponseWriter, err error) {
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.ws.Snapshot())
}

// writeError maps workspace errors to HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, workspace.ErrBlankName):
		status = http.StatusBadRequest
	case errors.Is(err, workspace.ErrUnknownEntry):
		status = http.StatusNotFound
	case errors.Is(err, workspace.ErrInvalidTransition),
		errors.Is(err, workspace.ErrWrongView),
		errors.Is(err, workspace.ErrNoStudent),
		errors.Is(err, workspace.ErrNoExercise),
		errors.Is(err, workspace.ErrDialogClosed):
		status = http.StatusConflict
	default:
		s.log.Error("request failed", "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeText(w http.ResponseWriter, contentType, body string) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(body))
}
