package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tailscale.com/client/tailscale/apitype"
	"tailscale.com/tailcfg"

	"github.com/meltforce/fichatreino/internal/coach"
	"github.com/meltforce/fichatreino/internal/genai"
	"github.com/meltforce/fichatreino/internal/journal"
	"github.com/meltforce/fichatreino/internal/models"
	"github.com/meltforce/fichatreino/internal/workspace"
)

// stubAI answers every call with canned content.
type stubAI struct{}

func (stubAI) GenerateText(_ context.Context, _ string, schema *genai.Schema) (string, error) {
	switch schema {
	case coach.AnalysisSchema:
		return `{"description":"Empurre a barra...","benefits":"Fortalece peitoral","visualPrompt":"bench press"}`, nil
	case coach.ReportSchema:
		return `{"summary":"Foco em hipertrofia","macrocycle":"12 semanas","clinicalNotes":["Evitar impacto no joelho"]}`, nil
	}
	return "Mantenha o core ativo.", nil
}

func (stubAI) GenerateImage(context.Context, string, genai.ImageOptions) ([]byte, error) {
	return []byte{0xff, 0xd8, 0xff}, nil
}

// gatedAI holds the exercise analysis until released, failing early only
// when its context ends.
type gatedAI struct {
	stubAI
	started chan struct{}
	release chan struct{}
}

func (g *gatedAI) GenerateText(ctx context.Context, prompt string, schema *genai.Schema) (string, error) {
	if schema == coach.AnalysisSchema {
		close(g.started)
		select {
		case <-g.release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return g.stubAI.GenerateText(ctx, prompt, schema)
}

type stubJournal struct {
	entries []journal.Entry
	err     error
	limit   int
}

func (j *stubJournal) Recent(_ context.Context, limit int) ([]journal.Entry, error) {
	j.limit = limit
	return j.entries, j.err
}

type stubWhoIs struct{}

func (stubWhoIs) WhoIs(context.Context, string) (*apitype.WhoIsResponse, error) {
	return &apitype.WhoIsResponse{
		UserProfile: &tailcfg.UserProfile{LoginName: "andre@example.com", DisplayName: "André Brito"},
	}, nil
}

func newTestServer(t *testing.T) (*Server, *workspace.Session) {
	t.Helper()
	ws := workspace.New(context.Background(), stubAI{}, workspace.Options{})
	t.Cleanup(ws.Wait)
	return New(ws, nil, slog.New(slog.DiscardHandler)), ws
}

func do(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decodeState(t *testing.T, rec *httptest.ResponseRecorder) workspace.State {
	t.Helper()
	var st workspace.State
	if err := json.NewDecoder(rec.Body).Decode(&st); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	return st
}

// openWorkspace drives the server to the workspace of Liliane Torres.
func openWorkspace(t *testing.T, s *Server) {
	t.Helper()
	if rec := do(t, s, http.MethodPost, "/api/v1/login", nameRequest{Name: "André Brito"}); rec.Code != http.StatusOK {
		t.Fatalf("login status = %d: %s", rec.Code, rec.Body)
	}
	if rec := do(t, s, http.MethodPost, "/api/v1/students/select", nameRequest{Name: "Liliane Torres"}); rec.Code != http.StatusOK {
		t.Fatalf("select status = %d: %s", rec.Code, rec.Body)
	}
}

// TestHandleMeDefault verifies the /api/v1/me endpoint returns the dev user
// identity when not running on a tailnet.
func TestHandleMeDefault(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/api/v1/me", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var info UserInfo
	if err := json.NewDecoder(rec.Body).Decode(&info); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if info.Login != "local" {
		t.Errorf("login = %q, want %q", info.Login, "local")
	}
}

// TestHandleMeTailscaleUser verifies the tailnet identity is used when set.
func TestHandleMeTailscaleUser(t *testing.T) {
	s, _ := newTestServer(t)
	s.SetTailscale(stubWhoIs{})
	rec := do(t, s, http.MethodGet, "/api/v1/me", nil)

	var info UserInfo
	if err := json.NewDecoder(rec.Body).Decode(&info); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if info.Login != "andre@example.com" {
		t.Errorf("login = %q, want %q", info.Login, "andre@example.com")
	}
	if info.DisplayName != "André Brito" {
		t.Errorf("display_name = %q, want %q", info.DisplayName, "André Brito")
	}
}

func TestLoginValidation(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/v1/login", nameRequest{Name: "  "})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("blank login status = %d, want 400", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/login", strings.NewReader("{"))
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid json status = %d, want 400", rec.Code)
	}

	rec = do(t, s, http.MethodPost, "/api/v1/login", nameRequest{Name: "André Brito"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if st := decodeState(t, rec); st.View != models.ViewStudentList {
		t.Errorf("view = %q, want %q", st.View, models.ViewStudentList)
	}
}

func TestWrongViewConflicts(t *testing.T) {
	s, _ := newTestServer(t)
	tests := []struct {
		method, path string
		body         any
	}{
		{http.MethodPost, "/api/v1/students/select", nameRequest{Name: "Liliane Torres"}},
		{http.MethodPost, "/api/v1/exercise", nameRequest{Name: "Supino Reto"}},
		{http.MethodPost, "/api/v1/periodization", nil},
		{http.MethodPost, "/api/v1/workout/cycle-name", nil},
	}
	for _, tt := range tests {
		if rec := do(t, s, tt.method, tt.path, tt.body); rec.Code != http.StatusConflict {
			t.Errorf("%s %s status = %d, want 409", tt.method, tt.path, rec.Code)
		}
	}
}

// TestExerciseAndCart walks enrichment, image, cart and export over HTTP.
func TestExerciseAndCart(t *testing.T) {
	s, _ := newTestServer(t)
	openWorkspace(t, s)

	rec := do(t, s, http.MethodPost, "/api/v1/muscle-group", groupRequest{Group: "Peito"})
	if st := decodeState(t, rec); len(st.Options) == 0 || st.Options[0] != "Supino Reto" {
		t.Fatalf("options = %v", st.Options)
	}

	if rec := do(t, s, http.MethodGet, "/api/v1/image", nil); rec.Code != http.StatusNotFound {
		t.Errorf("image before selection status = %d, want 404", rec.Code)
	}

	rec = do(t, s, http.MethodPost, "/api/v1/exercise?wait=true", nameRequest{Name: "Supino Reto"})
	if rec.Code != http.StatusOK {
		t.Fatalf("exercise status = %d: %s", rec.Code, rec.Body)
	}
	st := decodeState(t, rec)
	if st.Selected == nil || st.Selected.Description != "Empurre a barra..." {
		t.Errorf("selected = %+v", st.Selected)
	}
	if st.Image == nil || !strings.HasPrefix(st.Image.DataURI(), "data:image/jpeg;base64,") {
		t.Errorf("image = %v", st.Image)
	}

	rec = do(t, s, http.MethodGet, "/api/v1/image", nil)
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "image/jpeg" {
		t.Errorf("image status = %d, content-type = %q", rec.Code, rec.Header().Get("Content-Type"))
	}
	if !bytes.Equal(rec.Body.Bytes(), []byte{0xff, 0xd8, 0xff}) {
		t.Errorf("image body = %x", rec.Body.Bytes())
	}

	do(t, s, http.MethodPost, "/api/v1/workout/dialog", nil)
	rec = do(t, s, http.MethodPost, "/api/v1/workout/dialog/confirm", nil)
	st = decodeState(t, rec)
	if len(st.Cart) != 1 || st.Cart[0].Name != "Supino Reto" || st.Cart[0].Sets != "3" || st.Cart[0].Reps != "10-12" {
		t.Fatalf("cart = %+v", st.Cart)
	}
	id := st.Cart[0].ID

	if rec := do(t, s, http.MethodPost, "/api/v1/workout/dialog", dialogRequest{ID: "missing"}); rec.Code != http.StatusNotFound {
		t.Errorf("edit unknown status = %d, want 404", rec.Code)
	}
	do(t, s, http.MethodPost, "/api/v1/workout/dialog", dialogRequest{ID: id})
	do(t, s, http.MethodPut, "/api/v1/workout/dialog/buffer", models.Dosage{Sets: "4", Reps: "8", Rest: "90s", Technique: "Normal"})
	st = decodeState(t, do(t, s, http.MethodPost, "/api/v1/workout/dialog/confirm", nil))
	if st.Cart[0].ID != id || st.Cart[0].Sets != "4" {
		t.Errorf("edited entry = %+v", st.Cart[0])
	}

	rec = do(t, s, http.MethodGet, "/api/v1/workout/export?format=csv", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "1º,Supino Reto,4,8,90s") {
		t.Errorf("export status = %d body:\n%s", rec.Code, rec.Body)
	}
	if rec := do(t, s, http.MethodGet, "/api/v1/workout/export?format=pdf", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("export pdf status = %d, want 400", rec.Code)
	}

	st = decodeState(t, do(t, s, http.MethodPost, "/api/v1/workout/cycle-name", nil))
	if st.WorkoutName != "TREINO B" {
		t.Errorf("workout name = %q, want TREINO B", st.WorkoutName)
	}

	if rec := do(t, s, http.MethodDelete, "/api/v1/workout/entries/missing", nil); rec.Code != http.StatusOK {
		t.Errorf("remove unknown status = %d, want 200", rec.Code)
	}
	st = decodeState(t, do(t, s, http.MethodDelete, "/api/v1/workout/entries/"+id, nil))
	if len(st.Cart) != 0 {
		t.Errorf("cart = %+v after remove", st.Cart)
	}
}

func TestExerciseAsync(t *testing.T) {
	s, ws := newTestServer(t)
	openWorkspace(t, s)

	rec := do(t, s, http.MethodPost, "/api/v1/exercise", nameRequest{Name: "Supino Reto"})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}
	if st := decodeState(t, rec); st.Selected == nil || st.Selected.Name != "Supino Reto" {
		t.Errorf("placeholder = %+v", st.Selected)
	}

	ws.Wait()
	st := decodeState(t, do(t, s, http.MethodGet, "/api/v1/state", nil))
	if st.EnrichStatus != models.StatusSuccess || st.ImageLoading {
		t.Errorf("status = %q, loading = %v", st.EnrichStatus, st.ImageLoading)
	}

	if rec := do(t, s, http.MethodPost, "/api/v1/exercise", nameRequest{}); rec.Code != http.StatusBadRequest {
		t.Errorf("blank exercise status = %d, want 400", rec.Code)
	}
}

func TestWaitingClientDisconnect(t *testing.T) {
	ai := &gatedAI{started: make(chan struct{}), release: make(chan struct{})}
	ws := workspace.New(context.Background(), ai, workspace.Options{})
	t.Cleanup(ws.Wait)
	s := New(ws, nil, slog.New(slog.DiscardHandler))
	openWorkspace(t, s)

	ctx, cancel := context.WithCancel(context.Background())
	body := strings.NewReader(`{"name":"Supino Reto"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/exercise?wait=true", body).WithContext(ctx)
	served := make(chan struct{})
	go func() {
		defer close(served)
		s.ServeHTTP(httptest.NewRecorder(), req)
	}()

	<-ai.started
	cancel()
	select {
	case <-served:
	case <-time.After(5 * time.Second):
		t.Fatal("handler kept waiting after the client left")
	}

	close(ai.release)
	ws.Wait()
	st := ws.Snapshot()
	if st.EnrichStatus != models.StatusSuccess {
		t.Errorf("enrich status = %q, want success", st.EnrichStatus)
	}
	if st.Selected == nil || !st.Selected.Enriched() {
		t.Errorf("selected = %+v, want enriched detail", st.Selected)
	}
}

func TestPeriodizationAndReport(t *testing.T) {
	s, ws := newTestServer(t)
	openWorkspace(t, s)

	if rec := do(t, s, http.MethodGet, "/api/v1/report", nil); rec.Code != http.StatusNotFound {
		t.Errorf("report before plan status = %d, want 404", rec.Code)
	}

	do(t, s, http.MethodPut, "/api/v1/profile", models.Profile{Objectives: "Hipertrofia"})
	rec := do(t, s, http.MethodPost, "/api/v1/periodization?wait=true", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	ws.Wait()

	st := decodeState(t, do(t, s, http.MethodGet, "/api/v1/state", nil))
	if !st.ShowReport || st.Report == nil || len(st.Report.ClinicalNotes) != 1 {
		t.Fatalf("report = %+v, show = %v", st.Report, st.ShowReport)
	}
	if st.Profile.Objectives != "Hipertrofia" || st.Profile.Name != "Liliane Torres" {
		t.Errorf("profile = %+v", st.Profile)
	}
	if st.Insight != "Mantenha o core ativo." {
		t.Errorf("insight = %q", st.Insight)
	}

	rec = do(t, s, http.MethodGet, "/api/v1/report?format=markdown", nil)
	if !strings.Contains(rec.Body.String(), "# Periodização: Liliane Torres") {
		t.Errorf("markdown:\n%s", rec.Body)
	}
	rec = do(t, s, http.MethodGet, "/api/v1/report?format=html", nil)
	if !strings.Contains(rec.Body.String(), "<li>Evitar impacto no joelho</li>") {
		t.Errorf("html:\n%s", rec.Body)
	}
	if rec := do(t, s, http.MethodGet, "/api/v1/report?format=docx", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("unknown format status = %d, want 400", rec.Code)
	}

	st = decodeState(t, do(t, s, http.MethodPost, "/api/v1/report/close", nil))
	if st.ShowReport {
		t.Error("report still shown after close")
	}
}

func TestCueWithoutExercise(t *testing.T) {
	s, _ := newTestServer(t)
	openWorkspace(t, s)
	if rec := do(t, s, http.MethodPost, "/api/v1/cue", nil); rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}

func TestHandleJournal(t *testing.T) {
	ws := workspace.New(context.Background(), stubAI{}, workspace.Options{})
	j := &stubJournal{entries: []journal.Entry{
		{ID: 1, CreatedAt: time.Now(), Operation: journal.OpAnalysis, Subject: "Supino Reto", Status: journal.StatusOK},
	}}
	s := New(ws, j, slog.New(slog.DiscardHandler))

	rec := do(t, s, http.MethodGet, "/api/v1/journal?limit=5", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got []journal.Entry
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Subject != "Supino Reto" {
		t.Errorf("entries = %+v", got)
	}
	if j.limit != 5 {
		t.Errorf("limit = %d, want 5", j.limit)
	}

	if rec := do(t, s, http.MethodGet, "/api/v1/journal?limit=abc", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("bad limit status = %d, want 400", rec.Code)
	}

	j.err = errors.New("disk I/O error")
	if rec := do(t, s, http.MethodGet, "/api/v1/journal", nil); rec.Code != http.StatusInternalServerError {
		t.Errorf("journal error status = %d, want 500", rec.Code)
	}
}
