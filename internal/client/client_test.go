package client

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/meltforce/fichatreino/internal/coach"
	"github.com/meltforce/fichatreino/internal/genai"
	"github.com/meltforce/fichatreino/internal/journal"
	"github.com/meltforce/fichatreino/internal/models"
	"github.com/meltforce/fichatreino/internal/server"
	"github.com/meltforce/fichatreino/internal/workspace"
)

// newTestServer creates an httptest server that routes requests to handler
// functions keyed by path.
func newTestServer(t *testing.T, handlers map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := handlers[r.URL.Path]
		if !ok {
			t.Errorf("unexpected request path: %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		h(w, r)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func writeTestJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Fatal(err)
	}
}

// TestSelectExerciseWaits verifies the synchronous variant asks the server
// to wait and sends the exercise name.
func TestSelectExerciseWaits(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/exercise": func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				t.Errorf("method = %s, want POST", r.Method)
			}
			if got := r.URL.Query().Get("wait"); got != "true" {
				t.Errorf("wait = %q, want true", got)
			}
			var body map[string]string
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Fatal(err)
			}
			if body["name"] != "Supino Reto" {
				t.Errorf("name = %q", body["name"])
			}
			writeTestJSON(t, w, workspace.State{
				Selected: &models.ExerciseDetail{Name: "Supino Reto", Description: "d"},
			})
		},
	})

	st, err := New(ts.URL).SelectExercise(context.Background(), "Supino Reto")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.Selected == nil || st.Selected.Description != "d" {
		t.Errorf("selected = %+v", st.Selected)
	}
}

func TestStartExerciseDoesNotWait(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/exercise": func(w http.ResponseWriter, r *http.Request) {
			if r.URL.RawQuery != "" {
				t.Errorf("query = %q, want none", r.URL.RawQuery)
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusAccepted)
			json.NewEncoder(w).Encode(workspace.State{EnrichStatus: models.StatusLoading})
		},
	})

	st, err := New(ts.URL + "/").StartExercise(context.Background(), "Supino Reto")
	if err != nil {
		t.Fatal(err)
	}
	if st.EnrichStatus != models.StatusLoading {
		t.Errorf("status = %q, want loading", st.EnrichStatus)
	}
}

// TestAPIError verifies error bodies are surfaced with their status.
func TestAPIError(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/students/select": func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusConflict)
			w.Write([]byte(`{"error":"transition not allowed from the active view: login"}`))
		},
		"/api/v1/report": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "gateway down", http.StatusBadGateway)
		},
	})
	c := New(ts.URL)

	_, err := c.SelectStudent(context.Background(), "Liliane Torres")
	if !IsStatus(err, http.StatusConflict) {
		t.Fatalf("err = %v, want 409 APIError", err)
	}
	if !strings.Contains(err.Error(), "transition not allowed") {
		t.Errorf("error = %q", err)
	}

	_, err = c.Report(context.Background(), "markdown")
	if !IsStatus(err, http.StatusBadGateway) || !strings.Contains(err.Error(), "gateway down") {
		t.Errorf("err = %v, want 502 with plain body", err)
	}
}

func TestJournalLimit(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/journal": func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("limit"); got != "7" {
				t.Errorf("limit = %q, want 7", got)
			}
			writeTestJSON(t, w, []journal.Entry{{ID: 3, Operation: journal.OpCue, Status: journal.StatusFailed}})
		},
	})
	entries, err := New(ts.URL).Journal(context.Background(), 7)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Operation != journal.OpCue {
		t.Errorf("entries = %+v", entries)
	}
}

func TestRemoveEscapesID(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("method = %s, want DELETE", r.Method)
		}
		if r.URL.EscapedPath() != "/api/v1/workout/entries/a%2Fb" {
			t.Errorf("path = %q", r.URL.EscapedPath())
		}
		writeTestJSON(t, w, workspace.State{})
	}))
	defer ts.Close()
	if _, err := New(ts.URL).Remove(context.Background(), "a/b"); err != nil {
		t.Fatal(err)
	}
}

// cannedAI answers analysis, report and plain text calls.
type cannedAI struct{}

func (cannedAI) GenerateText(_ context.Context, _ string, schema *genai.Schema) (string, error) {
	switch schema {
	case coach.AnalysisSchema:
		return `{"description":"Empurre a barra...","benefits":"Fortalece peitoral","visualPrompt":"bench"}`, nil
	case coach.ReportSchema:
		return `{"summary":"Foco em hipertrofia","macrocycle":"m","clinicalNotes":["Evitar impacto no joelho"]}`, nil
	}
	return "Respire no esforço.", nil
}

func (cannedAI) GenerateImage(context.Context, string, genai.ImageOptions) ([]byte, error) {
	return []byte{0xff, 0xd8, 0xff, 0xe0}, nil
}

// TestEndToEnd drives a real server through the client.
func TestEndToEnd(t *testing.T) {
	ws := workspace.New(context.Background(), cannedAI{}, workspace.Options{})
	defer ws.Wait()
	ts := httptest.NewServer(server.New(ws, nil, slog.New(slog.DiscardHandler)))
	defer ts.Close()

	ctx := context.Background()
	c := New(ts.URL)

	if _, err := c.Login(ctx, "André Brito"); err != nil {
		t.Fatal(err)
	}
	st, err := c.SelectStudent(ctx, "Liliane Torres")
	if err != nil {
		t.Fatal(err)
	}
	if st.View != models.ViewWorkspace || st.WorkoutName != "TREINO A" {
		t.Fatalf("state = %+v", st)
	}

	groups, err := c.Catalog(ctx)
	if err != nil || len(groups) == 0 {
		t.Fatalf("catalog = %v, %v", groups, err)
	}

	if _, err := c.SelectMuscleGroup(ctx, "Peito"); err != nil {
		t.Fatal(err)
	}
	st, err = c.SelectExercise(ctx, "Supino Reto")
	if err != nil {
		t.Fatal(err)
	}
	if st.Selected.Benefits != "Fortalece peitoral" {
		t.Errorf("benefits = %q", st.Selected.Benefits)
	}

	img, err := c.Image(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if img.MIMEType != "image/jpeg" || len(img.Bytes) != 4 {
		t.Errorf("image = %s, %d bytes", img.MIMEType, len(img.Bytes))
	}

	st, err = c.GenerateCue(ctx)
	if err != nil || st.Cue != "Respire no esforço." {
		t.Errorf("cue = %q, %v", st.Cue, err)
	}

	if _, err := c.OpenAddDialog(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := c.SetBuffer(ctx, models.Dosage{Sets: "4", Reps: "8-10", Rest: "90s", Technique: "Normal"}); err != nil {
		t.Fatal(err)
	}
	st, err = c.Confirm(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(st.Cart) != 1 || st.Cart[0].Reps != "8-10" {
		t.Fatalf("cart = %+v", st.Cart)
	}

	out, err := c.Export(ctx, "markdown")
	if err != nil || !strings.Contains(out, "| 1º |") {
		t.Errorf("export = %q, %v", out, err)
	}

	if _, err := c.Report(ctx, ""); !IsStatus(err, http.StatusNotFound) {
		t.Errorf("report before plan err = %v, want 404", err)
	}
	st, err = c.RequestPlan(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !st.ShowReport || st.Report == nil || len(st.Report.ClinicalNotes) != 1 {
		t.Errorf("report = %+v", st.Report)
	}
	md, err := c.Report(ctx, "markdown")
	if err != nil || !strings.Contains(md, "Evitar impacto no joelho") {
		t.Errorf("report markdown = %q, %v", md, err)
	}

	if _, err := c.Back(ctx); err != nil {
		t.Fatal(err)
	}
	st, err = c.Logout(ctx)
	if err != nil || st.View != models.ViewLogin {
		t.Errorf("logout state = %q, %v", st.View, err)
	}
}
