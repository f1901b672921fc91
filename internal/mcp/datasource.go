package mcp

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/meltforce/fichatreino/internal/catalog"
	"github.com/meltforce/fichatreino/internal/client"
	"github.com/meltforce/fichatreino/internal/export"
	"github.com/meltforce/fichatreino/internal/journal"
	"github.com/meltforce/fichatreino/internal/models"
	"github.com/meltforce/fichatreino/internal/workspace"
)

// DataSource abstracts the workspace for MCP tools. Both Local (in-process
// session) and *client.Client (remote via REST API) satisfy this interface.
// AI operations return once their result is published.
type DataSource interface {
	State(ctx context.Context) (workspace.State, error)
	Catalog(ctx context.Context) ([]catalog.Group, error)
	Login(ctx context.Context, teacher string) (workspace.State, error)
	SelectStudent(ctx context.Context, name string) (workspace.State, error)
	Back(ctx context.Context) (workspace.State, error)
	SelectMuscleGroup(ctx context.Context, group string) (workspace.State, error)
	SelectExercise(ctx context.Context, name string) (workspace.State, error)
	GenerateCue(ctx context.Context) (workspace.State, error)
	UpdateProfile(ctx context.Context, p models.Profile) (workspace.State, error)
	RequestPlan(ctx context.Context) (workspace.State, error)
	OpenAddDialog(ctx context.Context) (workspace.State, error)
	OpenEditDialog(ctx context.Context, id string) (workspace.State, error)
	SetBuffer(ctx context.Context, d models.Dosage) (workspace.State, error)
	Confirm(ctx context.Context) (workspace.State, error)
	CancelDialog(ctx context.Context) (workspace.State, error)
	Remove(ctx context.Context, id string) (workspace.State, error)
	CycleName(ctx context.Context) (workspace.State, error)
	SetDefaults(ctx context.Context, d models.Dosage) (workspace.State, error)
	Export(ctx context.Context, format string) (string, error)
	Report(ctx context.Context, format string) (string, error)
	Journal(ctx context.Context, limit int) ([]journal.Entry, error)
}

// Compile-time checks.
var (
	_ DataSource = (*client.Client)(nil)
	_ DataSource = (*Local)(nil)
)

// ErrNoReport is returned when no periodization report exists yet.
var ErrNoReport = errors.New("no periodization report")

// JournalReader lists recorded AI calls.
type JournalReader interface {
	Recent(ctx context.Context, limit int) ([]journal.Entry, error)
}

// Local serves MCP tools from an in-process session.
type Local struct {
	ws      *workspace.Session
	journal JournalReader
}

// NewLocal wraps ws. journal may be nil.
func NewLocal(ws *workspace.Session, journal JournalReader) *Local {
	return &Local{ws: ws, journal: journal}
}

func (l *Local) snapshot(err error) (workspace.State, error) {
	if err != nil {
		return workspace.State{}, err
	}
	return l.ws.Snapshot(), nil
}

func (l *Local) State(context.Context) (workspace.State, error) {
	return l.ws.Snapshot(), nil
}

func (l *Local) Catalog(context.Context) ([]catalog.Group, error) {
	return l.ws.Catalog().All(), nil
}

func (l *Local) Login(_ context.Context, teacher string) (workspace.State, error) {
	return l.snapshot(l.ws.Login(teacher))
}

func (l *Local) SelectStudent(_ context.Context, name string) (workspace.State, error) {
	return l.snapshot(l.ws.SelectStudent(name))
}

func (l *Local) Back(context.Context) (workspace.State, error) {
	return l.snapshot(l.ws.Back())
}

func (l *Local) SelectMuscleGroup(_ context.Context, group string) (workspace.State, error) {
	_, err := l.ws.SelectMuscleGroup(group)
	return l.snapshot(err)
}

func (l *Local) SelectExercise(ctx context.Context, name string) (workspace.State, error) {
	return l.snapshot(l.ws.SelectExercise(ctx, name))
}

func (l *Local) GenerateCue(ctx context.Context) (workspace.State, error) {
	return l.snapshot(l.ws.GenerateCue(ctx))
}

func (l *Local) UpdateProfile(_ context.Context, p models.Profile) (workspace.State, error) {
	return l.snapshot(l.ws.UpdateProfile(p))
}

func (l *Local) RequestPlan(ctx context.Context) (workspace.State, error) {
	return l.snapshot(l.ws.RequestPlan(ctx))
}

func (l *Local) OpenAddDialog(context.Context) (workspace.State, error) {
	return l.snapshot(l.ws.OpenAddDialog())
}

func (l *Local) OpenEditDialog(_ context.Context, id string) (workspace.State, error) {
	return l.snapshot(l.ws.OpenEditDialog(id))
}

func (l *Local) SetBuffer(_ context.Context, d models.Dosage) (workspace.State, error) {
	return l.snapshot(l.ws.SetBuffer(d))
}

func (l *Local) Confirm(context.Context) (workspace.State, error) {
	_, err := l.ws.Confirm()
	return l.snapshot(err)
}

func (l *Local) CancelDialog(context.Context) (workspace.State, error) {
	return l.snapshot(l.ws.CancelDialog())
}

func (l *Local) Remove(_ context.Context, id string) (workspace.State, error) {
	_, err := l.ws.Remove(id)
	return l.snapshot(err)
}

func (l *Local) CycleName(context.Context) (workspace.State, error) {
	_, err := l.ws.CycleName()
	return l.snapshot(err)
}

func (l *Local) SetDefaults(_ context.Context, d models.Dosage) (workspace.State, error) {
	l.ws.SetDefaults(d)
	return l.ws.Snapshot(), nil
}

func (l *Local) Export(_ context.Context, format string) (string, error) {
	f, err := export.ParseFormat(format)
	if err != nil {
		return "", err
	}
	return export.Render(export.FromState(l.ws.Snapshot()), f, false)
}

func (l *Local) Report(_ context.Context, format string) (string, error) {
	report, student := l.ws.Report()
	if report == nil {
		return "", ErrNoReport
	}
	switch format {
	case "", "json":
		data, err := json.Marshal(report)
		return string(data), err
	case "markdown", "md":
		return export.ReportMarkdown(student, *report), nil
	case "html":
		return export.ReportHTML(student, *report)
	default:
		return "", errors.New("unknown report format " + format)
	}
}

func (l *Local) Journal(ctx context.Context, limit int) ([]journal.Entry, error) {
	if l.journal == nil {
		return nil, nil
	}
	return l.journal.Recent(ctx, limit)
}
