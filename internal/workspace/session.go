// Package workspace holds the trainer's session: the active view, the
// selected student and exercise, the workout cart and the AI results
// attached to them.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/meltforce/fichatreino/internal/catalog"
	"github.com/meltforce/fichatreino/internal/genai"
	"github.com/meltforce/fichatreino/internal/journal"
	"github.com/meltforce/fichatreino/internal/models"
)

var (
	ErrBlankName         = errors.New("name must not be blank")
	ErrInvalidTransition = errors.New("transition not allowed from the active view")
	ErrNoStudent         = errors.New("no student selected")
	ErrWrongView         = errors.New("operation requires the workspace view")
	ErrNoExercise        = errors.New("no exercise selected")
	ErrDialogClosed      = errors.New("workout dialog is not open")
	ErrUnknownEntry      = errors.New("unknown workout entry")

	errEmptyInsight = errors.New("empty bio-insight")
)

// WorkoutLabels are the display names cycled by CycleName.
var WorkoutLabels = []string{"TREINO A", "TREINO B", "TREINO C", "TREINO D", "TREINO E"}

// DefaultRoster is listed when no students are configured.
var DefaultRoster = []string{"André Brito", "Liliane Torres", "Marcelly Bispo"}

// Recorder receives one entry per AI call.
type Recorder interface {
	Record(ctx context.Context, e journal.Entry) (int64, error)
}

// Options configures a Session. Zero values fall back to defaults.
type Options struct {
	Catalog     *catalog.Catalog
	Roster      []string
	Journal     Recorder
	Logger      *slog.Logger
	NewID       func() string
	SettleDelay time.Duration
	CallTimeout time.Duration
}

// Session is the single mutable workspace. All methods are safe for
// concurrent use. AI results are published only when they belong to the
// latest request of their kind and to the current student.
type Session struct {
	ai      genai.Client
	catalog *catalog.Catalog
	roster  []string
	journal Recorder
	log     *slog.Logger
	newID   func() string
	settle  time.Duration
	timeout time.Duration

	base context.Context
	jobs sync.WaitGroup

	mu sync.Mutex

	view       models.View
	teacher    string
	hasStudent bool
	profile    models.Profile
	showIntake bool

	muscleGroup string
	options     []string

	selected     *models.ExerciseDetail
	enrichStatus models.Status
	image        *models.Image
	imageStatus  models.Status
	cue          string
	cueStatus    models.Status

	report       *models.Report
	reportStatus models.Status
	showReport   bool
	consulting   bool
	insight      string
	insightState models.Status

	workoutName string
	cart        *Cart
	defaults    models.Dosage
	dialogOpen  bool
	buffer      models.Dosage
	editTarget  string

	// epoch advances on every student switch and logout.
	epoch      uint64
	enrichSeq  uint64
	cueSeq     uint64
	planSeq    uint64
	insightSeq uint64
}

// New creates a session in the login view. Background jobs started with
// Go run under ctx.
func New(ctx context.Context, ai genai.Client, opts Options) *Session {
	s := &Session{
		ai:      ai,
		catalog: opts.Catalog,
		roster:  opts.Roster,
		journal: opts.Journal,
		log:     opts.Logger,
		newID:   opts.NewID,
		settle:  opts.SettleDelay,
		timeout: opts.CallTimeout,
		base:    ctx,
	}
	if s.catalog == nil {
		s.catalog = catalog.Default()
	}
	if len(s.roster) == 0 {
		s.roster = DefaultRoster
	}
	if s.log == nil {
		s.log = slog.New(slog.DiscardHandler)
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	if s.timeout <= 0 {
		s.timeout = 60 * time.Second
	}
	s.resetAll()
	return s
}

// Catalog returns the exercise catalog backing the picker.
func (s *Session) Catalog() *catalog.Catalog { return s.catalog }

// Go runs fn as a tracked background job.
func (s *Session) Go(fn func(ctx context.Context)) {
	s.jobs.Add(1)
	go func() {
		defer s.jobs.Done()
		fn(s.base)
	}()
}

// run executes job on the caller's goroutine, counted with the background
// jobs so jobs it spawns through Go never start from a zero count.
func (s *Session) run(ctx context.Context, job Job) {
	s.jobs.Add(1)
	defer s.jobs.Done()
	job(ctx)
}

// Wait blocks until all background and inline jobs have returned.
func (s *Session) Wait() { s.jobs.Wait() }

func (s *Session) resetAll() {
	s.view = models.ViewLogin
	s.teacher = ""
	s.hasStudent = false
	s.profile = models.Profile{}
	s.defaults = models.DefaultDosage()
	s.resetStudent()
}

// resetStudent clears everything owned by the active student and
// invalidates in-flight AI results.
func (s *Session) resetStudent() {
	s.epoch++
	s.showIntake = false
	s.muscleGroup = ""
	s.options = []string{}
	s.selected = nil
	s.enrichStatus = models.StatusIdle
	s.image = nil
	s.imageStatus = models.StatusIdle
	s.cue = ""
	s.cueStatus = models.StatusIdle
	s.report = nil
	s.reportStatus = models.StatusIdle
	s.showReport = false
	s.consulting = false
	s.insight = ""
	s.insightState = models.StatusIdle
	s.workoutName = WorkoutLabels[0]
	s.cart = NewCart(s.newID)
	s.dialogOpen = false
	s.buffer = models.Dosage{}
	s.editTarget = ""
}

func (s *Session) requireView(v models.View) error {
	if s.view != v {
		return fmt.Errorf("%w: %s", ErrInvalidTransition, s.view)
	}
	return nil
}

func (s *Session) requireWorkspace() error {
	if !s.hasStudent {
		return ErrNoStudent
	}
	if s.view != models.ViewWorkspace {
		return ErrWrongView
	}
	return nil
}

// Login moves from the login view to the student list.
func (s *Session) Login(teacher string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireView(models.ViewLogin); err != nil {
		return err
	}
	teacher = strings.TrimSpace(teacher)
	if teacher == "" {
		return ErrBlankName
	}
	s.teacher = teacher
	s.view = models.ViewStudentList
	return nil
}

// SelectStudent opens the workspace for a student, discarding all state
// of the previous one. Defaults and the teacher name survive.
func (s *Session) SelectStudent(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireView(models.ViewStudentList); err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrBlankName
	}
	s.resetStudent()
	s.profile = models.NewProfile(name)
	s.hasStudent = true
	s.showIntake = true
	s.view = models.ViewWorkspace
	s.log.Info("student selected", "student", name, "epoch", s.epoch)
	return nil
}

// Back returns to the student list keeping the workspace as is.
func (s *Session) Back() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireView(models.ViewWorkspace); err != nil {
		return err
	}
	s.view = models.ViewStudentList
	return nil
}

// Logout returns to the login view and clears the whole session.
func (s *Session) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireView(models.ViewStudentList); err != nil {
		return err
	}
	s.resetAll()
	return nil
}

// SelectMuscleGroup fills the exercise options from the catalog. An empty
// or unknown group yields no options.
func (s *Session) SelectMuscleGroup(group string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireWorkspace(); err != nil {
		return nil, err
	}
	s.muscleGroup = group
	s.options = s.catalog.ExercisesFor(group)
	return s.options, nil
}

// UpdateProfile replaces the intake answers. The student name is kept.
func (s *Session) UpdateProfile(p models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireWorkspace(); err != nil {
		return err
	}
	p.Name = s.profile.Name
	s.profile = p
	return nil
}

func (s *Session) CloseIntake() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireWorkspace(); err != nil {
		return err
	}
	s.showIntake = false
	return nil
}

func (s *Session) CloseReport() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireWorkspace(); err != nil {
		return err
	}
	s.showReport = false
	return nil
}

// Image returns the illustration of the selected exercise, if any.
func (s *Session) Image() *models.Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.image
}

// Report returns the current periodization report, if any.
func (s *Session) Report() (*models.Report, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.report, s.profile.Name
}

// record writes a journal entry for one AI call. Journal failures are
// logged and otherwise ignored.
func (s *Session) record(ctx context.Context, op, subject string, started time.Time, status string, callErr error) {
	if s.journal == nil {
		return
	}
	e := journal.Entry{
		CreatedAt:  started,
		Operation:  op,
		Subject:    subject,
		Status:     status,
		DurationMs: time.Since(started).Milliseconds(),
	}
	if callErr != nil {
		msg := callErr.Error()
		e.ErrorMessage = &msg
	}
	if _, err := s.journal.Record(context.WithoutCancel(ctx), e); err != nil {
		s.log.Warn("journal record failed", "operation", op, "error", err)
	}
}
