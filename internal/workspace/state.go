package workspace

import (
	"slices"

	"github.com/meltforce/fichatreino/internal/models"
)

// State is a point-in-time copy of the session, as served to clients.
type State struct {
	View         models.View     `json:"view"`
	Teacher      string          `json:"teacher"`
	Students     []string        `json:"students"`
	Profile      *models.Profile `json:"profile,omitempty"`
	ShowIntake   bool            `json:"show_intake"`
	MuscleGroups []string        `json:"muscle_groups"`
	MuscleGroup  string          `json:"muscle_group"`
	Options      []string        `json:"exercise_options"`

	Selected     *models.ExerciseDetail `json:"selected,omitempty"`
	EnrichStatus models.Status          `json:"enrich_status"`
	Image        *models.Image          `json:"image,omitempty"`
	ImageStatus  models.Status          `json:"image_status"`
	ImageLoading bool                   `json:"image_loading"`
	Cue          string                 `json:"cue"`
	CueStatus    models.Status          `json:"cue_status"`

	Report        *models.Report `json:"report,omitempty"`
	ReportStatus  models.Status  `json:"report_status"`
	ShowReport    bool           `json:"show_report"`
	Consulting    bool           `json:"consulting"`
	Insight       string         `json:"insight"`
	InsightStatus models.Status  `json:"insight_status"`

	WorkoutName string                      `json:"workout_name"`
	Cart        []models.PrescribedExercise `json:"cart"`
	Defaults    models.Dosage               `json:"defaults"`
	Dialog      Dialog                      `json:"dialog"`
}

// Dialog is the add/edit configuration dialog. EditTarget is empty in add
// mode.
type Dialog struct {
	Open       bool          `json:"open"`
	Buffer     models.Dosage `json:"buffer"`
	EditTarget string        `json:"edit_target,omitempty"`
}

// Snapshot copies the session state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{
		View:          s.view,
		Teacher:       s.teacher,
		Students:      slices.Clone(s.roster),
		ShowIntake:    s.showIntake,
		MuscleGroups:  s.catalog.Groups(),
		MuscleGroup:   s.muscleGroup,
		Options:       slices.Clone(s.options),
		EnrichStatus:  s.enrichStatus,
		Image:         s.image,
		ImageStatus:   s.imageStatus,
		ImageLoading:  s.imageStatus == models.StatusLoading,
		Cue:           s.cue,
		CueStatus:     s.cueStatus,
		ReportStatus:  s.reportStatus,
		ShowReport:    s.showReport,
		Consulting:    s.consulting,
		Insight:       s.insight,
		InsightStatus: s.insightState,
		WorkoutName:   s.workoutName,
		Cart:          s.cart.Entries(),
		Defaults:      s.defaults,
		Dialog: Dialog{
			Open:       s.dialogOpen,
			Buffer:     s.buffer,
			EditTarget: s.editTarget,
		},
	}
	if s.hasStudent {
		p := s.profile
		st.Profile = &p
	}
	if s.selected != nil {
		d := *s.selected
		st.Selected = &d
	}
	if s.report != nil {
		r := *s.report
		r.ClinicalNotes = slices.Clone(s.report.ClinicalNotes)
		st.Report = &r
	}
	return st
}
