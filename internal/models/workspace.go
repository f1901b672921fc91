package models

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// View is the active screen of a workspace session.
type View string

const (
	ViewLogin       View = "login"
	ViewStudentList View = "student-list"
	ViewWorkspace   View = "workspace"
)

// Status tracks the lifecycle of one asynchronous field.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Profile is the intake (anamnesis) questionnaire of the active student.
// Numeric fields stay free text, as typed by the trainer.
type Profile struct {
	Name               string `json:"name"`
	Age                string `json:"age"`
	Height             string `json:"height"`
	Weight             string `json:"weight"`
	Objectives         string `json:"objectives"`
	Neurodivergence    string `json:"neurodivergence"`
	MedicalHistory     string `json:"medical_history"`
	Bariatric          bool   `json:"bariatric"`
	Medications        string `json:"medications"`
	ExercisePreference string `json:"exercise_preference"`
	OtherActivities    string `json:"other_activities"`
	TrainingSchedule   string `json:"training_schedule"`
	SessionDuration    string `json:"session_duration"`
	GoalTimeline       string `json:"goal_timeline"`
}

// NewProfile returns an empty intake for the named student.
func NewProfile(name string) Profile {
	return Profile{Name: name, ExercisePreference: "Gosta"}
}

// ExerciseDetail is the currently selected exercise. Description and
// Benefits stay empty until enrichment succeeds for Name.
type ExerciseDetail struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Benefits    string `json:"benefits,omitempty"`
}

// Enriched reports whether the AI analysis populated the detail.
func (d ExerciseDetail) Enriched() bool {
	return d.Description != "" || d.Benefits != ""
}

// Dosage is the prescription attached to an exercise.
type Dosage struct {
	Sets        string `json:"sets"`
	Reps        string `json:"reps"`
	Rest        string `json:"rest"`
	Technique   string `json:"technique"`
	Observation string `json:"observation"`
}

// DefaultDosage is the template a new session starts with.
func DefaultDosage() Dosage {
	return Dosage{
		Sets:      "3",
		Reps:      "10-12",
		Rest:      "60s",
		Technique: "Normal",
	}
}

// PrescribedExercise is one entry of the workout cart.
type PrescribedExercise struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Dosage
	Image *Image `json:"image,omitempty"`
}

// Image is a generated illustration. It travels in JSON as a data URI.
type Image struct {
	MIMEType string
	Bytes    []byte
}

// DataURI renders the image as data:<mime>;base64,<payload>.
func (img *Image) DataURI() string {
	return "data:" + img.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(img.Bytes)
}

func (img *Image) MarshalJSON() ([]byte, error) {
	return json.Marshal(img.DataURI())
}

func (img *Image) UnmarshalJSON(data []byte) error {
	var uri string
	if err := json.Unmarshal(data, &uri); err != nil {
		return err
	}
	parsed, err := ParseDataURI(uri)
	if err != nil {
		return err
	}
	*img = *parsed
	return nil
}

// ParseDataURI decodes a base64 data URI.
func ParseDataURI(uri string) (*Image, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return nil, fmt.Errorf("not a data URI")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, fmt.Errorf("data URI without payload")
	}
	mime, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return nil, fmt.Errorf("data URI is not base64 encoded")
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decoding data URI: %w", err)
	}
	return &Image{MIMEType: mime, Bytes: raw}, nil
}

// Report is a periodization plan produced for the active student.
type Report struct {
	Summary       string   `json:"summary"`
	Macrocycle    string   `json:"macrocycle"`
	ClinicalNotes []string `json:"clinical_notes"`
}
