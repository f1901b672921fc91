package coach

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/meltforce/fichatreino/internal/genai"
	"github.com/meltforce/fichatreino/internal/models"
)

// AnalysisSchema is the structured output of the exercise analysis.
// No single field is required, but an answer with none of them is rejected.
var AnalysisSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"description":  {Type: genai.TypeString},
		"benefits":     {Type: genai.TypeString},
		"visualPrompt": {Type: genai.TypeString},
	},
}

// ReportSchema is the structured output of a periodization request.
var ReportSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"summary":       {Type: genai.TypeString},
		"macrocycle":    {Type: genai.TypeString},
		"clinicalNotes": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
	},
	Required: []string{"summary", "macrocycle", "clinicalNotes"},
}

// ErrEmptyAnalysis is returned when an analysis answer carries no usable
// field.
var ErrEmptyAnalysis = errors.New("empty exercise analysis")

// ErrIncompleteReport is returned when a required report field is absent.
var ErrIncompleteReport = errors.New("incomplete periodization report")

// Analysis is the typed result of the exercise analysis.
type Analysis struct {
	Description  string
	Benefits     string
	VisualPrompt string
}

// looseText accepts a string or a list of strings; anything else decodes
// to empty.
type looseText string

func (t *looseText) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = looseText(strings.TrimSpace(s))
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*t = looseText(strings.TrimSpace(strings.Join(list, "\n")))
		return nil
	}
	*t = ""
	return nil
}

// stripFence removes a Markdown code fence some models wrap JSON in.
func stripFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		text = text[nl+1:]
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

// ParseAnalysis decodes the analysis answer. Missing or mistyped fields come
// back empty. An undecodable document, or one where every field is empty,
// is an error.
func ParseAnalysis(text string) (Analysis, error) {
	var raw struct {
		Description  looseText `json:"description"`
		Benefits     looseText `json:"benefits"`
		VisualPrompt looseText `json:"visualPrompt"`
	}
	if err := json.Unmarshal([]byte(stripFence(text)), &raw); err != nil {
		return Analysis{}, fmt.Errorf("parsing analysis: %w", err)
	}
	a := Analysis{
		Description:  string(raw.Description),
		Benefits:     string(raw.Benefits),
		VisualPrompt: string(raw.VisualPrompt),
	}
	if a == (Analysis{}) {
		return Analysis{}, ErrEmptyAnalysis
	}
	return a, nil
}

// ParseReport decodes a periodization answer and checks that every required
// field is present.
func ParseReport(text string) (models.Report, error) {
	var raw struct {
		Summary       *string  `json:"summary"`
		Macrocycle    *string  `json:"macrocycle"`
		ClinicalNotes []string `json:"clinicalNotes"`
	}
	if err := json.Unmarshal([]byte(stripFence(text)), &raw); err != nil {
		return models.Report{}, fmt.Errorf("parsing report: %w", err)
	}
	switch {
	case raw.Summary == nil:
		return models.Report{}, fmt.Errorf("%w: summary", ErrIncompleteReport)
	case raw.Macrocycle == nil:
		return models.Report{}, fmt.Errorf("%w: macrocycle", ErrIncompleteReport)
	case raw.ClinicalNotes == nil:
		return models.Report{}, fmt.Errorf("%w: clinicalNotes", ErrIncompleteReport)
	}
	return models.Report{
		Summary:       *raw.Summary,
		Macrocycle:    *raw.Macrocycle,
		ClinicalNotes: raw.ClinicalNotes,
	}, nil
}
