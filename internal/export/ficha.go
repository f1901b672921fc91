// Package export renders the workout sheet and the periodization report
// for printing and sharing.
package export

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/meltforce/fichatreino/internal/models"
	"github.com/meltforce/fichatreino/internal/workspace"
)

// Format is an output format for the ficha.
type Format string

const (
	FormatText     Format = "text"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// ParseFormat accepts a format name, defaulting to text when empty.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatText, nil
	case FormatText, FormatCSV, FormatMarkdown, FormatHTML:
		return f, nil
	case "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unknown export format %q", s)
	}
}

// ContentType is the HTTP media type for f.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	case FormatHTML:
		return "text/html; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Ordinal renders a 1-based workout position as shown on the sheet.
func Ordinal(n int) string {
	return strconv.Itoa(n) + "º"
}

// Sheet is one workout ready to render.
type Sheet struct {
	Workout string
	Student string
	Entries []models.PrescribedExercise
}

// FromState builds the sheet of the session's current workout.
func FromState(st workspace.State) Sheet {
	sheet := Sheet{Workout: st.WorkoutName, Entries: st.Cart}
	if st.Profile != nil {
		sheet.Student = st.Profile.Name
	}
	return sheet
}

// Title is the caption shown above the table.
func (s Sheet) Title() string {
	if s.Student == "" {
		return s.Workout
	}
	return s.Workout + " · " + s.Student
}

var fichaHeader = table.Row{"#", "Exercício", "Séries", "Repetições", "Descanso", "Técnica", "Observação"}

// Render draws the sheet in format f. Color only affects text output.
func Render(s Sheet, f Format, color bool) (string, error) {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	if color && f == FormatText {
		tw.SetStyle(table.StyleColoredBright)
	}
	tw.SetTitle(s.Title())
	tw.AppendHeader(fichaHeader)
	for i, e := range s.Entries {
		tw.AppendRow(table.Row{Ordinal(i + 1), e.Name, e.Sets, e.Reps, e.Rest, e.Technique, e.Observation})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 3, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 7, WidthMax: 40},
	})

	switch f {
	case FormatText:
		return tw.Render(), nil
	case FormatCSV:
		return tw.RenderCSV(), nil
	case FormatMarkdown:
		return tw.RenderMarkdown(), nil
	case FormatHTML:
		return tw.RenderHTML(), nil
	default:
		return "", fmt.Errorf("unknown export format %q", f)
	}
}
