package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"github.com/meltforce/fichatreino/internal/models"
)

// Raw HTML in model output is escaped: WithUnsafe is not set.
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// ReportMarkdown lays out a periodization report as a Markdown document.
func ReportMarkdown(student string, r models.Report) string {
	var b strings.Builder
	if student != "" {
		fmt.Fprintf(&b, "# Periodização: %s\n\n", student)
	} else {
		b.WriteString("# Periodização\n\n")
	}
	b.WriteString("## Resumo\n\n")
	b.WriteString(strings.TrimSpace(r.Summary) + "\n\n")
	b.WriteString("## Macrociclo\n\n")
	b.WriteString(strings.TrimSpace(r.Macrocycle) + "\n\n")
	b.WriteString("## Notas clínicas\n\n")
	for _, note := range r.ClinicalNotes {
		b.WriteString("- " + strings.TrimSpace(note) + "\n")
	}
	return b.String()
}

// MarkdownToHTML renders Markdown, such as AI-generated text, as HTML.
func MarkdownToHTML(md string) (string, error) {
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return buf.String(), nil
}

// ReportHTML renders the report as an HTML fragment.
func ReportHTML(student string, r models.Report) (string, error) {
	return MarkdownToHTML(ReportMarkdown(student, r))
}
