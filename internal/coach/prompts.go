// Package coach builds the prompts sent to the AI service and turns its
// answers into typed results.
package coach

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/meltforce/fichatreino/internal/genai"
	"github.com/meltforce/fichatreino/internal/models"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// FallbackCue is shown when no technical cue could be generated.
const FallbackCue = "Foque na estabilidade e controle do movimento."

// IllustrationOptions is the fixed shape of exercise illustrations.
var IllustrationOptions = genai.ImageOptions{
	Count:       1,
	AspectRatio: "16:9",
	MIMEType:    "image/jpeg",
}

// Name tokens that disambiguate equipment or execution, keyed by their
// accent-folded lowercase form.
var equipmentRules = []struct {
	tokens []string
	hint   string
}{
	{[]string{"hbc", "halter", "halteres"}, "HBC: Haltere (Dumbbell). Nunca barra."},
	{[]string{"hbl"}, "HBL: Barra Longa."},
	{[]string{"alternado", "alternada"}, "Alternado: Execução assimétrica."},
	{[]string{"sumo"}, "Sumô: Pernas bem afastadas."},
	{[]string{"unilateral"}, "Unilateral: um membro por vez, tronco estabilizado."},
}

var fold = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func foldTokens(name string) map[string]bool {
	folded, _, err := transform.String(fold, strings.ToLower(name))
	if err != nil {
		folded = strings.ToLower(name)
	}
	tokens := make(map[string]bool)
	for _, tok := range strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		tokens[tok] = true
	}
	return tokens
}

// EquipmentHints returns the execution hints implied by the exercise name.
// Matching ignores case and accents, so "Sumô" and "sumo" are equivalent.
func EquipmentHints(name string) []string {
	tokens := foldTokens(name)
	var hints []string
	for _, rule := range equipmentRules {
		for _, tok := range rule.tokens {
			if tokens[tok] {
				hints = append(hints, rule.hint)
				break
			}
		}
	}
	return hints
}

// AnalysisPrompt asks for description, benefits and an English visual prompt.
func AnalysisPrompt(exercise string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analise o exercício %q.\n", exercise)
	b.WriteString("Instruções biomecânicas:\n")
	b.WriteString("- Se HBC: Haltere (Dumbbell). Nunca barra.\n")
	b.WriteString("- Se HBL: Barra Longa.\n")
	b.WriteString("- Se \"alternado\": Execução asimétrica.\n")
	b.WriteString("- Se \"sumô\": Pernas bem afastadas.\n")
	if hints := EquipmentHints(exercise); len(hints) > 0 {
		b.WriteString("Indícios detectados no nome:\n")
		for _, h := range hints {
			b.WriteString("- " + h + "\n")
		}
	}
	b.WriteString("\nForneça:\n")
	b.WriteString("1. Descrição técnica curta (português).\n")
	b.WriteString("2. 3 Benefícios (português).\n")
	b.WriteString("3. PROMPT VISUAL INGLÊS 8k descrevendo atleta preto, biomecânica e luz de estúdio.")
	return b.String()
}

// CuePrompt asks for a quick biomechanical cue adapted to the student.
func CuePrompt(exercise, neurodivergence string) string {
	profile := strings.TrimSpace(neurodivergence)
	if profile == "" {
		profile = "padrão"
	}
	return fmt.Sprintf("Dica biomecânica rápida para: %q. Considere perfil: %s.", exercise, profile)
}

// PeriodizationPrompt asks for a periodized plan from the intake profile.
func PeriodizationPrompt(p models.Profile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "PhD em Fisiologia: Periodize para %s. Objetivos: %s. TEA/TDAH: %s.",
		p.Name, p.Objectives, p.Neurodivergence)

	extra := []struct{ label, value string }{
		{"Idade", p.Age},
		{"Altura (cm)", p.Height},
		{"Peso (kg)", p.Weight},
		{"Histórico médico", p.MedicalHistory},
		{"Medicações", p.Medications},
		{"Preferência por exercício", p.ExercisePreference},
		{"Outras atividades", p.OtherActivities},
		{"Horários de treino", p.TrainingSchedule},
		{"Duração da sessão", p.SessionDuration},
		{"Prazo do objetivo", p.GoalTimeline},
	}
	for _, e := range extra {
		if v := strings.TrimSpace(e.value); v != "" {
			fmt.Fprintf(&b, " %s: %s.", e.label, v)
		}
	}
	if p.Bariatric {
		b.WriteString(" Bariátrica: Sim.")
	}
	return b.String()
}

// InsightPrompt asks for three short safety and focus tips.
func InsightPrompt(p models.Profile) string {
	bariatric := "Não"
	if p.Bariatric {
		bariatric = "Sim"
	}
	return fmt.Sprintf("Analise: Aluno: %s, TEA/TDAH: %s, Bariátrica: %s. Forneça 3 dicas curtas de segurança e foco para o treinador.",
		p.Name, p.Neurodivergence, bariatric)
}
