package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/meltforce/fichatreino/internal/export"
	"github.com/meltforce/fichatreino/internal/models"
	"github.com/meltforce/fichatreino/internal/workspace"
)

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := range columns {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := range columns {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

// printState writes a short human summary of the workspace.
func printState(cmd *cobra.Command, cc *commandContext, st workspace.State) error {
	if cc.jsonOut {
		return writeJSON(cmd, st)
	}
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "View: %s\n", st.View)
	if st.Teacher != "" {
		fmt.Fprintf(out, "Treinador: %s\n", st.Teacher)
	}
	if st.View == models.ViewStudentList {
		fmt.Fprintf(out, "Alunos: %s\n", strings.Join(st.Students, ", "))
	}
	if st.Profile == nil {
		return nil
	}

	fmt.Fprintf(out, "Aluno: %s\n", st.Profile.Name)
	if st.MuscleGroup != "" {
		fmt.Fprintf(out, "Grupo muscular: %s\n", st.MuscleGroup)
	}
	if st.Selected != nil {
		fmt.Fprintf(out, "Exercício: %s [%s]\n", st.Selected.Name, st.EnrichStatus)
		if st.Selected.Description != "" {
			fmt.Fprintf(out, "  %s\n", st.Selected.Description)
		}
		if st.Selected.Benefits != "" {
			fmt.Fprintf(out, "  Benefícios: %s\n", st.Selected.Benefits)
		}
		fmt.Fprintf(out, "  Imagem: %s\n", st.ImageStatus)
	}
	if st.Cue != "" {
		fmt.Fprintf(out, "Dica: %s [%s]\n", st.Cue, st.CueStatus)
	}
	if st.Insight != "" {
		fmt.Fprintf(out, "Insight: %s\n", st.Insight)
	}
	if st.Consulting {
		fmt.Fprintln(out, "Periodização em andamento...")
	}

	sheet, err := export.Render(export.FromState(st), export.FormatText, shouldColorize(out))
	if err != nil {
		return err
	}
	fmt.Fprintln(out, sheet)
	return nil
}
