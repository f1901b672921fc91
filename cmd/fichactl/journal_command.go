package main

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newJournalCommand(cc *commandContext) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "List recent AI calls",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entries, err := cc.client().Journal(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if cc.jsonOut {
				return writeJSON(cmd, entries)
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No AI calls recorded")
				return nil
			}

			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				errMsg := ""
				if e.ErrorMessage != nil {
					errMsg = *e.ErrorMessage
				}
				rows = append(rows, []string{
					strconv.FormatInt(e.ID, 10),
					humanize.Time(e.CreatedAt),
					e.Operation,
					e.Subject,
					e.Status,
					fmt.Sprintf("%dms", e.DurationMs),
					errMsg,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Quando", "Operação", "Assunto", "Status", "Duração", "Erro"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of entries")
	return cmd
}
