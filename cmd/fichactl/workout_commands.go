package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meltforce/fichatreino/internal/client"
	"github.com/meltforce/fichatreino/internal/export"
	"github.com/meltforce/fichatreino/internal/models"
	"github.com/meltforce/fichatreino/internal/workspace"
)

// dosageFlags registers the prescription flags on cmd.
type dosageFlags struct {
	sets, reps, rest, technique, observation string
}

func (d *dosageFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&d.sets, "sets", "", "Number of sets")
	cmd.Flags().StringVar(&d.reps, "reps", "", "Repetitions, e.g. 10-12")
	cmd.Flags().StringVar(&d.rest, "rest", "", "Rest between sets, e.g. 60s")
	cmd.Flags().StringVar(&d.technique, "technique", "", "Intensity technique")
	cmd.Flags().StringVar(&d.observation, "observation", "", "Free-text note")
}

// merge overrides the fields of base whose flags were set.
func (d *dosageFlags) merge(cmd *cobra.Command, base models.Dosage) models.Dosage {
	set := func(name string, dst *string, v string) {
		if cmd.Flags().Changed(name) {
			*dst = v
		}
	}
	set("sets", &base.Sets, d.sets)
	set("reps", &base.Reps, d.reps)
	set("rest", &base.Rest, d.rest)
	set("technique", &base.Technique, d.technique)
	set("observation", &base.Observation, d.observation)
	return base
}

func newWorkoutCommand(cc *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workout",
		Short: "Build the ficha de treino",
	}
	cmd.AddCommand(newWorkoutShowCommand(cc))
	cmd.AddCommand(newWorkoutAddCommand(cc))
	cmd.AddCommand(newWorkoutEditCommand(cc))
	cmd.AddCommand(newWorkoutRemoveCommand(cc))
	cmd.AddCommand(newWorkoutCancelCommand(cc))
	cmd.AddCommand(newWorkoutCycleCommand(cc))
	cmd.AddCommand(newWorkoutDefaultsCommand(cc))
	return cmd
}

func newWorkoutShowCommand(cc *commandContext) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the workout sheet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			st, err := cc.client().State(cmd.Context())
			if err != nil {
				return err
			}
			if cc.jsonOut {
				return writeJSON(cmd, export.FromState(st))
			}
			out := cmd.OutOrStdout()
			sheet, err := export.Render(export.FromState(st), f, f == export.FormatText && shouldColorize(out))
			if err != nil {
				return err
			}
			fmt.Fprintln(out, sheet)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, csv, markdown or html")
	return cmd
}

// confirmDialog fills the open dialog and confirms it, cancelling on error.
func confirmDialog(cmd *cobra.Command, c *client.Client, d *dosageFlags, st workspace.State) (workspace.State, error) {
	ctx := cmd.Context()
	st, err := c.SetBuffer(ctx, d.merge(cmd, st.Dialog.Buffer))
	if err == nil {
		st, err = c.Confirm(ctx)
	}
	if err != nil {
		_, _ = c.CancelDialog(ctx)
	}
	return st, err
}

func newWorkoutAddCommand(cc *commandContext) *cobra.Command {
	var d dosageFlags
	cmd := stateCommand(cc, "add", "Add the selected exercise to the workout", cobra.NoArgs, func(cmd *cobra.Command, _ []string) (workspace.State, error) {
		c := cc.client()
		st, err := c.State(cmd.Context())
		if err != nil {
			return st, err
		}
		if st.Selected == nil {
			return st, fmt.Errorf("no exercise selected; run 'fichactl exercise <name>' first")
		}
		if st, err = c.OpenAddDialog(cmd.Context()); err != nil {
			return st, err
		}
		return confirmDialog(cmd, c, &d, st)
	})
	d.register(cmd)
	return cmd
}

func newWorkoutEditCommand(cc *commandContext) *cobra.Command {
	var d dosageFlags
	cmd := stateCommand(cc, "edit <id>", "Change the dosage of a workout entry", cobra.ExactArgs(1), func(cmd *cobra.Command, args []string) (workspace.State, error) {
		c := cc.client()
		st, err := c.OpenEditDialog(cmd.Context(), args[0])
		if err != nil {
			return st, err
		}
		return confirmDialog(cmd, c, &d, st)
	})
	d.register(cmd)
	return cmd
}

func newWorkoutRemoveCommand(cc *commandContext) *cobra.Command {
	return stateCommand(cc, "remove <id>", "Remove a workout entry", cobra.ExactArgs(1), func(cmd *cobra.Command, args []string) (workspace.State, error) {
		return cc.client().Remove(cmd.Context(), args[0])
	})
}

func newWorkoutCancelCommand(cc *commandContext) *cobra.Command {
	return stateCommand(cc, "cancel", "Close the configuration dialog without saving", cobra.NoArgs, func(cmd *cobra.Command, _ []string) (workspace.State, error) {
		return cc.client().CancelDialog(cmd.Context())
	})
}

func newWorkoutCycleCommand(cc *commandContext) *cobra.Command {
	return stateCommand(cc, "cycle", "Advance the workout label (TREINO A to E)", cobra.NoArgs, func(cmd *cobra.Command, _ []string) (workspace.State, error) {
		return cc.client().CycleName(cmd.Context())
	})
}

func newWorkoutDefaultsCommand(cc *commandContext) *cobra.Command {
	var d dosageFlags
	cmd := stateCommand(cc, "defaults", "Change the dosage template for new entries", cobra.NoArgs, func(cmd *cobra.Command, _ []string) (workspace.State, error) {
		c := cc.client()
		st, err := c.State(cmd.Context())
		if err != nil {
			return st, err
		}
		return c.SetDefaults(cmd.Context(), d.merge(cmd, st.Defaults))
	})
	d.register(cmd)
	return cmd
}
