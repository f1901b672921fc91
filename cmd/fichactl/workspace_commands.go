package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/meltforce/fichatreino/internal/models"
	"github.com/meltforce/fichatreino/internal/workspace"
)

// stateCommand builds a command whose action returns the new state.
func stateCommand(cc *commandContext, use, short string, args cobra.PositionalArgs, run func(cmd *cobra.Command, args []string) (workspace.State, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := run(cmd, args)
			if err != nil {
				return err
			}
			return printState(cmd, cc, st)
		},
	}
}

func newStateCommand(cc *commandContext) *cobra.Command {
	return stateCommand(cc, "state", "Show the workspace", cobra.NoArgs, func(cmd *cobra.Command, _ []string) (workspace.State, error) {
		return cc.client().State(cmd.Context())
	})
}

func newCatalogCommand(cc *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog [group]",
		Short: "List muscle groups and exercises",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			groups, err := cc.client().Catalog(cmd.Context())
			if err != nil {
				return err
			}
			if cc.jsonOut {
				return writeJSON(cmd, groups)
			}

			rows := make([][]string, 0, len(groups))
			for _, g := range groups {
				if len(args) == 1 && !strings.EqualFold(g.Name, args[0]) {
					continue
				}
				rows = append(rows, []string{g.Name, fmt.Sprint(len(g.Exercises)), strings.Join(g.Exercises, ", ")})
			}
			if len(rows) == 0 {
				return fmt.Errorf("unknown muscle group %q", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Grupo", "Qtd", "Exercícios"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}
}

func newLoginCommand(cc *commandContext) *cobra.Command {
	return stateCommand(cc, "login <trainer>", "Log in as a trainer", cobra.ExactArgs(1), func(cmd *cobra.Command, args []string) (workspace.State, error) {
		return cc.client().Login(cmd.Context(), args[0])
	})
}

func newLogoutCommand(cc *commandContext) *cobra.Command {
	return stateCommand(cc, "logout", "Log out and discard the session", cobra.NoArgs, func(cmd *cobra.Command, _ []string) (workspace.State, error) {
		return cc.client().Logout(cmd.Context())
	})
}

func newStudentCommand(cc *commandContext) *cobra.Command {
	return stateCommand(cc, "student <name>", "Open a student's workspace", cobra.ExactArgs(1), func(cmd *cobra.Command, args []string) (workspace.State, error) {
		return cc.client().SelectStudent(cmd.Context(), args[0])
	})
}

func newBackCommand(cc *commandContext) *cobra.Command {
	return stateCommand(cc, "back", "Return to the student list", cobra.NoArgs, func(cmd *cobra.Command, _ []string) (workspace.State, error) {
		return cc.client().Back(cmd.Context())
	})
}

func newGroupCommand(cc *commandContext) *cobra.Command {
	return stateCommand(cc, "group <muscle group>", "Choose the muscle group", cobra.ExactArgs(1), func(cmd *cobra.Command, args []string) (workspace.State, error) {
		return cc.client().SelectMuscleGroup(cmd.Context(), args[0])
	})
}

func newExerciseCommand(cc *commandContext) *cobra.Command {
	var async bool
	cmd := stateCommand(cc, "exercise <name>", "Select an exercise and run the AI analysis", cobra.ExactArgs(1), func(cmd *cobra.Command, args []string) (workspace.State, error) {
		c := cc.client()
		if async {
			return c.StartExercise(cmd.Context(), args[0])
		}
		return c.SelectExercise(cmd.Context(), args[0])
	})
	cmd.Flags().BoolVar(&async, "async", false, "Return immediately with the loading placeholder")
	return cmd
}

func newCueCommand(cc *commandContext) *cobra.Command {
	return stateCommand(cc, "cue", "Generate a technical cue for the selected exercise", cobra.NoArgs, func(cmd *cobra.Command, _ []string) (workspace.State, error) {
		return cc.client().GenerateCue(cmd.Context())
	})
}

func newImageCommand(cc *commandContext) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "image",
		Short: "Save the illustration of the selected exercise",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			img, err := cc.client().Image(cmd.Context())
			if err != nil {
				return err
			}
			if err := os.WriteFile(output, img.Bytes, 0o644); err != nil {
				return fmt.Errorf("writing image: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%s, %s)\n", output, img.MIMEType, humanize.Bytes(uint64(len(img.Bytes))))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "exercicio.jpg", "Destination file")
	return cmd
}

var intakeFlags = []struct {
	name  string
	usage string
	field func(*models.Profile) *string
}{
	{"age", "Age in years", func(p *models.Profile) *string { return &p.Age }},
	{"height", "Height in cm", func(p *models.Profile) *string { return &p.Height }},
	{"weight", "Weight in kg", func(p *models.Profile) *string { return &p.Weight }},
	{"objectives", "Training objectives", func(p *models.Profile) *string { return &p.Objectives }},
	{"neurodivergence", "Neurodivergence profile (TEA/TDAH)", func(p *models.Profile) *string { return &p.Neurodivergence }},
	{"medical-history", "Relevant medical history", func(p *models.Profile) *string { return &p.MedicalHistory }},
	{"medications", "Current medications", func(p *models.Profile) *string { return &p.Medications }},
	{"exercise-preference", "Whether the student likes exercising", func(p *models.Profile) *string { return &p.ExercisePreference }},
	{"other-activities", "Other physical activities", func(p *models.Profile) *string { return &p.OtherActivities }},
	{"training-schedule", "Available training days and times", func(p *models.Profile) *string { return &p.TrainingSchedule }},
	{"session-duration", "Session duration", func(p *models.Profile) *string { return &p.SessionDuration }},
	{"goal-timeline", "Deadline for the objective", func(p *models.Profile) *string { return &p.GoalTimeline }},
}

func newIntakeCommand(cc *commandContext) *cobra.Command {
	values := make(map[string]*string, len(intakeFlags))
	var bariatric, closeForm bool

	cmd := stateCommand(cc, "intake", "Update the student's intake form", cobra.NoArgs, func(cmd *cobra.Command, _ []string) (workspace.State, error) {
		c := cc.client()
		ctx := cmd.Context()

		st, err := c.State(ctx)
		if err != nil {
			return st, err
		}
		if st.Profile == nil {
			return st, fmt.Errorf("no student is open")
		}

		p := *st.Profile
		for _, f := range intakeFlags {
			if cmd.Flags().Changed(f.name) {
				*f.field(&p) = *values[f.name]
			}
		}
		if cmd.Flags().Changed("bariatric") {
			p.Bariatric = bariatric
		}
		if st, err = c.UpdateProfile(ctx, p); err != nil {
			return st, err
		}
		if closeForm {
			return c.CloseIntake(ctx)
		}
		return st, nil
	})

	for _, f := range intakeFlags {
		values[f.name] = cmd.Flags().String(f.name, "", f.usage)
	}
	cmd.Flags().BoolVar(&bariatric, "bariatric", false, "Student had bariatric surgery")
	cmd.Flags().BoolVar(&closeForm, "close", false, "Close the intake form afterwards")
	return cmd
}

func newPlanCommand(cc *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Request a periodization plan from the intake",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := cc.client().RequestPlan(cmd.Context())
			if err != nil {
				return err
			}
			if st.ReportStatus == models.StatusFailed {
				return fmt.Errorf("periodization failed; the previous report is kept")
			}
			if cc.jsonOut {
				return writeJSON(cmd, st.Report)
			}
			report, err := cc.client().Report(cmd.Context(), "markdown")
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), report)
			return nil
		},
	}
}

func newReportCommand(cc *commandContext) *cobra.Command {
	var format string
	var closeReport bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the latest periodization report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := cc.client()
			if closeReport {
				st, err := c.CloseReport(cmd.Context())
				if err != nil {
					return err
				}
				return printState(cmd, cc, st)
			}
			out, err := c.Report(cmd.Context(), format)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "markdown", "Output format: json, markdown or html")
	cmd.Flags().BoolVar(&closeReport, "close", false, "Close the report panel instead of printing")
	return cmd
}
