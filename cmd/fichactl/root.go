package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/meltforce/fichatreino/internal/client"
)

const defaultServer = "http://localhost:8080"

// commandContext carries the flags shared by every subcommand.
type commandContext struct {
	server  string
	jsonOut bool
}

func (c *commandContext) client() *client.Client {
	return client.New(strings.TrimRight(c.server, "/"))
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "fichactl",
		Short:         "Drive a fichatreino workspace from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	server := os.Getenv("FICHATREINO_URL")
	if server == "" {
		server = defaultServer
	}
	rootCmd.PersistentFlags().StringVarP(&ctx.server, "server", "s", server, "fichatreino server URL")
	rootCmd.PersistentFlags().BoolVar(&ctx.jsonOut, "json", false, "Print raw JSON")

	rootCmd.AddCommand(newStateCommand(ctx))
	rootCmd.AddCommand(newCatalogCommand(ctx))
	rootCmd.AddCommand(newLoginCommand(ctx))
	rootCmd.AddCommand(newLogoutCommand(ctx))
	rootCmd.AddCommand(newStudentCommand(ctx))
	rootCmd.AddCommand(newBackCommand(ctx))
	rootCmd.AddCommand(newGroupCommand(ctx))
	rootCmd.AddCommand(newExerciseCommand(ctx))
	rootCmd.AddCommand(newCueCommand(ctx))
	rootCmd.AddCommand(newImageCommand(ctx))
	rootCmd.AddCommand(newIntakeCommand(ctx))
	rootCmd.AddCommand(newPlanCommand(ctx))
	rootCmd.AddCommand(newReportCommand(ctx))
	rootCmd.AddCommand(newWorkoutCommand(ctx))
	rootCmd.AddCommand(newJournalCommand(ctx))

	return rootCmd
}
