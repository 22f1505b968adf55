package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/steveyegge/agentflows/internal/report"
)

var routeCmd = &cobra.Command{
	Use:   "route [query]",
	Short: "Classify a support query and answer it with the matching handler",
	Long: `Classify a customer query as technical, billing, general or refund and
dispatch it to exactly one handler. Refund requests are escalated without a
model call. Unrecognized categories fall back to the general handler.

Reads the query from stdin when no argument is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		query, err := readInput(args)
		if err != nil {
			return err
		}

		set := buildWorkflows(cmd.Context())
		result, err := set.Router.Route(cmd.Context(), query)
		if err != nil {
			return err
		}

		report.New(os.Stdout).Route(result)
		printUsage(set)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(routeCmd)
}
