package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/steveyegge/agentflows/internal/report"
)

var voteCmd = &cobra.Command{
	Use:   "vote [file]",
	Short: "Ask a panel of security reviewers whether code is vulnerable",
	Long: `Send the same code to the SQL injection, authentication and general
security reviewers in parallel. Each reports whether it found a vulnerability,
the issue type and its confidence. The consensus is VULNERABLE when strictly
more than half of the panel reports a vulnerability. Any failed ballot fails
the vote.

Reads the code from the given file, or from stdin when no file is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var code string
		var err error
		if len(args) == 1 && args[0] != "-" {
			code, err = readFile(args[0])
		} else {
			code, err = readInput(nil)
		}
		if err != nil {
			return err
		}

		set := buildWorkflows(cmd.Context())
		verdict, err := set.Voter.Vote(cmd.Context(), code)
		if err != nil {
			return err
		}

		report.New(os.Stdout).Vote(verdict)
		printUsage(set)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(voteCmd)
}
