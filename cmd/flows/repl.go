package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/steveyegge/agentflows/internal/repl"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive shell",
	Long: `Start an interactive shell that runs any workflow by command.

Type 'help' in the shell for available commands.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		noHistory, _ := cmd.Flags().GetBool("no-history")

		set := buildWorkflows(cmd.Context())

		history := ""
		if !noHistory {
			if home, err := os.UserHomeDir(); err == nil {
				history = filepath.Join(home, ".flows_history")
			}
		}

		r, err := repl.New(&repl.Config{
			Workflows:   set,
			Router:      set.Router,
			Classifier:  set.Classifier,
			Voter:       set.Voter,
			Chain:       set.Chain,
			HistoryFile: history,
		})
		if err != nil {
			return err
		}
		return r.Run(cmd.Context())
	},
}

func init() {
	replCmd.Flags().Bool("no-history", false, "Keep shell history in memory only")
	rootCmd.AddCommand(replCmd)
}
