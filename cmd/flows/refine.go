package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/steveyegge/agentflows/internal/report"
)

var refineCmd = &cobra.Command{
	Use:   "refine <task>",
	Short: "Generate code and iterate review/optimize until it is production ready",
	Long: `Generate code for a task, then loop: review the current code and, unless the
reviewer marks it production ready or the iteration budget is spent, feed the
reviewer's suggestions to an optimizer and review the rewrite.

The full trace (initial code, every review and every optimization) is printed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		maxIterations, _ := cmd.Flags().GetInt("max-iterations")
		showDiffs, _ := cmd.Flags().GetBool("diff")

		set := buildWorkflows(cmd.Context())
		result, err := set.Refine(cmd.Context(), strings.Join(args, " "), maxIterations)
		if err != nil {
			return err
		}

		report.New(os.Stdout).Loop(result, report.LoopOptions{ShowDiffs: showDiffs})
		printUsage(set)
		return nil
	},
}

func init() {
	refineCmd.Flags().IntP("max-iterations", "n", 0, "Review budget (default from config, 3)")
	refineCmd.Flags().Bool("diff", false, "Show a unified diff for every optimization")
	rootCmd.AddCommand(refineCmd)
}
