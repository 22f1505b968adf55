package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/steveyegge/agentflows/internal/report"
)

var sentimentCmd = &cobra.Command{
	Use:   "sentiment [review]",
	Short: "Classify a product review as positive, negative or neutral",
	RunE: func(cmd *cobra.Command, args []string) error {
		review, err := readInput(args)
		if err != nil {
			return err
		}

		set := buildWorkflows(cmd.Context())
		result, err := set.Classifier.Classify(cmd.Context(), review)
		if err != nil {
			return err
		}

		report.New(os.Stdout).Sentiment(result)
		printUsage(set)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sentimentCmd)
}
