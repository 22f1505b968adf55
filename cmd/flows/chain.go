package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/steveyegge/agentflows/internal/chain"
	"github.com/steveyegge/agentflows/internal/report"
)

var chainCmd = &cobra.Command{
	Use:   "chain <product>",
	Short: "Write marketing copy, check it, then translate it",
	Long: `Generate marketing copy (headline, body, call to action) for the product
and check it in code: a headline of at least 3 words, a call to action with
an action word (buy, get, try, order, download, sign up, learn more) and a
body of at least 10 words. Only copy that passes every check is translated
into the target language.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		language, _ := cmd.Flags().GetString("language")

		set := buildWorkflows(cmd.Context())
		result, err := set.Chain.Run(cmd.Context(), chain.Request{
			Product:  strings.Join(args, " "),
			Language: language,
		})
		if err != nil {
			return err
		}

		report.New(os.Stdout).Chain(result)
		printUsage(set)
		return nil
	},
}

func init() {
	chainCmd.Flags().StringP("language", "l", chain.DefaultLanguage, "Target language for the translation")
	rootCmd.AddCommand(chainCmd)
}
