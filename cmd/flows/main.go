package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/steveyegge/agentflows/internal/chain"
	"github.com/steveyegge/agentflows/internal/config"
	"github.com/steveyegge/agentflows/internal/report"
	"github.com/steveyegge/agentflows/internal/workflows"
)

var (
	configPath string
	provider   string
	model      string
	verbose    bool
	showUsage  bool

	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "flows",
	Short: "Run structured-output LLM workflows",
	Long: `flows runs small LLM workflows against a local Ollama server or a hosted
provider (Anthropic, Gemini). Every model call returns schema-checked JSON.

Workflows:
  refine     generate code, then review and optimize it until it is production ready
  route      classify a support query and answer it with one specialized handler
  sentiment  classify a product review
  vote       ask a panel of security reviewers whether code is vulnerable
  chain      write marketing copy, check it in code, then translate it`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)

		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if provider != "" {
			loaded.Provider.Name = provider
			loaded.ResolveAPIKey()
		}
		if model != "" {
			loaded.Provider.Model = model
		}
		if err := loaded.Validate(); err != nil {
			return err
		}
		cfg = loaded
		logger.Debug("configuration loaded", "config", cfg.String())
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to YAML config file")
	rootCmd.PersistentFlags().StringVarP(&provider, "provider", "p", "", "Model provider: ollama, anthropic or gemini")
	rootCmd.PersistentFlags().StringVarP(&model, "model", "m", "", "Model name (provider default when empty)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&showUsage, "usage", false, "Print model usage after the command")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		printError(err)
		stop()
		os.Exit(1)
	}
}

// buildWorkflows wires every workflow over the configured provider.
func buildWorkflows(ctx context.Context) *workflows.Set {
	set, err := workflows.Build(ctx, cfg, logger)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	return set
}

func printUsage(set *workflows.Set) {
	if showUsage {
		fmt.Fprintln(os.Stderr)
		printer := report.New(os.Stderr)
		printer.Usage(set.Usage())
		printer.LoopStats(set.LoopStats())
	}
}

func printError(err error) {
	var gate *chain.GateValidationError
	if errors.As(err, &gate) {
		report.New(os.Stderr).GateFailure(gate)
		return
	}
	red := color.New(color.FgRed).SprintFunc()
	fmt.Fprintf(os.Stderr, "%s %v\n", red("Error:"), err)
}
