package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"

	"github.com/steveyegge/agentflows/internal/ai"
	"github.com/steveyegge/agentflows/internal/chain"
	"github.com/steveyegge/agentflows/internal/classify"
	"github.com/steveyegge/agentflows/internal/iterative"
	"github.com/steveyegge/agentflows/internal/quorum"
	"github.com/steveyegge/agentflows/internal/report"
	"github.com/steveyegge/agentflows/internal/routing"
)

// Workflows is the set of operations the shell can run.
// *workflows.Set satisfies it.
type Workflows interface {
	Refine(ctx context.Context, task string, maxIterations int) (*iterative.LoopResult, error)
	Usage() ai.UsageSnapshot
	LoopStats() *iterative.AggregateMetrics
}

// Router routes a customer query.
type Router interface {
	Route(ctx context.Context, query string) (*routing.Result, error)
}

// Classifier labels review sentiment.
type Classifier interface {
	Classify(ctx context.Context, review string) (*classify.Result, error)
}

// Voter runs the security review panel.
type Voter interface {
	Vote(ctx context.Context, code string) (*quorum.Verdict, error)
}

// Chainer runs the marketing copy/translation chain.
type Chainer interface {
	Run(ctx context.Context, req chain.Request) (*chain.Result, error)
}

// REPL represents the interactive shell
type REPL struct {
	flows      Workflows
	router     Router
	classifier Classifier
	voter      Voter
	chainer    Chainer

	out      io.Writer
	printer  *report.Printer
	rl       *readline.Instance
	ctx      context.Context
	history  string
	commands map[string]CommandHandler
}

// CommandHandler handles a specific command. args is the rest of the line
// after the command word, trimmed.
type CommandHandler func(args string) error

// Config holds REPL configuration
type Config struct {
	Workflows  Workflows
	Router     Router
	Classifier Classifier
	Voter      Voter
	Chain      Chainer

	// Out receives all output (default: stdout)
	Out io.Writer

	// HistoryFile persists readline history ("" = in-memory)
	HistoryFile string
}

// New creates a new REPL instance
func New(cfg *Config) (*REPL, error) {
	if cfg.Workflows == nil {
		return nil, fmt.Errorf("workflows are required")
	}

	out := cfg.Out
	if out == nil {
		out = os.Stdout
	}

	r := &REPL{
		flows:      cfg.Workflows,
		router:     cfg.Router,
		classifier: cfg.Classifier,
		voter:      cfg.Voter,
		chainer:    cfg.Chain,
		out:        out,
		printer:    report.New(out),
		ctx:        context.Background(),
		history:    cfg.HistoryFile,
		commands:   make(map[string]CommandHandler),
	}

	r.registerCommands()

	return r, nil
}

// Run starts the REPL loop
func (r *REPL) Run(ctx context.Context) error {
	r.ctx = ctx

	cyan := color.New(color.FgCyan).SprintFunc()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:            cyan("flows> "),
		HistoryFile:       r.history,
		AutoComplete:      r.completer(),
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
		Stdout:            r.out,
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	r.rl = rl

	r.printWelcome()

	for {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			} else if errors.Is(err, io.EOF) {
				fmt.Fprintln(r.out, "\nGoodbye!")
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if err := r.processInput(line); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			r.printError(err)
		}
	}
}

// processInput processes a single line of input
func (r *REPL) processInput(line string) error {
	command, args, _ := strings.Cut(strings.TrimSpace(line), " ")
	if command == "" {
		return nil
	}

	if handler, ok := r.commands[command]; ok {
		return handler(strings.TrimSpace(args))
	}

	yellow := color.New(color.FgYellow).SprintFunc()
	fmt.Fprintf(r.out, "%s unknown command %q. Use 'help' for available commands.\n", yellow("Note:"), command)
	return nil
}

func (r *REPL) registerCommands() {
	r.commands["help"] = r.cmdHelp
	r.commands["?"] = r.cmdHelp
	r.commands["exit"] = r.cmdExit
	r.commands["quit"] = r.cmdExit
	r.commands["refine"] = r.cmdRefine
	r.commands["route"] = r.cmdRoute
	r.commands["sentiment"] = r.cmdSentiment
	r.commands["vote"] = r.cmdVote
	r.commands["chain"] = r.cmdChain
	r.commands["usage"] = r.cmdUsage
}

func (r *REPL) completer() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem("help"),
		readline.PcItem("refine"),
		readline.PcItem("route"),
		readline.PcItem("sentiment"),
		readline.PcItem("vote"),
		readline.PcItem("chain"),
		readline.PcItem("usage"),
		readline.PcItem("exit"),
	)
}

func (r *REPL) printWelcome() {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	fmt.Fprintf(r.out, "\n%s\n", cyan("agentflows interactive shell"))
	fmt.Fprintln(r.out, "Type 'help' for available commands, 'exit' to quit")
	fmt.Fprintln(r.out)
}

func (r *REPL) printError(err error) {
	var gate *chain.GateValidationError
	if errors.As(err, &gate) {
		r.printer.GateFailure(gate)
		return
	}
	red := color.New(color.FgRed).SprintFunc()
	fmt.Fprintf(r.out, "%s %v\n", red("Error:"), err)
}

func (r *REPL) cmdHelp(string) error {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	fmt.Fprintf(r.out, "\n%s\n\n", cyan("Available Commands:"))

	commands := []struct {
		name string
		desc string
	}{
		{"refine [-n N] <task>", "Generate code, then review and optimize until it is production ready"},
		{"route <query>", "Classify a support query and answer it with the matching handler"},
		{"sentiment <review>", "Classify a product review as positive, negative or neutral"},
		{"vote <code>", "Ask the security panel whether code is vulnerable"},
		{"chain <product> [| language]", "Write marketing copy, check it, then translate it"},
		{"usage", "Show model calls, tokens and refinement outcomes for this session"},
		{"help, ?", "Show this help message"},
		{"exit, quit", "Exit the shell"},
	}
	for _, cmd := range commands {
		fmt.Fprintf(r.out, "  %-30s %s\n", green(cmd.name), cmd.desc)
	}
	fmt.Fprintln(r.out)
	return nil
}

func (r *REPL) cmdExit(string) error {
	green := color.New(color.FgGreen).SprintFunc()
	fmt.Fprintf(r.out, "\n%s Goodbye!\n", green("✓"))
	if r.rl != nil {
		r.rl.Close()
	}
	return io.EOF
}

func (r *REPL) cmdRefine(args string) error {
	maxIterations := 0
	if rest, ok := strings.CutPrefix(args, "-n "); ok {
		nStr, task, _ := strings.Cut(strings.TrimSpace(rest), " ")
		n, err := strconv.Atoi(nStr)
		if err != nil {
			return fmt.Errorf("invalid iteration count %q", nStr)
		}
		maxIterations = n
		args = strings.TrimSpace(task)
	}
	if args == "" {
		return fmt.Errorf("usage: refine [-n N] <task>")
	}

	result, err := r.flows.Refine(r.ctx, args, maxIterations)
	if err != nil {
		return err
	}
	r.printer.Loop(result, report.LoopOptions{})
	return nil
}

func (r *REPL) cmdRoute(args string) error {
	if r.router == nil {
		return fmt.Errorf("routing is not available")
	}
	if args == "" {
		return fmt.Errorf("usage: route <query>")
	}
	result, err := r.router.Route(r.ctx, args)
	if err != nil {
		return err
	}
	r.printer.Route(result)
	return nil
}

func (r *REPL) cmdSentiment(args string) error {
	if r.classifier == nil {
		return fmt.Errorf("sentiment classification is not available")
	}
	if args == "" {
		return fmt.Errorf("usage: sentiment <review>")
	}
	result, err := r.classifier.Classify(r.ctx, args)
	if err != nil {
		return err
	}
	r.printer.Sentiment(result)
	return nil
}

func (r *REPL) cmdVote(args string) error {
	if r.voter == nil {
		return fmt.Errorf("voting is not available")
	}
	if args == "" {
		return fmt.Errorf("usage: vote <code>")
	}
	verdict, err := r.voter.Vote(r.ctx, args)
	if err != nil {
		return err
	}
	r.printer.Vote(verdict)
	return nil
}

func (r *REPL) cmdChain(args string) error {
	if r.chainer == nil {
		return fmt.Errorf("chain is not available")
	}
	product, language, _ := strings.Cut(args, "|")
	req := chain.Request{Product: strings.TrimSpace(product), Language: strings.TrimSpace(language)}
	if req.Product == "" {
		return fmt.Errorf("usage: chain <product> [| language]")
	}
	result, err := r.chainer.Run(r.ctx, req)
	if err != nil {
		return err
	}
	r.printer.Chain(result)
	return nil
}

func (r *REPL) cmdUsage(string) error {
	r.printer.Usage(r.flows.Usage())
	r.printer.LoopStats(r.flows.LoopStats())
	return nil
}
