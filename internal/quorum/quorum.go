// Package quorum runs a panel of security reviewer personas over the same
// code in parallel. Each reviewer casts a boolean vulnerability vote with an
// issue label; the code is declared vulnerable by simple majority.
//
// Every persona is invoked exactly once. The panel waits for all ballots;
// any single failure fails the whole vote and no partial tally is returned.
package quorum

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/steveyegge/agentflows/internal/ai"
	"github.com/steveyegge/agentflows/internal/prompts"
)

// DefaultTemperature is used for every ballot.
const DefaultTemperature = 0.2

// DefaultMaxPanelSize bounds the number of personas a panel accepts.
const DefaultMaxPanelSize = 9

const (
	ConsensusVulnerable = "VULNERABLE"
	ConsensusSafe       = "SAFE"
)

// ErrEmptyPanel is returned when a voter is built without personas.
var ErrEmptyPanel = errors.New("quorum panel needs at least one persona")

// Persona is one reviewer on the panel. Role and Focus fill the prompt
// "As <Role>, review this code for <Focus>".
type Persona struct {
	Name  string
	Role  string
	Focus string
}

// DefaultPersonas is the standard three-reviewer security panel.
func DefaultPersonas() []Persona {
	return []Persona{
		{Name: "sql_expert", Role: "an SQL injection expert", Focus: "vulnerabilities"},
		{Name: "auth_expert", Role: "an authentication expert", Focus: "security issues"},
		{Name: "general_expert", Role: "a general security expert", Focus: "any vulnerabilities"},
	}
}

type securityAssessment struct {
	HasVulnerability bool    `json:"has_vulnerability" jsonschema:"description=Code has security issue"`
	IssueType        string  `json:"issue_type" jsonschema:"description=Type of security issue"`
	Confidence       float64 `json:"confidence" jsonschema:"description=Confidence 0-1"`
}

// Ballot is one persona's assessment. Vulnerable is the vote; IssueType is
// its label. Confidence is passed through as reported.
type Ballot struct {
	Persona    Persona
	Vulnerable bool
	IssueType  string
	Confidence float64
}

// Finding renders the ballot as "name: VULN - issue" or "name: SAFE - issue".
func (b Ballot) Finding() string {
	mark := "SAFE"
	if b.Vulnerable {
		mark = "VULN"
	}
	return fmt.Sprintf("%s: %s - %s", b.Persona.Name, mark, b.IssueType)
}

// Verdict is the aggregate of a full panel.
type Verdict struct {
	Ballots []Ballot
	// Votes counts ballots that reported a vulnerability
	Votes    int
	N        int
	Majority bool
	Elapsed  time.Duration
}

// SafeVotes returns N - Votes.
func (v *Verdict) SafeVotes() int {
	return v.N - v.Votes
}

// Consensus is VULNERABLE when a strict majority voted true, SAFE otherwise.
func (v *Verdict) Consensus() string {
	if v.Majority {
		return ConsensusVulnerable
	}
	return ConsensusSafe
}

// Findings returns one line per ballot in persona order.
func (v *Verdict) Findings() []string {
	out := make([]string, len(v.Ballots))
	for i, b := range v.Ballots {
		out[i] = b.Finding()
	}
	return out
}

// Tally counts vulnerability votes. Majority requires strictly more than half.
func Tally(ballots []Ballot) Verdict {
	votes := 0
	for _, b := range ballots {
		if b.Vulnerable {
			votes++
		}
	}
	n := len(ballots)
	return Verdict{
		Ballots:  ballots,
		Votes:    votes,
		N:        n,
		Majority: votes*2 > n,
	}
}

// Options configures a Voter.
type Options struct {
	Personas     []Persona
	Temperature  float64
	MaxPanelSize int
	Logger       *slog.Logger
}

// Voter fans one subject out to every persona.
type Voter struct {
	inv         ai.Invoker
	personas    []Persona
	temperature float64
	logger      *slog.Logger
}

// New creates a voter. Nil Personas selects DefaultPersonas.
func New(inv ai.Invoker, opts Options) (*Voter, error) {
	personas := opts.Personas
	if personas == nil {
		personas = DefaultPersonas()
	}
	if len(personas) == 0 {
		return nil, ErrEmptyPanel
	}
	limit := opts.MaxPanelSize
	if limit <= 0 {
		limit = DefaultMaxPanelSize
	}
	if len(personas) > limit {
		return nil, fmt.Errorf("quorum panel has %d personas, limit is %d", len(personas), limit)
	}
	for i, p := range personas {
		if strings.TrimSpace(p.Name) == "" {
			return nil, fmt.Errorf("persona %d has no name", i)
		}
		if strings.TrimSpace(p.Role) == "" {
			return nil, fmt.Errorf("persona %s has no role", p.Name)
		}
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Voter{
		inv:         inv,
		personas:    append([]Persona(nil), personas...),
		temperature: opts.Temperature,
		logger:      logger,
	}, nil
}

// Personas returns the panel in ballot order.
func (v *Voter) Personas() []Persona {
	return append([]Persona(nil), v.personas...)
}

// Vote collects one ballot per persona. Ballots are returned in persona
// order regardless of completion order.
func (v *Voter) Vote(ctx context.Context, code string) (*Verdict, error) {
	if strings.TrimSpace(code) == "" {
		return nil, fmt.Errorf("nothing to vote on")
	}

	start := time.Now()
	ballots := make([]Ballot, len(v.personas))

	// Plain group: a failed ballot does not cancel the others.
	var g errgroup.Group
	for i, p := range v.personas {
		g.Go(func() error {
			b, err := v.ballot(ctx, p, code)
			if err != nil {
				return fmt.Errorf("persona %s: %w", p.Name, err)
			}
			ballots[i] = *b
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		v.logger.Warn("quorum vote failed", "error", err)
		return nil, err
	}

	verdict := Tally(ballots)
	verdict.Elapsed = time.Since(start)

	v.logger.Info("quorum vote complete",
		"votes", verdict.Votes,
		"n", verdict.N,
		"consensus", verdict.Consensus(),
		"duration", verdict.Elapsed)

	return &verdict, nil
}

func (v *Voter) ballot(ctx context.Context, p Persona, code string) (*Ballot, error) {
	focus := p.Focus
	if strings.TrimSpace(focus) == "" {
		focus = "vulnerabilities"
	}
	prompt, err := prompts.Render(prompts.VoteReview, map[string]string{
		"role":  p.Role,
		"focus": focus,
		"code":  code,
	})
	if err != nil {
		return nil, err
	}

	out, err := ai.Invoke[securityAssessment](ctx, v.inv, ai.Call{
		Operation:   prompts.VoteReview,
		Prompt:      prompt,
		Temperature: v.temperature,
	})
	if err != nil {
		return nil, err
	}

	v.logger.Debug("ballot cast", "persona", p.Name, "vulnerable", out.HasVulnerability, "issue", out.IssueType)

	return &Ballot{
		Persona:    p,
		Vulnerable: out.HasVulnerability,
		IssueType:  out.IssueType,
		Confidence: out.Confidence,
	}, nil
}
