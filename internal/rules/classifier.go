// Package rules turns the configurable celebrity and former-winner
// expressions into a RoleCategory for each player.
package rules

import (
	"fmt"
	"sort"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/sashatouille39/gmm71-sub000/internal/player"
)

// StarRule grants Stars when When evaluates to true
type StarRule struct {
	Stars int    `yaml:"stars" json:"stars"`
	When  string `yaml:"when" json:"when"`
}

// TierRule marks a former winner of the given tier when When evaluates to true
type TierRule struct {
	Tier string `yaml:"tier" json:"tier"`
	When string `yaml:"when" json:"when"`
}

// Config holds the classification expressions. Expressions see the
// variables role, intelligence, force, agilite, sum and avg.
type Config struct {
	CelebrityWhen     string     `yaml:"celebrity_when" json:"celebrity_when"`
	Stars             []StarRule `yaml:"stars" json:"stars"`
	FormerWinnerTiers []TierRule `yaml:"former_winner_tiers" json:"former_winner_tiers"`
}

// DefaultConfig returns the stock thresholds on the 1-100 stat scale
func DefaultConfig() Config {
	return Config{
		CelebrityWhen: `role in ["intelligent", "sportif"] && avg >= 60`,
		Stars: []StarRule{
			{Stars: 5, When: "avg >= 88"},
			{Stars: 4, When: "avg >= 78"},
			{Stars: 3, When: "avg >= 68"},
			{Stars: 2, When: "avg >= 60"},
		},
		FormerWinnerTiers: []TierRule{
			{Tier: string(player.Tier20M), When: "sum >= 290"},
			{Tier: string(player.Tier10M), When: "sum >= 280"},
		},
	}
}

type compiledStar struct {
	stars   int
	program *vm.Program
}

type compiledTier struct {
	tier    player.WinnerTier
	program *vm.Program
}

// Classifier evaluates pre-compiled classification programs
type Classifier struct {
	celebrity *vm.Program
	stars     []compiledStar
	tiers     []compiledTier
}

// sampleEnv declares the variable types for compile-time checking
func sampleEnv() map[string]interface{} {
	return map[string]interface{}{
		"role":         "",
		"intelligence": 0,
		"force":        0,
		"agilite":      0,
		"sum":          0,
		"avg":          0.0,
	}
}

func compile(code string) (*vm.Program, error) {
	return expr.Compile(code, expr.Env(sampleEnv()), expr.AsBool())
}

// NewClassifier compiles every rule up front
func NewClassifier(cfg Config) (*Classifier, error) {
	c := &Classifier{}

	if cfg.CelebrityWhen != "" {
		program, err := compile(cfg.CelebrityWhen)
		if err != nil {
			return nil, fmt.Errorf("invalid celebrity rule: %w", err)
		}
		c.celebrity = program
	}

	for _, rule := range cfg.Stars {
		if rule.Stars < 1 || rule.Stars > 5 {
			return nil, fmt.Errorf("star rule %q: stars must be 1-5", rule.When)
		}
		program, err := compile(rule.When)
		if err != nil {
			return nil, fmt.Errorf("invalid star rule for %d stars: %w", rule.Stars, err)
		}
		c.stars = append(c.stars, compiledStar{stars: rule.Stars, program: program})
	}
	sort.SliceStable(c.stars, func(i, j int) bool {
		return c.stars[i].stars > c.stars[j].stars
	})

	for _, rule := range cfg.FormerWinnerTiers {
		tier := player.WinnerTier(rule.Tier)
		if tier.Rank() == 0 {
			return nil, fmt.Errorf("unknown former winner tier %q", rule.Tier)
		}
		program, err := compile(rule.When)
		if err != nil {
			return nil, fmt.Errorf("invalid tier rule for %s: %w", rule.Tier, err)
		}
		c.tiers = append(c.tiers, compiledTier{tier: tier, program: program})
	}
	// Higher tier wins when both thresholds are met
	sort.SliceStable(c.tiers, func(i, j int) bool {
		return c.tiers[i].tier.Rank() > c.tiers[j].tier.Rank()
	})

	return c, nil
}

func env(p *player.Player) map[string]interface{} {
	return map[string]interface{}{
		"role":         p.Role,
		"intelligence": p.Stats.Intelligence,
		"force":        p.Stats.Force,
		"agilite":      p.Stats.Agilite,
		"sum":          p.Stats.Sum(),
		"avg":          p.Stats.Average(),
	}
}

func run(program *vm.Program, state map[string]interface{}) (bool, error) {
	result, err := vm.Run(program, state)
	if err != nil {
		return false, fmt.Errorf("rule evaluation error: %w", err)
	}
	ok, isBool := result.(bool)
	if !isBool {
		return false, fmt.Errorf("rule did not evaluate to boolean")
	}
	return ok, nil
}

// Classify returns the category of a single player. Former winner takes
// precedence over celebrity.
func (c *Classifier) Classify(p *player.Player) (player.RoleCategory, error) {
	state := env(p)

	for _, t := range c.tiers {
		ok, err := run(t.program, state)
		if err != nil {
			return player.Normal(), err
		}
		if ok {
			return player.FormerWinner(t.tier), nil
		}
	}

	if c.celebrity == nil {
		return player.Normal(), nil
	}
	isCelebrity, err := run(c.celebrity, state)
	if err != nil || !isCelebrity {
		return player.Normal(), err
	}

	for _, s := range c.stars {
		ok, err := run(s.program, state)
		if err != nil {
			return player.Normal(), err
		}
		if ok {
			return player.Celebrity(s.stars), nil
		}
	}
	return player.Normal(), nil
}

// ClassifyRoster sets Category on every player of the roster
func (c *Classifier) ClassifyRoster(players []*player.Player) error {
	for _, p := range players {
		category, err := c.Classify(p)
		if err != nil {
			return fmt.Errorf("classify player %s: %w", p.ID, err)
		}
		p.Category = category
	}
	return nil
}
