// Package pricing computes VIP earnings for a game and owns the only code
// path allowed to release them.
package pricing

import (
	"fmt"
	"strings"

	"github.com/sashatouille39/gmm71-sub000/internal/errs"
	"github.com/sashatouille39/gmm71-sub000/internal/player"
	"github.com/sashatouille39/gmm71-sub000/internal/vip"
)

// Bonus components in basis points (1.0 == 10000)
const (
	unitBP         = 10_000
	celebrityBP    = 2_000
	starBP         = 2_500
	tier10MBonusBP = 12_500
	tier20MBonusBP = 20_000
)

// Bonus is the multiplier applied over the VIPs' base fees
type Bonus struct {
	Multiplier        float64           `json:"multiplier"`
	Description       string            `json:"description"`
	CelebrityCount    int               `json:"celebrity_count"`
	TotalStars        int               `json:"total_stars"`
	FormerWinnerCount int               `json:"former_winner_count"`
	FormerWinnerTier  player.WinnerTier `json:"former_winner_tier,omitempty"`

	basisPoints int64
}

// ComputeBonusMultiplier derives the multiplier from the roster's precomputed
// categories. Former-winner tiers do not stack: only the highest tier present
// applies, once.
func ComputeBonusMultiplier(roster []*player.Player) Bonus {
	var b Bonus
	for _, p := range roster {
		switch p.Category.Kind {
		case player.KindCelebrity:
			b.CelebrityCount++
			b.TotalStars += p.Category.Stars
		case player.KindFormerWinner:
			b.FormerWinnerCount++
			if p.Category.Tier.Rank() > b.FormerWinnerTier.Rank() {
				b.FormerWinnerTier = p.Category.Tier
			}
		}
	}

	bp := int64(unitBP)
	bp += int64(b.CelebrityCount) * celebrityBP
	bp += int64(b.TotalStars) * starBP
	bp += tierBonusBP(b.FormerWinnerTier)

	b.basisPoints = bp
	b.Multiplier = float64(bp) / unitBP
	b.Description = describe(b)
	return b
}

func tierBonusBP(t player.WinnerTier) int64 {
	switch t {
	case player.Tier20M:
		return tier20MBonusBP
	case player.Tier10M:
		return tier10MBonusBP
	default:
		return 0
	}
}

func describe(b Bonus) string {
	var parts []string
	if b.CelebrityCount > 0 {
		parts = append(parts, fmt.Sprintf("%d celebrities (+%.2f)", b.CelebrityCount, float64(int64(b.CelebrityCount)*celebrityBP)/unitBP))
	}
	if b.TotalStars > 0 {
		parts = append(parts, fmt.Sprintf("%d stars (+%.2f)", b.TotalStars, float64(int64(b.TotalStars)*starBP)/unitBP))
	}
	if b.FormerWinnerTier != player.TierNone {
		parts = append(parts, fmt.Sprintf("former winner %s tier (+%.2f)", b.FormerWinnerTier, float64(tierBonusBP(b.FormerWinnerTier))/unitBP))
	}
	if len(parts) == 0 {
		return fmt.Sprintf("no bonus (x%.2f)", b.Multiplier)
	}
	return fmt.Sprintf("x%.2f: %s", b.Multiplier, strings.Join(parts, ", "))
}

// Quote is the read-only earnings projection of a game
type Quote struct {
	BaseEarnings int64 `json:"base_earnings"`
	BonusAmount  int64 `json:"bonus_amount"`
	Total        int64 `json:"total"`
	Bonus        Bonus `json:"bonus_details"`
}

// QuoteFor computes base + bonus for a roster and its assigned VIPs
func QuoteFor(roster []*player.Player, assigned []vip.Assignment) Quote {
	bonus := ComputeBonusMultiplier(roster)
	base := vip.BaseEarnings(assigned)
	amount := roundDiv(base*(bonus.basisPoints-unitBP), unitBP)
	return Quote{
		BaseEarnings: base,
		BonusAmount:  amount,
		Total:        base + amount,
		Bonus:        bonus,
	}
}

// roundDiv divides rounding half away from zero
func roundDiv(num, den int64) int64 {
	if num >= 0 {
		return (num + den/2) / den
	}
	return -((-num + den/2) / den)
}

// Ledger is the collect-once state of a game
type Ledger interface {
	EarningsState() (completed, collected bool, available int64)
	MarkEarningsCollected()
}

// Collection is the amount released to the owner's wallet
type Collection struct {
	EarningsCollected int64 `json:"earnings_collected"`
	BaseEarnings      int64 `json:"base_earnings"`
	BonusAmount       int64 `json:"bonus_amount"`
	BonusDetails      Bonus `json:"bonus_details"`
}

// Collect is the single gate for releasing VIP earnings. It flips the
// collected flag on the ledger; the caller credits the returned amount.
func Collect(l Ledger, roster []*player.Player, assigned []vip.Assignment) (Collection, error) {
	completed, collected, available := l.EarningsState()
	if !completed {
		return Collection{}, errs.InvalidState("collect_vip_earnings", "game is not completed")
	}
	if collected {
		return Collection{}, errs.InvalidState("collect_vip_earnings", "VIP earnings were already collected for this game")
	}
	if available <= 0 {
		return Collection{}, errs.InvalidState("collect_vip_earnings", "no VIP earnings available")
	}

	q := QuoteFor(roster, assigned)
	l.MarkEarningsCollected()

	return Collection{
		EarningsCollected: q.Total,
		BaseEarnings:      q.BaseEarnings,
		BonusAmount:       q.BonusAmount,
		BonusDetails:      q.Bonus,
	}, nil
}
