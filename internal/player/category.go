package player

import (
	"encoding/json"
	"fmt"
)

// CategoryKind is the tag of a RoleCategory
type CategoryKind string

const (
	KindNormal       CategoryKind = "normal"
	KindCelebrity    CategoryKind = "celebrity"
	KindFormerWinner CategoryKind = "former_winner"
)

// WinnerTier is the estimated valuation of a former winner
type WinnerTier string

const (
	TierNone WinnerTier = ""
	Tier10M  WinnerTier = "10M"
	Tier20M  WinnerTier = "20M"
)

// Rank orders tiers so the higher valuation dominates
func (t WinnerTier) Rank() int {
	switch t {
	case Tier20M:
		return 2
	case Tier10M:
		return 1
	default:
		return 0
	}
}

// RoleCategory is the pricing classification of a player, computed once when
// the roster is assigned to a game.
//
//	Normal | Celebrity(stars) | FormerWinner(tier)
type RoleCategory struct {
	Kind  CategoryKind `json:"kind"`
	Stars int          `json:"stars,omitempty"`
	Tier  WinnerTier   `json:"tier,omitempty"`
}

func Normal() RoleCategory {
	return RoleCategory{Kind: KindNormal}
}

func Celebrity(stars int) RoleCategory {
	return RoleCategory{Kind: KindCelebrity, Stars: stars}
}

func FormerWinner(tier WinnerTier) RoleCategory {
	return RoleCategory{Kind: KindFormerWinner, Tier: tier}
}

func (c RoleCategory) IsCelebrity() bool    { return c.Kind == KindCelebrity }
func (c RoleCategory) IsFormerWinner() bool { return c.Kind == KindFormerWinner }

func (c RoleCategory) String() string {
	switch c.Kind {
	case KindCelebrity:
		return fmt.Sprintf("celebrity(%d★)", c.Stars)
	case KindFormerWinner:
		return fmt.Sprintf("former_winner(%s)", c.Tier)
	default:
		return string(KindNormal)
	}
}

// UnmarshalJSON treats a missing or empty kind as normal
func (c *RoleCategory) UnmarshalJSON(data []byte) error {
	type alias RoleCategory
	var aux alias
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.Kind == "" {
		aux.Kind = KindNormal
	}
	*c = RoleCategory(aux)
	return nil
}
