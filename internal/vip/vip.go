// Package vip holds the shared VIP definitions and assigns them to games
// according to the salon level.
package vip

import (
	"math/rand/v2"
	"sort"

	"github.com/sashatouille39/gmm71-sub000/internal/errs"
)

// Viewing fee bounds, in currency units
const (
	MinViewingFee int64 = 200_000
	MaxViewingFee int64 = 3_000_000
)

// VIP is a viewer definition, shared read-only between games
type VIP struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Mask        string `json:"mask"`
	Personality string `json:"personality"`
	ViewingFee  int64  `json:"viewing_fee"`
}

// Assignment is a game-owned copy of a VIP definition
type Assignment struct {
	VIP
	SalonLevel int `json:"salon_level"`
}

// ClampFee bounds a fee to the allowed range
func ClampFee(fee int64) int64 {
	if fee < MinViewingFee {
		return MinViewingFee
	}
	if fee > MaxViewingFee {
		return MaxViewingFee
	}
	return fee
}

// DefaultCapacities maps salon level to the number of VIPs watching a game
func DefaultCapacities() map[int]int {
	return map[int]int{0: 0, 1: 3, 2: 5, 3: 8, 4: 10, 5: 12, 6: 15, 7: 18, 8: 20, 9: 25}
}

// Assigner draws VIPs from a pool for new games
type Assigner struct {
	pool       []VIP
	capacities map[int]int
}

// NewAssigner builds an assigner. A nil pool uses the built-in one.
func NewAssigner(pool []VIP, capacities map[int]int) *Assigner {
	if pool == nil {
		pool = DefaultPool()
	}
	if len(capacities) == 0 {
		capacities = DefaultCapacities()
	}
	cp := make([]VIP, len(pool))
	for i, v := range pool {
		v.ViewingFee = ClampFee(v.ViewingFee)
		cp[i] = v
	}
	return &Assigner{pool: cp, capacities: capacities}
}

// Capacity returns the number of VIPs for a salon level
func (a *Assigner) Capacity(level int) (int, error) {
	c, ok := a.capacities[level]
	if !ok {
		return 0, errs.Validation("assign_vips", "unknown salon level %d", level)
	}
	return c, nil
}

// Levels lists the configured salon levels in ascending order
func (a *Assigner) Levels() []int {
	levels := make([]int, 0, len(a.capacities))
	for l := range a.capacities {
		levels = append(levels, l)
	}
	sort.Ints(levels)
	return levels
}

// Assign draws the salon's capacity of distinct VIPs. When the capacity
// exceeds the pool, every pool VIP is assigned.
func (a *Assigner) Assign(level int, rng *rand.Rand) ([]Assignment, error) {
	capacity, err := a.Capacity(level)
	if err != nil {
		return nil, err
	}
	if capacity > len(a.pool) {
		capacity = len(a.pool)
	}

	out := make([]Assignment, 0, capacity)
	for _, idx := range rng.Perm(len(a.pool))[:capacity] {
		out = append(out, Assignment{VIP: a.pool[idx], SalonLevel: level})
	}
	return out, nil
}

// Pool returns a copy of the assigner's VIP definitions
func (a *Assigner) Pool() []VIP {
	return append([]VIP(nil), a.pool...)
}

// BaseEarnings sums the viewing fees of a game's assigned VIPs
func BaseEarnings(assigned []Assignment) int64 {
	var total int64
	for _, a := range assigned {
		total += a.ViewingFee
	}
	return total
}
