package game

import (
	"math/rand/v2"
)

// Candidate is an eligible participant as seen by the selection step
type Candidate struct {
	ID      string
	GroupID string
	// Weight is the relative chance of being eliminated
	Weight float64
	// Kills before this event
	Kills int
}

// Constraints bundles every rule the selection step must honor
type Constraints struct {
	// AllowBetrayals maps group id to whether its members may eliminate each other
	AllowBetrayals map[string]bool
	// KillCap bounds the eliminations credited to one survivor in this event
	KillCap int
}

func (c Constraints) protected(groupID string) bool {
	if groupID == "" {
		return false
	}
	allow, ok := c.AllowBetrayals[groupID]
	return ok && !allow
}

// permitted reports whether killer may eliminate victim without breaking a
// cooperation pact
func (c Constraints) permitted(killer, victim Candidate) bool {
	return killer.GroupID != victim.GroupID || !c.protected(victim.GroupID)
}

// SelectEliminations picks k victims among candidates and attributes each of
// them to a survivor. It is deterministic for a given rng state.
//
// Victims are drawn by weight without replacement. A draw is kept only if
// the event can still end with every victim having a permitted killer among
// the survivors. When the pacts make that impossible the remaining victims
// are drawn without that rule. Any same-group elimination is flagged as a
// betrayal.
//
// Killers are drawn among permitted survivors under the kill cap, favoring
// those with fewer kills. The cap is raised to ceil(k/survivors) when needed
// so every victim gets a killer.
func SelectEliminations(candidates []Candidate, k int, c Constraints, rng *rand.Rand) []Elimination {
	n := len(candidates)
	if k <= 0 || n < 2 {
		return nil
	}
	if k > n-1 {
		k = n - 1
	}

	victims, forced := pickVictims(candidates, k, c, rng)
	return attribute(candidates, victims, forced, c, rng)
}

func pickVictims(candidates []Candidate, k int, c Constraints, rng *rand.Rand) ([]int, map[int]bool) {
	n := len(candidates)
	keep := n - k

	survivors := n
	unprotected := 0
	aliveIn := make(map[string]int)
	victimsIn := make(map[string]int)
	for _, cand := range candidates {
		if c.protected(cand.GroupID) {
			aliveIn[cand.GroupID]++
		} else {
			unprotected++
		}
	}
	groupsAlive := len(aliveIn)

	// feasible reports whether, after eliminating idx, some final set of
	// keep survivors still gives every victim of a protected group a
	// survivor outside that group.
	feasible := func(idx int) bool {
		g := candidates[idx].GroupID
		isProtected := c.protected(g)

		remaining := survivors - 1
		unprot, groups := unprotected, groupsAlive
		if isProtected {
			if aliveIn[g] == 1 {
				groups--
			}
		} else {
			unprot--
		}
		alive := func(group string) int {
			if isProtected && group == g {
				return aliveIn[group] - 1
			}
			return aliveIn[group]
		}
		victims := func(group string) int {
			if isProtected && group == g {
				return victimsIn[group] + 1
			}
			return victimsIn[group]
		}

		if keep >= 2 {
			if unprot+groups >= 2 {
				return true
			}
			if unprot == 0 && groups == 1 {
				for group := range aliveIn {
					if alive(group) > 0 {
						return victims(group) == 0 && remaining == keep
					}
				}
			}
			return false
		}

		if unprot > 0 {
			return true
		}
		for group := range aliveIn {
			if alive(group) == 1 && victims(group) == 0 {
				return true
			}
		}
		return false
	}

	take := func(idx int) {
		survivors--
		g := candidates[idx].GroupID
		if !c.protected(g) {
			unprotected--
			return
		}
		aliveIn[g]--
		victimsIn[g]++
		if aliveIn[g] == 0 {
			groupsAlive--
		}
	}

	weight := func(i int) float64 { return candidates[i].Weight }

	untried := make([]int, n)
	for i := range untried {
		untried[i] = i
	}
	var rejected []int
	victims := make([]int, 0, k)
	for len(victims) < k && len(untried) > 0 {
		pos := weightedIndex(untried, weight, rng)
		idx := untried[pos]
		untried = append(untried[:pos], untried[pos+1:]...)
		if feasible(idx) {
			take(idx)
			victims = append(victims, idx)
		} else {
			rejected = append(rejected, idx)
		}
	}

	forced := make(map[int]bool)
	for len(victims) < k && len(rejected) > 0 {
		pos := weightedIndex(rejected, weight, rng)
		idx := rejected[pos]
		rejected = append(rejected[:pos], rejected[pos+1:]...)
		take(idx)
		victims = append(victims, idx)
		forced[idx] = true
	}
	return victims, forced
}

func attribute(candidates []Candidate, victims []int, forced map[int]bool, c Constraints, rng *rand.Rand) []Elimination {
	eliminated := make(map[int]bool, len(victims))
	for _, v := range victims {
		eliminated[v] = true
	}
	survivors := make([]int, 0, len(candidates)-len(victims))
	for i := range candidates {
		if !eliminated[i] {
			survivors = append(survivors, i)
		}
	}

	limit := c.KillCap
	if limit < 1 {
		limit = 1
	}
	if need := (len(victims) + len(survivors) - 1) / len(survivors); need > limit {
		limit = need
	}

	credited := make(map[int]int, len(survivors))
	out := make([]Elimination, 0, len(victims))
	for _, v := range victims {
		victim := candidates[v]
		allowed := func(s int) bool { return forced[v] || c.permitted(candidates[s], victim) }

		pool := filter(survivors, func(s int) bool { return allowed(s) && credited[s] < limit })
		if len(pool) == 0 {
			pool = filter(survivors, allowed)
		}
		if len(pool) == 0 {
			pool = survivors
		}

		killer := pool[weightedIndex(pool, func(s int) float64 {
			return 1 / float64(1+candidates[s].Kills+credited[s])
		}, rng)]
		credited[killer]++

		k := candidates[killer]
		out = append(out, Elimination{
			VictimID: victim.ID,
			KillerID: k.ID,
			Betrayal: k.GroupID != "" && k.GroupID == victim.GroupID,
		})
	}
	return out
}

func filter(idx []int, keep func(int) bool) []int {
	out := make([]int, 0, len(idx))
	for _, i := range idx {
		if keep(i) {
			out = append(out, i)
		}
	}
	return out
}

// weightedIndex returns a position in items drawn proportionally to weight.
// Non-positive weights count as a tiny epsilon so every item stays reachable.
func weightedIndex(items []int, weight func(int) float64, rng *rand.Rand) int {
	const epsilon = 1e-9
	total := 0.0
	for _, it := range items {
		w := weight(it)
		if w <= 0 {
			w = epsilon
		}
		total += w
	}
	r := rng.Float64() * total
	for pos, it := range items {
		w := weight(it)
		if w <= 0 {
			w = epsilon
		}
		r -= w
		if r < 0 {
			return pos
		}
	}
	return len(items) - 1
}
