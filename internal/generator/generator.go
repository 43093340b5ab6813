// Package generator produces random player rosters for games created from a
// player count.
package generator

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"

	"github.com/sashatouille39/gmm71-sub000/internal/player"
)

type roleDef struct {
	name   string
	weight int
	// bonus added to the stat the role is good at
	intelligence, force, agilite int
}

var roles = []roleDef{
	{name: "normal", weight: 60},
	{name: "sportif", weight: 14, force: 15, agilite: 20},
	{name: "intelligent", weight: 14, intelligence: 25},
	{name: "brute", weight: 8, force: 25, intelligence: -10},
	{name: "zero", weight: 4, intelligence: -15, force: -15, agilite: -15},
}

var (
	firstNames = []string{
		"Gi-hun", "Sang-woo", "Sae-byeok", "Ali", "Il-nam", "Deok-su", "Ji-yeong", "Mi-nyeo",
		"Lucas", "Emma", "Hugo", "Léa", "Mateo", "Sofia", "Noah", "Amira", "Yuki", "Kenji",
		"Olga", "Ivan", "Chloé", "Rafael", "Fatima", "Omar", "Ingrid", "Sven", "Priya", "Arjun",
	}
	lastNames = []string{
		"Seong", "Cho", "Kang", "Abdul", "Oh", "Jang", "Han", "Park", "Kim", "Lee",
		"Martin", "Bernard", "Dubois", "Garcia", "Rossi", "Müller", "Tanaka", "Sato",
		"Ivanova", "Petrov", "Silva", "Haddad", "Nilsen", "Sharma", "Okafor", "Nguyen",
	}
	nationalities = []string{
		"Coréenne", "Française", "Pakistanaise", "Japonaise", "Russe", "Brésilienne",
		"Italienne", "Allemande", "Indienne", "Nigériane", "Vietnamienne", "Norvégienne",
		"Espagnole", "Marocaine", "Américaine", "Canadienne",
	}
	skinColors = []string{"#FDBCB4", "#EEA990", "#E0AC69", "#C68642", "#8D5524", "#5C3317"}
	hairStyles = []string{"court", "long", "rasé", "bouclé", "queue", "chignon"}
)

// Generator builds players from small content tables
type Generator struct {
	// CelebrityRate is the share of players generated with a celebrity profile
	CelebrityRate float64
}

// New returns a generator with the stock tables
func New() *Generator {
	return &Generator{CelebrityRate: 0.03}
}

// Generate returns n fresh players, numbered from 001
func (g *Generator) Generate(n int, rng *rand.Rand) []*player.Player {
	out := make([]*player.Player, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, g.one(i+1, rng))
	}
	return out
}

func (g *Generator) one(number int, rng *rand.Rand) *player.Player {
	role := pickRole(rng)
	stats := player.Stats{
		Intelligence: 20 + rng.IntN(50) + role.intelligence,
		Force:        20 + rng.IntN(50) + role.force,
		Agilite:      20 + rng.IntN(50) + role.agilite,
	}
	if rng.Float64() < g.CelebrityRate {
		role = roles[1+rng.IntN(2)]
		stats = player.Stats{
			Intelligence: 70 + rng.IntN(31),
			Force:        70 + rng.IntN(31),
			Agilite:      70 + rng.IntN(31),
		}
	}

	gender := "M"
	if rng.IntN(2) == 0 {
		gender = "F"
	}

	portrait := mustJSON(map[string]string{
		"skin_color": skinColors[rng.IntN(len(skinColors))],
		"hair_style": hairStyles[rng.IntN(len(hairStyles))],
	})

	p := &player.Player{
		ID:          uuid.NewString(),
		Number:      fmt.Sprintf("%03d", number),
		Name:        fmt.Sprintf("%s %s", lastNames[rng.IntN(len(lastNames))], firstNames[rng.IntN(len(firstNames))]),
		Nationality: nationalities[rng.IntN(len(nationalities))],
		Gender:      gender,
		Role:        role.name,
		Stats:       stats.Clamp(),
		Portrait:    portrait,
		Uniform:     mustJSON(map[string]string{"style": "survêtement", "color": "#0E8C6B"}),
	}
	p.ResetGameState()
	return p
}

func pickRole(rng *rand.Rand) roleDef {
	total := 0
	for _, r := range roles {
		total += r.weight
	}
	v := rng.IntN(total)
	cum := 0
	for _, r := range roles {
		cum += r.weight
		if v < cum {
			return r
		}
	}
	return roles[0]
}

func mustJSON(v map[string]string) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}
