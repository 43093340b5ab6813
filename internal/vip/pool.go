package vip

// DefaultPool returns the built-in VIP definitions
func DefaultPool() []VIP {
	return []VIP{
		{ID: "vip-lion", Name: "Le Lion", Mask: "lion", Personality: "dominant", ViewingFee: 2_500_000},
		{ID: "vip-tiger", Name: "Le Tigre", Mask: "tigre", Personality: "imprévisible", ViewingFee: 1_800_000},
		{ID: "vip-eagle", Name: "L'Aigle", Mask: "aigle", Personality: "observateur", ViewingFee: 1_200_000},
		{ID: "vip-bear", Name: "L'Ours", Mask: "ours", Personality: "joueur", ViewingFee: 900_000},
		{ID: "vip-deer", Name: "Le Cerf", Mask: "cerf", Personality: "aristocrate", ViewingFee: 2_200_000},
		{ID: "vip-owl", Name: "Le Hibou", Mask: "hibou", Personality: "calculateur", ViewingFee: 1_500_000},
		{ID: "vip-fox", Name: "Le Renard", Mask: "renard", Personality: "rusé", ViewingFee: 800_000},
		{ID: "vip-wolf", Name: "Le Loup", Mask: "loup", Personality: "agressif", ViewingFee: 3_000_000},
		{ID: "vip-snake", Name: "Le Serpent", Mask: "serpent", Personality: "manipulateur", ViewingFee: 650_000},
		{ID: "vip-bull", Name: "Le Taureau", Mask: "taureau", Personality: "parieur", ViewingFee: 1_100_000},
		{ID: "vip-raven", Name: "Le Corbeau", Mask: "corbeau", Personality: "cynique", ViewingFee: 450_000},
		{ID: "vip-falcon", Name: "Le Faucon", Mask: "faucon", Personality: "impatient", ViewingFee: 1_350_000},
		{ID: "vip-shark", Name: "Le Requin", Mask: "requin", Personality: "vorace", ViewingFee: 2_750_000},
		{ID: "vip-panther", Name: "La Panthère", Mask: "panthère", Personality: "élégante", ViewingFee: 1_950_000},
		{ID: "vip-dragon", Name: "Le Dragon", Mask: "dragon", Personality: "excentrique", ViewingFee: 2_900_000},
		{ID: "vip-moth", Name: "Le Papillon", Mask: "papillon", Personality: "rêveur", ViewingFee: 200_000},
	}
}
