package catalog

// FinalEventID is the id of the finale in the default catalog
const FinalEventID = 81

var defaultEvents = []Event{
	{ID: 1, Name: "Feu rouge, feu vert", Category: Classiques, Description: "Avancer uniquement quand la poupée ne regarde pas.",
		EliminationRate: 0.40, SurvivalTimeMin: 60, SurvivalTimeMax: 180, KillCap: 1, Focus: FocusAgilite},
	{ID: 2, Name: "Biscuit dalgona", Category: Classiques, Description: "Découper une forme sans briser le biscuit.",
		EliminationRate: 0.30, SurvivalTimeMin: 90, SurvivalTimeMax: 240, KillCap: 1, Focus: FocusAgilite},
	{ID: 3, Name: "Chaises musicales", Category: Classiques, Description: "Une chaise de moins à chaque tour.",
		EliminationRate: 0.35, SurvivalTimeMin: 45, SurvivalTimeMax: 150, KillCap: 1, Focus: FocusAgilite},
	{ID: 4, Name: "Billes", Category: Psychologique, Description: "Prendre toutes les billes de son partenaire.",
		EliminationRate: 0.50, SurvivalTimeMin: 120, SurvivalTimeMax: 300, KillCap: 1, Focus: FocusIntelligence},

	{ID: 10, Name: "Tir à la corde", Category: Combat, Description: "Deux équipes, une corde, le vide.",
		EliminationRate: 0.50, SurvivalTimeMin: 60, SurvivalTimeMax: 180, KillCap: 2, Focus: FocusForce},
	{ID: 11, Name: "Jeu du calmar", Category: Combat, Description: "Attaquants contre défenseurs sur le tracé du calmar.",
		EliminationRate: 0.45, SurvivalTimeMin: 90, SurvivalTimeMax: 240, KillCap: 2, Focus: FocusForce},
	{ID: 12, Name: "Combat de gladiateurs", Category: Combat, Description: "Duels à mains nues dans l'arène.",
		EliminationRate: 0.50, SurvivalTimeMin: 60, SurvivalTimeMax: 200, KillCap: 2, Focus: FocusForce},
	{ID: 13, Name: "Nuit des couteaux", Category: Combat, Description: "Les lumières s'éteignent dans le dortoir.",
		EliminationRate: 0.35, SurvivalTimeMin: 120, SurvivalTimeMax: 300, KillCap: 2, Focus: FocusForce},

	{ID: 20, Name: "Traversée du désert", Category: Survie, Description: "Rejoindre l'oasis avant la nuit.",
		EliminationRate: 0.30, SurvivalTimeMin: 150, SurvivalTimeMax: 300, KillCap: 1, Focus: FocusAll},
	{ID: 21, Name: "Abri glacial", Category: Survie, Description: "Tenir jusqu'à l'aube dans le froid.",
		EliminationRate: 0.25, SurvivalTimeMin: 180, SurvivalTimeMax: 300, KillCap: 1, Focus: FocusAll},
	{ID: 22, Name: "Jungle hostile", Category: Survie, Description: "Sortir de la jungle en un seul morceau.",
		EliminationRate: 0.35, SurvivalTimeMin: 120, SurvivalTimeMax: 280, KillCap: 1, Focus: FocusAgilite},

	{ID: 30, Name: "Dilemme du prisonnier", Category: Psychologique, Description: "Trahir ou coopérer, sans se concerter.",
		EliminationRate: 0.40, SurvivalTimeMin: 60, SurvivalTimeMax: 180, KillCap: 1, Focus: FocusIntelligence},
	{ID: 31, Name: "Interrogatoire", Category: Psychologique, Description: "Résister à la pression des gardes.",
		EliminationRate: 0.30, SurvivalTimeMin: 90, SurvivalTimeMax: 240, KillCap: 1, Focus: FocusIntelligence},
	{ID: 32, Name: "Labyrinthe des miroirs", Category: Psychologique, Description: "Trouver la sortie parmi les reflets.",
		EliminationRate: 0.35, SurvivalTimeMin: 120, SurvivalTimeMax: 300, KillCap: 1, Focus: FocusIntelligence},

	{ID: 40, Name: "Course d'obstacles", Category: Athletique, Description: "Un parcours piégé contre la montre.",
		EliminationRate: 0.30, SurvivalTimeMin: 60, SurvivalTimeMax: 180, KillCap: 1, Focus: FocusAgilite},
	{ID: 41, Name: "Marathon infernal", Category: Athletique, Description: "Les derniers de chaque tour sont éliminés.",
		EliminationRate: 0.35, SurvivalTimeMin: 200, SurvivalTimeMax: 300, KillCap: 1, Focus: FocusForce},
	{ID: 42, Name: "Escalade verticale", Category: Athletique, Description: "Une paroi lisse et glissante.",
		EliminationRate: 0.30, SurvivalTimeMin: 90, SurvivalTimeMax: 240, KillCap: 1, Focus: FocusAgilite},

	{ID: 50, Name: "Code à déchiffrer", Category: Technologique, Description: "Trouver le code avant l'explosion.",
		EliminationRate: 0.30, SurvivalTimeMin: 60, SurvivalTimeMax: 180, KillCap: 1, Focus: FocusIntelligence},
	{ID: 51, Name: "Champ de lasers", Category: Technologique, Description: "Traverser la salle sans toucher un faisceau.",
		EliminationRate: 0.40, SurvivalTimeMin: 45, SurvivalTimeMax: 150, KillCap: 1, Focus: FocusAgilite},
	{ID: 52, Name: "Piratage sous pression", Category: Technologique, Description: "Désactiver le système avant les autres.",
		EliminationRate: 0.35, SurvivalTimeMin: 90, SurvivalTimeMax: 240, KillCap: 1, Focus: FocusIntelligence},

	{ID: 60, Name: "Pont de verre", Category: Extreme, Description: "Choisir la bonne dalle, dix-huit fois.",
		EliminationRate: 0.55, SurvivalTimeMin: 60, SurvivalTimeMax: 240, KillCap: 1, Focus: FocusAgilite},
	{ID: 61, Name: "Roulette du destin", Category: Extreme, Description: "Une chambre sur six est chargée.",
		EliminationRate: 0.50, SurvivalTimeMin: 30, SurvivalTimeMax: 120, KillCap: 1, Focus: FocusAll},
	{ID: 62, Name: "Chute libre", Category: Extreme, Description: "Ouvrir le bon parachute.",
		EliminationRate: 0.45, SurvivalTimeMin: 30, SurvivalTimeMax: 90, KillCap: 1, Focus: FocusAgilite},

	{ID: FinalEventID, Name: "Le Jugement Final", Category: Finale, Description: "Il n'en restera qu'un.",
		EliminationRate: 0.99, IsFinal: true, MinPlayersForFinal: 4, SurvivalTimeMin: 120, SurvivalTimeMax: 300, KillCap: 3, Focus: FocusAll},
}

var defaultCatalog = mustDefault()

func mustDefault() *Catalog {
	c, err := New(defaultEvents)
	if err != nil {
		panic("catalog: invalid default events: " + err.Error())
	}
	return c
}

// Default returns the shared built-in catalog
func Default() *Catalog {
	return defaultCatalog
}
