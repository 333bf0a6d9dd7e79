package progress

// Badge is a permanent achievement flag. Once unlocked it is never revoked,
// even if the underlying stat could somehow regress.
type Badge struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`

	// Condition evaluates whether the badge should unlock for the given
	// snapshot of a student's progress.
	Condition func(BadgeStats) bool `json:"-"`
}

// BadgeStats is the snapshot badge conditions evaluate against.
type BadgeStats struct {
	Completions  int
	StreakDays   int
	CurrentLevel int
	TotalPoints  int
}

// Catalogue returns the fixed, ordered badge catalogue. Unlock order follows
// catalogue order.
func Catalogue() []Badge {
	return []Badge{
		{
			ID:          "first_lesson",
			Name:        "First Step",
			Description: "Complete sua primeira lição",
			Icon:        "🥇",
			Condition:   func(s BadgeStats) bool { return s.Completions >= 1 },
		},
		{
			ID:          "streak_7",
			Name:        "Streak Champion",
			Description: "7 dias consecutivos",
			Icon:        "🔥",
			Condition:   func(s BadgeStats) bool { return s.StreakDays >= 7 },
		},
		{
			ID:          "level_5",
			Name:        "Level Master",
			Description: "Alcance o nível 5",
			Icon:        "⭐",
			Condition:   func(s BadgeStats) bool { return s.CurrentLevel >= 5 },
		},
		{
			ID:          "points_1000",
			Name:        "Point Collector",
			Description: "1000 pontos totais",
			Icon:        "💎",
			Condition:   func(s BadgeStats) bool { return s.TotalPoints >= 1000 },
		},
	}
}

// BadgeByID looks a badge up in the catalogue.
func BadgeByID(id string) (Badge, bool) {
	for _, b := range Catalogue() {
		if b.ID == id {
			return b, true
		}
	}
	return Badge{}, false
}

// EvaluateBadges returns the badges whose conditions now hold and that are
// not in alreadyUnlocked, in catalogue order.
func EvaluateBadges(stats BadgeStats, alreadyUnlocked []string) []Badge {
	unlocked := make(map[string]struct{}, len(alreadyUnlocked))
	for _, id := range alreadyUnlocked {
		unlocked[id] = struct{}{}
	}

	var newly []Badge
	for _, b := range Catalogue() {
		if _, ok := unlocked[b.ID]; ok {
			continue
		}
		if b.Condition(stats) {
			newly = append(newly, b)
		}
	}
	return newly
}
