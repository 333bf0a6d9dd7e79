package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogueOrder(t *testing.T) {
	ids := []string{}
	for _, b := range Catalogue() {
		ids = append(ids, b.ID)
	}
	assert.Equal(t, []string{"first_lesson", "streak_7", "level_5", "points_1000"}, ids)
}

func TestEvaluateBadges_FirstLesson(t *testing.T) {
	newly := EvaluateBadges(BadgeStats{Completions: 1, CurrentLevel: 1}, nil)

	require.Len(t, newly, 1)
	assert.Equal(t, "first_lesson", newly[0].ID)
	assert.Equal(t, "First Step", newly[0].Name)
}

func TestEvaluateBadges_AlreadyUnlockedSkipped(t *testing.T) {
	newly := EvaluateBadges(BadgeStats{Completions: 5, CurrentLevel: 1}, []string{"first_lesson"})
	assert.Empty(t, newly)
}

func TestEvaluateBadges_MultipleAtOnceInCatalogueOrder(t *testing.T) {
	stats := BadgeStats{Completions: 30, StreakDays: 10, CurrentLevel: 5, TotalPoints: 1600}
	newly := EvaluateBadges(stats, nil)

	require.Len(t, newly, 4)
	assert.Equal(t, "first_lesson", newly[0].ID)
	assert.Equal(t, "streak_7", newly[1].ID)
	assert.Equal(t, "level_5", newly[2].ID)
	assert.Equal(t, "points_1000", newly[3].ID)
}

func TestBadgeByID(t *testing.T) {
	b, ok := BadgeByID("points_1000")
	require.True(t, ok)
	assert.Equal(t, "Point Collector", b.Name)

	_, ok = BadgeByID("nope")
	assert.False(t, ok)
}
