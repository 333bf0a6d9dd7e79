package query

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edudash-hub/edudash-engine/internal/domain/progress"
	"github.com/edudash-hub/edudash-engine/internal/domain/shared"
	"github.com/edudash-hub/edudash-engine/internal/domain/user"
	"github.com/edudash-hub/edudash-engine/internal/infrastructure/messaging"
	"github.com/edudash-hub/edudash-engine/internal/infrastructure/persistence/docstore"
	"github.com/edudash-hub/edudash-engine/pkg/timeutil"
)

func newTestStore(t *testing.T) (*docstore.Store, time.Time) {
	t.Helper()
	now := timeutil.Date(2025, 3, 10).Add(14 * time.Hour)
	seq := 0
	store, err := docstore.Open(docstore.NewMemoryMedium(),
		docstore.WithClock(func() time.Time { return now }),
		docstore.WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("id-%d", seq)
		}),
	)
	require.NoError(t, err)
	return store, now
}

func TestResolveUser_StampsLastLogin(t *testing.T) {
	store, now := newTestStore(t)
	bus := messaging.NewBus(nil)

	created, err := store.CreateUser(user.NewStudent("Ana", "ana@example.com"))
	require.NoError(t, err)
	require.Nil(t, created.LastLoginAt)

	loginAt := now.Add(2 * time.Hour)
	h := NewResolveUserHandler(store, bus, WithClock(func() time.Time { return loginAt }))

	resolved, err := h.Handle(context.Background(), ResolveUserQuery{
		Email: " ANA@example.com ",
		Kind:  user.KindStudent,
	})
	require.NoError(t, err)
	assert.Equal(t, created.ID, resolved.ID)
	require.NotNil(t, resolved.LastLoginAt)
	assert.True(t, resolved.LastLoginAt.Equal(loginAt))
}

func TestResolveUser_UnknownPair(t *testing.T) {
	store, _ := newTestStore(t)
	h := NewResolveUserHandler(store, messaging.NewBus(nil))

	_, err := store.CreateUser(user.NewStudent("Ana", "ana@example.com"))
	require.NoError(t, err)

	// Right email, wrong kind.
	_, err = h.Handle(context.Background(), ResolveUserQuery{
		Email: "ana@example.com",
		Kind:  user.KindTeacher,
	})
	assert.ErrorIs(t, err, shared.ErrUserNotFound)
}

func TestStudentOverview_AggregatesProgress(t *testing.T) {
	store, now := newTestStore(t)

	student := user.NewStudent("Ana", "ana@example.com")
	created, err := store.CreateUser(student)
	require.NoError(t, err)

	_, _, err = store.UpdateUser(created.ID, func(u *user.Record) {
		u.Progress.TotalPoints = 250
		u.Progress.CurrentLevel = 2
		u.Progress.StreakDays = 3
		u.Progress.UnlockedBadgeIDs = []string{"first_lesson"}
		u.Stats.LessonsCompleted = 4
		u.Stats.AverageScore = 82.5
		u.Stats.TimeSpentMinutes = 90
	})
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		_, err = store.CreateProgressEvent(progress.CompletionEvent{
			StudentID:    created.ID,
			LessonID:     fmt.Sprintf("lesson-%d", i),
			ScorePercent: 80,
			PointsEarned: 60,
			CompletedAt:  now.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
	}

	h := NewStudentOverviewHandler(store)
	ov, err := h.Handle(context.Background(), StudentOverviewQuery{StudentID: created.ID, RecentLimit: 2})
	require.NoError(t, err)

	assert.Equal(t, 250, ov.TotalPoints)
	assert.Equal(t, 2, ov.CurrentLevel)
	assert.Equal(t, 400, ov.NextLevelPoints)
	assert.Equal(t, 3, ov.StreakDays)
	assert.Equal(t, 4, ov.Stats.LessonsCompleted)
	require.Len(t, ov.Badges, 1)
	assert.Equal(t, "First Step", ov.Badges[0].Name)
	assert.Equal(t, "🥇", ov.Badges[0].Icon)

	// Newest first, capped at the requested limit.
	require.Len(t, ov.Recent, 2)
	assert.Equal(t, "lesson-3", ov.Recent[0].LessonID)
	assert.Equal(t, "lesson-2", ov.Recent[1].LessonID)
}

func TestStudentOverview_UnknownStudent(t *testing.T) {
	store, _ := newTestStore(t)
	h := NewStudentOverviewHandler(store)

	_, err := h.Handle(context.Background(), StudentOverviewQuery{StudentID: "missing"})
	assert.ErrorIs(t, err, shared.ErrStudentNotFound)
}
