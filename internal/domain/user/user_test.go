package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edudash-hub/edudash-engine/internal/domain/shared"
)

func TestNewStudent_ZeroedProgress(t *testing.T) {
	s := NewStudent("Maria Silva", "Maria@Example.com ")

	require.True(t, s.IsStudent())
	assert.Equal(t, "maria@example.com", s.Email)
	require.NotNil(t, s.Progress)
	assert.Equal(t, 0, s.Progress.TotalPoints)
	assert.Equal(t, 1, s.Progress.CurrentLevel)
	assert.Equal(t, 0, s.Progress.StreakDays)
	assert.Empty(t, s.Progress.UnlockedBadgeIDs)
	require.NotNil(t, s.Stats)
	assert.Zero(t, s.Stats.LessonsCompleted)
}

func TestNewTeacher_NoStudentPayload(t *testing.T) {
	p := NewTeacher("João", "joao@example.com")

	require.True(t, p.IsTeacher())
	assert.Nil(t, p.Progress)
	assert.Nil(t, p.Stats)
	assert.NotNil(t, p.ClassesOwned)
	assert.NotNil(t, p.LessonsCreated)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		rec     Record
		wantErr error
	}{
		{"valid student", NewStudent("Ana", "ana@example.com"), nil},
		{"empty name", NewStudent("  ", "ana@example.com"), shared.ErrEmptyValue},
		{"empty email", NewTeacher("Ana", ""), shared.ErrEmptyValue},
		{"bad kind", Record{Base: Base{Kind: "admin", Name: "x", Email: "x@y"}}, shared.ErrInvalidFormat},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.rec.Validate()
			if tc.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tc.wantErr)
			}
		})
	}
}

func TestClone_IsDeep(t *testing.T) {
	s := NewStudent("Ana", "ana@example.com")
	s.Progress.UnlockedBadgeIDs = []string{"first_lesson"}
	s.ClassesEnrolled = []string{"c1"}

	c := s.Clone()
	c.Progress.UnlockedBadgeIDs[0] = "mutated"
	c.Progress.TotalPoints = 999
	c.ClassesEnrolled[0] = "mutated"
	c.Stats.LessonsCompleted = 42

	assert.Equal(t, "first_lesson", s.Progress.UnlockedBadgeIDs[0])
	assert.Equal(t, 0, s.Progress.TotalPoints)
	assert.Equal(t, "c1", s.ClassesEnrolled[0])
	assert.Equal(t, 0, s.Stats.LessonsCompleted)
}

func TestUnlockBadge_Monotonic(t *testing.T) {
	p := ProgressState{UnlockedBadgeIDs: []string{}}

	p.UnlockBadge("first_lesson")
	p.UnlockBadge("first_lesson")
	p.UnlockBadge("streak_7")

	assert.Equal(t, []string{"first_lesson", "streak_7"}, p.UnlockedBadgeIDs)
	assert.True(t, p.HasBadge("first_lesson"))
	assert.False(t, p.HasBadge("level_5"))
}
