package command

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edudash-hub/edudash-engine/internal/domain/shared"
	"github.com/edudash-hub/edudash-engine/internal/domain/user"
)

func TestRegisterUser_Student(t *testing.T) {
	f := newFixture(t)
	h := NewRegisterUserHandler(f.store, f.bus, WithClock(func() time.Time { return f.now }))

	rec, err := h.Handle(context.Background(), RegisterUserCommand{
		Kind:  user.KindStudent,
		Name:  "  Ana Lima ",
		Email: " Ana@Example.com ",
	})
	require.NoError(t, err)

	assert.Equal(t, "Ana Lima", rec.Name)
	assert.Equal(t, "ana@example.com", rec.Email)
	require.NotNil(t, rec.Progress)
	assert.Equal(t, 1, rec.Progress.CurrentLevel)
	assert.Empty(t, rec.Progress.UnlockedBadgeIDs)

	require.Len(t, f.events, 1)
	assert.Equal(t, shared.EventUserRegistered, f.events[0].EventType())
}

func TestRegisterUser_DuplicatePairRejected(t *testing.T) {
	f := newFixture(t)
	h := NewRegisterUserHandler(f.store, f.bus)

	_, err := h.Handle(context.Background(), RegisterUserCommand{
		Kind: user.KindStudent, Name: "Ana", Email: "ana@example.com",
	})
	require.NoError(t, err)

	_, err = h.Handle(context.Background(), RegisterUserCommand{
		Kind: user.KindStudent, Name: "Ana Again", Email: "ANA@example.com",
	})
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)

	// The same email may hold the other kind of account.
	_, err = h.Handle(context.Background(), RegisterUserCommand{
		Kind: user.KindTeacher, Name: "Ana", Email: "ana@example.com",
	})
	assert.NoError(t, err)
}

func TestRegisterUser_Validation(t *testing.T) {
	f := newFixture(t)
	h := NewRegisterUserHandler(f.store, f.bus)

	_, err := h.Handle(context.Background(), RegisterUserCommand{
		Kind: user.KindStudent, Name: "", Email: "x@example.com",
	})
	assert.ErrorIs(t, err, shared.ErrEmptyValue)

	_, err = h.Handle(context.Background(), RegisterUserCommand{
		Kind: "admin", Name: "X", Email: "x@example.com",
	})
	assert.ErrorIs(t, err, shared.ErrInvalidFormat)

	assert.Empty(t, f.store.Users())
}
