package command

import (
	"context"
	"strings"

	"github.com/edudash-hub/edudash-engine/internal/domain/shared"
	"github.com/edudash-hub/edudash-engine/internal/domain/user"
	"github.com/edudash-hub/edudash-engine/internal/infrastructure/persistence/docstore"
	"github.com/edudash-hub/edudash-engine/pkg/logger"
)

// RegisterUserCommand creates a new teacher or student account.
type RegisterUserCommand struct {
	Kind  user.Kind
	Name  string
	Email string
}

// RegisterUserHandler handles user registration.
type RegisterUserHandler struct {
	store *docstore.Store
	bus   shared.EventPublisher
	opts  options
}

// NewRegisterUserHandler creates the handler.
func NewRegisterUserHandler(store *docstore.Store, bus shared.EventPublisher, opts ...Option) *RegisterUserHandler {
	o := buildOptions(opts)
	o.log = o.log.With(logger.Component("register_user"))
	return &RegisterUserHandler{store: store, bus: bus, opts: o}
}

// Handle registers the user. The same email may register once per kind, so a
// person can hold both a teacher and a student account; a second registration
// for the same (email, kind) pair fails with ErrDuplicateUser.
func (h *RegisterUserHandler) Handle(ctx context.Context, cmd RegisterUserCommand) (user.Record, error) {
	var rec user.Record
	switch cmd.Kind {
	case user.KindTeacher:
		rec = user.NewTeacher(cmd.Name, cmd.Email)
	case user.KindStudent:
		rec = user.NewStudent(cmd.Name, cmd.Email)
	default:
		return user.Record{}, shared.NewDomainError("identity", "Register", shared.ErrInvalidFormat, "unknown user kind")
	}

	if err := rec.Validate(); err != nil {
		return user.Record{}, err
	}

	existing := h.store.FindUsers(func(u user.Record) bool {
		return u.Kind == rec.Kind && strings.EqualFold(u.Email, rec.Email)
	})
	if len(existing) > 0 {
		return user.Record{}, shared.ErrDuplicateUser
	}

	created, err := h.store.CreateUser(rec)
	if err != nil {
		return user.Record{}, shared.WrapError("identity", "Register", nil, "persist user", err)
	}

	h.opts.log.Info("user registered",
		logger.UserID(created.ID),
		logger.EmailField(created.Email),
		logger.String("kind", string(created.Kind)))

	h.bus.Publish(shared.UserRegisteredEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventUserRegistered, created.ID, h.opts.now()),
		Email:     created.Email,
		Kind:      string(created.Kind),
		Name:      created.Name,
	})

	return created, nil
}
