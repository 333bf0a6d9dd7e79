// Package query contains the read-side application services: resolving users
// at login and assembling the student dashboard overview.
package query

import (
	"context"
	"strings"
	"time"

	"github.com/edudash-hub/edudash-engine/internal/domain/shared"
	"github.com/edudash-hub/edudash-engine/internal/domain/user"
	"github.com/edudash-hub/edudash-engine/internal/infrastructure/persistence/docstore"
	"github.com/edudash-hub/edudash-engine/pkg/logger"
)

type options struct {
	now func() time.Time
	log *logger.Logger
}

// Option customizes a query handler.
type Option func(*options)

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithLogger sets the logger.
func WithLogger(log *logger.Logger) Option {
	return func(o *options) { o.log = log }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now, log: logger.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// ResolveUserQuery looks a user up for login by email and kind.
type ResolveUserQuery struct {
	Email string
	Kind  user.Kind
}

// ResolveUserHandler handles login resolution.
type ResolveUserHandler struct {
	store *docstore.Store
	bus   shared.EventPublisher
	opts  options
}

// NewResolveUserHandler creates the handler.
func NewResolveUserHandler(store *docstore.Store, bus shared.EventPublisher, opts ...Option) *ResolveUserHandler {
	o := buildOptions(opts)
	o.log = o.log.With(logger.Component("resolve_user"))
	return &ResolveUserHandler{store: store, bus: bus, opts: o}
}

// Handle resolves the user and stamps their last login time. Resolution never
// creates accounts; an unknown (email, kind) pair is ErrUserNotFound.
func (h *ResolveUserHandler) Handle(ctx context.Context, q ResolveUserQuery) (user.Record, error) {
	email := strings.ToLower(strings.TrimSpace(q.Email))
	if email == "" {
		return user.Record{}, shared.NewDomainError("identity", "Resolve", shared.ErrEmptyValue, "email is required")
	}
	if !q.Kind.IsValid() {
		return user.Record{}, shared.NewDomainError("identity", "Resolve", shared.ErrInvalidFormat, "unknown user kind")
	}

	matches := h.store.FindUsers(func(u user.Record) bool {
		return u.Kind == q.Kind && u.Email == email
	})
	if len(matches) == 0 {
		return user.Record{}, shared.ErrUserNotFound
	}

	now := h.opts.now()
	resolved, _, err := h.store.UpdateUser(matches[0].ID, func(u *user.Record) {
		at := now
		u.LastLoginAt = &at
	})
	if err != nil {
		return user.Record{}, shared.WrapError("identity", "Resolve", nil, "stamp last login", err)
	}

	h.opts.log.Info("user resolved",
		logger.UserID(resolved.ID),
		logger.EmailField(resolved.Email),
		logger.String("kind", string(resolved.Kind)))

	h.bus.Publish(shared.UserResolvedEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventUserResolved, resolved.ID, now),
		Email:     resolved.Email,
		Kind:      string(resolved.Kind),
	})

	return resolved, nil
}
