package shared

import "time"

// EventType represents the type of domain event.
type EventType string

// Domain event types. The UI collaborator subscribes to these to re-render;
// nothing in the engine depends on anyone listening.
const (
	// Identity events
	EventUserRegistered EventType = "identity.user_registered"
	EventUserResolved   EventType = "identity.user_resolved"

	// Progress events
	EventCompletionRecorded EventType = "progress.completion_recorded"
	EventLevelUp            EventType = "progress.level_up"
	EventStreakUpdated      EventType = "progress.streak_updated"
	EventBadgeUnlocked      EventType = "progress.badge_unlocked"

	// Store events
	EventDocumentRestored EventType = "store.document_restored"
	EventDocumentReloaded EventType = "store.document_reloaded"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the record that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]any
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type        EventType `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	AggregateId string    `json:"aggregate_id"`
}

// EventType implements Event.
func (e BaseEvent) EventType() EventType { return e.Type }

// OccurredAt implements Event.
func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }

// AggregateID implements Event.
func (e BaseEvent) AggregateID() string { return e.AggregateId }

// NewBaseEvent creates a new base event stamped with the given time.
func NewBaseEvent(eventType EventType, aggregateID string, at time.Time) BaseEvent {
	return BaseEvent{Type: eventType, Timestamp: at, AggregateId: aggregateID}
}

// EventHandler processes a published event.
type EventHandler func(Event)

// EventPublisher is the side of the event bus the domain layer needs.
type EventPublisher interface {
	Publish(Event)
}

// ═══════════════════════════════════════════════════════════════════════════
// Identity events
// ═══════════════════════════════════════════════════════════════════════════

// UserRegisteredEvent is emitted when a teacher or student registers.
type UserRegisteredEvent struct {
	BaseEvent
	Email string `json:"email"`
	Kind  string `json:"kind"`
	Name  string `json:"name"`
}

// Payload implements Event.
func (e UserRegisteredEvent) Payload() map[string]any {
	return map[string]any{"email": e.Email, "kind": e.Kind, "name": e.Name}
}

// UserResolvedEvent is emitted when a login resolves an existing user.
type UserResolvedEvent struct {
	BaseEvent
	Email string `json:"email"`
	Kind  string `json:"kind"`
}

// Payload implements Event.
func (e UserResolvedEvent) Payload() map[string]any {
	return map[string]any{"email": e.Email, "kind": e.Kind}
}

// ═══════════════════════════════════════════════════════════════════════════
// Progress events
// ═══════════════════════════════════════════════════════════════════════════

// CompletionRecordedEvent is emitted for every recorded lesson completion.
type CompletionRecordedEvent struct {
	BaseEvent
	StudentID    string  `json:"student_id"`
	LessonID     string  `json:"lesson_id"`
	ScorePercent float64 `json:"score_percent"`
	PointsEarned int     `json:"points_earned"`
}

// Payload implements Event.
func (e CompletionRecordedEvent) Payload() map[string]any {
	return map[string]any{
		"student_id":    e.StudentID,
		"lesson_id":     e.LessonID,
		"score_percent": e.ScorePercent,
		"points_earned": e.PointsEarned,
	}
}

// LevelUpEvent is emitted when a completion raises the student's level.
type LevelUpEvent struct {
	BaseEvent
	PreviousLevel int `json:"previous_level"`
	NewLevel      int `json:"new_level"`
	TotalPoints   int `json:"total_points"`
}

// Payload implements Event.
func (e LevelUpEvent) Payload() map[string]any {
	return map[string]any{
		"previous_level": e.PreviousLevel,
		"new_level":      e.NewLevel,
		"total_points":   e.TotalPoints,
	}
}

// StreakUpdatedEvent is emitted when the recomputed streak changes.
type StreakUpdatedEvent struct {
	BaseEvent
	StreakDays int `json:"streak_days"`
}

// Payload implements Event.
func (e StreakUpdatedEvent) Payload() map[string]any {
	return map[string]any{"streak_days": e.StreakDays}
}

// BadgeUnlockedEvent is the badge notification for the UI collaborator.
type BadgeUnlockedEvent struct {
	BaseEvent
	BadgeID     string `json:"badge_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// Payload implements Event.
func (e BadgeUnlockedEvent) Payload() map[string]any {
	return map[string]any{
		"badge_id":    e.BadgeID,
		"name":        e.Name,
		"description": e.Description,
		"icon":        e.Icon,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Store events
// ═══════════════════════════════════════════════════════════════════════════

// DocumentRestoredEvent is emitted after a backup restore fully replaces the
// document. The host must re-render everything.
type DocumentRestoredEvent struct {
	BaseEvent
}

// Payload implements Event.
func (e DocumentRestoredEvent) Payload() map[string]any { return map[string]any{} }

// DocumentReloadedEvent is emitted when the persisted file changed on disk
// outside this process and the in-memory document was reloaded from it.
type DocumentReloadedEvent struct {
	BaseEvent
	Path string `json:"path"`
}

// Payload implements Event.
func (e DocumentReloadedEvent) Payload() map[string]any {
	return map[string]any{"path": e.Path}
}
