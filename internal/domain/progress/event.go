// Package progress contains the completion-event log entry and the pure
// gamification rules: points, levels, streaks and badges. No external
// dependencies and no storage concerns live here.
package progress

import (
	"time"

	"github.com/edudash-hub/edudash-engine/internal/domain/shared"
)

// CompletionEvent is an immutable log entry of one lesson-completion attempt.
// Events are only ever created, never updated or deleted. A student may
// complete the same lesson any number of times; each attempt is its own event
// and re-awards points.
type CompletionEvent struct {
	shared.RecordMeta
	StudentID        string    `json:"studentId"`
	LessonID         string    `json:"lessonId"`
	ScorePercent     float64   `json:"scorePercent"`
	TimeSpentMinutes int       `json:"timeSpentMinutes"`
	PointsEarned     int       `json:"pointsEarned"`
	CompletedAt      time.Time `json:"completedAt"`
}

// Clone returns a copy of the event.
func (e CompletionEvent) Clone() CompletionEvent { return e }
