// Package lesson contains the lesson entity and its difficulty scale.
package lesson

import (
	"strings"

	"github.com/edudash-hub/edudash-engine/internal/domain/shared"
)

// Difficulty grades a lesson and scales the points it awards.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Multiplier returns the points multiplier for the difficulty.
// Unknown difficulties fall back to 1.
func (d Difficulty) Multiplier() float64 {
	switch d {
	case DifficultyEasy:
		return 1.0
	case DifficultyMedium:
		return 1.2
	case DifficultyHard:
		return 1.5
	default:
		return 1.0
	}
}

// IsValid reports whether the difficulty is one of the known grades.
func (d Difficulty) IsValid() bool {
	return d == DifficultyEasy || d == DifficultyMedium || d == DifficultyHard
}

// Status is the lesson lifecycle state.
type Status string

const (
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
)

// Lesson is a unit of study content created by a teacher.
type Lesson struct {
	shared.RecordMeta
	Title                string     `json:"title"`
	Category             string     `json:"category"`
	ExamTarget           string     `json:"examTarget"`
	Difficulty           Difficulty `json:"difficulty"`
	BasePoints           int        `json:"basePoints"`
	EstimatedTimeMinutes int        `json:"estimatedTimeMinutes"`
	CreatedByTeacherID   string     `json:"createdByTeacherId"`
	Prerequisites        []string   `json:"prerequisites,omitempty"`
	Status               Status     `json:"status"`
}

// Validate checks the fields a lesson must carry before it can be stored.
func (l Lesson) Validate() error {
	if strings.TrimSpace(l.Title) == "" {
		return shared.NewDomainError("lesson", "Validate", shared.ErrEmptyValue, "title is required")
	}
	if l.BasePoints <= 0 {
		return shared.NewDomainError("lesson", "Validate", shared.ErrValueOutOfRange, "basePoints must be positive")
	}
	if !l.Difficulty.IsValid() {
		return shared.NewDomainError("lesson", "Validate", shared.ErrInvalidFormat, "unknown difficulty")
	}
	if l.Status != StatusActive && l.Status != StatusArchived {
		return shared.NewDomainError("lesson", "Validate", shared.ErrInvalidFormat, "unknown status")
	}
	return nil
}

// Clone returns a deep copy of the lesson.
func (l Lesson) Clone() Lesson {
	out := l
	if l.Prerequisites != nil {
		out.Prerequisites = make([]string, len(l.Prerequisites))
		copy(out.Prerequisites, l.Prerequisites)
	}
	return out
}
