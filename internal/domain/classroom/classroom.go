// Package classroom contains the class and assignment records linking
// teachers, students and lessons.
package classroom

import (
	"strings"
	"time"

	"github.com/edudash-hub/edudash-engine/internal/domain/shared"
)

// Class is a group of students taught by one teacher.
type Class struct {
	shared.RecordMeta
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	TeacherID   string   `json:"teacherId"`
	StudentIDs  []string `json:"studentIds,omitempty"`
}

// Validate checks required class fields.
func (c Class) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return shared.NewDomainError("classroom", "Validate", shared.ErrEmptyValue, "class name is required")
	}
	if strings.TrimSpace(c.TeacherID) == "" {
		return shared.NewDomainError("classroom", "Validate", shared.ErrEmptyValue, "teacherId is required")
	}
	return nil
}

// HasStudent reports whether the student is enrolled.
func (c Class) HasStudent(studentID string) bool {
	for _, id := range c.StudentIDs {
		if id == studentID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the class.
func (c Class) Clone() Class {
	out := c
	if c.StudentIDs != nil {
		out.StudentIDs = make([]string, len(c.StudentIDs))
		copy(out.StudentIDs, c.StudentIDs)
	}
	return out
}

// Assignment schedules a lesson for a class.
type Assignment struct {
	shared.RecordMeta
	ClassID  string     `json:"classId"`
	LessonID string     `json:"lessonId"`
	Title    string     `json:"title,omitempty"`
	DueAt    *time.Time `json:"dueAt,omitempty"`
}

// Validate checks required assignment fields.
func (a Assignment) Validate() error {
	if strings.TrimSpace(a.ClassID) == "" {
		return shared.NewDomainError("classroom", "Validate", shared.ErrEmptyValue, "classId is required")
	}
	if strings.TrimSpace(a.LessonID) == "" {
		return shared.NewDomainError("classroom", "Validate", shared.ErrEmptyValue, "lessonId is required")
	}
	return nil
}

// Clone returns a deep copy of the assignment.
func (a Assignment) Clone() Assignment {
	out := a
	if a.DueAt != nil {
		t := *a.DueAt
		out.DueAt = &t
	}
	return out
}
