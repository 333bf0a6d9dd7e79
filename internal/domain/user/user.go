// Package user contains the user model for the dashboard: a tagged union of
// the teacher and student variants sharing one persisted envelope. The tag is
// Kind; exactly one of the variant payloads is populated.
package user

import (
	"strings"
	"time"

	"github.com/edudash-hub/edudash-engine/internal/domain/shared"
)

// Kind discriminates the two user variants.
type Kind string

const (
	KindTeacher Kind = "teacher"
	KindStudent Kind = "student"
)

// IsValid reports whether the kind is one of the two known variants.
func (k Kind) IsValid() bool {
	return k == KindTeacher || k == KindStudent
}

// Base holds the fields common to both variants. Login resolves users by
// (email, kind); the directory rejects duplicate pairs at registration.
type Base struct {
	shared.RecordMeta
	Kind        Kind       `json:"kind"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	LastLoginAt *time.Time `json:"lastLoginAt"`
}

// TeacherProfile holds the teacher-only fields.
type TeacherProfile struct {
	ClassesOwned   []string `json:"classesOwned,omitempty"`
	LessonsCreated []string `json:"lessonsCreated,omitempty"`
}

// Stats summarizes a student's study history. Recomputed on every completion.
type Stats struct {
	LessonsCompleted int     `json:"lessonsCompleted"`
	AverageScore     float64 `json:"averageScore"`
	TimeSpentMinutes int     `json:"timeSpentMinutes"`
}

// ProgressState is the derived gamification summary embedded in a student.
// Every field except LastActivityAt is recomputed wholesale when a new
// completion event is recorded; UnlockedBadgeIDs only ever grows.
type ProgressState struct {
	TotalPoints      int        `json:"totalPoints"`
	CurrentLevel     int        `json:"currentLevel"`
	StreakDays       int        `json:"streakDays"`
	LastActivityAt   *time.Time `json:"lastActivityAt"`
	UnlockedBadgeIDs []string   `json:"unlockedBadgeIds"`
}

// HasBadge reports whether the badge id has already been unlocked.
func (p ProgressState) HasBadge(id string) bool {
	for _, b := range p.UnlockedBadgeIDs {
		if b == id {
			return true
		}
	}
	return false
}

// UnlockBadge adds a badge id if not already present. Unlocks are permanent.
func (p *ProgressState) UnlockBadge(id string) {
	if !p.HasBadge(id) {
		p.UnlockedBadgeIDs = append(p.UnlockedBadgeIDs, id)
	}
}

// StudentProfile holds the student-only fields.
type StudentProfile struct {
	ClassesEnrolled []string       `json:"classesEnrolled,omitempty"`
	Progress        *ProgressState `json:"progress,omitempty"`
	Stats           *Stats         `json:"stats,omitempty"`
}

// Record is the persisted user envelope. Both variant payloads are embedded
// so the JSON stays flat; the constructors guarantee only the payload
// matching Kind carries data.
type Record struct {
	Base
	TeacherProfile
	StudentProfile
}

// NewTeacher builds a teacher record ready for Store.create.
func NewTeacher(name, email string) Record {
	return Record{
		Base: Base{Kind: KindTeacher, Name: strings.TrimSpace(name), Email: normalizeEmail(email)},
		TeacherProfile: TeacherProfile{
			ClassesOwned:   []string{},
			LessonsCreated: []string{},
		},
	}
}

// NewStudent builds a student record with zeroed stats and progress.
func NewStudent(name, email string) Record {
	return Record{
		Base: Base{Kind: KindStudent, Name: strings.TrimSpace(name), Email: normalizeEmail(email)},
		StudentProfile: StudentProfile{
			ClassesEnrolled: []string{},
			Progress: &ProgressState{
				TotalPoints:      0,
				CurrentLevel:     1,
				StreakDays:       0,
				UnlockedBadgeIDs: []string{},
			},
			Stats: &Stats{},
		},
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsTeacher reports whether the record is the teacher variant.
func (r Record) IsTeacher() bool { return r.Kind == KindTeacher }

// IsStudent reports whether the record is the student variant.
func (r Record) IsStudent() bool { return r.Kind == KindStudent }

// Validate checks the invariants of the envelope.
func (r Record) Validate() error {
	if !r.Kind.IsValid() {
		return shared.NewDomainError("user", "Validate", shared.ErrInvalidFormat, "unknown user kind")
	}
	if strings.TrimSpace(r.Name) == "" {
		return shared.NewDomainError("user", "Validate", shared.ErrEmptyValue, "name is required")
	}
	if strings.TrimSpace(r.Email) == "" {
		return shared.NewDomainError("user", "Validate", shared.ErrEmptyValue, "email is required")
	}
	if r.Kind == KindStudent && (r.Progress == nil || r.Stats == nil) {
		return shared.NewDomainError("user", "Validate", shared.ErrInvalidFormat, "student record missing progress state")
	}
	return nil
}

// Clone returns a deep copy. Mutating the copy never affects the original.
func (r Record) Clone() Record {
	out := r
	out.ClassesOwned = cloneStrings(r.ClassesOwned)
	out.LessonsCreated = cloneStrings(r.LessonsCreated)
	out.ClassesEnrolled = cloneStrings(r.ClassesEnrolled)
	if r.LastLoginAt != nil {
		t := *r.LastLoginAt
		out.LastLoginAt = &t
	}
	if r.Progress != nil {
		p := *r.Progress
		p.UnlockedBadgeIDs = cloneStrings(r.Progress.UnlockedBadgeIDs)
		if r.Progress.LastActivityAt != nil {
			t := *r.Progress.LastActivityAt
			p.LastActivityAt = &t
		}
		out.Progress = &p
	}
	if r.Stats != nil {
		s := *r.Stats
		out.Stats = &s
	}
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
