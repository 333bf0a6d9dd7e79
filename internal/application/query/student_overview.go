package query

import (
	"context"
	"sort"

	"github.com/edudash-hub/edudash-engine/internal/domain/progress"
	"github.com/edudash-hub/edudash-engine/internal/domain/shared"
	"github.com/edudash-hub/edudash-engine/internal/infrastructure/persistence/docstore"
)

// defaultRecentLimit bounds the recent-activity list when the caller does not
// ask for a specific size.
const defaultRecentLimit = 10

// StudentOverviewQuery assembles the dashboard view for one student.
type StudentOverviewQuery struct {
	StudentID   string
	RecentLimit int
}

// BadgeView is an unlocked badge with its catalogue details.
type BadgeView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// StudentOverview is the aggregated dashboard payload.
type StudentOverview struct {
	StudentID       string                     `json:"studentId"`
	Name            string                     `json:"name"`
	TotalPoints     int                        `json:"totalPoints"`
	CurrentLevel    int                        `json:"currentLevel"`
	NextLevelPoints int                        `json:"nextLevelPoints"`
	StreakDays      int                        `json:"streakDays"`
	Stats           struct {
		LessonsCompleted int     `json:"lessonsCompleted"`
		AverageScore     float64 `json:"averageScore"`
		TimeSpentMinutes int     `json:"timeSpentMinutes"`
	} `json:"stats"`
	Badges []BadgeView                `json:"badges"`
	Recent []progress.CompletionEvent `json:"recent"`
}

// StudentOverviewHandler handles overview queries.
type StudentOverviewHandler struct {
	store *docstore.Store
}

// NewStudentOverviewHandler creates the handler.
func NewStudentOverviewHandler(store *docstore.Store) *StudentOverviewHandler {
	return &StudentOverviewHandler{store: store}
}

// Handle builds the overview. Badges are listed in unlock order; recent
// events newest first.
func (h *StudentOverviewHandler) Handle(ctx context.Context, q StudentOverviewQuery) (StudentOverview, error) {
	student, ok := h.store.User(q.StudentID)
	if !ok || !student.IsStudent() {
		return StudentOverview{}, shared.ErrStudentNotFound
	}

	out := StudentOverview{
		StudentID:    student.ID,
		Name:         student.Name,
		CurrentLevel: 1,
		Badges:       []BadgeView{},
	}

	if student.Progress != nil {
		out.TotalPoints = student.Progress.TotalPoints
		out.CurrentLevel = student.Progress.CurrentLevel
		out.StreakDays = student.Progress.StreakDays
		for _, id := range student.Progress.UnlockedBadgeIDs {
			if b, found := progress.BadgeByID(id); found {
				out.Badges = append(out.Badges, BadgeView{
					ID:          b.ID,
					Name:        b.Name,
					Description: b.Description,
					Icon:        b.Icon,
				})
			}
		}
	}
	// Points needed to reach the next level, given level = floor(sqrt(p/100))+1.
	out.NextLevelPoints = 100 * out.CurrentLevel * out.CurrentLevel

	if student.Stats != nil {
		out.Stats.LessonsCompleted = student.Stats.LessonsCompleted
		out.Stats.AverageScore = student.Stats.AverageScore
		out.Stats.TimeSpentMinutes = student.Stats.TimeSpentMinutes
	}

	events := h.store.EventsForStudent(q.StudentID)
	sort.Slice(events, func(i, j int) bool {
		return events[i].CompletedAt.After(events[j].CompletedAt)
	})
	limit := q.RecentLimit
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	if len(events) > limit {
		events = events[:limit]
	}
	out.Recent = events

	return out, nil
}
