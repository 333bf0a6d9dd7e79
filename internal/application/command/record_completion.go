package command

import (
	"context"
	"time"

	"github.com/edudash-hub/edudash-engine/internal/domain/progress"
	"github.com/edudash-hub/edudash-engine/internal/domain/shared"
	"github.com/edudash-hub/edudash-engine/internal/domain/user"
	"github.com/edudash-hub/edudash-engine/internal/infrastructure/persistence/docstore"
	"github.com/edudash-hub/edudash-engine/pkg/logger"
)

// RecordCompletionCommand records one lesson-completion attempt for a student.
// ScorePercent is expected in [0, 100]; the transport layer clamps before the
// command runs, the handler itself trusts its input.
type RecordCompletionCommand struct {
	StudentID        string
	LessonID         string
	ScorePercent     float64
	TimeSpentMinutes int
}

// RecordCompletionResult reports everything the completion changed.
type RecordCompletionResult struct {
	Event         progress.CompletionEvent `json:"event"`
	Student       user.Record              `json:"student"`
	PointsEarned  int                      `json:"pointsEarned"`
	TotalPoints   int                      `json:"totalPoints"`
	PreviousLevel int                      `json:"previousLevel"`
	NewLevel      int                      `json:"newLevel"`
	StreakDays    int                      `json:"streakDays"`
	NewBadges     []progress.Badge         `json:"newBadges"`
}

// RecordCompletionHandler is the progress engine entry point. Recording a
// completion appends an immutable event and recomputes the student's derived
// progress (points, level, streak, stats, badges) from the full event log.
type RecordCompletionHandler struct {
	store *docstore.Store
	bus   shared.EventPublisher
	opts  options
}

// NewRecordCompletionHandler creates the handler.
func NewRecordCompletionHandler(store *docstore.Store, bus shared.EventPublisher, opts ...Option) *RecordCompletionHandler {
	o := buildOptions(opts)
	o.log = o.log.With(logger.Component("record_completion"))
	return &RecordCompletionHandler{store: store, bus: bus, opts: o}
}

// Handle records the completion. Repeat completions of the same lesson are
// legitimate study sessions: each attempt earns points again.
func (h *RecordCompletionHandler) Handle(ctx context.Context, cmd RecordCompletionCommand) (RecordCompletionResult, error) {
	lsn, ok := h.store.Lesson(cmd.LessonID)
	if !ok {
		return RecordCompletionResult{}, shared.ErrLessonNotFound
	}

	student, ok := h.store.User(cmd.StudentID)
	if !ok || !student.IsStudent() {
		return RecordCompletionResult{}, shared.ErrStudentNotFound
	}

	now := h.opts.now()
	points := progress.CalculatePoints(lsn.BasePoints, cmd.ScorePercent, lsn.Difficulty)

	event, err := h.store.CreateProgressEvent(progress.CompletionEvent{
		StudentID:        cmd.StudentID,
		LessonID:         cmd.LessonID,
		ScorePercent:     cmd.ScorePercent,
		TimeSpentMinutes: cmd.TimeSpentMinutes,
		PointsEarned:     points,
		CompletedAt:      now,
	})
	if err != nil {
		return RecordCompletionResult{}, shared.WrapError("progress", "RecordCompletion", nil, "persist completion event", err)
	}

	events := h.store.EventsForStudent(cmd.StudentID)

	totalPoints := 0
	totalMinutes := 0
	scoreSum := 0.0
	for _, ev := range events {
		totalPoints += ev.PointsEarned
		totalMinutes += ev.TimeSpentMinutes
		scoreSum += ev.ScorePercent
	}

	prevLevel := 1
	prevStreak := 0
	var unlockedIDs []string
	if student.Progress != nil {
		prevLevel = student.Progress.CurrentLevel
		prevStreak = student.Progress.StreakDays
		unlockedIDs = student.Progress.UnlockedBadgeIDs
	}

	newLevel := progress.LevelForPoints(totalPoints)
	streak := progress.CalculateStreak(events, now, h.opts.loc)

	newBadges := progress.EvaluateBadges(progress.BadgeStats{
		Completions:  len(events),
		StreakDays:   streak,
		CurrentLevel: newLevel,
		TotalPoints:  totalPoints,
	}, unlockedIDs)

	updated, found, err := h.store.UpdateUser(cmd.StudentID, func(u *user.Record) {
		if u.Progress == nil {
			u.Progress = &user.ProgressState{CurrentLevel: 1, UnlockedBadgeIDs: []string{}}
		}
		if u.Stats == nil {
			u.Stats = &user.Stats{}
		}
		u.Progress.TotalPoints = totalPoints
		u.Progress.CurrentLevel = newLevel
		u.Progress.StreakDays = streak
		at := now
		u.Progress.LastActivityAt = &at
		for _, b := range newBadges {
			u.Progress.UnlockBadge(b.ID)
		}
		u.Stats.LessonsCompleted = len(events)
		u.Stats.AverageScore = scoreSum / float64(len(events))
		u.Stats.TimeSpentMinutes = totalMinutes
	})
	if err != nil {
		return RecordCompletionResult{}, shared.WrapError("progress", "RecordCompletion", nil, "persist student progress", err)
	}
	if !found {
		return RecordCompletionResult{}, shared.ErrStudentNotFound
	}

	h.opts.log.Info("completion recorded",
		logger.UserID(cmd.StudentID),
		logger.LessonID(cmd.LessonID),
		logger.Points(points),
		logger.Int("total_points", totalPoints),
		logger.Int("level", newLevel),
		logger.Int("streak_days", streak))

	h.publishOutcome(event, prevLevel, newLevel, prevStreak, streak, totalPoints, newBadges, now)

	return RecordCompletionResult{
		Event:         event,
		Student:       updated,
		PointsEarned:  points,
		TotalPoints:   totalPoints,
		PreviousLevel: prevLevel,
		NewLevel:      newLevel,
		StreakDays:    streak,
		NewBadges:     newBadges,
	}, nil
}

func (h *RecordCompletionHandler) publishOutcome(
	event progress.CompletionEvent,
	prevLevel, newLevel, prevStreak, streak, totalPoints int,
	newBadges []progress.Badge,
	at time.Time,
) {
	h.bus.Publish(shared.CompletionRecordedEvent{
		BaseEvent:    shared.NewBaseEvent(shared.EventCompletionRecorded, event.StudentID, at),
		StudentID:    event.StudentID,
		LessonID:     event.LessonID,
		ScorePercent: event.ScorePercent,
		PointsEarned: event.PointsEarned,
	})
	if newLevel > prevLevel {
		h.bus.Publish(shared.LevelUpEvent{
			BaseEvent:     shared.NewBaseEvent(shared.EventLevelUp, event.StudentID, at),
			PreviousLevel: prevLevel,
			NewLevel:      newLevel,
			TotalPoints:   totalPoints,
		})
	}
	if streak != prevStreak {
		h.bus.Publish(shared.StreakUpdatedEvent{
			BaseEvent:  shared.NewBaseEvent(shared.EventStreakUpdated, event.StudentID, at),
			StreakDays: streak,
		})
	}
	for _, b := range newBadges {
		h.bus.Publish(shared.BadgeUnlockedEvent{
			BaseEvent:   shared.NewBaseEvent(shared.EventBadgeUnlocked, event.StudentID, at),
			BadgeID:     b.ID,
			Name:        b.Name,
			Description: b.Description,
			Icon:        b.Icon,
		})
	}
}
