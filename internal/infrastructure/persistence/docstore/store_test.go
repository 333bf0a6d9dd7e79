package docstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edudash-hub/edudash-engine/internal/domain/lesson"
	"github.com/edudash-hub/edudash-engine/internal/domain/progress"
	"github.com/edudash-hub/edudash-engine/internal/domain/shared"
	"github.com/edudash-hub/edudash-engine/internal/domain/user"
	"github.com/edudash-hub/edudash-engine/pkg/timeutil"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	var seq int
	s, err := Open(NewMemoryMedium(),
		WithClock(func() time.Time { return timeutil.Date(2025, 3, 10).Add(12 * time.Hour) }),
		WithIDGenerator(func() string { seq++; return fmt.Sprintf("id-%d", seq) }),
	)
	require.NoError(t, err)
	return s
}

func sampleLesson() lesson.Lesson {
	return lesson.Lesson{
		Title:              "Reading Comprehension: ENEM 2023",
		Category:           "reading",
		ExamTarget:         "ENEM",
		Difficulty:         lesson.DifficultyMedium,
		BasePoints:         10,
		CreatedByTeacherID: "t-1",
		Status:             lesson.StatusActive,
	}
}

func TestCreateRead_RoundTrip(t *testing.T) {
	s := newTestStore(t)

	created, err := s.CreateLesson(sampleLesson())
	require.NoError(t, err)
	assert.Equal(t, "id-1", created.ID)
	assert.False(t, created.CreatedAt.IsZero())
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)

	got, ok := s.Lesson(created.ID)
	require.True(t, ok)
	assert.Equal(t, created, got)
	assert.Equal(t, "Reading Comprehension: ENEM 2023", got.Title)
	assert.Equal(t, lesson.DifficultyMedium, got.Difficulty)
}

func TestRead_MissingIDReturnsNotFound(t *testing.T) {
	s := newTestStore(t)
	_, ok := s.Lesson("nope")
	assert.False(t, ok)
}

func TestRead_ReturnsIndependentCopy(t *testing.T) {
	s := newTestStore(t)
	l := sampleLesson()
	l.Prerequisites = []string{"pre-1"}
	created, err := s.CreateLesson(l)
	require.NoError(t, err)

	snap, ok := s.Lesson(created.ID)
	require.True(t, ok)
	snap.Title = "mutated"
	snap.Prerequisites[0] = "mutated"

	fresh, _ := s.Lesson(created.ID)
	assert.Equal(t, "Reading Comprehension: ENEM 2023", fresh.Title)
	assert.Equal(t, "pre-1", fresh.Prerequisites[0])
}

func TestUpdate_MergesAndRefreshesUpdatedAt(t *testing.T) {
	var now = timeutil.Date(2025, 3, 10)
	var seq int
	s, err := Open(NewMemoryMedium(),
		WithClock(func() time.Time { return now }),
		WithIDGenerator(func() string { seq++; return fmt.Sprintf("id-%d", seq) }),
	)
	require.NoError(t, err)

	created, err := s.CreateLesson(sampleLesson())
	require.NoError(t, err)

	now = now.Add(time.Hour)
	updated, found, err := s.UpdateLesson(created.ID, func(l *lesson.Lesson) {
		l.Title = "Updated title"
		l.Status = lesson.StatusArchived
	})
	require.NoError(t, err)
	require.True(t, found)

	assert.Equal(t, "Updated title", updated.Title)
	assert.Equal(t, lesson.StatusArchived, updated.Status)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))
	assert.Equal(t, created.ID, updated.ID)
}

func TestUpdate_MissingIDIsNoOp(t *testing.T) {
	s := newTestStore(t)
	created, err := s.CreateLesson(sampleLesson())
	require.NoError(t, err)

	_, found, err := s.UpdateLesson("missing", func(l *lesson.Lesson) {
		l.Title = "should not land"
	})
	require.NoError(t, err)
	assert.False(t, found)

	got, _ := s.Lesson(created.ID)
	assert.Equal(t, created.Title, got.Title)
	assert.Len(t, s.Lessons(), 1)
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)
	created, err := s.CreateLesson(sampleLesson())
	require.NoError(t, err)

	ok, err := s.DeleteLesson(created.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.DeleteLesson(created.ID)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, s.Lessons())
}

func TestQuery_Filters(t *testing.T) {
	s := newTestStore(t)

	_, err := s.CreateUser(user.NewStudent("Ana", "ana@example.com"))
	require.NoError(t, err)
	_, err = s.CreateUser(user.NewStudent("Bia", "bia@example.com"))
	require.NoError(t, err)
	_, err = s.CreateUser(user.NewTeacher("Carlos", "carlos@example.com"))
	require.NoError(t, err)

	students, err := s.Query(CollectionUsers, map[string]any{"kind": "student"})
	require.NoError(t, err)
	assert.Len(t, students, 2)

	ana, err := s.Query(CollectionUsers, map[string]any{"kind": "student", "email": "ana@example.com"})
	require.NoError(t, err)
	require.Len(t, ana, 1)
	assert.Equal(t, "Ana", ana[0]["name"])

	set, err := s.Query(CollectionUsers, map[string]any{"email": []string{"ana@example.com", "carlos@example.com"}})
	require.NoError(t, err)
	assert.Len(t, set, 2)

	all, err := s.Query(CollectionUsers, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	none, err := s.Query(CollectionUsers, map[string]any{"email": "zed@example.com"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestQuery_UnknownCollection(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Query("tombstones", nil)
	assert.ErrorIs(t, err, shared.ErrUnknownCollection)

	_, err = s.Snapshot("tombstones")
	assert.ErrorIs(t, err, shared.ErrUnknownCollection)
}

func TestExportImport_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	_, err := s.CreateUser(user.NewStudent("Ana", "ana@example.com"))
	require.NoError(t, err)
	_, err = s.CreateLesson(sampleLesson())
	require.NoError(t, err)
	_, err = s.CreateProgressEvent(progress.CompletionEvent{
		StudentID: "id-1", LessonID: "id-2", ScorePercent: 80, PointsEarned: 10,
		CompletedAt: timeutil.Date(2025, 3, 10),
	})
	require.NoError(t, err)

	data, name, err := s.ExportJSON()
	require.NoError(t, err)
	assert.Equal(t, "edudash_backup_2025-03-10.json", name)

	var exported Document
	require.NoError(t, json.Unmarshal(data, &exported))
	require.NotNil(t, exported.Meta.LastBackupAt)

	require.NoError(t, s.Import(data))

	after := s.Export()
	before := exported
	// lastBackupAt is the only field allowed to differ across the round trip.
	before.Meta.LastBackupAt = nil
	after.Meta.LastBackupAt = nil
	assert.Equal(t, before, after)

	assert.Len(t, s.Users(), 1)
	assert.Len(t, s.Lessons(), 1)
	assert.Len(t, s.ProgressEvents(), 1)
}

func TestImport_RejectsMalformedDocuments(t *testing.T) {
	s := newTestStore(t)

	err := s.Import([]byte("{not json"))
	assert.ErrorIs(t, err, shared.ErrInvalidDocument)

	err = s.Import([]byte(`{"users": []}`)) // no meta
	assert.ErrorIs(t, err, shared.ErrInvalidDocument)

	err = s.Import([]byte(`{"meta": {"schemaVersion": "1.0.0", "createdAt": "2025-01-01T00:00:00Z"}, "users": {"bad": "shape"}}`))
	assert.ErrorIs(t, err, shared.ErrInvalidDocument)
}

func TestImport_DefaultsMissingCollections(t *testing.T) {
	s := newTestStore(t)

	err := s.Import([]byte(`{"meta": {"schemaVersion": "1.0.0", "createdAt": "2025-01-01T00:00:00Z"}}`))
	require.NoError(t, err)

	assert.NotNil(t, s.Users())
	assert.Empty(t, s.Users())
	assert.Empty(t, s.Lessons())
	settings := s.Settings()
	assert.Equal(t, "openai", settings.DefaultProvider)
	assert.Contains(t, settings.Providers, "anthropic")
}

func TestOpen_MigratesLegacyDocumentForward(t *testing.T) {
	medium := NewMemoryMedium()
	require.NoError(t, medium.Store([]byte(`{"meta": {}, "users": []}`)))

	s, err := Open(medium)
	require.NoError(t, err)

	data, err := medium.Load()
	require.NoError(t, err)
	var doc Document
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, SchemaVersion, doc.Meta.SchemaVersion)
	assert.NotNil(t, s.Lessons())
}

type failingMedium struct {
	fail bool
	MemoryMedium
}

func (m *failingMedium) Store(data []byte) error {
	if m.fail {
		return errors.New("disk full")
	}
	return m.MemoryMedium.Store(data)
}

func TestCreate_RollsBackWhenPersistFails(t *testing.T) {
	medium := &failingMedium{}
	s, err := Open(medium)
	require.NoError(t, err)

	medium.fail = true
	_, err = s.CreateLesson(sampleLesson())
	require.Error(t, err)

	medium.fail = false
	assert.Empty(t, s.Lessons())
}

func TestFileMedium_RoundTripAndReplace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "edudash.json")
	m := NewFileMedium(path)

	data, err := m.Load()
	require.NoError(t, err)
	assert.Nil(t, data)

	require.NoError(t, m.Store([]byte(`{"v":1}`)))
	require.NoError(t, m.Store([]byte(`{"v":2}`)))

	data, err = m.Load()
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":2}`, string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not linger")
}

func TestReload_PicksUpExternalChange(t *testing.T) {
	medium := NewMemoryMedium()
	s, err := Open(medium)
	require.NoError(t, err)

	// No external change: reload is a no-op.
	changed, err := s.Reload()
	require.NoError(t, err)
	assert.False(t, changed)

	// Simulate another process replacing the persisted document.
	other := NewDocument(time.Now())
	other.Lessons = append(other.Lessons, sampleLesson())
	data, err := json.MarshalIndent(other, "", "  ")
	require.NoError(t, err)
	require.NoError(t, medium.Store(data))

	changed, err = s.Reload()
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Len(t, s.Lessons(), 1)
}

func TestProgressEvents_ForStudent(t *testing.T) {
	s := newTestStore(t)
	for i, sid := range []string{"s1", "s2", "s1"} {
		_, err := s.CreateProgressEvent(progress.CompletionEvent{
			StudentID: sid, LessonID: fmt.Sprintf("l%d", i), ScorePercent: 100,
			CompletedAt: timeutil.Date(2025, 3, 10),
		})
		require.NoError(t, err)
	}

	evs := s.EventsForStudent("s1")
	require.Len(t, evs, 2)
	assert.Equal(t, "l0", evs[0].LessonID)
	assert.Equal(t, "l2", evs[1].LessonID)
}

func TestUpdateSettings(t *testing.T) {
	s := newTestStore(t)

	err := s.UpdateSettings(func(set *Settings) {
		p := set.Providers["openai"]
		p.Enabled = true
		p.APIKey = "sealed:abc"
		set.Providers["openai"] = p
		set.DefaultProvider = "openai"
	})
	require.NoError(t, err)

	got := s.Settings()
	assert.True(t, got.Providers["openai"].Enabled)
	assert.Equal(t, "sealed:abc", got.Providers["openai"].APIKey)

	// Snapshot isolation: mutating the copy must not leak into the store.
	got.Providers["openai"] = ProviderSettings{}
	assert.True(t, s.Settings().Providers["openai"].Enabled)
}
