package docstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/edudash-hub/edudash-engine/internal/domain/classroom"
	"github.com/edudash-hub/edudash-engine/internal/domain/lesson"
	"github.com/edudash-hub/edudash-engine/internal/domain/progress"
	"github.com/edudash-hub/edudash-engine/internal/domain/shared"
	"github.com/edudash-hub/edudash-engine/internal/domain/user"
	"github.com/edudash-hub/edudash-engine/pkg/logger"
)

// Store owns the in-memory document and persists it through the medium on
// every successful mutation. It is safe for concurrent use from a single
// process; the design remains single-writer (one logical user session).
type Store struct {
	mu     sync.Mutex
	doc    Document
	medium Medium
	log    *logger.Logger
	clock  func() time.Time
	newID  func() string
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source (tests).
func WithClock(clock func() time.Time) Option {
	return func(s *Store) { s.clock = clock }
}

// WithIDGenerator overrides record id generation (tests).
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

// WithLogger sets the logger.
func WithLogger(log *logger.Logger) Option {
	return func(s *Store) { s.log = log }
}

// Open loads the document from the medium, creating a blank slate when the
// medium holds nothing, and migrating older documents forward.
func Open(medium Medium, opts ...Option) (*Store, error) {
	s := &Store{
		medium: medium,
		log:    logger.Default(),
		clock:  time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(logger.Component("docstore"))

	data, err := medium.Load()
	if err != nil {
		return nil, shared.WrapError("store", "Open", shared.ErrInvalidDocument, "loading persisted document", err)
	}

	now := s.clock()
	if len(data) == 0 {
		s.doc = NewDocument(now)
		if err := s.persistLocked(); err != nil {
			return nil, err
		}
		s.log.Info("initialized blank document")
		return s, nil
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, shared.WrapError("store", "Open", shared.ErrInvalidDocument, "parsing persisted document", err)
	}
	migrated := doc.normalize(now)
	s.doc = doc
	if migrated {
		if err := s.persistLocked(); err != nil {
			return nil, err
		}
		s.log.Info("migrated document forward", logger.String("schema_version", s.doc.Meta.SchemaVersion))
	}
	return s, nil
}

// persistLocked serializes the whole document and writes it through the
// medium. Callers hold s.mu.
func (s *Store) persistLocked() error {
	data, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return shared.WrapError("store", "Persist", shared.ErrInvalidDocument, "serializing document", err)
	}
	if err := s.medium.Store(data); err != nil {
		return shared.WrapError("store", "Persist", shared.ErrInvalidDocument, "writing document", err)
	}
	return nil
}

// record and recordPtr tie a collection element type to its metadata and
// deep-copy behaviour so the CRUD helpers can be written once.
type record[T any] interface{ Clone() T }

type recordPtr[T any] interface {
	*T
	Meta() *shared.RecordMeta
}

func createIn[T record[T], PT recordPtr[T]](s *Store, list *[]T, item T) (T, error) {
	now := s.clock()
	meta := PT(&item).Meta()
	meta.ID = s.newID()
	meta.CreatedAt = now
	meta.UpdatedAt = now

	*list = append(*list, item)
	if err := s.persistLocked(); err != nil {
		*list = (*list)[:len(*list)-1]
		var zero T
		return zero, err
	}
	return item.Clone(), nil
}

func getFrom[T record[T], PT recordPtr[T]](list []T, id string) (T, bool) {
	for i := range list {
		if PT(&list[i]).Meta().ID == id {
			return list[i].Clone(), true
		}
	}
	var zero T
	return zero, false
}

func listOf[T record[T]](list []T) []T {
	out := make([]T, 0, len(list))
	for _, item := range list {
		out = append(out, item.Clone())
	}
	return out
}

func filterOf[T record[T]](list []T, keep func(T) bool) []T {
	out := []T{}
	for _, item := range list {
		if keep(item) {
			out = append(out, item.Clone())
		}
	}
	return out
}

func updateIn[T record[T], PT recordPtr[T]](s *Store, list []T, id string, mutate func(*T)) (T, bool, error) {
	for i := range list {
		if PT(&list[i]).Meta().ID != id {
			continue
		}
		before := list[i].Clone()
		mutate(&list[i])

		// id and createdAt are immutable regardless of what the mutator did.
		meta := PT(&list[i]).Meta()
		meta.ID = id
		meta.CreatedAt = PT(&before).Meta().CreatedAt
		meta.UpdatedAt = s.clock()

		if err := s.persistLocked(); err != nil {
			list[i] = before
			var zero T
			return zero, false, err
		}
		return list[i].Clone(), true, nil
	}
	var zero T
	return zero, false, nil
}

func deleteFrom[T record[T], PT recordPtr[T]](s *Store, list *[]T, id string) (bool, error) {
	idx := -1
	for i := range *list {
		if PT(&(*list)[i]).Meta().ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false, nil
	}

	orig := *list
	next := make([]T, 0, len(orig)-1)
	next = append(next, orig[:idx]...)
	next = append(next, orig[idx+1:]...)
	*list = next

	if err := s.persistLocked(); err != nil {
		*list = orig
		return false, err
	}
	return true, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Users
// ═══════════════════════════════════════════════════════════════════════════

// CreateUser appends a user record, assigning id and timestamps.
func (s *Store) CreateUser(rec user.Record) (user.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return createIn[user.Record](s, &s.doc.Users, rec)
}

// User returns the user with the given id, if present.
func (s *Store) User(id string) (user.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return getFrom[user.Record](s.doc.Users, id)
}

// Users returns a snapshot copy of the users collection.
func (s *Store) Users() []user.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return listOf(s.doc.Users)
}

// FindUsers returns snapshot copies of users matching the predicate.
func (s *Store) FindUsers(keep func(user.Record) bool) []user.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return filterOf(s.doc.Users, keep)
}

// UpdateUser applies a typed mutation to the user with the given id and
// refreshes updatedAt. Returns found=false (and no error) for a missing id.
func (s *Store) UpdateUser(id string, mutate func(*user.Record)) (user.Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return updateIn[user.Record](s, s.doc.Users, id, mutate)
}

// DeleteUser removes the user if present. Hard delete, no tombstones.
func (s *Store) DeleteUser(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteFrom[user.Record](s, &s.doc.Users, id)
}

// ═══════════════════════════════════════════════════════════════════════════
// Lessons
// ═══════════════════════════════════════════════════════════════════════════

// CreateLesson appends a lesson, assigning id and timestamps.
func (s *Store) CreateLesson(l lesson.Lesson) (lesson.Lesson, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return createIn[lesson.Lesson](s, &s.doc.Lessons, l)
}

// Lesson returns the lesson with the given id, if present.
func (s *Store) Lesson(id string) (lesson.Lesson, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return getFrom[lesson.Lesson](s.doc.Lessons, id)
}

// Lessons returns a snapshot copy of the lessons collection.
func (s *Store) Lessons() []lesson.Lesson {
	s.mu.Lock()
	defer s.mu.Unlock()
	return listOf(s.doc.Lessons)
}

// UpdateLesson applies a typed mutation to the lesson with the given id.
func (s *Store) UpdateLesson(id string, mutate func(*lesson.Lesson)) (lesson.Lesson, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return updateIn[lesson.Lesson](s, s.doc.Lessons, id, mutate)
}

// DeleteLesson removes the lesson if present.
func (s *Store) DeleteLesson(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteFrom[lesson.Lesson](s, &s.doc.Lessons, id)
}

// ═══════════════════════════════════════════════════════════════════════════
// Classes and assignments
// ═══════════════════════════════════════════════════════════════════════════

// CreateClass appends a class, assigning id and timestamps.
func (s *Store) CreateClass(c classroom.Class) (classroom.Class, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return createIn[classroom.Class](s, &s.doc.Classes, c)
}

// Class returns the class with the given id, if present.
func (s *Store) Class(id string) (classroom.Class, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return getFrom[classroom.Class](s.doc.Classes, id)
}

// Classes returns a snapshot copy of the classes collection.
func (s *Store) Classes() []classroom.Class {
	s.mu.Lock()
	defer s.mu.Unlock()
	return listOf(s.doc.Classes)
}

// UpdateClass applies a typed mutation to the class with the given id.
func (s *Store) UpdateClass(id string, mutate func(*classroom.Class)) (classroom.Class, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return updateIn[classroom.Class](s, s.doc.Classes, id, mutate)
}

// DeleteClass removes the class if present.
func (s *Store) DeleteClass(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteFrom[classroom.Class](s, &s.doc.Classes, id)
}

// CreateAssignment appends an assignment, assigning id and timestamps.
func (s *Store) CreateAssignment(a classroom.Assignment) (classroom.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return createIn[classroom.Assignment](s, &s.doc.Assignments, a)
}

// Assignments returns a snapshot copy of the assignments collection.
func (s *Store) Assignments() []classroom.Assignment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return listOf(s.doc.Assignments)
}

// UpdateAssignment applies a typed mutation to the assignment with the given id.
func (s *Store) UpdateAssignment(id string, mutate func(*classroom.Assignment)) (classroom.Assignment, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return updateIn[classroom.Assignment](s, s.doc.Assignments, id, mutate)
}

// DeleteAssignment removes the assignment if present.
func (s *Store) DeleteAssignment(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteFrom[classroom.Assignment](s, &s.doc.Assignments, id)
}

// ═══════════════════════════════════════════════════════════════════════════
// Progress events (append-only)
// ═══════════════════════════════════════════════════════════════════════════

// CreateProgressEvent appends a completion event. Events are immutable: the
// store exposes no update or delete for this collection.
func (s *Store) CreateProgressEvent(ev progress.CompletionEvent) (progress.CompletionEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return createIn[progress.CompletionEvent](s, &s.doc.ProgressEvents, ev)
}

// ProgressEvents returns a snapshot copy of the full event log.
func (s *Store) ProgressEvents() []progress.CompletionEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return listOf(s.doc.ProgressEvents)
}

// EventsForStudent returns the student's completion events in insertion order.
func (s *Store) EventsForStudent(studentID string) []progress.CompletionEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return filterOf(s.doc.ProgressEvents, func(ev progress.CompletionEvent) bool {
		return ev.StudentID == studentID
	})
}

// ═══════════════════════════════════════════════════════════════════════════
// Settings
// ═══════════════════════════════════════════════════════════════════════════

// Settings returns a snapshot copy of the settings.
func (s *Store) Settings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Settings.Clone()
}

// UpdateSettings applies a typed mutation to the settings and persists.
func (s *Store) UpdateSettings(mutate func(*Settings)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	before := s.doc.Settings.Clone()
	mutate(&s.doc.Settings)
	if err := s.persistLocked(); err != nil {
		s.doc.Settings = before
		return err
	}
	return nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Export / import / reload
// ═══════════════════════════════════════════════════════════════════════════

// Export produces a deep snapshot of the whole document with
// meta.lastBackupAt stamped to now. The live document is not modified.
func (s *Store) Export() Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.doc.Clone()
	now := s.clock()
	out.Meta.LastBackupAt = &now
	return out
}

// ExportJSON serializes the export snapshot and returns the conventional
// backup filename (edudash_backup_YYYY-MM-DD.json).
func (s *Store) ExportJSON() ([]byte, string, error) {
	doc := s.Export()
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, "", shared.WrapError("store", "Export", shared.ErrInvalidDocument, "serializing backup", err)
	}
	name := fmt.Sprintf("edudash_backup_%s.json", s.clock().Format("2006-01-02"))
	return data, name, nil
}

// Import validates the raw backup payload, then fully replaces the current
// document and persists it. Missing collections default to empty. The caller
// must treat this as an exclusive operation and re-render afterwards.
func (s *Store) Import(data []byte) error {
	doc, err := parseDocument(data)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	before := s.doc
	s.doc = doc
	if err := s.persistLocked(); err != nil {
		s.doc = before
		return err
	}
	s.log.Info("document restored from backup")
	return nil
}

// parseDocument validates and normalizes raw document bytes.
func parseDocument(data []byte) (Document, error) {
	if err := validateDocumentBytes(data); err != nil {
		return Document{}, err
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, shared.WrapError("store", "Import", shared.ErrInvalidDocument, "parsing document", err)
	}
	doc.normalize(time.Now())
	return doc, nil
}

// Reload re-reads the document from the medium, replacing the in-memory copy
// when the persisted bytes differ from the current state. Used after the
// store file changed on disk outside this process. Reports whether a reload
// happened.
func (s *Store) Reload() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.medium.Load()
	if err != nil {
		return false, shared.WrapError("store", "Reload", shared.ErrInvalidDocument, "loading persisted document", err)
	}
	if len(data) == 0 {
		return false, nil
	}

	current, err := json.MarshalIndent(s.doc, "", "  ")
	if err == nil && bytes.Equal(bytes.TrimSpace(current), bytes.TrimSpace(data)) {
		return false, nil
	}

	doc, err := parseDocument(data)
	if err != nil {
		return false, err
	}
	s.doc = doc
	s.log.Info("document reloaded from medium")
	return true, nil
}
