// Package docstore implements the durable, single-writer document store: one
// JSON-serializable root object holding every named collection, persisted
// wholesale through a pluggable medium on every mutation.
package docstore

import (
	"time"

	"github.com/edudash-hub/edudash-engine/internal/domain/classroom"
	"github.com/edudash-hub/edudash-engine/internal/domain/lesson"
	"github.com/edudash-hub/edudash-engine/internal/domain/progress"
	"github.com/edudash-hub/edudash-engine/internal/domain/user"
)

// SchemaVersion is written into meta on creation and migrated forward-only
// on load when absent.
const SchemaVersion = "1.0.0"

// StorageKey is the fixed key the document lives under in keyed media.
const StorageKey = "edudash_data"

// Collection names. The set is fixed; anything else is an unknown collection.
const (
	CollectionUsers          = "users"
	CollectionClasses        = "classes"
	CollectionLessons        = "lessons"
	CollectionAssignments    = "assignments"
	CollectionProgressEvents = "progressEvents"
)

// Collections returns the fixed collection names in document order.
func Collections() []string {
	return []string{
		CollectionUsers,
		CollectionClasses,
		CollectionLessons,
		CollectionAssignments,
		CollectionProgressEvents,
	}
}

// Meta is the document header.
type Meta struct {
	SchemaVersion string     `json:"schemaVersion"`
	CreatedAt     time.Time  `json:"createdAt"`
	LastBackupAt  *time.Time `json:"lastBackupAt"`
}

// ProviderSettings configures one AI provider. The API key is stored sealed
// (see the secrets package); the store treats it as an opaque string.
type ProviderSettings struct {
	APIKey  string `json:"apiKey"`
	Model   string `json:"model"`
	Enabled bool   `json:"enabled"`
}

// Settings holds provider configuration and display preferences.
type Settings struct {
	Providers       map[string]ProviderSettings `json:"aiProviders"`
	DefaultProvider string                      `json:"defaultProvider"`
	Theme           string                      `json:"theme"`
	Language        string                      `json:"language"`
}

// Clone returns a deep copy of the settings.
func (s Settings) Clone() Settings {
	out := s
	if s.Providers != nil {
		out.Providers = make(map[string]ProviderSettings, len(s.Providers))
		for k, v := range s.Providers {
			out.Providers[k] = v
		}
	}
	return out
}

// Document is the single persisted root object. Collection order is
// insertion order.
type Document struct {
	Meta           Meta                       `json:"meta"`
	Users          []user.Record              `json:"users"`
	Classes        []classroom.Class          `json:"classes"`
	Lessons        []lesson.Lesson            `json:"lessons"`
	Assignments    []classroom.Assignment     `json:"assignments"`
	ProgressEvents []progress.CompletionEvent `json:"progressEvents"`
	Settings       Settings                   `json:"settings"`
}

// DefaultProviders returns the provider catalogue with default models and
// everything disabled, matching a fresh install.
func DefaultProviders() map[string]ProviderSettings {
	return map[string]ProviderSettings{
		"openai":     {Model: "gpt-4o-mini"},
		"anthropic":  {Model: "claude-3-sonnet-20240229"},
		"google":     {Model: "gemini-pro"},
		"perplexity": {Model: "llama-3-sonar-large-32k-online"},
	}
}

// NewDocument returns a blank-slate document: no pre-populated records.
func NewDocument(now time.Time) Document {
	return Document{
		Meta: Meta{
			SchemaVersion: SchemaVersion,
			CreatedAt:     now,
		},
		Users:          []user.Record{},
		Classes:        []classroom.Class{},
		Lessons:        []lesson.Lesson{},
		Assignments:    []classroom.Assignment{},
		ProgressEvents: []progress.CompletionEvent{},
		Settings: Settings{
			Providers:       DefaultProviders(),
			DefaultProvider: "openai",
			Theme:           "auto",
			Language:        "pt-BR",
		},
	}
}

// Clone returns a deep copy of the whole document.
func (d Document) Clone() Document {
	out := d
	if d.Meta.LastBackupAt != nil {
		t := *d.Meta.LastBackupAt
		out.Meta.LastBackupAt = &t
	}
	out.Users = cloneSlice(d.Users)
	out.Classes = cloneSlice(d.Classes)
	out.Lessons = cloneSlice(d.Lessons)
	out.Assignments = cloneSlice(d.Assignments)
	out.ProgressEvents = cloneSlice(d.ProgressEvents)
	out.Settings = d.Settings.Clone()
	return out
}

func cloneSlice[T record[T]](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, 0, len(in))
	for _, item := range in {
		out = append(out, item.Clone())
	}
	return out
}

// normalize migrates a loaded document in place: absent meta fields are
// rewritten forward, missing collections default to empty, and the provider
// catalogue is filled in. Reports whether anything changed.
func (d *Document) normalize(now time.Time) bool {
	changed := false

	if d.Meta.SchemaVersion == "" {
		d.Meta.SchemaVersion = SchemaVersion
		changed = true
	}
	if d.Meta.CreatedAt.IsZero() {
		d.Meta.CreatedAt = now
		changed = true
	}

	if d.Users == nil {
		d.Users = []user.Record{}
		changed = true
	}
	if d.Classes == nil {
		d.Classes = []classroom.Class{}
		changed = true
	}
	if d.Lessons == nil {
		d.Lessons = []lesson.Lesson{}
		changed = true
	}
	if d.Assignments == nil {
		d.Assignments = []classroom.Assignment{}
		changed = true
	}
	if d.ProgressEvents == nil {
		d.ProgressEvents = []progress.CompletionEvent{}
		changed = true
	}

	if d.Settings.Providers == nil {
		d.Settings.Providers = DefaultProviders()
		changed = true
	}
	if d.Settings.DefaultProvider == "" {
		d.Settings.DefaultProvider = "openai"
		changed = true
	}
	if d.Settings.Theme == "" {
		d.Settings.Theme = "auto"
		changed = true
	}
	if d.Settings.Language == "" {
		d.Settings.Language = "pt-BR"
		changed = true
	}

	return changed
}
