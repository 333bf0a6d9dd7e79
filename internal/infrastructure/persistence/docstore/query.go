package docstore

import (
	"encoding/json"
	"reflect"

	"github.com/edudash-hub/edudash-engine/internal/domain/shared"
)

// Snapshot returns the named collection as generic JSON objects. The caller
// owns the result; mutating it never affects the store. Unknown names fail
// with ErrUnknownCollection.
func (s *Store) Snapshot(collection string) ([]map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var src any
	switch collection {
	case CollectionUsers:
		src = s.doc.Users
	case CollectionClasses:
		src = s.doc.Classes
	case CollectionLessons:
		src = s.doc.Lessons
	case CollectionAssignments:
		src = s.doc.Assignments
	case CollectionProgressEvents:
		src = s.doc.ProgressEvents
	default:
		return nil, shared.NewDomainError("store", "Snapshot", shared.ErrUnknownCollection, collection)
	}

	data, err := json.Marshal(src)
	if err != nil {
		return nil, shared.WrapError("store", "Snapshot", shared.ErrInvalidDocument, "serializing collection", err)
	}
	out := []map[string]any{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, shared.WrapError("store", "Snapshot", shared.ErrInvalidDocument, "reshaping collection", err)
	}
	return out, nil
}

// Query returns the records of a collection matching every filter: a scalar
// filter value must equal the record's field, a list filter value must
// contain it. Nil filter values are skipped. An empty filter map returns the
// full collection.
func (s *Store) Query(collection string, filters map[string]any) ([]map[string]any, error) {
	records, err := s.Snapshot(collection)
	if err != nil {
		return nil, err
	}
	if len(filters) == 0 {
		return records, nil
	}

	out := []map[string]any{}
	for _, rec := range records {
		if matchesFilters(rec, filters) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func matchesFilters(rec map[string]any, filters map[string]any) bool {
	for key, want := range filters {
		if want == nil {
			continue
		}
		got, ok := rec[key]
		if !ok {
			return false
		}
		if !matchesValue(got, want) {
			return false
		}
	}
	return true
}

func matchesValue(got, want any) bool {
	want = jsonNormalize(want)
	if set, ok := want.([]any); ok {
		for _, candidate := range set {
			if reflect.DeepEqual(got, candidate) {
				return true
			}
		}
		return false
	}
	return reflect.DeepEqual(got, want)
}

// jsonNormalize round-trips a value through JSON so typed filter values
// (ints, custom string types, slices) compare against the generic snapshot
// representation.
func jsonNormalize(v any) any {
	data, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return v
	}
	return out
}
