package docstore

import (
	"encoding/json"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/edudash-hub/edudash-engine/internal/domain/shared"
)

// documentSchema is the structural contract a restored backup must satisfy:
// a meta header and, where present, array-shaped collections and an
// object-shaped settings block. Field-level validation stays with the domain
// types; this only rejects documents the store could not load at all.
const documentSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["meta"],
  "properties": {
    "meta": {
      "type": "object",
      "required": ["schemaVersion", "createdAt"],
      "properties": {
        "schemaVersion": {"type": "string"},
        "createdAt": {"type": "string"},
        "lastBackupAt": {"type": ["string", "null"]}
      }
    },
    "users": {"type": "array", "items": {"type": "object"}},
    "classes": {"type": "array", "items": {"type": "object"}},
    "lessons": {"type": "array", "items": {"type": "object"}},
    "assignments": {"type": "array", "items": {"type": "object"}},
    "progressEvents": {"type": "array", "items": {"type": "object"}},
    "settings": {"type": "object"}
  }
}`

var compiledDocumentSchema = jsonschema.MustCompileString("document.schema.json", documentSchema)

// validateDocumentBytes checks that raw bytes are parseable JSON satisfying
// the document schema. Failures map to ErrInvalidDocument.
func validateDocumentBytes(data []byte) error {
	var instance any
	if err := json.Unmarshal(data, &instance); err != nil {
		return shared.WrapError("store", "Import", shared.ErrInvalidDocument, "unparsable JSON", err)
	}
	if err := compiledDocumentSchema.Validate(instance); err != nil {
		return shared.WrapError("store", "Import", shared.ErrInvalidDocument, "document failed schema validation", err)
	}
	return nil
}
