package shared

import "time"

// RecordMeta carries the fields every persisted record has: a store-assigned
// opaque id (unique within its collection, never reused) and creation/update
// timestamps. Domain entities embed it.
type RecordMeta struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Meta exposes the embedded metadata to the store.
func (m *RecordMeta) Meta() *RecordMeta { return m }

// Record is anything the store can persist.
type Record interface {
	Meta() *RecordMeta
}
