package docstore

import "sync"

// Medium is the persistence backend the store writes the serialized document
// through. Implementations must make Store atomic with respect to process
// crashes: a reader never observes a partially written document.
type Medium interface {
	// Load returns the persisted document bytes, or (nil, nil) when nothing
	// has been stored yet.
	Load() ([]byte, error)

	// Store durably replaces the persisted document.
	Store(data []byte) error
}

// MemoryMedium keeps the document in memory. For tests and ephemeral runs.
type MemoryMedium struct {
	mu   sync.Mutex
	data []byte
}

// NewMemoryMedium returns an empty in-memory medium.
func NewMemoryMedium() *MemoryMedium {
	return &MemoryMedium{}
}

// Load implements Medium.
func (m *MemoryMedium) Load() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return nil, nil
	}
	out := make([]byte, len(m.data))
	copy(out, m.data)
	return out, nil
}

// Store implements Medium.
func (m *MemoryMedium) Store(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make([]byte, len(data))
	copy(m.data, data)
	return nil
}
