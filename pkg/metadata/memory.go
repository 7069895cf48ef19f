package metadata

import (
	"sync"

	"github.com/pkg/errors"
)

// Memory keeps metadata of a run in process memory.
type Memory struct {
	runID string

	mutex sync.Mutex
	kinds map[string]map[string]string
}

// NewMemory returns an empty in-memory backend.
func NewMemory(runID string) *Memory {
	return &Memory{
		runID: runID,
		kinds: map[string]map[string]string{},
	}
}

// Record stores a key and value under kind.
func (m *Memory) Record(key, value, kind string) error {
	return m.RecordMap(map[string]string{key: value}, kind)
}

// RecordMap stores all entries under kind, overwriting existing keys.
func (m *Memory) RecordMap(metadata map[string]string, kind string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	stored, ok := m.kinds[kind]
	if !ok {
		stored = map[string]string{}
		m.kinds[kind] = stored
	}
	for key, value := range metadata {
		stored[key] = value
	}
	return nil
}

// GetByKind returns a copy of metadata stored under kind.
func (m *Memory) GetByKind(kind string) (map[string]string, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	stored, ok := m.kinds[kind]
	if !ok {
		return nil, errors.Errorf("no metadata of kind %q for run %q", kind, m.runID)
	}
	metadata := make(map[string]string, len(stored))
	for key, value := range stored {
		metadata[key] = value
	}
	return metadata, nil
}

// Clear removes all stored metadata.
func (m *Memory) Clear() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.kinds = map[string]map[string]string{}
	return nil
}
