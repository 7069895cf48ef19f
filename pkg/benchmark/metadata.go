package benchmark

import (
	"encoding/json"
	"sort"
)

// Metadata is the string map describing a run. Entries are only added or
// overwritten, never removed.
type Metadata struct {
	values map[string]string
}

// NewMetadata returns empty Metadata.
func NewMetadata() *Metadata {
	return &Metadata{values: map[string]string{}}
}

// Set stores value under key.
func (m *Metadata) Set(key, value string) {
	m.values[key] = value
}

// Merge stores all entries of values.
func (m *Metadata) Merge(values map[string]string) {
	for key, value := range values {
		m.values[key] = value
	}
}

// Get returns the value stored under key.
func (m *Metadata) Get(key string) (string, bool) {
	value, ok := m.values[key]
	return value, ok
}

// Keys returns the stored keys in sorted order.
func (m *Metadata) Keys() []string {
	keys := make([]string, 0, len(m.values))
	for key := range m.values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Map returns a copy of the entries.
func (m *Metadata) Map() map[string]string {
	values := make(map[string]string, len(m.values))
	for key, value := range m.values {
		values[key] = value
	}
	return values
}

// MarshalJSON encodes the entries as a JSON object.
func (m *Metadata) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.values)
}
