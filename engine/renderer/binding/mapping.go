package binding

import (
	"sync"

	"github.com/spaghettifunk/anima-hal/engine/renderer/metadata"
)

// ResourceMapping resolves shader variable names to device objects.
type ResourceMapping interface {
	// GetResource returns the object for element arrayIndex of name, or nil.
	GetResource(name string, arrayIndex uint32) metadata.DeviceObject
}

type resourceMappingKey struct {
	name       string
	arrayIndex uint32
}

// ResourceMappingTable is a ResourceMapping backed by a map. It is safe for
// concurrent use.
type ResourceMappingTable struct {
	mu      sync.RWMutex
	entries map[resourceMappingKey]metadata.DeviceObject
}

func NewResourceMappingTable() *ResourceMappingTable {
	return &ResourceMappingTable{
		entries: make(map[resourceMappingKey]metadata.DeviceObject),
	}
}

// AddResource maps name to obj, replacing any previous entry.
func (m *ResourceMappingTable) AddResource(name string, obj metadata.DeviceObject) {
	m.AddResourceArray(name, 0, []metadata.DeviceObject{obj})
}

// AddResourceArray maps elements [startIndex, startIndex+len(objs)) of name.
func (m *ResourceMappingTable) AddResourceArray(name string, startIndex uint32, objs []metadata.DeviceObject) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, obj := range objs {
		m.entries[resourceMappingKey{name: name, arrayIndex: startIndex + uint32(i)}] = obj
	}
}

// RemoveResourceByName removes element arrayIndex of name.
func (m *ResourceMappingTable) RemoveResourceByName(name string, arrayIndex uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, resourceMappingKey{name: name, arrayIndex: arrayIndex})
}

func (m *ResourceMappingTable) GetResource(name string, arrayIndex uint32) metadata.DeviceObject {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.entries[resourceMappingKey{name: name, arrayIndex: arrayIndex}]
}

// GetSize returns the number of mapped elements.
func (m *ResourceMappingTable) GetSize() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
