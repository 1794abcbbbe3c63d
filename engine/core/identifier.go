package core

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// NewObjectID returns a fresh identity for a device object.
func NewObjectID() uuid.UUID {
	return uuid.New()
}

// DefaultObjectName builds a readable name for objects created without one.
func DefaultObjectName(kind string, id uuid.UUID) string {
	return fmt.Sprintf("%s %s", kind, id.String()[:8])
}

// IdentifierPool hands out small integer ids, reusing released slots first.
type IdentifierPool struct {
	mu     sync.Mutex
	owners []interface{}
}

func NewIdentifierPool(initialSize int) *IdentifierPool {
	if initialSize < 1 {
		initialSize = 1
	}
	return &IdentifierPool{
		owners: make([]interface{}, 0, initialSize),
	}
}

func (p *IdentifierPool) AquireNewID(owner interface{}) uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()

	length := uint32(len(p.owners))
	for i := uint32(0); i < length; i++ {
		// Existing free spot. Take it.
		if p.owners[i] == nil {
			p.owners[i] = owner
			return i
		}
	}

	// If here, no existing free slots. Need a new id, so push one.
	p.owners = append(p.owners, owner)
	return uint32(len(p.owners)) - 1
}

func (p *IdentifierPool) ReleaseID(id uint32) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	length := uint32(len(p.owners))
	if id >= length {
		return fmt.Errorf("identifier release: id '%d' out of range (max=%d). Nothing was done", id, length)
	}
	if p.owners[id] == nil {
		return fmt.Errorf("identifier release: id '%d' is not in use. Nothing was done", id)
	}

	// Just zero out the entry, making it available for use.
	p.owners[id] = nil
	return nil
}

func (p *IdentifierPool) Owner(id uint32) interface{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	if id >= uint32(len(p.owners)) {
		return nil
	}
	return p.owners[id]
}
