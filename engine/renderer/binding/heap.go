package binding

import (
	"fmt"
	"sort"
	"sync"

	"github.com/spaghettifunk/anima-hal/engine/core"
	"github.com/spaghettifunk/anima-hal/engine/renderer/metadata"
)

// shader-visible handles live far above CPU handles so the two never collide
const shaderVisibleHandleBase metadata.DescriptorHandle = 1 << 40

type heapRange struct {
	offset uint32
	count  uint32
}

// DescriptorHeap mirrors a shader-visible descriptor heap. Each slot records
// the CPU descriptor that was last copied into it.
type DescriptorHeap struct {
	mu       sync.Mutex
	heapType metadata.DescriptorHeapType
	base     metadata.DescriptorHandle
	slots    []metadata.DescriptorHandle
	// sorted by offset, never adjacent
	free      []heapRange
	allocated uint32
}

func NewDescriptorHeap(heapType metadata.DescriptorHeapType, capacity uint32) *DescriptorHeap {
	return &DescriptorHeap{
		heapType: heapType,
		base:     shaderVisibleHandleBase * metadata.DescriptorHandle(heapType+1),
		slots:    make([]metadata.DescriptorHandle, capacity),
		free:     []heapRange{{offset: 0, count: capacity}},
	}
}

func (h *DescriptorHeap) GetHeapType() metadata.DescriptorHeapType {
	return h.heapType
}

func (h *DescriptorHeap) GetCapacity() uint32 {
	return uint32(len(h.slots))
}

// GetNumAllocated returns the number of descriptors currently handed out.
func (h *DescriptorHeap) GetNumAllocated() uint32 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.allocated
}

// Allocate reserves count contiguous descriptors, first fit.
func (h *DescriptorHeap) Allocate(count uint32) (DescriptorHeapAllocation, error) {
	if count == 0 {
		return DescriptorHeapAllocation{}, nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for i := range h.free {
		r := &h.free[i]
		if r.count < count {
			continue
		}
		alloc := DescriptorHeapAllocation{heap: h, offset: r.offset, count: count}
		r.offset += count
		r.count -= count
		if r.count == 0 {
			h.free = append(h.free[:i], h.free[i+1:]...)
		}
		h.allocated += count
		return alloc, nil
	}
	return DescriptorHeapAllocation{}, fmt.Errorf("%s heap: %w: %d descriptors requested, %d of %d in use",
		h.heapType, core.ErrDescriptorHeapExhausted, count, h.allocated, len(h.slots))
}

// Free returns an allocation to the heap and clears its slots.
func (h *DescriptorHeap) Free(alloc DescriptorHeapAllocation) {
	if alloc.IsNull() {
		return
	}
	core.Verify(alloc.heap == h, "allocation does not belong to this %s heap", h.heapType)

	h.mu.Lock()
	defer h.mu.Unlock()

	idx := sort.Search(len(h.free), func(i int) bool { return h.free[i].offset >= alloc.offset })
	overlapsNext := idx < len(h.free) && h.free[idx].offset < alloc.offset+alloc.count
	overlapsPrev := idx > 0 && h.free[idx-1].offset+h.free[idx-1].count > alloc.offset
	core.Verify(!overlapsNext && !overlapsPrev, "double free of descriptors [%d, %d)", alloc.offset, alloc.offset+alloc.count)

	for i := alloc.offset; i < alloc.offset+alloc.count; i++ {
		h.slots[i] = 0
	}
	h.allocated -= alloc.count

	h.free = append(h.free, heapRange{})
	copy(h.free[idx+1:], h.free[idx:])
	h.free[idx] = heapRange{offset: alloc.offset, count: alloc.count}

	// merge with the next range, then with the previous one
	if idx+1 < len(h.free) && h.free[idx].offset+h.free[idx].count == h.free[idx+1].offset {
		h.free[idx].count += h.free[idx+1].count
		h.free = append(h.free[:idx+1], h.free[idx+2:]...)
	}
	if idx > 0 && h.free[idx-1].offset+h.free[idx-1].count == h.free[idx].offset {
		h.free[idx-1].count += h.free[idx].count
		h.free = append(h.free[:idx], h.free[idx+1:]...)
	}
}

func (h *DescriptorHeap) slotIndex(dst metadata.DescriptorHandle) uint32 {
	core.Verify(dst >= h.base && dst < h.base+metadata.DescriptorHandle(len(h.slots)),
		"descriptor handle %#x does not belong to this %s heap", uint64(dst), h.heapType)
	return uint32(dst - h.base)
}

// CopyDescriptorsSimple copies the CPU descriptor src into the shader-visible slot dst.
func (h *DescriptorHeap) CopyDescriptorsSimple(dst, src metadata.DescriptorHandle) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.slots[h.slotIndex(dst)] = src
}

// GetDescriptor returns the CPU descriptor mirrored in slot dst.
func (h *DescriptorHeap) GetDescriptor(dst metadata.DescriptorHandle) metadata.DescriptorHandle {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.slots[h.slotIndex(dst)]
}

// DescriptorHeapAllocation is a contiguous range of a DescriptorHeap. The zero
// value is the null allocation.
type DescriptorHeapAllocation struct {
	heap   *DescriptorHeap
	offset uint32
	count  uint32
}

func (a DescriptorHeapAllocation) IsNull() bool {
	return a.heap == nil || a.count == 0
}

func (a DescriptorHeapAllocation) GetHeap() *DescriptorHeap {
	return a.heap
}

func (a DescriptorHeapAllocation) GetNumHandles() uint32 {
	return a.count
}

// GetHandle returns the shader-visible handle of the descriptor at offset.
func (a DescriptorHeapAllocation) GetHandle(offset uint32) metadata.DescriptorHandle {
	core.Verify(!a.IsNull(), "null descriptor heap allocation")
	core.Verify(offset < a.count, "descriptor offset %d is out of range (%d)", offset, a.count)
	return a.heap.base + metadata.DescriptorHandle(a.offset+offset)
}

// ShaderVisibleHeaps groups the heaps that tables are allocated from.
type ShaderVisibleHeaps struct {
	CbvSrvUav *DescriptorHeap
	Sampler   *DescriptorHeap
}

func (h ShaderVisibleHeaps) Get(heapType metadata.DescriptorHeapType) *DescriptorHeap {
	if heapType == metadata.DescriptorHeapTypeSampler {
		return h.Sampler
	}
	return h.CbvSrvUav
}
