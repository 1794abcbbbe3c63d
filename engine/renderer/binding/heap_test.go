package binding

import (
	"testing"

	"github.com/spaghettifunk/anima-hal/engine/core"
	"github.com/spaghettifunk/anima-hal/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescriptorHeapAllocateAndFree(t *testing.T) {
	assert := assert.New(t)
	heap := NewDescriptorHeap(metadata.DescriptorHeapTypeCbvSrvUav, 8)

	a, err := heap.Allocate(3)
	require.NoError(t, err)
	b, err := heap.Allocate(5)
	require.NoError(t, err)
	assert.Equal(uint32(8), heap.GetNumAllocated())
	assert.Equal(a.GetHandle(2)+1, b.GetHandle(0))

	_, err = heap.Allocate(1)
	assert.ErrorIs(err, core.ErrDescriptorHeapExhausted)

	heap.Free(a)
	heap.Free(b)
	assert.Equal(uint32(0), heap.GetNumAllocated())

	// Both ranges merged back into one.
	c, err := heap.Allocate(8)
	require.NoError(t, err)
	assert.Equal(uint32(8), c.GetNumHandles())
}

func TestDescriptorHeapMergesOutOfOrderFrees(t *testing.T) {
	heap := NewDescriptorHeap(metadata.DescriptorHeapTypeSampler, 6)
	var allocs []DescriptorHeapAllocation
	for i := 0; i < 3; i++ {
		a, err := heap.Allocate(2)
		require.NoError(t, err)
		allocs = append(allocs, a)
	}

	heap.Free(allocs[2])
	heap.Free(allocs[0])
	heap.Free(allocs[1])

	_, err := heap.Allocate(6)
	assert.NoError(t, err)
}

func TestDescriptorHeapZeroAllocationIsNull(t *testing.T) {
	heap := NewDescriptorHeap(metadata.DescriptorHeapTypeCbvSrvUav, 4)
	a, err := heap.Allocate(0)
	require.NoError(t, err)
	assert.True(t, a.IsNull())
	assert.Equal(t, uint32(0), heap.GetNumAllocated())
	heap.Free(a)
}

func TestDescriptorHeapCopy(t *testing.T) {
	assert := assert.New(t)
	heap := NewDescriptorHeap(metadata.DescriptorHeapTypeCbvSrvUav, 4)
	a, err := heap.Allocate(2)
	require.NoError(t, err)

	src := nextHandle()
	heap.CopyDescriptorsSimple(a.GetHandle(1), src)
	assert.Equal(src, heap.GetDescriptor(a.GetHandle(1)))
	assert.True(heap.GetDescriptor(a.GetHandle(0)).IsNull())

	// Freed slots are cleared.
	heap.Free(a)
	b, err := heap.Allocate(2)
	require.NoError(t, err)
	assert.True(heap.GetDescriptor(b.GetHandle(1)).IsNull())
}

func TestDescriptorHeapMisuseIsFatal(t *testing.T) {
	captureLogs(t)
	heap := NewDescriptorHeap(metadata.DescriptorHeapTypeCbvSrvUav, 4)
	other := NewDescriptorHeap(metadata.DescriptorHeapTypeSampler, 4)

	a, err := heap.Allocate(2)
	require.NoError(t, err)

	assert.Panics(t, func() { other.Free(a) })
	assert.Panics(t, func() { a.GetHandle(2) })
	assert.Panics(t, func() { other.CopyDescriptorsSimple(a.GetHandle(0), nextHandle()) })

	heap.Free(a)
	assert.Panics(t, func() { heap.Free(a) })
	assert.Equal(t, uint32(0), heap.GetNumAllocated())
}

func TestShaderVisibleHeapsGet(t *testing.T) {
	heaps := newTestHeaps()
	assert.Same(t, heaps.Sampler, heaps.Get(metadata.DescriptorHeapTypeSampler))
	assert.Same(t, heaps.CbvSrvUav, heaps.Get(metadata.DescriptorHeapTypeCbvSrvUav))
}
