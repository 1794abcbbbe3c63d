package binding

import (
	"github.com/spaghettifunk/anima-hal/engine/core"
	"github.com/spaghettifunk/anima-hal/engine/renderer/metadata"
)

// CacheContentType tells what a resource cache stores.
type CacheContentType uint8

const (
	// Static resources of a single shader, indexed by range type and bind point.
	CacheContentTypeStatic CacheContentType = iota
	// All resources of a shader resource binding object, laid out by the root signature.
	CacheContentTypeSRB
)

// CachedResource is one slot of a root table.
type CachedResource struct {
	Object              metadata.DeviceObject
	Type                metadata.CachedResourceType
	CPUDescriptorHandle metadata.DescriptorHandle
}

func (r *CachedResource) IsNull() bool {
	return r.Object == nil
}

func (r *CachedResource) Reset() {
	*r = CachedResource{}
}

// RootTable is a fixed sequence of cache slots. When the table has
// shader-visible space, every slot maps to a descriptor of that space.
type RootTable struct {
	resources     []CachedResource
	shaderVisible DescriptorHeapAllocation

	debugAttribsSet bool
	heapType        metadata.DescriptorHeapType
	shaderType      metadata.ShaderType
}

func (t *RootTable) GetSize() uint32 {
	return uint32(len(t.resources))
}

// SetDebugAttribs records the heap and stage the table was laid out for, so
// that mismatched lookups are caught.
func (t *RootTable) SetDebugAttribs(heapType metadata.DescriptorHeapType, shaderType metadata.ShaderType) {
	t.debugAttribsSet = true
	t.heapType = heapType
	t.shaderType = shaderType
}

// GetResource returns the slot at offset. Out-of-range access is fatal.
func (t *RootTable) GetResource(offset uint32, heapType metadata.DescriptorHeapType, shaderType metadata.ShaderType) *CachedResource {
	core.Verify(offset < uint32(len(t.resources)), "root table offset %d is out of range (table size is %d)", offset, len(t.resources))
	if t.debugAttribsSet {
		core.Verify(t.heapType == heapType, "unexpected descriptor heap type: %s table accessed as %s", t.heapType, heapType)
		core.Verify(t.shaderType == shaderType, "unexpected shader type: %s table accessed from %s shader", t.shaderType, shaderType)
	}
	return &t.resources[offset]
}

// IsShaderVisible reports whether the table was given shader-visible space.
func (t *RootTable) IsShaderVisible() bool {
	return !t.shaderVisible.IsNull()
}

// ResourceCache mirrors the descriptors bound to a set of root tables.
type ResourceCache struct {
	contentType CacheContentType
	tables      []RootTable
	initialized bool
}

func NewResourceCache(contentType CacheContentType) *ResourceCache {
	return &ResourceCache{
		contentType: contentType,
	}
}

// Initialize creates one table per entry of tableSizes. It must be called
// exactly once, before any slot is accessed.
func (c *ResourceCache) Initialize(tableSizes []uint32) {
	core.Verify(!c.initialized, "resource cache is already initialized")
	c.tables = make([]RootTable, len(tableSizes))
	for i, size := range tableSizes {
		c.tables[i].resources = make([]CachedResource, size)
	}
	c.initialized = true
}

func (c *ResourceCache) IsInitialized() bool {
	return c.initialized
}

func (c *ResourceCache) GetContentType() CacheContentType {
	return c.contentType
}

func (c *ResourceCache) GetNumRootTables() uint32 {
	return uint32(len(c.tables))
}

// GetRootTable returns table i. Out-of-range access is fatal.
func (c *ResourceCache) GetRootTable(i uint32) *RootTable {
	core.Verify(c.initialized, "resource cache is not initialized")
	core.Verify(i < uint32(len(c.tables)), "root table index %d is out of range (%d tables)", i, len(c.tables))
	return &c.tables[i]
}

// SetShaderVisibleSpace assigns shader-visible heap space to a table.
func (c *ResourceCache) SetShaderVisibleSpace(rootIndex uint32, alloc DescriptorHeapAllocation) {
	core.Verify(c.contentType != CacheContentTypeStatic, "static resource caches are never shader visible")
	t := c.GetRootTable(rootIndex)
	core.Verify(t.shaderVisible.IsNull(), "root table %d already has shader-visible space", rootIndex)
	core.Verify(alloc.GetNumHandles() >= t.GetSize(), "shader-visible space for root table %d is too small: %d < %d", rootIndex, alloc.GetNumHandles(), t.GetSize())
	t.shaderVisible = alloc
}

// GetShaderVisibleTableCPUDescriptorHandle returns the shader-visible
// descriptor for (rootIndex, offset), or the null handle when the table has
// no shader-visible space.
func (c *ResourceCache) GetShaderVisibleTableCPUDescriptorHandle(heapType metadata.DescriptorHeapType, rootIndex, offset uint32) metadata.DescriptorHandle {
	t := c.GetRootTable(rootIndex)
	if t.shaderVisible.IsNull() {
		return 0
	}
	core.Verify(t.shaderVisible.GetHeap().GetHeapType() == heapType, "root table %d lives in the %s heap, not in the %s heap", rootIndex, t.shaderVisible.GetHeap().GetHeapType(), heapType)
	core.Verify(offset < t.GetSize(), "root table offset %d is out of range (table size is %d)", offset, t.GetSize())
	return t.shaderVisible.GetHandle(offset)
}

// CopyToShaderVisible mirrors src into the shader-visible slot of
// (rootIndex, offset). It returns false when the table is not shader visible
// or the slot already holds src.
func (c *ResourceCache) CopyToShaderVisible(heapType metadata.DescriptorHeapType, rootIndex, offset uint32, src metadata.DescriptorHandle) bool {
	dst := c.GetShaderVisibleTableCPUDescriptorHandle(heapType, rootIndex, offset)
	if dst.IsNull() || src.IsNull() {
		return false
	}
	heap := c.tables[rootIndex].shaderVisible.GetHeap()
	if heap.GetDescriptor(dst) == src {
		core.MetricsCopySkipped()
		return false
	}
	heap.CopyDescriptorsSimple(dst, src)
	core.MetricsDescriptorCopied()
	return true
}

// ClearShaderVisible writes the null descriptor into the shader-visible slot
// of (rootIndex, offset). It returns false when the table is not shader
// visible or the slot is already null.
func (c *ResourceCache) ClearShaderVisible(heapType metadata.DescriptorHeapType, rootIndex, offset uint32) bool {
	dst := c.GetShaderVisibleTableCPUDescriptorHandle(heapType, rootIndex, offset)
	if dst.IsNull() {
		return false
	}
	heap := c.tables[rootIndex].shaderVisible.GetHeap()
	if heap.GetDescriptor(dst).IsNull() {
		return false
	}
	heap.CopyDescriptorsSimple(dst, 0)
	return true
}

// Release returns the shader-visible space of every table to its heap.
func (c *ResourceCache) Release() {
	for i := range c.tables {
		t := &c.tables[i]
		if !t.shaderVisible.IsNull() {
			t.shaderVisible.GetHeap().Free(t.shaderVisible)
			t.shaderVisible = DescriptorHeapAllocation{}
		}
	}
}
