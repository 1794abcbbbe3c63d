package binding

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"

	"github.com/spaghettifunk/anima-hal/engine/core"
	"github.com/spaghettifunk/anima-hal/engine/renderer/metadata"
)

// InvalidRootIndex marks a binding that has not been placed.
const InvalidRootIndex = ^uint32(0)

// DescriptorRange is one resource placed in a root table.
type DescriptorRange struct {
	RangeType            metadata.DescriptorRangeType
	ResourceType         metadata.CachedResourceType
	Name                 string
	BindPoint            uint32
	Count                uint32
	OffsetFromTableStart uint32
}

// RootTableDesc describes one table of a root signature.
type RootTableDesc struct {
	RootIndex  uint32
	ShaderType metadata.ShaderType
	HeapType   metadata.DescriptorHeapType
	// Dynamic tables get shader-visible space per draw instead of per binding object.
	Dynamic        bool
	Ranges         []DescriptorRange
	NumDescriptors uint32
}

// ImmutableSampler is a sampler compiled into the root signature.
type ImmutableSampler struct {
	ShaderType  metadata.ShaderType
	TextureName string
	SamplerName string
	BindPoint   uint32
	BindCount   uint32
	Desc        metadata.SamplerDesc
}

type rootTableKey struct {
	shaderType metadata.ShaderType
	dynamic    bool
	heapType   metadata.DescriptorHeapType
}

// RootSignature hands out (root index, offset) pairs for shader resources.
// Static and mutable resources of a stage share a table per heap type;
// dynamic resources get their own. Allocation mutates shared counters and
// must not run concurrently.
type RootSignature struct {
	maxRootIndex uint32
	tables       []RootTableDesc
	lookup       map[rootTableKey]int
	samplers     []ImmutableSampler
	finalized    bool
	hash         uint64
}

func NewRootSignature(maxRootIndex uint32) *RootSignature {
	return &RootSignature{
		maxRootIndex: maxRootIndex,
		lookup:       make(map[rootTableKey]int),
	}
}

// AllocateResourceSlot places attribs in the table for its stage, variable
// type and heap type. Offsets within a table strictly increase.
func (rs *RootSignature) AllocateResourceSlot(shaderType metadata.ShaderType, attribs *ShaderResourceAttribs, resType metadata.CachedResourceType) (rootIndex uint32, offset uint32) {
	core.Verify(!rs.finalized, "root signature is finalized; resource '%s' cannot be allocated", attribs.Name)
	rangeType := metadata.DescriptorRangeTypeOf(resType)

	key := rootTableKey{
		shaderType: shaderType,
		dynamic:    attribs.VariableType == metadata.ShaderVariableTypeDynamic,
		heapType:   metadata.HeapTypeOf(rangeType),
	}
	idx, ok := rs.lookup[key]
	if !ok {
		newIndex := uint32(len(rs.tables))
		core.Verify(newIndex <= rs.maxRootIndex, "root index %d required by resource '%s' exceeds the maximum root index %d", newIndex, attribs.Name, rs.maxRootIndex)
		rs.tables = append(rs.tables, RootTableDesc{
			RootIndex:  newIndex,
			ShaderType: shaderType,
			HeapType:   key.heapType,
			Dynamic:    key.dynamic,
		})
		idx = len(rs.tables) - 1
		rs.lookup[key] = idx
	}

	t := &rs.tables[idx]
	offset = t.NumDescriptors
	t.Ranges = append(t.Ranges, DescriptorRange{
		RangeType:            rangeType,
		ResourceType:         resType,
		Name:                 attribs.Name,
		BindPoint:            attribs.BindPoint,
		Count:                attribs.BindCount,
		OffsetFromTableStart: offset,
	})
	t.NumDescriptors += attribs.BindCount
	return t.RootIndex, offset
}

// RegisterImmutableSampler records the static sampler of a texture. A second
// registration for the same stage and sampler is ignored.
func (rs *RootSignature) RegisterImmutableSampler(shaderType metadata.ShaderType, textureName string, samplerAttribs *ShaderResourceAttribs) {
	core.Verify(!rs.finalized, "root signature is finalized; static sampler '%s' cannot be registered", samplerAttribs.Name)
	core.Verify(samplerAttribs.IsStaticSampler(), "sampler '%s' is not static", samplerAttribs.Name)
	for _, s := range rs.samplers {
		if s.ShaderType == shaderType && s.SamplerName == samplerAttribs.Name {
			return
		}
	}
	rs.samplers = append(rs.samplers, ImmutableSampler{
		ShaderType:  shaderType,
		TextureName: textureName,
		SamplerName: samplerAttribs.Name,
		BindPoint:   samplerAttribs.BindPoint,
		BindCount:   samplerAttribs.BindCount,
		Desc:        samplerAttribs.GetStaticSamplerDesc(),
	})
}

// Finalize freezes the signature and computes its hash.
func (rs *RootSignature) Finalize() {
	core.Verify(!rs.finalized, "root signature is already finalized")
	rs.finalized = true
	rs.hash = rs.computeHash()
}

func (rs *RootSignature) IsFinalized() bool {
	return rs.finalized
}

func (rs *RootSignature) GetNumRootTables() uint32 {
	return uint32(len(rs.tables))
}

func (rs *RootSignature) GetTables() []RootTableDesc {
	return rs.tables
}

func (rs *RootSignature) GetImmutableSamplers() []ImmutableSampler {
	return rs.samplers
}

func (rs *RootSignature) GetHash() uint64 {
	return rs.hash
}

// InitResourceCache lays out an SRB cache after the signature's tables and
// gives every static/mutable table shader-visible space.
func (rs *RootSignature) InitResourceCache(cache *ResourceCache, heaps ShaderVisibleHeaps) error {
	core.Verify(rs.finalized, "root signature must be finalized before initializing resource caches")
	core.Verify(cache.GetContentType() == CacheContentTypeSRB, "only SRB caches are laid out by a root signature")

	sizes := make([]uint32, len(rs.tables))
	for i := range rs.tables {
		sizes[i] = rs.tables[i].NumDescriptors
	}
	cache.Initialize(sizes)

	for i := range rs.tables {
		t := &rs.tables[i]
		cache.GetRootTable(t.RootIndex).SetDebugAttribs(t.HeapType, t.ShaderType)
		if t.Dynamic || t.NumDescriptors == 0 {
			continue
		}
		alloc, err := heaps.Get(t.HeapType).Allocate(t.NumDescriptors)
		if err != nil {
			cache.Release()
			return fmt.Errorf("failed to allocate shader-visible space for root table %d: %w", t.RootIndex, err)
		}
		cache.SetShaderVisibleSpace(t.RootIndex, alloc)
	}
	return nil
}

// CommitDynamicDescriptors allocates fresh shader-visible space for every
// dynamic table and copies the cached descriptors into it. The caller owns
// the returned allocations and frees them once the GPU is done with them.
func (rs *RootSignature) CommitDynamicDescriptors(cache *ResourceCache, heaps ShaderVisibleHeaps) ([]DescriptorHeapAllocation, error) {
	var allocs []DescriptorHeapAllocation
	for i := range rs.tables {
		t := &rs.tables[i]
		if !t.Dynamic || t.NumDescriptors == 0 {
			continue
		}
		heap := heaps.Get(t.HeapType)
		alloc, err := heap.Allocate(t.NumDescriptors)
		if err != nil {
			for _, a := range allocs {
				a.GetHeap().Free(a)
			}
			return nil, fmt.Errorf("failed to allocate dynamic descriptors for root table %d: %w", t.RootIndex, err)
		}
		table := cache.GetRootTable(t.RootIndex)
		for off := uint32(0); off < t.NumDescriptors; off++ {
			res := table.GetResource(off, t.HeapType, t.ShaderType)
			if res.CPUDescriptorHandle.IsNull() {
				continue
			}
			heap.CopyDescriptorsSimple(alloc.GetHandle(off), res.CPUDescriptorHandle)
			core.MetricsDescriptorCopied()
		}
		allocs = append(allocs, alloc)
	}
	return allocs, nil
}

func (rs *RootSignature) computeHash() uint64 {
	h := fnv.New64a()
	var buf [4]byte
	put := func(v uint32) {
		binary.LittleEndian.PutUint32(buf[:], v)
		h.Write(buf[:])
	}
	for i := range rs.tables {
		t := &rs.tables[i]
		put(t.RootIndex)
		put(uint32(t.ShaderType))
		put(uint32(t.HeapType))
		if t.Dynamic {
			put(1)
		} else {
			put(0)
		}
		for _, r := range t.Ranges {
			put(uint32(r.RangeType))
			put(uint32(r.ResourceType))
			put(r.BindPoint)
			put(r.Count)
			put(r.OffsetFromTableStart)
		}
	}
	for _, s := range rs.samplers {
		put(uint32(s.ShaderType))
		put(s.BindPoint)
		put(s.BindCount)
	}
	return h.Sum64()
}
