package binding

import (
	"github.com/spaghettifunk/anima-hal/engine/core"
	"github.com/spaghettifunk/anima-hal/engine/math"
	"github.com/spaghettifunk/anima-hal/engine/renderer/metadata"
)

const numVariableTypes = int(metadata.ShaderVariableTypeNumTypes)

// ResolvedBinding is the (root index, offset) assignment of a constant
// buffer, view or UAV. It never changes after the layout is built.
type ResolvedBinding struct {
	Attribs              *ShaderResourceAttribs
	ResType              metadata.CachedResourceType
	RootIndex            uint32
	OffsetFromTableStart uint32
	// Index of the paired sampler among the layout's samplers of the same
	// variable type, or InvalidSamplerID.
	SamplerID uint32
}

func (r *ResolvedBinding) IsValidRootIndex() bool {
	return r.RootIndex != InvalidRootIndex
}

func (r *ResolvedBinding) IsValidOffset() bool {
	return r.OffsetFromTableStart != InvalidRootIndex
}

func (r *ResolvedBinding) IsValidSampler() bool {
	return r.SamplerID != InvalidSamplerID
}

func (r *ResolvedBinding) GetVariableType() metadata.ShaderVariableType {
	return r.Attribs.VariableType
}

// ResolvedSampler is the (root index, offset) assignment of a sampler that is
// set through its texture.
type ResolvedSampler struct {
	Attribs              *ShaderResourceAttribs
	RootIndex            uint32
	OffsetFromTableStart uint32
}

// ShaderResourceLayout assigns every resource of a shader to a root table
// slot and binds objects into a resource cache through those assignments.
//
// A layout built with a resource cache owns that cache's layout (static
// mode: one table per range type, indexed by bind point). A layout built
// with a root signature only records assignments; it is cloned into SRB
// layouts that carry their own cache.
type ShaderResourceLayout struct {
	resources *ShaderResources
	cache     *ResourceCache

	// Arena of bindings. Variable type t occupies
	// bindings[bindingStart[t]:bindingStart[t+1]].
	bindings     []ResolvedBinding
	bindingStart [numVariableTypes + 1]uint32
	samplers     []ResolvedSampler
	samplerStart [numVariableTypes + 1]uint32

	variables     []ShaderVariable
	variableIndex map[string]uint32
}

func NewShaderResourceLayout() *ShaderResourceLayout {
	return &ShaderResourceLayout{}
}

func (l *ShaderResourceLayout) allocateMemory(numBindings, numSamplers [numVariableTypes]uint32) {
	for t := 0; t < numVariableTypes; t++ {
		l.bindingStart[t+1] = l.bindingStart[t] + numBindings[t]
		l.samplerStart[t+1] = l.samplerStart[t] + numSamplers[t]
	}
	l.bindings = make([]ResolvedBinding, l.bindingStart[numVariableTypes])
	l.samplers = make([]ResolvedSampler, l.samplerStart[numVariableTypes])
}

// Initialize builds the layout for the resources whose variable type is in
// allowed (empty means all). Exactly one of cache and rootSig must be set:
//   - with rootSig, slots come from the root signature and no cache is kept;
//   - with cache, four fixed tables indexed by range type are used, the offset
//     is the bind point, and the cache is initialized to fit.
func (l *ShaderResourceLayout) Initialize(resources *ShaderResources, allowed []metadata.ShaderVariableType, cache *ResourceCache, rootSig *RootSignature) {
	core.Verify((cache != nil) != (rootSig != nil), "exactly one of resource cache or root signature must be provided to initialize the layout of shader '%s'", resources.GetShaderName())
	core.Verify(l.resources == nil, "layout of shader '%s' is already initialized", resources.GetShaderName())

	l.resources = resources
	l.cache = cache
	shaderType := resources.GetShaderType()

	var numBindings, numSamplers [numVariableTypes]uint32
	countResource := func(attribs *ShaderResourceAttribs) {
		numBindings[attribs.VariableType]++
	}
	resources.ProcessResources(allowed, ResourceHandlers{
		OnCB: countResource,
		OnTexSRV: func(tex *ShaderResourceAttribs) {
			numBindings[tex.VariableType]++
			if !tex.IsValidSampler() {
				return
			}
			sam := resources.GetSampler(tex.GetSamplerID())
			core.Verify(sam.VariableType == tex.VariableType, "sampler '%s' is %s while texture '%s' is %s; they must have the same variable type",
				sam.Name, sam.VariableType, tex.Name, tex.VariableType)
			if !sam.IsStaticSampler() {
				numSamplers[sam.VariableType]++
			}
		},
		OnTexUAV: countResource,
		OnBufSRV: countResource,
		OnBufUAV: countResource,
	})

	l.allocateMemory(numBindings, numSamplers)

	var staticTableSizes [metadata.NumDescriptorRangeTypes]uint32
	place := func(attribs *ShaderResourceAttribs, resType metadata.CachedResourceType) (uint32, uint32) {
		if rootSig != nil {
			return rootSig.AllocateResourceSlot(shaderType, attribs, resType)
		}
		rangeType := metadata.DescriptorRangeTypeOf(resType)
		staticTableSizes[rangeType] = math.Max(staticTableSizes[rangeType], attribs.BindPoint+attribs.BindCount)
		return uint32(rangeType), attribs.BindPoint
	}

	var bindingCursor, samplerCursor [numVariableTypes]uint32
	addResource := func(attribs *ShaderResourceAttribs, resType metadata.CachedResourceType) {
		vt := attribs.VariableType
		samplerID := InvalidSamplerID

		// The sampler is placed before its texture.
		if resType == metadata.CachedResourceTypeTexSRV && attribs.IsValidSampler() {
			sam := resources.GetSampler(attribs.GetSamplerID())
			if sam.IsStaticSampler() {
				if rootSig != nil {
					rootSig.RegisterImmutableSampler(shaderType, attribs.Name, sam)
				}
			} else {
				rootIndex, offset := place(sam, metadata.CachedResourceTypeSampler)
				samplerID = samplerCursor[vt]
				l.samplers[l.samplerStart[vt]+samplerID] = ResolvedSampler{
					Attribs:              sam,
					RootIndex:            rootIndex,
					OffsetFromTableStart: offset,
				}
				samplerCursor[vt]++
			}
		}

		rootIndex, offset := place(attribs, resType)
		l.bindings[l.bindingStart[vt]+bindingCursor[vt]] = ResolvedBinding{
			Attribs:              attribs,
			ResType:              resType,
			RootIndex:            rootIndex,
			OffsetFromTableStart: offset,
			SamplerID:            samplerID,
		}
		bindingCursor[vt]++
	}

	resources.ProcessResources(allowed, ResourceHandlers{
		OnCB:     func(a *ShaderResourceAttribs) { addResource(a, metadata.CachedResourceTypeCBV) },
		OnTexSRV: func(a *ShaderResourceAttribs) { addResource(a, metadata.CachedResourceTypeTexSRV) },
		OnTexUAV: func(a *ShaderResourceAttribs) { addResource(a, metadata.CachedResourceTypeTexUAV) },
		OnBufSRV: func(a *ShaderResourceAttribs) { addResource(a, metadata.CachedResourceTypeBufSRV) },
		OnBufUAV: func(a *ShaderResourceAttribs) { addResource(a, metadata.CachedResourceTypeBufUAV) },
	})

	for t := 0; t < numVariableTypes; t++ {
		core.Verify(bindingCursor[t] == numBindings[t], "not all %s resources are initialized in shader '%s'", metadata.ShaderVariableType(t), resources.GetShaderName())
		core.Verify(samplerCursor[t] == numSamplers[t], "not all %s samplers are initialized in shader '%s'", metadata.ShaderVariableType(t), resources.GetShaderName())
	}

	if cache != nil {
		cache.Initialize(staticTableSizes[:])
		for rt := 0; rt < metadata.NumDescriptorRangeTypes; rt++ {
			rangeType := metadata.DescriptorRangeType(rt)
			cache.GetRootTable(uint32(rt)).SetDebugAttribs(metadata.HeapTypeOf(rangeType), shaderType)
		}
	}

	l.buildVariables()
}

// Clone builds a layout with the same table assignments as src for the
// allowed variable types, bound to a new cache. src must have been built
// against the root signature that laid out cache.
func (l *ShaderResourceLayout) Clone(src *ShaderResourceLayout, allowed []metadata.ShaderVariableType, cache *ResourceCache) {
	core.Verify(l.resources == nil, "layout of shader '%s' is already initialized", src.GetShaderName())
	core.Verify(cache != nil, "a resource cache is required to clone the layout of shader '%s'", src.GetShaderName())

	l.resources = src.resources
	l.cache = cache
	bits := metadata.ShaderVariableTypeBits(allowed)

	var numBindings, numSamplers [numVariableTypes]uint32
	for t := 0; t < numVariableTypes; t++ {
		vt := metadata.ShaderVariableType(t)
		if metadata.IsAllowedType(vt, bits) {
			numBindings[t] = src.GetCbvSrvUavCount(vt)
			numSamplers[t] = src.GetSamplerCount(vt)
		}
	}
	l.allocateMemory(numBindings, numSamplers)

	for t := 0; t < numVariableTypes; t++ {
		vt := metadata.ShaderVariableType(t)
		for i := uint32(0); i < numBindings[t]; i++ {
			res := src.GetSrvCbvUav(vt, i)
			core.Verify(res.IsValidRootIndex() && res.IsValidOffset(), "resource '%s' in shader '%s' has no valid root index or offset", res.Attribs.Name, src.GetShaderName())
			l.verifyFitsCache(res.Attribs, res.RootIndex, res.OffsetFromTableStart)
			if res.IsValidSampler() {
				sam := src.GetAssignedSampler(res)
				core.Verify(sam.Attribs.VariableType == res.Attribs.VariableType, "inconsistent variable types of texture '%s' and its sampler '%s'", res.Attribs.Name, sam.Attribs.Name)
				core.Verify(sam.Attribs.BindCount == res.Attribs.BindCount || sam.Attribs.BindCount == 1,
					"sampler '%s' has %d elements; texture '%s' has %d", sam.Attribs.Name, sam.Attribs.BindCount, res.Attribs.Name, res.Attribs.BindCount)
			}
			l.bindings[l.bindingStart[t]+i] = *res
		}
		for s := uint32(0); s < numSamplers[t]; s++ {
			sam := src.GetSampler(vt, s)
			core.Verify(sam.RootIndex != InvalidRootIndex, "sampler '%s' in shader '%s' has no valid root index", sam.Attribs.Name, src.GetShaderName())
			l.verifyFitsCache(sam.Attribs, sam.RootIndex, sam.OffsetFromTableStart)
			l.samplers[l.samplerStart[t]+s] = *sam
		}
	}

	l.buildVariables()
}

func (l *ShaderResourceLayout) verifyFitsCache(attribs *ShaderResourceAttribs, rootIndex, offset uint32) {
	core.Verify(rootIndex < l.cache.GetNumRootTables(), "root index %d of '%s' is not valid for the resource cache (%d tables)", rootIndex, attribs.Name, l.cache.GetNumRootTables())
	size := l.cache.GetRootTable(rootIndex).GetSize()
	core.Verify(offset+attribs.BindCount <= size, "'%s' at offset %d with %d elements does not fit root table %d (size %d)", attribs.Name, offset, attribs.BindCount, rootIndex, size)
}

// buildVariables creates the variable handles and the name lookup. When two
// resources share a name, the last one wins.
func (l *ShaderResourceLayout) buildVariables() {
	l.variables = make([]ShaderVariable, len(l.bindings))
	l.variableIndex = make(map[string]uint32, len(l.bindings))
	for i := range l.bindings {
		l.variables[i] = ShaderVariable{
			layout: l,
			res:    &l.bindings[i],
			index:  uint32(i),
		}
		l.variableIndex[l.bindings[i].Attribs.Name] = uint32(i)
	}
}

func (l *ShaderResourceLayout) GetResources() *ShaderResources {
	return l.resources
}

func (l *ShaderResourceLayout) GetResourceCache() *ResourceCache {
	return l.cache
}

func (l *ShaderResourceLayout) GetShaderName() string {
	if l.resources == nil {
		return "<uninitialized>"
	}
	return l.resources.GetShaderName()
}

func (l *ShaderResourceLayout) GetShaderType() metadata.ShaderType {
	return l.resources.GetShaderType()
}

func (l *ShaderResourceLayout) GetCbvSrvUavCount(vt metadata.ShaderVariableType) uint32 {
	return l.bindingStart[vt+1] - l.bindingStart[vt]
}

func (l *ShaderResourceLayout) GetSamplerCount(vt metadata.ShaderVariableType) uint32 {
	return l.samplerStart[vt+1] - l.samplerStart[vt]
}

func (l *ShaderResourceLayout) GetTotalResourceCount() uint32 {
	return uint32(len(l.bindings))
}

func (l *ShaderResourceLayout) GetTotalSamplerCount() uint32 {
	return uint32(len(l.samplers))
}

// GetSrvCbvUav returns binding i of variable type vt.
func (l *ShaderResourceLayout) GetSrvCbvUav(vt metadata.ShaderVariableType, i uint32) *ResolvedBinding {
	core.Verify(i < l.GetCbvSrvUavCount(vt), "%s resource index %d is out of range (%d)", vt, i, l.GetCbvSrvUavCount(vt))
	return &l.bindings[l.bindingStart[vt]+i]
}

// GetSampler returns sampler i of variable type vt.
func (l *ShaderResourceLayout) GetSampler(vt metadata.ShaderVariableType, i uint32) *ResolvedSampler {
	core.Verify(i < l.GetSamplerCount(vt), "%s sampler index %d is out of range (%d)", vt, i, l.GetSamplerCount(vt))
	return &l.samplers[l.samplerStart[vt]+i]
}

// GetAssignedSampler returns the sampler paired with a texture SRV.
func (l *ShaderResourceLayout) GetAssignedSampler(res *ResolvedBinding) *ResolvedSampler {
	core.Verify(res.IsValidSampler(), "texture '%s' has no sampler assigned", res.Attribs.Name)
	return l.GetSampler(res.Attribs.VariableType, res.SamplerID)
}
