package binding

import (
	"github.com/spaghettifunk/anima-hal/engine/core"
	"github.com/spaghettifunk/anima-hal/engine/renderer/metadata"
)

// isNilObject also catches typed nil pointers stored in the interface.
func isNilObject(obj metadata.DeviceObject) bool {
	switch o := obj.(type) {
	case nil:
		return true
	case *metadata.Buffer:
		return o == nil
	case *metadata.BufferView:
		return o == nil
	case *metadata.TextureView:
		return o == nil
	case *metadata.Texture:
		return o == nil
	case *metadata.Sampler:
		return o == nil
	}
	return false
}

func (l *ShaderResourceLayout) cachedResource(res *ResolvedBinding, arrayIndex uint32) *CachedResource {
	core.Verify(l.cache != nil, "layout of shader '%s' has no resource cache", l.GetShaderName())
	core.Verify(arrayIndex < res.Attribs.BindCount, "array index %d is out of range for '%s' (%d elements)", arrayIndex, res.Attribs.Name, res.Attribs.BindCount)
	heapType := metadata.HeapTypeOf(metadata.DescriptorRangeTypeOf(res.ResType))
	return l.cache.GetRootTable(res.RootIndex).GetResource(res.OffsetFromTableStart+arrayIndex, heapType, l.GetShaderType())
}

func (l *ShaderResourceLayout) cachedSampler(sam *ResolvedSampler, arrayIndex uint32) *CachedResource {
	core.Verify(l.cache != nil, "layout of shader '%s' has no resource cache", l.GetShaderName())
	core.Verify(arrayIndex < sam.Attribs.BindCount, "array index %d is out of range for sampler '%s' (%d elements)", arrayIndex, sam.Attribs.Name, sam.Attribs.BindCount)
	return l.cache.GetRootTable(sam.RootIndex).GetResource(sam.OffsetFromTableStart+arrayIndex, metadata.DescriptorHeapTypeSampler, l.GetShaderType())
}

// samplerArrayIndex maps a texture element to its sampler element. A single
// sampler is shared by every element of a texture array.
func samplerArrayIndex(sam *ResolvedSampler, textureArrayIndex uint32) uint32 {
	if sam.Attribs.BindCount > 1 {
		return textureArrayIndex
	}
	return 0
}

func (l *ShaderResourceLayout) resolutionError(res *ResolvedBinding, arrayIndex uint32, reason string, args ...interface{}) {
	core.LogError("Failed to bind resource to shader variable '%s' in shader '%s': "+reason,
		append([]interface{}{res.Attribs.GetPrintName(arrayIndex), l.GetShaderName()}, args...)...)
	core.MetricsResolutionFailure()
}

// checkRebind reports an attempt to replace a bound non-dynamic resource.
// The new object is bound regardless.
func (l *ShaderResourceLayout) checkRebind(attribs *ShaderResourceAttribs, arrayIndex uint32, dst *CachedResource, obj metadata.DeviceObject, what string) {
	if attribs.VariableType == metadata.ShaderVariableTypeDynamic || dst.IsNull() || dst.Object == obj {
		return
	}
	core.LogError("Non-null %s is already bound to %s shader variable '%s' in shader '%s'. Attempting to bind another resource is an error and may cause unpredicted behavior. Use another shader resource binding instance or label the variable as dynamic.",
		what, attribs.VariableType, attribs.GetPrintName(arrayIndex), l.GetShaderName())
	core.MetricsDisciplineWarning()
}

// BindResource binds obj to element arrayIndex of res. A nil obj unbinds the
// slot. Type mismatches leave the slot untouched.
func (l *ShaderResourceLayout) BindResource(res *ResolvedBinding, arrayIndex uint32, obj metadata.DeviceObject) {
	dst := l.cachedResource(res, arrayIndex)

	if isNilObject(obj) {
		if !dst.IsNull() && res.Attribs.VariableType != metadata.ShaderVariableTypeDynamic {
			core.LogWarn("Shader variable '%s' in shader '%s' is not dynamic but is being unbound. This is an error and may cause unpredicted behavior. Use another shader resource binding instance or label the variable as dynamic if you need to bind another resource.",
				res.Attribs.GetPrintName(arrayIndex), l.GetShaderName())
			core.MetricsDisciplineWarning()
		}
		l.resetBinding(res, arrayIndex)
		return
	}

	switch res.ResType {
	case metadata.CachedResourceTypeCBV:
		l.cacheCB(res, arrayIndex, dst, obj)
	case metadata.CachedResourceTypeTexSRV, metadata.CachedResourceTypeTexUAV:
		l.cacheTextureView(res, arrayIndex, dst, obj)
	case metadata.CachedResourceTypeBufSRV, metadata.CachedResourceTypeBufUAV:
		l.cacheBufferView(res, arrayIndex, dst, obj)
	default:
		core.Unexpected("unknown resource type %d of shader variable '%s'", res.ResType, res.Attribs.Name)
	}
}

// resetBinding clears a slot and its paired sampler, along with their
// shader-visible descriptors.
func (l *ShaderResourceLayout) resetBinding(res *ResolvedBinding, arrayIndex uint32) {
	l.cachedResource(res, arrayIndex).Reset()
	l.cache.ClearShaderVisible(metadata.DescriptorHeapTypeCbvSrvUav, res.RootIndex, res.OffsetFromTableStart+arrayIndex)
	if res.IsValidSampler() {
		sam := l.GetAssignedSampler(res)
		samIndex := samplerArrayIndex(sam, arrayIndex)
		l.cachedSampler(sam, samIndex).Reset()
		l.cache.ClearShaderVisible(metadata.DescriptorHeapTypeSampler, sam.RootIndex, sam.OffsetFromTableStart+samIndex)
	}
}

func (l *ShaderResourceLayout) cacheCB(res *ResolvedBinding, arrayIndex uint32, dst *CachedResource, obj metadata.DeviceObject) {
	buf, ok := obj.(*metadata.Buffer)
	if !ok {
		l.resolutionError(res, arrayIndex, "incorrect resource type: buffer is expected")
		return
	}
	if !buf.IsConstantBuffer() {
		l.resolutionError(res, arrayIndex, "buffer '%s' was not created with the uniform usage flag", buf.GetName())
		return
	}
	l.checkRebind(res.Attribs, arrayIndex, dst, obj, "constant buffer")

	dst.Type = res.ResType
	dst.Object = buf
	dst.CPUDescriptorHandle = buf.CBVHandle()
	// Dynamic buffers have no descriptor to copy.
	l.cache.CopyToShaderVisible(metadata.DescriptorHeapTypeCbvSrvUav, res.RootIndex, res.OffsetFromTableStart+arrayIndex, dst.CPUDescriptorHandle)
}

func (l *ShaderResourceLayout) cacheTextureView(res *ResolvedBinding, arrayIndex uint32, dst *CachedResource, obj metadata.DeviceObject) {
	view, ok := obj.(*metadata.TextureView)
	if !ok {
		l.resolutionError(res, arrayIndex, "incorrect resource type: texture view is expected")
		return
	}
	expected := metadata.TextureViewTypeShaderResource
	if res.ResType == metadata.CachedResourceTypeTexUAV {
		expected = metadata.TextureViewTypeUnorderedAccess
	}
	if view.Desc.ViewType != expected {
		l.resolutionError(res, arrayIndex, "incorrect view type of texture view '%s': %s is expected, %s provided", view.GetName(), expected, view.Desc.ViewType)
		return
	}
	l.checkRebind(res.Attribs, arrayIndex, dst, obj, "texture view")

	dst.Type = res.ResType
	dst.Object = view
	dst.CPUDescriptorHandle = view.GetCPUDescriptorHandle()
	l.cache.CopyToShaderVisible(metadata.DescriptorHeapTypeCbvSrvUav, res.RootIndex, res.OffsetFromTableStart+arrayIndex, dst.CPUDescriptorHandle)

	if res.ResType == metadata.CachedResourceTypeTexSRV && res.IsValidSampler() {
		l.CacheSampler(res, arrayIndex, view)
	}
}

func (l *ShaderResourceLayout) cacheBufferView(res *ResolvedBinding, arrayIndex uint32, dst *CachedResource, obj metadata.DeviceObject) {
	view, ok := obj.(*metadata.BufferView)
	if !ok {
		l.resolutionError(res, arrayIndex, "incorrect resource type: buffer view is expected")
		return
	}
	expected := metadata.BufferViewTypeShaderResource
	if res.ResType == metadata.CachedResourceTypeBufUAV {
		expected = metadata.BufferViewTypeUnorderedAccess
	}
	if view.Desc.ViewType != expected {
		l.resolutionError(res, arrayIndex, "incorrect view type of buffer view '%s': %s is expected, %s provided", view.GetName(), expected, view.Desc.ViewType)
		return
	}
	l.checkRebind(res.Attribs, arrayIndex, dst, obj, "buffer view")

	dst.Type = res.ResType
	dst.Object = view
	dst.CPUDescriptorHandle = view.GetCPUDescriptorHandle()
	l.cache.CopyToShaderVisible(metadata.DescriptorHeapTypeCbvSrvUav, res.RootIndex, res.OffsetFromTableStart+arrayIndex, dst.CPUDescriptorHandle)
}

// CacheSampler binds the sampler of view to the sampler paired with the
// texture res. A nil view clears the sampler slot.
func (l *ShaderResourceLayout) CacheSampler(res *ResolvedBinding, arrayIndex uint32, view *metadata.TextureView) {
	sam := l.GetAssignedSampler(res)
	samIndex := samplerArrayIndex(sam, arrayIndex)
	dst := l.cachedSampler(sam, samIndex)

	if view == nil {
		dst.Reset()
		l.cache.ClearShaderVisible(metadata.DescriptorHeapTypeSampler, sam.RootIndex, sam.OffsetFromTableStart+samIndex)
		return
	}

	sampler := view.GetSampler()
	if sampler == nil {
		core.LogError("Failed to bind sampler to variable '%s' in shader '%s': sampler is not set in the texture view '%s'",
			sam.Attribs.GetPrintName(samIndex), l.GetShaderName(), view.GetName())
		core.MetricsResolutionFailure()
		return
	}
	l.checkRebind(sam.Attribs, samIndex, dst, sampler, "sampler")

	dst.Type = metadata.CachedResourceTypeSampler
	dst.Object = sampler
	dst.CPUDescriptorHandle = sampler.GetCPUDescriptorHandle()
	l.cache.CopyToShaderVisible(metadata.DescriptorHeapTypeSampler, sam.RootIndex, sam.OffsetFromTableStart+samIndex, dst.CPUDescriptorHandle)
}

func isBound(table *RootTable, offset uint32) bool {
	if offset >= table.GetSize() {
		return false
	}
	r := &table.resources[offset]
	if r.IsNull() {
		return false
	}
	if r.CPUDescriptorHandle.IsNull() {
		buf, ok := r.Object.(*metadata.Buffer)
		core.Verify(ok && buf.Desc.Usage == metadata.ResourceUsageDynamic, "bound resource '%s' has no descriptor handle", r.Object.GetName())
	}
	return true
}

// IsBound reports whether element arrayIndex of res holds an object.
func (l *ShaderResourceLayout) IsBound(res *ResolvedBinding, arrayIndex uint32) bool {
	if l.cache == nil || arrayIndex >= res.Attribs.BindCount || res.RootIndex >= l.cache.GetNumRootTables() {
		return false
	}
	return isBound(l.cache.GetRootTable(res.RootIndex), res.OffsetFromTableStart+arrayIndex)
}

// IsSamplerBound reports whether element arrayIndex of sam holds a sampler.
func (l *ShaderResourceLayout) IsSamplerBound(sam *ResolvedSampler, arrayIndex uint32) bool {
	if l.cache == nil || arrayIndex >= sam.Attribs.BindCount || sam.RootIndex >= l.cache.GetNumRootTables() {
		return false
	}
	return isBound(l.cache.GetRootTable(sam.RootIndex), sam.OffsetFromTableStart+arrayIndex)
}
