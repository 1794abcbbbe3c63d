package binding

import (
	"github.com/spaghettifunk/anima-hal/engine/core"
	"github.com/spaghettifunk/anima-hal/engine/renderer/metadata"
)

// BindFlags control BindResources.
type BindFlags uint32

const (
	// Clear every slot before resolving it.
	BindFlagResetBindings BindFlags = 1 << iota
	// Stop the whole pass at the first slot that is already bound.
	BindFlagUpdateUnresolved
	// Report every slot that is still unbound after resolution.
	BindFlagAllResolved
)

// BindResources resolves every binding of the layout by name in mapping.
func (l *ShaderResourceLayout) BindResources(mapping ResourceMapping, flags BindFlags) {
	l.BindResourcesOfTypes(mapping, flags, nil)
}

// BindResourcesOfTypes is BindResources restricted to the variable types in
// allowed. An empty list means all types.
func (l *ShaderResourceLayout) BindResourcesOfTypes(mapping ResourceMapping, flags BindFlags, allowed []metadata.ShaderVariableType) {
	if mapping == nil {
		core.LogError("Failed to bind resources in shader '%s': resource mapping is null", l.GetShaderName())
		return
	}

	bits := metadata.ShaderVariableTypeBits(allowed)
	for i := range l.bindings {
		res := &l.bindings[i]
		if !metadata.IsAllowedType(res.Attribs.VariableType, bits) {
			continue
		}
		for arrayIndex := uint32(0); arrayIndex < res.Attribs.BindCount; arrayIndex++ {
			if flags&BindFlagResetBindings != 0 {
				l.BindResource(res, arrayIndex, nil)
			}

			// An already bound slot ends the whole pass, not just this slot.
			if flags&BindFlagUpdateUnresolved != 0 && l.IsBound(res, arrayIndex) {
				return
			}

			obj := mapping.GetResource(res.Attribs.Name, arrayIndex)
			if !isNilObject(obj) {
				l.BindResource(res, arrayIndex, obj)
			} else if flags&BindFlagAllResolved != 0 && !l.IsBound(res, arrayIndex) {
				core.LogError("Cannot bind resource to shader variable '%s' in shader '%s': resource is not found in the resource mapping",
					res.Attribs.GetPrintName(arrayIndex), l.GetShaderName())
				core.MetricsResolutionFailure()
			}
		}
	}
}

// FindVariable looks a variable up by name without logging a miss.
func (l *ShaderResourceLayout) FindVariable(name string) (*ShaderVariable, bool) {
	idx, ok := l.variableIndex[name]
	if !ok {
		return nil, false
	}
	return &l.variables[idx], true
}

// GetVariableByName returns the named variable, or nil after logging that it
// does not exist.
func (l *ShaderResourceLayout) GetVariableByName(name string) *ShaderVariable {
	v, ok := l.FindVariable(name)
	if !ok {
		core.LogError(`Shader variable "%s" is not found in shader "%s" (%s). Attempts to set the variable will be silently ignored.`,
			name, l.GetShaderName(), l.GetShaderType())
		return nil
	}
	return v
}

func (l *ShaderResourceLayout) GetVariableCount() uint32 {
	return uint32(len(l.variables))
}

// GetVariableByIndex returns variable i in arena order.
func (l *ShaderResourceLayout) GetVariableByIndex(i uint32) *ShaderVariable {
	if i >= uint32(len(l.variables)) {
		core.LogError("Shader variable index %d is out of range in shader '%s' (%d variables)", i, l.GetShaderName(), len(l.variables))
		return nil
	}
	return &l.variables[i]
}

// CopyStaticResourceDescriptors copies the static resources of the shader's
// static layout into this layout's cache. src must be built in static mode
// from the same ShaderResources. Assigning a different object to a static
// slot that is already set is fatal; copying the same objects again is a no-op.
func (l *ShaderResourceLayout) CopyStaticResourceDescriptors(src *ShaderResourceLayout) {
	core.Verify(l.cache != nil, "layout of shader '%s' has no resource cache", l.GetShaderName())
	core.Verify(src.cache != nil && src.cache.GetContentType() == CacheContentTypeStatic, "source layout of shader '%s' has no static resource cache", src.GetShaderName())
	core.Verify(l.resources == src.resources, "static resources of shader '%s' cannot be copied into a layout of shader '%s'", src.GetShaderName(), l.GetShaderName())

	shaderType := l.GetShaderType()
	srcCache := src.cache
	static := metadata.ShaderVariableTypeStatic

	copySlot := func(attribs *ShaderResourceAttribs, arrayIndex uint32, srcRes, dst *CachedResource, heapType metadata.DescriptorHeapType, rootIndex, offset uint32) {
		if srcRes.IsNull() {
			core.LogError("No resource is assigned to static shader variable '%s' in shader '%s'.", attribs.GetPrintName(arrayIndex), l.GetShaderName())
			core.MetricsResolutionFailure()
		}
		if dst.Object != srcRes.Object {
			core.Verify(dst.IsNull(), "static resource '%s' in shader '%s' is already assigned a different object", attribs.GetPrintName(arrayIndex), l.GetShaderName())
			*dst = *srcRes
			l.cache.CopyToShaderVisible(heapType, rootIndex, offset, dst.CPUDescriptorHandle)
			return
		}
		core.Verify(dst.Type == srcRes.Type && dst.CPUDescriptorHandle == srcRes.CPUDescriptorHandle,
			"static resource '%s' in shader '%s' is cached inconsistently", attribs.GetPrintName(arrayIndex), l.GetShaderName())
	}

	for i := uint32(0); i < l.GetCbvSrvUavCount(static); i++ {
		res := l.GetSrvCbvUav(static, i)
		rangeType := metadata.DescriptorRangeTypeOf(res.ResType)
		heapType := metadata.HeapTypeOf(rangeType)
		srcTable := srcCache.GetRootTable(uint32(rangeType))
		for arrayIndex := uint32(0); arrayIndex < res.Attribs.BindCount; arrayIndex++ {
			srcRes := srcTable.GetResource(res.Attribs.BindPoint+arrayIndex, heapType, shaderType)
			dst := l.cachedResource(res, arrayIndex)
			copySlot(res.Attribs, arrayIndex, srcRes, dst, heapType, res.RootIndex, res.OffsetFromTableStart+arrayIndex)
		}

		if res.IsValidSampler() {
			sam := l.GetAssignedSampler(res)
			srcSamplers := srcCache.GetRootTable(uint32(metadata.DescriptorRangeTypeSampler))
			for arrayIndex := uint32(0); arrayIndex < sam.Attribs.BindCount; arrayIndex++ {
				srcRes := srcSamplers.GetResource(sam.Attribs.BindPoint+arrayIndex, metadata.DescriptorHeapTypeSampler, shaderType)
				dst := l.cachedSampler(sam, arrayIndex)
				copySlot(sam.Attribs, arrayIndex, srcRes, dst, metadata.DescriptorHeapTypeSampler, sam.RootIndex, sam.OffsetFromTableStart+arrayIndex)
			}
		}
	}
}

// VerifyBindings logs every unbound slot and every inconsistency between the
// cache and the layout. It returns true when nothing was found.
func (l *ShaderResourceLayout) VerifyBindings() bool {
	core.Verify(l.cache != nil, "layout of shader '%s' has no resource cache", l.GetShaderName())

	valid := true
	for i := range l.bindings {
		res := &l.bindings[i]
		for arrayIndex := uint32(0); arrayIndex < res.Attribs.BindCount; arrayIndex++ {
			cached := l.cachedResource(res, arrayIndex)
			if cached.IsNull() {
				core.LogError("No resource is bound to %s variable '%s' in shader '%s'",
					res.Attribs.VariableType, res.Attribs.GetPrintName(arrayIndex), l.GetShaderName())
				valid = false
				continue
			}
			if cached.Type != res.ResType {
				core.LogError("Inconsistent cached resource types of variable '%s' in shader '%s': %s is expected, %s is cached",
					res.Attribs.GetPrintName(arrayIndex), l.GetShaderName(), res.ResType, cached.Type)
				valid = false
			}

			if res.ResType != metadata.CachedResourceTypeTexSRV || !res.IsValidSampler() {
				continue
			}
			sam := l.GetAssignedSampler(res)
			cachedSampler := l.cachedSampler(sam, samplerArrayIndex(sam, arrayIndex))
			if cachedSampler.IsNull() {
				core.LogError("No sampler is assigned to texture variable '%s' in shader '%s'",
					res.Attribs.GetPrintName(arrayIndex), l.GetShaderName())
				valid = false
				continue
			}
			if cachedSampler.Type != metadata.CachedResourceTypeSampler {
				core.LogError("Unexpected object is cached in place of sampler '%s' in shader '%s'", sam.Attribs.Name, l.GetShaderName())
				valid = false
			}
			if sam.Attribs.BindCount == 1 && res.Attribs.BindCount > 1 {
				view, ok := cached.Object.(*metadata.TextureView)
				if ok && view.GetSampler() != nil && metadata.DeviceObject(view.GetSampler()) != cachedSampler.Object {
					core.LogError("All elements of texture array '%s' in shader '%s' share the same sampler. However, the sampler set in view for element %d does not match the bound sampler.",
						res.Attribs.Name, l.GetShaderName(), arrayIndex)
					valid = false
				}
			}
		}
	}
	return valid
}
