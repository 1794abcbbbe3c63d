package loaders

import (
	"fmt"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"
	"github.com/spaghettifunk/anima-hal/engine/core"
	"github.com/spaghettifunk/anima-hal/engine/renderer/binding"
	"github.com/spaghettifunk/anima-hal/engine/renderer/metadata"
)

// ReflectWGSL parses WGSL source and reports the stage of its first entry
// point together with every bound resource it declares.
func ReflectWGSL(source string) (metadata.ShaderType, []binding.ResourceDesc, error) {
	ast, err := naga.Parse(source)
	if err != nil {
		return metadata.ShaderTypeUnknown, nil, fmt.Errorf("failed to parse WGSL: %w", err)
	}
	module, err := naga.Lower(ast)
	if err != nil {
		return metadata.ShaderTypeUnknown, nil, fmt.Errorf("failed to lower WGSL: %w", err)
	}

	// access modes are dropped by lowering; read them off the syntax tree
	readOnly := make(map[string]bool, len(ast.GlobalVars))
	for _, v := range ast.GlobalVars {
		if v.AddressSpace == "storage" {
			readOnly[v.Name] = v.AccessMode == "" || v.AccessMode == "read"
		}
	}
	return reflectModule(module, readOnly)
}

func reflectModule(module *ir.Module, readOnly map[string]bool) (metadata.ShaderType, []binding.ResourceDesc, error) {
	if len(module.EntryPoints) == 0 {
		return metadata.ShaderTypeUnknown, nil, core.ErrNoEntryPoint
	}
	shaderType, err := shaderTypeOf(module.EntryPoints[0].Stage)
	if err != nil {
		return metadata.ShaderTypeUnknown, nil, err
	}

	var resources []binding.ResourceDesc
	for _, gv := range module.GlobalVariables {
		if gv.Binding == nil {
			continue
		}
		inner, count := unwrapArray(module, gv.Type)
		category, ok := categoryOf(gv.Space, inner, readOnly[gv.Name])
		if !ok {
			core.LogDebug("skipping global '%s': not a bindable resource", gv.Name)
			continue
		}
		resources = append(resources, binding.ResourceDesc{
			Name:      gv.Name,
			Category:  category,
			BindPoint: gv.Binding.Binding,
			BindCount: count,
			Space:     gv.Binding.Group,
		})
	}
	return shaderType, resources, nil
}

func shaderTypeOf(stage ir.ShaderStage) (metadata.ShaderType, error) {
	switch stage {
	case ir.StageVertex:
		return metadata.ShaderTypeVertex, nil
	case ir.StageFragment:
		return metadata.ShaderTypePixel, nil
	case ir.StageCompute:
		return metadata.ShaderTypeCompute, nil
	}
	return metadata.ShaderTypeUnknown, fmt.Errorf("%w: entry point stage %d", core.ErrInvalidShaderStage, stage)
}

// unwrapArray returns the element type of a fixed-size array of opaque
// resources together with its length. Any other type is returned as is with
// a count of one.
func unwrapArray(module *ir.Module, handle ir.TypeHandle) (ir.TypeInner, uint32) {
	inner := module.Types[handle].Inner
	arr, ok := inner.(ir.ArrayType)
	if !ok || arr.Size.Constant == nil {
		return inner, 1
	}
	base := module.Types[arr.Base].Inner
	switch base.(type) {
	case ir.ImageType, ir.SamplerType:
		return base, *arr.Size.Constant
	}
	return inner, 1
}

func categoryOf(space ir.AddressSpace, inner ir.TypeInner, readOnly bool) (metadata.CachedResourceType, bool) {
	switch space {
	case ir.SpaceUniform:
		return metadata.CachedResourceTypeCBV, true
	case ir.SpaceStorage:
		if readOnly {
			return metadata.CachedResourceTypeBufSRV, true
		}
		return metadata.CachedResourceTypeBufUAV, true
	}

	switch t := inner.(type) {
	case ir.ImageType:
		if t.Class == ir.ImageClassStorage {
			return metadata.CachedResourceTypeTexUAV, true
		}
		return metadata.CachedResourceTypeTexSRV, true
	case ir.SamplerType:
		return metadata.CachedResourceTypeSampler, true
	}
	return metadata.CachedResourceTypeUnknown, false
}
