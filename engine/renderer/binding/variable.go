package binding

import (
	"github.com/spaghettifunk/anima-hal/engine/core"
	"github.com/spaghettifunk/anima-hal/engine/renderer/metadata"
)

// ShaderVariable is the handle applications use to set a single shader
// resource. It stays valid for the lifetime of its layout.
type ShaderVariable struct {
	layout *ShaderResourceLayout
	res    *ResolvedBinding
	index  uint32
}

// Set binds obj to the first element.
func (v *ShaderVariable) Set(obj metadata.DeviceObject) {
	v.layout.BindResource(v.res, 0, obj)
}

// SetArray binds objs to consecutive elements starting at firstElement.
func (v *ShaderVariable) SetArray(objs []metadata.DeviceObject, firstElement uint32) {
	core.Verify(firstElement+uint32(len(objs)) <= v.res.Attribs.BindCount,
		"elements [%d, %d) are out of range for variable '%s' (%d elements)", firstElement, firstElement+uint32(len(objs)), v.res.Attribs.Name, v.res.Attribs.BindCount)
	for i, obj := range objs {
		v.layout.BindResource(v.res, firstElement+uint32(i), obj)
	}
}

func (v *ShaderVariable) GetName() string {
	return v.res.Attribs.Name
}

func (v *ShaderVariable) GetType() metadata.ShaderVariableType {
	return v.res.Attribs.VariableType
}

func (v *ShaderVariable) GetResourceType() metadata.CachedResourceType {
	return v.res.ResType
}

func (v *ShaderVariable) GetArraySize() uint32 {
	return v.res.Attribs.BindCount
}

// GetIndex returns the variable's position in its layout.
func (v *ShaderVariable) GetIndex() uint32 {
	return v.index
}

func (v *ShaderVariable) IsBound(arrayIndex uint32) bool {
	return v.layout.IsBound(v.res, arrayIndex)
}

func (v *ShaderVariable) GetBinding() *ResolvedBinding {
	return v.res
}
