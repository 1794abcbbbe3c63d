package renderer

import (
	"github.com/google/uuid"
	"github.com/spaghettifunk/anima-hal/engine/core"
	"github.com/spaghettifunk/anima-hal/engine/renderer/binding"
	"github.com/spaghettifunk/anima-hal/engine/renderer/metadata"
)

var staticOnly = []metadata.ShaderVariableType{metadata.ShaderVariableTypeStatic}

/**
 * @brief A compiled shader stage. The shader keeps the cache of its static
 * variables; they are set once and copied into every shader resource binding.
 */
type Shader struct {
	id           uuid.UUID
	desc         metadata.ShaderDesc
	resources    *binding.ShaderResources
	staticCache  *binding.ResourceCache
	staticLayout *binding.ShaderResourceLayout
}

func newShader(desc metadata.ShaderDesc, reflected []binding.ResourceDesc) (*Shader, error) {
	id := core.NewObjectID()
	if desc.Name == "" {
		desc.Name = core.DefaultObjectName("Shader", id)
	}
	resources, err := binding.NewShaderResources(desc, reflected)
	if err != nil {
		core.LogError("Failed to create shader '%s': %s", desc.Name, err)
		return nil, err
	}

	s := &Shader{
		id:           id,
		desc:         desc,
		resources:    resources,
		staticCache:  binding.NewResourceCache(binding.CacheContentTypeStatic),
		staticLayout: binding.NewShaderResourceLayout(),
	}
	s.staticLayout.Initialize(resources, staticOnly, s.staticCache, nil)
	return s, nil
}

func (s *Shader) GetName() string              { return s.desc.Name }
func (s *Shader) GetID() uuid.UUID             { return s.id }
func (s *Shader) GetDesc() metadata.ShaderDesc { return s.desc }

func (s *Shader) GetShaderType() metadata.ShaderType {
	return s.desc.ShaderType
}

func (s *Shader) GetResources() *binding.ShaderResources {
	return s.resources
}

func (s *Shader) GetStaticLayout() *binding.ShaderResourceLayout {
	return s.staticLayout
}

/** @brief Binds static variables by name. */
func (s *Shader) BindResources(mapping binding.ResourceMapping, flags binding.BindFlags) {
	s.staticLayout.BindResources(mapping, flags)
}

/** @brief Returns the named static variable, or nil after logging a miss. */
func (s *Shader) GetVariableByName(name string) *binding.ShaderVariable {
	return s.staticLayout.GetVariableByName(name)
}

func (s *Shader) GetVariableCount() uint32 {
	return s.staticLayout.GetVariableCount()
}

func (s *Shader) GetVariableByIndex(i uint32) *binding.ShaderVariable {
	return s.staticLayout.GetVariableByIndex(i)
}
