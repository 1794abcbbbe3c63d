package renderer

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spaghettifunk/anima-hal/engine/core"
	"github.com/spaghettifunk/anima-hal/engine/renderer/binding"
	"github.com/spaghettifunk/anima-hal/engine/renderer/metadata"
)

var mutableAndDynamic = []metadata.ShaderVariableType{
	metadata.ShaderVariableTypeMutable,
	metadata.ShaderVariableTypeDynamic,
}

/**
 * @brief Holds the resources bound to a pipeline's mutable and dynamic
 * variables, plus a copy of its static resources. One binding is typically
 * created per material or per object.
 */
type ShaderResourceBinding struct {
	id    uuid.UUID
	pso   *PipelineState
	cache *binding.ResourceCache
	// parallel to pso.shaders
	layouts                    []*binding.ShaderResourceLayout
	staticResourcesInitialized bool
}

func newShaderResourceBinding(pso *PipelineState, initStaticResources bool) (*ShaderResourceBinding, error) {
	srb := &ShaderResourceBinding{
		id:      core.NewObjectID(),
		pso:     pso,
		cache:   binding.NewResourceCache(binding.CacheContentTypeSRB),
		layouts: make([]*binding.ShaderResourceLayout, len(pso.shaders)),
	}
	if err := pso.rootSig.InitResourceCache(srb.cache, pso.device.heaps); err != nil {
		err = fmt.Errorf("failed to create shader resource binding for pipeline '%s': %w", pso.name, err)
		core.LogError(err.Error())
		return nil, err
	}
	for i, tmpl := range pso.templates {
		srb.layouts[i] = binding.NewShaderResourceLayout()
		srb.layouts[i].Clone(tmpl, nil, srb.cache)
	}
	if initStaticResources {
		srb.InitializeStaticResources()
	}
	return srb, nil
}

func (s *ShaderResourceBinding) GetName() string {
	return core.DefaultObjectName("SRB", s.id)
}

func (s *ShaderResourceBinding) GetID() uuid.UUID {
	return s.id
}

func (s *ShaderResourceBinding) GetPipelineState() *PipelineState {
	return s.pso
}

func (s *ShaderResourceBinding) GetResourceCache() *binding.ResourceCache {
	return s.cache
}

func (s *ShaderResourceBinding) StaticResourcesInitialized() bool {
	return s.staticResourcesInitialized
}

/** @brief Copies the static resources of every shader into this binding. */
func (s *ShaderResourceBinding) InitializeStaticResources() {
	if s.staticResourcesInitialized {
		core.LogWarn("Static resources have already been initialized in this shader resource binding object. The operation will be ignored.")
		return
	}
	for i, shader := range s.pso.shaders {
		s.layouts[i].CopyStaticResourceDescriptors(shader.GetStaticLayout())
	}
	s.staticResourcesInitialized = true
}

/** @brief Binds mutable and dynamic variables of every shader by name. */
func (s *ShaderResourceBinding) BindResources(mapping binding.ResourceMapping, flags binding.BindFlags) {
	for _, l := range s.layouts {
		l.BindResourcesOfTypes(mapping, flags, mutableAndDynamic)
	}
}

func (s *ShaderResourceBinding) findVariable(l *binding.ShaderResourceLayout, name string) *binding.ShaderVariable {
	v, ok := l.FindVariable(name)
	if !ok || v.GetType() == metadata.ShaderVariableTypeStatic {
		return nil
	}
	return v
}

/**
 * @brief Returns the named mutable or dynamic variable of the first shader
 * that declares it. Static variables are set through the pipeline state and
 * are not visible here.
 */
func (s *ShaderResourceBinding) GetVariableByName(name string) *binding.ShaderVariable {
	for _, l := range s.layouts {
		if v := s.findVariable(l, name); v != nil {
			return v
		}
	}
	core.LogError(`Shader variable "%s" is not found in shader resource binding of pipeline "%s". Attempts to set the variable will be silently ignored.`, name, s.pso.name)
	return nil
}

/** @brief Returns the named mutable or dynamic variable of one stage. */
func (s *ShaderResourceBinding) GetVariable(shaderType metadata.ShaderType, name string) *binding.ShaderVariable {
	for i, shader := range s.pso.shaders {
		if shader.GetShaderType() != shaderType {
			continue
		}
		if v := s.findVariable(s.layouts[i], name); v != nil {
			return v
		}
		core.LogError(`Shader variable "%s" is not found in shader "%s" (%s). Attempts to set the variable will be silently ignored.`, name, shader.GetName(), shaderType)
		return nil
	}
	core.LogError("Pipeline state '%s' has no %s shader", s.pso.name, shaderType)
	return nil
}

/** @brief Logs every unbound or inconsistent slot. Returns true when all are bound. */
func (s *ShaderResourceBinding) VerifyBindings() bool {
	valid := true
	for _, l := range s.layouts {
		if !l.VerifyBindings() {
			valid = false
		}
	}
	return valid
}

func (s *ShaderResourceBinding) commitDynamicDescriptors(heaps binding.ShaderVisibleHeaps) ([]binding.DescriptorHeapAllocation, error) {
	return s.pso.rootSig.CommitDynamicDescriptors(s.cache, heaps)
}

/** @brief Returns the binding's shader-visible descriptors to the device heaps. */
func (s *ShaderResourceBinding) Release() {
	s.cache.Release()
}
