package renderer

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"sort"

	"github.com/google/uuid"
	"github.com/spaghettifunk/anima-hal/engine/core"
	"github.com/spaghettifunk/anima-hal/engine/renderer/binding"
	"github.com/spaghettifunk/anima-hal/engine/renderer/metadata"
)

/**
 * @brief Describes a pipeline state. A compute pipeline takes exactly one
 * compute shader; a graphics pipeline takes at most one shader per stage.
 */
type PipelineStateDesc struct {
	Name      string
	IsCompute bool
	Shaders   []*Shader
}

/**
 * @brief A set of shaders together with the root signature that lays out
 * their resources. Static variables live in the shaders; mutable and dynamic
 * variables live in the shader resource bindings created from the pipeline.
 */
type PipelineState struct {
	id        uuid.UUID
	name      string
	isCompute bool
	device    *Device
	// ordered by stage
	shaders   []*Shader
	templates []*binding.ShaderResourceLayout
	rootSig   *binding.RootSignature
	hash      uint64
}

func validateShaderStages(desc PipelineStateDesc) error {
	if desc.IsCompute {
		if len(desc.Shaders) != 1 || desc.Shaders[0] == nil {
			return fmt.Errorf("pipeline '%s': %w: a compute pipeline requires exactly one compute shader", desc.Name, core.ErrInvalidShaderStage)
		}
		if st := desc.Shaders[0].GetShaderType(); st != metadata.ShaderTypeCompute {
			return fmt.Errorf("pipeline '%s': %w: %s is not a valid type for compute shader", desc.Name, core.ErrInvalidShaderStage, st)
		}
		return nil
	}

	if len(desc.Shaders) == 0 {
		return fmt.Errorf("pipeline '%s': %w: no shaders provided", desc.Name, core.ErrInvalidShaderStage)
	}
	var seen metadata.ShaderType
	for _, s := range desc.Shaders {
		if s == nil {
			return fmt.Errorf("pipeline '%s': %w: nil shader", desc.Name, core.ErrInvalidShaderStage)
		}
		st := s.GetShaderType()
		if st == metadata.ShaderTypeCompute {
			return fmt.Errorf("pipeline '%s': %w: compute shader '%s' in a graphics pipeline", desc.Name, core.ErrInvalidShaderStage, s.GetName())
		}
		if seen&st != 0 {
			return fmt.Errorf("pipeline '%s': %w: %s", desc.Name, core.ErrDuplicateShaderStage, st)
		}
		seen |= st
	}
	return nil
}

func newPipelineState(device *Device, desc PipelineStateDesc) (*PipelineState, error) {
	id := core.NewObjectID()
	if desc.Name == "" {
		desc.Name = core.DefaultObjectName("PipelineState", id)
	}
	if err := validateShaderStages(desc); err != nil {
		core.LogError(err.Error())
		return nil, err
	}

	shaders := append([]*Shader(nil), desc.Shaders...)
	sort.SliceStable(shaders, func(i, j int) bool {
		return metadata.ShaderTypeToIndex(shaders[i].GetShaderType()) < metadata.ShaderTypeToIndex(shaders[j].GetShaderType())
	})

	pso := &PipelineState{
		id:        id,
		name:      desc.Name,
		isCompute: desc.IsCompute,
		device:    device,
		shaders:   shaders,
		templates: make([]*binding.ShaderResourceLayout, len(shaders)),
		rootSig:   binding.NewRootSignature(device.config.MaxRootIndex),
	}
	for i, s := range shaders {
		pso.templates[i] = binding.NewShaderResourceLayout()
		pso.templates[i].Initialize(s.GetResources(), nil, nil, pso.rootSig)
	}
	pso.rootSig.Finalize()
	pso.hash = pso.computeHash()

	core.LogDebug("Pipeline state '%s' created: %d shaders, %d root tables", pso.name, len(shaders), pso.rootSig.GetNumRootTables())
	return pso, nil
}

func (p *PipelineState) computeHash() uint64 {
	h := fnv.New64a()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], p.rootSig.GetHash())
	h.Write(buf[:])
	for _, s := range p.shaders {
		binary.LittleEndian.PutUint64(buf[:], s.GetResources().GetHash())
		h.Write(buf[:])
	}
	return h.Sum64()
}

func (p *PipelineState) GetName() string  { return p.name }
func (p *PipelineState) GetID() uuid.UUID { return p.id }

func (p *PipelineState) IsCompute() bool {
	return p.isCompute
}

func (p *PipelineState) GetShaders() []*Shader {
	return p.shaders
}

func (p *PipelineState) GetRootSignature() *binding.RootSignature {
	return p.rootSig
}

/** @brief The structural hash of the resource layout of all shaders. */
func (p *PipelineState) GetHash() uint64 {
	return p.hash
}

/**
 * @brief Reports whether shader resource bindings of other cannot be used
 * with this pipeline.
 */
func (p *PipelineState) IsIncompatibleWith(other *PipelineState) bool {
	if other == nil {
		return true
	}
	if p == other {
		return false
	}
	return p.hash != other.hash
}

/** @brief Binds the static variables of every shader of the pipeline. */
func (p *PipelineState) BindShaderResources(mapping binding.ResourceMapping, flags binding.BindFlags) {
	for _, s := range p.shaders {
		s.BindResources(mapping, flags)
	}
}

func (p *PipelineState) BindResources(mapping binding.ResourceMapping, flags binding.BindFlags) {
	p.BindShaderResources(mapping, flags)
}

/**
 * @brief Returns the named static variable of the first shader that declares
 * it, or nil after logging a miss.
 */
func (p *PipelineState) GetVariableByName(name string) *binding.ShaderVariable {
	for _, s := range p.shaders {
		if v, ok := s.GetStaticLayout().FindVariable(name); ok {
			return v
		}
	}
	core.LogError(`Static shader variable "%s" is not found in pipeline state "%s". Attempts to set the variable will be silently ignored.`, name, p.name)
	return nil
}

/** @brief Returns the named static variable of one stage, or nil after logging a miss. */
func (p *PipelineState) GetStaticVariable(shaderType metadata.ShaderType, name string) *binding.ShaderVariable {
	for _, s := range p.shaders {
		if s.GetShaderType() == shaderType {
			return s.GetVariableByName(name)
		}
	}
	core.LogError("Pipeline state '%s' has no %s shader", p.name, shaderType)
	return nil
}

/**
 * @brief Creates a shader resource binding. With initStaticResources the
 * static resources are copied right away; otherwise the first commit does it.
 */
func (p *PipelineState) CreateShaderResourceBinding(initStaticResources bool) (*ShaderResourceBinding, error) {
	return newShaderResourceBinding(p, initStaticResources)
}
