package testbed

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/spaghettifunk/anima-hal/engine"
	"github.com/spaghettifunk/anima-hal/engine/core"
	"github.com/spaghettifunk/anima-hal/engine/renderer"
	"github.com/spaghettifunk/anima-hal/engine/renderer/binding"
	"github.com/spaghettifunk/anima-hal/engine/renderer/metadata"
	"github.com/spaghettifunk/anima-hal/engine/renderer/vulkan"
)

// Scene draws nothing; it binds the sprite shaders the way a renderer would
// for a number of frames and reports what was committed.
type Scene struct {
	Frames int

	mapping *binding.ResourceMappingTable
	pso     *renderer.PipelineState
	srb     *renderer.ShaderResourceBinding
	ctx     *renderer.DeviceContext

	committed int
}

func NewTestGame(frames int) *engine.Game {
	s := &Scene{Frames: frames}
	return &engine.Game{
		Name:         "Binding Testbed",
		State:        s,
		FnInitialize: s.Initialize,
		FnShutdown:   s.Shutdown,
	}
}

func (s *Scene) Initialize(e *engine.Engine) error {
	core.LogInfo("booting testbed...")
	device := e.Device()

	vs, err := e.Shaders().Load("sprite_vs")
	if err != nil {
		return err
	}
	ps, err := e.Shaders().Load("sprite_ps")
	if err != nil {
		return err
	}

	s.mapping, err = buildMapping(device)
	if err != nil {
		return err
	}

	s.pso, err = device.CreatePipelineState(renderer.PipelineStateDesc{
		Name:    "Sprite",
		Shaders: []*renderer.Shader{vs, ps},
	})
	if err != nil {
		return err
	}
	s.pso.BindShaderResources(s.mapping, binding.BindFlagUpdateUnresolved)

	for _, set := range vulkan.DescriptorSetLayoutBindings(s.pso.GetRootSignature()) {
		core.LogInfo("set %d (%s, dynamic=%t): %d bindings", set.Set, set.ShaderType, set.Dynamic, len(set.Bindings))
	}

	s.srb, err = s.pso.CreateShaderResourceBinding(true)
	if err != nil {
		return err
	}
	s.srb.BindResources(s.mapping, binding.BindFlagUpdateUnresolved)

	s.ctx = device.CreateDeviceContext()
	s.ctx.SetPipelineState(s.pso)
	for frame := 0; frame < s.Frames; frame++ {
		if !s.ctx.CommitShaderResources(s.srb, renderer.CommitFlagVerifyBindings) {
			return fmt.Errorf("frame %d: failed to commit shader resources", frame)
		}
		s.committed++
		s.ctx.FinishFrame()
	}
	core.LogInfo("testbed committed %d frames", s.committed)
	return nil
}

func (s *Scene) Shutdown() error {
	if s.ctx != nil {
		s.ctx.Flush()
	}
	if s.srb != nil {
		s.srb.Release()
	}
	return nil
}

// Committed returns the number of frames committed so far.
func (s *Scene) Committed() int {
	return s.committed
}

func buildMapping(device *renderer.Device) (*binding.ResourceMappingTable, error) {
	m := binding.NewResourceMappingTable()

	for _, name := range []string{"g_Camera", "g_Material"} {
		cb, err := device.CreateBuffer(metadata.BufferDesc{Name: name, Size: 64, BindFlags: gputypes.BufferUsageUniform})
		if err != nil {
			return nil, err
		}
		m.AddResource(name, cb)
	}

	tex, err := device.CreateTexture(metadata.TextureDesc{
		Name:      "atlas",
		Dimension: gputypes.TextureDimension2D,
		Format:    gputypes.TextureFormatRGBA8Unorm,
		Width:     256,
		Height:    256,
		Usage:     gputypes.TextureUsageTextureBinding,
	})
	if err != nil {
		return nil, err
	}
	sampler, err := device.CreateSampler(metadata.SamplerDesc{
		Name:      "linear",
		MinFilter: metadata.FilterTypeLinear,
		MagFilter: metadata.FilterTypeLinear,
		MipFilter: metadata.FilterTypeLinear,
	})
	if err != nil {
		return nil, err
	}
	views := make([]metadata.DeviceObject, 3)
	for i := range views {
		v, err := device.CreateTextureView(tex, metadata.TextureViewDesc{
			ViewType:  metadata.TextureViewTypeShaderResource,
			Dimension: gputypes.TextureViewDimension2D,
		})
		if err != nil {
			return nil, err
		}
		v.SetSampler(sampler)
		views[i] = v
	}
	m.AddResourceArray("g_Textures", 0, views)

	particles, err := device.CreateBuffer(metadata.BufferDesc{Name: "particles", Size: 4096, BindFlags: gputypes.BufferUsageStorage})
	if err != nil {
		return nil, err
	}
	uav, err := device.CreateBufferView(particles, metadata.BufferViewDesc{ViewType: metadata.BufferViewTypeUnorderedAccess})
	if err != nil {
		return nil, err
	}
	m.AddResource("g_Particles", uav)
	return m, nil
}
