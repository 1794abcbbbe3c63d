package renderer

import (
	"bytes"
	"strings"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/spaghettifunk/anima-hal/engine/core"
	"github.com/spaghettifunk/anima-hal/engine/renderer/binding"
	"github.com/spaghettifunk/anima-hal/engine/renderer/metadata"
	"github.com/stretchr/testify/require"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	core.SetLogOutput(buf)
	t.Cleanup(func() { core.SetLogOutput(nil) })
	return buf
}

func countErrors(buf *bytes.Buffer) int {
	return strings.Count(buf.String(), "ERRO")
}

func newTestDevice(framesInFlight uint32) *Device {
	cfg := core.DefaultConfig().Binding
	cfg.CbvSrvUavHeapSize = 128
	cfg.SamplerHeapSize = 16
	cfg.FramesInFlight = framesInFlight
	return NewDevice(Vulkan, cfg)
}

func vertexShader(t *testing.T, d *Device) *Shader {
	t.Helper()
	s, err := d.CreateShader(metadata.ShaderDesc{
		Name:       "Scene VS",
		ShaderType: metadata.ShaderTypeVertex,
	}, []binding.ResourceDesc{
		{Name: "g_Camera", Category: metadata.CachedResourceTypeCBV, BindPoint: 0, BindCount: 1},
	})
	require.NoError(t, err)
	return s
}

func pixelShader(t *testing.T, d *Device) *Shader {
	t.Helper()
	s, err := d.CreateShader(metadata.ShaderDesc{
		Name:                "Scene PS",
		ShaderType:          metadata.ShaderTypePixel,
		DefaultVariableType: metadata.ShaderVariableTypeStatic,
		VariableDesc: []metadata.ShaderVariableDesc{
			{Name: "g_Texture", Type: metadata.ShaderVariableTypeMutable},
			{Name: "g_RWBuffer", Type: metadata.ShaderVariableTypeDynamic},
		},
	}, []binding.ResourceDesc{
		{Name: "g_Constants", Category: metadata.CachedResourceTypeCBV, BindPoint: 0, BindCount: 1},
		{Name: "g_Texture", Category: metadata.CachedResourceTypeTexSRV, BindPoint: 0, BindCount: 3},
		{Name: "g_Texture_sampler", Category: metadata.CachedResourceTypeSampler, BindPoint: 0, BindCount: 1},
		{Name: "g_RWBuffer", Category: metadata.CachedResourceTypeBufUAV, BindPoint: 0, BindCount: 1},
	})
	require.NoError(t, err)
	return s
}

// sceneMapping creates every object the scene shaders reference.
func sceneMapping(t *testing.T, d *Device) *binding.ResourceMappingTable {
	t.Helper()
	m := binding.NewResourceMappingTable()

	for _, name := range []string{"g_Camera", "g_Constants"} {
		cb, err := d.CreateBuffer(metadata.BufferDesc{Name: name, Size: 64, BindFlags: gputypes.BufferUsageUniform})
		require.NoError(t, err)
		m.AddResource(name, cb)
	}

	tex, err := d.CreateTexture(metadata.TextureDesc{
		Dimension: gputypes.TextureDimension2D,
		Format:    gputypes.TextureFormatRGBA8Unorm,
		Width:     32,
		Height:    32,
		Usage:     gputypes.TextureUsageTextureBinding,
	})
	require.NoError(t, err)
	sampler, err := d.CreateSampler(metadata.SamplerDesc{MinFilter: metadata.FilterTypeLinear, MagFilter: metadata.FilterTypeLinear})
	require.NoError(t, err)
	views := make([]metadata.DeviceObject, 3)
	for i := range views {
		v, err := d.CreateTextureView(tex, metadata.TextureViewDesc{ViewType: metadata.TextureViewTypeShaderResource, Dimension: gputypes.TextureViewDimension2D})
		require.NoError(t, err)
		v.SetSampler(sampler)
		views[i] = v
	}
	m.AddResourceArray("g_Texture", 0, views)

	buf, err := d.CreateBuffer(metadata.BufferDesc{Size: 1024, BindFlags: gputypes.BufferUsageStorage})
	require.NoError(t, err)
	uav, err := d.CreateBufferView(buf, metadata.BufferViewDesc{ViewType: metadata.BufferViewTypeUnorderedAccess})
	require.NoError(t, err)
	m.AddResource("g_RWBuffer", uav)
	return m
}

func scenePipeline(t *testing.T, d *Device) *PipelineState {
	t.Helper()
	pso, err := d.CreatePipelineState(PipelineStateDesc{
		Name:    "Scene",
		Shaders: []*Shader{pixelShader(t, d), vertexShader(t, d)},
	})
	require.NoError(t, err)
	return pso
}
