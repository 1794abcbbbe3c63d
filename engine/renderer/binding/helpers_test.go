package binding

import (
	"bytes"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/google/uuid"
	"github.com/spaghettifunk/anima-hal/engine/core"
	"github.com/spaghettifunk/anima-hal/engine/renderer/metadata"
	"github.com/stretchr/testify/require"
)

var handleCounter atomic.Uint64

func nextHandle() metadata.DescriptorHandle {
	return metadata.DescriptorHandle(handleCounter.Add(1))
}

// captureLogs redirects the engine logger for the duration of the test.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	core.SetLogOutput(buf)
	t.Cleanup(func() { core.SetLogOutput(nil) })
	return buf
}

func countWarnings(buf *bytes.Buffer) int {
	return strings.Count(buf.String(), "WARN")
}

func countErrors(buf *bytes.Buffer) int {
	return strings.Count(buf.String(), "ERRO")
}

func newConstantBuffer(name string) *metadata.Buffer {
	return metadata.NewBuffer(metadata.BufferDesc{
		Name:      name,
		Size:      256,
		BindFlags: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
		Usage:     metadata.ResourceUsageDefault,
	}, uuid.New(), nextHandle())
}

func newDynamicConstantBuffer(name string) *metadata.Buffer {
	return metadata.NewBuffer(metadata.BufferDesc{
		Name:      name,
		Size:      256,
		BindFlags: gputypes.BufferUsageUniform,
		Usage:     metadata.ResourceUsageDynamic,
	}, uuid.New(), 0)
}

func newBufferView(name string, viewType metadata.BufferViewType) *metadata.BufferView {
	buf := metadata.NewBuffer(metadata.BufferDesc{
		Name:      name + " buffer",
		Size:      1024,
		BindFlags: gputypes.BufferUsageStorage,
		Usage:     metadata.ResourceUsageDefault,
	}, uuid.New(), 0)
	return metadata.NewBufferView(metadata.BufferViewDesc{
		Name:      name,
		ViewType:  viewType,
		ByteWidth: 1024,
	}, buf, uuid.New(), nextHandle())
}

func newTextureView(name string, viewType metadata.TextureViewType) *metadata.TextureView {
	tex := metadata.NewTexture(metadata.TextureDesc{
		Name:             name + " texture",
		Dimension:        gputypes.TextureDimension2D,
		Format:           gputypes.TextureFormatRGBA8Unorm,
		Width:            64,
		Height:           64,
		DepthOrArraySize: 1,
		MipLevels:        1,
		Usage:            gputypes.TextureUsageTextureBinding,
	}, uuid.New())
	return metadata.NewTextureView(metadata.TextureViewDesc{
		Name:      name,
		ViewType:  viewType,
		Dimension: gputypes.TextureViewDimension2D,
		Format:    gputypes.TextureFormatRGBA8Unorm,
	}, tex, uuid.New(), nextHandle())
}

func newSampler(name string) *metadata.Sampler {
	return metadata.NewSampler(metadata.SamplerDesc{
		Name:      name,
		MinFilter: metadata.FilterTypeLinear,
		MagFilter: metadata.FilterTypeLinear,
	}, uuid.New(), nextHandle())
}

// scenarioResources declares a static constant buffer, a mutable texture
// array of 3 with a shared sampler, and a dynamic buffer UAV.
func scenarioResources(t *testing.T) *ShaderResources {
	t.Helper()
	sr, err := NewShaderResources(metadata.ShaderDesc{
		Name:                "Scenario PS",
		ShaderType:          metadata.ShaderTypePixel,
		DefaultVariableType: metadata.ShaderVariableTypeStatic,
		VariableDesc: []metadata.ShaderVariableDesc{
			{Name: "g_Texture", Type: metadata.ShaderVariableTypeMutable},
			{Name: "g_RWBuffer", Type: metadata.ShaderVariableTypeDynamic},
		},
	}, []ResourceDesc{
		{Name: "g_Constants", Category: metadata.CachedResourceTypeCBV, BindPoint: 0, BindCount: 1},
		{Name: "g_Texture", Category: metadata.CachedResourceTypeTexSRV, BindPoint: 0, BindCount: 3},
		{Name: "g_Texture_sampler", Category: metadata.CachedResourceTypeSampler, BindPoint: 0, BindCount: 1},
		{Name: "g_RWBuffer", Category: metadata.CachedResourceTypeBufUAV, BindPoint: 0, BindCount: 1},
	})
	require.NoError(t, err)
	return sr
}

// scenarioMapping provides every resource of scenarioResources. The texture
// views carry no sampler.
type scenarioObjects struct {
	cb      *metadata.Buffer
	views   []*metadata.TextureView
	uav     *metadata.BufferView
	mapping *ResourceMappingTable
}

func newScenarioObjects() *scenarioObjects {
	o := &scenarioObjects{
		cb:      newConstantBuffer("Constants"),
		uav:     newBufferView("RW buffer", metadata.BufferViewTypeUnorderedAccess),
		mapping: NewResourceMappingTable(),
	}
	objs := make([]metadata.DeviceObject, 3)
	for i := range objs {
		v := newTextureView("Texture", metadata.TextureViewTypeShaderResource)
		o.views = append(o.views, v)
		objs[i] = v
	}
	o.mapping.AddResource("g_Constants", o.cb)
	o.mapping.AddResourceArray("g_Texture", 0, objs)
	o.mapping.AddResource("g_RWBuffer", o.uav)
	return o
}

func newTestHeaps() ShaderVisibleHeaps {
	return ShaderVisibleHeaps{
		CbvSrvUav: NewDescriptorHeap(metadata.DescriptorHeapTypeCbvSrvUav, 64),
		Sampler:   NewDescriptorHeap(metadata.DescriptorHeapTypeSampler, 16),
	}
}

// newSRBLayout builds a root-signature template for sr and clones it into a
// fresh shader-visible SRB cache.
func newSRBLayout(t *testing.T, sr *ShaderResources, heaps ShaderVisibleHeaps) (*ShaderResourceLayout, *ShaderResourceLayout, *RootSignature) {
	t.Helper()
	rs := NewRootSignature(63)
	template := NewShaderResourceLayout()
	template.Initialize(sr, nil, nil, rs)
	rs.Finalize()

	cache := NewResourceCache(CacheContentTypeSRB)
	require.NoError(t, rs.InitResourceCache(cache, heaps))

	layout := NewShaderResourceLayout()
	layout.Clone(template, nil, cache)
	return template, layout, rs
}
