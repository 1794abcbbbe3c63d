package binding

import (
	"testing"

	"github.com/spaghettifunk/anima-hal/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticLayoutScenario(t *testing.T) {
	assert := assert.New(t)
	captureLogs(t)

	sr := scenarioResources(t)
	cache := NewResourceCache(CacheContentTypeStatic)
	layout := NewShaderResourceLayout()
	layout.Initialize(sr, nil, cache, nil)

	require.Equal(t, uint32(metadata.NumDescriptorRangeTypes), cache.GetNumRootTables())
	assert.GreaterOrEqual(cache.GetRootTable(uint32(metadata.DescriptorRangeTypeCBV)).GetSize(), uint32(1))
	assert.GreaterOrEqual(cache.GetRootTable(uint32(metadata.DescriptorRangeTypeSRV)).GetSize(), uint32(3))
	assert.GreaterOrEqual(cache.GetRootTable(uint32(metadata.DescriptorRangeTypeUAV)).GetSize(), uint32(1))
	assert.GreaterOrEqual(cache.GetRootTable(uint32(metadata.DescriptorRangeTypeSampler)).GetSize(), uint32(1))

	objs := newScenarioObjects()
	layout.BindResources(objs.mapping, 0)

	cb := layout.GetVariableByName("g_Constants")
	tex := layout.GetVariableByName("g_Texture")
	uav := layout.GetVariableByName("g_RWBuffer")
	require.NotNil(t, cb)
	require.NotNil(t, tex)
	require.NotNil(t, uav)

	assert.True(cb.IsBound(0))
	for i := uint32(0); i < 3; i++ {
		assert.True(tex.IsBound(i), "texture element %d", i)
	}
	assert.True(uav.IsBound(0))

	sam := layout.GetAssignedSampler(tex.GetBinding())
	assert.False(layout.IsSamplerBound(sam, 0), "views carry no sampler yet")

	objs.views[0].SetSampler(newSampler("Linear"))
	layout.CacheSampler(tex.GetBinding(), 0, objs.views[0])
	assert.True(layout.IsSamplerBound(sam, 0))
}

func TestStaticLayoutUsesBindPointsAsOffsets(t *testing.T) {
	assert := assert.New(t)

	sr, err := NewShaderResources(metadata.ShaderDesc{
		Name:       "Offsets VS",
		ShaderType: metadata.ShaderTypeVertex,
	}, []ResourceDesc{
		{Name: "g_Camera", Category: metadata.CachedResourceTypeCBV, BindPoint: 2, BindCount: 1},
		{Name: "g_Lights", Category: metadata.CachedResourceTypeBufSRV, BindPoint: 4, BindCount: 2},
	})
	require.NoError(t, err)

	cache := NewResourceCache(CacheContentTypeStatic)
	layout := NewShaderResourceLayout()
	layout.Initialize(sr, []metadata.ShaderVariableType{metadata.ShaderVariableTypeStatic}, cache, nil)

	camera := layout.GetVariableByName("g_Camera").GetBinding()
	assert.Equal(uint32(metadata.DescriptorRangeTypeCBV), camera.RootIndex)
	assert.Equal(uint32(2), camera.OffsetFromTableStart)

	lights := layout.GetVariableByName("g_Lights").GetBinding()
	assert.Equal(uint32(metadata.DescriptorRangeTypeSRV), lights.RootIndex)
	assert.Equal(uint32(4), lights.OffsetFromTableStart)

	assert.Equal(uint32(3), cache.GetRootTable(uint32(metadata.DescriptorRangeTypeCBV)).GetSize())
	assert.Equal(uint32(6), cache.GetRootTable(uint32(metadata.DescriptorRangeTypeSRV)).GetSize())
	assert.Equal(uint32(0), cache.GetRootTable(uint32(metadata.DescriptorRangeTypeUAV)).GetSize())
}

func TestInitializeFiltersVariableTypes(t *testing.T) {
	assert := assert.New(t)

	sr := scenarioResources(t)
	layout := NewShaderResourceLayout()
	layout.Initialize(sr, []metadata.ShaderVariableType{metadata.ShaderVariableTypeStatic}, NewResourceCache(CacheContentTypeStatic), nil)

	assert.Equal(uint32(1), layout.GetTotalResourceCount())
	assert.Equal(uint32(1), layout.GetCbvSrvUavCount(metadata.ShaderVariableTypeStatic))
	assert.Equal(uint32(0), layout.GetCbvSrvUavCount(metadata.ShaderVariableTypeMutable))
	assert.Equal(uint32(0), layout.GetTotalSamplerCount())

	_, ok := layout.FindVariable("g_Texture")
	assert.False(ok)
}

func TestInitializeRequiresExactlyOneTarget(t *testing.T) {
	captureLogs(t)
	sr := scenarioResources(t)

	assert.Panics(t, func() {
		NewShaderResourceLayout().Initialize(sr, nil, nil, nil)
	})
	assert.Panics(t, func() {
		NewShaderResourceLayout().Initialize(sr, nil, NewResourceCache(CacheContentTypeStatic), NewRootSignature(63))
	})
}

func TestInitializeTwiceIsFatal(t *testing.T) {
	captureLogs(t)
	sr := scenarioResources(t)
	layout := NewShaderResourceLayout()
	layout.Initialize(sr, nil, NewResourceCache(CacheContentTypeStatic), nil)

	assert.Panics(t, func() {
		layout.Initialize(sr, nil, NewResourceCache(CacheContentTypeStatic), nil)
	})
}

func TestCloneCopiesTableAssignments(t *testing.T) {
	assert := assert.New(t)

	sr := scenarioResources(t)
	template, clone, _ := newSRBLayout(t, sr, newTestHeaps())

	require.Equal(t, template.GetTotalResourceCount(), clone.GetTotalResourceCount())
	for vt := metadata.ShaderVariableTypeStatic; vt < metadata.ShaderVariableTypeNumTypes; vt++ {
		require.Equal(t, template.GetCbvSrvUavCount(vt), clone.GetCbvSrvUavCount(vt))
		for i := uint32(0); i < template.GetCbvSrvUavCount(vt); i++ {
			src, dst := template.GetSrvCbvUav(vt, i), clone.GetSrvCbvUav(vt, i)
			assert.Same(src.Attribs, dst.Attribs)
			assert.Equal(src.RootIndex, dst.RootIndex)
			assert.Equal(src.OffsetFromTableStart, dst.OffsetFromTableStart)
			assert.Equal(src.SamplerID, dst.SamplerID)
		}
		require.Equal(t, template.GetSamplerCount(vt), clone.GetSamplerCount(vt))
		for i := uint32(0); i < template.GetSamplerCount(vt); i++ {
			src, dst := template.GetSampler(vt, i), clone.GetSampler(vt, i)
			assert.Equal(src.RootIndex, dst.RootIndex)
			assert.Equal(src.OffsetFromTableStart, dst.OffsetFromTableStart)
		}
	}
	assert.Nil(template.GetResourceCache())
	assert.NotNil(clone.GetResourceCache())
}

func TestCloneFiltersVariableTypes(t *testing.T) {
	assert := assert.New(t)

	sr := scenarioResources(t)
	rs := NewRootSignature(63)
	template := NewShaderResourceLayout()
	template.Initialize(sr, nil, nil, rs)
	rs.Finalize()

	cache := NewResourceCache(CacheContentTypeSRB)
	require.NoError(t, rs.InitResourceCache(cache, newTestHeaps()))

	clone := NewShaderResourceLayout()
	clone.Clone(template, []metadata.ShaderVariableType{metadata.ShaderVariableTypeMutable, metadata.ShaderVariableTypeDynamic}, cache)

	assert.Equal(uint32(0), clone.GetCbvSrvUavCount(metadata.ShaderVariableTypeStatic))
	assert.Equal(uint32(1), clone.GetCbvSrvUavCount(metadata.ShaderVariableTypeMutable))
	assert.Equal(uint32(1), clone.GetCbvSrvUavCount(metadata.ShaderVariableTypeDynamic))
	assert.Equal(uint32(1), clone.GetSamplerCount(metadata.ShaderVariableTypeMutable))
}

func TestCloneIntoIncompatibleCacheIsFatal(t *testing.T) {
	captureLogs(t)

	sr := scenarioResources(t)
	rs := NewRootSignature(63)
	template := NewShaderResourceLayout()
	template.Initialize(sr, nil, nil, rs)
	rs.Finalize()

	cache := NewResourceCache(CacheContentTypeSRB)
	cache.Initialize([]uint32{1})

	assert.Panics(t, func() {
		NewShaderResourceLayout().Clone(template, nil, cache)
	})
}

func TestVariablesByNameAndIndex(t *testing.T) {
	sr := scenarioResources(t)
	layout := NewShaderResourceLayout()
	layout.Initialize(sr, nil, NewResourceCache(CacheContentTypeStatic), nil)

	for i := uint32(0); i < layout.GetVariableCount(); i++ {
		v := layout.GetVariableByIndex(i)
		found, ok := layout.FindVariable(v.GetName())
		assert.True(t, ok)
		assert.Same(t, v, found)
		assert.Equal(t, i, found.GetIndex())
	}
}

func TestGetVariableByNameMissLogsOnce(t *testing.T) {
	assert := assert.New(t)
	logs := captureLogs(t)

	sr := scenarioResources(t)
	layout := NewShaderResourceLayout()
	layout.Initialize(sr, nil, NewResourceCache(CacheContentTypeStatic), nil)

	v := layout.GetVariableByName("g_DoesNotExist")
	assert.Nil(v)
	assert.Equal(1, countErrors(logs))
	assert.Contains(logs.String(), `Shader variable "g_DoesNotExist" is not found in shader "Scenario PS"`)

	assert.Nil(layout.GetVariableByIndex(layout.GetVariableCount()))
}

func TestRootIndexLimitIsFatal(t *testing.T) {
	captureLogs(t)
	sr := scenarioResources(t)

	// The scenario needs a static/mutable CBV/SRV/UAV table, a sampler table
	// and a dynamic table.
	rs := NewRootSignature(1)
	assert.Panics(t, func() {
		NewShaderResourceLayout().Initialize(sr, nil, nil, rs)
	})
}
