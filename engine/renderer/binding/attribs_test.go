package binding

import (
	"testing"

	"github.com/spaghettifunk/anima-hal/engine/core"
	"github.com/spaghettifunk/anima-hal/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSamplerInheritsTextureVariableType(t *testing.T) {
	assert := assert.New(t)

	sr := scenarioResources(t)
	require.Equal(t, uint32(1), sr.GetNumSamplers())

	var tex *ShaderResourceAttribs
	sr.ProcessResources(nil, ResourceHandlers{OnTexSRV: func(a *ShaderResourceAttribs) { tex = a }})
	require.NotNil(t, tex)
	require.True(t, tex.IsValidSampler())

	sam := sr.GetSampler(tex.GetSamplerID())
	assert.Equal("g_Texture_sampler", sam.Name)
	assert.Equal(metadata.ShaderVariableTypeMutable, sam.VariableType)
	assert.False(sam.IsStaticSampler())
}

func TestStaticSamplerIsFlagged(t *testing.T) {
	assert := assert.New(t)

	desc := metadata.SamplerDesc{Name: "Clamp", AddressU: metadata.TextureAddressClamp}
	sr, err := NewShaderResources(metadata.ShaderDesc{
		Name:       "Static sampler PS",
		ShaderType: metadata.ShaderTypePixel,
		StaticSamplers: []metadata.StaticSamplerDesc{
			{TextureName: "g_Shadow", Desc: desc},
		},
	}, []ResourceDesc{
		{Name: "g_Shadow", Category: metadata.CachedResourceTypeTexSRV, BindPoint: 1, BindCount: 1},
		{Name: "g_Shadow_sampler", Category: metadata.CachedResourceTypeSampler, BindPoint: 1, BindCount: 1},
	})
	require.NoError(t, err)

	sam := sr.GetSampler(0)
	assert.True(sam.IsStaticSampler())
	assert.Equal(desc, sam.GetStaticSamplerDesc())
}

func TestStaticSamplerIsRegisteredNotPlaced(t *testing.T) {
	assert := assert.New(t)

	sr, err := NewShaderResources(metadata.ShaderDesc{
		Name:                "Static sampler PS",
		ShaderType:          metadata.ShaderTypePixel,
		DefaultVariableType: metadata.ShaderVariableTypeMutable,
		StaticSamplers:      []metadata.StaticSamplerDesc{{TextureName: "g_Shadow"}},
	}, []ResourceDesc{
		{Name: "g_Shadow", Category: metadata.CachedResourceTypeTexSRV, BindPoint: 0, BindCount: 1},
		{Name: "g_Shadow_sampler", Category: metadata.CachedResourceTypeSampler, BindPoint: 0, BindCount: 1},
	})
	require.NoError(t, err)

	rs := NewRootSignature(63)
	layout := NewShaderResourceLayout()
	layout.Initialize(sr, nil, nil, rs)

	assert.Equal(uint32(0), layout.GetTotalSamplerCount())
	assert.False(layout.GetVariableByName("g_Shadow").GetBinding().IsValidSampler())
	require.Len(t, rs.GetImmutableSamplers(), 1)
	assert.Equal("g_Shadow", rs.GetImmutableSamplers()[0].TextureName)
	assert.Equal(uint32(1), rs.GetNumRootTables())
}

func TestStaticSamplerWithoutSamplerVariableWarns(t *testing.T) {
	logs := captureLogs(t)

	_, err := NewShaderResources(metadata.ShaderDesc{
		Name:           "Lonely PS",
		ShaderType:     metadata.ShaderTypePixel,
		StaticSamplers: []metadata.StaticSamplerDesc{{TextureName: "g_Tex"}},
	}, []ResourceDesc{
		{Name: "g_Tex", Category: metadata.CachedResourceTypeTexSRV, BindPoint: 0, BindCount: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, countWarnings(logs))
}

func TestNewShaderResourcesErrors(t *testing.T) {
	tests := []struct {
		name      string
		desc      metadata.ShaderDesc
		resources []ResourceDesc
		target    error
	}{
		{
			name:   "invalid stage",
			desc:   metadata.ShaderDesc{Name: "Bad", ShaderType: metadata.ShaderTypeUnknown},
			target: core.ErrInvalidShaderStage,
		},
		{
			name:   "invalid default variable type",
			desc:   metadata.ShaderDesc{Name: "Bad", ShaderType: metadata.ShaderTypeVertex, DefaultVariableType: metadata.ShaderVariableTypeNumTypes},
			target: core.ErrInvalidVariableType,
		},
		{
			name: "duplicate resource",
			desc: metadata.ShaderDesc{Name: "Bad", ShaderType: metadata.ShaderTypeVertex},
			resources: []ResourceDesc{
				{Name: "g_A", Category: metadata.CachedResourceTypeCBV, BindCount: 1},
				{Name: "g_A", Category: metadata.CachedResourceTypeBufSRV, BindCount: 1},
			},
			target: core.ErrDuplicateResource,
		},
		{
			name: "unknown category",
			desc: metadata.ShaderDesc{Name: "Bad", ShaderType: metadata.ShaderTypeVertex},
			resources: []ResourceDesc{
				{Name: "g_A", Category: metadata.CachedResourceTypeUnknown, BindCount: 1},
			},
			target: core.ErrUnknownResourceCategory,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sr, err := NewShaderResources(tt.desc, tt.resources)
			assert.Nil(t, sr)
			assert.ErrorIs(t, err, tt.target)
		})
	}
}

func TestZeroBindCountIsRejected(t *testing.T) {
	_, err := NewShaderResources(metadata.ShaderDesc{Name: "Bad", ShaderType: metadata.ShaderTypeCompute}, []ResourceDesc{
		{Name: "g_Empty", Category: metadata.CachedResourceTypeBufUAV, BindCount: 0},
	})
	assert.Error(t, err)
}

func TestOverlappingBindPointsAreRejected(t *testing.T) {
	desc := metadata.ShaderDesc{Name: "Overlap PS", ShaderType: metadata.ShaderTypePixel}

	tests := []struct {
		name      string
		resources []ResourceDesc
		wantErr   bool
	}{
		{
			name: "same binding in two groups",
			resources: []ResourceDesc{
				{Name: "g_A", Category: metadata.CachedResourceTypeCBV, BindPoint: 0, BindCount: 1, Space: 0},
				{Name: "g_B", Category: metadata.CachedResourceTypeCBV, BindPoint: 0, BindCount: 1, Space: 1},
			},
			wantErr: true,
		},
		{
			name: "array extent covers the next binding",
			resources: []ResourceDesc{
				{Name: "g_Textures", Category: metadata.CachedResourceTypeTexSRV, BindPoint: 0, BindCount: 3},
				{Name: "g_Lights", Category: metadata.CachedResourceTypeBufSRV, BindPoint: 1, BindCount: 1},
			},
			wantErr: true,
		},
		{
			name: "adjacent ranges",
			resources: []ResourceDesc{
				{Name: "g_Textures", Category: metadata.CachedResourceTypeTexSRV, BindPoint: 0, BindCount: 3},
				{Name: "g_Lights", Category: metadata.CachedResourceTypeBufSRV, BindPoint: 3, BindCount: 1},
			},
		},
		{
			name: "same binding in different range types",
			resources: []ResourceDesc{
				{Name: "g_Params", Category: metadata.CachedResourceTypeCBV, BindPoint: 0, BindCount: 1},
				{Name: "g_Texture", Category: metadata.CachedResourceTypeTexSRV, BindPoint: 0, BindCount: 1},
				{Name: "g_Output", Category: metadata.CachedResourceTypeBufUAV, BindPoint: 0, BindCount: 1},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewShaderResources(desc, tt.resources)
			if tt.wantErr {
				assert.ErrorIs(t, err, core.ErrOverlappingBindPoints)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestStaticSamplerTakesNoBindRange(t *testing.T) {
	_, err := NewShaderResources(metadata.ShaderDesc{
		Name:       "Static sampler overlap PS",
		ShaderType: metadata.ShaderTypePixel,
		StaticSamplers: []metadata.StaticSamplerDesc{
			{TextureName: "g_Shadow"},
		},
	}, []ResourceDesc{
		{Name: "g_Shadow", Category: metadata.CachedResourceTypeTexSRV, BindPoint: 0, BindCount: 1},
		{Name: "g_Shadow_sampler", Category: metadata.CachedResourceTypeSampler, BindPoint: 0, BindCount: 1},
		{Name: "g_Albedo", Category: metadata.CachedResourceTypeTexSRV, BindPoint: 1, BindCount: 1},
		{Name: "g_Albedo_sampler", Category: metadata.CachedResourceTypeSampler, BindPoint: 0, BindCount: 1},
	})
	assert.NoError(t, err)
}

func TestSamplerArraySizeMismatch(t *testing.T) {
	assert := assert.New(t)
	desc := metadata.ShaderDesc{Name: "Array PS", ShaderType: metadata.ShaderTypePixel}

	_, err := NewShaderResources(desc, []ResourceDesc{
		{Name: "g_Tex", Category: metadata.CachedResourceTypeTexSRV, BindCount: 4},
		{Name: "g_Tex_sampler", Category: metadata.CachedResourceTypeSampler, BindCount: 2},
	})
	assert.Error(err)

	_, err = NewShaderResources(desc, []ResourceDesc{
		{Name: "g_Tex", Category: metadata.CachedResourceTypeTexSRV, BindCount: 4},
		{Name: "g_Tex_sampler", Category: metadata.CachedResourceTypeSampler, BindCount: 4},
	})
	assert.NoError(err)

	_, err = NewShaderResources(desc, []ResourceDesc{
		{Name: "g_Tex", Category: metadata.CachedResourceTypeTexSRV, BindCount: 4},
		{Name: "g_Tex_sampler", Category: metadata.CachedResourceTypeSampler, BindCount: 1},
	})
	assert.NoError(err)
}

func TestProcessResourcesOrderAndFilter(t *testing.T) {
	assert := assert.New(t)

	sr, err := NewShaderResources(metadata.ShaderDesc{
		Name:                "Order CS",
		ShaderType:          metadata.ShaderTypeCompute,
		DefaultVariableType: metadata.ShaderVariableTypeMutable,
		VariableDesc: []metadata.ShaderVariableDesc{
			{Name: "g_Params", Type: metadata.ShaderVariableTypeStatic},
		},
	}, []ResourceDesc{
		{Name: "g_Output", Category: metadata.CachedResourceTypeBufUAV, BindPoint: 1, BindCount: 1},
		{Name: "g_Input", Category: metadata.CachedResourceTypeBufSRV, BindPoint: 1, BindCount: 1},
		{Name: "g_Image", Category: metadata.CachedResourceTypeTexUAV, BindCount: 1},
		{Name: "g_Source", Category: metadata.CachedResourceTypeTexSRV, BindCount: 1},
		{Name: "g_Params", Category: metadata.CachedResourceTypeCBV, BindCount: 1},
	})
	require.NoError(t, err)

	var order []string
	record := func(a *ShaderResourceAttribs) { order = append(order, a.Name) }
	all := ResourceHandlers{OnCB: record, OnTexSRV: record, OnTexUAV: record, OnBufSRV: record, OnBufUAV: record}

	sr.ProcessResources(nil, all)
	assert.Equal([]string{"g_Params", "g_Source", "g_Image", "g_Input", "g_Output"}, order)

	order = nil
	sr.ProcessResources([]metadata.ShaderVariableType{metadata.ShaderVariableTypeMutable}, all)
	assert.Equal([]string{"g_Source", "g_Image", "g_Input", "g_Output"}, order)

	order = nil
	sr.ProcessResources(nil, ResourceHandlers{OnBufSRV: record})
	assert.Equal([]string{"g_Input"}, order)
}

func TestCountResources(t *testing.T) {
	assert := assert.New(t)
	sr := scenarioResources(t)

	assert.Equal(ResourceCounts{NumCBs: 1, NumTexSRVs: 1, NumBufUAVs: 1, NumSamplers: 1}, sr.CountResources(nil))
	assert.Equal(ResourceCounts{NumCBs: 1}, sr.CountResources([]metadata.ShaderVariableType{metadata.ShaderVariableTypeStatic}))
	assert.Equal(ResourceCounts{NumTexSRVs: 1, NumSamplers: 1},
		sr.CountResources([]metadata.ShaderVariableType{metadata.ShaderVariableTypeMutable}))
}

func TestShaderResourcesHash(t *testing.T) {
	assert := assert.New(t)
	desc := metadata.ShaderDesc{Name: "Hash VS", ShaderType: metadata.ShaderTypeVertex}

	build := func(name string, bindPoint uint32) *ShaderResources {
		sr, err := NewShaderResources(desc, []ResourceDesc{
			{Name: name, Category: metadata.CachedResourceTypeCBV, BindPoint: bindPoint, BindCount: 1},
		})
		require.NoError(t, err)
		return sr
	}

	assert.Equal(build("g_A", 0).GetHash(), build("g_B", 0).GetHash())
	assert.NotEqual(build("g_A", 0).GetHash(), build("g_A", 1).GetHash())
}

func TestGetPrintName(t *testing.T) {
	assert.Equal(t, "g_Tex", (&ShaderResourceAttribs{Name: "g_Tex", BindCount: 1}).GetPrintName(0))
	assert.Equal(t, "g_Tex[2]", (&ShaderResourceAttribs{Name: "g_Tex", BindCount: 3}).GetPrintName(2))
}
