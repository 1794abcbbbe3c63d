package renderer

import (
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/spaghettifunk/anima-hal/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateBuffer(t *testing.T) {
	assert := assert.New(t)
	captureLogs(t)
	d := newTestDevice(2)

	cb, err := d.CreateBuffer(metadata.BufferDesc{Size: 100, BindFlags: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst})
	require.NoError(t, err)
	assert.Equal(uint64(256), cb.Desc.Size)
	assert.True(cb.IsConstantBuffer())
	assert.False(cb.CBVHandle().IsNull())
	assert.NotEmpty(cb.GetName())

	dyn, err := d.CreateBuffer(metadata.BufferDesc{Name: "Frame", Size: 16, BindFlags: gputypes.BufferUsageUniform, Usage: metadata.ResourceUsageDynamic})
	require.NoError(t, err)
	assert.True(dyn.CBVHandle().IsNull())
	assert.Equal("Frame", dyn.GetName())

	storage, err := d.CreateBuffer(metadata.BufferDesc{Size: 100, BindFlags: gputypes.BufferUsageStorage})
	require.NoError(t, err)
	assert.Equal(uint64(100), storage.Desc.Size)
	assert.False(storage.IsConstantBuffer())

	_, err = d.CreateBuffer(metadata.BufferDesc{Name: "Empty"})
	assert.Error(err)
}

func TestCreateBufferView(t *testing.T) {
	assert := assert.New(t)
	captureLogs(t)
	d := newTestDevice(2)

	storage, err := d.CreateBuffer(metadata.BufferDesc{Size: 512, BindFlags: gputypes.BufferUsageStorage})
	require.NoError(t, err)

	view, err := d.CreateBufferView(storage, metadata.BufferViewDesc{ViewType: metadata.BufferViewTypeShaderResource, ByteOffset: 128})
	require.NoError(t, err)
	assert.Equal(uint64(384), view.Desc.ByteWidth)
	assert.Same(storage, view.GetBuffer())
	assert.False(view.GetCPUDescriptorHandle().IsNull())

	_, err = d.CreateBufferView(storage, metadata.BufferViewDesc{ViewType: metadata.BufferViewTypeUnorderedAccess, ByteOffset: 256, ByteWidth: 512})
	assert.Error(err)
	_, err = d.CreateBufferView(storage, metadata.BufferViewDesc{ViewType: metadata.BufferViewTypeUndefined})
	assert.Error(err)

	cb, err := d.CreateBuffer(metadata.BufferDesc{Size: 256, BindFlags: gputypes.BufferUsageUniform})
	require.NoError(t, err)
	_, err = d.CreateBufferView(cb, metadata.BufferViewDesc{ViewType: metadata.BufferViewTypeShaderResource})
	assert.Error(err)
}

func TestCreateTextureView(t *testing.T) {
	assert := assert.New(t)
	captureLogs(t)
	d := newTestDevice(2)

	_, err := d.CreateTexture(metadata.TextureDesc{Width: 0, Height: 4})
	assert.Error(err)

	target, err := d.CreateTexture(metadata.TextureDesc{
		Dimension: gputypes.TextureDimension2D,
		Format:    gputypes.TextureFormatBGRA8Unorm,
		Width:     16,
		Height:    16,
		Usage:     gputypes.TextureUsageRenderAttachment,
	})
	require.NoError(t, err)
	assert.Equal(uint32(1), target.Desc.MipLevels)

	_, err = d.CreateTextureView(target, metadata.TextureViewDesc{ViewType: metadata.TextureViewTypeShaderResource})
	assert.Error(err)

	rtv, err := d.CreateTextureView(target, metadata.TextureViewDesc{ViewType: metadata.TextureViewTypeRenderTarget})
	require.NoError(t, err)
	assert.True(rtv.GetCPUDescriptorHandle().IsNull())
	assert.Equal(gputypes.TextureFormatBGRA8Unorm, rtv.Desc.Format)
}

func TestDescriptorHandlesAreReused(t *testing.T) {
	d := newTestDevice(2)
	s1, err := d.CreateSampler(metadata.SamplerDesc{})
	require.NoError(t, err)
	require.NoError(t, d.ReleaseHandle(s1.GetCPUDescriptorHandle()))

	s2, err := d.CreateSampler(metadata.SamplerDesc{})
	require.NoError(t, err)
	assert.Equal(t, s1.GetCPUDescriptorHandle(), s2.GetCPUDescriptorHandle())
	assert.NotEqual(t, s1.GetID(), s2.GetID())
	assert.Equal(t, uint32(1), s2.Desc.MaxAnisotropy)

	assert.Error(t, d.ReleaseHandle(s1.GetCPUDescriptorHandle()+1))
}
