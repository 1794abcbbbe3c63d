package metadata

import (
	"github.com/gogpu/gputypes"
	"github.com/google/uuid"
)

/**
 * @brief Common interface of every object created by the device.
 */
type DeviceObject interface {
	/** @brief The object name, used in diagnostics. */
	GetName() string
	/** @brief The unique object identity. */
	GetID() uuid.UUID
}

/** @brief How often the CPU updates a resource's contents. */
type ResourceUsage uint8

const (
	/** @brief Written once at creation time. */
	ResourceUsageStatic ResourceUsage = iota
	/** @brief Updated occasionally through copies. */
	ResourceUsageDefault
	/** @brief Rewritten every frame. Dynamic buffers carry no persistent descriptor. */
	ResourceUsageDynamic
)

/**
 * @brief Describes a buffer.
 */
type BufferDesc struct {
	Name string
	/** @brief Size in bytes. */
	Size uint64
	/** @brief What the buffer may be bound as. */
	BindFlags gputypes.BufferUsage
	Usage     ResourceUsage
}

/**
 * @brief Represents a GPU buffer.
 */
type Buffer struct {
	Desc      BufferDesc
	id        uuid.UUID
	cbvHandle DescriptorHandle
}

func NewBuffer(desc BufferDesc, id uuid.UUID, cbvHandle DescriptorHandle) *Buffer {
	return &Buffer{Desc: desc, id: id, cbvHandle: cbvHandle}
}

func (b *Buffer) GetName() string     { return b.Desc.Name }
func (b *Buffer) GetID() uuid.UUID    { return b.id }
func (b *Buffer) GetDesc() BufferDesc { return b.Desc }

/** @brief Reports whether the buffer can be bound as a constant buffer. */
func (b *Buffer) IsConstantBuffer() bool {
	return b.Desc.BindFlags.Contains(gputypes.BufferUsageUniform)
}

/** @brief The constant buffer view descriptor. Null for dynamic buffers. */
func (b *Buffer) CBVHandle() DescriptorHandle {
	return b.cbvHandle
}

type BufferViewType uint8

const (
	BufferViewTypeUndefined BufferViewType = iota
	BufferViewTypeShaderResource
	BufferViewTypeUnorderedAccess
)

func (t BufferViewType) String() string {
	switch t {
	case BufferViewTypeShaderResource:
		return "shader resource"
	case BufferViewTypeUnorderedAccess:
		return "unordered access"
	default:
		return "undefined"
	}
}

type BufferViewDesc struct {
	Name       string
	ViewType   BufferViewType
	ByteOffset uint64
	ByteWidth  uint64
}

/**
 * @brief A view of a buffer as a shader resource or an unordered access target.
 */
type BufferView struct {
	Desc   BufferViewDesc
	buffer *Buffer
	id     uuid.UUID
	handle DescriptorHandle
}

func NewBufferView(desc BufferViewDesc, buffer *Buffer, id uuid.UUID, handle DescriptorHandle) *BufferView {
	return &BufferView{Desc: desc, buffer: buffer, id: id, handle: handle}
}

func (v *BufferView) GetName() string                          { return v.Desc.Name }
func (v *BufferView) GetID() uuid.UUID                         { return v.id }
func (v *BufferView) GetBuffer() *Buffer                       { return v.buffer }
func (v *BufferView) GetCPUDescriptorHandle() DescriptorHandle { return v.handle }

/**
 * @brief Describes a texture.
 */
type TextureDesc struct {
	Name      string
	Dimension gputypes.TextureDimension
	Format    gputypes.TextureFormat
	Width     uint32
	Height    uint32
	/** @brief Depth for 3D textures, array size otherwise. */
	DepthOrArraySize uint32
	MipLevels        uint32
	Usage            gputypes.TextureUsage
}

/**
 * @brief Represents a texture.
 */
type Texture struct {
	Desc TextureDesc
	id   uuid.UUID
}

func NewTexture(desc TextureDesc, id uuid.UUID) *Texture {
	return &Texture{Desc: desc, id: id}
}

func (t *Texture) GetName() string  { return t.Desc.Name }
func (t *Texture) GetID() uuid.UUID { return t.id }

/** @brief Reports whether shader resource views may be created for the texture. */
func (t *Texture) IsShaderReadable() bool {
	return t.Desc.Usage&gputypes.TextureUsageTextureBinding != 0
}

type TextureViewType uint8

const (
	TextureViewTypeUndefined TextureViewType = iota
	TextureViewTypeShaderResource
	TextureViewTypeUnorderedAccess
	TextureViewTypeRenderTarget
	TextureViewTypeDepthStencil
)

func (t TextureViewType) String() string {
	switch t {
	case TextureViewTypeShaderResource:
		return "shader resource"
	case TextureViewTypeUnorderedAccess:
		return "unordered access"
	case TextureViewTypeRenderTarget:
		return "render target"
	case TextureViewTypeDepthStencil:
		return "depth stencil"
	default:
		return "undefined"
	}
}

type TextureViewDesc struct {
	Name      string
	ViewType  TextureViewType
	Dimension gputypes.TextureViewDimension
	Format    gputypes.TextureFormat
}

/**
 * @brief A view of a texture. Shader resource views may carry the sampler
 * used to sample them.
 */
type TextureView struct {
	Desc    TextureViewDesc
	texture *Texture
	id      uuid.UUID
	handle  DescriptorHandle
	sampler *Sampler
}

func NewTextureView(desc TextureViewDesc, texture *Texture, id uuid.UUID, handle DescriptorHandle) *TextureView {
	return &TextureView{Desc: desc, texture: texture, id: id, handle: handle}
}

func (v *TextureView) GetName() string                          { return v.Desc.Name }
func (v *TextureView) GetID() uuid.UUID                         { return v.id }
func (v *TextureView) GetTexture() *Texture                     { return v.texture }
func (v *TextureView) GetCPUDescriptorHandle() DescriptorHandle { return v.handle }

/** @brief The sampler assigned to this view, or nil. */
func (v *TextureView) GetSampler() *Sampler {
	return v.sampler
}

/** @brief Assigns the sampler used with this view. Nil clears it. */
func (v *TextureView) SetSampler(s *Sampler) {
	v.sampler = s
}

type FilterType uint8

const (
	FilterTypePoint FilterType = iota
	FilterTypeLinear
	FilterTypeAnisotropic
	FilterTypeComparisonLinear
)

type TextureAddressMode uint8

const (
	TextureAddressWrap TextureAddressMode = iota
	TextureAddressMirror
	TextureAddressClamp
	TextureAddressBorder
)

/**
 * @brief Describes a sampler.
 */
type SamplerDesc struct {
	Name          string
	MinFilter     FilterType
	MagFilter     FilterType
	MipFilter     FilterType
	AddressU      TextureAddressMode
	AddressV      TextureAddressMode
	AddressW      TextureAddressMode
	MaxAnisotropy uint32
}

/**
 * @brief Represents a sampler object.
 */
type Sampler struct {
	Desc   SamplerDesc
	id     uuid.UUID
	handle DescriptorHandle
}

func NewSampler(desc SamplerDesc, id uuid.UUID, handle DescriptorHandle) *Sampler {
	return &Sampler{Desc: desc, id: id, handle: handle}
}

func (s *Sampler) GetName() string                          { return s.Desc.Name }
func (s *Sampler) GetID() uuid.UUID                         { return s.id }
func (s *Sampler) GetCPUDescriptorHandle() DescriptorHandle { return s.handle }
