package renderer

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/spaghettifunk/anima-hal/engine/core"
	"github.com/spaghettifunk/anima-hal/engine/math"
	"github.com/spaghettifunk/anima-hal/engine/renderer/binding"
	"github.com/spaghettifunk/anima-hal/engine/renderer/metadata"
)

// Constant buffer sizes are rounded up to this alignment.
const ConstantBufferAlignment uint64 = 256

type RendererType uint8

const (
	Vulkan RendererType = iota
	DirectX
	Metal
	OpenGL
)

/**
 * @brief The device creates every GPU object and owns the shader-visible
 * descriptor heaps that resource caches allocate from.
 */
type Device struct {
	rendererType RendererType
	config       core.BindingConfig
	// CPU descriptor handles are pool ids offset by one; zero stays null.
	handles *core.IdentifierPool
	heaps   binding.ShaderVisibleHeaps
}

func NewDevice(rendererType RendererType, config core.BindingConfig) *Device {
	return &Device{
		rendererType: rendererType,
		config:       config,
		handles:      core.NewIdentifierPool(256),
		heaps: binding.ShaderVisibleHeaps{
			CbvSrvUav: binding.NewDescriptorHeap(metadata.DescriptorHeapTypeCbvSrvUav, config.CbvSrvUavHeapSize),
			Sampler:   binding.NewDescriptorHeap(metadata.DescriptorHeapTypeSampler, config.SamplerHeapSize),
		},
	}
}

func (d *Device) GetRendererType() RendererType {
	return d.rendererType
}

func (d *Device) GetConfig() core.BindingConfig {
	return d.config
}

func (d *Device) GetShaderVisibleHeaps() binding.ShaderVisibleHeaps {
	return d.heaps
}

func (d *Device) allocateHandle(owner interface{}) metadata.DescriptorHandle {
	return metadata.DescriptorHandle(d.handles.AquireNewID(owner)) + 1
}

/** @brief Returns the CPU descriptor handle of a view or sampler to the device. */
func (d *Device) ReleaseHandle(handle metadata.DescriptorHandle) error {
	if handle.IsNull() {
		return nil
	}
	return d.handles.ReleaseID(uint32(handle - 1))
}

/**
 * @brief Creates a buffer. Uniform buffers are padded to the constant buffer
 * alignment and, unless dynamic, get a constant buffer view.
 */
func (d *Device) CreateBuffer(desc metadata.BufferDesc) (*metadata.Buffer, error) {
	if desc.Size == 0 {
		err := fmt.Errorf("failed to create buffer '%s': size must be greater than 0", desc.Name)
		core.LogError(err.Error())
		return nil, err
	}
	id := core.NewObjectID()
	if desc.Name == "" {
		desc.Name = core.DefaultObjectName("Buffer", id)
	}

	var cbv metadata.DescriptorHandle
	if desc.BindFlags.Contains(gputypes.BufferUsageUniform) {
		desc.Size = math.AlignUp(desc.Size, ConstantBufferAlignment)
		if desc.Usage != metadata.ResourceUsageDynamic {
			cbv = d.allocateHandle(desc.Name)
		}
	}
	return metadata.NewBuffer(desc, id, cbv), nil
}

/** @brief Creates a shader resource or unordered access view of a storage buffer. */
func (d *Device) CreateBufferView(buffer *metadata.Buffer, desc metadata.BufferViewDesc) (*metadata.BufferView, error) {
	if buffer == nil {
		return nil, fmt.Errorf("failed to create buffer view '%s': buffer is nil", desc.Name)
	}
	if desc.ViewType != metadata.BufferViewTypeShaderResource && desc.ViewType != metadata.BufferViewTypeUnorderedAccess {
		err := fmt.Errorf("failed to create view of buffer '%s': unsupported view type %s", buffer.GetName(), desc.ViewType)
		core.LogError(err.Error())
		return nil, err
	}
	if !buffer.Desc.BindFlags.Contains(gputypes.BufferUsageStorage) {
		err := fmt.Errorf("failed to create %s view of buffer '%s': the buffer was not created with the storage usage flag", desc.ViewType, buffer.GetName())
		core.LogError(err.Error())
		return nil, err
	}
	if desc.ByteWidth == 0 && desc.ByteOffset < buffer.Desc.Size {
		desc.ByteWidth = buffer.Desc.Size - desc.ByteOffset
	}
	if desc.ByteWidth == 0 || desc.ByteOffset+desc.ByteWidth > buffer.Desc.Size {
		err := fmt.Errorf("failed to create view of buffer '%s': range [%d, %d) is outside of the buffer (%d bytes)",
			buffer.GetName(), desc.ByteOffset, desc.ByteOffset+desc.ByteWidth, buffer.Desc.Size)
		core.LogError(err.Error())
		return nil, err
	}

	id := core.NewObjectID()
	if desc.Name == "" {
		desc.Name = core.DefaultObjectName("BufferView", id)
	}
	return metadata.NewBufferView(desc, buffer, id, d.allocateHandle(desc.Name)), nil
}

func (d *Device) CreateTexture(desc metadata.TextureDesc) (*metadata.Texture, error) {
	if desc.Width == 0 || desc.Height == 0 {
		err := fmt.Errorf("failed to create texture '%s': invalid size %dx%d", desc.Name, desc.Width, desc.Height)
		core.LogError(err.Error())
		return nil, err
	}
	if desc.DepthOrArraySize == 0 {
		desc.DepthOrArraySize = 1
	}
	if desc.MipLevels == 0 {
		desc.MipLevels = 1
	}
	id := core.NewObjectID()
	if desc.Name == "" {
		desc.Name = core.DefaultObjectName("Texture", id)
	}
	return metadata.NewTexture(desc, id), nil
}

/**
 * @brief Creates a view of a texture. Only shader resource and unordered
 * access views carry a descriptor that can be bound to shader variables.
 */
func (d *Device) CreateTextureView(texture *metadata.Texture, desc metadata.TextureViewDesc) (*metadata.TextureView, error) {
	if texture == nil {
		return nil, fmt.Errorf("failed to create texture view '%s': texture is nil", desc.Name)
	}
	if desc.ViewType == metadata.TextureViewTypeShaderResource && !texture.IsShaderReadable() {
		err := fmt.Errorf("failed to create shader resource view of texture '%s': the texture was not created with the texture binding usage flag", texture.GetName())
		core.LogError(err.Error())
		return nil, err
	}
	if desc.Format == gputypes.TextureFormatUndefined {
		desc.Format = texture.Desc.Format
	}

	id := core.NewObjectID()
	if desc.Name == "" {
		desc.Name = core.DefaultObjectName("TextureView", id)
	}
	var handle metadata.DescriptorHandle
	switch desc.ViewType {
	case metadata.TextureViewTypeShaderResource, metadata.TextureViewTypeUnorderedAccess:
		handle = d.allocateHandle(desc.Name)
	case metadata.TextureViewTypeUndefined:
		err := fmt.Errorf("failed to create view of texture '%s': view type is undefined", texture.GetName())
		core.LogError(err.Error())
		return nil, err
	}
	return metadata.NewTextureView(desc, texture, id, handle), nil
}

func (d *Device) CreateSampler(desc metadata.SamplerDesc) (*metadata.Sampler, error) {
	if desc.MaxAnisotropy == 0 {
		desc.MaxAnisotropy = 1
	}
	id := core.NewObjectID()
	if desc.Name == "" {
		desc.Name = core.DefaultObjectName("Sampler", id)
	}
	return metadata.NewSampler(desc, id, d.allocateHandle(desc.Name)), nil
}

/** @brief Creates a shader from its description and reflected resources. */
func (d *Device) CreateShader(desc metadata.ShaderDesc, resources []binding.ResourceDesc) (*Shader, error) {
	return newShader(desc, resources)
}

/** @brief Creates a pipeline state and lays out its root signature. */
func (d *Device) CreatePipelineState(desc PipelineStateDesc) (*PipelineState, error) {
	return newPipelineState(d, desc)
}

/** @brief Creates an immediate context that commits bindings for draws. */
func (d *Device) CreateDeviceContext() *DeviceContext {
	return newDeviceContext(d)
}
