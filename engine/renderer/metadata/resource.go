package metadata

import "github.com/spaghettifunk/anima-hal/engine/core"

type ResourceType int

/** @brief Pre-defined asset resource types. */
const (
	/** @brief Unknown or ignored file. */
	ResourceTypeNone ResourceType = iota
	/** @brief Text resource type. */
	ResourceTypeText
	/** @brief Binary resource type. */
	ResourceTypeBinary
	/** @brief Shader resource type (or more accurately shader config). */
	ResourceTypeShader
	/** @brief Shader source code referenced by a shader config. */
	ResourceTypeShaderSource
	/** @brief Custom resource type. Used by loaders outside the core engine. */
	ResourceTypeCustom
)

/**
 * @brief A generic structure for a resource. All resource loaders
 * load data into these.
 */
type Resource struct {
	/** @brief The identifier of the loader which handles this resource. */
	LoaderID uint32
	/** @brief The name of the resource. */
	Name string
	/** @brief The full file path of the resource. */
	FullPath string
	/** @brief The size of the resource data in bytes. */
	DataSize uint64
	/** @brief The resource data. */
	Data interface{}
}

/**
 * @brief The category of a shader resource, and of the object cached for it.
 */
type CachedResourceType uint8

const (
	CachedResourceTypeUnknown CachedResourceType = iota
	/** @brief Constant (uniform) buffer. */
	CachedResourceTypeCBV
	/** @brief Texture shader resource view. */
	CachedResourceTypeTexSRV
	/** @brief Buffer shader resource view. */
	CachedResourceTypeBufSRV
	/** @brief Texture unordered access view. */
	CachedResourceTypeTexUAV
	/** @brief Buffer unordered access view. */
	CachedResourceTypeBufUAV
	/** @brief Sampler. */
	CachedResourceTypeSampler
	CachedResourceTypeNumTypes
)

func (t CachedResourceType) String() string {
	switch t {
	case CachedResourceTypeCBV:
		return "constant buffer"
	case CachedResourceTypeTexSRV:
		return "texture SRV"
	case CachedResourceTypeBufSRV:
		return "buffer SRV"
	case CachedResourceTypeTexUAV:
		return "texture UAV"
	case CachedResourceTypeBufUAV:
		return "buffer UAV"
	case CachedResourceTypeSampler:
		return "sampler"
	default:
		return "unknown"
	}
}

/**
 * @brief Descriptor range kinds. The order matches the fixed tables of a
 * static resource cache.
 */
type DescriptorRangeType uint8

const (
	DescriptorRangeTypeSRV DescriptorRangeType = iota
	DescriptorRangeTypeUAV
	DescriptorRangeTypeCBV
	DescriptorRangeTypeSampler
)

/** @brief The number of descriptor range kinds, and of static cache tables. */
const NumDescriptorRangeTypes = 4

func (t DescriptorRangeType) String() string {
	switch t {
	case DescriptorRangeTypeSRV:
		return "SRV"
	case DescriptorRangeTypeUAV:
		return "UAV"
	case DescriptorRangeTypeCBV:
		return "CBV"
	case DescriptorRangeTypeSampler:
		return "Sampler"
	default:
		return "unknown"
	}
}

/** @brief Maps a resource category to the range it is placed in. */
func DescriptorRangeTypeOf(t CachedResourceType) DescriptorRangeType {
	switch t {
	case CachedResourceTypeCBV:
		return DescriptorRangeTypeCBV
	case CachedResourceTypeTexSRV, CachedResourceTypeBufSRV:
		return DescriptorRangeTypeSRV
	case CachedResourceTypeTexUAV, CachedResourceTypeBufUAV:
		return DescriptorRangeTypeUAV
	case CachedResourceTypeSampler:
		return DescriptorRangeTypeSampler
	}
	core.Unexpected("unknown cached resource type %d", t)
	return DescriptorRangeTypeSRV
}

/** @brief Descriptor heap kinds. Samplers live in their own heap. */
type DescriptorHeapType uint8

const (
	DescriptorHeapTypeCbvSrvUav DescriptorHeapType = iota
	DescriptorHeapTypeSampler
	DescriptorHeapTypeNumTypes
)

func (t DescriptorHeapType) String() string {
	if t == DescriptorHeapTypeSampler {
		return "sampler"
	}
	return "CBV/SRV/UAV"
}

func HeapTypeOf(t DescriptorRangeType) DescriptorHeapType {
	if t == DescriptorRangeTypeSampler {
		return DescriptorHeapTypeSampler
	}
	return DescriptorHeapTypeCbvSrvUav
}

/** @brief A native descriptor handle. Zero is the null handle. */
type DescriptorHandle uint64

func (h DescriptorHandle) IsNull() bool {
	return h == 0
}
