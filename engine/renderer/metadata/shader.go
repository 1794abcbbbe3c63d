package metadata

import (
	"fmt"
	"strings"
)

/** @brief Shader stages available in the system. Values are bit flags. */
type ShaderType uint32

const (
	ShaderTypeUnknown  ShaderType = 0x00
	ShaderTypeVertex   ShaderType = 0x01
	ShaderTypePixel    ShaderType = 0x02
	ShaderTypeGeometry ShaderType = 0x04
	ShaderTypeHull     ShaderType = 0x08
	ShaderTypeDomain   ShaderType = 0x10
	ShaderTypeCompute  ShaderType = 0x20
)

/** @brief The number of distinct shader stages. */
const NumShaderTypes = 6

/**
 * @brief Returns the zero-based stage index of a single-stage shader type,
 * or -1 when t is not exactly one stage.
 */
func ShaderTypeToIndex(t ShaderType) int {
	switch t {
	case ShaderTypeVertex:
		return 0
	case ShaderTypePixel:
		return 1
	case ShaderTypeGeometry:
		return 2
	case ShaderTypeHull:
		return 3
	case ShaderTypeDomain:
		return 4
	case ShaderTypeCompute:
		return 5
	default:
		return -1
	}
}

func (t ShaderType) String() string {
	switch t {
	case ShaderTypeVertex:
		return "vertex"
	case ShaderTypePixel:
		return "pixel"
	case ShaderTypeGeometry:
		return "geometry"
	case ShaderTypeHull:
		return "hull"
	case ShaderTypeDomain:
		return "domain"
	case ShaderTypeCompute:
		return "compute"
	default:
		return "unknown"
	}
}

func ShaderTypeFromString(s string) (ShaderType, error) {
	switch strings.ToLower(s) {
	case "vertex", "vs":
		return ShaderTypeVertex, nil
	case "pixel", "fragment", "ps", "fs":
		return ShaderTypePixel, nil
	case "geometry", "gs":
		return ShaderTypeGeometry, nil
	case "hull", "hs":
		return ShaderTypeHull, nil
	case "domain", "ds":
		return ShaderTypeDomain, nil
	case "compute", "cs":
		return ShaderTypeCompute, nil
	}
	return ShaderTypeUnknown, fmt.Errorf("string %s is not a valid ShaderType", s)
}

/**
 * @brief Describes how often a shader variable may be rebound. The classes
 * are ordered from the least to the most frequently changing.
 */
type ShaderVariableType uint8

const (
	/** @brief Bound once on the shader, shared by every binding instance. */
	ShaderVariableTypeStatic ShaderVariableType = iota
	/** @brief Bound once per shader resource binding object. */
	ShaderVariableTypeMutable
	/** @brief May be rebound on every draw or dispatch call. */
	ShaderVariableTypeDynamic
	/** @brief The number of variable types. */
	ShaderVariableTypeNumTypes
)

func (t ShaderVariableType) String() string {
	switch t {
	case ShaderVariableTypeStatic:
		return "static"
	case ShaderVariableTypeMutable:
		return "mutable"
	case ShaderVariableTypeDynamic:
		return "dynamic"
	default:
		return "unknown"
	}
}

func ParseShaderVariableType(s string) (ShaderVariableType, error) {
	switch strings.ToLower(s) {
	case "static":
		return ShaderVariableTypeStatic, nil
	case "mutable":
		return ShaderVariableTypeMutable, nil
	case "dynamic":
		return ShaderVariableTypeDynamic, nil
	}
	return ShaderVariableTypeNumTypes, fmt.Errorf("string %s is not a valid ShaderVariableType", s)
}

/**
 * @brief Builds a bit mask from a list of variable types. An empty list means
 * every type is allowed.
 */
func ShaderVariableTypeBits(allowed []ShaderVariableType) uint32 {
	if len(allowed) == 0 {
		return (1 << uint32(ShaderVariableTypeNumTypes)) - 1
	}
	var bits uint32
	for _, t := range allowed {
		bits |= 1 << uint32(t)
	}
	return bits
}

/** @brief Reports whether t is set in a mask built by ShaderVariableTypeBits. */
func IsAllowedType(t ShaderVariableType, bits uint32) bool {
	return bits&(1<<uint32(t)) != 0
}

/** @brief Overrides the variable type of a single named shader variable. */
type ShaderVariableDesc struct {
	Name string
	Type ShaderVariableType
}

/** @brief A sampler baked into the root signature for the named texture. */
type StaticSamplerDesc struct {
	TextureName string
	Desc        SamplerDesc
}

/**
 * @brief Describes a shader to be created by the device.
 */
type ShaderDesc struct {
	/** @brief The shader name, used in diagnostics. */
	Name string
	/** @brief The single stage this shader runs in. */
	ShaderType ShaderType
	/** @brief The type assigned to variables without an override. */
	DefaultVariableType ShaderVariableType
	/** @brief Per-variable type overrides. */
	VariableDesc []ShaderVariableDesc
	/** @brief Samplers fixed at pipeline creation time. */
	StaticSamplers []StaticSamplerDesc
}

/** @brief Returns the type of the named variable, falling back to the default. */
func (d *ShaderDesc) VariableType(name string) ShaderVariableType {
	for _, v := range d.VariableDesc {
		if v.Name == name {
			return v.Type
		}
	}
	return d.DefaultVariableType
}

/** @brief Returns the static sampler declared for the texture, if any. */
func (d *ShaderDesc) StaticSampler(textureName string) (*StaticSamplerDesc, bool) {
	for i := range d.StaticSamplers {
		if d.StaticSamplers[i].TextureName == textureName {
			return &d.StaticSamplers[i], true
		}
	}
	return nil, false
}
