package vulkan

import (
	"sort"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/anima-hal/engine/core"
	"github.com/spaghettifunk/anima-hal/engine/renderer/binding"
	"github.com/spaghettifunk/anima-hal/engine/renderer/metadata"
)

/**
 * @brief The configuration for a descriptor set. Each root table maps to one
 * set; static samplers of a stage get a set of their own.
 */
type VulkanDescriptorSetConfig struct {
	/** @brief The set index, in root table order. */
	Set uint32
	/** @brief The root table this set mirrors. InvalidRootIndex for static sampler sets. */
	RootIndex uint32
	/** @brief The stage that reads the set. */
	ShaderType metadata.ShaderType
	/** @brief Dynamic sets are written once per draw. */
	Dynamic bool
	/** @brief The binding layouts of this set, one per descriptor range. */
	Bindings []vk.DescriptorSetLayoutBinding
	/** @brief The index of the first sampler binding, or -1. */
	SamplerBindingIndex int
}

/**
 * @brief Builds the create info for the set layout. The returned struct
 * points into the config's bindings.
 */
func (c *VulkanDescriptorSetConfig) LayoutCreateInfo() vk.DescriptorSetLayoutCreateInfo {
	return vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(c.Bindings)),
		PBindings:    c.Bindings,
	}
}

// DescriptorTypeOf maps a cached resource type to the Vulkan descriptor type
// that backs it.
func DescriptorTypeOf(resType metadata.CachedResourceType) vk.DescriptorType {
	switch resType {
	case metadata.CachedResourceTypeCBV:
		return vk.DescriptorTypeUniformBuffer
	case metadata.CachedResourceTypeTexSRV:
		return vk.DescriptorTypeSampledImage
	case metadata.CachedResourceTypeTexUAV:
		return vk.DescriptorTypeStorageImage
	case metadata.CachedResourceTypeBufSRV, metadata.CachedResourceTypeBufUAV:
		return vk.DescriptorTypeStorageBuffer
	case metadata.CachedResourceTypeSampler:
		return vk.DescriptorTypeSampler
	}
	core.Unexpected("unknown resource type %d", resType)
	return vk.DescriptorTypeSampler
}

// ShaderStageFlags maps a single shader stage to its Vulkan stage bit.
func ShaderStageFlags(shaderType metadata.ShaderType) vk.ShaderStageFlags {
	switch shaderType {
	case metadata.ShaderTypeVertex:
		return vk.ShaderStageFlags(vk.ShaderStageVertexBit)
	case metadata.ShaderTypePixel:
		return vk.ShaderStageFlags(vk.ShaderStageFragmentBit)
	case metadata.ShaderTypeGeometry:
		return vk.ShaderStageFlags(vk.ShaderStageGeometryBit)
	case metadata.ShaderTypeHull:
		return vk.ShaderStageFlags(vk.ShaderStageTessellationControlBit)
	case metadata.ShaderTypeDomain:
		return vk.ShaderStageFlags(vk.ShaderStageTessellationEvaluationBit)
	case metadata.ShaderTypeCompute:
		return vk.ShaderStageFlags(vk.ShaderStageComputeBit)
	}
	core.Unexpected("unknown shader type %d", shaderType)
	return 0
}

// DescriptorSetLayoutBindings translates a finalized root signature into
// descriptor set configs. Binding numbers are the range offsets within their
// table, so a cache slot and its Vulkan binding share an index.
func DescriptorSetLayoutBindings(rs *binding.RootSignature) []VulkanDescriptorSetConfig {
	core.Verify(rs.IsFinalized(), "root signature must be finalized before it is translated")

	tables := rs.GetTables()
	configs := make([]VulkanDescriptorSetConfig, 0, len(tables))
	for i := range tables {
		t := &tables[i]
		config := VulkanDescriptorSetConfig{
			Set:                 uint32(len(configs)),
			RootIndex:           t.RootIndex,
			ShaderType:          t.ShaderType,
			Dynamic:             t.Dynamic,
			Bindings:            make([]vk.DescriptorSetLayoutBinding, 0, len(t.Ranges)),
			SamplerBindingIndex: -1,
		}
		stage := ShaderStageFlags(t.ShaderType)
		for _, r := range t.Ranges {
			if r.ResourceType == metadata.CachedResourceTypeSampler && config.SamplerBindingIndex < 0 {
				config.SamplerBindingIndex = len(config.Bindings)
			}
			config.Bindings = append(config.Bindings, vk.DescriptorSetLayoutBinding{
				Binding:         r.OffsetFromTableStart,
				DescriptorType:  DescriptorTypeOf(r.ResourceType),
				DescriptorCount: r.Count,
				StageFlags:      stage,
			})
		}
		configs = append(configs, config)
	}

	// static samplers, one set per stage, bound at their shader bind points
	byStage := make(map[metadata.ShaderType]int)
	for _, s := range rs.GetImmutableSamplers() {
		idx, ok := byStage[s.ShaderType]
		if !ok {
			configs = append(configs, VulkanDescriptorSetConfig{
				Set:                 uint32(len(configs)),
				RootIndex:           binding.InvalidRootIndex,
				ShaderType:          s.ShaderType,
				SamplerBindingIndex: 0,
			})
			idx = len(configs) - 1
			byStage[s.ShaderType] = idx
		}
		configs[idx].Bindings = append(configs[idx].Bindings, vk.DescriptorSetLayoutBinding{
			Binding:         s.BindPoint,
			DescriptorType:  vk.DescriptorTypeSampler,
			DescriptorCount: s.BindCount,
			StageFlags:      ShaderStageFlags(s.ShaderType),
		})
	}
	return configs
}

// DescriptorPoolSizes totals the descriptors of every set of rs by type,
// scaled for a pool that serves maxSets copies of the layout.
func DescriptorPoolSizes(rs *binding.RootSignature, maxSets uint32) []vk.DescriptorPoolSize {
	totals := make(map[vk.DescriptorType]uint32)
	for _, config := range DescriptorSetLayoutBindings(rs) {
		for _, b := range config.Bindings {
			totals[b.DescriptorType] += b.DescriptorCount
		}
	}

	sizes := make([]vk.DescriptorPoolSize, 0, len(totals))
	for t, count := range totals {
		sizes = append(sizes, vk.DescriptorPoolSize{
			Type:            t,
			DescriptorCount: count * maxSets,
		})
	}
	sort.Slice(sizes, func(i, j int) bool { return sizes[i].Type < sizes[j].Type })
	return sizes
}
