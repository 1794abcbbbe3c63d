package binding

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"sort"

	"github.com/spaghettifunk/anima-hal/engine/core"
	"github.com/spaghettifunk/anima-hal/engine/renderer/metadata"
)

// InvalidSamplerID marks a texture without a paired sampler.
const InvalidSamplerID = ^uint32(0)

// SamplerSuffix pairs a sampler with a texture: the sampler of texture "g_Tex"
// must be named "g_Tex_sampler".
const SamplerSuffix = "_sampler"

// ResourceDesc is a resource as reported by shader reflection, before it is
// assigned a variable type.
type ResourceDesc struct {
	Name      string
	Category  metadata.CachedResourceType
	BindPoint uint32
	// 1 for scalars, N for arrays.
	BindCount uint32
	// Register space or bind group. Layouts ignore it, so bind ranges of
	// one descriptor range type must be disjoint across spaces.
	Space uint32
}

// ShaderResourceAttribs describes one declared shader resource. Attribs are
// owned by ShaderResources and referenced, never copied, by layouts.
type ShaderResourceAttribs struct {
	Name         string
	BindPoint    uint32
	BindCount    uint32
	VariableType metadata.ShaderVariableType

	samplerID         uint32
	staticSampler     bool
	staticSamplerDesc metadata.SamplerDesc
}

func (a *ShaderResourceAttribs) IsValidSampler() bool {
	return a.samplerID != InvalidSamplerID
}

// GetSamplerID returns the index of the paired sampler in the sampler list.
func (a *ShaderResourceAttribs) GetSamplerID() uint32 {
	return a.samplerID
}

// IsStaticSampler reports whether this sampler is baked into the root
// signature. Static samplers never occupy a cache slot.
func (a *ShaderResourceAttribs) IsStaticSampler() bool {
	return a.staticSampler
}

func (a *ShaderResourceAttribs) GetStaticSamplerDesc() metadata.SamplerDesc {
	return a.staticSamplerDesc
}

// GetPrintName returns the name used in diagnostics, with the element index
// for arrays.
func (a *ShaderResourceAttribs) GetPrintName(arrayIndex uint32) string {
	if a.BindCount > 1 {
		return fmt.Sprintf("%s[%d]", a.Name, arrayIndex)
	}
	return a.Name
}

// IsCompatibleWith compares the binding-relevant part of two attribs.
func (a *ShaderResourceAttribs) IsCompatibleWith(other *ShaderResourceAttribs) bool {
	return a.BindPoint == other.BindPoint &&
		a.BindCount == other.BindCount &&
		a.VariableType == other.VariableType &&
		a.IsValidSampler() == other.IsValidSampler() &&
		a.staticSampler == other.staticSampler
}

// ResourceHandlers receives resources from ProcessResources. Nil handlers
// are skipped.
type ResourceHandlers struct {
	OnCB     func(*ShaderResourceAttribs)
	OnTexSRV func(*ShaderResourceAttribs)
	OnTexUAV func(*ShaderResourceAttribs)
	OnBufSRV func(*ShaderResourceAttribs)
	OnBufUAV func(*ShaderResourceAttribs)
}

// ShaderResources is the immutable reflected resource set of one shader. It
// is built once and shared by every layout compiled from the shader.
type ShaderResources struct {
	shaderName string
	shaderType metadata.ShaderType

	cbs      []ShaderResourceAttribs
	texSRVs  []ShaderResourceAttribs
	texUAVs  []ShaderResourceAttribs
	bufSRVs  []ShaderResourceAttribs
	bufUAVs  []ShaderResourceAttribs
	samplers []ShaderResourceAttribs

	hash uint64
}

// NewShaderResources classifies reflected resources using the variable types
// and static samplers of desc, and pairs every texture SRV with the sampler
// named after it.
func NewShaderResources(desc metadata.ShaderDesc, reflected []ResourceDesc) (*ShaderResources, error) {
	if metadata.ShaderTypeToIndex(desc.ShaderType) < 0 {
		return nil, fmt.Errorf("shader '%s': %w: %d", desc.Name, core.ErrInvalidShaderStage, desc.ShaderType)
	}
	if desc.DefaultVariableType >= metadata.ShaderVariableTypeNumTypes {
		return nil, fmt.Errorf("shader '%s': %w: default type %d", desc.Name, core.ErrInvalidVariableType, desc.DefaultVariableType)
	}

	sr := &ShaderResources{
		shaderName: desc.Name,
		shaderType: desc.ShaderType,
	}

	seen := make(map[string]struct{}, len(reflected))
	for _, rd := range reflected {
		if _, dup := seen[rd.Name]; dup {
			return nil, fmt.Errorf("shader '%s': %w: '%s'", desc.Name, core.ErrDuplicateResource, rd.Name)
		}
		seen[rd.Name] = struct{}{}

		if rd.BindCount == 0 {
			return nil, fmt.Errorf("shader '%s': resource '%s' has zero bind count", desc.Name, rd.Name)
		}
		vt := desc.VariableType(rd.Name)
		if vt >= metadata.ShaderVariableTypeNumTypes {
			return nil, fmt.Errorf("shader '%s': %w: '%s'", desc.Name, core.ErrInvalidVariableType, rd.Name)
		}
		attribs := ShaderResourceAttribs{
			Name:         rd.Name,
			BindPoint:    rd.BindPoint,
			BindCount:    rd.BindCount,
			VariableType: vt,
			samplerID:    InvalidSamplerID,
		}

		switch rd.Category {
		case metadata.CachedResourceTypeCBV:
			sr.cbs = append(sr.cbs, attribs)
		case metadata.CachedResourceTypeTexSRV:
			sr.texSRVs = append(sr.texSRVs, attribs)
		case metadata.CachedResourceTypeTexUAV:
			sr.texUAVs = append(sr.texUAVs, attribs)
		case metadata.CachedResourceTypeBufSRV:
			sr.bufSRVs = append(sr.bufSRVs, attribs)
		case metadata.CachedResourceTypeBufUAV:
			sr.bufUAVs = append(sr.bufUAVs, attribs)
		case metadata.CachedResourceTypeSampler:
			sr.samplers = append(sr.samplers, attribs)
		default:
			return nil, fmt.Errorf("shader '%s': %w: '%s' (%d)", desc.Name, core.ErrUnknownResourceCategory, rd.Name, rd.Category)
		}
	}

	if err := sr.pairSamplers(desc); err != nil {
		return nil, err
	}
	if err := sr.checkBindRanges(); err != nil {
		return nil, err
	}
	sr.hash = sr.computeHash()
	return sr, nil
}

func (sr *ShaderResources) pairSamplers(desc metadata.ShaderDesc) error {
	samplerByName := make(map[string]uint32, len(sr.samplers))
	for i := range sr.samplers {
		samplerByName[sr.samplers[i].Name] = uint32(i)
	}

	for i := range sr.texSRVs {
		tex := &sr.texSRVs[i]
		staticDesc, isStatic := desc.StaticSampler(tex.Name)

		id, ok := samplerByName[tex.Name+SamplerSuffix]
		if !ok {
			if isStatic {
				core.LogWarn("Static sampler is declared for texture '%s' in shader '%s', but the shader has no sampler named '%s'",
					tex.Name, sr.shaderName, tex.Name+SamplerSuffix)
			}
			continue
		}

		sam := &sr.samplers[id]
		if sam.BindCount != tex.BindCount && sam.BindCount != 1 {
			return fmt.Errorf("shader '%s': sampler '%s' has %d elements; texture '%s' has %d. The sampler must match the texture array or be a single shared sampler",
				sr.shaderName, sam.Name, sam.BindCount, tex.Name, tex.BindCount)
		}
		// The sampler is resolved through its texture, so it shares the texture's variable type.
		sam.VariableType = tex.VariableType
		if isStatic {
			sam.staticSampler = true
			sam.staticSamplerDesc = staticDesc.Desc
		}
		tex.samplerID = id
	}
	return nil
}

// checkBindRanges rejects resources whose [BindPoint, BindPoint+BindCount)
// ranges overlap within one descriptor range type. Static layouts use the
// bind point as the table offset, so an overlap would share cache slots.
// Static samplers take no slot.
func (sr *ShaderResources) checkBindRanges() error {
	type bindRange struct {
		name       string
		first, end uint32
	}
	var ranges [metadata.NumDescriptorRangeTypes][]bindRange
	add := func(category metadata.CachedResourceType, list []ShaderResourceAttribs) {
		rangeType := metadata.DescriptorRangeTypeOf(category)
		for i := range list {
			if list[i].staticSampler {
				continue
			}
			ranges[rangeType] = append(ranges[rangeType], bindRange{
				name:  list[i].Name,
				first: list[i].BindPoint,
				end:   list[i].BindPoint + list[i].BindCount,
			})
		}
	}
	add(metadata.CachedResourceTypeCBV, sr.cbs)
	add(metadata.CachedResourceTypeTexSRV, sr.texSRVs)
	add(metadata.CachedResourceTypeBufSRV, sr.bufSRVs)
	add(metadata.CachedResourceTypeTexUAV, sr.texUAVs)
	add(metadata.CachedResourceTypeBufUAV, sr.bufUAVs)
	add(metadata.CachedResourceTypeSampler, sr.samplers)

	for rangeType, list := range ranges {
		sort.Slice(list, func(i, j int) bool { return list[i].first < list[j].first })
		for i := 1; i < len(list); i++ {
			if list[i].first < list[i-1].end {
				return fmt.Errorf("shader '%s': %w: '%s' [%d, %d) and '%s' [%d, %d) in the %s range",
					sr.shaderName, core.ErrOverlappingBindPoints,
					list[i-1].name, list[i-1].first, list[i-1].end,
					list[i].name, list[i].first, list[i].end,
					metadata.DescriptorRangeType(rangeType))
			}
		}
	}
	return nil
}

func (sr *ShaderResources) GetShaderName() string {
	return sr.shaderName
}

func (sr *ShaderResources) GetShaderType() metadata.ShaderType {
	return sr.shaderType
}

func (sr *ShaderResources) GetNumCBs() uint32      { return uint32(len(sr.cbs)) }
func (sr *ShaderResources) GetNumTexSRV() uint32   { return uint32(len(sr.texSRVs)) }
func (sr *ShaderResources) GetNumTexUAV() uint32   { return uint32(len(sr.texUAVs)) }
func (sr *ShaderResources) GetNumBufSRV() uint32   { return uint32(len(sr.bufSRVs)) }
func (sr *ShaderResources) GetNumBufUAV() uint32   { return uint32(len(sr.bufUAVs)) }
func (sr *ShaderResources) GetNumSamplers() uint32 { return uint32(len(sr.samplers)) }

// GetSampler returns the sampler with the given id.
func (sr *ShaderResources) GetSampler(id uint32) *ShaderResourceAttribs {
	core.Verify(id < uint32(len(sr.samplers)), "sampler id %d is out of range in shader '%s' (%d samplers)", id, sr.shaderName, len(sr.samplers))
	return &sr.samplers[id]
}

// ProcessResources calls the handlers for every resource whose variable type
// is allowed, in the order constant buffers, texture SRVs, texture UAVs,
// buffer SRVs, buffer UAVs. An empty allowed list means all types.
func (sr *ShaderResources) ProcessResources(allowed []metadata.ShaderVariableType, h ResourceHandlers) {
	bits := metadata.ShaderVariableTypeBits(allowed)
	visit := func(list []ShaderResourceAttribs, fn func(*ShaderResourceAttribs)) {
		if fn == nil {
			return
		}
		for i := range list {
			if metadata.IsAllowedType(list[i].VariableType, bits) {
				fn(&list[i])
			}
		}
	}
	visit(sr.cbs, h.OnCB)
	visit(sr.texSRVs, h.OnTexSRV)
	visit(sr.texUAVs, h.OnTexUAV)
	visit(sr.bufSRVs, h.OnBufSRV)
	visit(sr.bufUAVs, h.OnBufUAV)
}

// ResourceCounts holds the number of resources, not array elements, per
// category.
type ResourceCounts struct {
	NumCBs      uint32
	NumTexSRVs  uint32
	NumTexUAVs  uint32
	NumBufSRVs  uint32
	NumBufUAVs  uint32
	NumSamplers uint32
}

// CountResources counts the resources whose variable type is allowed. Static
// samplers are never counted.
func (sr *ShaderResources) CountResources(allowed []metadata.ShaderVariableType) ResourceCounts {
	var counts ResourceCounts
	sr.ProcessResources(allowed, ResourceHandlers{
		OnCB:     func(*ShaderResourceAttribs) { counts.NumCBs++ },
		OnTexSRV: func(*ShaderResourceAttribs) { counts.NumTexSRVs++ },
		OnTexUAV: func(*ShaderResourceAttribs) { counts.NumTexUAVs++ },
		OnBufSRV: func(*ShaderResourceAttribs) { counts.NumBufSRVs++ },
		OnBufUAV: func(*ShaderResourceAttribs) { counts.NumBufUAVs++ },
	})
	bits := metadata.ShaderVariableTypeBits(allowed)
	for i := range sr.samplers {
		if !sr.samplers[i].IsStaticSampler() && metadata.IsAllowedType(sr.samplers[i].VariableType, bits) {
			counts.NumSamplers++
		}
	}
	return counts
}

// GetHash returns a structural hash of the resource set. Names do not
// contribute; two shaders with the same slots hash equally.
func (sr *ShaderResources) GetHash() uint64 {
	return sr.hash
}

func (sr *ShaderResources) computeHash() uint64 {
	h := fnv.New64a()
	var buf [4]byte
	put := func(v uint32) {
		binary.LittleEndian.PutUint32(buf[:], v)
		h.Write(buf[:])
	}
	put(uint32(sr.shaderType))
	for cat, list := range [][]ShaderResourceAttribs{sr.cbs, sr.texSRVs, sr.texUAVs, sr.bufSRVs, sr.bufUAVs, sr.samplers} {
		put(uint32(cat))
		put(uint32(len(list)))
		for i := range list {
			a := &list[i]
			put(a.BindPoint)
			put(a.BindCount)
			put(uint32(a.VariableType))
			put(a.samplerID)
			if a.staticSampler {
				put(1)
			} else {
				put(0)
			}
		}
	}
	return h.Sum64()
}
