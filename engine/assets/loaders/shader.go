package loaders

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spaghettifunk/anima-hal/engine/core"
	"github.com/spaghettifunk/anima-hal/engine/renderer/binding"
	"github.com/spaghettifunk/anima-hal/engine/renderer/metadata"
)

/**
 * @brief A shader config with its reflected resources, ready to be handed
 * to the device.
 */
type ShaderAsset struct {
	/** @brief The shader description built from the config. */
	Desc metadata.ShaderDesc
	/** @brief The resources reflected from the shader source. */
	Resources []binding.ResourceDesc
	/** @brief The full path of the shader source. */
	SourcePath string
}

type shaderVariableConfig struct {
	Name string `toml:"name"`
	Type string `toml:"type"`
}

type staticSamplerConfig struct {
	Texture       string `toml:"texture"`
	Filter        string `toml:"filter"`
	Address       string `toml:"address"`
	MaxAnisotropy uint32 `toml:"max_anisotropy"`
}

type shaderConfig struct {
	Name                string                 `toml:"name"`
	Source              string                 `toml:"source"`
	Stage               string                 `toml:"stage"`
	DefaultVariableType string                 `toml:"default_variable_type"`
	Variables           []shaderVariableConfig `toml:"variables"`
	StaticSamplers      []staticSamplerConfig  `toml:"static_samplers"`
}

// ShaderLoader reads a .shadercfg file and reflects the source it points to.
type ShaderLoader struct {
	Source SourceLoader
}

func (sl *ShaderLoader) Load(path string, assetType metadata.ResourceType, params interface{}) (*metadata.Resource, error) {
	if assetType != metadata.ResourceTypeShader {
		return nil, fmt.Errorf("shader loader cannot load resource type %d", assetType)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg shaderConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse shader config '%s': %w", path, err)
	}
	if cfg.Name == "" {
		cfg.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if cfg.Source == "" {
		return nil, fmt.Errorf("shader config '%s' does not name a source file", path)
	}

	desc, err := cfg.shaderDesc()
	if err != nil {
		return nil, fmt.Errorf("shader config '%s': %w", path, err)
	}

	sourcePath := filepath.Join(filepath.Dir(path), cfg.Source)
	src, err := sl.Source.Load(sourcePath, metadata.ResourceTypeShaderSource, cfg.Name)
	if err != nil {
		return nil, err
	}
	defer sl.Source.Unload(src)

	stage, resources, err := ReflectWGSL(src.Data.(string))
	if err != nil {
		return nil, fmt.Errorf("shader '%s': %w", cfg.Name, err)
	}
	if desc.ShaderType == metadata.ShaderTypeUnknown {
		desc.ShaderType = stage
	} else if desc.ShaderType != stage {
		core.LogWarn("shader '%s' is configured as %s but its first entry point is %s", cfg.Name, desc.ShaderType, stage)
	}

	asset := &ShaderAsset{
		Desc:       desc,
		Resources:  resources,
		SourcePath: sourcePath,
	}
	return &metadata.Resource{
		Name:     cfg.Name,
		FullPath: path,
		DataSize: uint64(len(data)),
		Data:     asset,
	}, nil
}

func (sl *ShaderLoader) Unload(res *metadata.Resource) error {
	res.Data = nil
	res.DataSize = 0
	return nil
}

func (cfg *shaderConfig) shaderDesc() (metadata.ShaderDesc, error) {
	desc := metadata.ShaderDesc{
		Name:                cfg.Name,
		DefaultVariableType: metadata.ShaderVariableTypeStatic,
	}
	if cfg.Stage != "" {
		st, err := metadata.ShaderTypeFromString(cfg.Stage)
		if err != nil {
			return desc, err
		}
		desc.ShaderType = st
	}
	if cfg.DefaultVariableType != "" {
		vt, err := metadata.ParseShaderVariableType(cfg.DefaultVariableType)
		if err != nil {
			return desc, err
		}
		desc.DefaultVariableType = vt
	}
	for _, v := range cfg.Variables {
		vt, err := metadata.ParseShaderVariableType(v.Type)
		if err != nil {
			return desc, fmt.Errorf("variable '%s': %w", v.Name, err)
		}
		desc.VariableDesc = append(desc.VariableDesc, metadata.ShaderVariableDesc{Name: v.Name, Type: vt})
	}
	for _, s := range cfg.StaticSamplers {
		sd, err := s.samplerDesc()
		if err != nil {
			return desc, fmt.Errorf("static sampler for '%s': %w", s.Texture, err)
		}
		desc.StaticSamplers = append(desc.StaticSamplers, metadata.StaticSamplerDesc{TextureName: s.Texture, Desc: sd})
	}
	return desc, nil
}

func (s *staticSamplerConfig) samplerDesc() (metadata.SamplerDesc, error) {
	sd := metadata.SamplerDesc{
		Name:          s.Texture + binding.SamplerSuffix,
		MinFilter:     metadata.FilterTypeLinear,
		MagFilter:     metadata.FilterTypeLinear,
		MipFilter:     metadata.FilterTypeLinear,
		MaxAnisotropy: s.MaxAnisotropy,
	}
	switch strings.ToLower(s.Filter) {
	case "", "linear":
	case "point":
		sd.MinFilter, sd.MagFilter, sd.MipFilter = metadata.FilterTypePoint, metadata.FilterTypePoint, metadata.FilterTypePoint
	case "anisotropic":
		sd.MinFilter, sd.MagFilter, sd.MipFilter = metadata.FilterTypeAnisotropic, metadata.FilterTypeAnisotropic, metadata.FilterTypeAnisotropic
	default:
		return sd, fmt.Errorf("unknown filter '%s'", s.Filter)
	}

	var mode metadata.TextureAddressMode
	switch strings.ToLower(s.Address) {
	case "", "wrap":
		mode = metadata.TextureAddressWrap
	case "mirror":
		mode = metadata.TextureAddressMirror
	case "clamp":
		mode = metadata.TextureAddressClamp
	case "border":
		mode = metadata.TextureAddressBorder
	default:
		return sd, fmt.Errorf("unknown address mode '%s'", s.Address)
	}
	sd.AddressU, sd.AddressV, sd.AddressW = mode, mode, mode

	if sd.MaxAnisotropy == 0 {
		sd.MaxAnisotropy = 1
	}
	return sd, nil
}
