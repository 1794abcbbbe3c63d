package core

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/spaghettifunk/anima-hal/engine/math"
)

type LogConfig struct {
	Level string `toml:"level"`
}

type BindingConfig struct {
	// Run the full binding verification on every commit.
	VerifyBindings bool `toml:"verify_bindings"`
	// Highest root table index a root signature may hand out.
	MaxRootIndex uint32 `toml:"max_root_index"`
	// Shader-visible descriptor heap capacities.
	CbvSrvUavHeapSize uint32 `toml:"cbv_srv_uav_heap_size"`
	SamplerHeapSize   uint32 `toml:"sampler_heap_size"`
	// Number of frames a per-draw descriptor allocation stays alive.
	FramesInFlight uint32 `toml:"frames_in_flight"`
}

type AssetsConfig struct {
	Dir            string `toml:"dir"`
	Watch          bool   `toml:"watch"`
	MaxShaderCount uint32 `toml:"max_shader_count"`
	Workers        int    `toml:"workers"`
}

// Config is the engine configuration, usually read from engine.toml.
type Config struct {
	Log     LogConfig     `toml:"log"`
	Binding BindingConfig `toml:"binding"`
	Assets  AssetsConfig  `toml:"assets"`
}

func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level: "info",
		},
		Binding: BindingConfig{
			VerifyBindings:    true,
			MaxRootIndex:      63,
			CbvSrvUavHeapSize: 4096,
			SamplerHeapSize:   256,
			FramesInFlight:    3,
		},
		Assets: AssetsConfig{
			Dir:            "assets",
			Watch:          false,
			MaxShaderCount: 1024,
			Workers:        4,
		},
	}
}

// LoadConfig reads a TOML file on top of the defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return ParseConfig(data)
}

func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.normalize()
	return cfg, nil
}

func (c *Config) normalize() {
	c.Binding.MaxRootIndex = math.Clamp(c.Binding.MaxRootIndex, 1, 63)
	c.Binding.CbvSrvUavHeapSize = math.Clamp(c.Binding.CbvSrvUavHeapSize, 16, 1<<20)
	c.Binding.SamplerHeapSize = math.Clamp(c.Binding.SamplerHeapSize, 16, 2048)
	c.Binding.FramesInFlight = math.Clamp(c.Binding.FramesInFlight, 1, 8)
	c.Assets.MaxShaderCount = math.Clamp(c.Assets.MaxShaderCount, 1, 65535)
	c.Assets.Workers = math.Clamp(c.Assets.Workers, 1, 64)
	if c.Assets.Dir == "" {
		c.Assets.Dir = "assets"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}
