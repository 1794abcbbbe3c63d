package systems

import (
	"github.com/spaghettifunk/anima-hal/engine/assets"
	"github.com/spaghettifunk/anima-hal/engine/core"
	"github.com/spaghettifunk/anima-hal/engine/renderer"
)

type SystemManager struct {
	jobSystem    *JobSystem
	shaderSystem *ShaderSystem
}

func NewSystemManager(config core.AssetsConfig, device *renderer.Device, am *assets.AssetManager) (*SystemManager, error) {
	js, err := NewJobSystem(config.Workers, config.Workers*2)
	if err != nil {
		return nil, err
	}
	ssys, err := NewShaderSystem(ShaderSystemConfig{
		MaxShaderCount: config.MaxShaderCount,
	}, device, am, js)
	if err != nil {
		js.Shutdown()
		return nil, err
	}
	return &SystemManager{
		jobSystem:    js,
		shaderSystem: ssys,
	}, nil
}

func (sm *SystemManager) JobSystem() *JobSystem {
	return sm.jobSystem
}

func (sm *SystemManager) ShaderSystem() *ShaderSystem {
	return sm.shaderSystem
}

func (sm *SystemManager) Shutdown() error {
	if err := sm.shaderSystem.Shutdown(); err != nil {
		return err
	}
	if err := sm.jobSystem.Shutdown(); err != nil {
		return err
	}
	return nil
}
