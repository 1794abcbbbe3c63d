package engine

import (
	"fmt"
	"sync"

	"github.com/spaghettifunk/anima-hal/engine/assets"
	"github.com/spaghettifunk/anima-hal/engine/core"
	"github.com/spaghettifunk/anima-hal/engine/renderer"
	"github.com/spaghettifunk/anima-hal/engine/renderer/metadata"
	"github.com/spaghettifunk/anima-hal/engine/systems"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
	// Engine is shut down and cannot be restarted
	EngineStageShutdown
)

// Engine wires the device, the asset manager and the systems together. It
// has no window; Run returns once the game is done, or on quit when assets
// are watched.
type Engine struct {
	currentStage  Stage
	config        *core.Config
	device        *renderer.Device
	assetManager  *assets.AssetManager
	systemManager *systems.SystemManager

	quit     chan struct{}
	quitOnce sync.Once
}

func New(cfg *core.Config) (*Engine, error) {
	if cfg == nil {
		cfg = core.DefaultConfig()
	}
	if err := core.SetLogLevel(cfg.Log.Level); err != nil {
		core.LogWarn("unknown log level '%s', keeping the current level", cfg.Log.Level)
	}

	am, err := assets.NewAssetManager()
	if err != nil {
		core.LogError(err.Error())
		return nil, err
	}

	return &Engine{
		currentStage: EngineStageUninitialized,
		config:       cfg,
		device:       renderer.NewDevice(renderer.Vulkan, cfg.Binding),
		assetManager: am,
		quit:         make(chan struct{}),
	}, nil
}

func (e *Engine) Initialize() error {
	if e.currentStage != EngineStageUninitialized {
		return fmt.Errorf("engine cannot be initialized in stage %d", e.currentStage)
	}
	e.currentStage = EngineStageInitializing

	// initialize events
	if !core.EventInitialize() {
		core.LogDebug("event system already initialized")
	}
	core.EventRegister(core.EVENT_CODE_APPLICATION_QUIT, e, e.onEvent)

	if err := core.MetricsInitialize(); err != nil {
		return err
	}

	// initialize subsystems
	if err := e.assetManager.Initialize(e.config.Assets.Dir, e.config.Assets.Watch); err != nil {
		core.LogError("failed to index assets in '%s': %s", e.config.Assets.Dir, err.Error())
		return err
	}

	sm, err := systems.NewSystemManager(e.config.Assets, e.device, e.assetManager)
	if err != nil {
		core.LogError(err.Error())
		return err
	}
	e.systemManager = sm

	e.currentStage = EngineStageInitialized
	core.LogInfo("engine initialized (heaps: %d CBV/SRV/UAV, %d samplers; %d frames in flight)",
		e.config.Binding.CbvSrvUavHeapSize, e.config.Binding.SamplerHeapSize, e.config.Binding.FramesInFlight)
	return nil
}

// LoadShaders loads every shader config found in the asset directory.
func (e *Engine) LoadShaders() error {
	names := e.assetManager.GetAssetNames(metadata.ResourceTypeShader)
	core.LogInfo("loading %d shaders", len(names))
	return e.Shaders().LoadAll(names)
}

// Run starts the game, if any. With asset watching enabled it then blocks
// until EVENT_CODE_APPLICATION_QUIT fires so shader edits are picked up.
func (e *Engine) Run(g *Game) error {
	if e.currentStage != EngineStageInitialized {
		return fmt.Errorf("engine must be initialized before running")
	}
	e.currentStage = EngineStageRunning

	if g != nil && g.FnInitialize != nil {
		if err := g.FnInitialize(e); err != nil {
			core.LogError("game '%s' failed to initialize: %s", g.Name, err.Error())
			return err
		}
	}

	if e.config.Assets.Watch {
		core.LogInfo("watching '%s' for shader changes", e.config.Assets.Dir)
		<-e.quit
	}

	if g != nil && g.FnShutdown != nil {
		if err := g.FnShutdown(); err != nil {
			core.LogError("game '%s' failed to shut down: %s", g.Name, err.Error())
			return err
		}
	}
	return nil
}

// Quit fires EVENT_CODE_APPLICATION_QUIT.
func (e *Engine) Quit() {
	core.EventFire(core.EVENT_CODE_APPLICATION_QUIT, e, core.EventContext{})
}

func (e *Engine) Shutdown() error {
	if e.currentStage == EngineStageShutdown || e.currentStage == EngineStageShuttingDown {
		return nil
	}
	e.currentStage = EngineStageShuttingDown
	e.quitOnce.Do(func() { close(e.quit) })

	if e.systemManager != nil {
		if err := e.systemManager.Shutdown(); err != nil {
			return err
		}
	}
	if err := e.assetManager.Shutdown(); err != nil {
		return err
	}
	core.EventUnregister(core.EVENT_CODE_APPLICATION_QUIT, e)

	m := core.MetricsSnapshot()
	core.LogInfo("binding metrics: %d copies, %d skipped, %d discipline warnings, %d resolution failures, %d commits",
		m.DescriptorCopies, m.RedundantCopiesSkipped, m.DisciplineWarnings, m.ResolutionFailures, m.Commits)

	e.currentStage = EngineStageShutdown
	return nil
}

func (e *Engine) GetStage() Stage {
	return e.currentStage
}

func (e *Engine) Config() *core.Config {
	return e.config
}

func (e *Engine) Device() *renderer.Device {
	return e.device
}

func (e *Engine) Assets() *assets.AssetManager {
	return e.assetManager
}

func (e *Engine) Shaders() *systems.ShaderSystem {
	core.Verify(e.systemManager != nil, "engine systems are not initialized")
	return e.systemManager.ShaderSystem()
}

func (e *Engine) onEvent(code core.SystemEventCode, sender interface{}, listenerInst interface{}, data core.EventContext) bool {
	switch code {
	case core.EVENT_CODE_APPLICATION_QUIT:
		core.LogInfo("EVENT_CODE_APPLICATION_QUIT received, shutting down")
		e.quitOnce.Do(func() { close(e.quit) })
		return true
	}
	return false
}
