package systems

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"github.com/spaghettifunk/anima-hal/engine/assets"
	"github.com/spaghettifunk/anima-hal/engine/assets/loaders"
	"github.com/spaghettifunk/anima-hal/engine/core"
	"github.com/spaghettifunk/anima-hal/engine/renderer"
	"github.com/spaghettifunk/anima-hal/engine/renderer/metadata"
)

/** @brief Configuration for the shader system. */
type ShaderSystemConfig struct {
	/** @brief The maximum number of shaders held in the system. */
	MaxShaderCount uint32
}

type shaderEntry struct {
	shader     *renderer.Shader
	configPath string
	sourcePath string
}

// ShaderSystem owns the shaders created from shader assets, keyed by asset
// name. It is safe for concurrent use.
type ShaderSystem struct {
	// This system's configuration.
	config ShaderSystemConfig

	device    *renderer.Device
	assets    *assets.AssetManager
	jobSystem *JobSystem

	mu sync.RWMutex
	// A lookup table for asset name->shader
	lookup map[string]*shaderEntry
}

func NewShaderSystem(config ShaderSystemConfig, device *renderer.Device, am *assets.AssetManager, js *JobSystem) (*ShaderSystem, error) {
	if config.MaxShaderCount == 0 {
		err := fmt.Errorf("NewShaderSystem - config.MaxShaderCount must be greater than 0")
		core.LogError(err.Error())
		return nil, err
	}

	shaderSystem := &ShaderSystem{
		config:    config,
		device:    device,
		assets:    am,
		jobSystem: js,
		lookup:    make(map[string]*shaderEntry),
	}
	core.EventRegister(core.EVENT_CODE_SHADER_SOURCE_CHANGED, shaderSystem, shaderSystem.onSourceChanged)

	return shaderSystem, nil
}

/**
 * @brief Shuts down the shader system and forgets every shader.
 */
func (shaderSystem *ShaderSystem) Shutdown() error {
	core.EventUnregister(core.EVENT_CODE_SHADER_SOURCE_CHANGED, shaderSystem)

	shaderSystem.mu.Lock()
	defer shaderSystem.mu.Unlock()
	shaderSystem.lookup = make(map[string]*shaderEntry)
	return nil
}

/**
 * @brief Loads the named shader asset and creates its shader. Loading a
 * shader that is already loaded returns the existing one.
 */
func (shaderSystem *ShaderSystem) Load(name string) (*renderer.Shader, error) {
	shaderSystem.mu.RLock()
	entry, exists := shaderSystem.lookup[name]
	shaderSystem.mu.RUnlock()
	if exists {
		return entry.shader, nil
	}
	return shaderSystem.load(name, false)
}

/**
 * @brief Rebuilds the named shader from its sources. Pipelines created from
 * the previous shader keep using it.
 */
func (shaderSystem *ShaderSystem) Reload(name string) (*renderer.Shader, error) {
	shader, err := shaderSystem.load(name, true)
	if err != nil {
		return nil, err
	}
	ctx := core.EventContext{}
	ctx.Data.C[0] = name
	core.EventFire(core.EVENT_CODE_SHADER_RELOADED, shaderSystem, ctx)
	return shader, nil
}

func (shaderSystem *ShaderSystem) load(name string, replace bool) (*renderer.Shader, error) {
	res, err := shaderSystem.assets.LoadAsset(name, metadata.ResourceTypeShader, nil)
	if err != nil {
		core.LogError("failed to load shader asset '%s': %s", name, err.Error())
		return nil, err
	}
	defer shaderSystem.assets.UnloadAsset(res, metadata.ResourceTypeShader)

	asset, ok := res.Data.(*loaders.ShaderAsset)
	if !ok {
		err := fmt.Errorf("asset '%s' is not a shader", name)
		core.LogError(err.Error())
		return nil, err
	}

	shader, err := shaderSystem.device.CreateShader(asset.Desc, asset.Resources)
	if err != nil {
		core.LogError("failed to create shader '%s': %s", name, err.Error())
		return nil, err
	}

	shaderSystem.mu.Lock()
	defer shaderSystem.mu.Unlock()

	if existing, ok := shaderSystem.lookup[name]; ok && !replace {
		// another load won the race
		return existing.shader, nil
	} else if !ok && uint32(len(shaderSystem.lookup)) >= shaderSystem.config.MaxShaderCount {
		err := fmt.Errorf("%w: cannot load '%s' (max %d)", core.ErrShaderLimitReached, name, shaderSystem.config.MaxShaderCount)
		core.LogError(err.Error())
		return nil, err
	}

	shaderSystem.lookup[name] = &shaderEntry{
		shader:     shader,
		configPath: filepath.Clean(res.FullPath),
		sourcePath: filepath.Clean(asset.SourcePath),
	}
	core.LogDebug("shader '%s' (%s) loaded with %d static variables", name, shader.GetShaderType(), shader.GetVariableCount())
	return shader, nil
}

/**
 * @brief Loads every named shader on the job system and waits for them. The
 * returned error joins every failure.
 */
func (shaderSystem *ShaderSystem) LoadAll(names []string) error {
	var wg sync.WaitGroup
	var mu sync.Mutex
	var errs []error

	for _, name := range names {
		wg.Add(1)
		err := shaderSystem.jobSystem.Submit(metadata.JobTask{
			Name: "load shader " + name,
			OnStart: func() error {
				_, err := shaderSystem.Load(name)
				return err
			},
			OnComplete: wg.Done,
			OnFailure: func(err error) {
				mu.Lock()
				errs = append(errs, fmt.Errorf("shader '%s': %w", name, err))
				mu.Unlock()
				wg.Done()
			},
		})
		if err != nil {
			wg.Done()
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
		}
	}
	wg.Wait()
	return errors.Join(errs...)
}

/**
 * @brief Returns the shader loaded under the given asset name.
 */
func (shaderSystem *ShaderSystem) Get(name string) (*renderer.Shader, error) {
	shaderSystem.mu.RLock()
	defer shaderSystem.mu.RUnlock()

	entry, ok := shaderSystem.lookup[name]
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", core.ErrShaderNotFound, name)
	}
	return entry.shader, nil
}

/**
 * @brief Returns the sorted names of the loaded shaders.
 */
func (shaderSystem *ShaderSystem) GetNames() []string {
	shaderSystem.mu.RLock()
	defer shaderSystem.mu.RUnlock()

	names := make([]string, 0, len(shaderSystem.lookup))
	for name := range shaderSystem.lookup {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (shaderSystem *ShaderSystem) onSourceChanged(code core.SystemEventCode, sender interface{}, listenerInst interface{}, data core.EventContext) bool {
	path := filepath.Clean(data.Data.C[0])

	shaderSystem.mu.RLock()
	var affected []string
	for name, entry := range shaderSystem.lookup {
		if entry.configPath == path || entry.sourcePath == path {
			affected = append(affected, name)
		}
	}
	shaderSystem.mu.RUnlock()

	for _, name := range affected {
		if _, err := shaderSystem.Reload(name); err != nil {
			core.LogWarn("shader '%s' keeps its previous version: %s", name, err.Error())
			continue
		}
		core.LogInfo("shader '%s' reloaded after '%s' changed", name, path)
	}
	return false
}
