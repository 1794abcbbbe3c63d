package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spaghettifunk/anima-hal/engine/assets/loaders"
	"github.com/spaghettifunk/anima-hal/engine/core"
	"github.com/spaghettifunk/anima-hal/engine/renderer/metadata"
)

type AssetInfo struct {
	Path       string
	Type       metadata.ResourceType
	LastLoaded time.Time
}

type AssetManager struct {
	baseDir string
	assets  map[string]AssetInfo
	loaders map[metadata.ResourceType]Loader

	mutex sync.RWMutex

	done     chan struct{}
	wg       sync.WaitGroup
	fsnotify *fsnotify.Watcher
	isClosed bool
}

func NewAssetManager() (*AssetManager, error) {
	am := &AssetManager{
		assets:  make(map[string]AssetInfo),
		loaders: make(map[metadata.ResourceType]Loader),
		done:    make(chan struct{}),
	}

	// Register loaders
	am.registerLoader(metadata.ResourceTypeShader, &loaders.ShaderLoader{})
	am.registerLoader(metadata.ResourceTypeShaderSource, &loaders.SourceLoader{})

	return am, nil
}

// Initialize indexes every asset under assetsDir. With watch set, changes to
// shader configs and sources are reported through
// EVENT_CODE_SHADER_SOURCE_CHANGED until Shutdown.
func (am *AssetManager) Initialize(assetsDir string, watch bool) error {
	if am.isClosed {
		return errors.New("asset manager already shut down")
	}
	am.baseDir = filepath.Clean(assetsDir)

	if watch {
		fsWatch, err := fsnotify.NewWatcher()
		if err != nil {
			return err
		}
		am.fsnotify = fsWatch
	}
	if err := am.watchRecursive(am.baseDir, false); err != nil {
		return err
	}
	if am.fsnotify != nil {
		am.wg.Add(1)
		go am.start()
	}

	core.LogInfo("indexed %d assets in '%s'", am.count(), am.baseDir)
	return nil
}

// Register loaders for each asset type
func (am *AssetManager) registerLoader(assetType metadata.ResourceType, loader Loader) {
	am.loaders[assetType] = loader
}

// LoadAsset loads the named asset. Names are file names without extension;
// the extension is implied by the resource type.
func (am *AssetManager) LoadAsset(name string, resourceType metadata.ResourceType, params interface{}) (*metadata.Resource, error) {
	path, err := am.lookup(name, resourceType)
	if err != nil {
		return nil, err
	}

	loader, loaderExists := am.loaders[resourceType]
	if !loaderExists {
		return nil, fmt.Errorf("no loader registered for asset type: %d", resourceType)
	}

	res, err := loader.Load(path, resourceType, params)
	if err != nil {
		return nil, err
	}

	am.mutex.Lock()
	if asset, ok := am.assets[path]; ok {
		asset.LastLoaded = time.Now()
		am.assets[path] = asset
	}
	am.mutex.Unlock()
	return res, nil
}

func (am *AssetManager) UnloadAsset(res *metadata.Resource, resourceType metadata.ResourceType) error {
	loader, ok := am.loaders[resourceType]
	if !ok {
		return fmt.Errorf("no loader registered for asset type: %d", resourceType)
	}
	return loader.Unload(res)
}

// GetAssetNames returns the sorted names of every indexed asset of a type.
func (am *AssetManager) GetAssetNames(resourceType metadata.ResourceType) []string {
	am.mutex.RLock()
	defer am.mutex.RUnlock()

	var names []string
	for path, info := range am.assets {
		if info.Type == resourceType {
			names = append(names, assetName(path))
		}
	}
	sort.Strings(names)
	return names
}

// GetAssetInfo returns the index entry for a path.
func (am *AssetManager) GetAssetInfo(path string) (AssetInfo, bool) {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	info, ok := am.assets[filepath.Clean(path)]
	return info, ok
}

// Shutdown stops the watcher, if any. The index stays readable.
func (am *AssetManager) Shutdown() error {
	if am.isClosed {
		return nil
	}
	am.isClosed = true
	close(am.done)
	am.wg.Wait()
	return nil
}

func (am *AssetManager) lookup(name string, resourceType metadata.ResourceType) (string, error) {
	am.mutex.RLock()
	defer am.mutex.RUnlock()

	for path, info := range am.assets {
		if info.Type == resourceType && assetName(path) == name {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: '%s' (type %d) in '%s'", core.ErrUnknownAsset, name, resourceType, am.baseDir)
}

func (am *AssetManager) count() int {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	return len(am.assets)
}

func (am *AssetManager) start() {
	defer am.wg.Done()
	for {
		select {

		case e, ok := <-am.fsnotify.Events:
			if !ok {
				return
			}
			s, err := os.Stat(e.Name)
			if err == nil && s != nil && s.IsDir() {
				if e.Op&fsnotify.Create != 0 {
					am.watchRecursive(e.Name, false)
				}
				continue
			}
			if e.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				if am.handleFileEvent(e.Name) {
					am.notifyChanged(e.Name)
				}
			}
			if e.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				am.removeAsset(e.Name)
			}

		case err, ok := <-am.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError(err.Error())

		case <-am.done:
			am.fsnotify.Close()
			return
		}
	}
}

func (am *AssetManager) notifyChanged(path string) {
	info, ok := am.GetAssetInfo(path)
	if !ok {
		return
	}
	if info.Type != metadata.ResourceTypeShader && info.Type != metadata.ResourceTypeShaderSource {
		return
	}
	core.LogDebug("asset changed: %s", info.Path)
	ctx := core.EventContext{}
	ctx.Data.C[0] = info.Path
	core.EventFire(core.EVENT_CODE_SHADER_SOURCE_CHANGED, am, ctx)
}

// watchRecursive indexes every file under path and, when watching, adds its
// directories to the watch list.
func (am *AssetManager) watchRecursive(path string, unWatch bool) error {
	return filepath.Walk(path, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			if am.fsnotify == nil {
				return nil
			}
			if unWatch {
				return am.fsnotify.Remove(walkPath)
			}
			return am.fsnotify.Add(walkPath)
		}
		am.handleFileEvent(walkPath)
		return nil
	})
}

// Handle the creation or modification of a file. Reports whether the file
// is a known asset.
func (am *AssetManager) handleFileEvent(path string) bool {
	assetType := determineAssetType(path)
	if assetType == metadata.ResourceTypeNone {
		return false
	}

	am.mutex.Lock()
	defer am.mutex.Unlock()

	path = filepath.Clean(path)
	am.assets[path] = AssetInfo{
		Path: path,
		Type: assetType,
	}
	return true
}

// Remove the asset from the index if it was deleted
func (am *AssetManager) removeAsset(path string) {
	am.mutex.Lock()
	defer am.mutex.Unlock()

	delete(am.assets, filepath.Clean(path))
}

func assetName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func determineAssetType(path string) metadata.ResourceType {
	switch filepath.Ext(path) {
	case ".shadercfg":
		return metadata.ResourceTypeShader
	case ".wgsl":
		return metadata.ResourceTypeShaderSource
	case ".txt":
		return metadata.ResourceTypeText
	case ".bin", ".spv":
		return metadata.ResourceTypeBinary
	default:
		return metadata.ResourceTypeNone
	}
}
