package assets

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/spaghettifunk/anima-hal/engine/assets/loaders"
	"github.com/spaghettifunk/anima-hal/engine/core"
	"github.com/spaghettifunk/anima-hal/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const spriteSource = `
@group(0) @binding(0) var<uniform> g_Params: vec4<f32>;
@group(0) @binding(1) var g_Texture: texture_2d<f32>;
@group(0) @binding(2) var g_Texture_sampler: sampler;

@fragment
fn main(@location(0) uv: vec2<f32>) -> @location(0) vec4<f32> {
    return vec4<f32>(uv, 0.0, 1.0);
}
`

func newAssetDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	shaders := filepath.Join(dir, "shaders")
	require.NoError(t, os.MkdirAll(shaders, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(shaders, "sprite.wgsl"), []byte(spriteSource), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(shaders, "sprite.shadercfg"), []byte("source = \"sprite.wgsl\"\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.md"), []byte("ignored"), 0o644))
	return dir
}

func TestAssetManagerIndexAndLoad(t *testing.T) {
	assert := assert.New(t)
	dir := newAssetDir(t)

	am, err := NewAssetManager()
	require.NoError(t, err)
	require.NoError(t, am.Initialize(dir, false))
	defer am.Shutdown()

	assert.Equal([]string{"sprite"}, am.GetAssetNames(metadata.ResourceTypeShader))
	assert.Equal([]string{"sprite"}, am.GetAssetNames(metadata.ResourceTypeShaderSource))
	assert.Empty(am.GetAssetNames(metadata.ResourceTypeText))

	res, err := am.LoadAsset("sprite", metadata.ResourceTypeShader, nil)
	require.NoError(t, err)
	asset := res.Data.(*loaders.ShaderAsset)
	assert.Equal(metadata.ShaderTypePixel, asset.Desc.ShaderType)
	assert.Len(asset.Resources, 3)

	info, ok := am.GetAssetInfo(filepath.Join(dir, "shaders", "sprite.shadercfg"))
	require.True(t, ok)
	assert.False(info.LastLoaded.IsZero())

	src, err := am.LoadAsset("sprite", metadata.ResourceTypeShaderSource, "sprite")
	require.NoError(t, err)
	assert.Equal(spriteSource, src.Data)
	require.NoError(t, am.UnloadAsset(src, metadata.ResourceTypeShaderSource))

	_, err = am.LoadAsset("missing", metadata.ResourceTypeShader, nil)
	assert.ErrorIs(err, core.ErrUnknownAsset)
}

func TestAssetManagerMissingDir(t *testing.T) {
	am, err := NewAssetManager()
	require.NoError(t, err)
	assert.Error(t, am.Initialize(filepath.Join(t.TempDir(), "nope"), false))
}

func TestAssetManagerShutdownTwice(t *testing.T) {
	am, err := NewAssetManager()
	require.NoError(t, err)
	require.NoError(t, am.Initialize(newAssetDir(t), true))
	assert.NoError(t, am.Shutdown())
	assert.NoError(t, am.Shutdown())
	assert.Error(t, am.Initialize(t.TempDir(), false))
}

func TestAssetManagerWatchFiresSourceChanged(t *testing.T) {
	core.EventInitialize()
	defer core.EventShutdown()

	dir := newAssetDir(t)
	am, err := NewAssetManager()
	require.NoError(t, err)
	require.NoError(t, am.Initialize(dir, true))
	defer am.Shutdown()

	var mu sync.Mutex
	var changed []string
	listener := &struct{}{}
	core.EventRegister(core.EVENT_CODE_SHADER_SOURCE_CHANGED, listener, func(code core.SystemEventCode, sender interface{}, listenerInst interface{}, data core.EventContext) bool {
		mu.Lock()
		defer mu.Unlock()
		changed = append(changed, data.Data.C[0])
		return true
	})

	source := filepath.Join(dir, "shaders", "sprite.wgsl")
	require.NoError(t, os.WriteFile(source, []byte(spriteSource+"\n"), 0o644))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		for _, p := range changed {
			if p == source {
				return true
			}
		}
		return false
	}, 5*time.Second, 20*time.Millisecond)

	// files that are not assets never fire
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("x"), 0o644))
	time.Sleep(100 * time.Millisecond)
	mu.Lock()
	for _, p := range changed {
		assert.NotEqual(t, filepath.Join(dir, "notes.md"), p)
	}
	mu.Unlock()
}
