package assets

import "github.com/spaghettifunk/anima-hal/engine/renderer/metadata"

type Loader interface {
	// params is loader specific; the shader loaders accept the asset name.
	Load(path string, assetType metadata.ResourceType, params interface{}) (*metadata.Resource, error)
	Unload(*metadata.Resource) error
}
