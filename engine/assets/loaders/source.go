package loaders

import (
	"fmt"
	"io"
	"os"

	"github.com/spaghettifunk/anima-hal/engine/renderer/metadata"
)

// SourceLoader reads shader source text.
type SourceLoader struct{}

func (sl *SourceLoader) Load(path string, assetType metadata.ResourceType, params interface{}) (*metadata.Resource, error) {
	if assetType != metadata.ResourceTypeShaderSource {
		return nil, fmt.Errorf("source loader cannot load resource type %d", assetType)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}

	name, _ := params.(string)
	return &metadata.Resource{
		Name:     name,
		FullPath: path,
		DataSize: uint64(len(buf)),
		Data:     string(buf),
	}, nil
}

func (sl *SourceLoader) Unload(res *metadata.Resource) error {
	res.Data = nil
	res.DataSize = 0
	return nil
}
