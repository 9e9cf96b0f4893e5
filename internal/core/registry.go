package core

import (
	"fmt"
	"sort"
	"sync"
)

// AssetKind describes one media slot of an IDF.
type AssetKind struct {
	Name       string // Path segment and JSON field: "images", "logo", ...
	ImageOnly  bool   // Only image/* uploads are accepted
	Multi      bool   // Uploads append; otherwise they replace the single item
	DefaultExt string // Used when the upload has no usable extension

	get func(*IDF) MediaList
	set func(*IDF, MediaList)
}

var (
	assetKinds   = make(map[string]AssetKind)
	assetKindsMu sync.RWMutex
)

// RegisterAssetKind adds an asset kind to the registry.
// Panics if a kind with the same name is already registered.
func RegisterAssetKind(kind AssetKind) {
	assetKindsMu.Lock()
	defer assetKindsMu.Unlock()

	if kind.get == nil || kind.set == nil {
		panic(fmt.Sprintf("asset kind %s: missing accessors", kind.Name))
	}
	if _, exists := assetKinds[kind.Name]; exists {
		panic(fmt.Sprintf("asset kind already registered: %s", kind.Name))
	}
	assetKinds[kind.Name] = kind
}

// LookupAssetKind returns an asset kind by name.
func LookupAssetKind(name string) (AssetKind, bool) {
	assetKindsMu.RLock()
	defer assetKindsMu.RUnlock()

	kind, ok := assetKinds[name]
	return kind, ok
}

// AssetKinds returns all registered kinds sorted by name.
func AssetKinds() []AssetKind {
	assetKindsMu.RLock()
	defer assetKindsMu.RUnlock()

	result := make([]AssetKind, 0, len(assetKinds))
	for _, k := range assetKinds {
		result = append(result, k)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result
}

func init() {
	RegisterAssetKind(AssetKind{
		Name: "images", ImageOnly: true, Multi: true, DefaultExt: ".jpg",
		get: func(i *IDF) MediaList { return i.Images },
		set: func(i *IDF, l MediaList) { i.Images = l },
	})
	RegisterAssetKind(AssetKind{
		Name: "documents", Multi: true, DefaultExt: ".pdf",
		get: func(i *IDF) MediaList { return i.Documents },
		set: func(i *IDF, l MediaList) { i.Documents = l },
	})
	RegisterAssetKind(AssetKind{
		Name: "diagrams", Multi: true, DefaultExt: ".pdf",
		get: func(i *IDF) MediaList { return i.Diagrams },
		set: func(i *IDF, l MediaList) { i.Diagrams = l },
	})
	RegisterAssetKind(AssetKind{
		Name: "dfo", Multi: true, DefaultExt: ".pdf",
		get: func(i *IDF) MediaList { return i.DFO },
		set: func(i *IDF, l MediaList) { i.DFO = l },
	})
	RegisterAssetKind(AssetKind{
		Name: "location", ImageOnly: true, DefaultExt: ".jpg",
		get: func(i *IDF) MediaList { return i.Location },
		set: func(i *IDF, l MediaList) { i.Location = l },
	})
	RegisterAssetKind(AssetKind{
		Name: "logo", ImageOnly: true, DefaultExt: ".png",
		get: func(i *IDF) MediaList {
			if i.Logo == nil {
				return nil
			}
			return MediaList{*i.Logo}
		},
		set: func(i *IDF, l MediaList) {
			if len(l) == 0 {
				i.Logo = nil
				return
			}
			item := l[len(l)-1]
			i.Logo = &item
		},
	})
}
