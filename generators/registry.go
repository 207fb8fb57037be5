package generators

import (
	"fmt"
	"sort"
	"sync"
)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Constructor)
)

// The builtin types are added in init since constructors reach back into
// the registry through their subgenerators
func init() {
	for typeName, ctor := range map[string]Constructor{
		"GeneratedMeshGenerator":                   NewGeneratedMeshGenerator,
		"FileMeshGenerator":                        NewFileMeshGenerator,
		"ElementTypeConverterGenerator":            NewElementTypeConverterGenerator,
		"PartitionGenerator":                       NewPartitionGenerator,
		"SideSetsFromNormalsGenerator":             NewSideSetsFromNormalsGenerator,
		"SideSetsFromPointsGenerator":              NewSideSetsFromPointsGenerator,
		"SideSetsAroundSubdomainGenerator":         NewSideSetsAroundSubdomainGenerator,
		"SideSetsBetweenSubdomainsGenerator":       NewSideSetsBetweenSubdomainsGenerator,
		"FlipSidesetGenerator":                     NewFlipSidesetGenerator,
		"SurfaceSubdomainsFromAllNormalsGenerator": NewSurfaceSubdomainsFromAllNormalsGenerator,
		"SubdomainsFromPointsGenerator":            NewSubdomainsFromPointsGenerator,
		"StitchedMeshGenerator":                    NewStitchedMeshGenerator,
		"PatternedMeshGenerator":                   NewPatternedMeshGenerator,
		"StackGenerator":                           NewStackGenerator,
		"TiledMeshGenerator":                       NewTiledMeshGenerator,
		"XYDelaunayGenerator":                      NewXYDelaunayGenerator,
		"PortionMeshGenerator":                     NewPortionMeshGenerator,
	} {
		Register(typeName, ctor)
	}
}

// Register makes a generator type available to pipelines, registering a
// type name twice panics
func Register(typeName string, ctor Constructor) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[typeName]; dup {
		panic(fmt.Sprintf("generators: %s registered twice", typeName))
	}
	registry[typeName] = ctor
}

func lookup(typeName string) (Constructor, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	ctor, ok := registry[typeName]
	return ctor, ok
}

// RegisteredTypes lists the known generator types
func RegisteredTypes() (names []string) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return
}
