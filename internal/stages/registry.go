package stages

import (
	"fmt"
	"sort"
	"sync"

	"cocreator/internal/pipeline"
	"cocreator/internal/services"
)

// Stage names in their default execution order.
const (
	StagePlan       = "plan"
	StageWrite      = "write"
	StageMultimedia = "produce-multimedia"
	StageVideo      = "produce-video"
	StageReport     = "assemble-report"
)

// Factory builds one stage descriptor from shared dependencies.
type Factory func(deps Deps) pipeline.Descriptor

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{
		StagePlan:       func(deps Deps) pipeline.Descriptor { return NewPlanner(deps).Descriptor() },
		StageWrite:      func(deps Deps) pipeline.Descriptor { return NewWriter(deps).Descriptor() },
		StageMultimedia: func(deps Deps) pipeline.Descriptor { return NewMultimediaProducer(deps).Descriptor() },
		StageVideo:      func(deps Deps) pipeline.Descriptor { return NewVideoProducer(deps).Descriptor() },
		StageReport:     func(deps Deps) pipeline.Descriptor { return NewReporter(deps).Descriptor() },
	}
)

// DefaultStageNames returns the built-in stage order.
func DefaultStageNames() []string {
	return []string{StagePlan, StageWrite, StageMultimedia, StageVideo, StageReport}
}

// RegisteredStageNames returns every registered stage name, sorted.
func RegisteredStageNames() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Register adds a stage factory under name, replacing any prior entry.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// Build resolves the named stages against the registry in the given order.
func Build(names []string, deps Deps) ([]pipeline.Descriptor, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	descriptors := make([]pipeline.Descriptor, 0, len(names))
	for _, name := range names {
		factory, ok := registry[name]
		if !ok {
			return nil, services.Wrap(services.ErrConfiguration, "", "build stages", fmt.Sprintf("unknown stage %q", name), nil)
		}
		descriptors = append(descriptors, factory(deps))
	}
	return descriptors, nil
}

// DefaultStages builds the built-in pipeline in its default order.
func DefaultStages(deps Deps) ([]pipeline.Descriptor, error) {
	return Build(DefaultStageNames(), deps)
}
