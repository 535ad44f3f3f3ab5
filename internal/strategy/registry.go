package strategy

import (
	"context"
	"fmt"
	"sort"

	appErr "github.com/branchstack/engine/pkg/errors"
)

// Strategy is a pair of provisioning operations implementing branch lifecycle
// actions for a resource type. Operations may invoke long-running external
// processes; the registry imposes no timeout or retry policy.
type Strategy interface {
	// Create provisions a branch named target from template. configuration is
	// opaque to the engine and interpreted by the strategy alone.
	Create(ctx context.Context, target, template string, configuration map[string]any) error
	// Delete tears the branch down.
	Delete(ctx context.Context, target string, configuration map[string]any) error
}

// ResourceInfo describes one registered resource type and its strategy names.
type ResourceInfo struct {
	Type       string   `json:"type"`
	Strategies []string `json:"strategies"`
}

// Registry maps resource type and strategy name to provisioning operations.
// It is a pure lookup table populated at startup; no runtime plugin loading.
type Registry struct {
	resources map[string]map[string]Strategy
}

func NewRegistry() *Registry {
	return &Registry{resources: map[string]map[string]Strategy{}}
}

// Register adds a strategy under the given resource type, replacing any
// previous registration with the same name.
func (r *Registry) Register(resourceType, name string, s Strategy) {
	m, ok := r.resources[resourceType]
	if !ok {
		m = map[string]Strategy{}
		r.resources[resourceType] = m
	}
	m[name] = s
}

// Lookup returns the strategy for the resource type and name, or an
// unsupported error when the combination is unknown.
func (r *Registry) Lookup(resourceType, name string) (Strategy, error) {
	s, ok := r.resources[resourceType][name]
	if !ok {
		return nil, appErr.New(appErr.CodeUnsupported,
			fmt.Sprintf("strategy %q is not supported for resource %q", name, resourceType))
	}
	return s, nil
}

// HasResource reports whether any strategy is registered for the resource type.
func (r *Registry) HasResource(resourceType string) bool {
	return len(r.resources[resourceType]) > 0
}

// Resources lists registered resource types with their strategy names,
// sorted for stable output.
func (r *Registry) Resources() []ResourceInfo {
	out := make([]ResourceInfo, 0, len(r.resources))
	for t, m := range r.resources {
		names := make([]string, 0, len(m))
		for n := range m {
			names = append(names, n)
		}
		sort.Strings(names)
		out = append(out, ResourceInfo{Type: t, Strategies: names})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}
