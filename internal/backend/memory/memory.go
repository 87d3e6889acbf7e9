// Package memory implements foundry.Backend entirely in process memory, for
// unit tests and short-lived tooling that should not touch disk or a remote
// tracker.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/foundry-mcp/foundry/internal/foundry"
)

// Backend is a thread-safe, map-backed foundry.Backend.
type Backend struct {
	mu       sync.RWMutex
	projects map[string]foundry.Project
	specs    map[string]map[string]foundry.Spec // project name -> spec name -> spec
	now      func() time.Time
}

// New returns an empty Backend. now defaults to time.Now; tests may override
// it for deterministic spec-name generation.
func New(now func() time.Time) *Backend {
	if now == nil {
		now = time.Now
	}
	return &Backend{
		projects: make(map[string]foundry.Project),
		specs:    make(map[string]map[string]foundry.Spec),
		now:      now,
	}
}

// Clear empties the backend. Useful between test cases.
func (b *Backend) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.projects = make(map[string]foundry.Project)
	b.specs = make(map[string]map[string]foundry.Spec)
}

func (b *Backend) CreateProject(ctx context.Context, cfg foundry.ProjectConfig) (foundry.Project, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for existing := range b.projects {
		if strings.EqualFold(existing, cfg.Name) {
			return foundry.Project{}, foundry.AlreadyExists("project %q already exists", cfg.Name)
		}
	}

	project := foundry.Project{
		Name:      cfg.Name,
		CreatedAt: b.now().UTC(),
		Locator:   foundry.ResourceLocator{FilesystemPath: "memory://" + cfg.Name},
		Vision:    cfg.Vision,
		TechStack: cfg.TechStack,
		Summary:   cfg.Summary,
	}

	b.projects[cfg.Name] = project
	b.specs[cfg.Name] = make(map[string]foundry.Spec)
	return project, nil
}

func (b *Backend) ProjectExists(ctx context.Context, name string) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.projects[name]
	return ok, nil
}

func (b *Backend) ListProjects(ctx context.Context) ([]foundry.ProjectMetadata, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]foundry.ProjectMetadata, 0, len(b.projects))
	for _, p := range b.projects {
		out = append(out, foundry.ProjectMetadata{
			Name:         p.Name,
			CreatedAt:    p.CreatedAt,
			SpecCount:    len(b.specs[p.Name]),
			LastModified: p.CreatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (b *Backend) LoadProject(ctx context.Context, name string) (foundry.Project, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	p, ok := b.projects[name]
	if !ok {
		return foundry.Project{}, foundry.NotFound("project %q not found", name)
	}
	return p, nil
}

func (b *Backend) CreateSpec(ctx context.Context, cfg foundry.SpecConfig) (foundry.Spec, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	specs, ok := b.specs[cfg.ProjectName]
	if !ok {
		return foundry.Spec{}, foundry.NotFound("project %q not found", cfg.ProjectName)
	}

	name, err := foundry.GenerateSpecName(cfg.FeatureName, b.now())
	if err != nil {
		return foundry.Spec{}, err
	}
	for {
		if _, exists := specs[name]; !exists {
			break
		}
		name, err = foundry.GenerateSpecName(cfg.FeatureName, b.now().Add(time.Second))
		if err != nil {
			return foundry.Spec{}, err
		}
	}

	spec := foundry.Spec{
		Name:        name,
		ProjectName: cfg.ProjectName,
		CreatedAt:   b.now().UTC(),
		Locator:     foundry.ResourceLocator{FilesystemPath: "memory://" + cfg.ProjectName + "/specs/" + name},
		Spec:        cfg.Spec,
		Notes:       cfg.Notes,
		Tasks:       cfg.Tasks,
	}
	specs[name] = spec
	return spec, nil
}

func (b *Backend) ListSpecs(ctx context.Context, projectName string) ([]foundry.SpecMetadata, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	specs, ok := b.specs[projectName]
	if !ok {
		return nil, foundry.NotFound("project %q not found", projectName)
	}

	out := make([]foundry.SpecMetadata, 0, len(specs))
	for _, s := range specs {
		out = append(out, foundry.SpecMetadata{
			Name:        s.Name,
			ProjectName: s.ProjectName,
			FeatureName: foundry.ExtractFeatureName(s.Name),
			CreatedAt:   s.CreatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (b *Backend) LoadSpec(ctx context.Context, projectName, specName string) (foundry.Spec, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	specs, ok := b.specs[projectName]
	if !ok {
		return foundry.Spec{}, foundry.NotFound("project %q not found", projectName)
	}
	spec, ok := specs[specName]
	if !ok {
		return foundry.Spec{}, foundry.NotFound("spec %q not found in project %q", specName, projectName)
	}
	return spec, nil
}

func (b *Backend) UpdateSpecContent(ctx context.Context, projectName, specName string, kind foundry.FileKind, content string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	specs, ok := b.specs[projectName]
	if !ok {
		return foundry.NotFound("project %q not found", projectName)
	}
	spec, ok := specs[specName]
	if !ok {
		return foundry.NotFound("spec %q not found in project %q", specName, projectName)
	}

	switch kind {
	case foundry.FileSpec:
		spec.Spec = content
	case foundry.FileNotes:
		spec.Notes = content
	case foundry.FileTasks:
		spec.Tasks = content
	}
	specs[specName] = spec
	return nil
}

func (b *Backend) DeleteSpec(ctx context.Context, projectName, specName string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	specs, ok := b.specs[projectName]
	if !ok {
		return foundry.NotFound("project %q not found", projectName)
	}
	if _, ok := specs[specName]; !ok {
		return foundry.NotFound("spec %q not found in project %q", specName, projectName)
	}
	delete(specs, specName)
	return nil
}

func (b *Backend) GetLatestSpec(ctx context.Context, projectName string) (*foundry.SpecMetadata, error) {
	specs, err := b.ListSpecs(ctx, projectName)
	if err != nil {
		return nil, err
	}
	if len(specs) == 0 {
		return nil, nil
	}
	return &specs[0], nil
}

func (b *Backend) CountSpecs(ctx context.Context, projectName string) (int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	specs, ok := b.specs[projectName]
	if !ok {
		return 0, foundry.NotFound("project %q not found", projectName)
	}
	return len(specs), nil
}

func (b *Backend) Capabilities() foundry.Capabilities {
	return foundry.Capabilities{
		SupportsDocuments: true,
		SupportsSubtasks:  true,
		URLDeeplinks:      false,
		AtomicReplace:     true,
		StrongConsistency: true,
	}
}
