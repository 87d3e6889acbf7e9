// Package fsbackend implements foundry.Backend directly against the local
// filesystem, preserving a project/spec directory layout and atomic writes.
package fsbackend

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/foundry-mcp/foundry/internal/foundry"
)

const (
	visionFile    = "vision.md"
	techStackFile = "tech-stack.md"
	summaryFile   = "summary.md"
	specFile      = "spec.md"
	notesFile     = "notes.md"
	taskListFile  = "task-list.md"
)

// Backend stores projects and specs under root, one directory per project
// and one "specs/<spec-name>" subdirectory per spec.
type Backend struct {
	root string
	now  func() time.Time
}

// New returns a Backend rooted at root. If root is empty, it resolves to
// $FOUNDRY_HOME if set, else "~/.foundry".
func New(root string, now func() time.Time) (*Backend, error) {
	if root == "" {
		resolved, err := defaultRoot()
		if err != nil {
			return nil, err
		}
		root = resolved
	}
	if now == nil {
		now = time.Now
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, foundry.Io("create foundry root", err)
	}
	return &Backend{root: root, now: now}, nil
}

func defaultRoot() (string, error) {
	if home := os.Getenv("FOUNDRY_HOME"); home != "" {
		return home, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", foundry.Io("determine home directory", err)
	}
	return filepath.Join(home, ".foundry"), nil
}

func (b *Backend) projectPath(name string) string {
	return filepath.Join(b.root, name)
}

func (b *Backend) specsDir(projectName string) string {
	return filepath.Join(b.projectPath(projectName), "specs")
}

func (b *Backend) specPath(projectName, specName string) string {
	return filepath.Join(b.specsDir(projectName), specName)
}

func (b *Backend) CreateProject(ctx context.Context, cfg foundry.ProjectConfig) (foundry.Project, error) {
	path := b.projectPath(cfg.Name)

	entries, err := os.ReadDir(b.root)
	if err != nil && !os.IsNotExist(err) {
		return foundry.Project{}, foundry.Io("read foundry root", err)
	}
	for _, entry := range entries {
		if strings.EqualFold(entry.Name(), cfg.Name) {
			return foundry.Project{}, foundry.AlreadyExists("project %q already exists", cfg.Name)
		}
	}

	if err := os.MkdirAll(filepath.Join(path, "specs"), 0o755); err != nil {
		return foundry.Project{}, foundry.Io("create project directory", err)
	}
	if err := writeFileAtomic(filepath.Join(path, visionFile), cfg.Vision); err != nil {
		return foundry.Project{}, err
	}
	if err := writeFileAtomic(filepath.Join(path, techStackFile), cfg.TechStack); err != nil {
		return foundry.Project{}, err
	}
	if err := writeFileAtomic(filepath.Join(path, summaryFile), cfg.Summary); err != nil {
		return foundry.Project{}, err
	}

	return foundry.Project{
		Name:      cfg.Name,
		CreatedAt: b.now().UTC(),
		Locator:   foundry.ResourceLocator{FilesystemPath: path},
		Vision:    cfg.Vision,
		TechStack: cfg.TechStack,
		Summary:   cfg.Summary,
	}, nil
}

func (b *Backend) ProjectExists(ctx context.Context, name string) (bool, error) {
	info, err := os.Stat(b.projectPath(name))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, foundry.Io("stat project directory", err)
	}
	return info.IsDir(), nil
}

func (b *Backend) ListProjects(ctx context.Context) ([]foundry.ProjectMetadata, error) {
	entries, err := os.ReadDir(b.root)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, foundry.Io("read foundry root", err)
	}

	out := make([]foundry.ProjectMetadata, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			log.Printf("[fsbackend] skipping unreadable project entry %q: %v", e.Name(), err)
			continue
		}
		specCount := 0
		if specEntries, err := os.ReadDir(b.specsDir(e.Name())); err == nil {
			for _, se := range specEntries {
				if se.IsDir() {
					specCount++
				}
			}
		}
		out = append(out, foundry.ProjectMetadata{
			Name:         e.Name(),
			CreatedAt:    info.ModTime().UTC(),
			SpecCount:    specCount,
			LastModified: info.ModTime().UTC(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (b *Backend) LoadProject(ctx context.Context, name string) (foundry.Project, error) {
	path := b.projectPath(name)
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return foundry.Project{}, foundry.NotFound("project %q not found", name)
	}
	if err != nil {
		return foundry.Project{}, foundry.Io("stat project directory", err)
	}

	vision, _ := readFile(filepath.Join(path, visionFile))
	techStack, _ := readFile(filepath.Join(path, techStackFile))
	summary, _ := readFile(filepath.Join(path, summaryFile))

	return foundry.Project{
		Name:      name,
		CreatedAt: info.ModTime().UTC(),
		Locator:   foundry.ResourceLocator{FilesystemPath: path},
		Vision:    vision,
		TechStack: techStack,
		Summary:   summary,
	}, nil
}

func (b *Backend) CreateSpec(ctx context.Context, cfg foundry.SpecConfig) (foundry.Spec, error) {
	if exists, err := b.ProjectExists(ctx, cfg.ProjectName); err != nil {
		return foundry.Spec{}, err
	} else if !exists {
		return foundry.Spec{}, foundry.NotFound("project %q not found", cfg.ProjectName)
	}

	name, err := foundry.GenerateSpecName(cfg.FeatureName, b.now())
	if err != nil {
		return foundry.Spec{}, err
	}
	path := b.specPath(cfg.ProjectName, name)
	for i := 0; ; i++ {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			break
		}
		name, err = foundry.GenerateSpecName(cfg.FeatureName, b.now().Add(time.Duration(i+1)*time.Second))
		if err != nil {
			return foundry.Spec{}, err
		}
		path = b.specPath(cfg.ProjectName, name)
	}

	if err := os.MkdirAll(path, 0o755); err != nil {
		return foundry.Spec{}, foundry.Io("create spec directory", err)
	}
	if err := writeFileAtomic(filepath.Join(path, specFile), cfg.Spec); err != nil {
		return foundry.Spec{}, err
	}
	if err := writeFileAtomic(filepath.Join(path, notesFile), cfg.Notes); err != nil {
		return foundry.Spec{}, err
	}
	if err := writeFileAtomic(filepath.Join(path, taskListFile), cfg.Tasks); err != nil {
		return foundry.Spec{}, err
	}

	return foundry.Spec{
		Name:        name,
		ProjectName: cfg.ProjectName,
		CreatedAt:   b.now().UTC(),
		Locator:     foundry.ResourceLocator{FilesystemPath: path},
		Spec:        cfg.Spec,
		Notes:       cfg.Notes,
		Tasks:       cfg.Tasks,
	}, nil
}

func (b *Backend) ListSpecs(ctx context.Context, projectName string) ([]foundry.SpecMetadata, error) {
	specsDir := b.specsDir(projectName)
	entries, err := os.ReadDir(specsDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, foundry.Io("read specs directory", err)
	}

	var out []foundry.SpecMetadata
	malformed := 0
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		name := e.Name()
		createdAt, ok := foundry.ExtractCreatedAt(name)
		if !ok || foundry.ValidateSpecName(name) != nil {
			malformed++
			log.Printf("[fsbackend] skipping malformed spec directory %q in project %q", name, projectName)
			continue
		}
		out = append(out, foundry.SpecMetadata{
			Name:        name,
			ProjectName: projectName,
			FeatureName: foundry.ExtractFeatureName(name),
			CreatedAt:   createdAt,
		})
	}
	if malformed > 0 {
		log.Printf("[fsbackend] skipped %d malformed spec directories in project %q", malformed, projectName)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (b *Backend) LoadSpec(ctx context.Context, projectName, specName string) (foundry.Spec, error) {
	if err := foundry.ValidateSpecName(specName); err != nil {
		return foundry.Spec{}, err
	}

	path := b.specPath(projectName, specName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return foundry.Spec{}, foundry.NotFound("spec %q not found in project %q", specName, projectName)
	}

	spec, err := readFile(filepath.Join(path, specFile))
	if err != nil {
		return foundry.Spec{}, foundry.Io("read spec.md", err)
	}
	notes, err := readFile(filepath.Join(path, notesFile))
	if err != nil {
		return foundry.Spec{}, foundry.Io("read notes.md", err)
	}
	tasks, err := readFile(filepath.Join(path, taskListFile))
	if err != nil {
		return foundry.Spec{}, foundry.Io("read task-list.md", err)
	}

	createdAt, ok := foundry.ExtractCreatedAt(specName)
	if !ok {
		createdAt = b.now().UTC()
	}

	return foundry.Spec{
		Name:        specName,
		ProjectName: projectName,
		CreatedAt:   createdAt,
		Locator:     foundry.ResourceLocator{FilesystemPath: path},
		Spec:        spec,
		Notes:       notes,
		Tasks:       tasks,
	}, nil
}

func (b *Backend) UpdateSpecContent(ctx context.Context, projectName, specName string, kind foundry.FileKind, content string) error {
	if err := foundry.ValidateSpecName(specName); err != nil {
		return err
	}
	path := b.specPath(projectName, specName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return foundry.NotFound("spec %q not found in project %q", specName, projectName)
	}

	var fileName string
	switch kind {
	case foundry.FileSpec:
		fileName = specFile
	case foundry.FileNotes:
		fileName = notesFile
	case foundry.FileTasks:
		fileName = taskListFile
	}
	return writeFileAtomic(filepath.Join(path, fileName), content)
}

func (b *Backend) DeleteSpec(ctx context.Context, projectName, specName string) error {
	if err := foundry.ValidateSpecName(specName); err != nil {
		return err
	}
	path := b.specPath(projectName, specName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return foundry.NotFound("spec %q not found in project %q", specName, projectName)
	}
	if err := os.RemoveAll(path); err != nil {
		return foundry.Io("delete spec directory", err)
	}
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
	specs, err := b.ListSpecs(ctx, projectName)
	if err != nil {
		return 0, err
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
