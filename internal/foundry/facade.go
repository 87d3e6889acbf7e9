package foundry

import (
	"context"
	"strings"

	"github.com/foundry-mcp/foundry/internal/editengine"
	"github.com/foundry-mcp/foundry/internal/validate"
)

const (
	maxProjectDocChars = 50_000
	maxSpecDocChars    = 100_000
)

// Facade is the storage-agnostic coordinator: it owns name
// generation/validation, fuzzy matching, and the bridge from the edit
// engine to whatever Backend is configured.
type Facade struct {
	backend Backend
	store   ContentStore
}

// New builds a Facade over backend.
func New(backend Backend) *Facade {
	return &Facade{backend: backend, store: contentStoreFor(backend)}
}

func (f *Facade) Capabilities() Capabilities { return f.backend.Capabilities() }

// CreateProject validates the project name and document sizes, then
// delegates to the backend.
func (f *Facade) CreateProject(ctx context.Context, cfg ProjectConfig) (Project, error) {
	if err := ValidateProjectName(cfg.Name); err != nil {
		return Project{}, err
	}
	for _, doc := range []string{cfg.Vision, cfg.TechStack, cfg.Summary} {
		if len(doc) > maxProjectDocChars {
			return Project{}, InvalidInput("project document content exceeds %d characters", maxProjectDocChars)
		}
	}
	return f.backend.CreateProject(ctx, cfg)
}

func (f *Facade) ProjectExists(ctx context.Context, name string) (bool, error) {
	return f.backend.ProjectExists(ctx, name)
}

func (f *Facade) ListProjects(ctx context.Context) ([]ProjectMetadata, error) {
	return f.backend.ListProjects(ctx)
}

func (f *Facade) LoadProject(ctx context.Context, name string) (Project, error) {
	return f.backend.LoadProject(ctx, name)
}

// CreateSpec validates the feature name and document sizes, generates the
// canonical spec name, and delegates to the backend.
func (f *Facade) CreateSpec(ctx context.Context, cfg SpecConfig) (Spec, error) {
	if err := ValidateFeatureName(cfg.FeatureName); err != nil {
		return Spec{}, err
	}
	for _, doc := range []string{cfg.Spec, cfg.Notes, cfg.Tasks} {
		if len(doc) > maxSpecDocChars {
			return Spec{}, InvalidInput("spec document content exceeds %d characters", maxSpecDocChars)
		}
	}
	exists, err := f.backend.ProjectExists(ctx, cfg.ProjectName)
	if err != nil {
		return Spec{}, err
	}
	if !exists {
		return Spec{}, NotFound("project %q does not exist", cfg.ProjectName)
	}
	return f.backend.CreateSpec(ctx, cfg)
}

func (f *Facade) ListSpecs(ctx context.Context, projectName string) ([]SpecMetadata, error) {
	return f.backend.ListSpecs(ctx, projectName)
}

// ListSpecsFiltered applies feature-name/date/limit filtering on top of
// ListSpecs, matching the upstream reference's list_specs_filtered.
func (f *Facade) ListSpecsFiltered(ctx context.Context, projectName string, filter SpecFilter) ([]SpecMetadata, error) {
	all, err := f.backend.ListSpecs(ctx, projectName)
	if err != nil {
		return nil, err
	}
	out := make([]SpecMetadata, 0, len(all))
	for _, s := range all {
		if filter.FeatureNameContains != "" && !containsFold(s.FeatureName, filter.FeatureNameContains) {
			continue
		}
		if filter.CreatedAfter != nil && !s.CreatedAt.After(*filter.CreatedAfter) {
			continue
		}
		if filter.CreatedBefore != nil && !s.CreatedAt.Before(*filter.CreatedBefore) {
			continue
		}
		out = append(out, s)
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (f *Facade) LoadSpec(ctx context.Context, projectName, specName string) (Spec, error) {
	return f.backend.LoadSpec(ctx, projectName, specName)
}

// LoadSpecWithFuzzy resolves query against the project's specs per
// FindSpecMatch and loads the result. A Multiple or None match surfaces as
// an Ambiguous / NotFound error respectively.
func (f *Facade) LoadSpecWithFuzzy(ctx context.Context, projectName, query string) (Spec, error) {
	name, err := f.ResolveSpecName(ctx, projectName, query)
	if err != nil {
		return Spec{}, err
	}
	return f.backend.LoadSpec(ctx, projectName, name)
}

// ResolveSpecName runs FindSpecMatch against the project's current spec
// list and converts its result into either a canonical name or an error.
func (f *Facade) ResolveSpecName(ctx context.Context, projectName, query string) (string, error) {
	if projectName == "" {
		return "", InvalidInput("project name cannot be empty; specify a valid project name")
	}
	specs, err := f.backend.ListSpecs(ctx, projectName)
	if err != nil {
		return "", err
	}
	strategy, err := FindSpecMatch(query, specs)
	if err != nil {
		return "", err
	}
	switch strategy.Kind {
	case MatchExact, MatchFeatureExact, MatchFeatureFuzzy, MatchNameFuzzy:
		return strategy.Name, nil
	case MatchMultiple:
		return "", Ambiguous("multiple specs match "+query, strategy.Candidates)
	default:
		return "", NotFound("no specs found matching %q in project %q", query, projectName)
	}
}

func (f *Facade) DeleteSpec(ctx context.Context, projectName, specName string) error {
	return f.backend.DeleteSpec(ctx, projectName, specName)
}

func (f *Facade) GetLatestSpec(ctx context.Context, projectName string) (*SpecMetadata, error) {
	return f.backend.GetLatestSpec(ctx, projectName)
}

func (f *Facade) CountSpecs(ctx context.Context, projectName string) (int, error) {
	return f.backend.CountSpecs(ctx, projectName)
}

// ApplyEditCommands is the façade's bridge from the edit engine to storage:
// it loads the current document triple, runs the commands, and writes back
// only the documents that actually changed.
func (f *Facade) ApplyEditCommands(ctx context.Context, projectName, specName string, commands []editengine.Command) (editengine.Result, error) {
	specContent, err := f.store.ReadSpecFile(ctx, projectName, specName, FileSpec)
	if err != nil {
		return editengine.Result{}, err
	}
	tasksContent, err := f.store.ReadSpecFile(ctx, projectName, specName, FileTasks)
	if err != nil {
		return editengine.Result{}, err
	}
	notesContent, err := f.store.ReadSpecFile(ctx, projectName, specName, FileNotes)
	if err != nil {
		return editengine.Result{}, err
	}

	result := editengine.ProcessCommands(editengine.Documents{
		Spec:  specContent,
		Tasks: tasksContent,
		Notes: notesContent,
	}, commands)

	if result.Documents.Spec != specContent {
		if err := f.store.WriteSpecFile(ctx, projectName, specName, FileSpec, result.Documents.Spec); err != nil {
			return result, err
		}
	}
	if result.Documents.Tasks != tasksContent {
		if err := f.store.WriteSpecFile(ctx, projectName, specName, FileTasks, result.Documents.Tasks); err != nil {
			return result, err
		}
	}
	if result.Documents.Notes != notesContent {
		if err := f.store.WriteSpecFile(ctx, projectName, specName, FileNotes, result.Documents.Notes); err != nil {
			return result, err
		}
	}

	return result, nil
}

// ValidateSpecFiles checks existence and content quality of a spec's three
// documents, matching the upstream reference's validate_spec_files.
func (f *Facade) ValidateSpecFiles(ctx context.Context, projectName, specName string) (SpecValidationResult, error) {
	spec, err := f.backend.LoadSpec(ctx, projectName, specName)
	if err != nil {
		return SpecValidationResult{}, err
	}

	result := SpecValidationResult{SpecName: specName, ProjectName: projectName}

	result.SpecFileExists = spec.Spec != ""
	result.NotesFileExists = spec.Notes != ""
	result.TaskListFileExists = spec.Tasks != ""

	specRes := validate.Validate(validate.Spec, spec.Spec)
	notesRes := validate.Validate(validate.Notes, spec.Notes)
	tasksRes := validate.Validate(validate.Tasks, spec.Tasks)

	result.ContentValidation = ContentValidationStatus{
		SpecValid:  specRes.IsValid,
		NotesValid: notesRes.IsValid,
		TasksValid: tasksRes.IsValid,
	}
	result.ValidationErrors = append(result.ValidationErrors, specRes.Errors...)
	result.ValidationErrors = append(result.ValidationErrors, notesRes.Errors...)
	result.ValidationErrors = append(result.ValidationErrors, tasksRes.Errors...)

	return result, nil
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
