package foundry

import "context"

// Backend is the storage contract implemented by the filesystem, in-memory,
// and remote variants. Every method may block; callers cancel via ctx.
type Backend interface {
	CreateProject(ctx context.Context, cfg ProjectConfig) (Project, error)
	ProjectExists(ctx context.Context, name string) (bool, error)
	ListProjects(ctx context.Context) ([]ProjectMetadata, error)
	LoadProject(ctx context.Context, name string) (Project, error)

	CreateSpec(ctx context.Context, cfg SpecConfig) (Spec, error)
	ListSpecs(ctx context.Context, projectName string) ([]SpecMetadata, error)
	LoadSpec(ctx context.Context, projectName, specName string) (Spec, error)
	UpdateSpecContent(ctx context.Context, projectName, specName string, kind FileKind, content string) error
	DeleteSpec(ctx context.Context, projectName, specName string) error
	GetLatestSpec(ctx context.Context, projectName string) (*SpecMetadata, error)
	CountSpecs(ctx context.Context, projectName string) (int, error)

	Capabilities() Capabilities
}

// ContentStore is the narrow capability the edit engine needs: reading and
// writing one of a spec's three documents, and checking whether a write
// would actually change the persisted bytes. A Backend that also implements
// this interface is used directly; otherwise backendContentStore adapts a
// plain Backend by routing through LoadSpec/UpdateSpecContent.
type ContentStore interface {
	ReadSpecFile(ctx context.Context, projectName, specName string, kind FileKind) (string, error)
	WriteSpecFile(ctx context.Context, projectName, specName string, kind FileKind, content string) error
	IsFileModified(ctx context.Context, projectName, specName string, kind FileKind, newContent string) (bool, error)
}

// backendContentStore adapts any Backend into a ContentStore via LoadSpec
// and UpdateSpecContent, so backends aren't required to implement the
// narrower interface themselves.
type backendContentStore struct {
	backend Backend
}

func (s backendContentStore) ReadSpecFile(ctx context.Context, projectName, specName string, kind FileKind) (string, error) {
	spec, err := s.backend.LoadSpec(ctx, projectName, specName)
	if err != nil {
		return "", err
	}
	return fieldFor(spec, kind), nil
}

func (s backendContentStore) WriteSpecFile(ctx context.Context, projectName, specName string, kind FileKind, content string) error {
	return s.backend.UpdateSpecContent(ctx, projectName, specName, kind, content)
}

func (s backendContentStore) IsFileModified(ctx context.Context, projectName, specName string, kind FileKind, newContent string) (bool, error) {
	current, err := s.ReadSpecFile(ctx, projectName, specName, kind)
	if err != nil {
		return false, err
	}
	return current != newContent, nil
}

func fieldFor(spec Spec, kind FileKind) string {
	switch kind {
	case FileSpec:
		return spec.Spec
	case FileNotes:
		return spec.Notes
	case FileTasks:
		return spec.Tasks
	default:
		return ""
	}
}

// contentStoreFor returns backend itself if it implements ContentStore,
// otherwise the generic adapter. None of the bundled backends implements it;
// the remote backend reconciles task writes inside UpdateSpecContent.
func contentStoreFor(backend Backend) ContentStore {
	if cs, ok := backend.(ContentStore); ok {
		return cs
	}
	return backendContentStore{backend: backend}
}
