package remote

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/foundry-mcp/foundry/internal/cache"
	"github.com/foundry-mcp/foundry/internal/foundry"
	"github.com/foundry-mcp/foundry/internal/marker"
	"golang.org/x/sync/errgroup"
)

// defaultDocCacheTTL and defaultDocCacheMaxEntries seed the backend's
// read-through document cache; internal/syncer.Worker keeps it warm in the
// background via Backend.DocCache.
const (
	defaultDocCacheTTL        = 60 * time.Second
	defaultDocCacheMaxEntries = 10000
)

// taskCreateConcurrency bounds how many task issues are created at once.
// Task issue creation is independent per task (each is its own mutation
// against a distinct child issue), so it parallelizes safely; the cap keeps
// a large task list from bursting past the tracker's rate limiter all at
// once.
const taskCreateConcurrency = 4

// ProjectRecord is what the local mirror remembers about a tracker project.
type ProjectRecord struct {
	ID        string
	CreatedAt time.Time
}

// SpecRecord is what the local mirror remembers about a spec's remote
// resources, so later operations never have to re-resolve them by name.
type SpecRecord struct {
	ProjectID       string
	IssueID         string
	NotesDocumentID string
	IssueURL        string
	NotesURL        string
	FeatureName     string
	CreatedAt       time.Time
}

// Store is the local persistence boundary for resource locators. It is
// implemented by internal/locator against SQLite; tests may substitute an
// in-memory implementation.
type Store interface {
	GetProject(ctx context.Context, name string) (ProjectRecord, bool, error)
	PutProject(ctx context.Context, name string, rec ProjectRecord) error
	ListProjects(ctx context.Context) (map[string]ProjectRecord, error)

	GetSpec(ctx context.Context, project, spec string) (SpecRecord, bool, error)
	PutSpec(ctx context.Context, project, spec string, rec SpecRecord) error
	DeleteSpec(ctx context.Context, project, spec string) error
	ListSpecs(ctx context.Context, project string) (map[string]SpecRecord, error)
}

// Config disambiguates which tracker team newly created projects and
// issues belong to.
type Config struct {
	TeamID   string
	TeamKey  string
	TeamName string
}

// Backend implements foundry.Backend against a GraphQL issue tracker.
type Backend struct {
	client   *Client
	store    Store
	cfg      Config
	now      func() time.Time
	docCache *cache.Cache[[]Document]

	teamID string // resolved lazily, cached for the life of the backend
}

func New(client *Client, store Store, cfg Config, now func() time.Time) *Backend {
	if now == nil {
		now = time.Now
	}
	return &Backend{
		client:   client,
		store:    store,
		cfg:      cfg,
		now:      now,
		docCache: cache.New[[]Document](defaultDocCacheTTL, defaultDocCacheMaxEntries),
	}
}

// DocCache exposes the backend's read-through project-document cache so
// internal/syncer.Worker can keep it warm in the background. Reads still
// fall back to a live tracker call on a miss; the cache only shortens the
// common case.
func (b *Backend) DocCache() *cache.Cache[[]Document] { return b.docCache }

// projectDocuments is a read-through wrapper around client.ProjectDocuments.
func (b *Backend) projectDocuments(ctx context.Context, projectID string) ([]Document, error) {
	if docs, ok := b.docCache.Get(projectID); ok {
		return docs, nil
	}
	docs, err := b.client.ProjectDocuments(ctx, projectID)
	if err != nil {
		return nil, err
	}
	b.docCache.Set(projectID, docs)
	return docs, nil
}

func (b *Backend) Capabilities() foundry.Capabilities {
	return foundry.Capabilities{
		SupportsDocuments: true,
		SupportsSubtasks:  true,
		URLDeeplinks:      true,
		AtomicReplace:     false,
		StrongConsistency: false,
	}
}

func (b *Backend) teamIDOrResolve(ctx context.Context) (string, error) {
	if b.teamID != "" {
		return b.teamID, nil
	}
	id, err := b.client.ResolveTeamID(ctx, b.cfg.TeamID, b.cfg.TeamKey, b.cfg.TeamName)
	if err != nil {
		return "", err
	}
	b.teamID = id
	return id, nil
}

func (b *Backend) CreateProject(ctx context.Context, cfg foundry.ProjectConfig) (foundry.Project, error) {
	if _, ok, err := b.store.GetProject(ctx, cfg.Name); err != nil {
		return foundry.Project{}, err
	} else if ok {
		return foundry.Project{}, foundry.AlreadyExists("project %q already exists", cfg.Name)
	}

	teamID, err := b.teamIDOrResolve(ctx)
	if err != nil {
		return foundry.Project{}, foundry.Io("resolve team id", err)
	}

	project, err := b.client.FindOrCreateProject(ctx, teamID, cfg.Name, cfg.Summary)
	if err != nil {
		return foundry.Project{}, foundry.Io("create tracker project", err)
	}
	if err := b.client.UpdateProjectDescription(ctx, project.ID, cfg.Summary); err != nil {
		return foundry.Project{}, foundry.Io("set project description", err)
	}

	if err := b.upsertProjectDocuments(ctx, project.ID, cfg.Name, cfg.Vision, cfg.TechStack); err != nil {
		return foundry.Project{}, err
	}

	now := b.now()
	if err := b.store.PutProject(ctx, cfg.Name, ProjectRecord{ID: project.ID, CreatedAt: now}); err != nil {
		return foundry.Project{}, foundry.Io("persist project record", err)
	}

	return foundry.Project{
		Name:      cfg.Name,
		CreatedAt: now,
		Locator:   foundry.ResourceLocator{Remote: &foundry.RemoteLocator{ProjectID: project.ID}},
		Vision:    cfg.Vision,
		TechStack: cfg.TechStack,
		Summary:   cfg.Summary,
	}, nil
}

func (b *Backend) upsertProjectDocuments(ctx context.Context, projectID, projectName, vision, techStack string) error {
	existing, err := b.client.ProjectDocuments(ctx, projectID)
	if err != nil {
		return foundry.Io("list project documents", err)
	}
	visionTitle := projectName + " — Vision"
	techTitle := projectName + " — Tech Stack"

	pm := marker.RenderProject(projectName)
	visionBody := pm + "\n" + vision
	techBody := pm + "\n" + techStack

	var visionDoc, techDoc *Document
	for i := range existing {
		switch existing[i].Title {
		case visionTitle, "Vision":
			visionDoc = &existing[i]
		case techTitle, "Tech Stack":
			techDoc = &existing[i]
		}
	}

	if visionDoc != nil {
		if err := b.client.UpdateDocument(ctx, visionDoc.ID, visionBody); err != nil {
			return foundry.Io("update vision document", err)
		}
	} else if _, err := b.client.CreateDocument(ctx, visionTitle, visionBody, projectID); err != nil {
		return foundry.Io("create vision document", err)
	}

	if techDoc != nil {
		if err := b.client.UpdateDocument(ctx, techDoc.ID, techBody); err != nil {
			return foundry.Io("update tech stack document", err)
		}
	} else if _, err := b.client.CreateDocument(ctx, techTitle, techBody, projectID); err != nil {
		return foundry.Io("create tech stack document", err)
	}
	b.docCache.Delete(projectID)
	return nil
}

func (b *Backend) ProjectExists(ctx context.Context, name string) (bool, error) {
	_, ok, err := b.store.GetProject(ctx, name)
	return ok, err
}

func (b *Backend) ListProjects(ctx context.Context) ([]foundry.ProjectMetadata, error) {
	records, err := b.store.ListProjects(ctx)
	if err != nil {
		return nil, foundry.Io("list projects", err)
	}
	out := make([]foundry.ProjectMetadata, 0, len(records))
	for name, rec := range records {
		specs, err := b.store.ListSpecs(ctx, name)
		if err != nil {
			return nil, foundry.Io(fmt.Sprintf("list specs for %q", name), err)
		}
		out = append(out, foundry.ProjectMetadata{Name: name, CreatedAt: rec.CreatedAt, SpecCount: len(specs)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (b *Backend) LoadProject(ctx context.Context, name string) (foundry.Project, error) {
	rec, ok, err := b.store.GetProject(ctx, name)
	if err != nil {
		return foundry.Project{}, foundry.Io("load project record", err)
	}
	if !ok {
		return foundry.Project{}, foundry.NotFound("project %q not found", name)
	}

	docs, err := b.projectDocuments(ctx, rec.ID)
	if err != nil {
		return foundry.Project{}, foundry.Io("load project documents", err)
	}
	var vision, techStack string
	for _, d := range docs {
		switch d.Title {
		case name + " — Vision", "Vision":
			vision = marker.StripFirst(d.Content)
		case name + " — Tech Stack", "Tech Stack":
			techStack = marker.StripFirst(d.Content)
		}
	}

	project, ok, err := b.client.FindProjectByName(ctx, name)
	if err != nil {
		return foundry.Project{}, foundry.Io("load tracker project", err)
	}
	summary := ""
	if ok {
		summary = project.Description
	}

	return foundry.Project{
		Name:      name,
		CreatedAt: rec.CreatedAt,
		Locator:   foundry.ResourceLocator{Remote: &foundry.RemoteLocator{ProjectID: rec.ID}},
		Vision:    vision,
		TechStack: techStack,
		Summary:   summary,
	}, nil
}

func (b *Backend) CreateSpec(ctx context.Context, cfg foundry.SpecConfig) (foundry.Spec, error) {
	projectRec, ok, err := b.store.GetProject(ctx, cfg.ProjectName)
	if err != nil {
		return foundry.Spec{}, foundry.Io("load project record", err)
	}
	if !ok {
		return foundry.Spec{}, foundry.NotFound("project %q does not exist", cfg.ProjectName)
	}

	teamID, err := b.teamIDOrResolve(ctx)
	if err != nil {
		return foundry.Spec{}, foundry.Io("resolve team id", err)
	}

	now := b.now()
	specName, err := foundry.GenerateSpecName(cfg.FeatureName, now)
	if err != nil {
		return foundry.Spec{}, foundry.InvalidInput("%v", err)
	}
	for {
		if _, ok, err := b.store.GetSpec(ctx, cfg.ProjectName, specName); err != nil {
			return foundry.Spec{}, foundry.Io("check spec collision", err)
		} else if !ok {
			break
		}
		now = now.Add(time.Second)
		specName, _ = foundry.GenerateSpecName(cfg.FeatureName, now)
	}

	title := humanizeTitle(cfg.FeatureName)

	notesBody := marker.RenderSpec(specName, marker.KindNotes, "") + "\n" + cfg.Notes
	notesDoc, err := b.client.CreateDocument(ctx, title+" — Notes", notesBody, projectRec.ID)
	if err != nil {
		return foundry.Spec{}, foundry.Io("create notes document", err)
	}
	b.docCache.Delete(projectRec.ID)

	labelID, err := b.client.EnsureLabel(ctx)
	if err != nil {
		return foundry.Spec{}, foundry.Io("ensure foundry label", err)
	}

	description := marker.RenderSpec(specName, marker.KindSpec, "") + "\n" + cfg.Spec +
		"\n\n**Notes**: " + notesDoc.URL
	issue, err := b.client.CreateIssue(ctx, title, description, projectRec.ID, teamID, []string{labelID}, "")
	if err != nil {
		return foundry.Spec{}, foundry.Io("create spec issue", err)
	}

	tasks := ParseDesiredTasks(cfg.Tasks)
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(taskCreateConcurrency)
	for _, task := range tasks {
		group.Go(func() error {
			taskDesc := marker.RenderSpec(specName, marker.KindTask, task.Key) + "\n" + task.Text
			_, err := b.client.CreateIssue(gctx, task.Text, taskDesc, projectRec.ID, teamID, []string{labelID}, issue.ID)
			return err
		})
	}
	if err := group.Wait(); err != nil {
		return foundry.Spec{}, foundry.Io("create task issue", err)
	}

	rec := SpecRecord{
		ProjectID:       projectRec.ID,
		IssueID:         issue.ID,
		NotesDocumentID: notesDoc.ID,
		IssueURL:        issue.URL,
		NotesURL:        notesDoc.URL,
		FeatureName:     cfg.FeatureName,
		CreatedAt:       now,
	}
	if err := b.store.PutSpec(ctx, cfg.ProjectName, specName, rec); err != nil {
		return foundry.Spec{}, foundry.Io("persist spec record", err)
	}

	return foundry.Spec{
		Name:        specName,
		ProjectName: cfg.ProjectName,
		CreatedAt:   now,
		Locator:     remoteLocator(rec),
		Spec:        cfg.Spec,
		Notes:       cfg.Notes,
		Tasks:       cfg.Tasks,
	}, nil
}

func remoteLocator(rec SpecRecord) foundry.ResourceLocator {
	return foundry.ResourceLocator{Remote: &foundry.RemoteLocator{
		ProjectID:       rec.ProjectID,
		IssueID:         rec.IssueID,
		NotesDocumentID: rec.NotesDocumentID,
		IssueURL:        rec.IssueURL,
		NotesURL:        rec.NotesURL,
	}}
}

func (b *Backend) ListSpecs(ctx context.Context, projectName string) ([]foundry.SpecMetadata, error) {
	if _, ok, err := b.store.GetProject(ctx, projectName); err != nil {
		return nil, foundry.Io("load project record", err)
	} else if !ok {
		return nil, foundry.NotFound("project %q does not exist", projectName)
	}

	records, err := b.store.ListSpecs(ctx, projectName)
	if err != nil {
		return nil, foundry.Io("list spec records", err)
	}
	out := make([]foundry.SpecMetadata, 0, len(records))
	for name, rec := range records {
		// feature_name is recovered from the canonical name rather than the
		// tracker issue's human title, so it stays snake_case across every
		// backend variant.
		out = append(out, foundry.SpecMetadata{
			Name:        name,
			ProjectName: projectName,
			FeatureName: foundry.ExtractFeatureName(name),
			CreatedAt:   rec.CreatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (b *Backend) LoadSpec(ctx context.Context, projectName, specName string) (foundry.Spec, error) {
	if err := foundry.ValidateSpecName(specName); err != nil {
		return foundry.Spec{}, foundry.InvalidInput("%v", err)
	}
	rec, ok, err := b.store.GetSpec(ctx, projectName, specName)
	if err != nil {
		return foundry.Spec{}, foundry.Io("load spec record", err)
	}
	if !ok {
		return foundry.Spec{}, foundry.NotFound("spec %q not found in project %q", specName, projectName)
	}

	issue, ok, err := b.client.IssueByID(ctx, rec.IssueID, 200)
	if err != nil {
		return foundry.Spec{}, foundry.Io("load spec issue", err)
	}
	if !ok {
		return foundry.Spec{}, foundry.NotFound("spec issue for %q no longer exists", specName)
	}

	specBody := stripNotesLink(marker.StripFirst(issue.Description))

	var notesContent string
	if doc, ok, err := b.loadNotesDocument(ctx, rec); err != nil {
		return foundry.Spec{}, err
	} else if ok {
		notesContent = marker.StripFirst(doc.Content)
	}

	var taskLines []string
	for _, child := range issue.Children {
		prefix := "- [ ] "
		if child.IsOpen() == false {
			prefix = "- [x] "
		}
		taskLines = append(taskLines, prefix+marker.StripFirst(child.Description))
	}

	return foundry.Spec{
		Name:        specName,
		ProjectName: projectName,
		CreatedAt:   rec.CreatedAt,
		Locator:     remoteLocator(rec),
		Spec:        specBody,
		Notes:       notesContent,
		Tasks:       strings.Join(taskLines, "\n"),
	}, nil
}

func (b *Backend) loadNotesDocument(ctx context.Context, rec SpecRecord) (Document, bool, error) {
	docs, err := b.projectDocuments(ctx, rec.ProjectID)
	if err != nil {
		return Document{}, false, foundry.Io("list project documents", err)
	}
	for _, d := range docs {
		if d.ID == rec.NotesDocumentID {
			return d, true, nil
		}
	}
	return Document{}, false, nil
}

func stripNotesLink(body string) string {
	if idx := strings.Index(body, "\n\n**Notes**:"); idx >= 0 {
		return strings.TrimSpace(body[:idx])
	}
	return body
}

func (b *Backend) UpdateSpecContent(ctx context.Context, projectName, specName string, kind foundry.FileKind, content string) error {
	rec, ok, err := b.store.GetSpec(ctx, projectName, specName)
	if err != nil {
		return foundry.Io("load spec record", err)
	}
	if !ok {
		return foundry.NotFound("spec %q not found in project %q", specName, projectName)
	}

	switch kind {
	case foundry.FileSpec:
		description := marker.RenderSpec(specName, marker.KindSpec, "") + "\n" + content +
			"\n\n**Notes**: " + rec.NotesURL
		if err := b.client.UpdateIssueDescription(ctx, rec.IssueID, description); err != nil {
			return foundry.Io("update spec issue", err)
		}
		return nil
	case foundry.FileNotes:
		body := marker.RenderSpec(specName, marker.KindNotes, "") + "\n" + content
		if err := b.client.UpdateDocument(ctx, rec.NotesDocumentID, body); err != nil {
			return foundry.Io("update notes document", err)
		}
		b.docCache.Delete(rec.ProjectID)
		return nil
	case foundry.FileTasks:
		return b.reconcileTasks(ctx, specName, rec, content)
	default:
		return foundry.Unsupported("unknown file kind")
	}
}

func (b *Backend) reconcileTasks(ctx context.Context, specName string, rec SpecRecord, tasksMarkdown string) error {
	issue, ok, err := b.client.IssueByID(ctx, rec.IssueID, 200)
	if err != nil {
		return foundry.Io("load spec issue", err)
	}
	if !ok {
		return foundry.NotFound("spec issue for %q no longer exists", specName)
	}

	existing := make([]ExistingTask, 0, len(issue.Children))
	for _, child := range issue.Children {
		taskKey := ""
		if m, ok := marker.Parse(child.Description); ok {
			taskKey = m.TaskKey()
		}
		existing = append(existing, ExistingTask{
			IssueID:  child.ID,
			Title:    child.Title,
			Open:     child.IsOpen(),
			HasLabel: child.HasLabel(foundryLabelName),
			TaskKey:  taskKey,
		})
	}

	desired := ParseDesiredTasks(tasksMarkdown)
	plan := PlanReconciliation(desired, existing)
	if plan.IsEmpty() {
		return nil
	}

	labelID, err := b.client.EnsureLabel(ctx)
	if err != nil {
		return foundry.Io("ensure foundry label", err)
	}

	for _, id := range plan.ToKeepLabelFix {
		if err := b.client.UpdateIssueLabels(ctx, id, []string{labelID}); err != nil {
			return foundry.Io("fix task label", err)
		}
	}

	teamID, err := b.teamIDOrResolve(ctx)
	if err != nil {
		return foundry.Io("resolve team id", err)
	}
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(taskCreateConcurrency)
	for _, task := range plan.ToCreate {
		group.Go(func() error {
			desc := marker.RenderSpec(specName, marker.KindTask, task.Key) + "\n" + task.Text
			_, err := b.client.CreateIssue(gctx, task.Text, desc, rec.ProjectID, teamID, []string{labelID}, rec.IssueID)
			return err
		})
	}
	if err := group.Wait(); err != nil {
		return foundry.Io("create task issue", err)
	}

	if len(plan.ToClose) > 0 {
		completedState, err := b.client.WorkflowStateID(ctx, "completed")
		if err != nil {
			return foundry.Io("resolve completed state", err)
		}
		for _, id := range plan.ToClose {
			if err := b.client.SetIssueState(ctx, id, completedState); err != nil {
				return foundry.Io("close task", err)
			}
		}
	}

	if len(plan.ToReopen) > 0 {
		startedState, err := b.client.WorkflowStateID(ctx, "started")
		if err != nil {
			return foundry.Io("resolve started state", err)
		}
		for _, id := range plan.ToReopen {
			if err := b.client.SetIssueState(ctx, id, startedState); err != nil {
				return foundry.Io("reopen task", err)
			}
		}
	}

	return nil
}

// DeleteSpec closes every child task issue, then archives the spec issue.
// It does not remove the notes document: a known limitation carried over
// from the upstream reference rather than silently fixed.
func (b *Backend) DeleteSpec(ctx context.Context, projectName, specName string) error {
	rec, ok, err := b.store.GetSpec(ctx, projectName, specName)
	if err != nil {
		return foundry.Io("load spec record", err)
	}
	if !ok {
		return foundry.NotFound("spec %q not found in project %q", specName, projectName)
	}

	issue, ok, err := b.client.IssueByID(ctx, rec.IssueID, 200)
	if err != nil {
		return foundry.Io("load spec issue", err)
	}
	if ok {
		completedState, err := b.client.WorkflowStateID(ctx, "completed")
		if err != nil {
			return foundry.Io("resolve completed state", err)
		}
		for _, child := range issue.Children {
			if err := b.client.SetIssueState(ctx, child.ID, completedState); err != nil {
				return foundry.Io("close task issue", err)
			}
		}
	}

	if err := b.client.ArchiveIssue(ctx, rec.IssueID); err != nil {
		return foundry.Io("archive spec issue", err)
	}
	if err := b.store.DeleteSpec(ctx, projectName, specName); err != nil {
		return foundry.Io("delete spec record", err)
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

// humanizeTitle turns a snake_case feature name into a human-readable
// title: "user_auth" -> "User Auth".
func humanizeTitle(featureName string) string {
	words := strings.Split(featureName, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
