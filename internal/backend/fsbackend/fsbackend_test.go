package fsbackend

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/foundry-mcp/foundry/internal/foundry"
)

func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	root := t.TempDir()
	clock := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	b, err := New(root, func() time.Time { return clock })
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return b
}

func TestCreateAndLoadProject(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t)

	cfg := foundry.ProjectConfig{Name: "demo", Vision: "v", TechStack: "t", Summary: "s"}
	if _, err := b.CreateProject(ctx, cfg); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := b.CreateProject(ctx, cfg); !foundry.Is(err, foundry.KindAlreadyExists) {
		t.Fatalf("expected already-exists, got %v", err)
	}

	loaded, err := b.LoadProject(ctx, "demo")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Vision != "v" || loaded.TechStack != "t" || loaded.Summary != "s" {
		t.Fatalf("unexpected loaded project: %+v", loaded)
	}
}

func TestCreateProjectDuplicateIsCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t)

	if _, err := b.CreateProject(ctx, foundry.ProjectConfig{Name: "Demo", Vision: "v", TechStack: "t", Summary: "s"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := b.CreateProject(ctx, foundry.ProjectConfig{Name: "demo", Vision: "v", TechStack: "t", Summary: "s"}); !foundry.Is(err, foundry.KindAlreadyExists) {
		t.Fatalf("expected already-exists error for differently-cased name, got %v", err)
	}
}

func TestCreateSpecWritesAtomicFilesAndLists(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t)

	if _, err := b.CreateProject(ctx, foundry.ProjectConfig{Name: "demo"}); err != nil {
		t.Fatalf("create project: %v", err)
	}

	spec, err := b.CreateSpec(ctx, foundry.SpecConfig{ProjectName: "demo", FeatureName: "user_auth", Spec: "spec body", Notes: "notes body", Tasks: "- [ ] one"})
	if err != nil {
		t.Fatalf("create spec: %v", err)
	}
	if want := "20260601_120000_user_auth"; spec.Name != want {
		t.Fatalf("spec name = %q, want %q", spec.Name, want)
	}

	for _, f := range []string{specFile, notesFile, taskListFile} {
		if _, err := os.Stat(filepath.Join(spec.Locator.FilesystemPath, f)); err != nil {
			t.Fatalf("expected %s to exist: %v", f, err)
		}
		if matches, _ := filepath.Glob(filepath.Join(spec.Locator.FilesystemPath, "*.tmp")); len(matches) != 0 {
			t.Fatalf("leftover temp files: %v", matches)
		}
	}

	metas, err := b.ListSpecs(ctx, "demo")
	if err != nil || len(metas) != 1 || metas[0].FeatureName != "user_auth" {
		t.Fatalf("unexpected spec list: %+v err=%v", metas, err)
	}
}

func TestListSpecsSkipsMalformedDirectories(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t)

	if _, err := b.CreateProject(ctx, foundry.ProjectConfig{Name: "demo"}); err != nil {
		t.Fatalf("create project: %v", err)
	}
	if _, err := b.CreateSpec(ctx, foundry.SpecConfig{ProjectName: "demo", FeatureName: "good"}); err != nil {
		t.Fatalf("create spec: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(b.specsDir("demo"), "not-a-valid-spec-name"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	metas, err := b.ListSpecs(ctx, "demo")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(metas) != 1 {
		t.Fatalf("expected malformed directory to be skipped, got %+v", metas)
	}
}

func TestUpdateSpecContentAndDeleteSpec(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t)

	if _, err := b.CreateProject(ctx, foundry.ProjectConfig{Name: "demo"}); err != nil {
		t.Fatalf("create project: %v", err)
	}
	spec, err := b.CreateSpec(ctx, foundry.SpecConfig{ProjectName: "demo", FeatureName: "auth"})
	if err != nil {
		t.Fatalf("create spec: %v", err)
	}

	if err := b.UpdateSpecContent(ctx, "demo", spec.Name, foundry.FileTasks, "- [x] done"); err != nil {
		t.Fatalf("update: %v", err)
	}
	loaded, err := b.LoadSpec(ctx, "demo", spec.Name)
	if err != nil || loaded.Tasks != "- [x] done" {
		t.Fatalf("unexpected tasks after update: %+v err=%v", loaded, err)
	}

	if err := b.DeleteSpec(ctx, "demo", spec.Name); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := b.LoadSpec(ctx, "demo", spec.Name); !foundry.Is(err, foundry.KindNotFound) {
		t.Fatalf("expected not-found after delete, got %v", err)
	}
}
