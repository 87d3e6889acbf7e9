package memory

import (
	"context"
	"testing"
	"time"

	"github.com/foundry-mcp/foundry/internal/foundry"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestBackendCapabilities(t *testing.T) {
	b := New(nil)
	caps := b.Capabilities()
	if !caps.SupportsDocuments || !caps.SupportsSubtasks || !caps.AtomicReplace || !caps.StrongConsistency {
		t.Fatalf("unexpected capabilities: %+v", caps)
	}
	if caps.URLDeeplinks {
		t.Fatalf("in-memory backend should not claim URL deeplinks")
	}
}

func TestCreateProjectDuplicate(t *testing.T) {
	ctx := context.Background()
	b := New(nil)

	cfg := foundry.ProjectConfig{Name: "demo", Vision: "v", TechStack: "t", Summary: "s"}
	if _, err := b.CreateProject(ctx, cfg); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := b.CreateProject(ctx, cfg); !foundry.Is(err, foundry.KindAlreadyExists) {
		t.Fatalf("expected already-exists error, got %v", err)
	}
}

func TestCreateProjectDuplicateIsCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	b := New(nil)

	if _, err := b.CreateProject(ctx, foundry.ProjectConfig{Name: "Demo", Vision: "v", TechStack: "t", Summary: "s"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := b.CreateProject(ctx, foundry.ProjectConfig{Name: "demo", Vision: "v", TechStack: "t", Summary: "s"}); !foundry.Is(err, foundry.KindAlreadyExists) {
		t.Fatalf("expected already-exists error for differently-cased name, got %v", err)
	}
}

func TestProjectExistsAndList(t *testing.T) {
	ctx := context.Background()
	b := New(fixedClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))

	if _, err := b.CreateProject(ctx, foundry.ProjectConfig{Name: "demo"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	exists, err := b.ProjectExists(ctx, "demo")
	if err != nil || !exists {
		t.Fatalf("expected demo to exist, got exists=%v err=%v", exists, err)
	}
	exists, err = b.ProjectExists(ctx, "nope")
	if err != nil || exists {
		t.Fatalf("expected nope to not exist, got exists=%v err=%v", exists, err)
	}

	list, err := b.ListProjects(ctx)
	if err != nil || len(list) != 1 || list[0].Name != "demo" {
		t.Fatalf("unexpected project list: %+v err=%v", list, err)
	}
}

func TestCreateSpecRequiresProject(t *testing.T) {
	ctx := context.Background()
	b := New(nil)
	_, err := b.CreateSpec(ctx, foundry.SpecConfig{ProjectName: "missing", FeatureName: "auth"})
	if !foundry.Is(err, foundry.KindNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestCreateSpecGeneratesNameAndRoundtrips(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)
	b := New(fixedClock(clock))

	if _, err := b.CreateProject(ctx, foundry.ProjectConfig{Name: "demo"}); err != nil {
		t.Fatalf("create project: %v", err)
	}

	spec, err := b.CreateSpec(ctx, foundry.SpecConfig{ProjectName: "demo", FeatureName: "user_auth", Spec: "spec body"})
	if err != nil {
		t.Fatalf("create spec: %v", err)
	}
	if want := "20260314_150926_user_auth"; spec.Name != want {
		t.Fatalf("spec name = %q, want %q", spec.Name, want)
	}

	loaded, err := b.LoadSpec(ctx, "demo", spec.Name)
	if err != nil {
		t.Fatalf("load spec: %v", err)
	}
	if loaded.Spec != "spec body" {
		t.Fatalf("loaded spec content = %q", loaded.Spec)
	}

	metas, err := b.ListSpecs(ctx, "demo")
	if err != nil || len(metas) != 1 || metas[0].FeatureName != "user_auth" {
		t.Fatalf("unexpected spec list: %+v err=%v", metas, err)
	}
}

func TestUpdateSpecContentAndDelete(t *testing.T) {
	ctx := context.Background()
	b := New(nil)

	if _, err := b.CreateProject(ctx, foundry.ProjectConfig{Name: "demo"}); err != nil {
		t.Fatalf("create project: %v", err)
	}
	spec, err := b.CreateSpec(ctx, foundry.SpecConfig{ProjectName: "demo", FeatureName: "auth"})
	if err != nil {
		t.Fatalf("create spec: %v", err)
	}

	if err := b.UpdateSpecContent(ctx, "demo", spec.Name, foundry.FileNotes, "updated notes"); err != nil {
		t.Fatalf("update: %v", err)
	}
	loaded, err := b.LoadSpec(ctx, "demo", spec.Name)
	if err != nil || loaded.Notes != "updated notes" {
		t.Fatalf("unexpected notes after update: %+v err=%v", loaded, err)
	}

	if err := b.DeleteSpec(ctx, "demo", spec.Name); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := b.LoadSpec(ctx, "demo", spec.Name); !foundry.Is(err, foundry.KindNotFound) {
		t.Fatalf("expected not-found after delete, got %v", err)
	}
}

func TestGetLatestSpecAndCount(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	b := New(fixedClock(base))

	if _, err := b.CreateProject(ctx, foundry.ProjectConfig{Name: "demo"}); err != nil {
		t.Fatalf("create project: %v", err)
	}

	if n, err := b.CountSpecs(ctx, "demo"); err != nil || n != 0 {
		t.Fatalf("expected 0 specs, got %d err=%v", n, err)
	}

	if _, err := b.CreateSpec(ctx, foundry.SpecConfig{ProjectName: "demo", FeatureName: "first"}); err != nil {
		t.Fatalf("create spec: %v", err)
	}

	b.now = fixedClock(base.Add(time.Hour))
	second, err := b.CreateSpec(ctx, foundry.SpecConfig{ProjectName: "demo", FeatureName: "second"})
	if err != nil {
		t.Fatalf("create spec: %v", err)
	}

	latest, err := b.GetLatestSpec(ctx, "demo")
	if err != nil || latest == nil || latest.Name != second.Name {
		t.Fatalf("unexpected latest spec: %+v err=%v", latest, err)
	}

	if n, err := b.CountSpecs(ctx, "demo"); err != nil || n != 2 {
		t.Fatalf("expected 2 specs, got %d err=%v", n, err)
	}
}
