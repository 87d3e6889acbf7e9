package syncer

import (
	"context"
	"testing"
	"time"

	"github.com/foundry-mcp/foundry/internal/backend/remote"
	"github.com/foundry-mcp/foundry/internal/cache"
	"github.com/foundry-mcp/foundry/internal/testutil"
)

type memStore struct {
	projects map[string]remote.ProjectRecord
}

func (s *memStore) GetProject(_ context.Context, name string) (remote.ProjectRecord, bool, error) {
	rec, ok := s.projects[name]
	return rec, ok, nil
}
func (s *memStore) PutProject(_ context.Context, name string, rec remote.ProjectRecord) error {
	s.projects[name] = rec
	return nil
}
func (s *memStore) ListProjects(_ context.Context) (map[string]remote.ProjectRecord, error) {
	out := make(map[string]remote.ProjectRecord, len(s.projects))
	for k, v := range s.projects {
		out[k] = v
	}
	return out, nil
}
func (s *memStore) GetSpec(_ context.Context, _, _ string) (remote.SpecRecord, bool, error) {
	return remote.SpecRecord{}, false, nil
}
func (s *memStore) PutSpec(_ context.Context, _, _ string, _ remote.SpecRecord) error { return nil }
func (s *memStore) DeleteSpec(_ context.Context, _, _ string) error                   { return nil }
func (s *memStore) ListSpecs(_ context.Context, _ string) (map[string]remote.SpecRecord, error) {
	return nil, nil
}

var _ remote.Store = (*memStore)(nil)

func TestSyncNowPopulatesDocCache(t *testing.T) {
	mock := testutil.NewMockLinearServer()
	defer mock.Close()
	mock.SetResponse("ProjectDocuments", map[string]any{
		"projects": map[string]any{"nodes": []map[string]any{{
			"id": "proj-1",
			"documents": map[string]any{"nodes": []map[string]any{
				{"id": "doc-1", "title": "checkout — Vision", "content": "fast checkout"},
			}},
		}}},
	})

	client := remote.NewClientWithOptions("test-key", remote.ClientOptions{APIURL: mock.URL()})
	defer client.Close()
	store := &memStore{projects: map[string]remote.ProjectRecord{
		"checkout": {ID: "proj-1", CreatedAt: time.Now()},
	}}
	docCache := cache.New[[]remote.Document](time.Minute, 100)

	w := NewWorker(client, store, docCache, Config{Interval: time.Hour})
	if err := w.SyncNow(context.Background()); err != nil {
		t.Fatalf("SyncNow failed: %v", err)
	}

	docs, ok := docCache.Get("proj-1")
	if !ok {
		t.Fatal("SyncNow should have populated the doc cache for proj-1")
	}
	if len(docs) != 1 || docs[0].ID != "doc-1" {
		t.Errorf("docCache[proj-1] = %+v", docs)
	}
	if w.LastSync().IsZero() {
		t.Error("LastSync should be set after SyncNow")
	}
}

func TestSyncNowSkipsUnchangedProjects(t *testing.T) {
	mock := testutil.NewMockLinearServer()
	defer mock.Close()
	mock.SetResponse("ProjectDocuments", map[string]any{
		"projects": map[string]any{"nodes": []map[string]any{{
			"id":        "proj-1",
			"documents": map[string]any{"nodes": []map[string]any{{"id": "doc-1", "content": "same"}}},
		}}},
	})

	client := remote.NewClientWithOptions("test-key", remote.ClientOptions{APIURL: mock.URL()})
	defer client.Close()
	store := &memStore{projects: map[string]remote.ProjectRecord{"checkout": {ID: "proj-1"}}}
	docCache := cache.New[[]remote.Document](time.Minute, 100)
	docCache.Set("proj-1", []remote.Document{{ID: "doc-1", Content: "same"}})

	w := NewWorker(client, store, docCache, Config{})
	if err := w.SyncNow(context.Background()); err != nil {
		t.Fatalf("SyncNow failed: %v", err)
	}

	calls := mock.Calls()
	if len(calls) != 1 {
		t.Fatalf("SyncNow made %d calls, want exactly 1 (fetch, then detect no change)", len(calls))
	}
}

func TestStartAndStop(t *testing.T) {
	mock := testutil.NewMockLinearServer()
	defer mock.Close()
	mock.SetResponse("ProjectDocuments", map[string]any{"projects": map[string]any{"nodes": []map[string]any{}}})

	client := remote.NewClientWithOptions("test-key", remote.ClientOptions{APIURL: mock.URL()})
	defer client.Close()
	store := &memStore{projects: map[string]remote.ProjectRecord{}}
	docCache := cache.New[[]remote.Document](time.Minute, 100)

	w := NewWorker(client, store, docCache, Config{Interval: time.Hour})
	w.Start(context.Background())
	if !w.Running() {
		t.Fatal("worker should report running after Start")
	}
	w.Stop()
	if w.Running() {
		t.Error("worker should report stopped after Stop")
	}
}

func TestStartIsNoopWhenAlreadyRunning(t *testing.T) {
	mock := testutil.NewMockLinearServer()
	defer mock.Close()
	mock.SetResponse("ProjectDocuments", map[string]any{"projects": map[string]any{"nodes": []map[string]any{}}})

	client := remote.NewClientWithOptions("test-key", remote.ClientOptions{APIURL: mock.URL()})
	defer client.Close()
	store := &memStore{projects: map[string]remote.ProjectRecord{}}
	docCache := cache.New[[]remote.Document](time.Minute, 100)

	w := NewWorker(client, store, docCache, Config{Interval: time.Hour})
	w.Start(context.Background())
	defer w.Stop()
	w.Start(context.Background()) // should not panic or deadlock
	if !w.Running() {
		t.Error("worker should still report running")
	}
}
