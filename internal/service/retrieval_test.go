package service

import (
	"context"
	"testing"

	"github.com/taskmind/taskmind/internal/logger"
	"github.com/taskmind/taskmind/internal/vector"
)

func newRetrievalFixture(t *testing.T) (*RetrievalService, *vector.Store) {
	t.Helper()

	embedder := newStubEmbedder("bug", "parser", "documentation", "website", "redesign", "deploy")
	store, err := vector.Open(vector.Config{
		Dir:      t.TempDir(),
		Embedder: embedder,
	})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}

	ctx := context.Background()
	entries := []struct {
		text string
		typ  string
	}{
		{"Task: Fix bug in parser", "task"},
		{"Task: Write documentation", "task"},
		{"Comment: bug reproduced on staging", "comment"},
		{"Project: Website redesign", "project"},
		{"Task: Deploy website", "task"},
	}
	for _, e := range entries {
		if _, err := store.Add(ctx, e.text, map[string]interface{}{"type": e.typ}); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	return NewRetrievalService(store, 5, 50, logger.New(nil)), store
}

func TestRetrievalSearch(t *testing.T) {
	svc, _ := newRetrievalFixture(t)
	ctx := context.Background()

	t.Run("unfiltered search ranks by similarity", func(t *testing.T) {
		results, err := svc.Search(ctx, "bug", "", 3)
		if err != nil {
			t.Fatalf("Search: %v", err)
		}
		if len(results) != 3 {
			t.Fatalf("got %d results, want 3", len(results))
		}
		top, _ := results[0].Metadata["type"].(string)
		if top != "task" && top != "comment" {
			t.Errorf("top result type = %s, want a bug-related entry", top)
		}
		for i := 1; i < len(results); i++ {
			if results[i].Similarity > results[i-1].Similarity {
				t.Errorf("results not ordered by similarity at %d", i)
			}
		}
	})

	t.Run("type filter excludes other entity classes", func(t *testing.T) {
		results, err := svc.Search(ctx, "bug", "task", 5)
		if err != nil {
			t.Fatalf("Search: %v", err)
		}
		if len(results) == 0 {
			t.Fatal("expected task results")
		}
		for _, r := range results {
			if r.Metadata["type"] != "task" {
				t.Errorf("filtered result has type %v", r.Metadata["type"])
			}
		}
	})

	t.Run("filter still fills topK from over-fetch", func(t *testing.T) {
		// Three tasks exist; a filtered top-3 must find all of them even
		// though non-task entries may rank between them.
		results, err := svc.Search(ctx, "bug documentation website", "task", 3)
		if err != nil {
			t.Fatalf("Search: %v", err)
		}
		if len(results) != 3 {
			t.Errorf("got %d task results, want 3", len(results))
		}
	})

	t.Run("zero topK falls back to default", func(t *testing.T) {
		results, err := svc.Search(ctx, "website", "", 0)
		if err != nil {
			t.Fatalf("Search: %v", err)
		}
		if len(results) != 5 {
			t.Errorf("got %d results, want default of 5", len(results))
		}
	})

	t.Run("topK above maximum is clamped", func(t *testing.T) {
		svcSmall, _ := newRetrievalFixture(t)
		// maxTopK of 2 for this instance.
		clamped := NewRetrievalService(svcSmall.store, 1, 2, logger.New(nil))
		results, err := clamped.Search(ctx, "website", "", 100)
		if err != nil {
			t.Fatalf("Search: %v", err)
		}
		if len(results) > 2 {
			t.Errorf("got %d results, want at most 2", len(results))
		}
	})
}

func TestValidEntityType(t *testing.T) {
	testCases := []struct {
		value string
		want  bool
	}{
		{"task", true},
		{"project", true},
		{"comment", true},
		{"", false},
		{"user", false},
		{"Task", false},
	}
	for _, tc := range testCases {
		if got := ValidEntityType(tc.value); got != tc.want {
			t.Errorf("ValidEntityType(%q) = %v, want %v", tc.value, got, tc.want)
		}
	}
}
