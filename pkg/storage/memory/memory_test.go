package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/skizzehq/skizze/pkg/api"
	"github.com/skizzehq/skizze/pkg/storage"
)

func strPtr(s string) *string { return &s }

func TestSaveAndGet(t *testing.T) {
	s := New()
	ctx := context.Background()

	artifact := &api.Artifact{ID: "a1", UserID: strPtr("u1"), ViewCount: 5}
	if err := s.SaveArtifact(ctx, artifact); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.GetArtifact(ctx, "a1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ViewCount != 5 || got.UserID == nil || *got.UserID != "u1" {
		t.Errorf("got %+v", got)
	}

	// Mutating the returned copy must not touch the stored value.
	got.ViewCount = 100
	again, _ := s.GetArtifact(ctx, "a1")
	if again.ViewCount != 5 {
		t.Error("store returned a shared pointer")
	}
}

func TestSaveConflict(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.SaveArtifact(ctx, &api.Artifact{ID: "a1"}); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveArtifact(ctx, &api.Artifact{ID: "a1"}); !errors.Is(err, storage.ErrConflict) {
		t.Errorf("err = %v, want ErrConflict", err)
	}
}

func TestGetNotFound(t *testing.T) {
	s := New()
	if _, err := s.GetArtifact(context.Background(), "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestIncrementViewCount(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.SaveArtifact(ctx, &api.Artifact{ID: "a1", ViewCount: 5}); err != nil {
		t.Fatal(err)
	}

	n, err := s.IncrementViewCount(ctx, "a1")
	if err != nil {
		t.Fatalf("increment: %v", err)
	}
	if n != 6 {
		t.Errorf("count = %d, want 6", n)
	}

	n, _ = s.IncrementViewCount(ctx, "a1")
	if n != 7 {
		t.Errorf("count = %d, want 7", n)
	}

	if _, err := s.IncrementViewCount(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestIncrementViewCountConcurrent(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.SaveArtifact(ctx, &api.Artifact{ID: "a1"}); err != nil {
		t.Fatal(err)
	}

	const workers = 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.IncrementViewCount(ctx, "a1")
		}()
	}
	wg.Wait()

	got, _ := s.GetArtifact(ctx, "a1")
	if got.ViewCount != workers {
		t.Errorf("count = %d, want %d (lost updates)", got.ViewCount, workers)
	}
}

func TestListPublic(t *testing.T) {
	s := New()
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	artifacts := []*api.Artifact{
		{ID: "old-public", IsPublic: true, UpdatedAt: base},
		{ID: "new-public", IsPublic: true, UpdatedAt: base.Add(time.Hour)},
		{ID: "private", IsPublic: false, UpdatedAt: base.Add(2 * time.Hour)},
	}
	for _, a := range artifacts {
		if err := s.SaveArtifact(ctx, a); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.ListPublic(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ID != "new-public" || got[1].ID != "old-public" {
		t.Errorf("order = [%s, %s]", got[0].ID, got[1].ID)
	}

	limited, _ := s.ListPublic(ctx, 1)
	if len(limited) != 1 || limited[0].ID != "new-public" {
		t.Errorf("limited = %+v", limited)
	}

	empty, _ := New().ListPublic(ctx, 10)
	if empty == nil || len(empty) != 0 {
		t.Errorf("empty list should be non-nil and empty, got %v", empty)
	}
}
