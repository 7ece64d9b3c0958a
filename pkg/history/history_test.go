package history

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/charlieegan3/metadata-console/pkg/test"
)

func TestRecordAndRecent(t *testing.T) {
	if testing.Short() {
		t.Skip("requires a postgres container")
	}

	ctx := context.Background()

	db, postgresCleanup, err := test.InitPostgres(ctx, t)
	defer func() {
		if postgresCleanup == nil {
			return
		}
		if err := postgresCleanup(); err != nil {
			t.Fatalf("Could not cleanup postgres: %s", err)
		}
	}()
	if err != nil {
		t.Fatalf("Could not init database: %s", err)
	}

	store := NewStore(db)

	edits, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if len(edits) != 0 {
		t.Fatalf("expected no edits, got %d", len(edits))
	}

	first, err := store.Record(ctx, Edit{
		Filename:   "a.jpg",
		MIME:       "image/jpeg",
		Updates:    json.RawMessage(`{"Make":"Nikon"}`),
		InputSize:  100,
		OutputSize: 110,
	})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if first.ID == 0 || first.CreatedAt.IsZero() {
		t.Fatalf("expected id and created_at to be set: %+v", first)
	}

	_, err = store.Record(ctx, Edit{
		Filename:   "b.webp",
		MIME:       "image/webp",
		SourceKey:  "photos/b.webp",
		StoredKey:  "edited/photos/b.webp",
		Removals:   json.RawMessage(`["GPSLatitude"]`),
		InputSize:  200,
		OutputSize: 180,
	})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	edits, err = store.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if len(edits) != 2 {
		t.Fatalf("expected 2 edits, got %d", len(edits))
	}

	if edits[0].Filename != "b.webp" {
		t.Fatalf("expected newest edit first, got %s", edits[0].Filename)
	}
	if edits[0].StoredKey != "edited/photos/b.webp" {
		t.Fatalf("unexpected stored key: %s", edits[0].StoredKey)
	}

	var removals []string
	if err := json.Unmarshal(edits[0].Removals, &removals); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if len(removals) != 1 || removals[0] != "GPSLatitude" {
		t.Fatalf("unexpected removals: %v", removals)
	}

	var updates map[string]string
	if err := json.Unmarshal(edits[1].Updates, &updates); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if updates["Make"] != "Nikon" {
		t.Fatalf("unexpected updates: %v", updates)
	}

	edits, err = store.Recent(ctx, 1)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if len(edits) != 1 {
		t.Fatalf("expected limit to apply, got %d", len(edits))
	}
}
