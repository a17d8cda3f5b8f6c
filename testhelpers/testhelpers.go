// Package testhelpers provides utilities for testing PocketBase-based applications.
package testhelpers

import (
	"context"
	"strings"
	"testing"

	"github.com/pocketbase/pocketbase"

	"estimation/collections"
	"estimation/interchange"
	"estimation/project"
	"estimation/store"
)

// NewTestApp creates a PocketBase instance backed by a temporary directory.
// It bootstraps the app and runs collections.Setup to create the snapshot
// collection. The temporary directory is cleaned up automatically when the
// test finishes.
func NewTestApp(t *testing.T) *pocketbase.PocketBase {
	t.Helper()

	tmpDir := t.TempDir()
	app := pocketbase.NewWithConfig(pocketbase.Config{
		DefaultDataDir: tmpDir,
	})

	if err := app.Bootstrap(); err != nil {
		t.Fatalf("failed to bootstrap test app: %v", err)
	}

	collections.Setup(app)

	return app
}

// PutTestSnapshot stores p under key in the snapshot collection.
func PutTestSnapshot(t *testing.T, app *pocketbase.PocketBase, key string, p *project.Project) {
	t.Helper()

	data, err := interchange.ExportJSON(p)
	if err != nil {
		t.Fatalf("failed to encode test snapshot: %v", err)
	}
	PutTestDocument(t, app, key, data)
}

// PutTestDocument stores raw snapshot bytes under key, valid or not.
func PutTestDocument(t *testing.T, app *pocketbase.PocketBase, key string, data []byte) {
	t.Helper()

	if err := store.NewRecords(app).Put(context.Background(), key, data); err != nil {
		t.Fatalf("failed to save test snapshot %q: %v", key, err)
	}
}

// GetTestSnapshot loads and decodes the snapshot stored under key.
func GetTestSnapshot(t *testing.T, app *pocketbase.PocketBase, key string) *project.Project {
	t.Helper()

	data, err := store.NewRecords(app).Get(context.Background(), key)
	if err != nil {
		t.Fatalf("failed to load snapshot %q: %v", key, err)
	}
	p, err := interchange.ImportJSON(data)
	if err != nil {
		t.Fatalf("failed to decode snapshot %q: %v", key, err)
	}
	return p
}

// AssertHTMLContains checks that body contains all specified fragments.
func AssertHTMLContains(t *testing.T, body string, fragments ...string) {
	t.Helper()

	for _, frag := range fragments {
		if !strings.Contains(body, frag) {
			t.Errorf("expected HTML to contain %q, but it was not found\nbody (first 500 chars): %s",
				frag, truncate(body, 500))
		}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
