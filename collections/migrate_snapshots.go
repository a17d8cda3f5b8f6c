package collections

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/pocketbase/pocketbase"

	"estimation/interchange"
	"estimation/store"
)

// MigrateSnapshots re-derives every stored snapshot: category labels become
// category keys, calculated cells and section totals are recomputed and the
// summary is rebuilt. Only snapshots whose document changes are written back.
// Safe to call on every startup -- unreadable snapshots are logged and left
// untouched.
func MigrateSnapshots(app *pocketbase.PocketBase, cfg interchange.Config) error {
	records, err := app.FindAllRecords(store.CollectionName)
	if err != nil {
		return fmt.Errorf("migrate: could not query snapshots: %w", err)
	}
	if len(records) == 0 {
		return nil
	}

	snapshots := store.NewRecords(app)
	migrated := 0

	for _, rec := range records {
		key := rec.GetString("key")
		before := []byte(rec.GetString("data"))

		p, err := interchange.ImportJSON(before)
		if err != nil {
			log.Printf("migrate: snapshot %q is unreadable, skipping: %v\n", key, err)
			continue
		}

		renamed := NormalizeCategories(p, cfg.Recap.Categories)
		interchange.Rederive(p, cfg)

		after, err := interchange.ExportJSON(p)
		if err != nil {
			log.Printf("migrate: snapshot %q could not be encoded: %v\n", key, err)
			continue
		}
		if sameDocument(before, after) {
			continue
		}
		if err := snapshots.Put(context.Background(), key, after); err != nil {
			log.Printf("migrate: failed to save snapshot %q: %v\n", key, err)
			continue
		}
		migrated++
		log.Printf("migrate: snapshot %q re-derived (%d category label(s) replaced)\n", key, renamed)
	}

	if migrated > 0 {
		log.Printf("migrate: %d snapshot(s) migrated.\n", migrated)
	}
	return nil
}

func sameDocument(a, b []byte) bool {
	var ca, cb bytes.Buffer
	if json.Compact(&ca, a) != nil || json.Compact(&cb, b) != nil {
		return false
	}
	return bytes.Equal(ca.Bytes(), cb.Bytes())
}
