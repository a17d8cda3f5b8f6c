package store

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/types"
)

// CollectionName is the PocketBase collection holding project snapshots.
const CollectionName = "project_snapshots"

// Records stores snapshots as PocketBase records, one record per key with
// the snapshot in the "data" JSON field.
type Records struct {
	app core.App
}

// NewRecords returns a store over the project_snapshots collection. The
// collection is created by collections.Setup.
func NewRecords(app core.App) *Records {
	return &Records{app: app}
}

func (s *Records) find(key string) (*core.Record, error) {
	records, err := s.app.FindRecordsByFilter(CollectionName, "key = {:key}", "", 1, 0, map[string]any{"key": key})
	if err != nil {
		return nil, fmt.Errorf("find snapshot %q: %w", key, err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[0], nil
}

func (s *Records) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rec, err := s.find(key)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrNotFound
	}
	return []byte(rec.GetString("data")), nil
}

func (s *Records) Put(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rec, err := s.find(key)
	if err != nil {
		return err
	}
	if rec == nil {
		col, err := s.app.FindCollectionByNameOrId(CollectionName)
		if err != nil {
			return fmt.Errorf("snapshot collection: %w", err)
		}
		rec = core.NewRecord(col)
		rec.Set("key", key)
	}
	rec.Set("data", types.JSONRaw(data))
	if err := s.app.Save(rec); err != nil {
		return fmt.Errorf("save snapshot %q: %w", key, err)
	}
	return nil
}

func (s *Records) Keys(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	records, err := s.app.FindAllRecords(CollectionName)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	keys := make([]string, len(records))
	for i, r := range records {
		keys[i] = r.GetString("key")
	}
	sort.Strings(keys)
	return keys, nil
}

// BindHooks publishes a Change on broker whenever a snapshot record is
// created or updated, including writes made through the admin UI or the
// REST API. Those changes carry an empty Origin.
func (s *Records) BindHooks(broker *Broker, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	publish := func(e *core.RecordEvent) error {
		key := e.Record.GetString("key")
		broker.Publish(Change{Key: key, Snapshot: []byte(e.Record.GetString("data"))})
		logger.Debug("snapshot record changed", slog.String("key", key), slog.String("record", e.Record.Id))
		return e.Next()
	}
	s.app.OnRecordAfterCreateSuccess(CollectionName).BindFunc(publish)
	s.app.OnRecordAfterUpdateSuccess(CollectionName).BindFunc(publish)
}
