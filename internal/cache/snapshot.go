package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/kyleking/asksql/internal/errors"
	"github.com/kyleking/asksql/internal/schema"
)

// snapshot is the serialized form of a schema model. Tables round-trip
// losslessly; derived state (lookup maps, warnings) is rebuilt on load.
type snapshot struct {
	DSN        string         `json:"dsn"`
	Tables     []schema.Table `json:"tables"`
	CapturedAt time.Time      `json:"captured_at"`
}

// SnapshotStore caches extracted schema models keyed by DSN so repeated
// invocations against the same database skip re-extraction.
type SnapshotStore struct {
	cache Cache
	ttl   time.Duration
}

// NewSnapshotStore wraps a cache with schema-model typing. A zero ttl
// defers to the cache default.
func NewSnapshotStore(cache Cache, ttl time.Duration) *SnapshotStore {
	return &SnapshotStore{cache: cache, ttl: ttl}
}

// Store saves the model's tables under the DSN fingerprint.
func (s *SnapshotStore) Store(ctx context.Context, dsn string, model *schema.Model) error {
	snap := snapshot{
		DSN:        dsn,
		Tables:     model.Tables(),
		CapturedAt: time.Now(),
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return errors.Wrap(err, errors.ErrTypeInternal, "failed to marshal schema snapshot")
	}

	return s.cache.Set(ctx, snapshotKey(dsn), data, s.ttl)
}

// Load returns the cached model for the DSN. A not-found error means the
// caller should extract fresh.
func (s *SnapshotStore) Load(ctx context.Context, dsn string) (*schema.Model, error) {
	data, err := s.cache.Get(ctx, snapshotKey(dsn))
	if err != nil {
		return nil, err
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeInternal, "failed to parse schema snapshot")
	}

	return schema.NewModel(snap.Tables), nil
}

// Invalidate drops the cached snapshot for the DSN.
func (s *SnapshotStore) Invalidate(ctx context.Context, dsn string) error {
	return s.cache.Delete(ctx, snapshotKey(dsn))
}

func snapshotKey(dsn string) string {
	return "schema:" + dsn
}
