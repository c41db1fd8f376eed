package schema

import (
	"context"
	"database/sql"
	"sync/atomic"

	"github.com/kyleking/asksql/internal/errors"
	"github.com/kyleking/asksql/internal/logging"
)

// Provider owns the current schema model and republishes it atomically on
// refresh. Readers always see a complete model: either the one from before a
// refresh or the one after, never a partially updated view.
type Provider struct {
	db        *sql.DB
	extractor Extractor
	logger    *logging.Logger
	current   atomic.Pointer[Model]
}

// NewProvider creates a provider bound to a database handle and dialect
// extractor. Call Refresh before Current to publish the first model.
func NewProvider(db *sql.DB, extractor Extractor, logger *logging.Logger) *Provider {
	return &Provider{
		db:        db,
		extractor: extractor,
		logger:    logger,
	}
}

// Refresh extracts the schema and atomically publishes the new model. On
// failure the previously published model stays in place.
func (p *Provider) Refresh(ctx context.Context) (*Model, error) {
	model, err := Build(ctx, p.db, p.extractor, p.logger)
	if err != nil {
		return nil, err
	}

	p.current.Store(model)

	return model, nil
}

// Current returns the most recently published model.
func (p *Provider) Current() (*Model, error) {
	model := p.current.Load()
	if model == nil {
		return nil, errors.New(errors.ErrTypeInternal, "schema model has not been built yet")
	}

	return model, nil
}

// Publish stores a prebuilt model, bypassing extraction. Used when a cached
// snapshot is still fresh.
func (p *Provider) Publish(model *Model) {
	p.current.Store(model)
}
