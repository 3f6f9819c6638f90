package repository

import (
	"context"
	"fmt"

	"storefront/catnav/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SelectionRepository records committed category selections.
type SelectionRepository interface {
	EnsureSchema(ctx context.Context) error
	SaveSelection(ctx context.Context, selection *domain.Selection) error
}

type selectionRepository struct {
	db *pgxpool.Pool
}

func NewSelectionRepository(db *pgxpool.Pool) SelectionRepository {
	return &selectionRepository{
		db: db,
	}
}

func (r *selectionRepository) EnsureSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS category_selections (
		id           BIGSERIAL PRIMARY KEY,
		session_id   TEXT        NOT NULL,
		root         TEXT        NOT NULL,
		leaf_id      BIGINT      NOT NULL,
		composite    TEXT        NOT NULL,
		path         BIGINT[]    NOT NULL,
		committed_at TIMESTAMPTZ NOT NULL
	)`
	if _, err := r.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create category_selections: %w", err)
	}
	return nil
}

func (r *selectionRepository) SaveSelection(ctx context.Context, selection *domain.Selection) error {
	path := make([]int64, len(selection.Path))
	for i, id := range selection.Path {
		path[i] = int64(id)
	}

	query := `
	INSERT INTO category_selections (session_id, root, leaf_id, composite, path, committed_at)
	VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.Exec(ctx, query,
		selection.SessionID,
		selection.Root.String(),
		int64(selection.Leaf),
		selection.Composite,
		path,
		selection.CommittedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save selection %s: %w", selection.Composite, err)
	}

	return nil
}
