package postgres

import (
	"context"
	"fmt"

	"github.com/ledgerline/spendtrack/internal/domain"
	"github.com/ledgerline/spendtrack/pkg/database"
)

// CategoryRepository implements repository.CategoryRepository using PostgreSQL.
type CategoryRepository struct {
	db database.DBTX
}

// NewCategoryRepository creates a new PostgreSQL-backed category repository.
func NewCategoryRepository(db database.DBTX) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// List returns all catalog categories ordered by name.
func (r *CategoryRepository) List(ctx context.Context) ([]domain.Category, error) {
	query := `SELECT id, name, icon FROM categories ORDER BY name`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Icon); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}

	if categories == nil {
		categories = []domain.Category{}
	}

	return categories, nil
}
