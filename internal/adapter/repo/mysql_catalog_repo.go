package repo

import (
	"context"
	"database/sql"
	"errors"

	domain "github.com/istaaklogisquare-source/ebook-bot-clean/internal/entity"
	"github.com/istaaklogisquare-source/ebook-bot-clean/internal/usecase"
)

type MySQLCatalogRepo struct{ store *Store }

func NewMySQLCatalogRepo(store *Store) *MySQLCatalogRepo { return &MySQLCatalogRepo{store: store} }

func (r *MySQLCatalogRepo) FindByTitle(ctx context.Context, title string) (*domain.Product, error) {
	var p domain.Product
	err := r.store.Do(ctx, func(db *sql.DB) error {
		row := db.QueryRowContext(ctx, `
SELECT id, title, price FROM products WHERE LOWER(title) = LOWER(?)`, title)
		return row.Scan(&p.ID, &p.Title, &p.Price)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, usecase.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *MySQLCatalogRepo) ListAll(ctx context.Context) ([]domain.Product, error) {
	var out []domain.Product
	err := r.store.Do(ctx, func(db *sql.DB) error {
		out = out[:0] // fresh on retry
		rows, err := db.QueryContext(ctx, `SELECT id, title, price FROM products ORDER BY id`)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var p domain.Product
			if err := rows.Scan(&p.ID, &p.Title, &p.Price); err != nil {
				return err
			}
			out = append(out, p)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.Product{}
	}
	return out, nil
}

var _ usecase.CatalogRepo = (*MySQLCatalogRepo)(nil)
