package repo

import (
	"context"
	"database/sql"
	"errors"

	domain "github.com/istaaklogisquare-source/ebook-bot-clean/internal/entity"
	"github.com/istaaklogisquare-source/ebook-bot-clean/internal/usecase"
)

type MySQLOrderRepo struct{ store *Store }

func NewMySQLOrderRepo(store *Store) *MySQLOrderRepo { return &MySQLOrderRepo{store: store} }

func (r *MySQLOrderRepo) CreatePending(ctx context.Context, buyerID string, productID int64, sessionID string) (int64, error) {
	var id int64
	err := r.store.Do(ctx, func(db *sql.DB) error {
		res, err := db.ExecContext(ctx, `
INSERT INTO orders (discord_id, product_id, status, stripe_session_id)
VALUES (?, ?, 'pending', ?)`, buyerID, productID, sessionID)
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	if isDuplicateKey(err) {
		return 0, usecase.ErrDuplicateSession
	}
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *MySQLOrderRepo) GetBySessionID(ctx context.Context, sessionID string) (*usecase.OrderRecord, error) {
	var rec usecase.OrderRecord
	err := r.store.Do(ctx, func(db *sql.DB) error {
		row := db.QueryRowContext(ctx, `
SELECT o.id, o.discord_id, o.product_id, o.status, o.stripe_session_id, p.title
FROM orders o
JOIN products p ON o.product_id = p.id
WHERE o.stripe_session_id = ?`, sessionID)
		return row.Scan(&rec.ID, &rec.BuyerID, &rec.ProductID, &rec.Status, &rec.SessionID, &rec.Title)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, usecase.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// MarkPaid is gated on the current status so a repeat call is a no-op;
// rows == 0 means nothing was pending for this session.
func (r *MySQLOrderRepo) MarkPaid(ctx context.Context, sessionID string) (bool, error) {
	var rows int64
	err := r.store.Do(ctx, func(db *sql.DB) error {
		res, err := db.ExecContext(ctx, `
UPDATE orders SET status = ?
WHERE stripe_session_id = ? AND status = ?`,
			string(domain.StatusPaid), sessionID, string(domain.StatusPending))
		if err != nil {
			return err
		}
		rows, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (r *MySQLOrderRepo) ListPaidForBuyer(ctx context.Context, buyerID string) ([]usecase.PaidOrder, error) {
	var out []usecase.PaidOrder
	err := r.store.Do(ctx, func(db *sql.DB) error {
		out = out[:0] // fresh on retry
		rows, err := db.QueryContext(ctx, `
SELECT o.id, p.title
FROM orders o
JOIN products p ON o.product_id = p.id
WHERE o.discord_id = ? AND o.status = ?
ORDER BY o.id`, buyerID, string(domain.StatusPaid))
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var po usecase.PaidOrder
			if err := rows.Scan(&po.OrderID, &po.Title); err != nil {
				return err
			}
			out = append(out, po)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []usecase.PaidOrder{}
	}
	return out, nil
}

var _ usecase.OrderRepo = (*MySQLOrderRepo)(nil)
