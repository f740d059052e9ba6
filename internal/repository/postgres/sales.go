package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rodetes/boxoffice/internal/domain"
	"github.com/rodetes/boxoffice/internal/repository"
)

type SaleRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *SaleRepo) With(db DB) *SaleRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *SaleRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

func (r *SaleRepo) Insert(ctx context.Context, s *domain.MerchSale) (*domain.MerchSale, error) {
	const op = "postgres.SaleRepo.Insert"

	db := r.handle()

	stored := *s
	err := db.QueryRow(ctx,
		`INSERT INTO merch_sales (sale_id, merch_item_id, drag_id, drag_name, buyer_name, buyer_surname)
       	 VALUES ($1, $2, $3, $4, $5, $6)
       	 RETURNING id, is_delivered, created_at`,
		s.SaleID, s.MerchItemID, s.DragID, s.DragName, s.BuyerName, s.BuyerSurname,
	).Scan(&stored.ID, &stored.IsDelivered, &stored.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	return &stored, nil
}

func (r *SaleRepo) GetBySaleID(ctx context.Context, saleID uuid.UUID) (*domain.MerchSaleWithItem, error) {
	const op = "postgres.SaleRepo.GetBySaleID"

	db := r.handle()

	var s domain.MerchSaleWithItem
	err := db.QueryRow(ctx,
		`SELECT s.id, s.sale_id, s.merch_item_id, s.drag_id, s.drag_name,
		        s.buyer_name, s.buyer_surname, s.is_delivered, s.delivered_at, s.created_at,
		        COALESCE(m.name, ''), COALESCE(m.price_cents, 0)
       	 FROM merch_sales s
       	 LEFT JOIN merch_items m ON m.id = s.merch_item_id
      	 WHERE s.sale_id = $1`,
		saleID,
	).Scan(
		&s.ID, &s.SaleID, &s.MerchItemID, &s.DragID, &s.DragName,
		&s.BuyerName, &s.BuyerSurname, &s.IsDelivered, &s.DeliveredAt, &s.CreatedAt,
		&s.ItemName, &s.ItemPriceCents,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	return &s, nil
}

// MarkDelivered flips a sale to delivered with the same conditional-update
// shape the ticket scan uses, so a pickup can be recorded at most once.
//
// Returns:
//   - error: repository.ErrNotFound if the sale is unknown.
//   - error: repository.ErrAlreadyDelivered if the sale was handed out before.
func (r *SaleRepo) MarkDelivered(ctx context.Context, saleID uuid.UUID) error {
	const op = "postgres.SaleRepo.MarkDelivered"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE merch_sales
         SET is_delivered = true, delivered_at = now()
      	 WHERE sale_id = $1 AND is_delivered = false`,
		saleID,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM merch_sales WHERE sale_id = $1)`,
		saleID,
	).Scan(&exists); err != nil {
		return fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	if !exists {
		return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	}

	return fmt.Errorf("%s: %w", op, repository.ErrAlreadyDelivered)
}

func (r *SaleRepo) ListAll(ctx context.Context) ([]domain.MerchSaleWithItem, error) {
	const op = "postgres.SaleRepo.ListAll"

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT s.id, s.sale_id, s.merch_item_id, s.drag_id, s.drag_name,
		        s.buyer_name, s.buyer_surname, s.is_delivered, s.delivered_at, s.created_at,
		        COALESCE(m.name, ''), COALESCE(m.price_cents, 0)
       	 FROM merch_sales s
       	 LEFT JOIN merch_items m ON m.id = s.merch_item_id
      	 ORDER BY s.created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	defer rows.Close()

	var out []domain.MerchSaleWithItem
	for rows.Next() {
		var s domain.MerchSaleWithItem
		if err := rows.Scan(
			&s.ID, &s.SaleID, &s.MerchItemID, &s.DragID, &s.DragName,
			&s.BuyerName, &s.BuyerSurname, &s.IsDelivered, &s.DeliveredAt, &s.CreatedAt,
			&s.ItemName, &s.ItemPriceCents,
		); err != nil {
			return nil, fmt.Errorf("%s: %w", op, translateDBErr(err))
		}

		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	return out, nil
}
