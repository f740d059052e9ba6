package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rodetes/boxoffice/internal/domain"
	"github.com/rodetes/boxoffice/internal/repository"
)

// CatalogRepo covers the content tables behind the storefront: performers,
// merch items, gallery images, and key-value settings.
type CatalogRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *CatalogRepo) With(db DB) *CatalogRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *CatalogRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// --- drags ---

func (r *CatalogRepo) GetDrag(ctx context.Context, id int64) (*domain.Drag, error) {
	const op = "postgres.CatalogRepo.GetDrag"

	db := r.handle()

	var d domain.Drag
	err := db.QueryRow(ctx,
		`SELECT id, name, bio, photo_url, instagram, is_visible, created_at
       	 FROM drags WHERE id = $1`,
		id,
	).Scan(&d.ID, &d.Name, &d.Bio, &d.PhotoURL, &d.Instagram, &d.IsVisible, &d.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	return &d, nil
}

func (r *CatalogRepo) ListDrags(ctx context.Context, visibleOnly bool) ([]domain.Drag, error) {
	const op = "postgres.CatalogRepo.ListDrags"

	db := r.handle()

	q := `SELECT id, name, bio, photo_url, instagram, is_visible, created_at
	      FROM drags ORDER BY name`
	if visibleOnly {
		q = `SELECT id, name, bio, photo_url, instagram, is_visible, created_at
		     FROM drags WHERE is_visible = true ORDER BY name`
	}

	rows, err := db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	defer rows.Close()

	var out []domain.Drag
	for rows.Next() {
		var d domain.Drag
		if err := rows.Scan(&d.ID, &d.Name, &d.Bio, &d.PhotoURL, &d.Instagram, &d.IsVisible, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, translateDBErr(err))
		}

		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	return out, nil
}

func (r *CatalogRepo) CreateDrag(ctx context.Context, d *domain.Drag) (*domain.Drag, error) {
	const op = "postgres.CatalogRepo.CreateDrag"

	db := r.handle()

	stored := *d
	err := db.QueryRow(ctx,
		`INSERT INTO drags (name, bio, photo_url, instagram, is_visible)
       	 VALUES ($1, $2, $3, $4, $5)
       	 RETURNING id, created_at`,
		d.Name, d.Bio, d.PhotoURL, d.Instagram, d.IsVisible,
	).Scan(&stored.ID, &stored.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	return &stored, nil
}

func (r *CatalogRepo) UpdateDrag(ctx context.Context, id int64, d *domain.Drag) (*domain.Drag, error) {
	const op = "postgres.CatalogRepo.UpdateDrag"

	db := r.handle()

	stored := *d
	stored.ID = id
	err := db.QueryRow(ctx,
		`UPDATE drags
         SET name = $1, bio = $2, photo_url = $3, instagram = $4, is_visible = $5
      	 WHERE id = $6
      	 RETURNING created_at`,
		d.Name, d.Bio, d.PhotoURL, d.Instagram, d.IsVisible, id,
	).Scan(&stored.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	return &stored, nil
}

func (r *CatalogRepo) DeleteDrag(ctx context.Context, id int64) error {
	const op = "postgres.CatalogRepo.DeleteDrag"

	db := r.handle()

	tag, err := db.Exec(ctx, `DELETE FROM drags WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	}

	return nil
}

// --- merch ---

func (r *CatalogRepo) GetMerchItem(ctx context.Context, id int64) (*domain.MerchItem, error) {
	const op = "postgres.CatalogRepo.GetMerchItem"

	db := r.handle()

	var m domain.MerchItem
	err := db.QueryRow(ctx,
		`SELECT id, name, description, price_cents, image_url, drag_id, stock, is_visible, created_at
       	 FROM merch_items WHERE id = $1`,
		id,
	).Scan(&m.ID, &m.Name, &m.Description, &m.PriceCents, &m.ImageURL, &m.DragID, &m.Stock, &m.IsVisible, &m.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	return &m, nil
}

func (r *CatalogRepo) ListMerch(ctx context.Context, visibleOnly bool) ([]domain.MerchItem, error) {
	const op = "postgres.CatalogRepo.ListMerch"

	db := r.handle()

	q := `SELECT id, name, description, price_cents, image_url, drag_id, stock, is_visible, created_at
	      FROM merch_items ORDER BY id`
	if visibleOnly {
		q = `SELECT id, name, description, price_cents, image_url, drag_id, stock, is_visible, created_at
		     FROM merch_items WHERE is_visible = true ORDER BY id`
	}

	rows, err := db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	defer rows.Close()

	var out []domain.MerchItem
	for rows.Next() {
		var m domain.MerchItem
		if err := rows.Scan(&m.ID, &m.Name, &m.Description, &m.PriceCents, &m.ImageURL, &m.DragID, &m.Stock, &m.IsVisible, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, translateDBErr(err))
		}

		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	return out, nil
}

func (r *CatalogRepo) CreateMerchItem(ctx context.Context, m *domain.MerchItem) (*domain.MerchItem, error) {
	const op = "postgres.CatalogRepo.CreateMerchItem"

	db := r.handle()

	stored := *m
	err := db.QueryRow(ctx,
		`INSERT INTO merch_items (name, description, price_cents, image_url, drag_id, stock, is_visible)
       	 VALUES ($1, $2, $3, $4, $5, $6, $7)
       	 RETURNING id, created_at`,
		m.Name, m.Description, m.PriceCents, m.ImageURL, m.DragID, m.Stock, m.IsVisible,
	).Scan(&stored.ID, &stored.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	return &stored, nil
}

func (r *CatalogRepo) UpdateMerchItem(ctx context.Context, id int64, m *domain.MerchItem) (*domain.MerchItem, error) {
	const op = "postgres.CatalogRepo.UpdateMerchItem"

	db := r.handle()

	stored := *m
	stored.ID = id
	err := db.QueryRow(ctx,
		`UPDATE merch_items
         SET name = $1, description = $2, price_cents = $3, image_url = $4,
             drag_id = $5, stock = $6, is_visible = $7
      	 WHERE id = $8
      	 RETURNING created_at`,
		m.Name, m.Description, m.PriceCents, m.ImageURL, m.DragID, m.Stock, m.IsVisible, id,
	).Scan(&stored.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	return &stored, nil
}

func (r *CatalogRepo) DeleteMerchItem(ctx context.Context, id int64) error {
	const op = "postgres.CatalogRepo.DeleteMerchItem"

	db := r.handle()

	tag, err := db.Exec(ctx, `DELETE FROM merch_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	}

	return nil
}

// --- gallery ---

func (r *CatalogRepo) ListGallery(ctx context.Context) ([]domain.GalleryImage, error) {
	const op = "postgres.CatalogRepo.ListGallery"

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT id, image_url, caption, event_id, created_at
       	 FROM gallery ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	defer rows.Close()

	var out []domain.GalleryImage
	for rows.Next() {
		var g domain.GalleryImage
		if err := rows.Scan(&g.ID, &g.ImageURL, &g.Caption, &g.EventID, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, translateDBErr(err))
		}

		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	return out, nil
}

func (r *CatalogRepo) AddGalleryImage(ctx context.Context, g *domain.GalleryImage) (*domain.GalleryImage, error) {
	const op = "postgres.CatalogRepo.AddGalleryImage"

	db := r.handle()

	stored := *g
	err := db.QueryRow(ctx,
		`INSERT INTO gallery (image_url, caption, event_id)
       	 VALUES ($1, $2, $3)
       	 RETURNING id, created_at`,
		g.ImageURL, g.Caption, g.EventID,
	).Scan(&stored.ID, &stored.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	return &stored, nil
}

func (r *CatalogRepo) DeleteGalleryImage(ctx context.Context, id int64) error {
	const op = "postgres.CatalogRepo.DeleteGalleryImage"

	db := r.handle()

	tag, err := db.Exec(ctx, `DELETE FROM gallery WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	}

	return nil
}

// --- settings ---

func (r *CatalogRepo) ListSettings(ctx context.Context) ([]domain.Setting, error) {
	const op = "postgres.CatalogRepo.ListSettings"

	db := r.handle()

	rows, err := db.Query(ctx, `SELECT key, value FROM settings ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	defer rows.Close()

	var out []domain.Setting
	for rows.Next() {
		var s domain.Setting
		if err := rows.Scan(&s.Key, &s.Value); err != nil {
			return nil, fmt.Errorf("%s: %w", op, translateDBErr(err))
		}

		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	return out, nil
}

func (r *CatalogRepo) UpsertSetting(ctx context.Context, key, value string) error {
	const op = "postgres.CatalogRepo.UpsertSetting"

	db := r.handle()

	_, err := db.Exec(ctx,
		`INSERT INTO settings (key, value) VALUES ($1, $2)
       	 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	return nil
}
