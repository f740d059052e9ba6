package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rodetes/boxoffice/internal/domain"
	"github.com/rodetes/boxoffice/internal/repository"
)

type EventRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *EventRepo) With(db DB) *EventRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *EventRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

const eventColumns = `id, title, description, date, time, location,
	price_cents, ticket_availability, poster_url, is_visible, created_at, updated_at`

func scanEvent(row interface{ Scan(dest ...any) error }) (*domain.Event, error) {
	var e domain.Event
	err := row.Scan(
		&e.ID, &e.Title, &e.Description, &e.Date, &e.Time, &e.Location,
		&e.PriceCents, &e.Availability, &e.PosterURL, &e.IsVisible,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Get retrieves an event by its ID.
//
// Returns:
//   - *domain.Event: the event when found.
//   - error: repository.ErrNotFound if the event is not found.
func (r *EventRepo) Get(ctx context.Context, id int64) (*domain.Event, error) {
	const op = "postgres.EventRepo.Get"

	db := r.handle()

	e, err := scanEvent(db.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1`, id,
	))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	return e, nil
}

// List returns events ordered by date. With visibleOnly it restricts to
// publicly listed events, ascending; the admin view gets everything,
// newest first.
func (r *EventRepo) List(ctx context.Context, visibleOnly bool) ([]domain.Event, error) {
	const op = "postgres.EventRepo.List"

	db := r.handle()

	q := `SELECT ` + eventColumns + ` FROM events ORDER BY date DESC`
	if visibleOnly {
		q = `SELECT ` + eventColumns + ` FROM events WHERE is_visible = true ORDER BY date ASC`
	}

	rows, err := db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	defer rows.Close()

	var out []domain.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, translateDBErr(err))
		}

		out = append(out, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	return out, nil
}

func (r *EventRepo) Create(ctx context.Context, e *domain.Event) (*domain.Event, error) {
	const op = "postgres.EventRepo.Create"

	db := r.handle()

	stored, err := scanEvent(db.QueryRow(ctx,
		`INSERT INTO events
		     (title, description, date, time, location, price_cents,
		      ticket_availability, poster_url, is_visible)
       	 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
       	 RETURNING `+eventColumns,
		e.Title, e.Description, e.Date, e.Time, e.Location,
		e.PriceCents, e.Availability, e.PosterURL, e.IsVisible,
	))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	return stored, nil
}

// EventPatch carries the fields of a partial event update; nil means keep
// the stored value.
type EventPatch struct {
	Title        *string
	Description  *string
	Date         *time.Time
	Time         *string
	Location     *string
	PriceCents   *int
	Availability *int
	PosterURL    *string
	IsVisible    *bool
}

// Update applies a partial update and returns the updated row.
//
// Returns:
//   - error: repository.ErrNotFound if the event is not found.
func (r *EventRepo) Update(ctx context.Context, id int64, p EventPatch) (*domain.Event, error) {
	const op = "postgres.EventRepo.Update"

	db := r.handle()

	stored, err := scanEvent(db.QueryRow(ctx,
		`UPDATE events
         SET title               = COALESCE($1, title),
             description         = COALESCE($2, description),
             date                = COALESCE($3, date),
             time                = COALESCE($4, time),
             location            = COALESCE($5, location),
             price_cents         = COALESCE($6, price_cents),
             ticket_availability = COALESCE($7, ticket_availability),
             poster_url          = COALESCE($8, poster_url),
             is_visible          = COALESCE($9, is_visible),
             updated_at          = now()
      	 WHERE id = $10
      	 RETURNING `+eventColumns,
		p.Title, p.Description, p.Date, p.Time, p.Location,
		p.PriceCents, p.Availability, p.PosterURL, p.IsVisible, id,
	))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	return stored, nil
}

// Delete removes an event.
//
// Returns:
//   - error: repository.ErrNotFound if the event is not found.
func (r *EventRepo) Delete(ctx context.Context, id int64) error {
	const op = "postgres.EventRepo.Delete"

	db := r.handle()

	tag, err := db.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	}

	return nil
}
