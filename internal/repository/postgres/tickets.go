package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rodetes/boxoffice/internal/domain"
	"github.com/rodetes/boxoffice/internal/repository"
)

type TicketRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *TicketRepo) With(db DB) *TicketRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *TicketRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// Insert persists a single ticket row and fills in the generated id and
// created_at.
//
// Returns:
//   - *domain.Ticket: the stored ticket.
//   - error: repository.ErrConflict if ticket_id is already taken.
//   - error: repository.ErrForeignKey if the event does not exist.
func (r *TicketRepo) Insert(ctx context.Context, t *domain.Ticket) (*domain.Ticket, error) {
	const op = "postgres.TicketRepo.Insert"

	db := r.handle()

	stored := *t
	err := db.QueryRow(ctx,
		`INSERT INTO tickets (ticket_id, event_id, email, name, surname, quantity)
       	 VALUES ($1, $2, $3, $4, $5, 1)
       	 RETURNING id, is_scanned, created_at`,
		t.TicketID, t.EventID, t.Email, t.Name, t.Surname,
	).Scan(&stored.ID, &stored.IsScanned, &stored.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	stored.Quantity = 1

	return &stored, nil
}

// GetByTicketID looks a ticket up by its opaque token, joined with the event
// title for scanner display.
//
// Returns:
//   - *domain.TicketWithEvent: the ticket when found.
//   - error: repository.ErrNotFound if no ticket carries the token.
func (r *TicketRepo) GetByTicketID(ctx context.Context, ticketID uuid.UUID) (*domain.TicketWithEvent, error) {
	const op = "postgres.TicketRepo.GetByTicketID"

	db := r.handle()

	var t domain.TicketWithEvent
	err := db.QueryRow(ctx,
		`SELECT t.id, t.ticket_id, t.event_id, t.email, t.name, t.surname,
		        t.quantity, t.is_scanned, t.scanned_at, t.created_at,
		        COALESCE(e.title, '')
       	 FROM tickets t
       	 LEFT JOIN events e ON e.id = t.event_id
      	 WHERE t.ticket_id = $1`,
		ticketID,
	).Scan(
		&t.ID, &t.TicketID, &t.EventID, &t.Email, &t.Name, &t.Surname,
		&t.Quantity, &t.IsScanned, &t.ScannedAt, &t.CreatedAt,
		&t.EventTitle,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	return &t, nil
}

// MarkScanned performs the one legal state transition of a ticket,
// unscanned to scanned, as a conditional update. The WHERE clause on
// is_scanned is what keeps two concurrent scans of the same ticket from both
// succeeding: exactly one of them flips the row, the rest see zero affected
// rows.
//
// Returns:
//   - error: repository.ErrNotFound if no ticket carries the token.
//   - error: repository.ErrAlreadyScanned if the ticket was consumed before.
func (r *TicketRepo) MarkScanned(ctx context.Context, ticketID uuid.UUID) error {
	const op = "postgres.TicketRepo.MarkScanned"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE tickets
         SET is_scanned = true, scanned_at = now()
      	 WHERE ticket_id = $1 AND is_scanned = false`,
		ticketID,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	if tag.RowsAffected() > 0 {
		return nil
	}

	// Zero rows: either the token is unknown or the ticket was already used.
	var exists bool
	if err := db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM tickets WHERE ticket_id = $1)`,
		ticketID,
	).Scan(&exists); err != nil {
		return fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	if !exists {
		return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	}

	return fmt.Errorf("%s: %w", op, repository.ErrAlreadyScanned)
}

// CountByEvent counts the tickets issued for an event, for the advisory
// capacity check.
func (r *TicketRepo) CountByEvent(ctx context.Context, eventID int64) (int64, error) {
	const op = "postgres.TicketRepo.CountByEvent"

	db := r.handle()

	var n int64
	if err := db.QueryRow(ctx,
		`SELECT count(*) FROM tickets WHERE event_id = $1`, eventID,
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	return n, nil
}

// ListByEvent returns every ticket issued for an event, scanned or not,
// in issuance order.
func (r *TicketRepo) ListByEvent(ctx context.Context, eventID int64) ([]domain.Ticket, error) {
	const op = "postgres.TicketRepo.ListByEvent"

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT id, ticket_id, event_id, email, name, surname,
		        quantity, is_scanned, scanned_at, created_at
       	 FROM tickets
      	 WHERE event_id = $1
      	 ORDER BY id`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	defer rows.Close()

	var out []domain.Ticket
	for rows.Next() {
		var t domain.Ticket
		if err := rows.Scan(
			&t.ID, &t.TicketID, &t.EventID, &t.Email, &t.Name, &t.Surname,
			&t.Quantity, &t.IsScanned, &t.ScannedAt, &t.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("%s: %w", op, translateDBErr(err))
		}

		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	return out, nil
}

// ListAll returns every ticket ever issued, newest first, joined with event
// titles. Admin use.
func (r *TicketRepo) ListAll(ctx context.Context) ([]domain.TicketWithEvent, error) {
	const op = "postgres.TicketRepo.ListAll"

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT t.id, t.ticket_id, t.event_id, t.email, t.name, t.surname,
		        t.quantity, t.is_scanned, t.scanned_at, t.created_at,
		        COALESCE(e.title, '')
       	 FROM tickets t
       	 LEFT JOIN events e ON e.id = t.event_id
      	 ORDER BY t.created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	defer rows.Close()

	var out []domain.TicketWithEvent
	for rows.Next() {
		var t domain.TicketWithEvent
		if err := rows.Scan(
			&t.ID, &t.TicketID, &t.EventID, &t.Email, &t.Name, &t.Surname,
			&t.Quantity, &t.IsScanned, &t.ScannedAt, &t.CreatedAt,
			&t.EventTitle,
		); err != nil {
			return nil, fmt.Errorf("%s: %w", op, translateDBErr(err))
		}

		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	return out, nil
}
