package tickets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/rodetes/boxoffice/internal/domain"
	"github.com/rodetes/boxoffice/internal/monitoring"
	"github.com/rodetes/boxoffice/internal/repository"
	qrcode "github.com/skip2/go-qrcode"
)

// QRPrefix decorates the token inside the QR image. Validate accepts tokens
// with or without it.
const QRPrefix = "TICKET_ID:"

// TicketRepo is the persistence surface the ticket lifecycle needs. The
// postgres implementation backs production; tests run against an in-memory
// fake.
type TicketRepo interface {
	Insert(ctx context.Context, t *domain.Ticket) (*domain.Ticket, error)
	GetByTicketID(ctx context.Context, ticketID uuid.UUID) (*domain.TicketWithEvent, error)
	MarkScanned(ctx context.Context, ticketID uuid.UUID) error
	ListByEvent(ctx context.Context, eventID int64) ([]domain.Ticket, error)
	ListAll(ctx context.Context) ([]domain.TicketWithEvent, error)
	CountByEvent(ctx context.Context, eventID int64) (int64, error)
}

// EventLookup resolves the event a purchase references.
type EventLookup interface {
	Get(ctx context.Context, id int64) (*domain.Event, error)
}

type Config struct {
	// MaxQuantity caps a single purchase.
	MaxQuantity int
	// InsertRetries bounds regeneration attempts when a generated ticket_id
	// collides. With 128-bit random IDs a single retry is already unheard of.
	InsertRetries int
}

type Service struct {
	repo   TicketRepo
	events EventLookup
	logger *slog.Logger
	cfg    Config
}

func New(repo TicketRepo, events EventLookup, logger *slog.Logger, cfg Config) *Service {
	if cfg.MaxQuantity <= 0 {
		cfg.MaxQuantity = 10
	}

	if cfg.InsertRetries <= 0 {
		cfg.InsertRetries = 3
	}

	return &Service{
		repo:   repo,
		events: events,
		logger: logger,
		cfg:    cfg,
	}
}

// Holder is the contact identity captured at purchase time. Not verified.
type Holder struct {
	Email   string
	Name    string
	Surname string
}

// Issue creates quantity ticket rows for an event, each with a fresh
// 128-bit random ticket_id and quantity 1, so every unit of a group
// purchase is an independently scannable credential.
//
// Issuance is best-effort, not transactional: if the store fails midway,
// the tickets created so far are returned together with the error. Each of
// them is already valid and usable; the caller detects the shortfall by
// comparing lengths.
//
// Returns:
//   - []domain.Ticket: created tickets, in request order.
//   - error: ErrInvalidInput for a missing email or bad quantity.
//   - error: ErrEventNotFound if the event does not resolve.
func (s *Service) Issue(ctx context.Context, eventID int64, holder Holder, quantity int) ([]domain.Ticket, error) {
	const op = "service.tickets.Issue"

	if quantity < 1 {
		return nil, fmt.Errorf("%s: quantity must be at least 1: %w", op, ErrInvalidInput)
	}

	if quantity > s.cfg.MaxQuantity {
		return nil, fmt.Errorf("%s: quantity exceeds limit of %d: %w", op, s.cfg.MaxQuantity, ErrInvalidInput)
	}

	if strings.TrimSpace(holder.Email) == "" {
		return nil, fmt.Errorf("%s: email is required: %w", op, ErrInvalidInput)
	}

	// Advisory only: a malformed address is logged, not rejected.
	if _, err := mail.ParseAddress(holder.Email); err != nil {
		s.logger.Warn("holder email failed syntax check",
			"email", holder.Email, "error", err)
	}

	event, err := s.events.Get(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrEventNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// Capacity is an advisory display signal, not an enforced allocation:
	// concurrent purchases are allowed to pass this point together.
	if event.Availability > 0 {
		issued, err := s.repo.CountByEvent(ctx, eventID)
		if err == nil && issued+int64(quantity) > int64(event.Availability) {
			s.logger.Warn("purchase exceeds advisory capacity",
				"event_id", eventID,
				"issued", issued,
				"requested", quantity,
				"capacity", event.Availability)
		}
	}

	out := make([]domain.Ticket, 0, quantity)

	for i := 0; i < quantity; i++ {
		stored, err := s.insertWithRetry(ctx, eventID, holder)
		if err != nil {
			return out, fmt.Errorf("%s: created %d of %d: %w", op, len(out), quantity, err)
		}

		out = append(out, *stored)
		monitoring.RecordTicketIssued(eventID)
	}

	return out, nil
}

// insertWithRetry regenerates the ticket_id on a unique violation instead of
// overwriting the colliding row.
func (s *Service) insertWithRetry(ctx context.Context, eventID int64, holder Holder) (*domain.Ticket, error) {
	var lastErr error

	for attempt := 0; attempt < s.cfg.InsertRetries; attempt++ {
		t := domain.Ticket{
			TicketID: uuid.New(),
			EventID:  eventID,
			Email:    holder.Email,
			Name:     holder.Name,
			Surname:  holder.Surname,
			Quantity: 1,
		}

		stored, err := s.repo.Insert(ctx, &t)
		if err == nil {
			return stored, nil
		}

		if !errors.Is(err, repository.ErrConflict) {
			return nil, err
		}

		s.logger.Warn("ticket_id collision, regenerating", "attempt", attempt+1)
		lastErr = err
	}

	return nil, lastErr
}

type ScanStatus string

const (
	ScanValid       ScanStatus = "valid"
	ScanAlreadyUsed ScanStatus = "already_used"
)

// ScanResult is the tagged outcome of a validation. AlreadyUsed still
// carries the full ticket so door staff can see who consumed it and when.
type ScanResult struct {
	Status ScanStatus
	Ticket *domain.TicketWithEvent
}

// Validate consumes a ticket's admission right. The unscanned-to-scanned
// transition happens in the repo as a compare-and-set, so any number of
// concurrent scans of one ticket produce exactly one ScanValid; every other
// caller, and every later call, gets ScanAlreadyUsed with the unchanged
// original scanned_at. The token may carry the QR prefix and surrounding
// whitespace.
//
// Returns:
//   - *ScanResult: the outcome; AlreadyUsed is a result, not an error.
//   - error: ErrTicketNotFound if the token matches no ticket.
func (s *Service) Validate(ctx context.Context, rawToken string) (*ScanResult, error) {
	const op = "service.tickets.Validate"

	ticketID, err := ParseToken(rawToken)
	if err != nil {
		// A token that does not even parse cannot name a ticket; no store
		// round-trip needed.
		monitoring.RecordScan("not_found")
		return nil, fmt.Errorf("%s: %w", op, ErrTicketNotFound)
	}

	err = s.repo.MarkScanned(ctx, ticketID)
	switch {
	case err == nil:
		t, err := s.repo.GetByTicketID(ctx, ticketID)
		if err != nil {
			monitoring.RecordScan("error")
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		monitoring.RecordScan("valid")
		return &ScanResult{Status: ScanValid, Ticket: t}, nil

	case errors.Is(err, repository.ErrAlreadyScanned):
		t, err := s.repo.GetByTicketID(ctx, ticketID)
		if err != nil {
			monitoring.RecordScan("error")
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		monitoring.RecordScan("already_used")
		return &ScanResult{Status: ScanAlreadyUsed, Ticket: t}, nil

	case errors.Is(err, repository.ErrNotFound):
		monitoring.RecordScan("not_found")
		return nil, fmt.Errorf("%s: %w", op, ErrTicketNotFound)

	default:
		monitoring.RecordScan("error")
		return nil, fmt.Errorf("%s: %w", op, err)
	}
}

// Draw selects count winners uniformly at random, without replacement, from
// every ticket issued for the event. Scanned and unscanned tickets are both
// eligible. Each call is an independent fresh draw: re-running it changes
// the outcome.
//
// The sample is a partial Fisher-Yates shuffle in process rather than an
// ORDER BY RANDOM() pushed to the store, so uniformity does not depend on
// the store's notion of random ordering.
//
// Returns:
//   - []domain.Winner: count winners, or every ticket when fewer exist.
//   - error: ErrNoTickets when the event has no tickets at all.
func (s *Service) Draw(ctx context.Context, eventID int64, count int) ([]domain.Winner, error) {
	const op = "service.tickets.Draw"

	if count < 1 {
		count = 1
	}

	pool, err := s.repo.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if len(pool) == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrNoTickets)
	}

	if count > len(pool) {
		count = len(pool)
	}

	for i := 0; i < count; i++ {
		j := i + rand.Intn(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}

	winners := make([]domain.Winner, count)
	for i, t := range pool[:count] {
		winners[i] = domain.Winner{
			ID:       t.ID,
			TicketID: t.TicketID,
			Name:     t.Name,
			Surname:  t.Surname,
			Email:    t.Email,
		}
	}

	monitoring.RecordDraw(eventID)

	return winners, nil
}

// ListAll returns every issued ticket with event titles. Admin view.
func (s *Service) ListAll(ctx context.Context) ([]domain.TicketWithEvent, error) {
	const op = "service.tickets.ListAll"

	out, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// QRCodePNG renders the scannable image for an issued ticket. The payload is
// QRPrefix plus the bare token.
//
// Returns:
//   - error: ErrTicketNotFound if the token matches no ticket.
func (s *Service) QRCodePNG(ctx context.Context, rawToken string, size int) ([]byte, error) {
	const op = "service.tickets.QRCodePNG"

	ticketID, err := ParseToken(rawToken)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrTicketNotFound)
	}

	if _, err := s.repo.GetByTicketID(ctx, ticketID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrTicketNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if size <= 0 {
		size = 256
	}

	png, err := qrcode.Encode(QRPrefix+ticketID.String(), qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return png, nil
}

// ParseToken normalizes a scanned or hand-typed token: surrounding
// whitespace and the optional QR prefix are stripped before the UUID parse.
func ParseToken(raw string) (uuid.UUID, error) {
	token := strings.TrimSpace(raw)
	token = strings.TrimPrefix(token, QRPrefix)
	token = strings.TrimSpace(token)

	return uuid.Parse(token)
}
