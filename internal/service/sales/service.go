package sales

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rodetes/boxoffice/internal/domain"
	"github.com/rodetes/boxoffice/internal/repository"
	postgresrepo "github.com/rodetes/boxoffice/internal/repository/postgres"
)

// DefaultBrandName labels a sale that is not attributed to any performer.
const DefaultBrandName = "RODETES OFICIAL"

type Service struct {
	store *postgresrepo.Store
}

func New(store *postgresrepo.Store) *Service {
	return &Service{store: store}
}

// Create records a merch purchase. The sale gets a random sale_id (the
// pickup credential, mirroring a ticket's token) and a resolved performer
// name so the record stays readable after the performer row changes.
//
// Returns:
//   - error: sales.ErrInvalidInput if the item reference is missing.
//   - error: sales.ErrItemNotFound if the item does not resolve.
func (s *Service) Create(ctx context.Context, itemID int64, dragID *int64, buyerName, buyerSurname string) (*domain.MerchSale, error) {
	const op = "service.sales.Create"

	if itemID == 0 {
		return nil, fmt.Errorf("%s: merch_item_id is required: %w", op, ErrInvalidInput)
	}

	item, err := s.store.Catalog().GetMerchItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrItemNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	owner := dragID
	if owner == nil {
		owner = item.DragID
	}

	dragName := DefaultBrandName
	if owner != nil {
		if d, err := s.store.Catalog().GetDrag(ctx, *owner); err == nil {
			dragName = d.Name
		}
	}

	sale := domain.MerchSale{
		SaleID:       uuid.New(),
		MerchItemID:  itemID,
		DragID:       owner,
		DragName:     dragName,
		BuyerName:    buyerName,
		BuyerSurname: buyerSurname,
	}

	stored, err := s.store.Sales().Insert(ctx, &sale)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return stored, nil
}

// DeliverResult mirrors the ticket scan outcome: a duplicate delivery
// attempt returns the sale it conflicts with.
type DeliverResult struct {
	AlreadyDelivered bool
	Sale             *domain.MerchSaleWithItem
}

// Deliver marks a sale as handed out, at most once, via the repo's
// conditional update.
//
// Returns:
//   - error: sales.ErrSaleNotFound if the sale_id is unknown.
func (s *Service) Deliver(ctx context.Context, saleID uuid.UUID) (*DeliverResult, error) {
	const op = "service.sales.Deliver"

	err := s.store.Sales().MarkDelivered(ctx, saleID)
	switch {
	case err == nil:
		sale, err := s.store.Sales().GetBySaleID(ctx, saleID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		return &DeliverResult{Sale: sale}, nil

	case errors.Is(err, repository.ErrAlreadyDelivered):
		sale, err := s.store.Sales().GetBySaleID(ctx, saleID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		return &DeliverResult{AlreadyDelivered: true, Sale: sale}, nil

	case errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("%s: %w", op, ErrSaleNotFound)

	default:
		return nil, fmt.Errorf("%s: %w", op, err)
	}
}

func (s *Service) ListAll(ctx context.Context) ([]domain.MerchSaleWithItem, error) {
	const op = "service.sales.ListAll"

	out, err := s.store.Sales().ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}
