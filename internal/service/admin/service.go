package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rodetes/boxoffice/internal/domain"
	"github.com/rodetes/boxoffice/internal/repository"
	postgresrepo "github.com/rodetes/boxoffice/internal/repository/postgres"
	redisrepo "github.com/rodetes/boxoffice/internal/repository/redis"
	"github.com/rodetes/boxoffice/internal/uow"
)

// Service is the content-management side of the storefront. Every event
// write invalidates the cached public views and broadcasts a change message
// after commit.
type Service struct {
	store  *postgresrepo.Store
	cache  *redisrepo.Cache
	pubsub *redisrepo.ContentPubSub
	uow    *uow.UoW
}

func New(store *postgresrepo.Store, cache *redisrepo.Cache, pubsub *redisrepo.ContentPubSub) *Service {
	return &Service{
		store:  store,
		cache:  cache,
		pubsub: pubsub,
		uow:    uow.NewUoW(store),
	}
}

func (s *Service) ListEvents(ctx context.Context) ([]domain.Event, error) {
	const op = "service.admin.ListEvents"

	out, err := s.store.Events().List(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// CreateEvent validates and persists a new event.
//
// Returns:
//   - error: admin.ErrInvalidInput if title or date is missing.
func (s *Service) CreateEvent(ctx context.Context, e *domain.Event) (*domain.Event, error) {
	const op = "service.admin.CreateEvent"

	if strings.TrimSpace(e.Title) == "" || e.Date.IsZero() {
		return nil, fmt.Errorf("%s: title and date are required: %w", op, ErrInvalidInput)
	}

	var stored *domain.Event

	err := s.uow.Do(ctx, func(
		ctx context.Context,
		tx postgresrepo.DB,
		after func(uow.AfterCommit),
	) error {
		ev, err := s.store.Events().With(tx).Create(ctx, e)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		stored = ev

		after(func(ctx context.Context) {
			_ = s.cache.InvalidateEvent(ctx, ev.ID)
			_ = s.pubsub.PublishEventChanged(ctx, ev.ID)
		})

		return nil
	})
	if err != nil {
		return nil, err
	}

	return stored, nil
}

// UpdateEvent applies a partial update.
//
// Returns:
//   - error: admin.ErrEventNotFound if the event does not exist.
func (s *Service) UpdateEvent(ctx context.Context, id int64, p postgresrepo.EventPatch) (*domain.Event, error) {
	const op = "service.admin.UpdateEvent"

	var stored *domain.Event

	err := s.uow.Do(ctx, func(
		ctx context.Context,
		tx postgresrepo.DB,
		after func(uow.AfterCommit),
	) error {
		ev, err := s.store.Events().With(tx).Update(ctx, id, p)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s: %w", op, ErrEventNotFound)
			}

			return fmt.Errorf("%s: %w", op, err)
		}

		stored = ev

		after(func(ctx context.Context) {
			_ = s.cache.InvalidateEvent(ctx, id)
			_ = s.pubsub.PublishEventChanged(ctx, id)
		})

		return nil
	})
	if err != nil {
		return nil, err
	}

	return stored, nil
}

// DeleteEvent removes an event. Tickets reference events with ON DELETE
// RESTRICT, so an event with issued tickets cannot be deleted; that surfaces
// as admin.ErrConflict.
func (s *Service) DeleteEvent(ctx context.Context, id int64) error {
	const op = "service.admin.DeleteEvent"

	return s.uow.Do(ctx, func(
		ctx context.Context,
		tx postgresrepo.DB,
		after func(uow.AfterCommit),
	) error {
		if err := s.store.Events().With(tx).Delete(ctx, id); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s: %w", op, ErrEventNotFound)
			}

			if errors.Is(err, repository.ErrForeignKey) {
				return fmt.Errorf("%s: event has issued tickets: %w", op, ErrConflict)
			}

			return fmt.Errorf("%s: %w", op, err)
		}

		after(func(ctx context.Context) {
			_ = s.cache.InvalidateEvent(ctx, id)
			_ = s.pubsub.PublishEventChanged(ctx, id)
		})

		return nil
	})
}

func (s *Service) CreateDrag(ctx context.Context, d *domain.Drag) (*domain.Drag, error) {
	const op = "service.admin.CreateDrag"

	if strings.TrimSpace(d.Name) == "" {
		return nil, fmt.Errorf("%s: name is required: %w", op, ErrInvalidInput)
	}

	stored, err := s.store.Catalog().CreateDrag(ctx, d)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return stored, nil
}

func (s *Service) UpdateDrag(ctx context.Context, id int64, d *domain.Drag) (*domain.Drag, error) {
	const op = "service.admin.UpdateDrag"

	stored, err := s.store.Catalog().UpdateDrag(ctx, id, d)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrDragNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return stored, nil
}

func (s *Service) DeleteDrag(ctx context.Context, id int64) error {
	const op = "service.admin.DeleteDrag"

	if err := s.store.Catalog().DeleteDrag(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrDragNotFound)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Service) CreateMerchItem(ctx context.Context, m *domain.MerchItem) (*domain.MerchItem, error) {
	const op = "service.admin.CreateMerchItem"

	if strings.TrimSpace(m.Name) == "" {
		return nil, fmt.Errorf("%s: name is required: %w", op, ErrInvalidInput)
	}

	stored, err := s.store.Catalog().CreateMerchItem(ctx, m)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return stored, nil
}

func (s *Service) UpdateMerchItem(ctx context.Context, id int64, m *domain.MerchItem) (*domain.MerchItem, error) {
	const op = "service.admin.UpdateMerchItem"

	stored, err := s.store.Catalog().UpdateMerchItem(ctx, id, m)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrMerchNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return stored, nil
}

func (s *Service) DeleteMerchItem(ctx context.Context, id int64) error {
	const op = "service.admin.DeleteMerchItem"

	if err := s.store.Catalog().DeleteMerchItem(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrMerchNotFound)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Service) AddGalleryImage(ctx context.Context, g *domain.GalleryImage) (*domain.GalleryImage, error) {
	const op = "service.admin.AddGalleryImage"

	if strings.TrimSpace(g.ImageURL) == "" {
		return nil, fmt.Errorf("%s: image_url is required: %w", op, ErrInvalidInput)
	}

	stored, err := s.store.Catalog().AddGalleryImage(ctx, g)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return stored, nil
}

func (s *Service) DeleteGalleryImage(ctx context.Context, id int64) error {
	const op = "service.admin.DeleteGalleryImage"

	if err := s.store.Catalog().DeleteGalleryImage(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrGalleryNotFound)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// UpsertSetting writes one key-value pair and drops the cached settings view.
func (s *Service) UpsertSetting(ctx context.Context, key, value string) error {
	const op = "service.admin.UpsertSetting"

	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("%s: key is required: %w", op, ErrInvalidInput)
	}

	if err := s.store.Catalog().UpsertSetting(ctx, key, value); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	_ = s.cache.InvalidateSettings(ctx)
	_ = s.pubsub.PublishSettingsChanged(ctx)

	return nil
}
