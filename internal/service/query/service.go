package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rodetes/boxoffice/internal/domain"
	"github.com/rodetes/boxoffice/internal/repository"
	postgresrepo "github.com/rodetes/boxoffice/internal/repository/postgres"
	redisrepo "github.com/rodetes/boxoffice/internal/repository/redis"
)

type Config struct {
	EventSummaryTTL time.Duration
	EventListTTL    time.Duration
	SettingsTTL     time.Duration
}

// Service serves the public storefront reads. Event and settings lookups go
// through the cache; the long-tail content tables are read straight from the
// store.
type Service struct {
	store *postgresrepo.Store
	cache *redisrepo.Cache
	cfg   Config
}

func New(store *postgresrepo.Store, cache *redisrepo.Cache, cfg Config) *Service {
	if cfg.EventSummaryTTL <= 0 {
		cfg.EventSummaryTTL = 60 * time.Second
	}

	if cfg.EventListTTL <= 0 {
		cfg.EventListTTL = 30 * time.Second
	}

	if cfg.SettingsTTL <= 0 {
		cfg.SettingsTTL = 5 * time.Minute
	}

	return &Service{
		store: store,
		cache: cache,
		cfg:   cfg,
	}
}

// GetEvent retrieves one event through the cache layer.
//
// Returns:
//   - error: query.ErrEventNotFound if the event is not found.
func (s *Service) GetEvent(ctx context.Context, id int64) (*domain.Event, error) {
	const op = "service.query.GetEvent"

	key := redisrepo.KeyEventSummary(id)

	event, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		key,
		s.cfg.EventSummaryTTL,
		func(ctx context.Context) (domain.Event, error) {
			e, err := s.store.Events().Get(ctx, id)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return domain.Event{}, ErrEventNotFound
				}

				return domain.Event{}, err
			}

			return *e, nil
		},
	)
	if err != nil {
		if errors.Is(err, ErrEventNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrEventNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &event, nil
}

// ListPublicEvents returns the visible events, soonest first, through the
// cache layer.
func (s *Service) ListPublicEvents(ctx context.Context) ([]domain.Event, error) {
	const op = "service.query.ListPublicEvents"

	events, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		redisrepo.KeyEventList(),
		s.cfg.EventListTTL,
		func(ctx context.Context) ([]domain.Event, error) {
			return s.store.Events().List(ctx, true)
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return events, nil
}

func (s *Service) ListDrags(ctx context.Context, visibleOnly bool) ([]domain.Drag, error) {
	const op = "service.query.ListDrags"

	out, err := s.store.Catalog().ListDrags(ctx, visibleOnly)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

func (s *Service) GetDrag(ctx context.Context, id int64) (*domain.Drag, error) {
	const op = "service.query.GetDrag"

	d, err := s.store.Catalog().GetDrag(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrDragNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return d, nil
}

func (s *Service) ListMerch(ctx context.Context, visibleOnly bool) ([]domain.MerchItem, error) {
	const op = "service.query.ListMerch"

	out, err := s.store.Catalog().ListMerch(ctx, visibleOnly)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

func (s *Service) GetMerchItem(ctx context.Context, id int64) (*domain.MerchItem, error) {
	const op = "service.query.GetMerchItem"

	m, err := s.store.Catalog().GetMerchItem(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrMerchNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return m, nil
}

func (s *Service) ListGallery(ctx context.Context) ([]domain.GalleryImage, error) {
	const op = "service.query.ListGallery"

	out, err := s.store.Catalog().ListGallery(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// Settings returns the storefront key-value settings through the cache layer.
func (s *Service) Settings(ctx context.Context) ([]domain.Setting, error) {
	const op = "service.query.Settings"

	settings, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		redisrepo.KeySettings(),
		s.cfg.SettingsTTL,
		func(ctx context.Context) ([]domain.Setting, error) {
			return s.store.Catalog().ListSettings(ctx)
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return settings, nil
}
