package service

import (
	"log/slog"

	postgres "github.com/rodetes/boxoffice/internal/repository/postgres"
	redis "github.com/rodetes/boxoffice/internal/repository/redis"
	"github.com/rodetes/boxoffice/internal/service/admin"
	"github.com/rodetes/boxoffice/internal/service/auth"
	"github.com/rodetes/boxoffice/internal/service/query"
	"github.com/rodetes/boxoffice/internal/service/sales"
	"github.com/rodetes/boxoffice/internal/service/tickets"
)

type Services struct {
	Tickets *tickets.Service
	Query   *query.Service
	Admin   *admin.Service
	Sales   *sales.Service
	Auth    *auth.Service
}

type Config struct {
	Tickets tickets.Config
	Query   query.Config
	Auth    auth.Config
}

func NewServices(
	store *postgres.Store,
	cache *redis.Cache,
	pubsub *redis.ContentPubSub,
	logger *slog.Logger,
	cfg Config,
) *Services {
	return &Services{
		Tickets: tickets.New(store.Tickets(), store.Events(), logger, cfg.Tickets),
		Query:   query.New(store, cache, cfg.Query),
		Admin:   admin.New(store, cache, pubsub),
		Sales:   sales.New(store),
		Auth:    auth.New(store.Users(), cfg.Auth),
	}
}
