package httpgin

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	redisrepo "github.com/rodetes/boxoffice/internal/repository/redis"
	"github.com/rodetes/boxoffice/internal/service"
	"github.com/rodetes/boxoffice/internal/service/admin"
	"github.com/rodetes/boxoffice/internal/service/auth"
	"github.com/rodetes/boxoffice/internal/service/query"
	"github.com/rodetes/boxoffice/internal/service/sales"
	"github.com/rodetes/boxoffice/internal/service/tickets"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func NewRouter(
	svcs *service.Services,
	idem *redisrepo.IdempotencyStore,
	limiter *redisrepo.SlidingWindowLimiter,
	logger *slog.Logger,
	middlewares ...gin.HandlerFunc,
) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery(), LoggingMiddleware(logger), RequestIDMiddleware(), CORS(), MetricsMiddleware())
	for _, m := range middlewares {
		if m != nil {
			r.Use(m)
		}
	}

	// Swagger UI
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// health + metrics
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Public storefront
	r.GET("/events", handleListEvents(svcs))
	r.GET("/events/:id", handleGetEvent(svcs))
	r.GET("/drags", handleListDrags(svcs))
	r.GET("/drags/:id", handleGetDrag(svcs))
	r.GET("/merch", handleListMerch(svcs))
	r.GET("/merch/:id", handleGetMerchItem(svcs))
	r.GET("/gallery", handleListGallery(svcs))
	r.GET("/settings", handleListSettings(svcs))

	// Public purchase
	r.POST("/tickets", handlePurchaseTickets(svcs, idem, limiter))
	r.GET("/tickets/:ticket_id/qr", handleTicketQR(svcs))
	r.POST("/sales", handleCreateSale(svcs))

	// Auth
	r.POST("/auth/login", handleLogin(svcs))

	// Staff surface
	staff := r.Group("/", AuthRequired(svcs.Auth))
	{
		staff.GET("/auth/me", handleMe())
		staff.GET("/tickets", handleListTickets(svcs))
		staff.POST("/tickets/scan", handleScanTicket(svcs))
		staff.GET("/tickets/giveaway/:event_id", handleGiveaway(svcs))
		staff.POST("/sales/deliver", handleDeliverSale(svcs))
		staff.GET("/sales", handleListSales(svcs))
	}

	adm := r.Group("/admin", AuthRequired(svcs.Auth))
	{
		adm.GET("/events", handleAdminListEvents(svcs))
		adm.POST("/events", handleCreateEvent(svcs))
		adm.PUT("/events/:id", handleUpdateEvent(svcs))
		adm.DELETE("/events/:id", handleDeleteEvent(svcs))

		adm.GET("/drags", handleAdminListDrags(svcs))
		adm.POST("/drags", handleCreateDrag(svcs))
		adm.PUT("/drags/:id", handleUpdateDrag(svcs))
		adm.DELETE("/drags/:id", handleDeleteDrag(svcs))

		adm.GET("/merch", handleAdminListMerch(svcs))
		adm.POST("/merch", handleCreateMerchItem(svcs))
		adm.PUT("/merch/:id", handleUpdateMerchItem(svcs))
		adm.DELETE("/merch/:id", handleDeleteMerchItem(svcs))

		adm.POST("/gallery", handleAddGalleryImage(svcs))
		adm.DELETE("/gallery/:id", handleDeleteGalleryImage(svcs))

		adm.PUT("/settings", handleUpsertSetting(svcs))
	}

	return r
}

// --- Helpers ---

func parseInt64Param(c *gin.Context, name string) (int64, bool) {
	s := c.Param(name)
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return v, true
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

func respondErr(c *gin.Context, err error) {
	if err == nil {
		c.Status(http.StatusNoContent)
		return
	}

	switch {
	// tickets service
	case errors.Is(err, tickets.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	case errors.Is(err, tickets.ErrEventNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "event not found"})
		return
	case errors.Is(err, tickets.ErrTicketNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "ticket not found"})
		return
	case errors.Is(err, tickets.ErrNoTickets):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "no tickets found for this event"})
		return
	// query service
	case errors.Is(err, query.ErrEventNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "event not found"})
		return
	case errors.Is(err, query.ErrDragNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "drag not found"})
		return
	case errors.Is(err, query.ErrMerchNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "merch item not found"})
		return
	// admin service
	case errors.Is(err, admin.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	case errors.Is(err, admin.ErrEventNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "event not found"})
		return
	case errors.Is(err, admin.ErrDragNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "drag not found"})
		return
	case errors.Is(err, admin.ErrMerchNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "merch item not found"})
		return
	case errors.Is(err, admin.ErrGalleryNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "gallery image not found"})
		return
	case errors.Is(err, admin.ErrConflict):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
		return
	// sales service
	case errors.Is(err, sales.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	case errors.Is(err, sales.ErrItemNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "merch item not found"})
		return
	case errors.Is(err, sales.ErrSaleNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "sale not found"})
		return
	// auth service
	case errors.Is(err, auth.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid credentials"})
		return
	}

	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}
