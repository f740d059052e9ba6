package httpgin

import (
	"time"

	"github.com/rodetes/boxoffice/internal/domain"
)

type PurchaseTicketsRequest struct {
	EventID  int64  `json:"event_id" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Name     string `json:"name"`
	Surname  string `json:"surname"`
	Quantity int    `json:"quantity" binding:"required,gte=1"`
}

type PurchaseTicketsResponse struct {
	Success bool            `json:"success"`
	Tickets []domain.Ticket `json:"tickets"`
}

type ScanTicketRequest struct {
	TicketID string `json:"ticket_id" binding:"required"`
}

type ScanTicketResponse struct {
	Success bool                    `json:"success"`
	Message string                  `json:"message"`
	Ticket  *domain.TicketWithEvent `json:"ticket,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
	User    struct {
		ID    int64  `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

type EventRequest struct {
	Title        string `json:"title" binding:"required"`
	Description  string `json:"description"`
	Date         string `json:"date" binding:"required"`
	Time         string `json:"time"`
	Location     string `json:"location"`
	PriceCents   int    `json:"price_cents"`
	Availability int    `json:"ticket_availability"`
	PosterURL    string `json:"poster_url"`
	IsVisible    *bool  `json:"is_visible"`
}

type EventPatchRequest struct {
	Title        *string `json:"title"`
	Description  *string `json:"description"`
	Date         *string `json:"date"`
	Time         *string `json:"time"`
	Location     *string `json:"location"`
	PriceCents   *int    `json:"price_cents"`
	Availability *int    `json:"ticket_availability"`
	PosterURL    *string `json:"poster_url"`
	IsVisible    *bool   `json:"is_visible"`
}

type DragRequest struct {
	Name      string `json:"name" binding:"required"`
	Bio       string `json:"bio"`
	PhotoURL  string `json:"photo_url"`
	Instagram string `json:"instagram"`
	IsVisible *bool  `json:"is_visible"`
}

type MerchItemRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	PriceCents  int    `json:"price_cents"`
	ImageURL    string `json:"image_url"`
	DragID      *int64 `json:"drag_id"`
	Stock       int    `json:"stock"`
	IsVisible   *bool  `json:"is_visible"`
}

type GalleryImageRequest struct {
	ImageURL string `json:"image_url" binding:"required"`
	Caption  string `json:"caption"`
	EventID  *int64 `json:"event_id"`
}

type SettingRequest struct {
	Key   string `json:"key" binding:"required"`
	Value string `json:"value"`
}

type CreateSaleRequest struct {
	MerchItemID  int64  `json:"merch_item_id" binding:"required"`
	DragID       *int64 `json:"drag_id"`
	BuyerName    string `json:"buyer_name"`
	BuyerSurname string `json:"buyer_surname"`
}

type CreateSaleResponse struct {
	Success bool              `json:"success"`
	Sale    *domain.MerchSale `json:"sale"`
}

type DeliverSaleRequest struct {
	SaleID string `json:"sale_id" binding:"required"`
}

type DeliverSaleResponse struct {
	Success bool                      `json:"success"`
	Message string                    `json:"message"`
	Sale    *domain.MerchSaleWithItem `json:"sale,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// parseDate accepts both a bare date and a full RFC 3339 timestamp.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}

	return time.Parse(time.RFC3339, s)
}
