package domain

import (
	"time"

	"github.com/google/uuid"
)

type Event struct {
	ID           int64      `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Date         time.Time  `json:"date"`
	Time         string     `json:"time"`
	Location     string     `json:"location"`
	PriceCents   int        `json:"price_cents"`
	Availability int        `json:"ticket_availability"`
	PosterURL    string     `json:"poster_url"`
	IsVisible    bool       `json:"is_visible"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
}

// Ticket is a single admission credential. A purchase of N tickets creates
// N independent rows, each scannable exactly once. TicketID is the only
// value encoded in the QR code and the only key accepted at the door.
type Ticket struct {
	ID        int64      `json:"id"`
	TicketID  uuid.UUID  `json:"ticket_id"`
	EventID   int64      `json:"event_id"`
	Email     string     `json:"email"`
	Name      string     `json:"name"`
	Surname   string     `json:"surname"`
	Quantity  int        `json:"quantity"`
	IsScanned bool       `json:"is_scanned"`
	ScannedAt *time.Time `json:"scanned_at"`
	CreatedAt time.Time  `json:"created_at"`
}

// TicketWithEvent carries the event title alongside the ticket for
// scanner display.
type TicketWithEvent struct {
	Ticket
	EventTitle string `json:"event_title"`
}

// Winner is the read-only reveal of a drawn ticket holder. Scan state is
// deliberately omitted.
type Winner struct {
	ID       int64     `json:"id"`
	TicketID uuid.UUID `json:"ticket_id"`
	Name     string    `json:"name"`
	Surname  string    `json:"surname"`
	Email    string    `json:"email"`
}

type Drag struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Bio       string    `json:"bio"`
	PhotoURL  string    `json:"photo_url"`
	Instagram string    `json:"instagram"`
	IsVisible bool      `json:"is_visible"`
	CreatedAt time.Time `json:"created_at"`
}

type MerchItem struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	PriceCents  int       `json:"price_cents"`
	ImageURL    string    `json:"image_url"`
	DragID      *int64    `json:"drag_id"`
	Stock       int       `json:"stock"`
	IsVisible   bool      `json:"is_visible"`
	CreatedAt   time.Time `json:"created_at"`
}

type MerchSale struct {
	ID           int64      `json:"id"`
	SaleID       uuid.UUID  `json:"sale_id"`
	MerchItemID  int64      `json:"merch_item_id"`
	DragID       *int64     `json:"drag_id"`
	DragName     string     `json:"drag_name"`
	BuyerName    string     `json:"buyer_name"`
	BuyerSurname string     `json:"buyer_surname"`
	IsDelivered  bool       `json:"is_delivered"`
	DeliveredAt  *time.Time `json:"delivered_at"`
	CreatedAt    time.Time  `json:"created_at"`
}

type MerchSaleWithItem struct {
	MerchSale
	ItemName       string `json:"item_name"`
	ItemPriceCents int    `json:"item_price_cents"`
}

type GalleryImage struct {
	ID        int64     `json:"id"`
	ImageURL  string    `json:"image_url"`
	Caption   string    `json:"caption"`
	EventID   *int64    `json:"event_id"`
	CreatedAt time.Time `json:"created_at"`
}

type Setting struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
