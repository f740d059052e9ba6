package tickets

import "errors"

var (
	ErrEventNotFound  = errors.New("event not found")
	ErrTicketNotFound = errors.New("ticket not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrNoTickets      = errors.New("no tickets found for this event")
)
