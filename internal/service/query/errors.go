package query

import "errors"

var (
	ErrEventNotFound = errors.New("event not found")
	ErrDragNotFound  = errors.New("drag not found")
	ErrMerchNotFound = errors.New("merch item not found")
)
