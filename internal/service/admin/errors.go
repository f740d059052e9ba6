package admin

import "errors"

var (
	ErrEventNotFound   = errors.New("event not found")
	ErrDragNotFound    = errors.New("drag not found")
	ErrMerchNotFound   = errors.New("merch item not found")
	ErrGalleryNotFound = errors.New("gallery image not found")
	ErrInvalidInput    = errors.New("invalid input")
	ErrConflict        = errors.New("conflict")
)
