package sales

import "errors"

var (
	ErrItemNotFound = errors.New("merch item not found")
	ErrSaleNotFound = errors.New("sale not found")
	ErrInvalidInput = errors.New("invalid input")
)
