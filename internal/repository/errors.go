package repository

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrForeignKey       = errors.New("referenced row does not exist")
	ErrAlreadyScanned   = errors.New("ticket already scanned")
	ErrAlreadyDelivered = errors.New("sale already delivered")
)
