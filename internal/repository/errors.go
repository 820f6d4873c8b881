package repository

import "errors"

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrCartNotFound     = errors.New("cart not found")
	ErrOrderNotFound    = errors.New("order not found")
	ErrPaymentNotFound  = errors.New("payment not found")
	ErrReviewNotFound   = errors.New("review not found")
	ErrCardNotFound     = errors.New("card not found")
	ErrResetNotFound    = errors.New("password reset not found")

	ErrInvalidID = errors.New("invalid object id")

	// ErrDuplicate traduce el error E11000 de índice único de mongo.
	ErrDuplicate = errors.New("duplicate key")

	// ErrInsufficientStock: el update condicional de reserva no encontró
	// documento con stock suficiente.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrConflict: una transición de estado condicional no aplicó porque
	// otro actor ganó la carrera.
	ErrConflict = errors.New("conflicting state transition")
)
