package domain

import "errors"

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrOrderNotFound       = errors.New("order not found")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrRiskLimit           = errors.New("risk limit exceeded")
)
