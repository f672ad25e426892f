package usecase

import "errors"

// Определение ошибок сервиса
var (
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrAccountNotFound     = errors.New("account not found")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrSameAccountTransfer = errors.New("cannot transfer to the same account")
	ErrTransactionNotFound = errors.New("transaction not found")
)
