package types

import (
	"cosmossdk.io/errors"
)

// Module error codes
var (
	ErrPoolNotFound        = errors.Register(ModuleName, 1, "pool not found")
	ErrPoolAlreadyExists   = errors.Register(ModuleName, 2, "pool already exists")
	ErrInvalidState        = errors.Register(ModuleName, 3, "operation not allowed in current pool phase")
	ErrWindowClosed        = errors.Register(ModuleName, 4, "withdraw window is closed")
	ErrUnauthorized        = errors.Register(ModuleName, 5, "unauthorized")
	ErrZeroAmount          = errors.Register(ModuleName, 6, "amount must be positive")
	ErrZeroShares          = errors.Register(ModuleName, 7, "shares must be positive")
	ErrInsufficientShares  = errors.Register(ModuleName, 8, "insufficient shares")
	ErrCapExceeded         = errors.Register(ModuleName, 9, "deposit exceeds pool cap")
	ErrCapNotReached       = errors.Register(ModuleName, 10, "pool cap not reached")
	ErrInvalidParams       = errors.Register(ModuleName, 11, "invalid risk parameters")
	ErrFundingInsufficient = errors.Register(ModuleName, 12, "treasury cannot fund yield shortfall")
	ErrTransferFailed      = errors.Register(ModuleName, 13, "asset transfer failed")
	ErrInvalidAddress      = errors.Register(ModuleName, 14, "invalid address")
	ErrVenueUnavailable    = errors.Register(ModuleName, 15, "yield venue not configured")
)
