package types

import (
	"cosmossdk.io/errors"
)

// Module error codes
var (
	ErrNotGranted          = errors.Register(ModuleName, 1, "permission not granted")
	ErrPermissionInvalid   = errors.Register(ModuleName, 2, "permission disabled or expired")
	ErrPermissionExhausted = errors.Register(ModuleName, 3, "permission usage exhausted")
	ErrDurationTooLong     = errors.Register(ModuleName, 4, "duration exceeds maximum")
	ErrInvalidCapability   = errors.Register(ModuleName, 5, "invalid capability")
	ErrNotOperator         = errors.Register(ModuleName, 6, "caller is not a registered operator")
	ErrPaused              = errors.Register(ModuleName, 7, "registry is paused")
	ErrUnauthorized        = errors.Register(ModuleName, 8, "unauthorized")
	ErrAmountExceeded      = errors.Register(ModuleName, 9, "amount exceeds permission cap")
	ErrZeroAmount          = errors.Register(ModuleName, 10, "amount must be positive")
	ErrInvalidAddress      = errors.Register(ModuleName, 11, "invalid address")
	ErrInvalidParams       = errors.Register(ModuleName, 12, "invalid params")
	ErrOperatorExists      = errors.Register(ModuleName, 13, "operator already registered")
	ErrOperatorNotFound    = errors.Register(ModuleName, 14, "operator not found")
	ErrWindowClosed        = errors.Register(ModuleName, 15, "pool withdraw window is closed")
	ErrInsufficientShares  = errors.Register(ModuleName, 16, "grantor holds insufficient shares")
	ErrPoolNotFound        = errors.Register(ModuleName, 17, "pool not found")
)
