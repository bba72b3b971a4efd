package types

import (
	"cosmossdk.io/errors"
)

// Module error codes
var (
	ErrInsufficientFunds = errors.Register(ModuleName, 1, "insufficient treasury funds")
	ErrZeroAmount        = errors.Register(ModuleName, 2, "amount must be positive")
	ErrInvalidAddress    = errors.Register(ModuleName, 3, "invalid address")
	ErrTransferFailed    = errors.Register(ModuleName, 4, "transfer failed")
	ErrInvalidParams     = errors.Register(ModuleName, 5, "invalid params")
)
