package types

// Event types
const (
	EventTypeCreatePool        = "yieldpool_create"
	EventTypeDeposit           = "yieldpool_deposit"
	EventTypeDeploy            = "yieldpool_deploy"
	EventTypeWithdraw          = "yieldpool_withdraw"
	EventTypeReset             = "yieldpool_reset"
	EventTypeLiquidated        = "yieldpool_liquidated"
	EventTypeCrash             = "yieldpool_crash"
	EventTypeWindowChange      = "yieldpool_window"
	EventTypeSetCap            = "yieldpool_set_cap"
	EventTypeTransferOwnership = "yieldpool_transfer_ownership"
	EventTypeYieldFunded       = "yieldpool_yield_funded"
	EventTypeEndBlock          = "yieldpool_endblock"
)

// Event attribute keys
const (
	AttributeKeyPoolID    = "pool_id"
	AttributeKeyOwner     = "owner"
	AttributeKeyAmount    = "amount"
	AttributeKeyShares    = "shares"
	AttributeKeyPayout    = "payout"
	AttributeKeyPnL       = "pnl"
	AttributeKeyPhase     = "phase"
	AttributeKeyCycle     = "cycle"
	AttributeKeyCap       = "cap"
	AttributeKeyPrincipal = "principal"
)
