package types

// Treasury events
const (
	EventTypeDeposit      = "treasury_deposit"
	EventTypeYieldFunding = "treasury_yield_funding"
	EventTypeLossSweep    = "treasury_loss_sweep"

	AttributeKeyFundID     = "fund_id"
	AttributeKeyAmount     = "amount"
	AttributeKeyRelatedID  = "related_id"
	AttributeKeyNewBalance = "new_balance"
)
