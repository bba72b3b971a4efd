package types

// Delegation events
const (
	EventTypeGrant             = "permission_granted"
	EventTypeRevoke            = "permission_revoked"
	EventTypeExtend            = "permission_extended"
	EventTypeExecution         = "delegated_execution"
	EventTypeOperatorAdded     = "operator_added"
	EventTypeOperatorRemoved   = "operator_removed"
	EventTypeParamsUpdated     = "registry_params_updated"
	EventTypeOwnershipTransfer = "registry_ownership_transferred"

	AttributeKeyGrantor    = "grantor"
	AttributeKeyPoolID     = "pool_id"
	AttributeKeyCapability = "capability"
	AttributeKeyOperator   = "operator"
	AttributeKeyExpiresAt  = "expires_at"
	AttributeKeyMaxUses    = "max_uses"
	AttributeKeyShares     = "shares"
	AttributeKeyPayout     = "payout"
	AttributeKeySucceeded  = "succeeded"
	AttributeKeyRecordID   = "record_id"
	AttributeKeyReason     = "reason"
	AttributeKeyOwner      = "owner"
	AttributeKeyPaused     = "paused"
	AttributeKeyDuration   = "max_permission_duration"
)
