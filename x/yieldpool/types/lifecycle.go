package types

// IsWithdrawOpen reports whether withdrawals are allowed. It depends only on
// the phase, the deployment time and the current time.
//
// A pool with a non-zero window runs in terms of delay+window seconds: the
// window opens delay seconds into each term and closes at the term's end.
func IsWithdrawOpen(phase Phase, deployedAt, now int64, params RiskParams) bool {
	switch phase {
	case PhaseLiquidated:
		return true
	case PhaseDeployed, PhaseWithdrawOpen:
	default:
		return false
	}

	elapsed := now - deployedAt
	if elapsed < params.WithdrawDelaySeconds {
		return false
	}
	if params.WithdrawWindowSeconds == 0 {
		return true
	}
	term := params.WithdrawDelaySeconds + params.WithdrawWindowSeconds
	return elapsed%term >= params.WithdrawDelaySeconds
}

// NextWindowOpen returns when withdrawals next become possible: now if the
// window is already open, zero for a collecting pool.
func NextWindowOpen(phase Phase, deployedAt, now int64, params RiskParams) int64 {
	if IsWithdrawOpen(phase, deployedAt, now, params) {
		return now
	}
	if !phase.IsLive() {
		return 0
	}
	elapsed := now - deployedAt
	if elapsed < params.WithdrawDelaySeconds || params.WithdrawWindowSeconds == 0 {
		return deployedAt + params.WithdrawDelaySeconds
	}
	term := params.WithdrawDelaySeconds + params.WithdrawWindowSeconds
	return deployedAt + (elapsed/term)*term + params.WithdrawDelaySeconds
}

// WindowPhase returns the phase a live, non-liquidated pool should carry at now
func WindowPhase(pool *Pool, now int64) Phase {
	if pool.Phase == PhaseLiquidated || !pool.Phase.IsLive() {
		return pool.Phase
	}
	if IsWithdrawOpen(pool.Phase, pool.DeployedAtTime, now, pool.Params) {
		return PhaseWithdrawOpen
	}
	return PhaseDeployed
}
