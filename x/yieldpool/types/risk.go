package types

import (
	"encoding/binary"

	"cosmossdk.io/math"
	"github.com/cometbft/cometbft/crypto/tmhash"
)

var (
	tagDeploy    = []byte("deploy")
	tagSentiment = []byte("sentiment")
	tagCrash     = []byte("crash")
)

// RiskOutcome reports what a single risk-engine step did to a pool
type RiskOutcome struct {
	Periods          int64    `json:"periods"`
	RatePPM          int64    `json:"rate_ppm"`
	Delta            math.Int `json:"delta"` // total PnL change, crash included
	Crashed          bool     `json:"crashed"`
	CrashLoss        math.Int `json:"crash_loss"`
	FloorHit         bool     `json:"floor_hit"`
	Liquidated       bool     `json:"liquidated"` // liquidated by this step
	SentimentChanged bool     `json:"sentiment_changed"`
}

// Changed reports whether the step moved pool value
func (o RiskOutcome) Changed() bool {
	return !o.Delta.IsZero() || o.Liquidated
}

// AdvanceRisk accrues PnL for every whole period elapsed since the pool's
// last update. It is pure: identical pool state, time and entropy always
// produce identical results. The returned pool is a copy.
//
// Crash losses are applied before the principal-protection floor, so the
// floor holds at every observation.
func AdvanceRisk(pool Pool, now int64, entropy []byte) (Pool, RiskOutcome) {
	out := RiskOutcome{Delta: math.ZeroInt(), CrashLoss: math.ZeroInt()}
	params := pool.Params
	if !pool.Phase.IsLive() || params.PeriodSeconds <= 0 {
		return pool, out
	}

	elapsed := now - pool.LastUpdateTime
	if elapsed < params.PeriodSeconds {
		return pool, out
	}
	periods := elapsed / params.PeriodSeconds
	out.Periods = periods

	if pool.Phase == PhaseLiquidated || !pool.DeployedPrincipal.IsPositive() {
		pool.LastUpdateTime += periods * params.PeriodSeconds
		return pool, out
	}

	if params.SentimentEnabled && now-pool.SentimentUpdatedAt >= params.SentimentIntervalSeconds {
		next := NextSentiment(pool.Sentiment, draw(pool.VolatilitySeed, tagSentiment, now, entropy))
		out.SentimentChanged = next != pool.Sentiment
		pool.Sentiment = next
		pool.SentimentUpdatedAt = now
	}

	dev := Deviation(params, pool.VolatilityAmplifierBps, draw(pool.VolatilitySeed, nil, now, entropy))
	rate := params.BaseRatePPM + dev + sentimentBias(pool.Sentiment, params)
	rate = rate * int64(params.LeverageBps) / BpsDenominator
	rate = clampRate(rate, params.MinRatePPM, params.MaxRatePPM)
	out.RatePPM = rate

	principal := pool.DeployedPrincipal
	pnlBefore := pool.AccumulatedPnL
	delta := principal.MulRaw(rate).MulRaw(periods).QuoRaw(PPMDenominator)
	pnl := pnlBefore.Add(delta)
	pool.VolatilitySeed = mix(pool.VolatilitySeed, []byte(delta.String()), now, nil)

	if params.CrashProbabilityBps > 0 && now-pool.LastCrashCheck >= params.CrashIntervalSeconds {
		pool.LastCrashCheck = now
		if draw(pool.VolatilitySeed, tagCrash, now, entropy)%BpsDenominator < params.CrashProbabilityBps {
			loss := principal.MulRaw(int64(params.CrashSeverityBps)).QuoRaw(BpsDenominator)
			pnl = pnl.Sub(loss)
			out.Crashed = true
			out.CrashLoss = loss
		}
	}

	if floor := pool.FloorPnL(); pnl.LT(floor) {
		pnl = floor
		out.FloorHit = true
		if params.LiquidationEnabled {
			pool.Phase = PhaseLiquidated
			pool.LiquidatedAt = now
			out.Liquidated = true
		}
	}

	pool.AccumulatedPnL = pnl
	out.Delta = pnl.Sub(pnlBefore)
	pool.VolatilityAmplifierBps = growAmplifier(pool.VolatilityAmplifierBps, params, periods)
	pool.LastUpdateTime += periods * params.PeriodSeconds
	return pool, out
}

// Deviation maps a draw into the configured deviation range and scales it by
// the volatility amplifier.
func Deviation(params RiskParams, amplifierBps uint64, r uint64) int64 {
	span := uint64(params.MaxDeviationPPM-params.MinDeviationPPM) + 1
	dev := params.MinDeviationPPM + int64(r%span)
	return dev * int64(BpsDenominator+amplifierBps) / BpsDenominator
}

// NextSentiment walks the sentiment Markov chain one step using draw r
func NextSentiment(current Sentiment, r uint64) Sentiment {
	roll := r % 100
	switch current {
	case SentimentBullish:
		switch {
		case roll < 60:
			return SentimentBullish
		case roll < 90:
			return SentimentNeutral
		default:
			return SentimentBearish
		}
	case SentimentBearish:
		switch {
		case roll < 60:
			return SentimentBearish
		case roll < 90:
			return SentimentNeutral
		default:
			return SentimentBullish
		}
	default:
		switch {
		case roll < 25:
			return SentimentBullish
		case roll < 50:
			return SentimentBearish
		default:
			return SentimentNeutral
		}
	}
}

// DeploySeed re-mixes the seed when a pool deploys
func DeploySeed(seed []byte, now int64, entropy []byte) []byte {
	return mix(seed, tagDeploy, now, entropy)
}

// InitialSeed derives the starting seed of a pool from its identifier
func InitialSeed(poolID string) []byte {
	return tmhash.Sum([]byte(poolID))
}

func sentimentBias(s Sentiment, params RiskParams) int64 {
	if !params.SentimentEnabled {
		return 0
	}
	switch s {
	case SentimentBullish:
		return params.SentimentBiasPPM
	case SentimentBearish:
		return -params.SentimentBiasPPM
	default:
		return 0
	}
}

func clampRate(rate, lo, hi int64) int64 {
	if rate < lo {
		return lo
	}
	if rate > hi {
		return hi
	}
	return rate
}

func growAmplifier(current uint64, params RiskParams, periods int64) uint64 {
	if params.AmplifierStepBps == 0 || current >= params.AmplifierCapBps {
		return current
	}
	room := (params.AmplifierCapBps - current) / params.AmplifierStepBps
	if uint64(periods) >= room {
		return params.AmplifierCapBps
	}
	return current + params.AmplifierStepBps*uint64(periods)
}

func draw(seed, tag []byte, now int64, entropy []byte) uint64 {
	return binary.BigEndian.Uint64(mix(seed, tag, now, entropy)[:8])
}

func mix(seed, tag []byte, now int64, entropy []byte) []byte {
	buf := make([]byte, 0, len(seed)+len(tag)+8+len(entropy))
	buf = append(buf, seed...)
	buf = append(buf, tag...)
	buf = binary.BigEndian.AppendUint64(buf, uint64(now))
	buf = append(buf, entropy...)
	return tmhash.Sum(buf)
}
