// Package captable replays a chronological funding-round history into an
// ordered sequence of dilution-correct ownership snapshots.
package captable

import (
	"fmt"
	"math"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/TalFeiny/Dilla-sub007/internal/model"
)

// ErrInvariant is returned when a snapshot's fractions cannot be brought
// within tolerance of 1.0 even after renormalization. It signals a bug in
// the ledger logic, not bad input, and is never swallowed.
var ErrInvariant = eris.New("captable: ownership fractions violate sum-to-1 invariant")

// Ledger is the full cap-table history for one company: one snapshot per
// accepted round, plus the rounds that failed validation.
type Ledger struct {
	Snapshots         []model.CapTableSnapshot `json:"snapshots"`
	Rejected          []model.RejectedRound    `json:"rejected,omitempty"`
	FounderInitialPct float64                  `json:"founder_initial_pct"`
	OptionPoolPct     float64                  `json:"option_pool_pct"`
}

// Final returns the last snapshot, or nil when no round was accepted.
func (l *Ledger) Final() *model.CapTableSnapshot {
	if len(l.Snapshots) == 0 {
		return nil
	}
	return &l.Snapshots[len(l.Snapshots)-1]
}

// Build replays the rounds in order. Founders start at 100%; an employee
// option pool is carved out of Founders pre-money on the first accepted
// round; each subsequent round dilutes every existing holder pro-rata by
// the round's new-money fraction. Invalid rounds (amount <= 0, negative
// pre-money) are rejected and recorded rather than corrupting the ledger.
func Build(rounds []model.FundingRound, poolPct float64) (*Ledger, error) {
	if poolPct < 0 || poolPct >= 1 {
		poolPct = 0
	}

	ledger := &Ledger{
		FounderInitialPct: 1.0 - poolPct,
		OptionPoolPct:     poolPct,
	}

	holders := map[string]model.Holding{
		model.HolderFounders: {Fraction: 1.0, RoundIndex: -1},
	}

	accepted := 0
	for i, round := range rounds {
		if reason := validate(round); reason != "" {
			ledger.Rejected = append(ledger.Rejected, model.RejectedRound{
				Index:  i,
				Name:   round.Name,
				Reason: reason,
			})
			zap.L().Warn("captable: rejected round",
				zap.Int("index", i),
				zap.String("round", round.Name),
				zap.String("reason", reason),
			)
			continue
		}

		// Option pool carve-out, first accepted round only, pre-money.
		if accepted == 0 && poolPct > 0 {
			founders := holders[model.HolderFounders]
			founders.Fraction -= poolPct
			holders[model.HolderFounders] = founders
			holders[model.HolderEmployees] = model.Holding{Fraction: poolPct, RoundIndex: -1}
		}

		newPct := round.NewMoneyPct()

		// Pro-rata dilution of every existing holder.
		for name, h := range holders {
			h.Fraction *= 1 - newPct
			holders[name] = h
		}

		addRoundInvestors(holders, round, i, newPct)

		snap := model.CapTableSnapshot{
			RoundName:  round.Name,
			RoundIndex: i,
			PostMoney:  round.PostMoney(),
			Holders:    cloneHolders(holders),
		}
		if err := settle(&snap); err != nil {
			return nil, err
		}
		// Carry the settled fractions forward.
		holders = cloneHolders(snap.Holders)

		ledger.Snapshots = append(ledger.Snapshots, snap)
		accepted++
	}

	return ledger, nil
}

// validate returns a rejection reason, or "" for a valid round.
func validate(r model.FundingRound) string {
	if r.Amount <= 0 {
		return fmt.Sprintf("amount must be positive, got %v", r.Amount)
	}
	if r.PreMoney < 0 {
		return fmt.Sprintf("pre-money valuation must be non-negative, got %v", r.PreMoney)
	}
	return ""
}

// addRoundInvestors assigns the round's new-money fraction: split among
// named investors proportional to stated contributions when known, equally
// when not, or as one pooled "<Round> Investors" bucket when no investor
// is named. Repeat investors accumulate fraction and invested capital.
func addRoundInvestors(holders map[string]model.Holding, round model.FundingRound, roundIndex int, newPct float64) {
	terms := round.Terms

	credit := func(name string, fraction, invested float64) {
		h, ok := holders[name]
		if !ok {
			t := terms
			h = model.Holding{Terms: &t, RoundIndex: roundIndex}
		}
		h.Fraction += fraction
		h.Invested += invested
		if h.Terms == nil {
			t := terms
			h.Terms = &t
		}
		holders[name] = h
	}

	if len(round.Investors) == 0 {
		credit(round.Name+" Investors", newPct, round.Amount)
		return
	}

	var stated float64
	for _, inv := range round.Investors {
		stated += inv.Amount
	}

	for _, inv := range round.Investors {
		share := 1.0 / float64(len(round.Investors))
		if stated > 0 {
			share = inv.Amount / stated
		}
		credit(inv.Name, newPct*share, round.Amount*share)
	}
}

// settle enforces the sum-to-1 invariant on a snapshot, absorbing
// floating-point drift by renormalization. Drift beyond what scaling can
// fix is a hard error.
func settle(snap *model.CapTableSnapshot) error {
	sum := snap.FractionSum()
	if sum <= 0 {
		return eris.Wrapf(ErrInvariant, "round %q: fraction sum %v", snap.RoundName, sum)
	}
	if math.Abs(sum-1.0) > model.FractionTolerance {
		for name, h := range snap.Holders {
			h.Fraction /= sum
			snap.Holders[name] = h
		}
	}
	if !snap.Balanced() {
		return eris.Wrapf(ErrInvariant, "round %q: fraction sum %v after renormalization", snap.RoundName, snap.FractionSum())
	}
	return nil
}

func cloneHolders(in map[string]model.Holding) map[string]model.Holding {
	out := make(map[string]model.Holding, len(in))
	for name, h := range in {
		if h.Terms != nil {
			t := *h.Terms
			h.Terms = &t
		}
		out[name] = h
	}
	return out
}
