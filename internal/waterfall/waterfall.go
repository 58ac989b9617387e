// Package waterfall resolves a single hypothetical exit value against one
// cap-table snapshot, computing the dollars received by every stakeholder
// under standard liquidation-preference semantics: seniority-ordered
// preference satisfaction, the non-participating conversion option, and
// uncapped participating double-dip. Money is decimal throughout;
// ownership fractions stay floating point.
package waterfall

import (
	"sort"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"

	"github.com/TalFeiny/Dilla-sub007/internal/model"
)

// centTolerance bounds the payout comparison when deciding conversion.
var centTolerance = decimal.New(1, -2)

// Resolve distributes exitValue across the snapshot's holders. Payouts sum
// to min(exitValue, total preference demanded) when the exit cannot cover
// the preference stack, and to exitValue otherwise.
func Resolve(snap *model.CapTableSnapshot, exitValue float64) (*Result, error) {
	if snap == nil || len(snap.Holders) == 0 {
		return nil, eris.New("waterfall: empty snapshot")
	}
	if !snap.Balanced() {
		return nil, eris.Errorf("waterfall: snapshot %q fractions sum to %v", snap.RoundName, snap.FractionSum())
	}

	exit := decimal.NewFromFloat(exitValue)
	if exit.IsNegative() {
		exit = decimal.Zero
	}

	stakes := buildStakes(snap)

	// Fixed-point search for the conversion set: a non-participating
	// preferred holder converts exactly when the as-converted common share
	// beats their preference payout. Each pass can only add conversions,
	// so the loop terminates in at most len(stakes) rounds.
	converted := make(map[string]bool)
	for range stakes {
		payouts := simulate(stakes, exit, converted)
		changed := false
		for _, s := range stakes {
			if !s.preferred || s.participating || converted[s.name] {
				continue
			}
			trial := map[string]bool{s.name: true}
			for k := range converted {
				trial[k] = true
			}
			alt := simulate(stakes, exit, trial)
			if alt[s.name].Sub(payouts[s.name]).GreaterThan(centTolerance) {
				converted[s.name] = true
				changed = true
			}
		}
		if !changed {
			break
		}
	}

	payouts := simulate(stakes, exit, converted)

	res := &Result{Payouts: make(map[string]float64, len(payouts))}
	total := decimal.Zero
	for name, amt := range payouts {
		amt = amt.Round(2)
		res.Payouts[name] = amt.InexactFloat64()
		total = total.Add(amt)
	}
	res.TotalDistributed = total.InexactFloat64()

	for name := range converted {
		res.Converted = append(res.Converted, name)
	}
	sort.Strings(res.Converted)

	res.PreferenceShortfall = exit.LessThan(totalPreference(stakes, converted))

	return res, nil
}

// TotalPreference returns the aggregate preference stack of the snapshot
// in dollars, before any conversion decisions.
func TotalPreference(snap *model.CapTableSnapshot) float64 {
	stakes := buildStakes(snap)
	return totalPreference(stakes, nil).InexactFloat64()
}

// SeniorPreferenceAhead returns the dollars of preference claims strictly
// senior to the named holder. Used to distinguish preference stacking from
// a genuinely low exit.
func SeniorPreferenceAhead(snap *model.CapTableSnapshot, holder string) float64 {
	stakes := buildStakes(snap)
	var own *stake
	for i := range stakes {
		if stakes[i].name == holder {
			own = &stakes[i]
			break
		}
	}
	if own == nil || !own.preferred {
		return 0
	}
	ahead := decimal.Zero
	for _, s := range stakes {
		if s.preferred && s.name != holder && s.seniority < own.seniority {
			ahead = ahead.Add(s.preference)
		}
	}
	return ahead.InexactFloat64()
}

func buildStakes(snap *model.CapTableSnapshot) []stake {
	stakes := make([]stake, 0, len(snap.Holders))
	for name, h := range snap.Holders {
		s := stake{
			name:     name,
			fraction: decimal.NewFromFloat(h.Fraction),
		}
		if h.Terms != nil {
			s.preferred = true
			s.participating = h.Terms.Participating
			s.seniority = h.Terms.Seniority
			mult := h.Terms.LiquidationMultiple
			if mult <= 0 {
				mult = 1.0
			}
			s.preference = decimal.NewFromFloat(h.Invested).Mul(decimal.NewFromFloat(mult))
		}
		stakes = append(stakes, s)
	}
	// Deterministic order: seniority, then name.
	sort.Slice(stakes, func(i, j int) bool {
		if stakes[i].seniority != stakes[j].seniority {
			return stakes[i].seniority < stakes[j].seniority
		}
		return stakes[i].name < stakes[j].name
	})
	return stakes
}

// simulate runs the two-pass waterfall for a given conversion set.
//
// Pass 1 walks seniority levels most-senior first, paying each level's
// preference claims in full while proceeds last; the first level that
// cannot be fully paid is pro-rated by preference amount and everything
// junior gets nothing.
//
// Pass 2 splits the residual pro-rata by fully-diluted fraction across
// common holders, converted preferred, and participating preferred (who
// keep their pass-1 preference as well).
func simulate(stakes []stake, exit decimal.Decimal, converted map[string]bool) map[string]decimal.Decimal {
	payouts := make(map[string]decimal.Decimal, len(stakes))
	for _, s := range stakes {
		payouts[s.name] = decimal.Zero
	}

	remaining := exit

	// Pass 1: preference satisfaction by seniority level.
	levels := seniorityLevels(stakes, converted)
	for _, level := range levels {
		levelTotal := decimal.Zero
		for _, s := range level {
			levelTotal = levelTotal.Add(s.preference)
		}
		if levelTotal.IsZero() {
			continue
		}
		if remaining.GreaterThanOrEqual(levelTotal) {
			for _, s := range level {
				payouts[s.name] = s.preference
			}
			remaining = remaining.Sub(levelTotal)
			continue
		}
		// Partial level: pro-rate by preference amount, then stop.
		for _, s := range level {
			payouts[s.name] = remaining.Mul(s.preference).Div(levelTotal)
		}
		remaining = decimal.Zero
		break
	}

	// Pass 2: residual to the common-equivalent pool.
	if remaining.IsPositive() {
		poolFrac := decimal.Zero
		for _, s := range stakes {
			if inResidualPool(s, converted) {
				poolFrac = poolFrac.Add(s.fraction)
			}
		}
		if poolFrac.IsPositive() {
			for _, s := range stakes {
				if inResidualPool(s, converted) {
					share := remaining.Mul(s.fraction).Div(poolFrac)
					payouts[s.name] = payouts[s.name].Add(share)
				}
			}
		}
	}

	return payouts
}

// inResidualPool reports whether a stake shares in the pass-2 residual:
// common always, converted preferred (having waived their preference), and
// participating preferred (on top of their preference).
func inResidualPool(s stake, converted map[string]bool) bool {
	if !s.preferred {
		return true
	}
	if converted[s.name] {
		return true
	}
	return s.participating
}

// seniorityLevels groups unconverted preferred stakes by seniority,
// most senior (lowest value) first.
func seniorityLevels(stakes []stake, converted map[string]bool) [][]stake {
	byLevel := make(map[int][]stake)
	var keys []int
	for _, s := range stakes {
		if !s.preferred || converted[s.name] {
			continue
		}
		if _, ok := byLevel[s.seniority]; !ok {
			keys = append(keys, s.seniority)
		}
		byLevel[s.seniority] = append(byLevel[s.seniority], s)
	}
	sort.Ints(keys)
	levels := make([][]stake, 0, len(keys))
	for _, k := range keys {
		levels = append(levels, byLevel[k])
	}
	return levels
}

func totalPreference(stakes []stake, converted map[string]bool) decimal.Decimal {
	total := decimal.Zero
	for _, s := range stakes {
		if s.preferred && !converted[s.name] {
			total = total.Add(s.preference)
		}
	}
	return total
}
