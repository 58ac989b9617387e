package model

import "math"

// Holder class names for common stock. Preferred holders are keyed by
// investor name or by a pooled "<Round> Investors" bucket.
const (
	HolderFounders  = "Founders"
	HolderEmployees = "Employees"
)

// FractionTolerance is the floating tolerance for the sum-to-1 invariant.
const FractionTolerance = 1e-6

// Holding is one stakeholder's position in a snapshot. Preferred holdings
// carry the terms of the round in which the money came in and the dollars
// invested; common holdings (Founders, Employees) have nil Terms.
type Holding struct {
	Fraction   float64        `json:"fraction"`
	Invested   float64        `json:"invested,omitempty"`
	Terms      *SecurityTerms `json:"terms,omitempty"`
	RoundIndex int            `json:"round_index"`
}

// Preferred reports whether the holding carries liquidation preference.
func (h Holding) Preferred() bool {
	return h.Terms != nil
}

// CapTableSnapshot is the ownership state immediately after one round.
// Snapshots are immutable once built.
type CapTableSnapshot struct {
	RoundName  string             `json:"round_name"`
	RoundIndex int                `json:"round_index"`
	PostMoney  float64            `json:"post_money"`
	Holders    map[string]Holding `json:"holders"`
}

// FractionSum returns the sum of all holder fractions.
func (s *CapTableSnapshot) FractionSum() float64 {
	var sum float64
	for _, h := range s.Holders {
		sum += h.Fraction
	}
	return sum
}

// Balanced reports whether the fractions satisfy the sum-to-1 invariant.
func (s *CapTableSnapshot) Balanced() bool {
	return math.Abs(s.FractionSum()-1.0) <= FractionTolerance
}

// Clone deep-copies the snapshot so callers can simulate further dilution
// without mutating ledger history.
func (s *CapTableSnapshot) Clone() *CapTableSnapshot {
	out := &CapTableSnapshot{
		RoundName:  s.RoundName,
		RoundIndex: s.RoundIndex,
		PostMoney:  s.PostMoney,
		Holders:    make(map[string]Holding, len(s.Holders)),
	}
	for name, h := range s.Holders {
		if h.Terms != nil {
			terms := *h.Terms
			h.Terms = &terms
		}
		out.Holders[name] = h
	}
	return out
}

// RejectedRound records a funding round excluded from the ledger.
type RejectedRound struct {
	Index  int    `json:"index"`
	Name   string `json:"name"`
	Reason string `json:"reason"`
}
