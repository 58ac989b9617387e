package normalize

// GrowthToMultiplier normalizes a growth figure of unknown unit to annual
// multiplier form (1.0 = flat). Detection is by magnitude:
//
//	> 10        percentage, e.g. 50  -> 1.5
//	(0, 1)      fractional growth, e.g. 0.5 -> 1.5
//	>= 1        already a multiplier, e.g. 1.5 -> 1.5
//
// Non-positive inputs map to 1.0 (flat); a shrinking company is expressed
// upstream as a multiplier below 1, never as a negative rate here.
func GrowthToMultiplier(v float64) float64 {
	switch {
	case v <= 0:
		return 1.0
	case v > 10:
		return 1.0 + v/100
	case v < 1:
		return 1.0 + v
	default:
		return v
	}
}
