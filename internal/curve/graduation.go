package curve

import "github.com/shopspring/decimal"

// GraduationProgress reports how close an asset is to its threshold.
type GraduationProgress struct {
	ProgressPercent decimal.Decimal `json:"progress_percent"`
	Remaining       decimal.Decimal `json:"remaining"`
}

// IsGraduated reports whether raised funds have crossed the threshold.
// The one-way latch on the asset is enforced by the caller, not here.
func IsGraduated(fundsRaised, graduationThreshold decimal.Decimal) bool {
	return fundsRaised.GreaterThanOrEqual(graduationThreshold)
}

// Progress returns the percent of the threshold reached, clamped to [0,100],
// and the funds still required.
func Progress(fundsRaised, graduationThreshold decimal.Decimal) GraduationProgress {
	if graduationThreshold.Sign() <= 0 {
		return GraduationProgress{ProgressPercent: hundred, Remaining: decimal.Zero}
	}
	pct := fundsRaised.Div(graduationThreshold).Mul(hundred)
	if pct.IsNegative() {
		pct = decimal.Zero
	}
	if pct.GreaterThan(hundred) {
		pct = hundred
	}
	remaining := graduationThreshold.Sub(fundsRaised)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	return GraduationProgress{ProgressPercent: pct, Remaining: remaining}
}
