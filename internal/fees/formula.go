package fees

import (
	"math"

	"github.com/KintasS/crypto-exchange-path/internal/models"
)

// Kind enumerates the closed set of fee formula kinds.
type Kind int

const (
	// Absolute charges a fixed amount.
	Absolute Kind = iota
	// Percentage charges a percentage of the amount, floored at an
	// optional minimum.
	Percentage
	// Less1kUSD charges a fixed amount, but only when the USD equivalent
	// of the amount is below 1,000.
	Less1kUSD
	// PctPlus20 charges 1% of the amount plus a flat 20, rounded to two
	// decimals.
	PctPlus20
)

// ParseKind maps the formula column of a fee rule to its Kind.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case models.FormulaAbsolute:
		return Absolute, true
	case models.FormulaPercentage:
		return Percentage, true
	case models.FormulaLess1kUSD:
		return Less1kUSD, true
	case models.FormulaPctPlus20:
		return PctPlus20, true
	}
	return 0, false
}

// usdThreshold is the cutoff for Less1kUSD rules.
const usdThreshold = 1000.0

// Formula is a fee rule's computation, detached from lookups so it can be
// tested as a pure function.
type Formula struct {
	Kind   Kind
	Amount float64
	// Min floors Percentage fees when set.
	Min *float64
}

// NewFormula builds the Formula of a fee rule. ok is false for unknown
// formula kinds.
func NewFormula(rule *models.Fee) (Formula, bool) {
	kind, ok := ParseKind(rule.Formula)
	if !ok {
		return Formula{}, false
	}
	return Formula{Kind: kind, Amount: rule.Amount, Min: rule.MinAmount}, true
}

// Compute returns the fee for the given amount. usdEquiv is the USD value
// of amount, or a negative number when unknown; it is only consulted by
// Less1kUSD rules. applies is false when the rule does not apply to the
// amount, which is not the same as a zero fee.
func (f Formula) Compute(amount, usdEquiv float64) (fee float64, applies bool) {
	switch f.Kind {
	case Absolute:
		return f.Amount, true
	case Percentage:
		fee = amount * f.Amount / 100
		if f.Min != nil && fee < *f.Min {
			fee = *f.Min
		}
		return fee, true
	case Less1kUSD:
		if usdEquiv < 0 || usdEquiv >= usdThreshold {
			return 0, false
		}
		return f.Amount, true
	case PctPlus20:
		return math.Round((0.01*amount+20)*100) / 100, true
	}
	return 0, false
}

// NeedsUSDEquiv reports whether Compute consults the USD equivalent.
func (f Formula) NeedsUSDEquiv() bool {
	return f.Kind == Less1kUSD
}
