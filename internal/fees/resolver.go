// Package fees resolves deposit and withdrawal fee rules into concrete
// amounts with display literals.
package fees

import (
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/KintasS/crypto-exchange-path/internal/fx"
	"github.com/KintasS/crypto-exchange-path/internal/models"
	"github.com/KintasS/crypto-exchange-path/internal/store"
)

// Result is a resolved fee: the amount, the coin it is expressed in, and a
// display literal that states amount, unit and condition so the UI never
// has to recompute anything.
type Result struct {
	Amount  float64
	Coin    string
	Literal string
}

// Resolver looks up deposit/withdrawal fee rules and applies their
// formulas.
type Resolver struct {
	store  store.Store
	fx     *fx.Converter
	logger *logrus.Logger
}

// NewResolver builds a Resolver sharing the search's FX converter.
func NewResolver(st store.Store, converter *fx.Converter, logger *logrus.Logger) *Resolver {
	return &Resolver{store: st, fx: converter, logger: logger}
}

// Resolve returns the fee a venue charges for depositing or withdrawing
// the given amount of a coin. A nil Result means no fee rule applies;
// callers decide whether that waives the fee or disqualifies the route.
// The fee amount is expressed in the requested coin.
func (r *Resolver) Resolve(action, exchange, coin string, amount float64) (*Result, error) {
	rule, err := r.store.FeeRule(exchange, action, coin)
	if err != nil {
		return nil, err
	}
	if rule == nil {
		return nil, nil
	}
	formula, ok := NewFormula(rule)
	if !ok {
		r.logger.Warnf("fees: unknown formula %q for %s/%s/%s",
			rule.Formula, exchange, action, coin)
		return nil, nil
	}

	usdEquiv := -1.0
	if formula.NeedsUSDEquiv() {
		usd, ok, err := r.fx.Convert(coin, models.USDCoin, amount)
		if err != nil {
			return nil, err
		}
		if ok {
			usdEquiv = usd
		}
	}

	fee, applies := formula.Compute(amount, usdEquiv)
	if !applies {
		return nil, nil
	}

	// Absolute-style amounts may be denominated in a specific fee coin;
	// re-express them in the requested coin.
	if rule.HasFeeCoin() && (formula.Kind == Absolute || formula.Kind == Less1kUSD) {
		converted, ok, err := r.fx.Convert(rule.FeeCoin, coin, fee)
		if err != nil {
			return nil, err
		}
		if !ok {
			r.logger.Warnf("fees: cannot express %s fee of %s/%s in %s",
				rule.FeeCoin, exchange, action, coin)
			return nil, nil
		}
		fee = converted
	}

	return &Result{
		Amount:  fee,
		Coin:    coin,
		Literal: literal(rule, formula, coin),
	}, nil
}

// literal renders the rule as shown to users.
func literal(rule *models.Fee, formula Formula, coin string) string {
	unit := coin
	if rule.HasFeeCoin() {
		unit = rule.FeeCoin
	}
	switch formula.Kind {
	case Absolute:
		return fmt.Sprintf("%s %s", trimFloat(rule.Amount), unit)
	case Percentage:
		if formula.Min != nil {
			return fmt.Sprintf("%s%% (min. %s %s)",
				trimFloat(formula.Amount), trimFloat(*formula.Min), coin)
		}
		return fmt.Sprintf("%s%%", trimFloat(formula.Amount))
	case Less1kUSD:
		return fmt.Sprintf("%s %s (only for amounts under 1,000 USD)",
			trimFloat(rule.Amount), unit)
	case PctPlus20:
		return fmt.Sprintf("1%% + 20 %s", coin)
	}
	return ""
}

func trimFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}
