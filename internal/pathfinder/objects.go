// Package pathfinder enumerates conversion routes between an origin and a
// destination holding, simulating the trades and fees of each candidate
// and pricing the total cost in the caller's currency.
package pathfinder

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/KintasS/crypto-exchange-path/internal/fees"
	"github.com/KintasS/crypto-exchange-path/internal/format"
	"github.com/KintasS/crypto-exchange-path/internal/fx"
	"github.com/KintasS/crypto-exchange-path/internal/models"
	"github.com/KintasS/crypto-exchange-path/internal/venue"
)

// Kind tags a route by the number of intermediate trading hops.
type Kind int

const (
	// Direct converts at a single venue with a direct pair.
	Direct Kind = iota
	// OneHop converts through a counter-asset at a single venue.
	OneHop
	// TwoHops converts through a counter-asset across two venues.
	TwoHops
)

func (k Kind) String() string {
	switch k {
	case Direct:
		return "direct"
	case OneHop:
		return "one-hop"
	case TwoHops:
		return "two-hop"
	}
	return "unknown"
}

// Location is an endpoint of a route: the venue and coin funds sit at, the
// amount there, and the one-sided fee applicable at that endpoint
// (withdrawal for the origin, deposit for the destination). The fee is
// already netted out of Amount where it applies.
type Location struct {
	Type     string
	Exchange *models.Exchange
	Coin     *models.Coin
	Amount   float64

	// Fee is nil when no rule applies or the fee is waived (funds
	// already resident at the venue).
	Fee *fees.Result

	// FeeDetails is the display literal for the endpoint fee.
	FeeDetails string
}

// Hop is one venue-trade leg of a route: the trade itself plus the deposit
// fee paid entering the venue and the withdrawal fee paid leaving it.
// Either fee is nil when waived or not applicable.
type Hop struct {
	Exchange    *models.Exchange
	Trade       *venue.Trade
	DepositFee  *fees.Result
	WithdrawFee *fees.Result

	TradeDetails    string
	WithdrawDetails string
}

func newHop(exch *models.Exchange, trade *venue.Trade, deposit, withdraw *fees.Result) *Hop {
	h := &Hop{
		Exchange:    exch,
		Trade:       trade,
		DepositFee:  deposit,
		WithdrawFee: withdraw,
	}
	rate := format.Rate(trade.BuyAmt / trade.SellAmt)
	h.TradeDetails = fmt.Sprintf("%s/%s rate: %s. %s trading fee: %s",
		trade.BuyCoin.Symbol, trade.SellCoin.Symbol, rate,
		exch.Name, trade.FeeLiteral)
	h.WithdrawDetails = withdrawDetails(exch, trade.BuyCoin, withdraw)
	return h
}

func withdrawDetails(exch *models.Exchange, coin *models.Coin, fee *fees.Result) string {
	lit := "none"
	if fee != nil {
		lit = fee.Literal
	}
	return fmt.Sprintf("%s withdrawal fee for %s: %s", exch.Name, coin.Symbol, lit)
}

// Route is a complete conversion plan: origin, one or two hops, the
// destination, and the total of every fee along the way expressed in
// Currency. TotalFees is the sole ranking key.
type Route struct {
	ID          string
	Kind        Kind
	Origin      *Location
	Hop1        *Hop
	Hop2        *Hop
	Destination *Location
	Currency    string
	TotalFees   float64
}

// newRoute assembles a route and prices its fees in currency. Fees with no
// resolvable FX rate are logged and left out of the total rather than
// failing the route.
func newRoute(kind Kind, origin *Location, hop1, hop2 *Hop, dest *Location,
	currency string, conv *fx.Converter, logger *logrus.Logger) (*Route, error) {

	r := &Route{
		ID:          routeID(),
		Kind:        kind,
		Origin:      origin,
		Hop1:        hop1,
		Hop2:        hop2,
		Destination: dest,
		Currency:    currency,
	}
	total, err := r.sumFees(conv, logger)
	if err != nil {
		return nil, err
	}
	r.TotalFees = total
	return r, nil
}

// sumFees adds up every non-nil fee of the route, each converted to the
// route currency.
func (r *Route) sumFees(conv *fx.Converter, logger *logrus.Logger) (float64, error) {
	total := 0.0
	add := func(label, coin string, amount float64) error {
		converted, ok, err := conv.Convert(coin, r.Currency, amount)
		if err != nil {
			return err
		}
		if !ok {
			logger.Warnf("route %s: %s of %v %s not convertible to %s, left out of total",
				r.ID, label, amount, coin, r.Currency)
			return nil
		}
		total += converted
		logger.Debugf("route %s: %s = %v %s (%v %s)",
			r.ID, label, amount, coin, converted, r.Currency)
		return nil
	}

	if r.Origin.Fee != nil {
		if err := add("origin withdrawal fee", r.Origin.Coin.ID, r.Origin.Fee.Amount); err != nil {
			return 0, err
		}
	}
	for i, hop := range []*Hop{r.Hop1, r.Hop2} {
		if hop == nil {
			continue
		}
		n := i + 1
		if hop.DepositFee != nil {
			if err := add(fmt.Sprintf("hop %d deposit fee", n),
				hop.DepositFee.Coin, hop.DepositFee.Amount); err != nil {
				return 0, err
			}
		}
		if hop.Trade.FeeAmt != 0 {
			if err := add(fmt.Sprintf("hop %d trade fee", n),
				hop.Trade.FeeCoin.ID, hop.Trade.FeeAmt); err != nil {
				return 0, err
			}
		}
		if hop.WithdrawFee != nil {
			if err := add(fmt.Sprintf("hop %d withdrawal fee", n),
				hop.WithdrawFee.Coin, hop.WithdrawFee.Amount); err != nil {
				return 0, err
			}
		}
	}
	if r.Destination.Fee != nil {
		if err := add("destination deposit fee", r.Destination.Coin.ID, r.Destination.Fee.Amount); err != nil {
			return 0, err
		}
	}
	return total, nil
}

func routeID() string {
	return "a" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
