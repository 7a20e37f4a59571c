// Package venue simulates the economics of trading at a single venue:
// which fee tier applies, what a trade yields net of fees, and which
// counter-assets are available for indirect conversions.
package venue

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/KintasS/crypto-exchange-path/internal/fees"
	"github.com/KintasS/crypto-exchange-path/internal/fx"
	"github.com/KintasS/crypto-exchange-path/internal/models"
	"github.com/KintasS/crypto-exchange-path/internal/store"
)

// Trade is the simulated outcome of converting one coin into another at a
// venue: amounts sold and bought, and the trading fee charged.
type Trade struct {
	SellAmt  float64
	SellCoin *models.Coin
	BuyAmt   float64
	BuyCoin  *models.Coin
	FeeAmt   float64
	FeeCoin  *models.Coin
	// FeeLiteral states the applied rate and tier, e.g.
	// "0.1% (for Market Makers)".
	FeeLiteral string
}

// CoinZ is a counter-asset that trades against two given coins at a venue,
// with its liquidity against each.
type CoinZ struct {
	Coin      *models.Coin
	LiqVsCoin float64
	LiqVsBase float64
}

// MinLiq returns the smaller of the two liquidities; candidates are ranked
// by it.
func (z *CoinZ) MinLiq() float64 {
	if z.LiqVsCoin < z.LiqVsBase {
		return z.LiqVsCoin
	}
	return z.LiqVsBase
}

// Simulator simulates trades at one venue under the caller's fee settings.
type Simulator struct {
	Exchange *models.Exchange

	store    store.Store
	fx       *fx.Converter
	settings fees.Settings
	logger   *logrus.Logger
}

// NewSimulator builds a Simulator for the given venue.
func NewSimulator(exch *models.Exchange, st store.Store, converter *fx.Converter,
	settings fees.Settings, logger *logrus.Logger) *Simulator {
	return &Simulator{
		Exchange: exch,
		store:    st,
		fx:       converter,
		settings: settings,
		logger:   logger,
	}
}

// tradeFee is a resolved trading-fee tier.
type tradeFee struct {
	rate    float64
	feeCoin string
	literal string
}

// resolveTradeFee selects the fee tier for a trade by strict precedence:
// an active promo scope first, then the venue's special scope, then a
// scope matching the trading-pair string, then the caller's default tier.
// The first matching rule wins; anything after it is ignored.
func (s *Simulator) resolveTradeFee(sellCoin, buyCoin string) (*tradeFee, error) {
	rules, err := s.store.TradeFees(s.Exchange.ID)
	if err != nil {
		return nil, err
	}
	if len(rules) == 0 {
		s.logger.Warnf("venue: no trade fees found for exchange '%s'", s.Exchange.ID)
		return nil, nil
	}

	pair := fmt.Sprintf("%s/%s", sellCoin, buyCoin)
	special := s.settings.VenueTier(s.Exchange.ID)
	matchers := []func(f *models.Fee) bool{
		func(f *models.Fee) bool { return s.settings.Promo != "" && f.Scope == s.settings.Promo },
		func(f *models.Fee) bool { return special != "" && f.Scope == special },
		func(f *models.Fee) bool { return f.Scope != "" && strings.Contains(pair, f.Scope) },
		func(f *models.Fee) bool { return f.Scope == s.settings.Default },
	}
	for _, match := range matchers {
		for i := range rules {
			if match(&rules[i]) {
				rule := &rules[i]
				return &tradeFee{
					rate:    rule.Amount,
					feeCoin: rule.FeeCoin,
					literal: feeLiteral(rule.Amount, rule.Scope),
				}, nil
			}
		}
	}
	return nil, nil
}

// feeLiteral renders the applied tier for display.
func feeLiteral(rate float64, scope string) string {
	var scopeStr string
	switch scope {
	case "(Maker)":
		scopeStr = "(for Market Makers)"
	case "(Taker)":
		scopeStr = "(for Market Takers)"
	case "(BNB)":
		scopeStr = "(when paid in BNB)"
	default:
		scopeStr = fmt.Sprintf("(%s trades)", scope)
	}
	return fmt.Sprintf("%v%% %s", rate, scopeStr)
}

// Trade simulates selling sellAmt of sellCoin for buyCoin at this venue.
// It returns nil when no fee tier resolves or no FX rate exists; callers
// drop the candidate route instead of substituting defaults.
func (s *Simulator) Trade(sellAmt float64, sellCoin, buyCoin *models.Coin) (*Trade, error) {
	fee, err := s.resolveTradeFee(sellCoin.ID, buyCoin.ID)
	if err != nil {
		return nil, err
	}
	if fee == nil {
		s.logger.Warnf("venue: no trade fee for '%s[%s/%s]', skipping trade",
			s.Exchange.ID, sellCoin.ID, buyCoin.ID)
		return nil, nil
	}

	buyAmt, ok, err := s.fx.Convert(sellCoin.ID, buyCoin.ID, sellAmt*(1-fee.rate/100))
	if err != nil {
		return nil, err
	}
	if !ok {
		s.logger.Warnf("venue: trade could not be priced for '%s[%s/%s]'",
			s.Exchange.ID, sellCoin.ID, buyCoin.ID)
		return nil, nil
	}

	// Fees are charged in the sell coin unless the tier names a fee coin.
	feeAmt := fee.rate / 100 * sellAmt
	feeCoin := sellCoin
	if fee.feeCoin != "" && fee.feeCoin != "-" {
		converted, ok, err := s.fx.Convert(sellCoin.ID, fee.feeCoin, feeAmt)
		if err != nil {
			return nil, err
		}
		coin, cerr := s.store.Coin(fee.feeCoin)
		if cerr != nil {
			return nil, cerr
		}
		if ok && coin != nil {
			feeAmt = converted
			feeCoin = coin
		} else {
			s.logger.Warnf("venue: cannot express fee of '%s[%s/%s]' in %s, keeping %s",
				s.Exchange.ID, sellCoin.ID, buyCoin.ID, fee.feeCoin, sellCoin.ID)
		}
	}

	s.logger.Debugf("venue: trade at '%s': sell=%v %s buy=%v %s fee=%v %s",
		s.Exchange.ID, sellAmt, sellCoin.ID, buyAmt, buyCoin.ID, feeAmt, feeCoin.ID)
	return &Trade{
		SellAmt:    sellAmt,
		SellCoin:   sellCoin,
		BuyAmt:     buyAmt,
		BuyCoin:    buyCoin,
		FeeAmt:     feeAmt,
		FeeCoin:    feeCoin,
		FeeLiteral: fee.literal,
	}, nil
}

// CounterAssets returns every coin the given coin trades against at this
// venue, with the pair volume, unioning both pair orientations.
func (s *Simulator) CounterAssets(coin string) ([]store.Counter, error) {
	counters, err := s.store.PairsAgainst(s.Exchange.ID, coin)
	if err != nil {
		return nil, err
	}
	s.logger.Debugf("venue: [%s] %d counter-assets against '%s'",
		s.Exchange.ID, len(counters), coin)
	return counters, nil
}

// CryptoCounterAssets returns the crypto counter-assets of a coin,
// excluding fiat coins and USDT.
func (s *Simulator) CryptoCounterAssets(coin string) ([]store.Counter, error) {
	counters, err := s.CounterAssets(coin)
	if err != nil {
		return nil, err
	}
	var cryptos []store.Counter
	for _, c := range counters {
		if c.Coin == "USDT" {
			continue
		}
		cc, err := s.store.Coin(c.Coin)
		if err != nil {
			return nil, err
		}
		if cc != nil && cc.IsCrypto() {
			cryptos = append(cryptos, c)
		}
	}
	return cryptos, nil
}

// BestCommonCounter finds the coin that trades against both given coins at
// this venue with the highest minimum liquidity. On an exact liquidity tie
// the reference coin (BTC) prevails; among other candidates the first one
// encountered is kept. Returns nil when no common counter-asset exists.
func (s *Simulator) BestCommonCounter(coin, baseCoin string) (*CoinZ, error) {
	vsCoin, err := s.CounterAssets(coin)
	if err != nil {
		return nil, err
	}
	vsBase, err := s.CounterAssets(baseCoin)
	if err != nil {
		return nil, err
	}

	var winID string
	winning := CoinZ{LiqVsCoin: -1, LiqVsBase: -1}
	for _, a := range vsCoin {
		for _, b := range vsBase {
			if a.Coin != b.Coin {
				continue
			}
			minLiq := a.Volume
			if b.Volume < minLiq {
				minLiq = b.Volume
			}
			if minLiq < winning.MinLiq() {
				continue
			}
			if minLiq == winning.MinLiq() && winID == models.ReferenceCoin {
				continue
			}
			winID = a.Coin
			winning = CoinZ{LiqVsCoin: a.Volume, LiqVsBase: b.Volume}
		}
	}
	if winID == "" {
		return nil, nil
	}
	winCoin, err := s.store.Coin(winID)
	if err != nil {
		return nil, err
	}
	if winCoin == nil {
		return nil, nil
	}
	winning.Coin = winCoin
	s.logger.Debugf("venue: [%s] chosen counter-asset for %s/%s: %s (min liq %v)",
		s.Exchange.ID, coin, baseCoin, winID, winning.MinLiq())
	return &winning, nil
}
