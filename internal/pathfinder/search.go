package pathfinder

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/KintasS/crypto-exchange-path/internal/fees"
	"github.com/KintasS/crypto-exchange-path/internal/fx"
	"github.com/KintasS/crypto-exchange-path/internal/models"
	"github.com/KintasS/crypto-exchange-path/internal/store"
	"github.com/KintasS/crypto-exchange-path/internal/venue"
)

// Request is one search invocation: what the user holds and where, what
// they want and where, the currency fees are totalled in, and their fee
// settings.
type Request struct {
	OrigLoc  string
	OrigCoin string
	OrigAmt  float64
	DestLoc  string
	DestCoin string
	Currency string
	Fees     fees.Settings
}

// Engine enumerates conversion routes. It is stateless across searches;
// every search gets its own FX cache so concurrent requests never share
// memoized rates.
type Engine struct {
	store  store.Store
	logger *logrus.Logger
}

// New builds an Engine over the given reference data store.
func New(st store.Store, logger *logrus.Logger) *Engine {
	return &Engine{store: st, logger: logger}
}

// search carries the per-request state threaded through the three phases.
type search struct {
	*Engine
	req      Request
	conv     *fx.Converter
	fees     *fees.Resolver
	origCoin *models.Coin
	destCoin *models.Coin
	routes   []*Route
}

// Search runs the three route-enumeration phases and returns every
// feasible route, unsorted and uncapped. An empty slice is a valid
// outcome; an error is only returned when the reference store fails.
func (e *Engine) Search(req Request) ([]*Route, error) {
	e.logger.WithFields(logrus.Fields{
		"orig_amt":  req.OrigAmt,
		"orig_coin": req.OrigCoin,
		"orig_loc":  req.OrigLoc,
		"dest_coin": req.DestCoin,
		"dest_loc":  req.DestLoc,
		"currency":  req.Currency,
	}).Info("starting route calculation")

	origCoin, err := e.store.Coin(req.OrigCoin)
	if err != nil {
		return nil, err
	}
	destCoin, err := e.store.Coin(req.DestCoin)
	if err != nil {
		return nil, err
	}
	if origCoin == nil || destCoin == nil {
		e.logger.Warnf("search: unknown coin in request (%q, %q)", req.OrigCoin, req.DestCoin)
		return []*Route{}, nil
	}

	s := &search{
		Engine:   e,
		req:      req,
		origCoin: origCoin,
		destCoin: destCoin,
		routes:   []*Route{},
	}
	cache := fx.NewCache()
	s.conv = fx.NewConverter(e.store, cache, e.logger)
	s.fees = fees.NewResolver(e.store, s.conv, e.logger)

	directExchs, err := e.store.ExchangesByPair(origCoin.ID, destCoin.ID)
	if err != nil {
		return nil, err
	}
	if err := s.directPhase(directExchs); err != nil {
		return nil, err
	}
	origExchs, destExchs, err := s.indirectCandidates(directExchs)
	if err != nil {
		return nil, err
	}
	if err := s.oneHopPhase(origExchs, destExchs); err != nil {
		return nil, err
	}
	if err := s.twoHopPhase(origExchs, destExchs); err != nil {
		return nil, err
	}

	e.logger.Infof("route calculation finished, %d results", len(s.routes))
	return s.routes, nil
}

// directPhase emits one route per venue with a direct pair between the
// origin and destination coins.
func (s *search) directPhase(directExchs map[string]bool) error {
	s.logger.Info("calculating direct routes (no hops)")
	depositExchs, err := s.store.ExchangesByCoin(s.origCoin.ID)
	if err != nil {
		return err
	}
	origin, err := s.newOrigin()
	if err != nil {
		return err
	}

	for _, exchID := range sortedKeys(directExchs) {
		// The venue must also accept deposits of the origin coin.
		if !depositExchs[exchID] {
			continue
		}
		sim, err := s.simulator(exchID)
		if err != nil {
			return err
		}
		if sim == nil {
			continue
		}

		sellAmt, depositFee, err := s.fundTradingVenue(origin, exchID)
		if err != nil {
			return err
		}
		trade, err := sim.Trade(sellAmt, s.origCoin, s.destCoin)
		if err != nil {
			return err
		}
		if trade == nil {
			s.logger.Warnf("direct: trade failed for %s/%s[%s], route skipped",
				s.origCoin.ID, s.destCoin.ID, exchID)
			continue
		}

		destAmt, withdrawFee, ok, err := s.settleDestination(exchID, trade)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}

		hop1 := newHop(sim.Exchange, trade, depositFee, withdrawFee)
		dest, err := s.newDestination(destAmt, exchID)
		if err != nil {
			return err
		}
		if dest.Amount < 0 {
			s.logger.Warnf("direct: destination amount below zero for %s [%s], route skipped",
				exchID, s.destCoin.ID)
			continue
		}
		route, err := newRoute(Direct, origin, hop1, nil, dest, s.req.Currency, s.conv, s.logger)
		if err != nil {
			return err
		}
		s.routes = append(s.routes, route)
		s.logger.Debugf("route found: %s->%s(%s)", s.origCoin.ID, s.destCoin.ID, exchID)
	}
	s.logger.Info("end of direct routes")
	return nil
}

// oneHopPhase emits routes trading through a counter-asset at a single
// venue that carries both coins but no direct pair.
func (s *search) oneHopPhase(origExchs, destExchs map[string]bool) error {
	s.logger.Info("calculating one-hop routes (single venue)")
	var indirect []string
	for exch := range origExchs {
		if destExchs[exch] {
			indirect = append(indirect, exch)
		}
	}
	sort.Strings(indirect)
	s.logger.Debugf("one-hop: %d venues trade both coins without a direct pair: %v",
		len(indirect), indirect)

	origin, err := s.newOrigin()
	if err != nil {
		return err
	}
	for _, exchID := range indirect {
		sim, err := s.simulator(exchID)
		if err != nil {
			return err
		}
		if sim == nil {
			continue
		}
		coinZ, err := sim.BestCommonCounter(s.origCoin.ID, s.destCoin.ID)
		if err != nil {
			return err
		}
		if coinZ == nil {
			s.logger.Warnf("one-hop: no counter-asset at '%s' to convert %s to %s, route skipped",
				exchID, s.origCoin.ID, s.destCoin.ID)
			continue
		}

		sellAmt, depositFee, err := s.fundTradingVenue(origin, exchID)
		if err != nil {
			return err
		}
		trade1, err := sim.Trade(sellAmt, s.origCoin, coinZ.Coin)
		if err != nil {
			return err
		}
		if trade1 == nil {
			s.logger.Warnf("one-hop: trade failed for %s/%s[%s], route skipped",
				s.origCoin.ID, coinZ.Coin.ID, exchID)
			continue
		}
		trade2, err := sim.Trade(trade1.BuyAmt, trade1.BuyCoin, s.destCoin)
		if err != nil {
			return err
		}
		if trade2 == nil {
			s.logger.Warnf("one-hop: trade failed for %s/%s[%s], route skipped",
				trade1.BuyCoin.ID, s.destCoin.ID, exchID)
			continue
		}

		destAmt, withdrawFee, ok, err := s.settleDestination(exchID, trade2)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}

		hop1 := newHop(sim.Exchange, trade1, depositFee, nil)
		hop2 := newHop(sim.Exchange, trade2, nil, withdrawFee)
		dest, err := s.newDestination(destAmt, exchID)
		if err != nil {
			return err
		}
		if dest.Amount < 0 {
			s.logger.Warnf("one-hop: destination amount below zero for %s [%s], route skipped",
				exchID, s.destCoin.ID)
			continue
		}
		route, err := newRoute(OneHop, origin, hop1, hop2, dest, s.req.Currency, s.conv, s.logger)
		if err != nil {
			return err
		}
		s.routes = append(s.routes, route)
		s.logger.Debugf("route found: %s->%s(%s) --> %s->%s(%s)",
			trade1.SellCoin.ID, trade1.BuyCoin.ID, exchID,
			trade2.SellCoin.ID, trade2.BuyCoin.ID, exchID)
	}
	s.logger.Info("end of one-hop routes")
	return nil
}

// twoHopPhase emits routes trading origin->counter at one venue and
// counter->destination at another, with a transfer between them.
func (s *search) twoHopPhase(origExchs, destExchs map[string]bool) error {
	s.logger.Info("calculating two-hop routes (two venues)")
	origSims, origCounters, err := s.countersByVenue(origExchs, s.origCoin.ID)
	if err != nil {
		return err
	}
	destSims, destCounters, err := s.countersByVenue(destExchs, s.destCoin.ID)
	if err != nil {
		return err
	}

	origin, err := s.newOrigin()
	if err != nil {
		return err
	}
	for ai, simA := range origSims {
		for _, counterA := range origCounters[ai] {
			for bi, simB := range destSims {
				if simA.Exchange.ID == simB.Exchange.ID {
					continue
				}
				for _, counterB := range destCounters[bi] {
					if counterA.Coin != counterB.Coin {
						continue
					}
					if err := s.twoHopCandidate(origin, simA, simB, counterA.Coin); err != nil {
						return err
					}
				}
			}
		}
	}
	s.logger.Info("end of two-hop routes")
	return nil
}

// twoHopCandidate simulates a single two-venue route through the given
// counter coin, appending it when every leg resolves.
func (s *search) twoHopCandidate(origin *Location, simA, simB *venue.Simulator, counterID string) error {
	counter, err := s.store.Coin(counterID)
	if err != nil {
		return err
	}
	if counter == nil {
		return nil
	}

	sellAmt, depositFee1, err := s.fundTradingVenue(origin, simA.Exchange.ID)
	if err != nil {
		return err
	}
	trade1, err := simA.Trade(sellAmt, s.origCoin, counter)
	if err != nil {
		return err
	}
	if trade1 == nil {
		s.logger.Warnf("two-hop: trade failed for %s/%s[%s], route skipped",
			s.origCoin.ID, counterID, simA.Exchange.ID)
		return nil
	}

	// The counter coin must leave venue A; a missing withdrawal fee rule
	// disqualifies the route.
	withdrawFee1, err := s.fees.Resolve(models.ActionWithdrawal, simA.Exchange.ID,
		trade1.BuyCoin.ID, trade1.BuyAmt)
	if err != nil {
		return err
	}
	if withdrawFee1 == nil {
		s.logger.Warnf("two-hop: withdrawal fee not found for %s [%s], route skipped",
			simA.Exchange.ID, trade1.BuyCoin.ID)
		return nil
	}
	inAmt2 := trade1.BuyAmt - withdrawFee1.Amount
	hop1 := newHop(simA.Exchange, trade1, depositFee1, withdrawFee1)

	depositFee2, err := s.fees.Resolve(models.ActionDeposit, simB.Exchange.ID,
		trade1.BuyCoin.ID, inAmt2)
	if err != nil {
		return err
	}
	if depositFee2 != nil {
		inAmt2 -= depositFee2.Amount
	}
	trade2, err := simB.Trade(inAmt2, trade1.BuyCoin, s.destCoin)
	if err != nil {
		return err
	}
	if trade2 == nil {
		s.logger.Warnf("two-hop: trade failed for %s/%s[%s], route skipped",
			trade1.BuyCoin.ID, s.destCoin.ID, simB.Exchange.ID)
		return nil
	}

	destAmt, withdrawFee2, ok, err := s.settleDestination(simB.Exchange.ID, trade2)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	hop2 := newHop(simB.Exchange, trade2, depositFee2, withdrawFee2)
	dest, err := s.newDestination(destAmt, simB.Exchange.ID)
	if err != nil {
		return err
	}
	if dest.Amount < 0 {
		s.logger.Warnf("two-hop: destination amount below zero for %s [%s], route skipped",
			simB.Exchange.ID, s.destCoin.ID)
		return nil
	}
	route, err := newRoute(TwoHops, origin, hop1, hop2, dest, s.req.Currency, s.conv, s.logger)
	if err != nil {
		return err
	}
	s.routes = append(s.routes, route)
	s.logger.Debugf("route found: %s->%s(%s) --> %s->%s(%s)",
		trade1.SellCoin.ID, trade1.BuyCoin.ID, simA.Exchange.ID,
		trade2.SellCoin.ID, trade2.BuyCoin.ID, simB.Exchange.ID)
	return nil
}

// indirectCandidates removes the direct-pair venues from the venue sets of
// both coins; phases 2 and 3 only consider what phase 1 did not cover.
func (s *search) indirectCandidates(directExchs map[string]bool) (map[string]bool, map[string]bool, error) {
	origExchs, err := s.store.ExchangesByCoin(s.origCoin.ID)
	if err != nil {
		return nil, nil, err
	}
	destExchs, err := s.store.ExchangesByCoin(s.destCoin.ID)
	if err != nil {
		return nil, nil, err
	}
	for exch := range directExchs {
		delete(origExchs, exch)
		delete(destExchs, exch)
	}
	return origExchs, destExchs, nil
}

// countersByVenue builds a simulator and the crypto counter-asset list of
// the given coin for every venue in the set.
func (s *search) countersByVenue(exchs map[string]bool, coin string) ([]*venue.Simulator, [][]store.Counter, error) {
	var sims []*venue.Simulator
	var counters [][]store.Counter
	for _, exchID := range sortedKeys(exchs) {
		sim, err := s.simulator(exchID)
		if err != nil {
			return nil, nil, err
		}
		if sim == nil {
			continue
		}
		cs, err := sim.CryptoCounterAssets(coin)
		if err != nil {
			return nil, nil, err
		}
		sims = append(sims, sim)
		counters = append(counters, dedupeCounters(cs))
	}
	return sims, counters, nil
}

// fundTradingVenue computes the amount available to sell at a trading
// venue: the origin amount net of the origin withdrawal fee and, unless
// the funds are already resident there, the venue's deposit fee.
func (s *search) fundTradingVenue(origin *Location, exchID string) (float64, *fees.Result, error) {
	sellAmt := s.req.OrigAmt
	if origin.Fee != nil {
		sellAmt -= origin.Fee.Amount
	}
	if exchID == origin.Exchange.ID {
		return sellAmt, nil, nil
	}
	depositFee, err := s.fees.Resolve(models.ActionDeposit, exchID, s.origCoin.ID, sellAmt)
	if err != nil {
		return 0, nil, err
	}
	if depositFee != nil {
		sellAmt -= depositFee.Amount
	}
	return sellAmt, depositFee, nil
}

// settleDestination nets the final venue's withdrawal fee from the trade
// proceeds. ok is false when the route must be skipped: the withdrawal fee
// is required but unresolvable, or the proceeds go negative. No fee is
// charged when the user keeps the funds at the trading venue.
func (s *search) settleDestination(exchID string, lastTrade *venue.Trade) (float64, *fees.Result, bool, error) {
	destAmt := lastTrade.BuyAmt
	if exchID == s.req.DestLoc {
		return destAmt, nil, true, nil
	}
	withdrawFee, err := s.fees.Resolve(models.ActionWithdrawal, exchID,
		lastTrade.BuyCoin.ID, lastTrade.BuyAmt)
	if err != nil {
		return 0, nil, false, err
	}
	if withdrawFee == nil {
		s.logger.Warnf("withdrawal fee not found for %s [%s], route skipped",
			exchID, lastTrade.BuyCoin.ID)
		return 0, nil, false, nil
	}
	destAmt -= withdrawFee.Amount
	if destAmt < 0 {
		s.logger.Warnf("destination amount below zero for %s [%s], route skipped",
			exchID, lastTrade.BuyCoin.ID)
		return 0, nil, false, nil
	}
	return destAmt, withdrawFee, true, nil
}

// newOrigin builds the origin endpoint, resolving the withdrawal fee the
// user pays to move funds out of it. The fee is netted from the traded
// amount by fundTradingVenue, not from the displayed origin amount.
func (s *search) newOrigin() (*Location, error) {
	exch, err := s.locationExchange(s.req.OrigLoc, s.origCoin)
	if err != nil {
		return nil, err
	}
	loc := &Location{
		Type:     "Origin",
		Exchange: exch,
		Coin:     s.origCoin,
		Amount:   s.req.OrigAmt,
	}
	fee, err := s.fees.Resolve(models.ActionWithdrawal, exch.ID, s.origCoin.ID, s.req.OrigAmt)
	if err != nil {
		return nil, err
	}
	loc.Fee = fee
	loc.FeeDetails = withdrawDetails(exch, s.origCoin, fee)
	return loc, nil
}

// newDestination builds the destination endpoint. The deposit fee of the
// destination venue is netted from the amount, and waived entirely when
// the funds are already resident there (residentExch is the final trading
// venue).
func (s *search) newDestination(amount float64, residentExch string) (*Location, error) {
	exch, err := s.locationExchange(s.req.DestLoc, s.destCoin)
	if err != nil {
		return nil, err
	}
	loc := &Location{
		Type:     "Destination",
		Exchange: exch,
		Coin:     s.destCoin,
		Amount:   amount,
	}
	lit := "none"
	if exch.ID != residentExch {
		fee, err := s.fees.Resolve(models.ActionDeposit, exch.ID, s.destCoin.ID, amount)
		if err != nil {
			return nil, err
		}
		if fee != nil {
			loc.Fee = fee
			loc.Amount = amount - fee.Amount
			lit = fee.Literal
		}
	}
	loc.FeeDetails = fmt.Sprintf("%s deposit fee for %s: %s", exch.Name, s.destCoin.Symbol, lit)
	return loc, nil
}

// locationExchange resolves a user-specified venue ID, substituting the
// generic placeholder with Wallet or Bank depending on the coin category.
// Unknown venues fall back to the generic wallet.
func (s *search) locationExchange(id string, coin *models.Coin) (*models.Exchange, error) {
	if id == models.GenericExchange {
		if coin.IsCrypto() {
			id = models.WalletExchange
		} else {
			id = models.BankExchange
		}
	}
	exch, err := s.store.Exchange(id)
	if err != nil {
		return nil, err
	}
	if exch == nil {
		s.logger.Warnf("search: unknown venue %q, falling back to wallet", id)
		exch, err = s.store.Exchange(models.WalletExchange)
		if err != nil {
			return nil, err
		}
		if exch == nil {
			exch = &models.Exchange{
				ID:   models.WalletExchange,
				Name: models.WalletExchange,
				Type: models.ExchTypeWallet,
			}
		}
	}
	return exch, nil
}

// simulator builds a venue simulator, or nil when the venue is unknown.
func (s *search) simulator(exchID string) (*venue.Simulator, error) {
	exch, err := s.store.Exchange(exchID)
	if err != nil {
		return nil, err
	}
	if exch == nil {
		s.logger.Warnf("search: venue %q has pairs but no exchange row, skipped", exchID)
		return nil, nil
	}
	return venue.NewSimulator(exch, s.store, s.conv, s.req.Fees, s.logger), nil
}

// dedupeCounters collapses duplicate counter coins, keeping the highest
// volume, so a pair stored in both orientations yields one candidate.
func dedupeCounters(counters []store.Counter) []store.Counter {
	seen := make(map[string]int, len(counters))
	var out []store.Counter
	for _, c := range counters {
		if i, ok := seen[c.Coin]; ok {
			if c.Volume > out[i].Volume {
				out[i].Volume = c.Volume
			}
			continue
		}
		seen[c.Coin] = len(out)
		out = append(out, c)
	}
	return out
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
