// Package server is the HTTP calling layer of the path engine: request
// validation, result sorting and capping, and the search audit log.
package server

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/KintasS/crypto-exchange-path/internal/format"
	"github.com/KintasS/crypto-exchange-path/internal/models"
	"github.com/KintasS/crypto-exchange-path/internal/pathfinder"
	"github.com/KintasS/crypto-exchange-path/internal/store"
)

// LocationView is the JSON shape of a route endpoint.
type LocationView struct {
	Exchange   string  `json:"exchange"`
	Coin       string  `json:"coin"`
	Amount     float64 `json:"amount"`
	FeeDetails string  `json:"fee_details"`
}

// HopView is the JSON shape of one trade leg.
type HopView struct {
	Exchange        string  `json:"exchange"`
	SellAmt         float64 `json:"sell_amt"`
	SellCoin        string  `json:"sell_coin"`
	BuyAmt          float64 `json:"buy_amt"`
	BuyCoin         string  `json:"buy_coin"`
	TradeDetails    string  `json:"trade_details"`
	WithdrawDetails string  `json:"withdraw_details"`
}

// RouteView is the JSON shape of one route, cheapest-first in responses.
type RouteView struct {
	ID               string       `json:"id"`
	Kind             string       `json:"kind"`
	Origin           LocationView `json:"origin"`
	Hops             []HopView    `json:"hops"`
	Destination      LocationView `json:"destination"`
	Currency         string       `json:"currency"`
	TotalFees        float64      `json:"total_fees"`
	TotalFeesDisplay string       `json:"total_fees_display"`
}

// SearchService runs searches, orders the results and records the audit
// trail.
type SearchService struct {
	engine     *pathfinder.Engine
	writer     store.Writer
	maxResults int
	logger     *logrus.Logger
}

// NewSearchService builds the service. maxResults caps the response size;
// zero or negative means uncapped.
func NewSearchService(engine *pathfinder.Engine, writer store.Writer,
	maxResults int, logger *logrus.Logger) *SearchService {
	return &SearchService{
		engine:     engine,
		writer:     writer,
		maxResults: maxResults,
		logger:     logger,
	}
}

// Search runs the engine, sorts routes ascending by total fees, caps the
// list and writes the audit row. An empty list is a normal outcome.
func (ss *SearchService) Search(req pathfinder.Request) ([]RouteView, error) {
	start := time.Now()
	routes, err := ss.engine.Search(req)
	if err != nil {
		return nil, err
	}

	sort.Slice(routes, func(i, j int) bool {
		return routes[i].TotalFees < routes[j].TotalFees
	})
	if ss.maxResults > 0 && len(routes) > ss.maxResults {
		routes = routes[:ss.maxResults]
	}

	register := &models.QueryRegister{
		SessionID:  uuid.NewString(),
		OrigAmt:    req.OrigAmt,
		OrigCoin:   req.OrigCoin,
		OrigLoc:    req.OrigLoc,
		DestCoin:   req.DestCoin,
		DestLoc:    req.DestLoc,
		Currency:   req.Currency,
		Results:    len(routes),
		StartTime:  start,
		FinishTime: time.Now(),
	}
	// The audit trail is best-effort: a failed write must not fail the
	// search the user already paid for.
	if err := ss.writer.SaveQuery(register); err != nil {
		ss.logger.Errorf("server: audit write failed: %v", err)
	}

	views := make([]RouteView, 0, len(routes))
	for _, r := range routes {
		views = append(views, newRouteView(r))
	}
	return views, nil
}

func newRouteView(r *pathfinder.Route) RouteView {
	v := RouteView{
		ID:               r.ID,
		Kind:             r.Kind.String(),
		Origin:           newLocationView(r.Origin),
		Destination:      newLocationView(r.Destination),
		Currency:         r.Currency,
		TotalFees:        r.TotalFees,
		TotalFeesDisplay: format.Amount(r.TotalFees, r.Currency),
	}
	for _, hop := range []*pathfinder.Hop{r.Hop1, r.Hop2} {
		if hop == nil {
			continue
		}
		v.Hops = append(v.Hops, HopView{
			Exchange:        hop.Exchange.ID,
			SellAmt:         hop.Trade.SellAmt,
			SellCoin:        hop.Trade.SellCoin.ID,
			BuyAmt:          hop.Trade.BuyAmt,
			BuyCoin:         hop.Trade.BuyCoin.ID,
			TradeDetails:    hop.TradeDetails,
			WithdrawDetails: hop.WithdrawDetails,
		})
	}
	return v
}

func newLocationView(loc *pathfinder.Location) LocationView {
	return LocationView{
		Exchange:   loc.Exchange.ID,
		Coin:       loc.Coin.ID,
		Amount:     loc.Amount,
		FeeDetails: loc.FeeDetails,
	}
}
