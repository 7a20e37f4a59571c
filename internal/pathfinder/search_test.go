package pathfinder

import (
	"io"
	"math"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/KintasS/crypto-exchange-path/internal/fees"
	"github.com/KintasS/crypto-exchange-path/internal/models"
	"github.com/KintasS/crypto-exchange-path/internal/store"
)

func newTestEngine(ms *store.MemoryStore) *Engine {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return New(ms, logger)
}

// baseStore registers the coins, the generic locations and the BTC/USD
// price shared by the search scenarios.
func baseStore() *store.MemoryStore {
	ms := store.NewMemoryStore()
	ms.AddCoin(models.Coin{ID: "USD", Type: models.TypeFiat})
	ms.AddCoin(models.Coin{ID: "BTC", Type: models.TypeCrypto})
	ms.AddCoin(models.Coin{ID: "ETH", Type: models.TypeCrypto})
	ms.AddExchange(models.Exchange{ID: models.WalletExchange, Type: models.ExchTypeWallet})
	ms.AddExchange(models.Exchange{ID: models.BankExchange, Type: models.ExchTypeBank})
	ms.SetPrice("BTC", "USD", 50000)
	return ms
}

func addVenue(ms *store.MemoryStore, id string, tradeRate float64) {
	ms.AddExchange(models.Exchange{ID: id, Type: models.ExchTypeExchange})
	ms.AddFee(models.Fee{
		Exchange: id,
		Action:   models.ActionTrade,
		Scope:    "(Avg)",
		Amount:   tradeRate,
		Formula:  models.FormulaPercentage,
	})
}

func addWithdrawFee(ms *store.MemoryStore, exchange, coin string, amount float64) {
	ms.AddFee(models.Fee{
		Exchange: exchange,
		Action:   models.ActionWithdrawal,
		Scope:    coin,
		Amount:   amount,
		Formula:  models.FormulaAbsolute,
	})
}

func usdToBTCRequest() Request {
	return Request{
		OrigLoc:  models.GenericExchange,
		OrigCoin: "USD",
		OrigAmt:  1000,
		DestLoc:  models.GenericExchange,
		DestCoin: "BTC",
		Currency: "USD",
		Fees:     fees.Settings{Default: "(Avg)"},
	}
}

func TestSearchDirectRoute(t *testing.T) {
	ms := baseStore()
	addVenue(ms, "V1", 0.1)
	ms.AddPair(models.TradePair{Exchange: "V1", Coin: "BTC", BaseCoin: "USD", Volume: 1000})
	addWithdrawFee(ms, "V1", "BTC", 0.0005)

	routes, err := newTestEngine(ms).Search(usdToBTCRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(routes) != 1 {
		t.Fatalf("got %d routes, want 1", len(routes))
	}

	r := routes[0]
	if r.Kind != Direct {
		t.Errorf("Kind = %v, want Direct", r.Kind)
	}
	if r.Origin.Exchange.ID != models.BankExchange {
		t.Errorf("origin venue = %s, want %s for a fiat holding", r.Origin.Exchange.ID, models.BankExchange)
	}
	if r.Destination.Exchange.ID != models.WalletExchange {
		t.Errorf("destination venue = %s, want %s for a crypto holding",
			r.Destination.Exchange.ID, models.WalletExchange)
	}
	// 1000 USD at 0.1% buys 999 USD worth of BTC (0.01998), minus the
	// 0.0005 BTC withdrawal fee.
	if math.Abs(r.Destination.Amount-0.01948) > 1e-8 {
		t.Errorf("destination amount = %v, want 0.01948", r.Destination.Amount)
	}
	// Fees in USD: 1 trade fee plus 0.0005 BTC withdrawn at 50000.
	if math.Abs(r.TotalFees-26) > 1e-8 {
		t.Errorf("TotalFees = %v, want 26", r.TotalFees)
	}
	if r.ID == "" {
		t.Error("route ID must be set")
	}
}

func TestSearchNoRoutesIsNotAnError(t *testing.T) {
	routes, err := newTestEngine(baseStore()).Search(usdToBTCRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(routes) != 0 {
		t.Errorf("got %d routes, want 0", len(routes))
	}
}

func TestSearchUnknownCoin(t *testing.T) {
	req := usdToBTCRequest()
	req.DestCoin = "NOPE"

	routes, err := newTestEngine(baseStore()).Search(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(routes) != 0 {
		t.Errorf("got %d routes, want 0 for an unknown coin", len(routes))
	}
}

func TestSearchMissingWithdrawalFeeSkipsRoute(t *testing.T) {
	ms := baseStore()
	addVenue(ms, "V1", 0.1)
	ms.AddPair(models.TradePair{Exchange: "V1", Coin: "BTC", BaseCoin: "USD", Volume: 1000})
	// No BTC withdrawal fee rule at V1: funds cannot leave the venue.

	routes, err := newTestEngine(ms).Search(usdToBTCRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(routes) != 0 {
		t.Errorf("got %d routes, want 0 when the withdrawal fee is unresolvable", len(routes))
	}
}

func TestSearchNegativeProceedsSkipsRoute(t *testing.T) {
	ms := baseStore()
	addVenue(ms, "V1", 0.1)
	ms.AddPair(models.TradePair{Exchange: "V1", Coin: "BTC", BaseCoin: "USD", Volume: 1000})
	// The withdrawal fee exceeds the bought amount.
	addWithdrawFee(ms, "V1", "BTC", 1)

	routes, err := newTestEngine(ms).Search(usdToBTCRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(routes) != 0 {
		t.Errorf("got %d routes, want 0 when proceeds go negative", len(routes))
	}
}

func TestSearchDestinationAtTradingVenueWaivesWithdrawal(t *testing.T) {
	ms := baseStore()
	addVenue(ms, "V1", 0.1)
	ms.AddPair(models.TradePair{Exchange: "V1", Coin: "BTC", BaseCoin: "USD", Volume: 1000})
	// No withdrawal fee rule needed: the user keeps the funds at V1.

	req := usdToBTCRequest()
	req.DestLoc = "V1"
	routes, err := newTestEngine(ms).Search(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(routes) != 1 {
		t.Fatalf("got %d routes, want 1", len(routes))
	}
	r := routes[0]
	if r.Hop1.WithdrawFee != nil {
		t.Errorf("withdrawal fee = %+v, want nil when funds stay at the venue", r.Hop1.WithdrawFee)
	}
	if math.Abs(r.Destination.Amount-0.01998) > 1e-8 {
		t.Errorf("destination amount = %v, want 0.01998", r.Destination.Amount)
	}
}

func TestSearchOneHopRoute(t *testing.T) {
	ms := baseStore()
	addVenue(ms, "V2", 0.1)
	// V2 carries both coins but only through ETH, no direct BTC/USD pair.
	ms.AddPair(models.TradePair{Exchange: "V2", Coin: "ETH", BaseCoin: "USD", Volume: 500})
	ms.AddPair(models.TradePair{Exchange: "V2", Coin: "ETH", BaseCoin: "BTC", Volume: 400})
	ms.SetPrice("ETH", "USD", 2000)
	ms.SetPrice("ETH", "BTC", 0.04)
	addWithdrawFee(ms, "V2", "BTC", 0.0005)

	routes, err := newTestEngine(ms).Search(usdToBTCRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(routes) != 1 {
		t.Fatalf("got %d routes, want 1", len(routes))
	}

	r := routes[0]
	if r.Kind != OneHop {
		t.Errorf("Kind = %v, want OneHop", r.Kind)
	}
	if r.Hop1 == nil || r.Hop2 == nil {
		t.Fatal("one-hop route must carry two trade legs")
	}
	if r.Hop1.Exchange.ID != "V2" || r.Hop2.Exchange.ID != "V2" {
		t.Errorf("legs at %s and %s, want both at V2", r.Hop1.Exchange.ID, r.Hop2.Exchange.ID)
	}
	if r.Hop1.Trade.BuyCoin.ID != "ETH" || r.Hop2.Trade.SellCoin.ID != "ETH" {
		t.Errorf("intermediate coin = %s/%s, want ETH",
			r.Hop1.Trade.BuyCoin.ID, r.Hop2.Trade.SellCoin.ID)
	}
	// 1000 USD -> 0.4995 ETH -> 0.01996002 BTC before the withdrawal fee.
	if math.Abs(r.Destination.Amount-0.01946002) > 1e-8 {
		t.Errorf("destination amount = %v, want 0.01946002", r.Destination.Amount)
	}
}

func TestSearchNewDirectPairKeepsFeasibility(t *testing.T) {
	ms := baseStore()
	addVenue(ms, "V2", 0.1)
	ms.AddPair(models.TradePair{Exchange: "V2", Coin: "ETH", BaseCoin: "USD", Volume: 500})
	ms.AddPair(models.TradePair{Exchange: "V2", Coin: "ETH", BaseCoin: "BTC", Volume: 400})
	ms.SetPrice("ETH", "USD", 2000)
	ms.SetPrice("ETH", "BTC", 0.04)
	addWithdrawFee(ms, "V2", "BTC", 0.0005)

	engine := newTestEngine(ms)
	before, err := engine.Search(usdToBTCRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(before) == 0 || before[0].Kind != OneHop {
		t.Fatalf("fixture should start indirect-only, got %d routes", len(before))
	}

	// Listing the direct pair at the venue must surface a direct route
	// without shrinking the feasible set.
	ms.AddPair(models.TradePair{Exchange: "V2", Coin: "BTC", BaseCoin: "USD", Volume: 800})

	after, err := engine.Search(usdToBTCRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(after) < len(before) {
		t.Errorf("route count dropped from %d to %d after adding a direct pair",
			len(before), len(after))
	}
	var direct *Route
	for _, r := range after {
		if r.Kind == Direct {
			direct = r
		}
	}
	if direct == nil {
		t.Fatal("no direct route found after adding the direct pair")
	}
	if direct.Hop1.Exchange.ID != "V2" {
		t.Errorf("direct route at %s, want V2", direct.Hop1.Exchange.ID)
	}
	if direct.Destination.Amount <= 0 {
		t.Errorf("destination amount = %v, want > 0", direct.Destination.Amount)
	}
}

func TestSearchTwoHopRoute(t *testing.T) {
	ms := baseStore()
	addVenue(ms, "VA", 0.1)
	addVenue(ms, "VB", 0.2)
	// The origin coin only trades at VA, the destination coin only at VB;
	// ETH bridges the two venues.
	ms.AddPair(models.TradePair{Exchange: "VA", Coin: "ETH", BaseCoin: "USD", Volume: 500})
	ms.AddPair(models.TradePair{Exchange: "VB", Coin: "ETH", BaseCoin: "BTC", Volume: 400})
	ms.SetPrice("ETH", "USD", 2000)
	ms.SetPrice("ETH", "BTC", 0.04)
	addWithdrawFee(ms, "VA", "ETH", 0.005)
	addWithdrawFee(ms, "VB", "BTC", 0.0005)

	routes, err := newTestEngine(ms).Search(usdToBTCRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(routes) != 1 {
		t.Fatalf("got %d routes, want 1", len(routes))
	}

	r := routes[0]
	if r.Kind != TwoHops {
		t.Errorf("Kind = %v, want TwoHops", r.Kind)
	}
	if r.Hop1.Exchange.ID != "VA" || r.Hop2.Exchange.ID != "VB" {
		t.Errorf("legs at %s and %s, want VA then VB", r.Hop1.Exchange.ID, r.Hop2.Exchange.ID)
	}
	if r.Hop1.WithdrawFee == nil {
		t.Error("the bridge coin must pay a withdrawal fee leaving VA")
	}
	if r.Destination.Amount <= 0 {
		t.Errorf("destination amount = %v, want > 0", r.Destination.Amount)
	}
	if r.TotalFees <= 0 {
		t.Errorf("TotalFees = %v, want > 0", r.TotalFees)
	}
}

func TestSearchTwoHopRequiresBridgeWithdrawalFee(t *testing.T) {
	ms := baseStore()
	addVenue(ms, "VA", 0.1)
	addVenue(ms, "VB", 0.2)
	ms.AddPair(models.TradePair{Exchange: "VA", Coin: "ETH", BaseCoin: "USD", Volume: 500})
	ms.AddPair(models.TradePair{Exchange: "VB", Coin: "ETH", BaseCoin: "BTC", Volume: 400})
	ms.SetPrice("ETH", "USD", 2000)
	ms.SetPrice("ETH", "BTC", 0.04)
	// No ETH withdrawal fee at VA: the bridge transfer cannot be priced.
	addWithdrawFee(ms, "VB", "BTC", 0.0005)

	routes, err := newTestEngine(ms).Search(usdToBTCRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(routes) != 0 {
		t.Errorf("got %d routes, want 0 without a bridge withdrawal fee", len(routes))
	}
}
