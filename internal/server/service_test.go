package server

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/KintasS/crypto-exchange-path/internal/fees"
	"github.com/KintasS/crypto-exchange-path/internal/models"
	"github.com/KintasS/crypto-exchange-path/internal/pathfinder"
	"github.com/KintasS/crypto-exchange-path/internal/store"
)

// multiVenueStore sets up USD->BTC conversions at three venues with
// different trading fees, so searches yield routes with distinct totals.
func multiVenueStore() *store.MemoryStore {
	ms := store.NewMemoryStore()
	ms.AddCoin(models.Coin{ID: "USD", Type: models.TypeFiat})
	ms.AddCoin(models.Coin{ID: "BTC", Type: models.TypeCrypto})
	ms.AddExchange(models.Exchange{ID: models.WalletExchange, Type: models.ExchTypeWallet})
	ms.AddExchange(models.Exchange{ID: models.BankExchange, Type: models.ExchTypeBank})
	ms.SetPrice("BTC", "USD", 50000)

	for _, v := range []struct {
		id   string
		rate float64
	}{
		{"Cheap", 0.1},
		{"Mid", 0.5},
		{"Steep", 1.0},
	} {
		ms.AddExchange(models.Exchange{ID: v.id, Type: models.ExchTypeExchange})
		ms.AddFee(models.Fee{
			Exchange: v.id,
			Action:   models.ActionTrade,
			Scope:    "(Avg)",
			Amount:   v.rate,
			Formula:  models.FormulaPercentage,
		})
		ms.AddFee(models.Fee{
			Exchange: v.id,
			Action:   models.ActionWithdrawal,
			Scope:    "BTC",
			Amount:   0.0005,
			Formula:  models.FormulaAbsolute,
		})
		ms.AddPair(models.TradePair{Exchange: v.id, Coin: "BTC", BaseCoin: "USD", Volume: 1000})
	}
	return ms
}

func newTestService(ms *store.MemoryStore, maxResults int) *SearchService {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	engine := pathfinder.New(ms, logger)
	return NewSearchService(engine, ms, maxResults, logger)
}

func testRequest() pathfinder.Request {
	return pathfinder.Request{
		OrigLoc:  models.GenericExchange,
		OrigCoin: "USD",
		OrigAmt:  1000,
		DestLoc:  models.GenericExchange,
		DestCoin: "BTC",
		Currency: "USD",
		Fees:     fees.Settings{Default: "(Avg)"},
	}
}

func TestSearchSortsByTotalFees(t *testing.T) {
	svc := newTestService(multiVenueStore(), 0)

	views, err := svc.Search(testRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(views) != 3 {
		t.Fatalf("got %d routes, want 3", len(views))
	}
	for i := 1; i < len(views); i++ {
		if views[i].TotalFees < views[i-1].TotalFees {
			t.Fatalf("routes not sorted ascending: %v before %v",
				views[i-1].TotalFees, views[i].TotalFees)
		}
	}
	if views[0].Hops[0].Exchange != "Cheap" {
		t.Errorf("cheapest route at %s, want Cheap", views[0].Hops[0].Exchange)
	}
}

func TestSearchCapsResults(t *testing.T) {
	svc := newTestService(multiVenueStore(), 2)

	views, err := svc.Search(testRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(views) != 2 {
		t.Errorf("got %d routes, want cap of 2", len(views))
	}
}

func TestSearchEmptyResultIsNotAnError(t *testing.T) {
	ms := multiVenueStore()
	svc := newTestService(ms, 0)

	req := testRequest()
	req.DestCoin = "NOPE"
	views, err := svc.Search(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(views) != 0 {
		t.Errorf("got %d routes, want 0", len(views))
	}
}

func TestSearchViewFields(t *testing.T) {
	svc := newTestService(multiVenueStore(), 1)

	views, err := svc.Search(testRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("got %d routes, want 1", len(views))
	}
	v := views[0]
	if v.Kind != "direct" {
		t.Errorf("Kind = %q, want direct", v.Kind)
	}
	if v.TotalFeesDisplay == "" {
		t.Error("TotalFeesDisplay must be rendered")
	}
	if v.Origin.Exchange != models.BankExchange || v.Destination.Exchange != models.WalletExchange {
		t.Errorf("endpoints = %s -> %s, want Bank -> Wallet",
			v.Origin.Exchange, v.Destination.Exchange)
	}
}
