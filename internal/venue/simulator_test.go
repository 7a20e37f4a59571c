package venue

import (
	"io"
	"math"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/KintasS/crypto-exchange-path/internal/fees"
	"github.com/KintasS/crypto-exchange-path/internal/fx"
	"github.com/KintasS/crypto-exchange-path/internal/models"
	"github.com/KintasS/crypto-exchange-path/internal/store"
)

func newTestSimulator(ms *store.MemoryStore, settings fees.Settings) *Simulator {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	conv := fx.NewConverter(ms, fx.NewCache(), logger)
	exch := &models.Exchange{ID: "Binance", Name: "Binance", Type: models.ExchTypeExchange}
	return NewSimulator(exch, ms, conv, settings, logger)
}

func addTradeRule(ms *store.MemoryStore, scope string, rate float64) {
	ms.AddFee(models.Fee{
		Exchange: "Binance",
		Action:   models.ActionTrade,
		Scope:    scope,
		Amount:   rate,
		Formula:  models.FormulaPercentage,
	})
}

func TestResolveTradeFeePrecedence(t *testing.T) {
	// Every tier level has a matching rule; the selected one must follow
	// the precedence order, with each level peeled off in turn.
	build := func() *store.MemoryStore {
		ms := store.NewMemoryStore()
		addTradeRule(ms, "(CEP)", 0)
		addTradeRule(ms, "(VIP)", 0.02)
		addTradeRule(ms, "BTC", 0.05)
		addTradeRule(ms, "(Avg)", 0.1)
		return ms
	}

	tests := []struct {
		name     string
		settings fees.Settings
		wantRate float64
	}{
		{
			"promo wins over everything",
			fees.Settings{Default: "(Avg)", Promo: "(CEP)", Venue: map[string]string{"Binance": "(VIP)"}},
			0,
		},
		{
			"venue special wins over pair and default",
			fees.Settings{Default: "(Avg)", Venue: map[string]string{"Binance": "(VIP)"}},
			0.02,
		},
		{
			"pair match wins over default",
			fees.Settings{Default: "(Avg)"},
			0.05,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim := newTestSimulator(build(), tt.settings)
			fee, err := sim.resolveTradeFee("BTC", "ETH")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if fee == nil {
				t.Fatal("expected a fee tier")
			}
			if fee.rate != tt.wantRate {
				t.Errorf("rate = %v, want %v", fee.rate, tt.wantRate)
			}
		})
	}

	t.Run("default when nothing else matches", func(t *testing.T) {
		ms := store.NewMemoryStore()
		addTradeRule(ms, "(Avg)", 0.1)
		sim := newTestSimulator(ms, fees.Settings{Default: "(Avg)"})
		fee, err := sim.resolveTradeFee("LTC", "XRP")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if fee == nil || fee.rate != 0.1 {
			t.Fatalf("fee = %+v, want default tier at 0.1", fee)
		}
	})

	t.Run("no rules at all", func(t *testing.T) {
		sim := newTestSimulator(store.NewMemoryStore(), fees.Settings{Default: "(Avg)"})
		fee, err := sim.resolveTradeFee("BTC", "ETH")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if fee != nil {
			t.Errorf("fee = %+v, want nil", fee)
		}
	})
}

func TestTrade(t *testing.T) {
	ms := store.NewMemoryStore()
	ms.AddCoin(models.Coin{ID: "BTC", Type: models.TypeCrypto})
	ms.AddCoin(models.Coin{ID: "ETH", Type: models.TypeCrypto})
	ms.SetPrice("BTC", "ETH", 20)
	addTradeRule(ms, "(Avg)", 0.1)
	sim := newTestSimulator(ms, fees.Settings{Default: "(Avg)"})

	btc, _ := ms.Coin("BTC")
	eth, _ := ms.Coin("ETH")
	trade, err := sim.Trade(2, btc, eth)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if trade == nil {
		t.Fatal("expected a trade")
	}
	// 2 BTC at 0.1% leaves 1.998 BTC bought into ETH at 20.
	if math.Abs(trade.BuyAmt-39.96) > 1e-8 {
		t.Errorf("BuyAmt = %v, want 39.96", trade.BuyAmt)
	}
	if math.Abs(trade.FeeAmt-0.002) > 1e-12 || trade.FeeCoin.ID != "BTC" {
		t.Errorf("fee = %v %s, want 0.002 BTC", trade.FeeAmt, trade.FeeCoin.ID)
	}
}

func TestTradeFeeInNamedCoin(t *testing.T) {
	ms := store.NewMemoryStore()
	ms.AddCoin(models.Coin{ID: "BTC", Type: models.TypeCrypto})
	ms.AddCoin(models.Coin{ID: "ETH", Type: models.TypeCrypto})
	ms.AddCoin(models.Coin{ID: "BNB", Type: models.TypeCrypto})
	ms.SetPrice("BTC", "ETH", 20)
	ms.SetPrice("BTC", "BNB", 100)
	ms.AddFee(models.Fee{
		Exchange: "Binance",
		Action:   models.ActionTrade,
		Scope:    "(BNB)",
		Amount:   0.075,
		FeeCoin:  "BNB",
		Formula:  models.FormulaPercentage,
	})
	sim := newTestSimulator(ms, fees.Settings{Default: "(BNB)"})

	btc, _ := ms.Coin("BTC")
	eth, _ := ms.Coin("ETH")
	trade, err := sim.Trade(1, btc, eth)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if trade == nil {
		t.Fatal("expected a trade")
	}
	if trade.FeeCoin.ID != "BNB" {
		t.Errorf("FeeCoin = %s, want BNB", trade.FeeCoin.ID)
	}
	if math.Abs(trade.FeeAmt-0.075) > 1e-8 {
		t.Errorf("FeeAmt = %v, want 0.075 BNB", trade.FeeAmt)
	}
}

func TestTradeNoPriceSkips(t *testing.T) {
	ms := store.NewMemoryStore()
	ms.AddCoin(models.Coin{ID: "BTC", Type: models.TypeCrypto})
	ms.AddCoin(models.Coin{ID: "ETH", Type: models.TypeCrypto})
	addTradeRule(ms, "(Avg)", 0.1)
	sim := newTestSimulator(ms, fees.Settings{Default: "(Avg)"})

	btc, _ := ms.Coin("BTC")
	eth, _ := ms.Coin("ETH")
	trade, err := sim.Trade(1, btc, eth)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if trade != nil {
		t.Errorf("trade without a price = %+v, want nil", trade)
	}
}

func TestCryptoCounterAssets(t *testing.T) {
	ms := store.NewMemoryStore()
	ms.AddCoin(models.Coin{ID: "BTC", Type: models.TypeCrypto})
	ms.AddCoin(models.Coin{ID: "ETH", Type: models.TypeCrypto})
	ms.AddCoin(models.Coin{ID: "USDT", Type: models.TypeCrypto})
	ms.AddCoin(models.Coin{ID: "USD", Type: models.TypeFiat})
	ms.AddPair(models.TradePair{Exchange: "Binance", Coin: "ETH", BaseCoin: "BTC", Volume: 100})
	ms.AddPair(models.TradePair{Exchange: "Binance", Coin: "ETH", BaseCoin: "USDT", Volume: 500})
	ms.AddPair(models.TradePair{Exchange: "Binance", Coin: "ETH", BaseCoin: "USD", Volume: 300})
	sim := newTestSimulator(ms, fees.Settings{Default: "(Avg)"})

	cryptos, err := sim.CryptoCounterAssets("ETH")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cryptos) != 1 || cryptos[0].Coin != "BTC" {
		t.Errorf("crypto counters = %+v, want only BTC (fiat and USDT excluded)", cryptos)
	}
}

func TestBestCommonCounter(t *testing.T) {
	addCommonPairs := func(ms *store.MemoryStore, counter string, liqVsLTC, liqVsXRP float64) {
		ms.AddPair(models.TradePair{Exchange: "Binance", Coin: "LTC", BaseCoin: counter, Volume: liqVsLTC})
		ms.AddPair(models.TradePair{Exchange: "Binance", Coin: "XRP", BaseCoin: counter, Volume: liqVsXRP})
	}

	t.Run("highest minimum liquidity wins", func(t *testing.T) {
		ms := store.NewMemoryStore()
		ms.AddCoin(models.Coin{ID: "BTC", Type: models.TypeCrypto})
		ms.AddCoin(models.Coin{ID: "ETH", Type: models.TypeCrypto})
		addCommonPairs(ms, "BTC", 100, 50)
		addCommonPairs(ms, "ETH", 80, 70)
		sim := newTestSimulator(ms, fees.Settings{Default: "(Avg)"})

		z, err := sim.BestCommonCounter("LTC", "XRP")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		// ETH min liq 70 beats BTC min liq 50.
		if z == nil || z.Coin.ID != "ETH" {
			t.Fatalf("counter = %+v, want ETH", z)
		}
		if z.MinLiq() != 70 {
			t.Errorf("MinLiq = %v, want 70", z.MinLiq())
		}
	})

	t.Run("reference coin prevails on a tie", func(t *testing.T) {
		ms := store.NewMemoryStore()
		ms.AddCoin(models.Coin{ID: "BTC", Type: models.TypeCrypto})
		ms.AddCoin(models.Coin{ID: "ETH", Type: models.TypeCrypto})
		addCommonPairs(ms, "BTC", 100, 50)
		addCommonPairs(ms, "ETH", 90, 50)
		sim := newTestSimulator(ms, fees.Settings{Default: "(Avg)"})

		z, err := sim.BestCommonCounter("LTC", "XRP")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if z == nil || z.Coin.ID != "BTC" {
			t.Fatalf("counter = %+v, want BTC on tie", z)
		}
	})

	t.Run("no common counter", func(t *testing.T) {
		ms := store.NewMemoryStore()
		ms.AddPair(models.TradePair{Exchange: "Binance", Coin: "LTC", BaseCoin: "BTC", Volume: 100})
		sim := newTestSimulator(ms, fees.Settings{Default: "(Avg)"})

		z, err := sim.BestCommonCounter("LTC", "XRP")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if z != nil {
			t.Errorf("counter = %+v, want nil", z)
		}
	})
}
