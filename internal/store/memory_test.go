package store

import (
	"testing"

	"github.com/KintasS/crypto-exchange-path/internal/models"
)

func TestTradeFeesStableOrder(t *testing.T) {
	ms := NewMemoryStore()
	for _, scope := range []string{"(Taker)", "(Avg)", "BTC", "(Maker)"} {
		ms.AddFee(models.Fee{
			Exchange: "Binance",
			Action:   models.ActionTrade,
			Scope:    scope,
			Amount:   0.1,
			Formula:  models.FormulaPercentage,
		})
	}
	ms.AddFee(models.Fee{
		Exchange: "Binance",
		Action:   models.ActionTrade,
		Scope:    "(Old)",
		Amount:   0.1,
		Formula:  models.FormulaPercentage,
		Status:   models.StatusInactive,
	})

	fees, err := ms.TradeFees("Binance")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"(Avg)", "(Maker)", "(Taker)", "BTC"}
	if len(fees) != len(want) {
		t.Fatalf("got %d rules, want %d (inactive excluded)", len(fees), len(want))
	}
	for i, f := range fees {
		if f.Scope != want[i] {
			t.Errorf("rule %d scope = %q, want %q", i, f.Scope, want[i])
		}
	}
}
