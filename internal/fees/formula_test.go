package fees

import (
	"testing"

	"github.com/KintasS/crypto-exchange-path/internal/models"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		in   string
		want Kind
		ok   bool
	}{
		{models.FormulaAbsolute, Absolute, true},
		{models.FormulaPercentage, Percentage, true},
		{models.FormulaLess1kUSD, Less1kUSD, true},
		{models.FormulaPctPlus20, PctPlus20, true},
		{"Bogus", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseKind(tt.in)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("ParseKind(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestFormulaCompute(t *testing.T) {
	min5 := 5.0
	tests := []struct {
		name     string
		formula  Formula
		amount   float64
		usdEquiv float64
		wantFee  float64
		applies  bool
	}{
		{"absolute", Formula{Kind: Absolute, Amount: 0.0005}, 2, -1, 0.0005, true},
		{"percentage", Formula{Kind: Percentage, Amount: 0.25}, 1000, -1, 2.5, true},
		{"percentage below minimum", Formula{Kind: Percentage, Amount: 1, Min: &min5}, 100, -1, 5, true},
		{"percentage above minimum", Formula{Kind: Percentage, Amount: 1, Min: &min5}, 1000, -1, 10, true},
		{"less1k applies", Formula{Kind: Less1kUSD, Amount: 10}, 500, 500, 10, true},
		{"less1k at threshold", Formula{Kind: Less1kUSD, Amount: 10}, 1000, 1000, 0, false},
		{"less1k above threshold", Formula{Kind: Less1kUSD, Amount: 10}, 5000, 5000, 0, false},
		{"less1k unknown usd value", Formula{Kind: Less1kUSD, Amount: 10}, 500, -1, 0, false},
		{"pct plus 20", Formula{Kind: PctPlus20}, 1000, -1, 30, true},
		{"pct plus 20 rounds to cents", Formula{Kind: PctPlus20}, 123.456, -1, 21.23, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fee, applies := tt.formula.Compute(tt.amount, tt.usdEquiv)
			if applies != tt.applies {
				t.Fatalf("applies = %v, want %v", applies, tt.applies)
			}
			if applies && fee != tt.wantFee {
				t.Errorf("fee = %v, want %v", fee, tt.wantFee)
			}
		})
	}
}
