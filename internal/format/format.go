// Package format implements the display-rounding policy: decimal places
// are chosen from the magnitude of a coin's price, and currency amounts
// are rendered with symbols and thousands tiers. Search results compared
// for display equality depend on these exact tier boundaries.
package format

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/KintasS/crypto-exchange-path/internal/models"
	"github.com/KintasS/crypto-exchange-path/internal/store"
)

// CurrencySymbols maps fiat currencies to their display symbols.
var CurrencySymbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
}

// FiatDecimals is the fixed decimal count used for fiat amounts.
var FiatDecimals = map[string]int{
	"USD": 2,
	"EUR": 2,
	"GBP": 2,
}

// DecimalsForPrice buckets a coin's USD price into the number of decimal
// places its amounts are displayed with. The tier boundaries are fixed;
// rounded amounts feed back into request parameters, so changing them
// changes results.
func DecimalsForPrice(price float64) int {
	switch {
	case price > 10000:
		return 7
	case price > 1000:
		return 6
	case price > 100:
		return 5
	case price > 10:
		return 4
	case price > 1:
		return 3
	case price > 0.1:
		return 2
	case price > 0.01:
		return 2
	case price > 0.001:
		return 1
	default:
		return 0
	}
}

// RoundByPrice rounds an amount of a coin using the coin's USD price
// magnitude. Fiat coins use their fixed decimal count. When no price is
// stored the amount is returned unchanged.
func RoundByPrice(st store.Store, amount float64, coin string) (float64, error) {
	if decs, ok := FiatDecimals[coin]; ok {
		return roundTo(amount, decs), nil
	}
	price, ok, err := st.SpotPrice(coin, models.USDCoin)
	if err != nil {
		return 0, err
	}
	if !ok {
		return amount, nil
	}
	return roundTo(amount, DecimalsForPrice(price)), nil
}

// Rate renders a trade rate with magnitude-dependent decimals.
func Rate(number float64) string {
	var decs int
	switch {
	case number > 10000:
		decs = 1
	case number > 1000:
		decs = 2
	case number > 100:
		decs = 3
	case number > 10:
		decs = 4
	case number > 1:
		decs = 5
	default:
		decs = 8
	}
	return withThousands(number, decs)
}

// Amount renders a fee total in the given currency with its symbol,
// switching to thousands above 10,000.
func Amount(number float64, currency string) string {
	symbol, ok := CurrencySymbols[currency]
	if !ok {
		symbol = "?"
	}
	decs := 0
	inThousands := false
	switch {
	case number < 100:
		decs = 2
	case number < 1000:
		decs = 1
	case number < 10000:
		decs = 0
	case number < 100000:
		number /= 1000
		decs = 2
		inThousands = true
	case number < 1000000:
		number /= 1000
		decs = 1
		inThousands = true
	default:
		number /= 1000
		decs = 0
		inThousands = true
	}
	value := withThousands(number, decs)
	if currency == "USD" {
		if inThousands {
			return fmt.Sprintf("%s%sk", symbol, value)
		}
		return fmt.Sprintf("%s%s", symbol, value)
	}
	if inThousands {
		return fmt.Sprintf("%s k%s", value, symbol)
	}
	return fmt.Sprintf("%s %s", value, symbol)
}

func roundTo(x float64, decs int) float64 {
	s := strconv.FormatFloat(x, 'f', decs, 64)
	r, _ := strconv.ParseFloat(s, 64)
	return r
}

// withThousands formats with fixed decimals and comma grouping.
func withThousands(x float64, decs int) string {
	s := strconv.FormatFloat(x, 'f', decs, 64)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	intPart, fracPart, hasFrac := strings.Cut(s, ".")
	var b strings.Builder
	for i, digit := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(digit)
	}
	out := b.String()
	if hasFrac {
		out += "." + fracPart
	}
	if neg {
		out = "-" + out
	}
	return out
}
