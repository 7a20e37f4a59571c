// Package fx converts amounts between coins using stored spot prices,
// falling back to triangulation through BTC when no direct or inverse
// price exists.
package fx

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/KintasS/crypto-exchange-path/internal/models"
	"github.com/KintasS/crypto-exchange-path/internal/store"
)

// Results carry 8 decimals, like the stored prices.
const decimals = 8

// Converter resolves FX rates against a Store, memoizing them in a
// request-scoped Cache.
type Converter struct {
	store  store.Store
	cache  *Cache
	logger *logrus.Logger
}

// NewConverter builds a Converter. The cache must be request-scoped.
func NewConverter(st store.Store, cache *Cache, logger *logrus.Logger) *Converter {
	return &Converter{store: st, cache: cache, logger: logger}
}

// Convert expresses amount of origCoin in destCoin. The second return is
// false when no rate could be resolved; that is an expected condition the
// caller handles by skipping the fee or route at hand. A non-nil error
// means the store itself failed.
func (cv *Converter) Convert(origCoin, destCoin string, amount float64) (float64, bool, error) {
	if origCoin == destCoin {
		return amount, true, nil
	}
	if rate, ok := cv.cache.Rate(origCoin, destCoin); ok {
		return round(rate*amount, decimals), true, nil
	}
	rate, ok, err := cv.rate(origCoin, destCoin)
	if err != nil {
		return 0, false, err
	}
	if !ok {
		cv.logger.Warnf("fx: no rate found for '%s-%s'", origCoin, destCoin)
		return 0, false, nil
	}
	cv.cache.Put(origCoin, destCoin, rate)
	return round(rate*amount, decimals), true, nil
}

// rate resolves the FX rate origCoin->destCoin: direct price first, then
// the inverse, then triangulation through BTC in both directions.
func (cv *Converter) rate(origCoin, destCoin string) (float64, bool, error) {
	// Direct price, destCoin as base.
	price, ok, err := cv.store.SpotPrice(origCoin, destCoin)
	if err != nil {
		return 0, false, err
	}
	if ok {
		return price, true, nil
	}
	// Inverse price, origCoin as base.
	price, ok, err = cv.store.SpotPrice(destCoin, origCoin)
	if err != nil {
		return 0, false, err
	}
	if ok && price != 0 {
		return 1 / price, true, nil
	}
	// Triangulate through BTC prices (both coins priced in BTC).
	origBTC, okOrig, err := cv.store.SpotPrice(origCoin, models.ReferenceCoin)
	if err != nil {
		return 0, false, err
	}
	destBTC, okDest, err := cv.store.SpotPrice(destCoin, models.ReferenceCoin)
	if err != nil {
		return 0, false, err
	}
	if okOrig && okDest && destBTC != 0 {
		return origBTC / destBTC, true, nil
	}
	// Triangulate through BTC prices (BTC priced in both coins, the
	// fiat case).
	btcOrig, okOrig, err := cv.store.SpotPrice(models.ReferenceCoin, origCoin)
	if err != nil {
		return 0, false, err
	}
	btcDest, okDest, err := cv.store.SpotPrice(models.ReferenceCoin, destCoin)
	if err != nil {
		return 0, false, err
	}
	if okOrig && okDest && btcOrig != 0 {
		return btcDest / btcOrig, true, nil
	}
	return 0, false, nil
}

func round(x float64, decs int) float64 {
	pow := math.Pow(10, float64(decs))
	return math.Round(x*pow) / pow
}
