// Package store provides access to the reference data the path engine
// reads: coins, exchanges, trading pairs, fee rules and spot prices.
package store

import (
	"github.com/KintasS/crypto-exchange-path/internal/models"
)

// Counter is a coin that trades against another coin at a venue, with the
// trailing volume of that pair.
type Counter struct {
	Coin   string
	Volume float64
}

// Store is the read interface of the reference data. Absence of data is
// reported with nil values or empty sets; an error means the backing store
// itself failed and the whole search must abort.
//
// Implementations must be safe for concurrent use: searches only read, and
// writes (price refresh, imports) happen out-of-band.
type Store interface {
	// Coin returns a coin by ID, or nil if unknown.
	Coin(id string) (*models.Coin, error)

	// Exchange returns an exchange by ID, or nil if unknown.
	Exchange(id string) (*models.Exchange, error)

	// ActiveCoins lists active coin IDs, optionally filtered by type
	// (models.TypeCrypto or models.TypeFiat; empty means all).
	ActiveCoins(coinType string) ([]string, error)

	// Exchanges lists exchange IDs, optionally filtered by type.
	Exchanges(exchType string) ([]string, error)

	// ExchangesByPair returns the IDs of venues trading coinA against
	// coinB, in either orientation.
	ExchangesByPair(coinA, coinB string) (map[string]bool, error)

	// ExchangesByCoin returns the IDs of venues with at least one pair
	// involving the coin. These venues accept deposits and withdrawals
	// of it.
	ExchangesByCoin(coin string) (map[string]bool, error)

	// FeeRule returns the active fee rule for the exact
	// (exchange, action, scope) key, or nil if there is none.
	FeeRule(exchange, action, scope string) (*models.Fee, error)

	// TradeFees returns all active Trade fee rules of a venue.
	TradeFees(exchange string) ([]models.Fee, error)

	// SpotPrice returns the stored directed price 1 coin = p base.
	SpotPrice(coin, base string) (float64, bool, error)

	// PairsAgainst returns every coin the given coin trades against at
	// the venue, unioning both pair orientations.
	PairsAgainst(exchange, coin string) ([]Counter, error)
}

// Writer is the write interface used by the refresher and the audit log.
type Writer interface {
	// UpsertPrices replaces the stored spot prices for the given rows.
	UpsertPrices(prices []models.Price) error

	// SaveQuery appends a search audit row.
	SaveQuery(q *models.QueryRegister) error
}
