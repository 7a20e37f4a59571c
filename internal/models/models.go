// Package models defines the reference-data entities shared across the
// application: coins, exchanges, trading pairs, prices and fee rules.
package models

import "time"

// Coin categories.
const (
	TypeCrypto = "Crypto"
	TypeFiat   = "Fiat"
)

// Coin lifecycle statuses.
const (
	StatusActive   = "Active"
	StatusInactive = "Inactive"
	StatusDeleted  = "Deleted"
)

// Exchange categories. Wallet and Bank are the two synthetic venues that
// represent self-custody of cryptos and fiat respectively.
const (
	ExchTypeExchange = "Exchange"
	ExchTypeWallet   = "Wallet"
	ExchTypeBank     = "Bank"
)

// Well-known identifiers.
const (
	// GenericExchange is the placeholder venue users pick when their funds
	// are not held at any exchange. It is substituted by Wallet or Bank
	// depending on the coin category.
	GenericExchange = "Generic"

	WalletExchange = "Wallet"
	BankExchange   = "Bank"

	// ReferenceCoin is the asset FX triangulation and counter-asset
	// tie-breaking prefer.
	ReferenceCoin = "BTC"

	// USDCoin is the asset used for USD-threshold fee rules and for the
	// price-magnitude rounding policy.
	USDCoin = "USD"
)

// Coin is a tradable asset, crypto or fiat. Read-only for the engine;
// rows are maintained by the import pipeline.
type Coin struct {
	// ID is the coin identifier used across all tables (e.g. "BTC").
	ID string `gorm:"column:id;primaryKey" json:"id"`

	// Symbol is the display symbol, usually equal to ID.
	Symbol string `gorm:"column:symbol" json:"symbol"`

	// LongName is the human-readable name (e.g. "Bitcoin").
	LongName string `gorm:"column:long_name" json:"long_name"`

	// Type is either TypeCrypto or TypeFiat.
	Type string `gorm:"column:type" json:"type"`

	// Status is the lifecycle status. Only Active coins take part in
	// searches.
	Status string `gorm:"column:status" json:"status"`

	// Ranking orders coins in selection lists (lower is more popular).
	Ranking float64 `gorm:"column:ranking;type:Float64" json:"ranking"`
}

func (Coin) TableName() string {
	return "coin"
}

// IsCrypto reports whether the coin is a crypto asset.
func (c *Coin) IsCrypto() bool {
	return c.Type == TypeCrypto
}

// Exchange is a place where assets are held or traded: a trading venue,
// or one of the synthetic Wallet/Bank venues.
type Exchange struct {
	ID     string `gorm:"column:id;primaryKey" json:"id"`
	Name   string `gorm:"column:name" json:"name"`
	Type   string `gorm:"column:type" json:"type"`
	Status string `gorm:"column:status" json:"status"`
}

func (Exchange) TableName() string {
	return "exchange"
}

// TradePair records that a venue trades a coin against a base coin,
// together with the trailing 24h volume. Volume is only used to choose
// between candidate venues and counter-assets, never for pricing.
type TradePair struct {
	Exchange string  `gorm:"column:exchange;primaryKey" json:"exchange"`
	Coin     string  `gorm:"column:coin;primaryKey" json:"coin"`
	BaseCoin string  `gorm:"column:base_coin;primaryKey" json:"base_coin"`
	Volume   float64 `gorm:"column:volume;type:Float64" json:"volume"`
}

func (TradePair) TableName() string {
	return "trade_pair"
}

// Price is a directed spot price: 1 Coin = Price BaseCoin.
type Price struct {
	Coin     string  `gorm:"column:coin;primaryKey" json:"coin"`
	BaseCoin string  `gorm:"column:base_coin;primaryKey" json:"base_coin"`
	Price    float64 `gorm:"column:price;type:Float64" json:"price"`
}

func (Price) TableName() string {
	return "price"
}

// QueryRegister is the audit row written after each search: the request
// parameters and how many routes were found.
type QueryRegister struct {
	SessionID  string    `gorm:"column:session_id" json:"session_id"`
	OrigAmt    float64   `gorm:"column:orig_amt;type:Float64" json:"orig_amt"`
	OrigCoin   string    `gorm:"column:orig_coin" json:"orig_coin"`
	OrigLoc    string    `gorm:"column:orig_loc" json:"orig_loc"`
	DestCoin   string    `gorm:"column:dest_coin" json:"dest_coin"`
	DestLoc    string    `gorm:"column:dest_loc" json:"dest_loc"`
	Currency   string    `gorm:"column:currency" json:"currency"`
	Results    int       `gorm:"column:results" json:"results"`
	StartTime  time.Time `gorm:"column:start_time;type:DateTime" json:"start_time"`
	FinishTime time.Time `gorm:"column:finish_time;type:DateTime" json:"finish_time"`
}

func (QueryRegister) TableName() string {
	return "query_register"
}
