package models

// Fee actions.
const (
	ActionDeposit    = "Deposit"
	ActionWithdrawal = "Withdrawal"
	ActionTrade      = "Trade"
)

// Fee formula kinds, stored in the formula column.
const (
	FormulaAbsolute   = "Absolute"
	FormulaPercentage = "Percentage"
	FormulaLess1kUSD  = "Less1kUSD"
	FormulaPctPlus20  = "1%+20"
)

// Fee is one fee rule of a venue. The composite key is
// (exchange, action, scope): for Deposit/Withdrawal the scope is a coin ID,
// for Trade it is a tier label such as "(Maker)", "(Taker)", a promo code,
// or a specific trading-pair string.
type Fee struct {
	Exchange string `gorm:"column:exchange;primaryKey" json:"exchange"`
	Action   string `gorm:"column:action;primaryKey" json:"action"`
	Scope    string `gorm:"column:scope;primaryKey" json:"scope"`

	// Amount is interpreted according to Formula: an absolute amount for
	// Absolute/Less1kUSD, a percentage for Percentage and Trade tiers.
	Amount float64 `gorm:"column:amount;type:Float64" json:"amount"`

	// MinAmount, when set, is the floor for Percentage fees.
	MinAmount *float64 `gorm:"column:min_amount;type:Nullable(Float64)" json:"min_amount,omitempty"`

	// FeeCoin, when set, is the coin the fee is charged in. Empty or "-"
	// means the scope coin (Deposit/Withdrawal) or the sell coin (Trade).
	FeeCoin string `gorm:"column:fee_coin" json:"fee_coin"`

	// Formula selects how Amount turns into a concrete fee.
	Formula string `gorm:"column:formula" json:"formula"`

	// Status gates the rule; only Active rules are applied.
	Status string `gorm:"column:status" json:"status"`
}

func (Fee) TableName() string {
	return "fee"
}

// IsActive reports whether the rule may be applied.
func (f *Fee) IsActive() bool {
	return f.Status == StatusActive
}

// HasFeeCoin reports whether the rule charges its fee in a specific coin.
func (f *Fee) HasFeeCoin() bool {
	return f.FeeCoin != "" && f.FeeCoin != "-"
}
