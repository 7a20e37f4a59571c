package fees

// Settings carries the caller's fee preferences for one search: which
// default trading tier to assume, which promo code (if any) is active, and
// per-venue tier overrides.
type Settings struct {
	// Default is the trade-fee tier scope assumed when nothing more
	// specific matches, e.g. "(Avg)", "(Maker)" or "(Taker)".
	Default string `json:"default"`

	// Promo is the active promotional scope, e.g. "(CEP)". Empty means
	// no promo.
	Promo string `json:"promo,omitempty"`

	// Venue maps an exchange ID to its special/override tier scope,
	// e.g. {"Binance": "(BNB)"}.
	Venue map[string]string `json:"venue,omitempty"`
}

// VenueTier returns the override tier for an exchange, if configured.
func (s Settings) VenueTier(exchange string) string {
	if s.Venue == nil {
		return ""
	}
	return s.Venue[exchange]
}
