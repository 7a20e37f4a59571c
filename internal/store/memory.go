package store

import (
	"sort"
	"sync"

	"github.com/KintasS/crypto-exchange-path/internal/models"
)

// MemoryStore is a map-backed Store/Writer used in tests and local runs.
type MemoryStore struct {
	mu      sync.RWMutex
	coins   map[string]models.Coin
	exchs   map[string]models.Exchange
	fees    map[[3]string]models.Fee
	pairs   []models.TradePair
	prices  map[[2]string]float64
	queries []models.QueryRegister
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		coins:  make(map[string]models.Coin),
		exchs:  make(map[string]models.Exchange),
		fees:   make(map[[3]string]models.Fee),
		prices: make(map[[2]string]float64),
	}
}

// AddCoin registers a coin.
func (ms *MemoryStore) AddCoin(c models.Coin) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if c.Symbol == "" {
		c.Symbol = c.ID
	}
	if c.Status == "" {
		c.Status = models.StatusActive
	}
	ms.coins[c.ID] = c
}

// AddExchange registers an exchange.
func (ms *MemoryStore) AddExchange(e models.Exchange) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if e.Name == "" {
		e.Name = e.ID
	}
	if e.Status == "" {
		e.Status = models.StatusActive
	}
	ms.exchs[e.ID] = e
}

// AddFee registers a fee rule.
func (ms *MemoryStore) AddFee(f models.Fee) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if f.Status == "" {
		f.Status = models.StatusActive
	}
	ms.fees[[3]string{f.Exchange, f.Action, f.Scope}] = f
}

// AddPair registers a trading pair.
func (ms *MemoryStore) AddPair(p models.TradePair) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.pairs = append(ms.pairs, p)
}

// SetPrice stores a directed spot price.
func (ms *MemoryStore) SetPrice(coin, base string, price float64) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.prices[[2]string{coin, base}] = price
}

func (ms *MemoryStore) Coin(id string) (*models.Coin, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	if c, ok := ms.coins[id]; ok {
		return &c, nil
	}
	return nil, nil
}

func (ms *MemoryStore) Exchange(id string) (*models.Exchange, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	if e, ok := ms.exchs[id]; ok {
		return &e, nil
	}
	return nil, nil
}

func (ms *MemoryStore) ActiveCoins(coinType string) ([]string, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	var ids []string
	for id, c := range ms.coins {
		if c.Status != models.StatusActive {
			continue
		}
		if coinType != "" && c.Type != coinType {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (ms *MemoryStore) Exchanges(exchType string) ([]string, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	var ids []string
	for id, e := range ms.exchs {
		if exchType != "" && e.Type != exchType {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (ms *MemoryStore) ExchangesByPair(coinA, coinB string) (map[string]bool, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	exchs := make(map[string]bool)
	for _, p := range ms.pairs {
		if (p.Coin == coinA && p.BaseCoin == coinB) ||
			(p.Coin == coinB && p.BaseCoin == coinA) {
			exchs[p.Exchange] = true
		}
	}
	return exchs, nil
}

func (ms *MemoryStore) ExchangesByCoin(coin string) (map[string]bool, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	exchs := make(map[string]bool)
	for _, p := range ms.pairs {
		if p.Coin == coin || p.BaseCoin == coin {
			exchs[p.Exchange] = true
		}
	}
	return exchs, nil
}

func (ms *MemoryStore) FeeRule(exchange, action, scope string) (*models.Fee, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	if f, ok := ms.fees[[3]string{exchange, action, scope}]; ok && f.IsActive() {
		return &f, nil
	}
	return nil, nil
}

func (ms *MemoryStore) TradeFees(exchange string) ([]models.Fee, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	var fees []models.Fee
	for _, f := range ms.fees {
		if f.Exchange == exchange && f.Action == models.ActionTrade && f.IsActive() {
			fees = append(fees, f)
		}
	}
	// Stable scope order so tier selection never depends on map iteration.
	sort.Slice(fees, func(i, j int) bool { return fees[i].Scope < fees[j].Scope })
	return fees, nil
}

func (ms *MemoryStore) SpotPrice(coin, base string) (float64, bool, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	p, ok := ms.prices[[2]string{coin, base}]
	return p, ok, nil
}

func (ms *MemoryStore) PairsAgainst(exchange, coin string) ([]Counter, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	var counters []Counter
	for _, p := range ms.pairs {
		if p.Exchange != exchange {
			continue
		}
		switch coin {
		case p.Coin:
			counters = append(counters, Counter{Coin: p.BaseCoin, Volume: p.Volume})
		case p.BaseCoin:
			counters = append(counters, Counter{Coin: p.Coin, Volume: p.Volume})
		}
	}
	return counters, nil
}

func (ms *MemoryStore) UpsertPrices(prices []models.Price) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	for _, p := range prices {
		ms.prices[[2]string{p.Coin, p.BaseCoin}] = p.Price
	}
	return nil
}

func (ms *MemoryStore) SaveQuery(q *models.QueryRegister) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.queries = append(ms.queries, *q)
	return nil
}
