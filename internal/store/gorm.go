package store

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/KintasS/crypto-exchange-path/internal/models"
)

// gormStore implements Store and Writer on top of a gorm connection.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore wraps a gorm connection in a Store/Writer implementation.
func NewGormStore(db *gorm.DB) *gormStore {
	return &gormStore{db: db}
}

func (gs *gormStore) Coin(id string) (*models.Coin, error) {
	var coin models.Coin
	err := gs.db.Where("id = ?", id).First(&coin).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: coin %q: %w", id, err)
	}
	return &coin, nil
}

func (gs *gormStore) Exchange(id string) (*models.Exchange, error) {
	var exch models.Exchange
	err := gs.db.Where("id = ?", id).First(&exch).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: exchange %q: %w", id, err)
	}
	return &exch, nil
}

func (gs *gormStore) ActiveCoins(coinType string) ([]string, error) {
	query := gs.db.Model(&models.Coin{}).Where("status = ?", models.StatusActive)
	if coinType != "" {
		query = query.Where("type = ?", coinType)
	}
	var ids []string
	if err := query.Order("ranking").Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("store: active coins: %w", err)
	}
	return ids, nil
}

func (gs *gormStore) Exchanges(exchType string) ([]string, error) {
	query := gs.db.Model(&models.Exchange{})
	if exchType != "" {
		query = query.Where("type = ?", exchType)
	}
	var ids []string
	if err := query.Order("id").Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("store: exchanges: %w", err)
	}
	return ids, nil
}

func (gs *gormStore) ExchangesByPair(coinA, coinB string) (map[string]bool, error) {
	var pairs []models.TradePair
	err := gs.db.
		Where("(coin = ? AND base_coin = ?) OR (coin = ? AND base_coin = ?)",
			coinA, coinB, coinB, coinA).
		Order("volume desc").
		Find(&pairs).Error
	if err != nil {
		return nil, fmt.Errorf("store: exchanges by pair %s/%s: %w", coinA, coinB, err)
	}
	exchs := make(map[string]bool, len(pairs))
	for _, p := range pairs {
		exchs[p.Exchange] = true
	}
	return exchs, nil
}

func (gs *gormStore) ExchangesByCoin(coin string) (map[string]bool, error) {
	var ids []string
	err := gs.db.Model(&models.TradePair{}).
		Where("coin = ? OR base_coin = ?", coin, coin).
		Distinct("exchange").
		Pluck("exchange", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("store: exchanges by coin %s: %w", coin, err)
	}
	exchs := make(map[string]bool, len(ids))
	for _, id := range ids {
		exchs[id] = true
	}
	return exchs, nil
}

func (gs *gormStore) FeeRule(exchange, action, scope string) (*models.Fee, error) {
	var fee models.Fee
	err := gs.db.
		Where("exchange = ? AND action = ? AND scope = ? AND status = ?",
			exchange, action, scope, models.StatusActive).
		First(&fee).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: fee rule %s/%s/%s: %w", exchange, action, scope, err)
	}
	return &fee, nil
}

func (gs *gormStore) TradeFees(exchange string) ([]models.Fee, error) {
	var fees []models.Fee
	err := gs.db.
		Where("exchange = ? AND action = ? AND status = ?",
			exchange, models.ActionTrade, models.StatusActive).
		Order("scope").
		Find(&fees).Error
	if err != nil {
		return nil, fmt.Errorf("store: trade fees %s: %w", exchange, err)
	}
	return fees, nil
}

func (gs *gormStore) SpotPrice(coin, base string) (float64, bool, error) {
	var price models.Price
	err := gs.db.Where("coin = ? AND base_coin = ?", coin, base).First(&price).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("store: price %s/%s: %w", coin, base, err)
	}
	return price.Price, true, nil
}

func (gs *gormStore) PairsAgainst(exchange, coin string) ([]Counter, error) {
	var pairs []models.TradePair
	err := gs.db.
		Where("exchange = ? AND (coin = ? OR base_coin = ?)", exchange, coin, coin).
		Find(&pairs).Error
	if err != nil {
		return nil, fmt.Errorf("store: pairs against %s at %s: %w", coin, exchange, err)
	}
	counters := make([]Counter, 0, len(pairs))
	for _, p := range pairs {
		counter := p.BaseCoin
		if p.BaseCoin == coin {
			counter = p.Coin
		}
		counters = append(counters, Counter{Coin: counter, Volume: p.Volume})
	}
	return counters, nil
}

func (gs *gormStore) UpsertPrices(prices []models.Price) error {
	if len(prices) == 0 {
		return nil
	}
	if err := gs.db.Save(&prices).Error; err != nil {
		return fmt.Errorf("store: upsert %d prices: %w", len(prices), err)
	}
	return nil
}

func (gs *gormStore) SaveQuery(q *models.QueryRegister) error {
	if q.FinishTime.IsZero() {
		q.FinishTime = time.Now()
	}
	if err := gs.db.Create(q).Error; err != nil {
		return fmt.Errorf("store: save query register: %w", err)
	}
	return nil
}
