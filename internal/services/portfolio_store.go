package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/mtfultz/diversify/internal/models"
)

const DemoUserID = "demo"

// PortfolioStore maps a user id to that user's holdings. Save overwrites.
type PortfolioStore interface {
	Get(ctx context.Context, userID string) (models.Portfolio, bool, error)
	Save(ctx context.Context, p models.Portfolio) (models.Portfolio, error)
}

var (
	_ PortfolioStore = (*MemoryPortfolioStore)(nil)
	_ PortfolioStore = (*RedisPortfolioStore)(nil)
)

type MemoryPortfolioStore struct {
	mu    sync.RWMutex
	items map[string]models.Portfolio
}

func NewMemoryPortfolioStore() *MemoryPortfolioStore {
	return &MemoryPortfolioStore{items: make(map[string]models.Portfolio)}
}

func (s *MemoryPortfolioStore) Get(_ context.Context, userID string) (models.Portfolio, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.items[userID]
	if !ok {
		return models.Portfolio{}, false, nil
	}
	return clonePortfolio(p), true, nil
}

func (s *MemoryPortfolioStore) Save(_ context.Context, p models.Portfolio) (models.Portfolio, error) {
	p = clonePortfolio(p)
	s.mu.Lock()
	s.items[p.UserID] = p
	s.mu.Unlock()
	return clonePortfolio(p), nil
}

// RedisPortfolioStore keeps each portfolio as one JSON value without expiry.
type RedisPortfolioStore struct {
	client *redis.Client
}

func NewRedisPortfolioStore(client *redis.Client) *RedisPortfolioStore {
	return &RedisPortfolioStore{client: client}
}

func portfolioKey(userID string) string { return "portfolio:" + userID }

func (s *RedisPortfolioStore) Get(ctx context.Context, userID string) (models.Portfolio, bool, error) {
	b, err := s.client.Get(ctx, portfolioKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.Portfolio{}, false, nil
	}
	if err != nil {
		return models.Portfolio{}, false, fmt.Errorf("load portfolio %q: %w", userID, err)
	}
	var p models.Portfolio
	if err := UnmarshalCache(b, &p); err != nil {
		return models.Portfolio{}, false, fmt.Errorf("decode portfolio %q: %w", userID, err)
	}
	return clonePortfolio(p), true, nil
}

func (s *RedisPortfolioStore) Save(ctx context.Context, p models.Portfolio) (models.Portfolio, error) {
	p = clonePortfolio(p)
	b, err := MarshalCache(p)
	if err != nil {
		return models.Portfolio{}, fmt.Errorf("encode portfolio %q: %w", p.UserID, err)
	}
	if err := s.client.Set(ctx, portfolioKey(p.UserID), b, 0).Err(); err != nil {
		return models.Portfolio{}, fmt.Errorf("save portfolio %q: %w", p.UserID, err)
	}
	return p, nil
}

// SeedDemo stores the demo portfolio unless one already exists.
func SeedDemo(ctx context.Context, store PortfolioStore) error {
	_, ok, err := store.Get(ctx, DemoUserID)
	if err != nil || ok {
		return err
	}
	_, err = store.Save(ctx, models.Portfolio{
		UserID: DemoUserID,
		Coins: []models.Holding{
			{CoinID: "bitcoin", Amount: 2},
			{CoinID: "ethereum", Amount: 100},
		},
	})
	return err
}

func clonePortfolio(p models.Portfolio) models.Portfolio {
	coins := make([]models.Holding, len(p.Coins))
	copy(coins, p.Coins)
	return models.Portfolio{UserID: p.UserID, Coins: coins}
}
