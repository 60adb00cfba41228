package services

import (
	"context"
	"sync"

	"github.com/acecasino/settlement_api/internal/domain/entities"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// WithdrawalSource lists the withdrawal contracts registered on the Collect contract
type WithdrawalSource interface {
	WithdrawalContracts(ctx context.Context) ([]common.Address, error)
}

// WithdrawalCacheService caches the withdrawal contract list so an ETH
// collect does not need a contract call per request. The list only grows,
// so a request for more contracts than cached refreshes once before failing.
type WithdrawalCacheService struct {
	source WithdrawalSource
	logger *zap.Logger
	cache  []common.Address
	loaded bool
	mutex  sync.RWMutex
}

// NewWithdrawalCacheService creates a new withdrawal contract cache
func NewWithdrawalCacheService(source WithdrawalSource, logger *zap.Logger) *WithdrawalCacheService {
	return &WithdrawalCacheService{
		source: source,
		logger: logger,
	}
}

// InitializeCache loads the withdrawal contract list
func (c *WithdrawalCacheService) InitializeCache(ctx context.Context) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	contracts, err := c.source.WithdrawalContracts(ctx)
	if err != nil {
		c.logger.Error("Failed to load withdrawal contracts", zap.Error(err))
		return err
	}

	c.cache = contracts
	c.loaded = true
	c.logger.Info("Withdrawal contract cache initialized", zap.Int("cached_contracts", len(contracts)))
	return nil
}

// RefreshCache reloads the withdrawal contract list
func (c *WithdrawalCacheService) RefreshCache(ctx context.Context) error {
	return c.InitializeCache(ctx)
}

// GetCacheSize returns the number of cached withdrawal contracts
func (c *WithdrawalCacheService) GetCacheSize() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.cache)
}

// ResolveRecipients returns the first count withdrawal contracts
func (c *WithdrawalCacheService) ResolveRecipients(ctx context.Context, count int) (entities.RecipientList, error) {
	if recipients, ok := c.lookup(count); ok {
		return recipients, nil
	}

	if err := c.RefreshCache(ctx); err != nil {
		return nil, err
	}
	if recipients, ok := c.lookup(count); ok {
		return recipients, nil
	}
	return nil, errors.Wrapf(entities.ErrInsufficientRecipients, "need %d, have %d withdrawal contracts", count, c.GetCacheSize())
}

func (c *WithdrawalCacheService) lookup(count int) (entities.RecipientList, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	if !c.loaded || count > len(c.cache) {
		return nil, false
	}
	return append(entities.RecipientList(nil), c.cache[:count]...), true
}
