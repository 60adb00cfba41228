package container

import (
	"context"
	"crypto/ecdsa"

	"github.com/acecasino/settlement_api/internal/application/services"
	"github.com/acecasino/settlement_api/internal/config"
	"github.com/acecasino/settlement_api/internal/database"
	domainRepos "github.com/acecasino/settlement_api/internal/domain/repositories"
	"github.com/acecasino/settlement_api/internal/infrastructure/database/repositories"
	"github.com/acecasino/settlement_api/internal/infrastructure/external/blockchain/ethereum"
	"github.com/acecasino/settlement_api/internal/infrastructure/external/cloud"
	"github.com/acecasino/settlement_api/internal/notification"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Container holds all application dependencies
type Container struct {
	Config *config.Config
	DB     *gorm.DB
	Logger *zap.Logger

	// Repositories, nil when the database is disabled
	SettlementHistoryRepo domainRepos.SettlementHistoryRepository
	ErrorLogsRepo         domainRepos.ErrorLogsRepository

	Notifier services.Notifier

	// Blockchain
	EthClient  *ethclient.Client
	Transactor *ethereum.Transactor
	Executor   *ethereum.ContractExecutor
	Registry   *ethereum.WithdrawalRegistry

	WithdrawalCache *services.WithdrawalCacheService

	// Settlement services
	SettlementSvc      *services.SettlementService
	Reconciler         *services.SettlementReconciler
	ReconcileScheduler *services.ReconcileScheduler
}

// NewContainer creates a new container with all dependencies
func NewContainer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Container, error) {
	c := &Container{
		Config: cfg,
		Logger: logger,
	}

	if cfg.Database.Enabled {
		if err := c.initDatabase(); err != nil {
			return nil, err
		}
	}

	if cfg.Notification.Telegram.BotToken != "" {
		notifier, err := notification.NewTelegramNotifier(cfg.Notification.Telegram.BotToken, cfg.Notification.Telegram.ChatID, logger)
		if err != nil {
			c.Close()
			return nil, errors.Wrap(err, "failed to create telegram notifier")
		}
		c.Notifier = notifier
	} else {
		logger.Warn("telegram bot token not configured, operator alerts are disabled")
	}

	if err := c.initBlockchain(ctx); err != nil {
		c.Close()
		return nil, err
	}

	if err := c.initSettlement(); err != nil {
		c.Close()
		return nil, err
	}

	return c, nil
}

func (c *Container) initDatabase() error {
	db, err := config.NewDatabase(c.Config.Database)
	if err != nil {
		return errors.Wrap(err, "failed to connect to database")
	}
	if err := database.Migrate(db); err != nil {
		return errors.Wrap(err, "failed to migrate database")
	}

	c.DB = db
	c.SettlementHistoryRepo = repositories.NewSettlementHistoryRepository(db)
	c.ErrorLogsRepo = repositories.NewErrorLogsRepository(db)
	return nil
}

func (c *Container) initBlockchain(ctx context.Context) error {
	eth := c.Config.Blockchain.Ethereum

	client, chainID, err := ethereum.Dial(ctx, eth.RpcURL, eth.ChainID)
	if err != nil {
		return err
	}
	c.EthClient = client

	adminKey, err := c.loadAdminKey(ctx)
	if err != nil {
		return err
	}

	executorCfg, err := ExecutorConfigFrom(eth)
	if err != nil {
		return err
	}

	c.Transactor = ethereum.NewTransactor(client, chainID, c.Notifier, ethereum.TransactorConfig{
		PollInterval: eth.PollInterval,
		TxTimeout:    eth.TxTimeout,
		StuckAfter:   eth.StuckAfter,
	})
	c.Executor = ethereum.NewContractExecutor(c.Transactor, client, adminKey, executorCfg)
	c.Registry = ethereum.NewWithdrawalRegistry(client, c.Transactor, adminKey, executorCfg.CollectContract)

	c.Logger.Info("connected to ethereum",
		zap.String("chain_id", chainID.String()),
		zap.String("admin", c.Executor.AdminAddress().Hex()),
		zap.Int("sender_keys", len(executorCfg.SenderKeys)),
	)

	if eth.BootstrapRegistry {
		if err := c.Registry.Bootstrap(ctx); err != nil {
			return errors.Wrap(err, "failed to bootstrap withdrawal contracts")
		}
	}
	return nil
}

// loadAdminKey prefers the configured hex key and falls back to the
// KMS-encrypted key kept in Secrets Manager
func (c *Container) loadAdminKey(ctx context.Context) (*ecdsa.PrivateKey, error) {
	if c.Config.Blockchain.Ethereum.PrivateKey != "" {
		key, err := ParsePrivateKey(c.Config.Blockchain.Ethereum.PrivateKey)
		if err != nil {
			return nil, errors.Wrap(err, "invalid admin private key")
		}
		return key, nil
	}

	signer, err := cloud.NewSignerKeyService(ctx, c.Config.AWS.Region, c.Logger)
	if err != nil {
		return nil, err
	}
	return signer.LoadSignerKey(ctx, c.Config.AWS.SecretID, c.Config.AWS.KeyAlias)
}

func (c *Container) initSettlement() error {
	generator, err := NewAddressGenerator(c.Config.Recipients)
	if err != nil {
		return err
	}
	if c.Config.Recipients.Generator == config.GeneratorSeeded {
		c.Logger.Warn("seeded recipient generator in use, disperse destinations are predictable")
	}

	collectSenders, err := ParseAddresses(c.Config.Blockchain.Ethereum.CollectSenders)
	if err != nil {
		return errors.Wrap(err, "invalid collect sender")
	}
	if len(collectSenders) == 0 {
		collectSenders = c.Executor.SenderAddresses()
	}

	c.WithdrawalCache = services.NewWithdrawalCacheService(c.Registry, c.Logger)
	strategies := NewRouteStrategies(c.Config.Limits, c.WithdrawalCache, collectSenders, generator)
	c.SettlementSvc = services.NewSettlementService(c.Executor, strategies, c.SettlementHistoryRepo, c.ErrorLogsRepo, c.Notifier)

	if c.SettlementHistoryRepo != nil {
		c.Reconciler = services.NewSettlementReconciler(
			c.SettlementHistoryRepo,
			c.Executor,
			c.Notifier,
			c.Logger,
			c.Config.Reconciler.BatchSize,
			c.Config.Reconciler.StaleAfter,
		)
		c.ReconcileScheduler = services.NewReconcileScheduler(c.Reconciler, c.Logger, c.Config.Reconciler.Schedule)
	}
	return nil
}

// Close releases the RPC connection and the database pool
func (c *Container) Close() {
	if c.EthClient != nil {
		c.EthClient.Close()
	}
	if c.DB != nil {
		if sqlDB, err := c.DB.DB(); err == nil {
			sqlDB.Close()
		}
	}
}
