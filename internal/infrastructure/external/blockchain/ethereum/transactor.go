package ethereum

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/acecasino/settlement_api/pkg/logger"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

var (
	ErrReceiptTimeout = errors.New("timed out waiting for transaction receipt")
	ErrTxReverted     = errors.New("transaction reverted")
)

// Notifier delivers operator alerts
type Notifier interface {
	Notify(msg string) error
}

// TransactorConfig controls inclusion waiting
type TransactorConfig struct {
	PollInterval time.Duration
	TxTimeout    time.Duration
	// StuckAfter is how long a transaction may stay unmined before an alert is sent
	StuckAfter time.Duration
}

// Transactor signs, broadcasts and waits for legacy transactions
type Transactor struct {
	client   ChainClient
	chainID  *big.Int
	signer   types.Signer
	notifier Notifier
	cfg      TransactorConfig

	// serializes nonce lookup and broadcast so concurrent settlements from
	// the same key do not reuse a nonce
	nonceMu sync.Mutex
}

// NewTransactor creates a transactor. notifier may be nil.
func NewTransactor(client ChainClient, chainID *big.Int, notifier Notifier, cfg TransactorConfig) *Transactor {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.TxTimeout <= 0 {
		cfg.TxTimeout = 2 * time.Minute
	}
	if cfg.StuckAfter <= 0 {
		cfg.StuckAfter = 30 * time.Second
	}
	return &Transactor{
		client:   client,
		chainID:  new(big.Int).Set(chainID),
		signer:   types.LatestSignerForChainID(chainID),
		notifier: notifier,
		cfg:      cfg,
	}
}

// Transact sends a transaction and waits for it to be mined. The returned
// hash is set whenever the transaction was broadcast, even on error.
func (t *Transactor) Transact(ctx context.Context, pk *ecdsa.PrivateKey, to common.Address, value *big.Int, data []byte) (common.Hash, *types.Receipt, error) {
	txHash, err := t.Send(ctx, pk, to, value, data)
	if err != nil {
		return txHash, nil, err
	}

	receipt, err := t.WaitMined(ctx, txHash)
	if err != nil {
		return txHash, nil, err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return txHash, receipt, errors.Wrapf(ErrTxReverted, "tx %s in block %s", txHash.Hex(), receipt.BlockNumber)
	}
	return txHash, receipt, nil
}

// Send signs and broadcasts a transaction from pk to to
func (t *Transactor) Send(ctx context.Context, pk *ecdsa.PrivateKey, to common.Address, value *big.Int, data []byte) (common.Hash, error) {
	if value == nil {
		value = big.NewInt(0)
	}
	from := crypto.PubkeyToAddress(pk.PublicKey)
	log := logger.GetLogger().WithFields(map[string]interface{}{
		"from":    from.Hex(),
		"to":      to.Hex(),
		"value":   value.String(),
		"chainID": t.chainID.String(),
	})

	gasPrice, err := t.client.SuggestGasPrice(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to suggest gas price")
		return common.Hash{}, errors.Wrap(err, "suggest gas price")
	}

	gasLimit, err := t.client.EstimateGas(ctx, ethereum.CallMsg{
		From:  from,
		To:    &to,
		Value: value,
		Data:  data,
	})
	if err != nil {
		log.WithError(err).Error("Failed to estimate gas")
		return common.Hash{}, errors.Wrap(err, "estimate gas")
	}

	t.nonceMu.Lock()
	defer t.nonceMu.Unlock()

	nonce, err := t.client.PendingNonceAt(ctx, from)
	if err != nil {
		log.WithError(err).Error("Failed to get nonce")
		return common.Hash{}, errors.Wrap(err, "pending nonce")
	}

	tx := types.NewTransaction(nonce, to, value, gasLimit, gasPrice, data)
	signedTx, err := types.SignTx(tx, t.signer, pk)
	if err != nil {
		log.WithError(err).Error("Failed to sign transaction")
		return common.Hash{}, errors.Wrap(err, "sign transaction")
	}

	log = log.WithFields(map[string]interface{}{
		"nonce":     nonce,
		"gasLimit":  gasLimit,
		"gasPrice":  gasPrice.String(),
		"value_eth": decimal.NewFromBigInt(value, -18).String(),
		"tx_hash":   signedTx.Hash().Hex(),
	})

	if err := t.client.SendTransaction(ctx, signedTx); err != nil {
		log.WithError(err).Error("Failed to send transaction")
		return common.Hash{}, err
	}

	log.Info("Transaction sent")
	return signedTx.Hash(), nil
}

// WaitMined polls for the receipt of txHash until it is mined, ctx is done or
// the configured timeout passes
func (t *Transactor) WaitMined(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	log := logger.GetLogger().WithField("tx_hash", txHash.Hex())

	ctx, cancel := context.WithTimeout(ctx, t.cfg.TxTimeout)
	defer cancel()

	ticker := time.NewTicker(t.cfg.PollInterval)
	defer ticker.Stop()

	start := time.Now()
	alerted := false
	for {
		receipt, err := t.client.TransactionReceipt(ctx, txHash)
		if err == nil && receipt != nil {
			log.WithField("block_number", receipt.BlockNumber).Info("Transaction mined")
			return receipt, nil
		}
		if err != nil && !errors.Is(err, ethereum.NotFound) {
			log.WithError(err).Warn("Receipt lookup failed, retrying")
		}

		if !alerted && time.Since(start) > t.cfg.StuckAfter {
			alerted = true
			log.Warn("Transaction pending longer than expected")
			t.alert(fmt.Sprintf("tx is pending more than %s: %s", t.cfg.StuckAfter, txHash.Hex()))
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, errors.Wrapf(ErrReceiptTimeout, "tx %s", txHash.Hex())
			}
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (t *Transactor) alert(msg string) {
	if t.notifier == nil {
		return
	}
	if err := t.notifier.Notify(msg); err != nil {
		logger.GetLogger().WithError(err).Error("Failed to send telegram alert")
	}
}
