package ethereum

import (
	"context"
	"crypto/ecdsa"
	"math/big"

	"github.com/acecasino/settlement_api/internal/domain/entities"
	"github.com/acecasino/settlement_api/pkg/logger"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var ErrContractNotConfigured = errors.New("contract address not configured")

// ExecutorConfig holds the addresses and keys the settlement contracts are driven with
type ExecutorConfig struct {
	CollectContract  common.Address
	DisperseContract common.Address
	TokenContract    common.Address
	// Receiver gets the tokens of an ERC20 collect
	Receiver common.Address
	// SenderKeys sign the approvals of the ERC20 collect senders
	SenderKeys []*ecdsa.PrivateKey
	// PrefundWithdrawals sends each entry amount to its withdrawal contract
	// before an ETH collect
	PrefundWithdrawals bool
	// ApprovalAmount is approved when an allowance is short. Nil approves
	// exactly what the batch needs.
	ApprovalAmount *big.Int
}

// ContractExecutor settles batches through the Collect and Disperse contracts.
// Every step of one settlement is awaited before the next one is sent.
type ContractExecutor struct {
	transactor *Transactor
	client     ChainClient
	adminKey   *ecdsa.PrivateKey
	adminAddr  common.Address
	senderKeys map[common.Address]*ecdsa.PrivateKey
	cfg        ExecutorConfig
}

// NewContractExecutor creates an executor signing with adminKey
func NewContractExecutor(transactor *Transactor, client ChainClient, adminKey *ecdsa.PrivateKey, cfg ExecutorConfig) *ContractExecutor {
	senderKeys := make(map[common.Address]*ecdsa.PrivateKey, len(cfg.SenderKeys))
	for _, key := range cfg.SenderKeys {
		senderKeys[crypto.PubkeyToAddress(key.PublicKey)] = key
	}

	return &ContractExecutor{
		transactor: transactor,
		client:     client,
		adminKey:   adminKey,
		adminAddr:  crypto.PubkeyToAddress(adminKey.PublicKey),
		senderKeys: senderKeys,
		cfg:        cfg,
	}
}

// AdminAddress returns the address settlements are sent from
func (e *ContractExecutor) AdminAddress() common.Address {
	return e.adminAddr
}

// SenderAddresses returns the addresses of the configured collect sender keys
// in configuration order
func (e *ContractExecutor) SenderAddresses() []common.Address {
	out := make([]common.Address, 0, len(e.cfg.SenderKeys))
	for _, key := range e.cfg.SenderKeys {
		out = append(out, crypto.PubkeyToAddress(key.PublicKey))
	}
	return out
}

// Execute runs batch on route and reports the outcome of the settlement transaction
func (e *ContractExecutor) Execute(ctx context.Context, route entities.Route, batch *entities.TransferBatch) entities.SettlementOutcome {
	log := logger.GetLogger().WithFields(logrus.Fields{
		"route":       route.String(),
		"entry_count": batch.Len(),
		"total":       batch.AggregateTotal.Dec(),
	})

	var (
		txHash  common.Hash
		receipt *types.Receipt
		err     error
	)
	switch route {
	case entities.RouteDisperseEth:
		txHash, receipt, err = e.disperseEth(ctx, batch)
	case entities.RouteDisperseERC20:
		txHash, receipt, err = e.disperseERC20(ctx, batch)
	case entities.RouteCollectEth:
		txHash, receipt, err = e.collectEth(ctx, batch)
	case entities.RouteCollectERC20:
		txHash, receipt, err = e.collectERC20(ctx, batch)
	default:
		err = errors.Wrap(entities.ErrUnsupportedRoute, route.String())
	}

	if err != nil {
		log.WithError(err).WithField("tx_hash", txHash.Hex()).Error("Settlement execution failed")
		if receipt != nil {
			return entities.Reverted(txHash, receipt.BlockNumber.Uint64(), err)
		}
		return entities.Failure(txHash, err)
	}

	log.WithFields(logrus.Fields{
		"tx_hash":      txHash.Hex(),
		"block_number": receipt.BlockNumber,
		"gas_used":     receipt.GasUsed,
	}).Info("Settlement execution succeeded")
	return entities.Success(txHash, receipt.BlockNumber.Uint64())
}

func (e *ContractExecutor) disperseEth(ctx context.Context, batch *entities.TransferBatch) (common.Hash, *types.Receipt, error) {
	if e.cfg.DisperseContract == (common.Address{}) {
		return common.Hash{}, nil, errors.Wrap(ErrContractNotConfigured, "disperse")
	}

	data, err := abiData(disperseABI, Disperse_Eth, transferDataOf(batch))
	if err != nil {
		return common.Hash{}, nil, err
	}
	return e.transactor.Transact(ctx, e.adminKey, e.cfg.DisperseContract, batch.AggregateTotal.ToBig(), data)
}

func (e *ContractExecutor) disperseERC20(ctx context.Context, batch *entities.TransferBatch) (common.Hash, *types.Receipt, error) {
	if e.cfg.DisperseContract == (common.Address{}) {
		return common.Hash{}, nil, errors.Wrap(ErrContractNotConfigured, "disperse")
	}
	if e.cfg.TokenContract == (common.Address{}) {
		return common.Hash{}, nil, errors.Wrap(ErrContractNotConfigured, "token")
	}

	if err := e.ensureAllowance(ctx, e.adminKey, e.cfg.DisperseContract, batch.AggregateTotal.ToBig()); err != nil {
		return common.Hash{}, nil, err
	}

	data, err := abiData(disperseABI, Disperse_ERC20, e.cfg.TokenContract, e.adminAddr, transferDataOf(batch))
	if err != nil {
		return common.Hash{}, nil, err
	}
	return e.transactor.Transact(ctx, e.adminKey, e.cfg.DisperseContract, nil, data)
}

func (e *ContractExecutor) collectEth(ctx context.Context, batch *entities.TransferBatch) (common.Hash, *types.Receipt, error) {
	if e.cfg.CollectContract == (common.Address{}) {
		return common.Hash{}, nil, errors.Wrap(ErrContractNotConfigured, "collect")
	}

	if e.cfg.PrefundWithdrawals {
		for _, entry := range batch.Entries {
			if entry.Amount.IsZero() {
				continue
			}
			if _, _, err := e.transactor.Transact(ctx, e.adminKey, entry.Recipient, entry.Amount.ToBig(), nil); err != nil {
				return common.Hash{}, nil, errors.Wrapf(err, "prefund withdrawal contract %s", entry.Recipient.Hex())
			}
		}
	}

	data, err := abiData(collectABI, Collect_Eth, batch.BigAmounts())
	if err != nil {
		return common.Hash{}, nil, err
	}
	return e.transactor.Transact(ctx, e.adminKey, e.cfg.CollectContract, nil, data)
}

func (e *ContractExecutor) collectERC20(ctx context.Context, batch *entities.TransferBatch) (common.Hash, *types.Receipt, error) {
	if e.cfg.CollectContract == (common.Address{}) {
		return common.Hash{}, nil, errors.Wrap(ErrContractNotConfigured, "collect")
	}
	if e.cfg.TokenContract == (common.Address{}) {
		return common.Hash{}, nil, errors.Wrap(ErrContractNotConfigured, "token")
	}
	if e.cfg.Receiver == (common.Address{}) {
		return common.Hash{}, nil, errors.Wrap(ErrContractNotConfigured, "receiver")
	}

	for _, entry := range batch.Entries {
		key, ok := e.senderKeys[entry.Recipient]
		if !ok {
			// allowance is expected to be granted out of band
			continue
		}
		if err := e.ensureAllowance(ctx, key, e.cfg.CollectContract, entry.Amount.ToBig()); err != nil {
			return common.Hash{}, nil, errors.Wrapf(err, "sender %s", entry.Recipient.Hex())
		}
	}

	data, err := abiData(collectABI, Collect_ERC20, e.cfg.TokenContract, e.cfg.Receiver, batch.Recipients(), batch.BigAmounts())
	if err != nil {
		return common.Hash{}, nil, err
	}
	return e.transactor.Transact(ctx, e.adminKey, e.cfg.CollectContract, nil, data)
}

// ensureAllowance approves spender for the owner's tokens when the current
// allowance is below need
func (e *ContractExecutor) ensureAllowance(ctx context.Context, owner *ecdsa.PrivateKey, spender common.Address, need *big.Int) error {
	ownerAddr := crypto.PubkeyToAddress(owner.PublicKey)

	allowance, err := e.Allowance(ctx, ownerAddr, spender)
	if err != nil {
		return err
	}
	if allowance.Cmp(need) >= 0 {
		return nil
	}

	amount := need
	if e.cfg.ApprovalAmount != nil && e.cfg.ApprovalAmount.Cmp(need) > 0 {
		amount = e.cfg.ApprovalAmount
	}

	logger.GetLogger().WithFields(logrus.Fields{
		"owner":     ownerAddr.Hex(),
		"spender":   spender.Hex(),
		"allowance": allowance.String(),
		"approve":   amount.String(),
	}).Info("Approving token allowance")

	data, err := abiData(erc20ABI, ERC20_Approve, spender, amount)
	if err != nil {
		return err
	}
	if _, _, err := e.transactor.Transact(ctx, owner, e.cfg.TokenContract, nil, data); err != nil {
		return errors.Wrap(err, "approve")
	}
	return nil
}

// Allowance returns the token allowance owner granted spender
func (e *ContractExecutor) Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error) {
	data, err := abiData(erc20ABI, ERC20_Allowance, owner, spender)
	if err != nil {
		return nil, err
	}

	out, err := e.client.CallContract(ctx, ethereum.CallMsg{To: &e.cfg.TokenContract, Data: data}, nil)
	if err != nil {
		return nil, errors.Wrap(err, "allowance call")
	}

	values, err := unpackOutput(erc20ABI, ERC20_Allowance, out)
	if err != nil {
		return nil, err
	}
	allowance, ok := values[0].(*big.Int)
	if !ok {
		return nil, errors.New("failed to convert allowance to big.Int")
	}
	return allowance, nil
}

// LookupReceipt returns the receipt of txHash, or nil when it is not mined yet
func (e *ContractExecutor) LookupReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	receipt, err := e.client.TransactionReceipt(ctx, txHash)
	if errors.Is(err, ethereum.NotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "transaction receipt")
	}
	return receipt, nil
}

func transferDataOf(batch *entities.TransferBatch) []transferData {
	out := make([]transferData, batch.Len())
	for i, entry := range batch.Entries {
		out[i] = transferData{
			Wallet: entry.Recipient,
			Amount: entry.Amount.ToBig(),
		}
	}
	return out
}
