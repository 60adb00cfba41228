package ethereum

import (
	"context"
	"crypto/ecdsa"

	"github.com/acecasino/settlement_api/internal/domain/entities"
	"github.com/acecasino/settlement_api/pkg/logger"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

// WithdrawalRegistry reads the withdrawal contracts owned by the Collect
// contract. They are the counterparties of an ETH collect.
type WithdrawalRegistry struct {
	client     ChainClient
	transactor *Transactor
	adminKey   *ecdsa.PrivateKey
	collect    common.Address
}

// NewWithdrawalRegistry creates a registry for the Collect contract at collect
func NewWithdrawalRegistry(client ChainClient, transactor *Transactor, adminKey *ecdsa.PrivateKey, collect common.Address) *WithdrawalRegistry {
	return &WithdrawalRegistry{
		client:     client,
		transactor: transactor,
		adminKey:   adminKey,
		collect:    collect,
	}
}

// WithdrawalContracts returns every registered withdrawal contract in contract order
func (r *WithdrawalRegistry) WithdrawalContracts(ctx context.Context) ([]common.Address, error) {
	if r.collect == (common.Address{}) {
		return nil, errors.Wrap(ErrContractNotConfigured, "collect")
	}

	data, err := abiData(collectABI, Collect_GetWithdrawals)
	if err != nil {
		return nil, err
	}

	out, err := r.client.CallContract(ctx, ethereum.CallMsg{To: &r.collect, Data: data}, nil)
	if err != nil {
		return nil, errors.Wrap(err, "getWithdrawalContracts call")
	}

	values, err := unpackOutput(collectABI, Collect_GetWithdrawals, out)
	if err != nil {
		return nil, err
	}
	addresses, ok := values[0].([]common.Address)
	if !ok {
		return nil, errors.New("failed to convert withdrawal contracts to []common.Address")
	}
	return addresses, nil
}

// ResolveRecipients returns the first count withdrawal contracts
func (r *WithdrawalRegistry) ResolveRecipients(ctx context.Context, count int) (entities.RecipientList, error) {
	addresses, err := r.WithdrawalContracts(ctx)
	if err != nil {
		return nil, err
	}
	if len(addresses) < count {
		return nil, errors.Wrapf(entities.ErrInsufficientRecipients, "need %d, collect contract has %d withdrawal contracts", count, len(addresses))
	}
	return entities.RecipientList(addresses[:count]), nil
}

// Bootstrap asks the Collect contract to create its withdrawal contracts when
// none exist yet
func (r *WithdrawalRegistry) Bootstrap(ctx context.Context) error {
	log := logger.GetLogger().WithField("collect", r.collect.Hex())

	existing, err := r.WithdrawalContracts(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		log.WithField("count", len(existing)).Info("Withdrawal contracts already created")
		return nil
	}

	data, err := abiData(collectABI, Collect_CreateWithdrawals)
	if err != nil {
		return err
	}
	txHash, _, err := r.transactor.Transact(ctx, r.adminKey, r.collect, nil, data)
	if err != nil {
		return errors.Wrap(err, "createWithrawalContracts")
	}

	log.WithField("tx_hash", txHash.Hex()).Info("Withdrawal contracts created")
	return nil
}
