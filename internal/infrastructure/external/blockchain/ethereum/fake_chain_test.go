package ethereum

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

var testChainID = big.NewInt(31337)

// fakeChain is an in-memory node: every broadcast transaction is mined at
// once unless noMine is set, and approve calls update the allowance table
type fakeChain struct {
	mu          sync.Mutex
	signer      types.Signer
	nonces      map[common.Address]uint64
	sent        []*types.Transaction
	receipts    map[common.Hash]*types.Receipt
	allowances  map[[2]common.Address]*big.Int
	withdrawals []common.Address
	block       int64
	noMine      bool
	revert      bool
	sendErr     error
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		signer:     types.LatestSignerForChainID(testChainID),
		nonces:     make(map[common.Address]uint64),
		receipts:   make(map[common.Hash]*types.Receipt),
		allowances: make(map[[2]common.Address]*big.Int),
		block:      100,
	}
}

func (f *fakeChain) ChainID(context.Context) (*big.Int, error) {
	return new(big.Int).Set(testChainID), nil
}

func (f *fakeChain) PendingNonceAt(_ context.Context, account common.Address) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.nonces[account], nil
}

func (f *fakeChain) SuggestGasPrice(context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000_000), nil
}

func (f *fakeChain) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	return 100_000, nil
}

func (f *fakeChain) SendTransaction(_ context.Context, tx *types.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}

	from, err := types.Sender(f.signer, tx)
	if err != nil {
		return err
	}
	if tx.Nonce() != f.nonces[from] {
		return errors.New("nonce too low")
	}
	f.nonces[from]++
	f.sent = append(f.sent, tx)

	if f.noMine {
		return nil
	}

	status := types.ReceiptStatusSuccessful
	if f.revert {
		status = types.ReceiptStatusFailed
	}
	f.block++
	f.receipts[tx.Hash()] = &types.Receipt{
		Status:      status,
		TxHash:      tx.Hash(),
		BlockNumber: big.NewInt(f.block),
		GasUsed:     21_000,
	}

	if status == types.ReceiptStatusSuccessful && hasMethod(tx.Data(), erc20ABI, ERC20_Approve) {
		args, err := erc20ABI.Methods[ERC20_Approve.String()].Inputs.Unpack(tx.Data()[4:])
		if err != nil {
			return err
		}
		f.allowances[[2]common.Address{from, args[0].(common.Address)}] = args[1].(*big.Int)
	}
	return nil
}

func (f *fakeChain) TransactionReceipt(_ context.Context, txHash common.Hash) (*types.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	receipt, ok := f.receipts[txHash]
	if !ok {
		return nil, ethereum.NotFound
	}
	return receipt, nil
}

func (f *fakeChain) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case hasMethod(msg.Data, erc20ABI, ERC20_Allowance):
		args, err := erc20ABI.Methods[ERC20_Allowance.String()].Inputs.Unpack(msg.Data[4:])
		if err != nil {
			return nil, err
		}
		allowance, ok := f.allowances[[2]common.Address{args[0].(common.Address), args[1].(common.Address)}]
		if !ok {
			allowance = big.NewInt(0)
		}
		return erc20ABI.Methods[ERC20_Allowance.String()].Outputs.Pack(allowance)
	case hasMethod(msg.Data, collectABI, Collect_GetWithdrawals):
		return collectABI.Methods[Collect_GetWithdrawals.String()].Outputs.Pack(f.withdrawals)
	default:
		return nil, errors.New("execution reverted")
	}
}

func (f *fakeChain) sentTxs() []*types.Transaction {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*types.Transaction(nil), f.sent...)
}

func hasMethod(data []byte, contract abi.ABI, method ContractMethod) bool {
	return len(data) >= 4 && bytes.Equal(data[:4], contract.Methods[method.String()].ID)
}

func decodeCall(t *testing.T, contract abi.ABI, method ContractMethod, data []byte) []interface{} {
	t.Helper()
	require.True(t, hasMethod(data, contract, method), "expected a %s call", method)
	args, err := contract.Methods[method.String()].Inputs.Unpack(data[4:])
	require.NoError(t, err)
	return args
}

func txSender(t *testing.T, tx *types.Transaction) common.Address {
	t.Helper()
	from, err := types.Sender(types.LatestSignerForChainID(testChainID), tx)
	require.NoError(t, err)
	return from
}

func newKey(t *testing.T) *ecdsa.PrivateKey {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return key
}

func newTestTransactor(chain ChainClient) *Transactor {
	return NewTransactor(chain, testChainID, nil, TransactorConfig{
		PollInterval: time.Millisecond,
		TxTimeout:    100 * time.Millisecond,
		StuckAfter:   time.Hour,
	})
}
