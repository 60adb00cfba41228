package ethereum

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"
)

// ChainClient is the part of the JSON-RPC client the executor needs.
// *ethclient.Client satisfies it.
type ChainClient interface {
	ChainID(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Dial connects to rpcURL and checks the node serves chainID. A zero chainID
// accepts whatever the node reports.
func Dial(ctx context.Context, rpcURL string, chainID int64) (*ethclient.Client, *big.Int, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to connect to the Ethereum client")
	}

	remote, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, nil, errors.Wrap(err, "failed to fetch chain id")
	}
	if chainID != 0 && remote.Cmp(big.NewInt(chainID)) != 0 {
		client.Close()
		return nil, nil, errors.Errorf("chain id mismatch: configured %d, node reports %s", chainID, remote)
	}
	return client, remote, nil
}
