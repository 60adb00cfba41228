package ethereum

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

// ContractMethod names a contract function used by the executor
type ContractMethod string

const (
	ERC20_Approve   ContractMethod = "approve"
	ERC20_Allowance ContractMethod = "allowance"

	Disperse_Eth   ContractMethod = "disperseEth"
	Disperse_ERC20 ContractMethod = "disperseErc20"

	Collect_Eth               ContractMethod = "collectEth"
	Collect_ERC20             ContractMethod = "collectErc20"
	Collect_CreateWithdrawals ContractMethod = "createWithrawalContracts"
	Collect_GetWithdrawals    ContractMethod = "getWithdrawalContracts"
)

func (m ContractMethod) String() string {
	return string(m)
}

const ERC20Abi = `[
	{"type":"function","name":"approve","stateMutability":"nonpayable","inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"allowance","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"outputs":[{"name":"","type":"uint256"}]}
]`

const DisperseAbi = `[
	{"type":"function","name":"disperseEth","stateMutability":"payable","inputs":[{"name":"data","type":"tuple[]","internalType":"struct Disperse.TransferData[]","components":[{"name":"wallet","type":"address"},{"name":"amount","type":"uint256"}]}],"outputs":[]},
	{"type":"function","name":"disperseErc20","stateMutability":"nonpayable","inputs":[{"name":"token","type":"address"},{"name":"sender","type":"address"},{"name":"data","type":"tuple[]","internalType":"struct Disperse.TransferData[]","components":[{"name":"wallet","type":"address"},{"name":"amount","type":"uint256"}]}],"outputs":[]}
]`

const CollectAbi = `[
	{"type":"function","name":"collectEth","stateMutability":"nonpayable","inputs":[{"name":"amounts","type":"uint256[]"}],"outputs":[]},
	{"type":"function","name":"collectErc20","stateMutability":"nonpayable","inputs":[{"name":"token","type":"address"},{"name":"receiver","type":"address"},{"name":"senders","type":"address[]"},{"name":"amounts","type":"uint256[]"}],"outputs":[]},
	{"type":"function","name":"createWithrawalContracts","stateMutability":"nonpayable","inputs":[],"outputs":[]},
	{"type":"function","name":"getWithdrawalContracts","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address[]"}]}
]`

var (
	erc20ABI    = mustParseABI(ERC20Abi)
	disperseABI = mustParseABI(DisperseAbi)
	collectABI  = mustParseABI(CollectAbi)
)

// transferData mirrors the Disperse.TransferData tuple
type transferData struct {
	Wallet common.Address
	Amount *big.Int
}

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(err)
	}
	return parsed
}

func abiData(contract abi.ABI, method ContractMethod, ins ...interface{}) ([]byte, error) {
	m, ok := contract.Methods[method.String()]
	if !ok {
		return nil, errors.Errorf("function %s not found in ABI", method)
	}

	data, err := m.Inputs.Pack(ins...)
	if err != nil {
		return nil, errors.Wrapf(err, "pack %s", method)
	}
	return append(append([]byte{}, m.ID...), data...), nil
}

func unpackOutput(contract abi.ABI, method ContractMethod, out []byte) ([]interface{}, error) {
	m, ok := contract.Methods[method.String()]
	if !ok {
		return nil, errors.Errorf("function %s not found in ABI", method)
	}

	values, err := m.Outputs.Unpack(out)
	if err != nil {
		return nil, errors.Wrapf(err, "unpack %s", method)
	}
	if len(values) == 0 {
		return nil, errors.Errorf("unpack %s: empty output", method)
	}
	return values, nil
}
