package entities

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// TransferEntry is one recipient/amount pairing of a batch
type TransferEntry struct {
	Recipient common.Address
	Amount    *uint256.Int
}

// TransferBatch is the ordered input of a single settlement call.
// AggregateTotal is the saturating sum of all entry amounts.
type TransferBatch struct {
	Entries        []TransferEntry
	AggregateTotal *uint256.Int
}

// Len returns the number of entries
func (b *TransferBatch) Len() int {
	return len(b.Entries)
}

// Recipients returns the entry addresses in batch order
func (b *TransferBatch) Recipients() []common.Address {
	out := make([]common.Address, len(b.Entries))
	for i, e := range b.Entries {
		out[i] = e.Recipient
	}
	return out
}

// BigAmounts returns the entry amounts as big.Int values for ABI packing
func (b *TransferBatch) BigAmounts() []*big.Int {
	out := make([]*big.Int, len(b.Entries))
	for i, e := range b.Entries {
		out[i] = e.Amount.ToBig()
	}
	return out
}
