package services

import (
	"github.com/acecasino/settlement_api/internal/domain/entities"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

// BuildBatch pairs amounts and recipients by index. Zero amounts are kept so
// positions stay aligned with the recipient list.
func BuildBatch(amounts entities.ResolvedAmounts, recipients entities.RecipientList) (*entities.TransferBatch, error) {
	if len(amounts) != len(recipients) {
		return nil, errors.Wrapf(entities.ErrLengthMismatch, "%d amounts, %d recipients", len(amounts), len(recipients))
	}

	entries := make([]entities.TransferEntry, len(amounts))
	for i := range amounts {
		entries[i] = entities.TransferEntry{
			Recipient: recipients[i],
			Amount:    amounts[i],
		}
	}

	return &entities.TransferBatch{
		Entries:        entries,
		AggregateTotal: SaturatingSum(amounts),
	}, nil
}

// SaturatingSum adds amounts, clamping at 2^256-1 instead of wrapping
func SaturatingSum(amounts []*uint256.Int) *uint256.Int {
	sum := new(uint256.Int)
	for _, a := range amounts {
		if _, overflow := sum.AddOverflow(sum, a); overflow {
			return new(uint256.Int).SetAllOne()
		}
	}
	return sum
}
