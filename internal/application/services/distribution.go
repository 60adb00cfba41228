package services

import (
	"github.com/acecasino/settlement_api/internal/domain/entities"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

var hundred = uint256.NewInt(100)

// ResolveAmounts turns a request into concrete per-recipient amounts.
//
// Amount values are returned as given. Percentage values must sum to exactly
// 100 and each share resolves to floor(total * share / 100). The split
// truncates: up to 99 units of the total may stay undistributed and are not
// handed to any recipient.
func ResolveAmounts(req entities.DistributionRequest) (entities.ResolvedAmounts, error) {
	switch req.Kind {
	case entities.ValueKindAmount:
		amounts := make(entities.ResolvedAmounts, len(req.Values))
		for i, v := range req.Values {
			amounts[i] = new(uint256.Int).Set(v)
		}
		return amounts, nil
	case entities.ValueKindPercentage:
		if req.TotalAmount == nil {
			return nil, entities.ErrMissingTotal
		}
		return splitByPercentage(req.Values, req.TotalAmount)
	default:
		return nil, errors.Wrapf(entities.ErrUnknownValueKind, "%q", req.Kind)
	}
}

func splitByPercentage(shares []*uint256.Int, total *uint256.Int) (entities.ResolvedAmounts, error) {
	sum := new(uint256.Int)
	for _, share := range shares {
		if _, overflow := sum.AddOverflow(sum, share); overflow {
			return nil, errors.Wrap(entities.ErrPercentageSumInvalid, "share sum exceeds 256 bits")
		}
	}
	if !sum.Eq(hundred) {
		return nil, errors.Wrapf(entities.ErrPercentageSumInvalid, "got %s", sum.Dec())
	}

	amounts := make(entities.ResolvedAmounts, len(shares))
	for i, share := range shares {
		// 512-bit intermediate, so only a quotient above 256 bits overflows
		amount, overflow := new(uint256.Int).MulDivOverflow(total, share, hundred)
		if overflow {
			return nil, errors.Wrapf(entities.ErrArithmeticOverflow, "total %s * share %s / 100", total.Dec(), share.Dec())
		}
		amounts[i] = amount
	}
	return amounts, nil
}
