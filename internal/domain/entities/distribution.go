package entities

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// DistributionRequest is a parsed collect/disperse request body.
// TotalAmount is nil when the caller did not send one; whether that is
// acceptable depends on Kind and is decided when the request is resolved.
type DistributionRequest struct {
	Values      []*uint256.Int
	TotalAmount *uint256.Int
	Kind        ValueKind
}

// ResolvedAmounts holds the concrete per-recipient amounts, index-aligned
// with DistributionRequest.Values
type ResolvedAmounts []*uint256.Int

// RecipientList holds the addresses paired with ResolvedAmounts by index
type RecipientList []common.Address
