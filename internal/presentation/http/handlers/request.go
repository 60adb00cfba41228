package handlers

import (
	"encoding/json"
	"io"
	"math/big"

	"github.com/acecasino/settlement_api/internal/domain/entities"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

// SettlementRequest is the JSON body of the collect and disperse routes.
// Amounts may be sent as JSON numbers or as decimal strings.
type SettlementRequest struct {
	Values      []Amount            `json:"values"`
	TotalAmount *Amount             `json:"total_amount"`
	ValuesType  *entities.ValueKind `json:"values_type"`
}

// Amount is a non-negative integer of at most 256 bits
type Amount struct {
	uint256.Int
}

// UnmarshalJSON accepts 123 and "123"; negative, fractional, exponent and
// overflowing values are rejected
func (a *Amount) UnmarshalJSON(data []byte) error {
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return errors.Wrap(err, "amount must be an integer")
	}

	b, ok := new(big.Int).SetString(n.String(), 10)
	if !ok {
		return errors.Errorf("amount %s is not an integer", n)
	}
	if b.Sign() < 0 {
		return errors.Errorf("amount %s is negative", n)
	}
	if overflow := a.Int.SetFromBig(b); overflow {
		return errors.Errorf("amount %s does not fit in 256 bits", n)
	}
	return nil
}

// DistributionRequest converts the body into the domain request
func (r *SettlementRequest) DistributionRequest() entities.DistributionRequest {
	req := entities.DistributionRequest{
		Values: make([]*uint256.Int, len(r.Values)),
		Kind:   *r.ValuesType,
	}
	for i := range r.Values {
		req.Values[i] = new(uint256.Int).Set(&r.Values[i].Int)
	}
	if r.TotalAmount != nil {
		req.TotalAmount = new(uint256.Int).Set(&r.TotalAmount.Int)
	}
	return req
}

// decodeSettlementRequest reads and checks a settlement body. values and
// values_type are required; an empty values array is valid.
func decodeSettlementRequest(body io.Reader) (*SettlementRequest, error) {
	var req SettlementRequest
	dec := json.NewDecoder(body)
	if err := dec.Decode(&req); err != nil {
		return nil, err
	}
	var trailing json.RawMessage
	if err := dec.Decode(&trailing); err != io.EOF {
		return nil, errors.New("trailing data after JSON body")
	}
	if req.Values == nil {
		return nil, errors.New("values is required")
	}
	if req.ValuesType == nil {
		return nil, errors.New("values_type is required")
	}
	return &req, nil
}
