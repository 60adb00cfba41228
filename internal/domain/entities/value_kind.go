package entities

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// ValueKind tells how the values of a distribution request are interpreted
type ValueKind string

const (
	// ValueKindAmount means values are final integer amounts
	ValueKindAmount ValueKind = "Amount"
	// ValueKindPercentage means values are integer shares of the request total
	ValueKindPercentage ValueKind = "Percentage"
)

func (k ValueKind) String() string {
	return string(k)
}

// Valid reports whether k is one of the two known tags
func (k ValueKind) Valid() bool {
	return k == ValueKindAmount || k == ValueKindPercentage
}

// UnmarshalJSON accepts only the exact "Amount" and "Percentage" tags
func (k *ValueKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errors.Wrap(err, "values_type must be a string")
	}
	kind := ValueKind(s)
	if !kind.Valid() {
		return errors.Wrapf(ErrUnknownValueKind, "%q, expected %q or %q", s, ValueKindAmount, ValueKindPercentage)
	}
	*k = kind
	return nil
}
