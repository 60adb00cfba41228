package services

import (
	"github.com/acecasino/settlement_api/internal/domain/entities"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

// ValidateValues checks the value count against the ceiling of the calling
// route. It returns false with a nil error when values is empty: there is
// nothing to settle, which is not a failure.
func ValidateValues(values []*uint256.Int, maxCount int) (bool, error) {
	if len(values) > maxCount {
		return false, errors.Wrapf(entities.ErrTooManyValues, "got %d, limit %d", len(values), maxCount)
	}
	return len(values) > 0, nil
}
