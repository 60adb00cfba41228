package entities

import "github.com/pkg/errors"

// Request and batch errors. All of them are detected before the ledger is touched.
var (
	ErrTooManyValues          = errors.New("too many values")
	ErrMissingTotal           = errors.New("total amount not provided")
	ErrPercentageSumInvalid   = errors.New("sum of percentages must be 100")
	ErrArithmeticOverflow     = errors.New("arithmetic overflow")
	ErrUnknownValueKind       = errors.New("unknown values_type")
	ErrLengthMismatch         = errors.New("amount and recipient counts differ")
	ErrInsufficientRecipients = errors.New("insufficient recipients")
	ErrGenerationFailed       = errors.New("recipient generation failed")
	ErrUnsupportedRoute       = errors.New("unsupported route")
)
