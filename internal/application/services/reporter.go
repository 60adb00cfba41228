package services

import (
	"net/http"

	"github.com/acecasino/settlement_api/internal/domain/entities"
	"github.com/pkg/errors"
)

// Response bodies returned by the settlement routes
const (
	MsgSuccessPrefix     = "Transaction successful: "
	MsgFailurePrefix     = "Transaction failed: "
	MsgNoValues          = "No values provided"
	MsgTooManyValues     = "Too many values"
	MsgMissingTotal      = "Total amount not provided"
	MsgPercentageSum     = "Sum of percentages must be 100"
	MsgOverflow          = "Arithmetic overflow"
	MsgUnknownValueKind  = "Unknown values_type"
	MsgRecipientMismatch = "Recipient count mismatch: "
	MsgRecipientFailure  = "Recipient resolution failed: "
	MsgInternalError     = "Internal server error"
)

// Report maps the result of Settle to a status code and a plain-text body.
// A nil outcome with a nil error is the "nothing to settle" case. Executor
// failures are reported with the raw reason, not a sanitized one.
func Report(outcome *entities.SettlementOutcome, err error) (int, string) {
	if err != nil {
		return reportError(err)
	}
	if outcome == nil {
		return http.StatusOK, MsgNoValues
	}
	if !outcome.Succeeded() {
		return http.StatusBadRequest, MsgFailurePrefix + outcome.Err.Error()
	}
	return http.StatusOK, MsgSuccessPrefix + outcome.TxHash.Hex()
}

func reportError(err error) (int, string) {
	switch {
	case errors.Is(err, entities.ErrTooManyValues):
		return http.StatusBadRequest, MsgTooManyValues
	case errors.Is(err, entities.ErrMissingTotal):
		return http.StatusBadRequest, MsgMissingTotal
	case errors.Is(err, entities.ErrPercentageSumInvalid):
		return http.StatusBadRequest, MsgPercentageSum
	case errors.Is(err, entities.ErrArithmeticOverflow):
		return http.StatusBadRequest, MsgOverflow
	case errors.Is(err, entities.ErrUnknownValueKind):
		return http.StatusBadRequest, MsgUnknownValueKind
	case errors.Is(err, entities.ErrLengthMismatch), errors.Is(err, entities.ErrInsufficientRecipients):
		return http.StatusBadRequest, MsgRecipientMismatch + err.Error()
	case errors.Is(err, entities.ErrGenerationFailed):
		return http.StatusBadRequest, MsgRecipientFailure + err.Error()
	default:
		return http.StatusInternalServerError, MsgInternalError
	}
}
