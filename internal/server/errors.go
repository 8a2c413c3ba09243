package server

import (
	"net/http"

	"github.com/ternarybob/hubscout/internal/apperrors"
)

// errorEnvelope is the {status:"error", error:{code,message}} shape of
// spec §6.
type errorEnvelope struct {
	Status string      `json:"status"`
	Error  errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// classify maps an error returned by the facade to an HTTP status code and
// a stable error code, per spec §7's propagation policy.
func classify(err error) (int, string) {
	switch err.(type) {
	case *apperrors.InvalidInputError:
		return http.StatusBadRequest, string(apperrors.CodeInvalidInput)
	case *apperrors.UnknownOperationError:
		return http.StatusBadRequest, string(apperrors.CodeUnknownOperation)
	case *apperrors.SequenceConfigError:
		return http.StatusBadRequest, string(apperrors.CodeSequenceConfig)
	case *apperrors.JobNotFoundError:
		return http.StatusNotFound, string(apperrors.CodeJobNotFound)
	case *apperrors.JobConflictError:
		return http.StatusConflict, string(apperrors.CodeJobConflict)
	case *apperrors.OrchestrationError:
		return http.StatusInternalServerError, string(apperrors.CodeProcessingError)
	default:
		return http.StatusInternalServerError, string(apperrors.CodeProcessingError)
	}
}

func newErrorEnvelope(err error) (int, errorEnvelope) {
	status, code := classify(err)
	return status, errorEnvelope{Status: "error", Error: errorDetail{Code: code, Message: err.Error()}}
}
