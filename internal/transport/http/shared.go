// Package httptransport is the thin HTTP layer over the inventory and request
// services. Handlers decode, delegate, and encode; every business rule lives
// in the services.
package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "lifeledger/pkg/domain-errors"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// writeError translates taxonomy codes into HTTP statuses so every endpoint
// speaks the same error envelope.
func writeError(w http.ResponseWriter, err error) {
	code := dErrors.CodeInternal
	message := "internal error"

	var dErr *dErrors.Error
	if errors.As(err, &dErr) {
		code = dErr.Code
		message = dErr.Message
	}
	writeJSON(w, statusFor(code), errorBody{Error: string(code), Message: message})
}

func statusFor(code dErrors.Code) int {
	switch code {
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeUnauthorizedHospital, dErrors.CodeNotAuthorizedBank:
		return http.StatusForbidden
	case dErrors.CodeNotFound, dErrors.CodeUnitNotFound, dErrors.CodeRequestNotFound:
		return http.StatusNotFound
	case dErrors.CodeAlreadyInitialized, dErrors.CodeNotInitialized,
		dErrors.CodeDuplicateRequest, dErrors.CodeAlreadyAllocated:
		return http.StatusConflict
	case dErrors.CodeInvalidQuantity, dErrors.CodeInvalidExpiration,
		dErrors.CodeInvalidRequiredBy, dErrors.CodeInvalidDeliveryAddress,
		dErrors.CodeInvalidStatus, dErrors.CodeBatchSizeExceeded, dErrors.CodeBadRequest:
		return http.StatusBadRequest
	case dErrors.CodeInvalidStatusTransition, dErrors.CodeUnitExpired, dErrors.CodeRequestExpired:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return dErrors.New(dErrors.CodeBadRequest, "invalid request body")
	}
	return nil
}
