package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/guardian/internal/common"
	"github.com/dmitrijs2005/guardian/internal/server/metrics"
)

// Error is the body of every non-2xx response.
type Error struct {
	Detail string `json:"detail"`
}

const (
	detailBadCredentials  = "Incorrect email or password"
	detailUnauthenticated = "Could not validate credentials"
	detailForbidden       = "The user doesn't have enough privileges"
	detailInternal        = "internal error"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // best-effort write; the client may be gone
		json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, Error{Detail: detail})
}

// writeChallenge answers 401 and names the expected scheme.
func writeChallenge(w http.ResponseWriter, detail string) {
	w.Header().Set("WWW-Authenticate", common.AuthChallengeScheme)
	writeError(w, http.StatusUnauthorized, detail)
}

// writeServiceError maps a service error onto the HTTP taxonomy. conflict is
// the detail used for common.ErrorAlreadyExists, which differs per resource.
func writeServiceError(w http.ResponseWriter, err error, conflict string) {
	switch {
	case errors.Is(err, common.ErrorAlreadyExists):
		writeError(w, http.StatusBadRequest, conflict)
	case errors.Is(err, common.ErrorBadCredentials):
		writeChallenge(w, detailBadCredentials)
	// NotFound never reaches a caller as such.
	case errors.Is(err, common.ErrorUnauthenticated), errors.Is(err, common.ErrorNotFound):
		writeChallenge(w, detailUnauthenticated)
	case errors.Is(err, common.ErrorForbidden):
		writeError(w, http.StatusForbidden, detailForbidden)
	case errors.Is(err, common.ErrorValidation):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, detailInternal)
	}
}

// outcome classifies err for the auth outcome counter.
func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, common.ErrorAlreadyExists):
		return metrics.OutcomeConflict
	case errors.Is(err, common.ErrorBadCredentials):
		return metrics.OutcomeBadCredentials
	case errors.Is(err, common.ErrorUnauthenticated), errors.Is(err, common.ErrorNotFound):
		return metrics.OutcomeUnauthenticated
	case errors.Is(err, common.ErrorForbidden):
		return metrics.OutcomeForbidden
	case errors.Is(err, common.ErrorValidation):
		return metrics.OutcomeInvalid
	default:
		return metrics.OutcomeError
	}
}
