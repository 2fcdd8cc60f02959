// internal/controller/respond.go
package controller

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	appErrors "github.com/leadforge/leadforge-backend/internal/errors"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps the error taxonomy onto HTTP statuses: malformed input and
// illegal transitions are the caller's fault, missing records are 404,
// everything else is a 500.
func writeError(w http.ResponseWriter, err error) {
	var (
		ve     *appErrors.ValidationError
		te     *appErrors.ErrIllegalTransition
		fields validator.ValidationErrors

		campNF *appErrors.ErrCampaignNotFound
		leadNF *appErrors.ErrLeadNotFound
		tmplNF *appErrors.ErrTemplateNotFound
		logNF  *appErrors.ErrEmailLogNotFound
	)

	switch {
	case errors.As(err, &ve), errors.As(err, &te):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.As(err, &fields):
		msgs := map[string]string{}
		for _, fe := range fields {
			msgs[fe.Field()] = "failed " + fe.Tag() + " validation"
		}
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "invalid input", "fields": msgs})
	case errors.As(err, &campNF), errors.As(err, &leadNF), errors.As(err, &tmplNF), errors.As(err, &logNF):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

func decodeAndValidate(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return appErrors.NewValidation("body", "invalid JSON")
	}
	return validate.Struct(v)
}
