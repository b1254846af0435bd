package helpers

import (
	"encoding/json"
	"net/http"

	"corporateevents/internal/validation"
)

// MaxBodyBytes caps request bodies read by DecodeAndValidate.
const MaxBodyBytes = 1 << 20

// DecodeAndValidate decodes the JSON request body into dest (with DisallowUnknownFields)
// and checks its `validate` struct tags. A decode failure writes a 400, failed
// tags write a 422 with per-field messages. Callers should return immediately
// when DecodeAndValidate returns false.
func DecodeAndValidate(w http.ResponseWriter, r *http.Request, dest any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		WriteJSONError(w, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	fields, err := validation.FieldErrors(r.Context(), dest)
	if err != nil {
		WriteJSONError(w, http.StatusInternalServerError, ErrCodeInternalError, "internal error")
		return false
	}
	if len(fields) > 0 {
		WriteValidationError(w, "Verifique os campos destacados.", fields)
		return false
	}
	return true
}
