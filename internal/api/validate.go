package api

import (
	"encoding/json"
	"net/http"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// nationalIDRe matches the 18-character CURP-style national identity code.
var nationalIDRe = regexp.MustCompile(`^[A-Z]{4}[0-9]{6}[HM][A-Z]{5}[A-Z0-9]{2}$`)

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("national_id", func(fl validator.FieldLevel) bool {
		return nationalIDRe.MatchString(fl.Field().String())
	})
	return v
}

// decodeAndValidate parses the JSON body into v and runs struct validation.
// On failure it writes the error response and returns false.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return false
	}
	if err := validate.Struct(v); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", formatValidationError(err))
		return false
	}
	return true
}

func formatValidationError(err error) string {
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	var msgs []string
	for _, e := range errs {
		msgs = append(msgs, e.Field()+" failed rule "+e.Tag())
	}
	return strings.Join(msgs, ", ")
}
