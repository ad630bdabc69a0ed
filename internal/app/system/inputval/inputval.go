// internal/app/system/inputval/inputval.go

// Package inputval decodes and validates JSON request bodies for the API
// feature handlers. Payload structs declare their rules with validator/v10
// `validate` tags; failures surface as apperr values so every handler
// renders the same error envelope.
package inputval

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/dalemusser/skillhub/internal/app/system/apperr"
)

// validate is shared by all handlers. A Validate instance caches struct
// metadata and is safe for concurrent use.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report field names as they appear on the wire, not as Go identifiers.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

// DecodeJSON reads the request body into dst, enforcing maxBytes, then runs
// the struct's validate tags. Returns invalid-argument for malformed or
// oversized JSON and validation-failed when a tag fails.
func DecodeJSON(w http.ResponseWriter, r *http.Request, maxBytes int64, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperr.InvalidArgument(fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
		}
		return apperr.InvalidArgument("malformed JSON body")
	}
	return Struct(dst)
}

// Struct validates dst's validate tags without decoding. Handlers use it for
// payloads assembled from multiple sources (query params, path params).
func Struct(dst any) error {
	err := validate.Struct(dst)
	if err == nil {
		return nil
	}
	var fields validator.ValidationErrors
	if errors.As(err, &fields) && len(fields) > 0 {
		return apperr.Validation(describe(fields[0]), err)
	}
	return apperr.Validation("invalid request body", err)
}

// describe turns the first failed rule into a client-facing message.
func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "min":
		return fmt.Sprintf("%s must have at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must have at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "dive":
		return field + " has an invalid element"
	default:
		return field + " is invalid"
	}
}

// WriteJSON writes v as the JSON response body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
