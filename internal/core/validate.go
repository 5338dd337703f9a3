// AngelaMos | 2026
// validate.go

package core

import (
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 1 << 20

// NewValidator reports field names the way clients send them (json tags).
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// DecodeAndValidate reads a JSON body into dst and validates it. The
// returned error is an *AppError ready for JSONError.
func DecodeAndValidate(
	w http.ResponseWriter,
	r *http.Request,
	v *validator.Validate,
	dst any,
) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return InvalidInputError("invalid request body")
	}

	if err := v.Struct(dst); err != nil {
		return InvalidInputError(FormatValidationError(err))
	}

	return nil
}

// ValidateID rejects path ids that cannot name a stored row. They are
// reported as not found, the same as a well-formed id with no row.
func ValidateID(v *validator.Validate, id, resource string) error {
	if err := v.Var(id, "required,uuid"); err != nil {
		return fmt.Errorf("%s id %q: %w", resource, id, NotFoundError(resource))
	}
	return nil
}
