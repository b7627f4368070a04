package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/garrikyx/FItflow/internal/platform/apperr"
)

const maxBodyBytes = 1 << 20

// Validate is the shared validator instance. Field names in errors use json tags.
var Validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// DecodeJSON strictly decodes the request body into dst and validates it.
// Unknown fields, trailing data and validator failures all yield apperr.ErrValidation.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Invalid("", "request body is empty")
		}
		return apperr.Invalid("", fmt.Sprintf("unable to parse body: %v", err))
	}
	if dec.More() {
		return apperr.Invalid("", "request body must contain a single JSON object")
	}
	return ValidateStruct(dst)
}

// ValidateStruct runs the validator and converts the first failure to a ValidationError.
func ValidateStruct(v interface{}) error {
	err := Validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apperr.Invalid("", err.Error())
	}
	fe := fieldErrs[0]
	switch fe.Tag() {
	case "required":
		return apperr.Required(fe.Field())
	case "oneof":
		return apperr.Invalid(fe.Field(), "must be one of: "+strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gt", "gte":
		return apperr.Invalid(fe.Field(), "must be "+tagSymbol(fe.Tag())+" "+fe.Param())
	default:
		return apperr.Invalid(fe.Field(), "failed "+fe.Tag()+" check")
	}
}

func tagSymbol(tag string) string {
	if tag == "gt" {
		return ">"
	}
	return ">="
}
