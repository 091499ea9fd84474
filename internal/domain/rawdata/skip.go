package rawdata

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// SkipReason classifies why a record was skipped.
type SkipReason string

const (
	SkipMissingField SkipReason = "missing_field"
	SkipBadDate      SkipReason = "bad_date"
	SkipBadNumber    SkipReason = "bad_number"
	SkipBadValue     SkipReason = "bad_value"
	SkipUnresolved   SkipReason = "unresolved_entity"
	SkipAmbiguous    SkipReason = "ambiguous_entity"
)

// SkipError is the outcome of a record that cannot be mapped. It is never fatal by itself.
type SkipError struct {
	Reason SkipReason
	Field  string
	Value  string
}

func (e *SkipError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("skip record: %s %s", e.Reason, e.Field)
	}
	return fmt.Sprintf("skip record: %s %s=%q", e.Reason, e.Field, e.Value)
}

// AsSkip extracts a SkipError from err.
func AsSkip(err error) (*SkipError, bool) {
	var skip *SkipError
	if errors.As(err, &skip) {
		return skip, true
	}
	return nil, false
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateStruct runs validator tags on a mapped record and converts the first
// failure into a SkipError naming the offending field.
func ValidateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		first := fieldErrs[0]
		reason := SkipBadValue
		if first.Tag() == "required" {
			reason = SkipMissingField
		}
		return &SkipError{
			Reason: reason,
			Field:  strings.ToLower(first.Field()),
			Value:  fmt.Sprint(first.Value()),
		}
	}
	return &SkipError{Reason: SkipBadValue, Field: "record", Value: err.Error()}
}
