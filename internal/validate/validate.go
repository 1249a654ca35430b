// Package validate runs go-playground/validator over form structs and turns
// the failures into per-field messages suitable for inline display.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/lukman83/pricehub/internal/apperr"
)

var (
	once     sync.Once
	instance *validator.Validate
)

func get() *validator.Validate {
	once.Do(func() {
		instance = validator.New(validator.WithRequiredStructEnabled())
		// Report fields by their JSON names.
		instance.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
	})
	return instance
}

// Errors maps a field name to its message.
type Errors map[string]string

func (e Errors) Error() string {
	fields := e.Fields()
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = e[f]
	}
	return strings.Join(parts, "; ")
}

// Fields returns the failing field names in order.
func (e Errors) Fields() []string {
	out := make([]string, 0, len(e))
	for f := range e {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Messages overrides the generated text, keyed by "field.tag".
type Messages map[string]string

// Check validates s and returns nil or an Errors value.
func Check(s any, overrides Messages) Errors {
	err := get().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return Errors{"_": err.Error()}
	}
	out := make(Errors, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		if _, seen := out[field]; seen {
			continue
		}
		if msg, ok := overrides[field+"."+fe.Tag()]; ok {
			out[field] = msg
			continue
		}
		out[field] = message(fe)
	}
	return out
}

// Struct validates s and wraps any failures in an apperr Validation error.
func Struct(s any, overrides Messages) error {
	errs := Check(s, overrides)
	if errs == nil {
		return nil
	}
	first := errs[errs.Fields()[0]]
	return &apperr.Error{
		Kind:    apperr.Validation,
		Code:    "VALIDATION_ERROR",
		Message: first,
		Err:     errs,
	}
}

func message(fe validator.FieldError) string {
	field := strings.ReplaceAll(fe.Field(), "_", " ")
	param := fe.Param()
	switch fe.Tag() {
	case "required", "required_if", "required_unless":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, param)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, param)
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, param)
	case "ltefield":
		return fmt.Sprintf("%s must not exceed %s", field, param)
	case "oneof":
		return field + " must be one of: " + param
	default:
		return field + " is invalid"
	}
}
