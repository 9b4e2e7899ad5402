// Package validation turns request structs into field-level violation lists
// before any domain logic runs.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/foodya/foodya-backend/pkg/errorbank"
)

var validate = newValidator()

func newValidator() *validatorv10.Validate {
	v := validatorv10.New()

	// Violation paths must match the JSON contract, not Go field names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	// required accepts whitespace-only strings; notblank does not.
	if err := v.RegisterValidation("notblank", func(fl validatorv10.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	}); err != nil {
		panic(err)
	}

	return v
}

// Violation describes one failed field constraint.
type Violation struct {
	Field  string `json:"field"`
	Rule   string `json:"rule"`
	Detail string `json:"detail"`
}

// Struct validates a tagged request struct. On failure it returns a
// bad-request AppError carrying the full violation list in its details, so
// the transport layer can surface every offending field at once.
func Struct(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validatorv10.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return errorbank.Internal("request validation failed", errorbank.WithCause(err))
	}

	violations := make([]Violation, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		violations = append(violations, Violation{
			Field:  fieldPath(fe.Namespace()),
			Rule:   fe.Tag(),
			Detail: describe(fe),
		})
	}

	return errorbank.BadRequest("invalid request",
		errorbank.WithDetail("violations", violations))
}

// fieldPath strips the root struct name from the validator namespace,
// e.g. "CreateOrderRequest.items[0].quantity" -> "items[0].quantity".
// Segments are already JSON names via the tag-name function; the lowercase
// pass only matters for fields without a json tag.
func fieldPath(namespace string) string {
	if idx := strings.Index(namespace, "."); idx >= 0 {
		namespace = namespace[idx+1:]
	}
	parts := strings.Split(namespace, ".")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToLower(p[:1]) + p[1:]
	}
	return strings.Join(parts, ".")
}

func describe(fe validatorv10.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "value is required"
	case "notblank":
		return "must not be blank"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be >= %s", fe.Param())
	default:
		return fmt.Sprintf("failed %q constraint", fe.Tag())
	}
}
