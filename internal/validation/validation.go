package validation

import (
	"errors"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Violations maps a field name to a short violation code.
type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Add keeps the first violation recorded for a field.
func (v Violations) Add(field, code string) {
	if _, ok := v[field]; !ok {
		v[field] = code
	}
}

// String renders violations as "field: code" pairs in a stable order.
func (v Violations) String() string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+v[k])
	}
	return strings.Join(parts, ", ")
}

func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v.Add(field, "required")
	}
}

func MaxLen(field, value string, limit int, v Violations) {
	if len([]rune(value)) > limit {
		v.Add(field, "too_long")
	}
}

func NonNegative(field string, val decimal.Decimal, v Violations) {
	if val.IsNegative() {
		v.Add(field, "must_not_be_negative")
	}
}

var (
	once     sync.Once
	validate *validator.Validate
)

// Validator returns the shared struct validator. Field names in violations use
// the json tag; decimal.Decimal fields validate as float64 (e.g. gte=0).
func Validator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
		validate.RegisterCustomTypeFunc(func(v reflect.Value) any {
			if d, ok := v.Interface().(decimal.Decimal); ok {
				f, _ := d.Float64()
				return f
			}
			return nil
		}, decimal.Decimal{})
	})
	return validate
}

// Struct validates s and converts failures to Violations. A nil result means valid.
func Struct(s any) Violations {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}
	v := Violations{}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		v["_"] = "invalid"
		return v
	}
	for _, fe := range verrs {
		v.Add(fe.Field(), code(fe))
	}
	return v
}

func code(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "max":
		return "too_long"
	case "oneof":
		return "invalid_choice"
	case "gte", "min":
		return "must_not_be_negative"
	case "email":
		return "invalid_email"
	default:
		return "invalid"
	}
}
