package api

import (
	"reflect"

	"github.com/goccy/go-json"
	"github.com/go-playground/validator/v10"
)

// Optional tells an absent JSON field apart from an explicit null.
type Optional[T any] struct {
	Present bool
	Null    bool
	Value   T
}

// UnmarshalJSON runs only for keys present in the document, null included.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Present = true
	if string(data) == "null" {
		o.Null = true
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}

// Set reports whether the field carried a non-null value.
func (o Optional[T]) Set() bool {
	return o.Present && !o.Null
}

// Ptr returns the value when set and nil otherwise.
func (o Optional[T]) Ptr() *T {
	if !o.Set() {
		return nil
	}
	v := o.Value
	return &v
}

// NewValidator returns a validator that checks the value inside Optional fields. Absent and
// null fields validate as empty, so pair their tags with omitempty.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterCustomTypeFunc(optionalValue,
		Optional[string]{},
		Optional[float64]{},
		Optional[[]string]{},
	)
	return v
}

func optionalValue(field reflect.Value) interface{} {
	if !field.FieldByName("Present").Bool() || field.FieldByName("Null").Bool() {
		return nil
	}
	return field.FieldByName("Value").Interface()
}
