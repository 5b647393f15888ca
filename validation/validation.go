// Package validation checks decoded request payloads against declared shapes.
// A shape lists fields in order; Validate reports every violation it finds rather
// than stopping at the first one.
package validation

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

type Type int

const (
	String Type = iota
	Number
	Boolean
)

func (t Type) String() string {
	switch t {
	case Number:
		return "number"
	case Boolean:
		return "boolean"
	default:
		return "string"
	}
}

type Field struct {
	Name     string
	Required bool
	Type     Type
	// Rules are validator tags applied to a present, non-empty value.
	Rules string
	// RulesMessage is reported, after the quoted field name, when Rules fail.
	RulesMessage string
}

type Shape []Field

var validate = validator.New()

// Validate returns nil when record satisfies the shape, otherwise one message per violation
// in field order. Fields absent from the shape are ignored.
func (s Shape) Validate(record map[string]any) []string {
	var errs []string
	for _, field := range s {
		if msg, ok := field.check(record); !ok {
			errs = append(errs, msg)
		}
	}
	return errs
}

func (f Field) check(record map[string]any) (string, bool) {
	value, present := record[f.Name]
	if !present {
		if f.Required {
			return f.message("is required"), false
		}
		return "", true
	}
	// An explicit null is a value of the wrong type for a required field.
	if value == nil {
		if f.Required {
			return f.message("must be a " + f.Type.String()), false
		}
		return "", true
	}

	if !f.Type.matches(value) {
		return f.message("must be a " + f.Type.String()), false
	}

	if str, ok := value.(string); ok && str == "" {
		if f.Required {
			return f.message("is not allowed to be empty"), false
		}
		return "", true
	}

	if f.Rules != "" {
		if err := validate.Var(value, f.Rules); err != nil {
			msg := f.RulesMessage
			if msg == "" {
				msg = "is invalid"
			}
			return f.message(msg), false
		}
	}

	return "", true
}

func (f Field) message(text string) string {
	return fmt.Sprintf("%q %s", f.Name, text)
}

func (t Type) matches(value any) bool {
	switch t {
	case Number:
		switch value.(type) {
		case float64, float32, int, int64, int32:
			return true
		}
		return false
	case Boolean:
		_, ok := value.(bool)
		return ok
	default:
		_, ok := value.(string)
		return ok
	}
}
