package column

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// Validator is a capability interface kept separate from the column's
// opaque encode/decode pair: a column only needs a schema handle and a
// validator behind this interface, not a concrete schema engine baked
// into its metadata.
type Validator interface {
	// Parse validates value against the schema, returning a normalized
	// value (or an error).
	Parse(value any) (any, error)
	// Default returns the zero value decode falls back to when the
	// stored column is NULL.
	Default() any
}

// jsonSchemaValidator wraps github.com/xeipuuv/gojsonschema for validating
// column values declared with an app-level JSON Schema.
type jsonSchemaValidator struct {
	schema *gojsonschema.Schema
}

// NewJSONSchemaValidator compiles a JSON Schema document into a Validator.
func NewJSONSchemaValidator(schemaJSON string) (Validator, error) {
	loader := gojsonschema.NewStringLoader(schemaJSON)
	schema, err := gojsonschema.NewSchema(loader)
	if err != nil {
		return nil, fmt.Errorf("column: invalid json schema: %w", err)
	}
	return &jsonSchemaValidator{schema: schema}, nil
}

func (v *jsonSchemaValidator) Parse(value any) (any, error) {
	result, err := v.schema.Validate(gojsonschema.NewGoLoader(value))
	if err != nil {
		return nil, err
	}
	if !result.Valid() {
		var msgs []string
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("json schema validation failed: %v", msgs)
	}
	return value, nil
}

func (v *jsonSchemaValidator) Default() any {
	return nil
}
