package records

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/Shubham-Nemade-24/certagent/constants"
)

// rowJSONSchema constrains the model response to a flat array of exactly 9
// scalar elements. Nulls are allowed and become empty strings downstream.
func rowJSONSchema() map[string]any {
	return map[string]any{
		"type":     "array",
		"minItems": constants.RecordFieldCount,
		"maxItems": constants.RecordFieldCount,
		"items": map[string]any{
			"type": []string{"string", "number", "boolean", "null"},
		},
	}
}

// validateRow validates data against the row schema.
func validateRow(data []byte) error {
	b, err := json.Marshal(rowJSONSchema())
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("row.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("row.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("decode row: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("row does not match schema: %w", err)
	}
	return nil
}
