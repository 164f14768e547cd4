package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// SchemaValidator checks raw model output against a compiled JSON schema
type SchemaValidator struct {
	name   string
	schema *jsonschema.Schema
}

// NewSchemaValidator compiles an OutputSchema for validation
func NewSchemaValidator(output *OutputSchema) (*SchemaValidator, error) {
	raw, err := json.Marshal(output.Schema)
	if err != nil {
		return nil, fmt.Errorf("marshal schema %s: %w", output.Name, err)
	}

	resource := output.Name + ".json"
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(resource, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	schema, err := compiler.Compile(resource)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &SchemaValidator{name: output.Name, schema: schema}, nil
}

// Validate decodes rawOutput as JSON and checks it against the schema
func (v *SchemaValidator) Validate(rawOutput string) error {
	var payload any
	if err := json.Unmarshal([]byte(rawOutput), &payload); err != nil {
		log.Printf("❌ %s output is not JSON: %s", v.name, truncate(rawOutput, maxErrorPreviewChars))
		return fmt.Errorf("output is not valid JSON: %w", err)
	}
	if err := v.schema.Validate(payload); err != nil {
		log.Printf("❌ %s output failed schema validation: %v", v.name, err)
		return fmt.Errorf("output does not match schema %s: %w", v.name, err)
	}
	return nil
}
