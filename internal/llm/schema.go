package llm

const (
	// PostVariantsSchemaName names the structured output for post variants
	PostVariantsSchemaName = "post_variants"

	postVariantCount     = 3
	postMaxContentLength = 280
)

// GetPostVariantsSchema returns the JSON schema for exactly three post variants.
// Every property is listed in required and optional ones are nullable, which keeps
// the schema acceptable to OpenAI structured outputs.
func GetPostVariantsSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"posts": map[string]any{
				"type":     "array",
				"minItems": postVariantCount,
				"maxItems": postVariantCount,
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"content": map[string]any{
							"type":        "string",
							"minLength":   1,
							"maxLength":   postMaxContentLength,
							"description": "The post text, ready to publish",
						},
						"variant": map[string]any{
							"type":        []any{"integer", "null"},
							"description": "1-based variant number",
						},
						"approach": map[string]any{
							"type":        []any{"string", "null"},
							"description": "The approach this variant follows",
						},
					},
					"required":             []any{"content", "variant", "approach"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"posts"},
		"additionalProperties": false,
	}
}
