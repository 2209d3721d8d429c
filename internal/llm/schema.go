package llm

// PromptSchema is the template serialized into the prompt for the model to
// mirror. SanitizeRecordJSON strips any placeholder values the model echoes
// back instead of extracting.
func PromptSchema() map[string]any {
	return map[string]any{
		"mail_thread_id":     "string",
		"company_name":       "string",
		"purchase_date":      "YYYY-MM-DD",
		"mail_received_time": "string",
		"purchase_receiver":  "string",
		"total_price":        "float",
		"other_expenses":     "float",
		"items": []any{
			map[string]any{
				"item_name": "string",
				"quantity":  "integer",
				"price":     "float",
			},
		},
	}
}

// BuildInvoiceJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a
// generic map, used to validate sanitized model output locally.
func BuildInvoiceJSONSchema() map[string]any {
	stringOrNumber := map[string]any{"type": []any{"string", "number"}}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"mail_thread_id":     map[string]any{"type": "string"},
			"company_name":       map[string]any{"type": "string"},
			"purchase_date":      map[string]any{"type": "string"},
			"mail_received_time": map[string]any{"type": "string"},
			"purchase_receiver":  map[string]any{"type": "string"},
			"total_price":        stringOrNumber,
			"other_expenses":     stringOrNumber,
			"items": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"item_name": map[string]any{"type": "string"},
						"quantity":  map[string]any{"type": "integer"},
						"price":     map[string]any{"type": "number"},
					},
				},
			},
		},
	}
}
