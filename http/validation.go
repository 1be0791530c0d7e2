package http

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// paymentRequestSchema describes the payment request shape the digest
// pipeline depends on. Anything failing this schema is rejected before any
// hashing happens.
const paymentRequestSchema = `{
	"type": "object",
	"required": ["id", "chainId", "completionInstructions", "instructions"],
	"properties": {
		"id": {"type": "string", "minLength": 1},
		"chainId": {"type": "integer", "minimum": 1},
		"completionInstructions": {
			"type": "array",
			"items": {"$ref": "#/definitions/instruction"}
		},
		"instructions": {
			"type": "array",
			"items": {"$ref": "#/definitions/instruction"}
		}
	},
	"definitions": {
		"instruction": {
			"type": "object",
			"required": ["chainId", "salt", "maxExecutions", "action", "arguments"],
			"properties": {
				"chainId": {"type": "integer", "minimum": 1},
				"salt": {"type": "string", "minLength": 1},
				"maxExecutions": {"type": "string", "minLength": 1},
				"action": {"type": "string", "pattern": "^0x[0-9a-fA-F]{40}$"},
				"arguments": {"type": "string", "pattern": "^(0x)?[0-9a-fA-F]*$"}
			}
		}
	}
}`

var schemaLoader = gojsonschema.NewStringLoader(paymentRequestSchema)

// ValidatePaymentRequest validates a raw payment request body against the
// schema and reports every violation at once.
func ValidatePaymentRequest(body []byte) error {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	if result.Valid() {
		return nil
	}

	var violations []string
	for _, desc := range result.Errors() {
		violations = append(violations, fmt.Sprintf("%s: %s", desc.Context().String(), desc.Description()))
	}
	return fmt.Errorf("payment request failed validation: %s", strings.Join(violations, "; "))
}
