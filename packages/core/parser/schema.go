package parser

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// suiteSchema describes the shape of a suite document. Scalars may be
// strings, numbers or booleans; they are read back as their source text.
const suiteSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["checks"],
  "additionalProperties": false,
  "properties": {
    "name": {"type": "string"},
    "variables": {
      "type": "object",
      "additionalProperties": {"$ref": "#/definitions/scalar"}
    },
    "checks": {
      "type": "array",
      "items": {"$ref": "#/definitions/check"}
    }
  },
  "definitions": {
    "scalar": {"type": ["string", "number", "boolean"]},
    "check": {
      "type": "object",
      "required": ["name", "expect"],
      "additionalProperties": false,
      "properties": {
        "name": {"type": "string", "minLength": 1},
        "description": {"type": "string"},
        "tags": {"type": "array", "items": {"type": "string"}},
        "value": {"$ref": "#/definitions/scalar"},
        "file": {"type": "string", "minLength": 1},
        "skip": {"type": "string"},
        "only": {"type": "boolean"},
        "snapshot": {"type": "boolean"},
        "expect": {
          "type": "array",
          "minItems": 1,
          "items": {"$ref": "#/definitions/expectation"}
        }
      },
      "oneOf": [
        {"required": ["value"]},
        {"required": ["file"]}
      ]
    },
    "expectation": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "subject": {"type": "string"},
        "contains": {
          "oneOf": [
            {"$ref": "#/definitions/scalar"},
            {"type": "array", "items": {"$ref": "#/definitions/scalar"}}
          ]
        },
        "startsWith": {"$ref": "#/definitions/scalar"},
        "endsWith": {"$ref": "#/definitions/scalar"},
        "equals": {"$ref": "#/definitions/scalar"},
        "matches": {"type": "string"}
      },
      "oneOf": [
        {"required": ["contains"]},
        {"required": ["startsWith"]},
        {"required": ["endsWith"]},
        {"required": ["equals"]},
        {"required": ["matches"]}
      ]
    }
  }
}`

var schemaLoader = gojsonschema.NewStringLoader(suiteSchema)

// validateDocument checks a decoded suite document against suiteSchema and
// returns one message per violation.
func validateDocument(doc any) ([]string, error) {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("schema validation error: %w", err)
	}
	if result.Valid() {
		return nil, nil
	}

	// A failed oneOf is reported next to the errors of its best branch.
	// Keep the bare oneOf error only where nothing more specific exists.
	specific := make(map[string]bool)
	for _, desc := range result.Errors() {
		if desc.Type() != "number_one_of" {
			specific[desc.Field()] = true
		}
	}

	var violations []string
	for _, desc := range result.Errors() {
		if desc.Type() == "number_one_of" && specific[desc.Field()] {
			continue
		}
		violations = append(violations, fmt.Sprintf("%s: %s", desc.Field(), desc.Description()))
	}
	return violations, nil
}

func joinViolations(v []string) string {
	return strings.Join(v, "; ")
}
