package config

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// documentSchema constrains the raw config file before it is decoded.
// Unknown keys are allowed so older files keep loading.
const documentSchema = `{
  "type": "object",
  "required": ["job_keywords"],
  "properties": {
    "email": {"type": "string"},
    "password": {"type": "string"},
    "job_keywords": {"type": "array", "items": {"type": "string", "minLength": 1}},
    "max_applications": {"type": "integer", "minimum": 1},
    "dry_run": {"type": "boolean"},
    "default_resume": {"type": "string"},
    "resume_mapping": {"type": "object", "additionalProperties": {"type": "string"}},
    "answers": {"type": "object", "additionalProperties": {"type": ["string", "number", "boolean"]}},
    "schedule": {
      "type": "object",
      "properties": {
        "interval_minutes": {"type": "integer", "minimum": 1},
        "mode": {"enum": ["interval", "camunda"]}
      }
    },
    "frontend": {
      "type": "object",
      "properties": {"port": {"type": "integer", "minimum": 1, "maximum": 65535}}
    },
    "data_tracking": {
      "type": "object",
      "properties": {
        "csv_file": {"type": "string"},
        "mirror_files": {"type": "array", "items": {"type": "string"}}
      }
    },
    "search": {
      "type": "object",
      "properties": {"max_pages": {"type": "integer", "minimum": 1}}
    },
    "application": {
      "type": "object",
      "properties": {"max_steps": {"type": "integer", "minimum": 1}}
    },
    "storage": {
      "type": "object",
      "properties": {"applied_set": {"enum": ["file", "redis"]}}
    },
    "logging": {
      "type": "object",
      "properties": {"level": {"enum": ["debug", "info", "warn", "error"]}}
    }
  }
}`

var schemaLoader = gojsonschema.NewStringLoader(documentSchema)

// ValidateDocument checks a raw config document against the file schema.
func ValidateDocument(raw []byte) error {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("config validation failed: %s", strings.Join(errs, "; "))
	}

	return nil
}
