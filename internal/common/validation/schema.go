package validation

import (
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// DefaultRecordSchema accepts any flat object whose values are strings,
// numbers or null. Field names are free.
const DefaultRecordSchema = `{
  "type": "object",
  "additionalProperties": {
    "type": ["string", "number", "null"]
  }
}`

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// RecordValidator checks inbound quotation records against a compiled JSON schema.
type RecordValidator struct {
	schema *gojsonschema.Schema
}

// NewRecordValidator compiles schemaJSON; empty means DefaultRecordSchema.
func NewRecordValidator(schemaJSON string) (*RecordValidator, error) {
	if strings.TrimSpace(schemaJSON) == "" {
		schemaJSON = DefaultRecordSchema
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("compile record schema: %w", err)
	}
	return &RecordValidator{schema: schema}, nil
}

// NewRecordValidatorFromFile loads the schema from path; empty path means the default schema.
func NewRecordValidatorFromFile(path string) (*RecordValidator, error) {
	if path == "" {
		return NewRecordValidator("")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read record schema: %w", err)
	}
	return NewRecordValidator(string(data))
}

// Validate runs the schema against record.
func (v *RecordValidator) Validate(record map[string]interface{}) (*ValidationResult, error) {
	if record == nil {
		record = map[string]interface{}{}
	}
	result, err := v.schema.Validate(gojsonschema.NewGoLoader(record))
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	out := &ValidationResult{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   desc.Field(),
			Message: desc.Description(),
			Code:    strings.ToUpper(desc.Type()),
		})
	}
	return out, nil
}

// GetErrorMessages returns a simple list of error messages
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

// HasErrors checks if validation has errors for specific field
func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field {
			return true
		}
	}
	return false
}
