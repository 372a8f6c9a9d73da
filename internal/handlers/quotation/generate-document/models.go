// internal/handlers/quotation/generate-document/models.go
package generatedocument

import (
	"fmt"

	"quotation-service/internal/models"
)

// Input is the decoded request: the record plus the requested format.
type Input struct {
	Format string
	Record models.QuotationRecord
}

// Body keys that select the format instead of feeding the template.
const (
	formatKey       = "format"
	legacyFormatKey = "formato"
)

func newInput(query string, body map[string]interface{}) Input {
	in := Input{Format: query, Record: make(models.QuotationRecord, len(body))}
	for k, v := range body {
		if k == formatKey || k == legacyFormatKey {
			continue
		}
		in.Record[k] = v
	}
	if in.Format == "" {
		in.Format = stringValue(body[formatKey])
	}
	if in.Format == "" {
		in.Format = stringValue(body[legacyFormatKey])
	}
	return in
}

func stringValue(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}
