// internal/models/quotation.go
package models

import (
	"errors"
	"strings"
)

// ErrInvalidOutputKind is returned by ParseOutputKind for unknown kinds.
var ErrInvalidOutputKind = errors.New("invalid output kind")

// OutputKind is the artifact a caller asks for.
type OutputKind string

const (
	OutputDocument OutputKind = "document"
	OutputPortable OutputKind = "portable"
)

// ParseOutputKind accepts the canonical kinds plus the word/docx/pdf aliases.
// An empty value means OutputDocument.
func ParseOutputKind(raw string) (OutputKind, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "document", "word", "docx":
		return OutputDocument, nil
	case "portable", "pdf":
		return OutputPortable, nil
	default:
		return "", ErrInvalidOutputKind
	}
}

// Extension is the artifact file extension without the dot.
func (k OutputKind) Extension() string {
	if k == OutputPortable {
		return "pdf"
	}
	return "docx"
}

// ContentType is the MIME type sent with the artifact.
func (k OutputKind) ContentType() string {
	if k == OutputPortable {
		return "application/pdf"
	}
	return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
}

// QuotationRecord is the flat field map a client submits.
type QuotationRecord map[string]interface{}

// Capabilities describes what the service can produce right now.
type Capabilities struct {
	AvailableTool     *string      `json:"available_tool"`
	PortableSupported bool         `json:"portable_supported"`
	SupportedKinds    []OutputKind `json:"supported_kinds"`
}
