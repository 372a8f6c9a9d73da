package renderer

import "errors"

// Sentinel errors for template rendering.
var (
	ErrTemplateNotFound = errors.New("template not found")
	ErrTemplateRender   = errors.New("template render failed")
)
