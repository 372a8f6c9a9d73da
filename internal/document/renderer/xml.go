package renderer

import (
	"regexp"
	"strings"
)

// Word splits typed text into several runs, so a placeholder such as
// {{ nombre }} can arrive as {{ nom</w:t></w:r><w:r><w:t>bre }}. These
// patterns find the delimiters across run boundaries.
var (
	splitVariable = regexp.MustCompile(`(?s)\{(?:<[^>]+>)*\{(.*?)\}(?:<[^>]+>)*\}`)
	splitTag      = regexp.MustCompile(`(?s)\{(?:<[^>]+>)*%(.*?)%(?:<[^>]+>)*\}`)
	xmlTag        = regexp.MustCompile(`<[^>]+>`)
)

var expressionFixer = strings.NewReplacer(
	"‘", "'", "’", "'",
	"“", `"`, "”", `"`,
	"&quot;", `"`, "&apos;", "'", "&#39;", "'",
	"&lt;", "<", "&gt;", ">", "&amp;", "&",
)

// mergeSplitPlaceholders drops the markup Word inserted inside template
// delimiters and normalizes smart quotes in the expressions.
func mergeSplitPlaceholders(xml string) string {
	xml = splitVariable.ReplaceAllStringFunc(xml, func(m string) string {
		inner := splitVariable.FindStringSubmatch(m)[1]
		return "{{" + cleanExpression(inner) + "}}"
	})
	return splitTag.ReplaceAllStringFunc(xml, func(m string) string {
		inner := splitTag.FindStringSubmatch(m)[1]
		return "{%" + cleanExpression(inner) + "%}"
	})
}

func cleanExpression(expr string) string {
	return expressionFixer.Replace(xmlTag.ReplaceAllString(expr, ""))
}

// isTemplatedPart reports whether a docx zip entry carries user text.
func isTemplatedPart(name string) bool {
	switch name {
	case "word/document.xml", "word/footnotes.xml", "word/endnotes.xml":
		return true
	}
	if !strings.HasSuffix(name, ".xml") {
		return false
	}
	base := strings.TrimPrefix(name, "word/")
	if base == name || strings.Contains(base, "/") {
		return false
	}
	return strings.HasPrefix(base, "header") || strings.HasPrefix(base, "footer")
}
