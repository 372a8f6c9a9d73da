package pipeline

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"quotation-service/internal/document/formatter"
	"quotation-service/internal/models"
)

// ContextRules say how a record becomes a rendering context.
type ContextRules struct {
	// Fields always present in the context, "" when the record lacks them.
	Fields []string
	// CurrencyFields go through FormatCurrency.
	CurrencyFields []string
	// Aliases maps a canonical field to alternate inbound keys, tried in order
	// when the canonical key is absent.
	Aliases map[string][]string
	// WordsField is filled from WordsSource with AmountToWords when the client
	// left it empty.
	WordsField  string
	WordsSource string
}

// BuildContext turns record into placeholder display strings. Client values
// are never overwritten; the words field is the only derived value.
func BuildContext(record models.QuotationRecord, rules ContextRules, f *formatter.Formatter) map[string]string {
	raw := make(map[string]interface{}, len(record)+len(rules.Fields))
	for k, v := range record {
		raw[k] = v
	}
	for canonical, alts := range rules.Aliases {
		if _, ok := raw[canonical]; ok {
			continue
		}
		for _, alt := range alts {
			if v, ok := record[alt]; ok {
				raw[canonical] = v
				break
			}
		}
	}

	out := make(map[string]string, len(raw)+len(rules.Fields))
	for _, name := range rules.Fields {
		out[name] = ""
	}
	for k, v := range raw {
		out[k] = displayString(v)
	}

	for _, name := range rules.CurrencyFields {
		v, ok := raw[name]
		if !ok {
			out[name] = ""
			continue
		}
		out[name] = f.FormatCurrency(v)
	}

	if rules.WordsField != "" && strings.TrimSpace(out[rules.WordsField]) == "" {
		if amount, ok := formatter.ParseAmount(raw[rules.WordsSource]); ok {
			out[rules.WordsField] = f.AmountToWords(amount)
		}
	}
	return out
}

func displayString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}
