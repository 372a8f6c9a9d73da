// Package formatter renders quotation amounts as grouped digits and as words.
package formatter

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/language"
)

var supported = []language.Tag{language.Spanish, language.English}

var matcher = language.NewMatcher(supported)

// Locale selects the words language, the thousands separator and the
// currency name appended to amounts in words.
type Locale struct {
	Language       language.Tag
	GroupSeparator string
	CurrencyName   string
}

// DefaultLocale is Colombian pesos in Spanish.
func DefaultLocale() Locale {
	return Locale{Language: language.Spanish, GroupSeparator: ".", CurrencyName: "pesos colombianos"}
}

// NewLocale parses lang (BCP 47) and matches it against the supported
// languages. Unsupported languages fall back to Spanish.
func NewLocale(lang, groupSeparator, currencyName string) (Locale, error) {
	tag, err := language.Parse(lang)
	if err != nil {
		return Locale{}, fmt.Errorf("parse language %q: %w", lang, err)
	}
	_, idx, _ := matcher.Match(tag)
	return Locale{
		Language:       supported[idx],
		GroupSeparator: groupSeparator,
		CurrencyName:   currencyName,
	}, nil
}

// Formatter is safe for concurrent use; it holds no mutable state.
type Formatter struct {
	locale Locale
	words  speller
}

type speller interface {
	spell(n uint64) (string, bool)
	minus() string
}

// New builds a Formatter for locale.
func New(locale Locale) *Formatter {
	f := &Formatter{locale: locale, words: spanish{}}
	if base, _ := locale.Language.Base(); base.String() == "en" {
		f.words = english{}
	}
	return f
}

// Locale returns the formatter's locale.
func (f *Formatter) Locale() Locale {
	return f.locale
}

// FormatCurrency strips separators, currency symbols and whitespace from raw,
// and regroups the digits with the locale separator. Values that do not parse
// as an integer come back unchanged; nil becomes "".
func (f *Formatter) FormatCurrency(raw interface{}) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return f.group(n)
		}
		if fl, err := v.Float64(); err == nil {
			if n, ok := wholeNumber(fl); ok {
				return f.group(n)
			}
		}
		return v.String()
	case float64:
		if n, ok := wholeNumber(v); ok {
			return f.group(n)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return f.FormatCurrency(float64(v))
	case int:
		return f.group(int64(v))
	case int64:
		return f.group(v)
	case int32:
		return f.group(int64(v))
	case string:
		if n, ok := ParseAmount(v); ok {
			return f.group(n)
		}
		return v
	default:
		s := fmt.Sprint(v)
		if n, ok := ParseAmount(s); ok {
			return f.group(n)
		}
		return s
	}
}

// ParseAmount reads raw the way FormatCurrency does and reports whether it
// holds an integer amount.
func ParseAmount(raw interface{}) (int64, bool) {
	switch v := raw.(type) {
	case nil:
		return 0, false
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n, true
		}
		if fl, err := v.Float64(); err == nil {
			return wholeNumber(fl)
		}
		return 0, false
	case float64:
		return wholeNumber(v)
	case float32:
		return wholeNumber(float64(v))
	case int:
		return int64(v), true
	case int64:
		return v, true
	case int32:
		return int64(v), true
	case string:
		cleaned := strings.Map(func(r rune) rune {
			if r == '.' || r == ',' || r == '$' || unicode.IsSpace(r) {
				return -1
			}
			return r
		}, v)
		n, err := strconv.ParseInt(cleaned, 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return ParseAmount(fmt.Sprint(v))
	}
}

func wholeNumber(v float64) (int64, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
		return 0, false
	}
	if v > math.MaxInt64 || v < math.MinInt64 {
		return 0, false
	}
	return int64(v), true
}

func (f *Formatter) group(n int64) string {
	digits := strconv.FormatInt(n, 10)
	sign := ""
	if digits[0] == '-' {
		sign, digits = "-", digits[1:]
	}
	if len(digits) <= 3 {
		return sign + digits
	}

	var b strings.Builder
	b.WriteString(sign)
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if i > 0 {
			b.WriteString(f.locale.GroupSeparator)
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// AmountToWords spells amount in the locale language, capitalized and
// followed by the currency name. Amounts the speller cannot handle come back
// as plain digits.
func (f *Formatter) AmountToWords(amount int64) string {
	if amount == math.MinInt64 {
		return strconv.FormatInt(amount, 10)
	}

	n := amount
	if n < 0 {
		n = -n
	}
	text, ok := f.words.spell(uint64(n))
	if !ok {
		return strconv.FormatInt(amount, 10)
	}
	if amount < 0 {
		text = f.words.minus() + " " + text
	}

	text = capitalize(text)
	if f.locale.CurrencyName != "" {
		text += " " + f.locale.CurrencyName
	}
	return text
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
