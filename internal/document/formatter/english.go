package formatter

import "strings"

var enUnits = [...]string{
	"zero", "one", "two", "three", "four", "five", "six", "seven", "eight", "nine",
	"ten", "eleven", "twelve", "thirteen", "fourteen", "fifteen", "sixteen", "seventeen", "eighteen", "nineteen",
}

var enTens = [...]string{"", "", "twenty", "thirty", "forty", "fifty", "sixty", "seventy", "eighty", "ninety"}

var enScales = [...]string{"", "thousand", "million", "billion", "trillion", "quadrillion", "quintillion"}

// english uses the short scale.
type english struct{}

func (english) minus() string { return "minus" }

func (e english) spell(n uint64) (string, bool) {
	if n == 0 {
		return "zero", true
	}

	var groups []string
	for scale := 0; n > 0; scale++ {
		if scale >= len(enScales) {
			return "", false
		}
		chunk := n % 1000
		n /= 1000
		if chunk == 0 {
			continue
		}
		w := e.belowThousand(chunk)
		if enScales[scale] != "" {
			w += " " + enScales[scale]
		}
		groups = append([]string{w}, groups...)
	}
	return strings.Join(groups, " "), true
}

func (english) belowThousand(n uint64) string {
	var parts []string
	if h := n / 100; h > 0 {
		parts = append(parts, enUnits[h]+" hundred")
	}
	rest := n % 100
	if rest == 0 {
		return strings.Join(parts, " ")
	}
	if len(parts) > 0 {
		parts = append(parts, "and")
	}
	switch {
	case rest < 20:
		parts = append(parts, enUnits[rest])
	case rest%10 == 0:
		parts = append(parts, enTens[rest/10])
	default:
		parts = append(parts, enTens[rest/10]+"-"+enUnits[rest%10])
	}
	return strings.Join(parts, " ")
}
