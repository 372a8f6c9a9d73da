package formatter

import "strings"

var esUnits = [...]string{
	"cero", "uno", "dos", "tres", "cuatro", "cinco", "seis", "siete", "ocho", "nueve",
	"diez", "once", "doce", "trece", "catorce", "quince", "dieciséis", "diecisiete", "dieciocho", "diecinueve",
	"veinte", "veintiuno", "veintidós", "veintitrés", "veinticuatro", "veinticinco", "veintiséis", "veintisiete", "veintiocho", "veintinueve",
}

var esTens = [...]string{"", "", "", "treinta", "cuarenta", "cincuenta", "sesenta", "setenta", "ochenta", "noventa"}

var esHundreds = [...]string{"", "ciento", "doscientos", "trescientos", "cuatrocientos", "quinientos", "seiscientos", "setecientos", "ochocientos", "novecientos"}

// spanish uses the long scale: millón = 10^6, billón = 10^12, trillón = 10^18.
type spanish struct{}

func (spanish) minus() string { return "menos" }

func (s spanish) spell(n uint64) (string, bool) {
	if n == 0 {
		return "cero", true
	}

	scales := []struct {
		value    uint64
		singular string
		plural   string
	}{
		{1_000_000_000_000_000_000, "trillón", "trillones"},
		{1_000_000_000_000, "billón", "billones"},
		{1_000_000, "millón", "millones"},
	}

	var parts []string
	for _, sc := range scales {
		count := n / sc.value
		n %= sc.value
		switch {
		case count == 0:
		case count == 1:
			parts = append(parts, "un "+sc.singular)
		case count >= 1_000_000:
			return "", false
		default:
			parts = append(parts, s.belowMillion(count, true)+" "+sc.plural)
		}
	}
	if n > 0 {
		parts = append(parts, s.belowMillion(n, false))
	}
	return strings.Join(parts, " "), true
}

// belowMillion spells 1..999999. apocope shortens a trailing "uno" to "un"
// ahead of a masculine noun (veintiún millones).
func (s spanish) belowMillion(n uint64, apocope bool) string {
	thousands, rest := n/1000, n%1000

	var parts []string
	switch {
	case thousands == 1:
		parts = append(parts, "mil")
	case thousands > 1:
		parts = append(parts, s.belowThousand(thousands, true)+" mil")
	}
	if rest > 0 {
		parts = append(parts, s.belowThousand(rest, apocope))
	}
	return strings.Join(parts, " ")
}

func (s spanish) belowThousand(n uint64, apocope bool) string {
	if n == 100 {
		return "cien"
	}

	var parts []string
	if h := n / 100; h > 0 {
		parts = append(parts, esHundreds[h])
	}

	rest := n % 100
	switch {
	case rest == 0:
	case rest < 30:
		parts = append(parts, esUnits[rest])
	default:
		w := esTens[rest/10]
		if u := rest % 10; u > 0 {
			w += " y " + esUnits[u]
		}
		parts = append(parts, w)
	}

	out := strings.Join(parts, " ")
	if apocope {
		switch {
		case strings.HasSuffix(out, "veintiuno"):
			out = strings.TrimSuffix(out, "veintiuno") + "veintiún"
		case strings.HasSuffix(out, "uno"):
			out = strings.TrimSuffix(out, "uno") + "un"
		}
	}
	return out
}
