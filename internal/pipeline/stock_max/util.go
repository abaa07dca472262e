package stock_max

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

var columnNameSanitizer = strings.NewReplacer(" ", "", "_", "", ".", "", "-", "", "/", "")

// normalizeColumnName lowercases and strips separators so "Rótulos de Linha",
// "RótulosdeLinha" and "rótulos_de_linha" line up.
func normalizeColumnName(name string) string {
	name = strings.TrimSpace(strings.ToLower(name))
	name = strings.TrimPrefix(name, "\ufeff")
	return columnNameSanitizer.Replace(name)
}

// parseNumber is the single coercion used for every numeric cell. Empty or unparseable
// values become 0. "1,234.5", "1.234,5" and "1234,5" are all accepted: whichever of
// comma and dot comes last is the decimal separator, and a lone comma is decimal too.
func parseNumber(raw string) float64 {
	v := strings.TrimSpace(raw)
	if v == "" {
		return 0
	}
	lastComma, lastDot := strings.LastIndex(v, ","), strings.LastIndex(v, ".")
	switch {
	case lastComma >= 0 && lastDot >= 0 && lastComma > lastDot:
		v = strings.ReplaceAll(v, ".", "")
		v = strings.Replace(v, ",", ".", 1)
	case strings.Count(v, ",") == 1 && lastDot < 0:
		v = strings.Replace(v, ",", ".", 1)
	default:
		v = strings.ReplaceAll(v, ",", "")
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// parseThreshold coerces a tier threshold to an integer, truncating fractions.
func parseThreshold(raw string) int {
	return int(parseNumber(raw))
}

// parseFlag reads the Stock Direto column: 1 (or "1.0", "true", "sim") means set.
func parseFlag(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "sim", "yes", "s", "y":
		return true
	}
	return parseNumber(raw) == 1
}

// formatQuantity renders a quantity without a trailing ".0" for whole numbers.
func formatQuantity(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// formatPTFloat formats a float using Portuguese conventions: dot as thousands
// separator and comma as decimal separator. A zero fraction is omitted.
// Example: 1234.5 (2 decimals) => "1.234,50"; 1000.0 => "1.000".
func formatPTFloat(v float64, decimals int) string {
	neg := v < 0
	if neg {
		v = -v
	}
	if decimals < 0 {
		decimals = 0
	}

	factor := math.Pow(10, float64(decimals))
	scaled := math.Round(v * factor)
	intPart := int64(scaled) / int64(factor)
	fracPart := int64(scaled) % int64(factor)

	s := strconv.FormatInt(intPart, 10)
	if len(s) > 3 {
		var b strings.Builder
		lead := len(s) % 3
		if lead > 0 {
			b.WriteString(s[:lead])
		}
		for i := lead; i < len(s); i += 3 {
			if b.Len() > 0 {
				b.WriteByte('.')
			}
			b.WriteString(s[i : i+3])
		}
		s = b.String()
	}

	prefix := ""
	if neg && (intPart != 0 || fracPart != 0) {
		prefix = "-"
	}
	if decimals == 0 || fracPart == 0 {
		return prefix + s
	}
	return fmt.Sprintf("%s%s,%0*d", prefix, s, decimals, fracPart)
}
