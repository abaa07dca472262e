package stock_max

import "testing"

func TestParseNumber(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"", 0},
		{"  12 ", 12},
		{"12.5", 12.5},
		{"12,5", 12.5},
		{"1,234.5", 1234.5},
		{"1.234,5", 1234.5},
		{"1,234,567", 1234567},
		{"abc", 0},
		{"NaN", 0},
		{"-3", -3},
	}
	for _, tc := range cases {
		if got := parseNumber(tc.in); got != tc.want {
			t.Errorf("parseNumber(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestParseFlag(t *testing.T) {
	for _, in := range []string{"1", "1.0", "1,0", "sim", "TRUE"} {
		if !parseFlag(in) {
			t.Errorf("parseFlag(%q) = false, want true", in)
		}
	}
	for _, in := range []string{"", "0", "2", "não"} {
		if parseFlag(in) {
			t.Errorf("parseFlag(%q) = true, want false", in)
		}
	}
}

func TestFormatPTFloat(t *testing.T) {
	cases := []struct {
		v        float64
		decimals int
		want     string
	}{
		{1234.5, 2, "1.234,50"},
		{1000, 2, "1.000"},
		{999, 0, "999"},
		{1234567.891, 2, "1.234.567,89"},
		{-0.001, 2, "0"},
	}
	for _, tc := range cases {
		if got := formatPTFloat(tc.v, tc.decimals); got != tc.want {
			t.Errorf("formatPTFloat(%v, %d) = %q, want %q", tc.v, tc.decimals, got, tc.want)
		}
	}
}

func TestNormalizeColumnName(t *testing.T) {
	if normalizeColumnName("\ufeffRótulos de Linha") != normalizeColumnName("RótulosdeLinha") {
		t.Fatal("label headers should normalise to the same key")
	}
	if normalizeColumnName("calculo_Central") != normalizeColumnName("Calculo Central") {
		t.Fatal("underscore and space should be equivalent")
	}
}
