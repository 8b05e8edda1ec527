package brdoc

import (
	"testing"
	"time"
)

func TestFormatCurrency(t *testing.T) {
	cases := []struct {
		cents int64
		want  string
	}{
		{0, "0,00"},
		{5, "0,05"},
		{150000, "1.500,00"},
		{123456789, "1.234.567,89"},
		{100000000, "1.000.000,00"},
		{-150000, "-1.500,00"},
		{99, "0,99"},
	}
	for _, c := range cases {
		if got := FormatCurrency(c.cents); got != c.want {
			t.Fatalf("FormatCurrency(%d)=%q want %q", c.cents, got, c.want)
		}
	}
}

func TestMaskDocument(t *testing.T) {
	if got := MaskDocument("12345678901"); got != "123.456.789-01" {
		t.Fatalf("cpf mask: %q", got)
	}
	if got := MaskDocument("12345678000199"); got != "12.345.678/0001-99" {
		t.Fatalf("cnpj mask: %q", got)
	}
	// Other lengths pass through untouched.
	for _, raw := range []string{"", "123", "123456789012"} {
		if got := MaskDocument(raw); got != raw {
			t.Fatalf("passthrough %q got %q", raw, got)
		}
	}
}

func TestFormatDateExtensive(t *testing.T) {
	d := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)
	if got := FormatDateExtensive(d); got != "2 de março de 2026" {
		t.Fatalf("extensive date: %q", got)
	}
	if got := FormatDate(d); got != "02/03/2026" {
		t.Fatalf("short date: %q", got)
	}
}

func TestTermMonths(t *testing.T) {
	start := time.Date(2026, time.January, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2028, time.July, 10, 0, 0, 0, 0, time.UTC)
	if got := TermMonths(start, end); got != 30 {
		t.Fatalf("term months: %d", got)
	}
	// Inverted ranges are not validated and yield a negative count.
	if got := TermMonths(end, start); got != -30 {
		t.Fatalf("inverted term months: %d", got)
	}
	if got := TermMonths(start, start); got != 0 {
		t.Fatalf("zero term months: %d", got)
	}
}

func TestGuaranteeLabel(t *testing.T) {
	if got := GuaranteeLabel("SEGURO_FIANCA"); got != "Seguro-fiança" {
		t.Fatalf("guarantee label: %q", got)
	}
	if got := GuaranteeLabel("ALGO_NOVO"); got != "ALGO_NOVO" {
		t.Fatalf("unknown guarantee should pass through: %q", got)
	}
}

func TestReadjustmentLabel(t *testing.T) {
	if got := ReadjustmentLabel("IGPM"); got != "IGP-M (FGV)" {
		t.Fatalf("readjustment label: %q", got)
	}
	if got := ReadjustmentLabel("XYZ"); got != "XYZ" {
		t.Fatalf("unknown index should pass through: %q", got)
	}
}
