// Package brdoc holds the formatting helpers used when projecting contract
// data into document text: currency, CPF/CNPJ masking, dates and the fixed
// label tables for guarantee and readjustment codes. Everything here is a
// pure function so the composer stays testable in isolation.
package brdoc

import (
	"fmt"
	"strings"
	"time"
)

// DefaultNationality is rendered when no nationality is recorded for a party.
const DefaultNationality = "brasileiro(a)"

// ZeroCurrency is rendered for unset monetary values.
const ZeroCurrency = "0,00"

// FormatCurrency renders integer cents with grouped thousands, a comma
// decimal separator and two fraction digits: 150000 -> "1.500,00".
func FormatCurrency(cents int64) string {
	neg := cents < 0
	if neg {
		cents = -cents
	}
	whole := cents / 100
	frac := cents % 100

	digits := fmt.Sprintf("%d", whole)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}
	out := fmt.Sprintf("%s,%02d", b.String(), frac)
	if neg {
		return "-" + out
	}
	return out
}

// MaskDocument applies the CPF mask to 11-digit documents and the CNPJ mask
// to 14-digit documents. Any other length passes through unmasked.
func MaskDocument(doc string) string {
	switch len(doc) {
	case 11:
		return doc[0:3] + "." + doc[3:6] + "." + doc[6:9] + "-" + doc[9:11]
	case 14:
		return doc[0:2] + "." + doc[2:5] + "." + doc[5:8] + "/" + doc[8:12] + "-" + doc[12:14]
	default:
		return doc
	}
}

var monthNames = [12]string{
	"janeiro", "fevereiro", "março", "abril", "maio", "junho",
	"julho", "agosto", "setembro", "outubro", "novembro", "dezembro",
}

// FormatDate renders dd/mm/yyyy.
func FormatDate(t time.Time) string {
	return t.Format("02/01/2006")
}

// FormatDateExtensive renders "{day} de {month-name} de {year}".
func FormatDateExtensive(t time.Time) string {
	return fmt.Sprintf("%d de %s de %d", t.Day(), monthNames[t.Month()-1], t.Year())
}

// TermMonths computes the contract term in whole months as
// (endYear-startYear)*12 + (endMonth-startMonth). The result is not clamped
// and is negative when the range is inverted; callers render it as-is.
func TermMonths(start, end time.Time) int {
	return (end.Year()-start.Year())*12 + int(end.Month()) - int(start.Month())
}

var guaranteeLabels = map[string]string{
	"CAUCAO":        "Caução",
	"FIADOR":        "Fiador",
	"SEGURO_FIANCA": "Seguro-fiança",
	"TITULO":        "Título de capitalização",
	"SEM_GARANTIA":  "Sem garantia",
}

var readjustmentLabels = map[string]string{
	"IGPM": "IGP-M (FGV)",
	"IPCA": "IPCA (IBGE)",
	"INPC": "INPC (IBGE)",
}

// GuaranteeLabel resolves a guarantee code to its human-readable label.
// Unknown codes pass through verbatim.
func GuaranteeLabel(code string) string {
	if label, ok := guaranteeLabels[code]; ok {
		return label
	}
	return code
}

// ReadjustmentLabel resolves a readjustment index code to its label.
// Unknown codes pass through verbatim.
func ReadjustmentLabel(code string) string {
	if label, ok := readjustmentLabels[code]; ok {
		return label
	}
	return code
}
