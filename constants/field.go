package constants

import (
	"strings"
)

// FieldKind identifies one of the fixed tax form lines the parser extracts.
type FieldKind string

const (
	TotalIncome         FieldKind = "total_income"
	AdjustedGrossIncome FieldKind = "adjusted_gross_income"
	Deductions          FieldKind = "deductions"
	TaxableIncome       FieldKind = "taxable_income"
	TotalTax            FieldKind = "total_tax"
	TotalPayments       FieldKind = "total_payments"
	Overpaid            FieldKind = "overpaid"
	AmountOwed          FieldKind = "amount_owed"
)

// allFieldKinds is the canonical order; reports and exports follow it.
var allFieldKinds = []FieldKind{
	TotalIncome,
	AdjustedGrossIncome,
	Deductions,
	TaxableIncome,
	TotalTax,
	TotalPayments,
	Overpaid,
	AmountOwed,
}

var fieldLabels = map[FieldKind]string{
	TotalIncome:         "Total Income",
	AdjustedGrossIncome: "Adjusted Gross Income",
	Deductions:          "Deductions",
	TaxableIncome:       "Taxable Income",
	TotalTax:            "Total Tax",
	TotalPayments:       "Total Payments",
	Overpaid:            "Overpaid",
	AmountOwed:          "Amount Owed",
}

// AllFieldKinds returns a copy of the canonical field list.
func AllFieldKinds() []FieldKind {
	out := make([]FieldKind, len(allFieldKinds))
	copy(out, allFieldKinds)
	return out
}

func FieldKindsAsStringSlice() []string {
	result := make([]string, len(allFieldKinds))
	for i, k := range allFieldKinds {
		result[i] = string(k)
	}
	return result
}

// Label is the human readable name used in exports.
func (k FieldKind) Label() string {
	if l, ok := fieldLabels[k]; ok {
		return l
	}
	return string(k)
}

func (k FieldKind) Valid() bool {
	_, ok := fieldLabels[k]
	return ok
}

// IsDerived reports whether the kind is computed from other fields rather than read.
func (k FieldKind) IsDerived() bool {
	return k == Overpaid || k == AmountOwed
}

// Canonicalize maps user input ("Total Tax", "total-tax", "owed") to a FieldKind.
func Canonicalize(input string) (FieldKind, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return "", false
	}
	normalized = strings.NewReplacer(" ", "_", "-", "_").Replace(normalized)

	synonyms := map[string]FieldKind{
		"agi":          AdjustedGrossIncome,
		"income":       TotalIncome,
		"deduction":    Deductions,
		"payments":     TotalPayments,
		"tax":          TotalTax,
		"refund":       Overpaid,
		"overpayment":  Overpaid,
		"owed":         AmountOwed,
		"amount_owing": AmountOwed,
		"balance_due":  AmountOwed,
	}
	if k, ok := synonyms[normalized]; ok {
		return k, true
	}

	if k := FieldKind(normalized); k.Valid() {
		return k, true
	}
	return "", false
}
