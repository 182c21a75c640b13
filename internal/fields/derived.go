package fields

import (
	"log/slog"

	"github.com/joseph-ayodele/tax-parser/constants"
	"github.com/joseph-ayodele/tax-parser/internal/annotation"
)

// Difference computes a derived amount from the reduce and payments inputs.
type Difference func(reduce, payments int64) int64

// Shortfall is what is still owed: max(0, reduce - payments).
func Shortfall(reduce, payments int64) int64 {
	return max(0, reduce-payments)
}

// Surplus is what was overpaid: max(0, payments - reduce).
func Surplus(reduce, payments int64) int64 {
	return max(0, payments-reduce)
}

// DerivedField is read like any other field and additionally computes its amount
// from two other fields.
type DerivedField struct {
	*Field
	reduce   constants.FieldKind
	payments constants.FieldKind
	diff     Difference
}

func NewDerivedField(set PatternSet, reduce, payments constants.FieldKind, diff Difference, logger *slog.Logger) *DerivedField {
	return &DerivedField{Field: NewField(set, logger), reduce: reduce, payments: payments, diff: diff}
}

func (d *DerivedField) DependsOn() []constants.FieldKind {
	return []constants.FieldKind{d.reduce, d.payments}
}

// Extract builds both inputs against the same pages, then computes. Each call
// extracts its inputs again; use ExtractWith to share them.
func (d *DerivedField) Extract(pages *annotation.PageSet) *Result {
	return d.ExtractWith(pages, nil)
}

// ExtractWith uses the supplied inputs and builds any that are missing.
func (d *DerivedField) ExtractWith(pages *annotation.PageSet, deps map[constants.FieldKind]*Result) *Result {
	res := d.Field.Extract(pages)

	reduce := d.dependency(pages, deps, d.reduce)
	payments := d.dependency(pages, deps, d.payments)
	if !reduce.Readable() || !payments.Readable() {
		d.logger.Debug("fields.derived.unset",
			"field", string(d.Kind()),
			"reduce_readable", reduce.Readable(),
			"payments_readable", payments.Readable(),
		)
		return res
	}

	v := d.diff(reduce.Numeric(d.logger), payments.Numeric(d.logger))
	res.Calculated = &v
	return res
}

func (d *DerivedField) dependency(pages *annotation.PageSet, deps map[constants.FieldKind]*Result, kind constants.FieldKind) *Result {
	if r, ok := deps[kind]; ok && r != nil {
		return r
	}
	set, _ := PatternsFor(kind)
	return NewField(set, d.logger).Extract(pages)
}
