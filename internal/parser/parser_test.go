package parser

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/tax-parser/constants"
	"github.com/joseph-ayodele/tax-parser/internal/annotation"
)

type doc string

func (d doc) Stem() string { return string(d) }

func row(y float64, statement string, values ...string) []annotation.Annotation {
	out := []annotation.Annotation{annotation.New(statement, annotation.BBox{50, y, 400, y + 12})}
	for i, v := range values {
		x := 420 + float64(i)*80
		out = append(out, annotation.New(v, annotation.BBox{x, y + 2, x + 60, y + 10}))
	}
	return out
}

func page(d doc, index int, rows ...[]annotation.Annotation) *annotation.Page {
	var anns []annotation.Annotation
	for _, r := range rows {
		anns = append(anns, r...)
	}
	return annotation.NewPage(d, index, anns)
}

func refund() *annotation.PageSet {
	d := doc("7")
	return annotation.NewPageSet(d, []*annotation.Page{
		page(d, 0,
			row(100, "Add lines 1z, 2b, 3b, 4b, 5b, 6b, 7, and 8. This is your total income", "9", "220,640."),
			row(140, "Subtract line 10 from line 9. This is your adjusted gross income", "11", "220,183."),
			row(180, "Standard deduction or itemized deductions (from Schedule A)", "12", "27,700."),
			row(220, "Subtract line 14 from line 11. If zero or less, enter -0-. This is your taxable income", "15", "192,482."),
		),
		page(d, 1,
			row(100, "Add lines 22 and 23. This is your total tax", "24", "26,825."),
			row(140, "Add lines 25d, 26, and 32. These are your total payments", "33", "34,294."),
			row(180, "If line 33 is more than line 24, subtract line 24 from line 33. This is the amount you overpaid", "34", "7. 169."),
			row(220, "Subtract line 33 from line 24. This is the amount you owe."),
		),
	})
}

func owes() *annotation.PageSet {
	d := doc("8c")
	return annotation.NewPageSet(d, []*annotation.Page{
		page(d, 0,
			row(100, "Add lines 22 and 23. This is your total tax", "24", "6,041"),
			row(140, "Add lines 25d, 26, and 32. These are your total payments", "33", "5,000"),
			row(180, "If line 33 is more than line 24, subtract line 24 from line 33. This is the amount you overpaid"),
			row(220, "Subtract line 33 from line 24. This is the amount you owe.", "37", "1,041."),
		),
	})
}

func TestParseRefundReturn(t *testing.T) {
	p, err := New(nil)
	require.NoError(t, err)
	agg := p.Parse(refund())
	assert.Equal(t, "7", agg.Document)

	recs := agg.Records(nil)
	require.Len(t, recs, len(constants.AllFieldKinds()))
	byKind := map[constants.FieldKind]FieldRecord{}
	for i, r := range recs {
		assert.Equal(t, constants.AllFieldKinds()[i], r.Field)
		byKind[r.Field] = r
	}

	assert.Equal(t, int64(220640), byKind[constants.TotalIncome].NumericValue)
	assert.Equal(t, int64(220183), byKind[constants.AdjustedGrossIncome].NumericValue)
	assert.Equal(t, int64(27700), byKind[constants.Deductions].NumericValue)
	assert.Equal(t, int64(192482), byKind[constants.TaxableIncome].NumericValue)
	assert.Equal(t, int64(26825), byKind[constants.TotalTax].NumericValue)
	assert.Equal(t, int64(34294), byKind[constants.TotalPayments].NumericValue)
	assert.Equal(t, 1, byKind[constants.TotalPayments].PageNumber)

	over := byKind[constants.Overpaid]
	assert.Equal(t, "7. 169.", over.ValueText)
	assert.Equal(t, "7.169.", over.ValueNormalizedText)
	assert.Equal(t, int64(7469), over.NumericValue)

	owed := byKind[constants.AmountOwed]
	assert.Equal(t, "", owed.ValueText)
	assert.Equal(t, "", owed.ValuePattern)
	assert.Equal(t, 1, owed.PageNumber)
	assert.Equal(t, int64(0), owed.NumericValue)

	s := agg.Summarize([]constants.FieldKind{constants.TotalTax})
	assert.Len(t, s.Fields, 1)
	assert.Equal(t, int64(7469), s.PayThisAmount)
}

func TestParseBalanceDue(t *testing.T) {
	p, err := New(nil)
	require.NoError(t, err)
	agg := p.Parse(owes())

	s := agg.Summarize(nil)
	assert.Equal(t, int64(-1041), s.PayThisAmount)

	r, ok := agg.Get(constants.AmountOwed)
	require.True(t, ok)
	require.NotNil(t, r.Calculated)
	assert.Equal(t, int64(1041), *r.Calculated)

	income, _ := agg.Get(constants.TotalIncome)
	assert.False(t, income.Statement.Found())
	rec := NewFieldRecord(income, nil)
	assert.Equal(t, -1, rec.PageNumber)
	assert.Equal(t, int64(0), rec.NumericValue)
}

func TestDerivedSharesDependencyResults(t *testing.T) {
	p, err := New(nil)
	require.NoError(t, err)
	agg := p.Parse(refund())

	tax, _ := agg.Get(constants.TotalTax)
	pay, _ := agg.Get(constants.TotalPayments)
	over, _ := agg.Get(constants.Overpaid)
	owed, _ := agg.Get(constants.AmountOwed)
	require.NotNil(t, over.Calculated)
	require.NotNil(t, owed.Calculated)
	assert.Equal(t, tax.Numeric(nil), int64(26825))
	assert.Equal(t, pay.Numeric(nil)-tax.Numeric(nil), *over.Calculated)
	assert.Zero(t, *owed.Calculated)
}

func TestAmountOwedPrefersReadValue(t *testing.T) {
	p, _ := New(nil)
	agg := p.Parse(owes())
	recs := agg.Records([]constants.FieldKind{constants.AmountOwed})
	require.Len(t, recs, 1)
	assert.Equal(t, "1,041.", recs[0].ValueText)
	assert.Equal(t, int64(1041), recs[0].NumericValue)
}

func TestPayThisAmount(t *testing.T) {
	rec := func(k constants.FieldKind, n int64) FieldRecord { return FieldRecord{Field: k, NumericValue: n} }
	assert.Equal(t, int64(-12), PayThisAmount([]FieldRecord{rec(constants.AmountOwed, 12), rec(constants.Overpaid, 5)}))
	assert.Equal(t, int64(5), PayThisAmount([]FieldRecord{rec(constants.AmountOwed, 0), rec(constants.Overpaid, 5)}))
	assert.Equal(t, int64(0), PayThisAmount([]FieldRecord{rec(constants.TotalTax, 99)}))
	assert.Equal(t, int64(0), PayThisAmount(nil))
}

func TestFieldRecordJSON(t *testing.T) {
	b, err := json.Marshal(FieldRecord{Field: constants.TotalTax, PageNumber: -1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"field":"total_tax","statement_text":"","statement_pattern":"","value_text":"",
		"value_normalized_text":"","value_pattern":"","page_number":-1,"numeric_value":0}`, string(b))
}
