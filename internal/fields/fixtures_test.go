package fields

import (
	"github.com/joseph-ayodele/tax-parser/internal/annotation"
)

type testDoc string

func (d testDoc) Stem() string { return string(d) }

type line struct {
	statement string
	values    []string
}

// form1040 lays out lines 40px apart: the statement on the left, then each value
// further right on the same band.
func form1040(doc annotation.Document, index int, lines []line) *annotation.Page {
	var anns []annotation.Annotation
	for i, l := range lines {
		y := 100 + float64(i)*40
		anns = append(anns, annotation.New(l.statement, annotation.BBox{50, y, 400, y + 12}))
		for j, v := range l.values {
			x := 420 + float64(j)*80
			anns = append(anns, annotation.New(v, annotation.BBox{x, y + 1, x + 60, y + 11}))
		}
	}
	return annotation.NewPage(doc, index, anns)
}

// refundReturn mirrors a two page return with a refund: page 0 holds income lines,
// page 1 tax, payments and the refund box. The refund is recognized as "7. 169.".
func refundReturn() *annotation.PageSet {
	doc := testDoc("7")
	p0 := form1040(doc, 0, []line{
		{"Filing Status", nil},
		{"Add lines 1z, 2b, 3b, 4b, 5b, 6b, 7, and 8. This is your total income", []string{"9", "220,640."}},
		{"Subtract line 10 from line 9. This is your adjusted gross income", []string{"11", "220,183."}},
		{"Standard deduction or itemized deductions (from Schedule A)", []string{"12", "27,700."}},
		{"Subtract line 14 from line 11. If zero or less, enter -0-. This is your taxable income", []string{"15", "192,482."}},
	})
	p1 := form1040(doc, 1, []line{
		{"Add lines 22 and 23. This is your total tax", []string{"24", "26,825."}},
		{"Add lines 25d, 26, and 32. These are your total payments", []string{"33", "34,294."}},
		{"If line 33 is more than line 24, subtract line 24 from line 33. This is the amount you overpaid", []string{"34", "7. 169."}},
		{"Subtract line 33 from line 24. This is the amount you owe.", nil},
	})
	return annotation.NewPageSet(doc, []*annotation.Page{p0, p1})
}

// balanceDueReturn owes money: tax exceeds payments and the owed box is filled.
func balanceDueReturn() *annotation.PageSet {
	doc := testDoc("8c")
	p0 := form1040(doc, 0, []line{
		{"Add lines 22 and 23. This is your total tax", []string{"24", "6,041"}},
		{"Add lines 25d, 26, and 32. These are your total payments", []string{"33", "5,000"}},
		{"If line 33 is more than line 24, subtract line 24 from line 33. This is the amount you overpaid", nil},
		{"Subtract line 33 from line 24. This is the amount you owe.", []string{"37", "1,041."}},
	})
	return annotation.NewPageSet(doc, []*annotation.Page{p0})
}
