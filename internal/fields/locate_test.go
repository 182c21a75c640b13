package fields

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/tax-parser/internal/annotation"
)

func TestTotalIncomeSyntheticDocument(t *testing.T) {
	doc := testDoc("synthetic")
	page := annotation.NewPage(doc, 0, []annotation.Annotation{
		annotation.New("This is your total income", annotation.BBox{10, 10, 200, 20}),
		annotation.New("220,640.", annotation.BBox{210, 10, 260, 20}),
	})
	pages := annotation.NewPageSet(doc, []*annotation.Page{page})

	set, ok := PatternsFor("total_income")
	require.True(t, ok)
	statements := []Pattern{MustPattern(`(?P<statement>This is your total income)`)}

	stmt := LocateStatement(pages, statements)
	require.True(t, stmt.Found())
	assert.Equal(t, 0, stmt.PageIndex())
	assert.Equal(t, "This is your total income", stmt.Text())

	val := LocateValue(stmt, set.Values)
	require.True(t, val.Found())
	assert.Equal(t, "220,640.", val.Text())
	assert.Equal(t, "220,640.", val.Group("value"))
	assert.Equal(t, int64(220640), ToInteger(val.Text(), nil))
}

func TestLocateStatementPrefersEarlierPage(t *testing.T) {
	doc := testDoc("d")
	strong := MustPattern(`^(?P<statement>Add lines 22 and 23. This is your total tax)$`)
	weak := MustPattern(`(?P<statement>total tax)`)

	p0 := annotation.NewPage(doc, 0, []annotation.Annotation{
		annotation.New("see total tax worksheet", annotation.BBox{0, 0, 10, 10}),
	})
	p1 := annotation.NewPage(doc, 1, []annotation.Annotation{
		annotation.New("Add lines 22 and 23. This is your total tax", annotation.BBox{0, 0, 10, 10}),
	})
	pages := annotation.NewPageSet(doc, []*annotation.Page{p1, p0})

	m := LocateStatement(pages, []Pattern{strong, weak})
	require.True(t, m.Found())
	assert.Equal(t, 0, m.PageNumber())
	assert.Equal(t, weak.Source, m.Pattern())
}

func TestLocateStatementPatternBeforeAnnotation(t *testing.T) {
	doc := testDoc("d")
	strong := MustPattern(`^(?P<statement>exact label)$`)
	weak := MustPattern(`(?P<statement>label)`)
	page := annotation.NewPage(doc, 0, []annotation.Annotation{
		annotation.New("a label here", annotation.BBox{0, 0, 10, 10}),
		annotation.New("exact label", annotation.BBox{0, 20, 10, 30}),
	})
	pages := annotation.NewPageSet(doc, []*annotation.Page{page})

	m := LocateStatement(pages, []Pattern{strong, weak})
	assert.Equal(t, 1, m.PageIndex())
	assert.Equal(t, strong.Source, m.Pattern())
}

func TestLocateStatementDeterministic(t *testing.T) {
	pages := refundReturn()
	set, _ := PatternsFor("total_payments")

	first := LocateStatement(pages, set.Statements)
	for i := 0; i < 5; i++ {
		again := LocateStatement(pages, set.Statements)
		assert.True(t, first.Equal(again))
		assert.Same(t, first.Page(), again.Page())
	}
}

func TestLocateStatementNotFound(t *testing.T) {
	m := LocateStatement(refundReturn(), []Pattern{MustPattern(`nothing like this`)})
	assert.False(t, m.Found())
	assert.Equal(t, -1, m.PageIndex())
	assert.Equal(t, -1, m.PageNumber())
	assert.Equal(t, "", m.Text())
	assert.Equal(t, "", m.Pattern())

	assert.False(t, LocateStatement(nil, nil).Found())
}

func TestLocateValueSpatialFilter(t *testing.T) {
	doc := testDoc("d")
	page := annotation.NewPage(doc, 0, []annotation.Annotation{
		annotation.New("999.", annotation.BBox{500, 100, 540, 110}), // before the statement
		annotation.New("Label", annotation.BBox{10, 100, 200, 120}),
		annotation.New("123.", annotation.BBox{500, 130, 540, 140}), // below the band
		annotation.New("456.", annotation.BBox{500, 115, 540, 125}), // center y = 120, on the edge
	})
	pages := annotation.NewPageSet(doc, []*annotation.Page{page})
	stmt := LocateStatement(pages, []Pattern{MustPattern(`Label`)})
	require.Equal(t, 1, stmt.PageIndex())

	val := LocateValue(stmt, []Pattern{MustPattern(`^(?P<value>\d+\.)$`)})
	require.True(t, val.Found())
	assert.Equal(t, "456.", val.Text())
	assert.Equal(t, 3, val.PageIndex())
	assert.True(t, stmt.BBox().YMin() <= val.Center().Y() && val.Center().Y() <= stmt.BBox().YMax())
}

func TestLocateValuePatternOrderBeatsReadingOrder(t *testing.T) {
	pages := refundReturn()
	set, _ := PatternsFor("total_payments")
	stmt := LocateStatement(pages, set.Statements)
	val := LocateValue(stmt, set.Values)

	// "33" comes first in reading order but only the amount satisfies the first pattern
	assert.Equal(t, "34,294.", val.Text())
	assert.Equal(t, set.Values[0].Source, val.Pattern())
}

func TestLocateValueAbsent(t *testing.T) {
	doc := testDoc("d")
	page := annotation.NewPage(doc, 2, []annotation.Annotation{
		annotation.New("Subtract line 33 from line 24. This is the amount you owe.", annotation.BBox{10, 10, 300, 20}),
		annotation.New("For details on how to pay", annotation.BBox{10, 40, 300, 50}),
	})
	pages := annotation.NewPageSet(doc, []*annotation.Page{page})
	set, _ := PatternsFor("amount_owed")

	stmt := LocateStatement(pages, set.Statements)
	require.True(t, stmt.Found())

	val := LocateValue(stmt, set.Values)
	assert.False(t, val.Found())
	assert.Equal(t, "", val.Text())
	assert.Equal(t, -1, val.PageIndex())
	assert.Same(t, page, val.Page())
	assert.Equal(t, 2, val.PageNumber())
}

func TestLocateValueWithoutStatement(t *testing.T) {
	val := LocateValue(annotation.NotFound(nil), []Pattern{MustPattern(`\d+`)})
	assert.False(t, val.Found())
	assert.Nil(t, val.Page())
}
