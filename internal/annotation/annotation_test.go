package annotation

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDoc string

func (d stubDoc) Stem() string { return string(d) }

func TestCenterIsDerived(t *testing.T) {
	boxes := []BBox{
		{10, 10, 200, 20},
		{0, 0, 0, 0},
		{1.5, 2.25, 3.5, 8.75},
		{210, 10, 260, 20},
	}
	for _, b := range boxes {
		a := New("x", b)
		assert.Equal(t, (b[0]+b[2])/2, a.Center().X())
		assert.Equal(t, (b[1]+b[3])/2, a.Center().Y())
	}
}

func TestEmptyAnnotation(t *testing.T) {
	e := Empty()
	assert.True(t, e.IsEmpty())
	assert.Equal(t, "", e.Text())
	assert.Equal(t, BBox{-1, -1, -1, -1}, e.BBox())
	assert.Equal(t, Point{-1, -1}, e.Center())
	assert.False(t, New("", BBox{0, 0, 1, 1}).IsEmpty())
}

func TestNormalizeTextStripsOnlySpaces(t *testing.T) {
	assert.Equal(t, "7.169.", NormalizeText("7. 169."))
	assert.Equal(t, "a\tb", NormalizeText("a \tb"))
}

func TestPageCopiesAnnotations(t *testing.T) {
	in := []Annotation{New("a", BBox{0, 0, 1, 1})}
	p := NewPage(stubDoc("f1040"), 0, in)
	in[0] = New("changed", BBox{})

	require.Equal(t, 1, p.Len())
	assert.Equal(t, "a", p.At(0).Text())
	assert.Equal(t, "f1040", p.Document().Stem())
}

func TestPageSetOrdersByIndex(t *testing.T) {
	doc := stubDoc("f1040")
	set := NewPageSet(doc, []*Page{NewPage(doc, 2, nil), NewPage(doc, 0, nil), NewPage(doc, 1, nil)})

	pages := set.Pages()
	require.Len(t, pages, 3)
	for i, p := range pages {
		assert.Equal(t, i, p.Index())
	}
	_, ok := set.Page(3)
	assert.False(t, ok)
}

func TestMatchAndNotFound(t *testing.T) {
	doc := stubDoc("f1040")
	page := NewPage(doc, 1, []Annotation{New("34, 294.", BBox{0, 0, 10, 10})})
	src := `^(?P<value>\d+([\,] *\d*)+\.?)$`
	re := regexp.MustCompile("(?m)" + src)

	m := NewMatch(page, 0, src, re, re.FindStringSubmatch(page.At(0).Text()))
	assert.True(t, m.Found())
	assert.Equal(t, 1, m.PageNumber())
	assert.Equal(t, 0, m.PageIndex())
	assert.Equal(t, "34, 294.", m.Group("value"))
	assert.Equal(t, "34,294.", m.NormalizedText())
	assert.Equal(t, src, m.Pattern())
	assert.True(t, m.Equal(m))

	nf := NotFound(nil)
	assert.False(t, nf.Found())
	assert.Equal(t, -1, nf.PageIndex())
	assert.Equal(t, -1, nf.PageNumber())
	assert.Equal(t, "", nf.Text())
	assert.Equal(t, "", nf.Group("value"))

	onPage := NotFound(page)
	assert.Equal(t, 1, onPage.PageNumber())
	assert.False(t, onPage.Equal(m))
}
