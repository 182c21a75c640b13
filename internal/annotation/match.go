package annotation

import "regexp"

// Match is an annotation found by a locator, or an explicit absence.
// Absent matches have Found() == false, empty text and PageIndex -1; a value
// search that came up empty still remembers the page it searched.
type Match struct {
	Annotation
	page           *Page
	pageIndex      int
	groups         []string
	groupNames     []string
	pattern        string
	normalizedText string
	found          bool
}

// NewMatch records that re matched page.At(index). pattern is the source the caller
// reports (re may carry extra flags); submatches is re.FindStringSubmatch of the text.
func NewMatch(page *Page, index int, pattern string, re *regexp.Regexp, submatches []string) Match {
	a := page.At(index)
	return Match{
		Annotation:     a,
		page:           page,
		pageIndex:      index,
		groups:         submatches,
		groupNames:     re.SubexpNames(),
		pattern:        pattern,
		normalizedText: NormalizeText(a.Text()),
		found:          true,
	}
}

// NotFound is the absent result. page may be nil (statement never located) or the
// page a value search was confined to.
func NotFound(page *Page) Match {
	return Match{Annotation: Empty(), page: page, pageIndex: -1}
}

func (m Match) Found() bool { return m.found }

// Page is the page the match was found on, nil when the statement was never located.
func (m Match) Page() *Page { return m.page }

// PageIndex is the index of the annotation within its page, -1 when absent.
func (m Match) PageIndex() int { return m.pageIndex }

// PageNumber is the 0-based page index, -1 when no page is attached.
func (m Match) PageNumber() int {
	if m.page == nil {
		return -1
	}
	return m.page.Index()
}

// Pattern is the source of the pattern that matched, empty when absent.
func (m Match) Pattern() string { return m.pattern }

// NormalizedText is the matched text with spaces removed.
func (m Match) NormalizedText() string { return m.normalizedText }

// Group returns the named capture, or "" when absent.
func (m Match) Group(name string) string {
	for i, n := range m.groupNames {
		if n == name && i < len(m.groups) {
			return m.groups[i]
		}
	}
	return ""
}

// Equal reports whether two matches point at the same annotation with the same pattern.
func (m Match) Equal(o Match) bool {
	return m.found == o.found &&
		m.page == o.page &&
		m.pageIndex == o.pageIndex &&
		m.pattern == o.pattern &&
		m.Text() == o.Text()
}
