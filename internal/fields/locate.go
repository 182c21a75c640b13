package fields

import (
	"github.com/joseph-ayodele/tax-parser/internal/annotation"
)

// LocateStatement returns the first annotation satisfying a statement pattern.
// Iteration is page, then pattern, then annotation: a weaker pattern on an
// earlier page wins over a stronger one on a later page. Absent when nothing matches.
func LocateStatement(pages *annotation.PageSet, patterns []Pattern) annotation.Match {
	if pages == nil {
		return annotation.NotFound(nil)
	}
	for _, page := range pages.Pages() {
		for _, p := range patterns {
			for i := 0; i < page.Len(); i++ {
				text := page.At(i).Text()
				if sub := p.re.FindStringSubmatch(text); sub != nil {
					return annotation.NewMatch(page, i, p.Source, p.re, sub)
				}
			}
		}
	}
	return annotation.NotFound(nil)
}

// LocateValue searches the statement's page for the value that follows it on the
// same visual band: only annotations after the statement in reading order whose
// vertical center lies within the statement's [y_min, y_max]. Patterns are the
// outer loop. When nothing matches the result is absent but keeps the page.
func LocateValue(statement annotation.Match, patterns []Pattern) annotation.Match {
	page := statement.Page()
	if !statement.Found() || page == nil {
		return annotation.NotFound(page)
	}

	band := statement.BBox()
	candidates := make([]int, 0, page.Len())
	for i := statement.PageIndex() + 1; i < page.Len(); i++ {
		if band.ContainsY(page.At(i).Center().Y()) {
			candidates = append(candidates, i)
		}
	}

	for _, p := range patterns {
		for _, i := range candidates {
			if sub := p.re.FindStringSubmatch(page.At(i).Text()); sub != nil {
				return annotation.NewMatch(page, i, p.Source, p.re, sub)
			}
		}
	}
	return annotation.NotFound(page)
}
