package annotation

// Document is the owner a page points back to. Pages never own their document.
type Document interface {
	// Stem identifies the document in storage (file name without extension).
	Stem() string
}

// Page is the ordered annotation list recognized on one page image.
// Index is 0-based; Annotations keeps the recognizer's reading order.
type Page struct {
	doc         Document
	index       int
	annotations []Annotation
}

// NewPage freezes annotations into a page. The slice is copied.
func NewPage(doc Document, index int, annotations []Annotation) *Page {
	cp := make([]Annotation, len(annotations))
	copy(cp, annotations)
	return &Page{doc: doc, index: index, annotations: cp}
}

func (p *Page) Document() Document { return p.doc }
func (p *Page) Index() int         { return p.index }
func (p *Page) Len() int           { return len(p.annotations) }

// At returns the i-th annotation in reading order.
func (p *Page) At(i int) Annotation { return p.annotations[i] }

// Annotations returns a copy of the page's annotations.
func (p *Page) Annotations() []Annotation {
	out := make([]Annotation, len(p.annotations))
	copy(out, p.annotations)
	return out
}

// PageSet is the per-document cache view: 0-based page index to Page, iterated in
// ascending index order.
type PageSet struct {
	doc   Document
	pages []*Page
}

// NewPageSet orders pages by index. Pages must belong to doc and have unique indexes.
func NewPageSet(doc Document, pages []*Page) *PageSet {
	ordered := make([]*Page, len(pages))
	copy(ordered, pages)
	// insertion sort: page counts are small and usually already ordered
	for i := 1; i < len(ordered); i++ {
		for j := i; j > 0 && ordered[j-1].index > ordered[j].index; j-- {
			ordered[j-1], ordered[j] = ordered[j], ordered[j-1]
		}
	}
	return &PageSet{doc: doc, pages: ordered}
}

func (s *PageSet) Document() Document { return s.doc }
func (s *PageSet) Len() int           { return len(s.pages) }

// Pages returns the pages in ascending index order.
func (s *PageSet) Pages() []*Page {
	out := make([]*Page, len(s.pages))
	copy(out, s.pages)
	return out
}

// Page looks up a page by its 0-based index.
func (s *PageSet) Page(index int) (*Page, bool) {
	for _, p := range s.pages {
		if p.index == index {
			return p, true
		}
	}
	return nil, false
}
