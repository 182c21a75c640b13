// Package parser runs every field extractor against one document's pages and
// turns the results into boundary records.
package parser

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/tax-parser/constants"
	"github.com/joseph-ayodele/tax-parser/internal/annotation"
	"github.com/joseph-ayodele/tax-parser/internal/fields"
)

// Parser holds one extractor per field kind. Derived extractors receive their
// inputs from the same run instead of extracting them again.
type Parser struct {
	extractors map[constants.FieldKind]fields.Extractor
	logger     *slog.Logger
}

func New(logger *slog.Logger) (*Parser, error) {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Parser{extractors: make(map[constants.FieldKind]fields.Extractor), logger: logger}
	for _, k := range constants.AllFieldKinds() {
		ex, err := fields.TypeOf(k, logger)
		if err != nil {
			return nil, err
		}
		p.extractors[k] = ex
	}
	// dependencies must exist and must not loop back
	for _, k := range constants.AllFieldKinds() {
		if err := p.checkDeps(k, map[constants.FieldKind]bool{}); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *Parser) checkDeps(k constants.FieldKind, visiting map[constants.FieldKind]bool) error {
	if visiting[k] {
		return fmt.Errorf("field dependency cycle at %s", k)
	}
	dep, ok := p.extractors[k].(fields.DependentExtractor)
	if !ok {
		return nil
	}
	visiting[k] = true
	defer delete(visiting, k)
	for _, d := range dep.DependsOn() {
		if _, ok := p.extractors[d]; !ok {
			return fmt.Errorf("%s depends on unknown field %s", k, d)
		}
		if err := p.checkDeps(d, visiting); err != nil {
			return err
		}
	}
	return nil
}

// Parse extracts every field kind from pages. Each kind is extracted exactly once.
func (p *Parser) Parse(pages *annotation.PageSet) *Aggregate {
	start := time.Now()
	agg := &Aggregate{results: make(map[constants.FieldKind]*fields.Result, len(p.extractors)), logger: p.logger}
	for _, k := range constants.AllFieldKinds() {
		p.extract(pages, k, agg.results)
	}
	if pages != nil && pages.Document() != nil {
		agg.Document = pages.Document().Stem()
	}

	found := 0
	for _, r := range agg.results {
		if r.Readable() {
			found++
		}
	}
	p.logger.Info("parser.parse.ok",
		"doc", agg.Document,
		"fields", len(agg.results),
		"values_found", found,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return agg
}

func (p *Parser) extract(pages *annotation.PageSet, k constants.FieldKind, done map[constants.FieldKind]*fields.Result) *fields.Result {
	if r, ok := done[k]; ok {
		return r
	}
	var r *fields.Result
	if dep, ok := p.extractors[k].(fields.DependentExtractor); ok {
		deps := make(map[constants.FieldKind]*fields.Result, len(dep.DependsOn()))
		for _, d := range dep.DependsOn() {
			deps[d] = p.extract(pages, d, done)
		}
		r = dep.ExtractWith(pages, deps)
	} else {
		r = p.extractors[k].Extract(pages)
	}
	done[k] = r
	return r
}

// Aggregate is the result of one Parse.
type Aggregate struct {
	Document string
	results  map[constants.FieldKind]*fields.Result
	logger   *slog.Logger
}

// Get returns the result for kind.
func (a *Aggregate) Get(kind constants.FieldKind) (*fields.Result, bool) {
	r, ok := a.results[kind]
	return r, ok
}

// Records builds boundary records for kinds, in the order given. An empty list
// means every kind in canonical order. Kinds must already be validated.
func (a *Aggregate) Records(kinds []constants.FieldKind) []FieldRecord {
	if len(kinds) == 0 {
		kinds = constants.AllFieldKinds()
	}
	out := make([]FieldRecord, 0, len(kinds))
	for _, k := range kinds {
		if r, ok := a.results[k]; ok {
			out = append(out, NewFieldRecord(r, a.logger))
		}
	}
	return out
}

// Summary is what the boundary returns for one document.
type Summary struct {
	Document      string        `json:"document"`
	Fields        []FieldRecord `json:"fields"`
	PayThisAmount int64         `json:"pay_this_amount"`
}

// Summarize returns the requested records plus the pay-this-amount, which is
// always computed from the full result set.
func (a *Aggregate) Summarize(kinds []constants.FieldKind) Summary {
	return Summary{
		Document:      a.Document,
		Fields:        a.Records(kinds),
		PayThisAmount: PayThisAmount(a.Records(nil)),
	}
}
