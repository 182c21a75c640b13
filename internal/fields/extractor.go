package fields

import (
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/tax-parser/constants"
	"github.com/joseph-ayodele/tax-parser/internal/annotation"
	"github.com/joseph-ayodele/tax-parser/internal/common"
)

// Result is one field extracted from one document.
type Result struct {
	Kind      constants.FieldKind
	Statement annotation.Match
	Value     annotation.Match
	// Calculated is set only for derived kinds, and only when both inputs were readable.
	Calculated *int64
}

// Readable reports whether a value text was located.
func (r *Result) Readable() bool {
	return r != nil && r.Value.Text() != ""
}

// Numeric is ToInteger of the located value text.
func (r *Result) Numeric(logger *slog.Logger) int64 {
	if r == nil {
		return 0
	}
	return ToInteger(r.Value.Text(), logger)
}

// Err turns absence into ErrPatternExhausted for callers that want an error.
func (r *Result) Err() error {
	switch {
	case r == nil:
		return fmt.Errorf("%w: no result", common.ErrPatternExhausted)
	case !r.Statement.Found():
		return fmt.Errorf("%w: %s statement", common.ErrPatternExhausted, r.Kind)
	case !r.Value.Found():
		return fmt.Errorf("%w: %s value", common.ErrPatternExhausted, r.Kind)
	}
	return nil
}

// Extractor binds a field kind to its pattern set.
type Extractor interface {
	Kind() constants.FieldKind
	Patterns() PatternSet
	Extract(pages *annotation.PageSet) *Result
}

// DependentExtractor is a derived field. ExtractWith receives its inputs already
// extracted; Extract builds them itself.
type DependentExtractor interface {
	Extractor
	DependsOn() []constants.FieldKind
	ExtractWith(pages *annotation.PageSet, deps map[constants.FieldKind]*Result) *Result
}

// Field locates a statement then the value beside it.
type Field struct {
	set    PatternSet
	logger *slog.Logger
}

func NewField(set PatternSet, logger *slog.Logger) *Field {
	if logger == nil {
		logger = slog.Default()
	}
	return &Field{set: set, logger: logger}
}

func (f *Field) Kind() constants.FieldKind { return f.set.Kind }
func (f *Field) Patterns() PatternSet      { return f.set }

func (f *Field) Extract(pages *annotation.PageSet) *Result {
	stmt := LocateStatement(pages, f.set.Statements)
	val := LocateValue(stmt, f.set.Values)

	attrs := []any{"field", string(f.set.Kind), "page", val.PageNumber()}
	switch {
	case !stmt.Found():
		f.logger.Debug("fields.statement.absent", attrs...)
	case !val.Found():
		f.logger.Debug("fields.value.absent", append(attrs, "statement", stmt.Text())...)
	default:
		f.logger.Debug("fields.value.ok", append(attrs, "value", val.Text(), "pattern", val.Pattern())...)
	}
	return &Result{Kind: f.set.Kind, Statement: stmt, Value: val}
}
