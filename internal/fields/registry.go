package fields

import (
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/tax-parser/constants"
	"github.com/joseph-ayodele/tax-parser/internal/common"
)

// TypeOf returns a fresh extractor for kind. Unknown kinds fail with
// ErrUnknownFieldKind; there is no default extractor.
func TypeOf(kind constants.FieldKind, logger *slog.Logger) (Extractor, error) {
	set, ok := PatternsFor(kind)
	if !ok {
		return nil, fmt.Errorf("%w: %q", common.ErrUnknownFieldKind, kind)
	}
	switch kind {
	case constants.AmountOwed:
		return NewDerivedField(set, constants.TotalTax, constants.TotalPayments, Shortfall, logger), nil
	case constants.Overpaid:
		return NewDerivedField(set, constants.TotalTax, constants.TotalPayments, Surplus, logger), nil
	default:
		return NewField(set, logger), nil
	}
}

// TypeOfName resolves an externally supplied identifier ("total_tax", "Total Tax", "owed").
func TypeOfName(name string, logger *slog.Logger) (Extractor, error) {
	k, err := kindOf(name)
	if err != nil {
		return nil, err
	}
	return TypeOf(k, logger)
}

func kindOf(name string) (constants.FieldKind, error) {
	k, ok := constants.Canonicalize(name)
	if !ok {
		return "", fmt.Errorf("%w: %q", common.ErrUnknownFieldKind, name)
	}
	return k, nil
}

// ParseKinds validates identifiers before any work starts. An empty list means all kinds.
func ParseKinds(names []string) ([]constants.FieldKind, error) {
	if len(names) == 0 {
		return constants.AllFieldKinds(), nil
	}
	out := make([]constants.FieldKind, 0, len(names))
	seen := make(map[constants.FieldKind]struct{}, len(names))
	for _, n := range names {
		k, err := kindOf(n)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out, nil
}
