package parser

import (
	"log/slog"

	"github.com/joseph-ayodele/tax-parser/constants"
	"github.com/joseph-ayodele/tax-parser/internal/fields"
)

// FieldRecord is one extracted field as the boundary reports it.
type FieldRecord struct {
	Field               constants.FieldKind `json:"field"`
	StatementText       string              `json:"statement_text"`
	StatementPattern    string              `json:"statement_pattern"`
	ValueText           string              `json:"value_text"`
	ValueNormalizedText string              `json:"value_normalized_text"`
	ValuePattern        string              `json:"value_pattern"`
	PageNumber          int                 `json:"page_number"`
	NumericValue        int64               `json:"numeric_value"`
}

// NewFieldRecord flattens a result. NumericValue follows these rules:
//   - overpaid always reports the calculated value
//   - amount owed reports the calculated value when nothing was read, else the read value
//   - every other kind reports the read value
//
// A calculated value that could not be computed reports 0.
func NewFieldRecord(r *fields.Result, logger *slog.Logger) FieldRecord {
	rec := FieldRecord{
		Field:               r.Kind,
		StatementText:       r.Statement.Text(),
		StatementPattern:    r.Statement.Pattern(),
		ValueText:           r.Value.Text(),
		ValueNormalizedText: r.Value.NormalizedText(),
		ValuePattern:        r.Value.Pattern(),
		PageNumber:          r.Value.PageNumber(),
	}
	switch {
	case r.Kind == constants.Overpaid,
		r.Kind == constants.AmountOwed && rec.ValueText == "":
		if r.Calculated != nil {
			rec.NumericValue = *r.Calculated
		}
	default:
		rec.NumericValue = fields.ToInteger(rec.ValueText, logger)
	}
	return rec
}

// PayThisAmount is the signed bottom line: -owed when something is owed,
// +overpaid when a refund is due, 0 otherwise.
func PayThisAmount(records []FieldRecord) int64 {
	var owed, overpaid int64
	for _, r := range records {
		switch r.Field {
		case constants.AmountOwed:
			owed = r.NumericValue
		case constants.Overpaid:
			overpaid = r.NumericValue
		}
	}
	switch {
	case owed > 0:
		return -owed
	case overpaid > 0:
		return overpaid
	default:
		return 0
	}
}
