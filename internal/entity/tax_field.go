package entity

import (
	"github.com/google/uuid"

	"github.com/joseph-ayodele/tax-parser/constants"
	"github.com/joseph-ayodele/tax-parser/internal/parser"
)

// TaxField is one stored field of a parsed tax form.
type TaxField struct {
	ID                        uuid.UUID           `json:"id"`
	TaxFormID                 uuid.UUID           `json:"tax_form_id"`
	TaxField                  constants.FieldKind `json:"tax_field"`
	InstructionText           string              `json:"instruction_text"`
	InstructionMatchedPattern string              `json:"instruction_matched_pattern"`
	ValueText                 string              `json:"value_text"`
	ValueNormalizedText       string              `json:"value_normalized_text"`
	ValueInNumeric            int64               `json:"value_in_numeric"`
	ValueMatchedPattern       string              `json:"value_matched_pattern"`
	PageNumber                int                 `json:"page_number"`
}

// NewTaxField maps a parser record onto a storable row with a fresh ID.
func NewTaxField(formID uuid.UUID, rec parser.FieldRecord) TaxField {
	return TaxField{
		ID:                        uuid.New(),
		TaxFormID:                 formID,
		TaxField:                  rec.Field,
		InstructionText:           rec.StatementText,
		InstructionMatchedPattern: rec.StatementPattern,
		ValueText:                 rec.ValueText,
		ValueNormalizedText:       rec.ValueNormalizedText,
		ValueInNumeric:            rec.NumericValue,
		ValueMatchedPattern:       rec.ValuePattern,
		PageNumber:                rec.PageNumber,
	}
}

// Record converts back to the boundary shape.
func (f TaxField) Record() parser.FieldRecord {
	return parser.FieldRecord{
		Field:               f.TaxField,
		StatementText:       f.InstructionText,
		StatementPattern:    f.InstructionMatchedPattern,
		ValueText:           f.ValueText,
		ValueNormalizedText: f.ValueNormalizedText,
		ValuePattern:        f.ValueMatchedPattern,
		PageNumber:          f.PageNumber,
		NumericValue:        f.ValueInNumeric,
	}
}

// Records converts a stored field list back to boundary records.
func Records(fields []TaxField) []parser.FieldRecord {
	out := make([]parser.FieldRecord, len(fields))
	for i, f := range fields {
		out[i] = f.Record()
	}
	return out
}
