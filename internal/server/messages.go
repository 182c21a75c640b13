package server

import (
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/tax-parser/internal/entity"
	"github.com/joseph-ayodele/tax-parser/internal/parser"
)

func stringField(s *structpb.Struct, key string) string {
	return s.GetFields()[key].GetStringValue()
}

func boolField(s *structpb.Struct, key string) bool {
	return s.GetFields()[key].GetBoolValue()
}

// stringList accepts a list of strings or a single string.
func stringList(s *structpb.Struct, key string) []string {
	v, ok := s.GetFields()[key]
	if !ok {
		return nil
	}
	if str, ok := v.GetKind().(*structpb.Value_StringValue); ok {
		return []string{str.StringValue}
	}
	var out []string
	for _, item := range v.GetListValue().GetValues() {
		out = append(out, item.GetStringValue())
	}
	return out
}

func formMap(f *entity.TaxForm) map[string]any {
	m := map[string]any{
		"id":          f.ID.String(),
		"file_name":   f.FileName,
		"file_path":   f.FilePath,
		"status":      string(f.Status),
		"uploaded_at": f.UploadedAt.UTC().Format(time.RFC3339),
	}
	if f.ErrorMessage != nil {
		m["error_message"] = *f.ErrorMessage
	}
	if f.ParsedAt != nil {
		m["parsed_at"] = f.ParsedAt.UTC().Format(time.RFC3339)
	}
	return m
}

func recordMap(r parser.FieldRecord) map[string]any {
	return map[string]any{
		"field":                 string(r.Field),
		"label":                 r.Field.Label(),
		"statement_text":        r.StatementText,
		"statement_pattern":     r.StatementPattern,
		"value_text":            r.ValueText,
		"value_normalized_text": r.ValueNormalizedText,
		"value_pattern":         r.ValuePattern,
		"page_number":           r.PageNumber,
		"numeric_value":         r.NumericValue,
	}
}

func recordsList(recs []parser.FieldRecord) []any {
	out := make([]any, len(recs))
	for i, r := range recs {
		out[i] = recordMap(r)
	}
	return out
}

// formResult is the response for every call that returns one parsed form.
func formResult(f *entity.TaxForm, recs []parser.FieldRecord, payThisAmount int64) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"form":            formMap(f),
		"tax_fields":      recordsList(recs),
		"pay_this_amount": payThisAmount,
	})
}
