package pagecache

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/tax-parser/internal/annotation"
)

// record is the persisted form of one annotation.
type record struct {
	Text   string     `json:"text"`
	BBox   [4]float64 `json:"bbox"`
	Center [2]float64 `json:"center"`
}

const recordSchema = `{
  "type": "array",
  "items": {
    "type": "object",
    "required": ["text", "bbox", "center"],
    "properties": {
      "text":   {"type": "string"},
      "bbox":   {"type": "array", "items": {"type": "number"}, "minItems": 4, "maxItems": 4},
      "center": {"type": "array", "items": {"type": "number"}, "minItems": 2, "maxItems": 2}
    }
  }
}`

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func pageSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("page.json", strings.NewReader(recordSchema)); err != nil {
			schemaErr = fmt.Errorf("add schema: %w", err)
			return
		}
		schema, schemaErr = compiler.Compile("page.json")
	})
	return schema, schemaErr
}

// EncodeRecord serializes annotations as an indented JSON array.
func EncodeRecord(anns []annotation.Annotation) ([]byte, error) {
	recs := make([]record, len(anns))
	for i, a := range anns {
		recs[i] = record{Text: a.Text(), BBox: a.BBox(), Center: a.Center()}
	}
	return json.MarshalIndent(recs, "", "    ")
}

// DecodeRecord validates data against the record schema and rebuilds the
// annotations. Centers are derived from the boxes again, not trusted from disk.
func DecodeRecord(data []byte) ([]annotation.Annotation, error) {
	sch, err := pageSchema()
	if err != nil {
		return nil, err
	}
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal record: %w", err)
	}
	if err := sch.Validate(raw); err != nil {
		return nil, fmt.Errorf("record does not match schema: %w", err)
	}

	var recs []record
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("unmarshal record: %w", err)
	}
	anns := make([]annotation.Annotation, len(recs))
	for i, r := range recs {
		anns[i] = annotation.New(r.Text, annotation.BBox(r.BBox))
	}
	return anns, nil
}
