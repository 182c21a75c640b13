package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/tax-parser/internal/entity"
	"github.com/joseph-ayodele/tax-parser/internal/parser"
	"github.com/joseph-ayodele/tax-parser/internal/repository"
)

const (
	FieldsSheet  = "TaxFields"
	SummarySheet = "Summary"
)

// Report is one form's worth of rows.
type Report struct {
	Form    string // file name
	Path    string
	Status  string
	Records []parser.FieldRecord
}

// Service is a small façade over the repositories that produces XLSX bytes.
type Service struct {
	forms  repository.TaxFormRepository
	fields repository.TaxFieldRepository
	logger *slog.Logger
}

func NewService(forms repository.TaxFormRepository, fields repository.TaxFieldRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{forms: forms, fields: fields, logger: logger}
}

// ExportTaxFormsXLSX returns a workbook for the given forms, or every form when
// ids is empty. Forms that were never parsed appear in the summary with no fields.
func (s *Service) ExportTaxFormsXLSX(ctx context.Context, ids []uuid.UUID) ([]byte, error) {
	start := time.Now()

	var forms []*entity.TaxForm
	if len(ids) == 0 {
		all, err := s.forms.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("query tax forms: %w", err)
		}
		forms = all
	} else {
		for _, id := range ids {
			f, err := s.forms.GetByID(ctx, id)
			if err != nil {
				return nil, err
			}
			forms = append(forms, f)
		}
	}

	reports := make([]Report, 0, len(forms))
	for _, f := range forms {
		rows, err := s.fields.ListByForm(ctx, f.ID)
		if err != nil {
			return nil, fmt.Errorf("query tax fields: %w", err)
		}
		reports = append(reports, Report{
			Form:    f.FileName,
			Path:    f.FilePath,
			Status:  string(f.Status),
			Records: entity.Records(rows),
		})
	}

	out, err := Workbook(reports)
	if err != nil {
		return nil, err
	}
	s.logger.Info("export.xlsx.ok",
		"forms", len(reports),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

// Workbook renders reports as XLSX bytes: one row per extracted field on the
// TaxFields sheet and one row per form on the Summary sheet.
func Workbook(reports []Report) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", FieldsSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(SummarySheet); err != nil {
		return nil, err
	}
	activeIndex, _ := f.GetSheetIndex(FieldsSheet)
	f.SetActiveSheet(activeIndex)

	header := func(sheet string, headers []string) {
		for i, h := range headers {
			cell, _ := excelize.CoordinatesToCellName(i+1, 1)
			_ = f.SetCellValue(sheet, cell, h)
		}
	}
	header(FieldsSheet, []string{
		"Form", "File", "Field", "Instruction", "Value Text", "Numeric", "Page",
		"Statement Pattern", "Value Pattern",
	})
	header(SummarySheet, []string{"Form", "File", "Status", "Fields Found", "Pay This Amount"})

	row := 2
	for si, r := range reports {
		write := func(sheet string, col, row int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		found := 0
		for _, rec := range r.Records {
			if rec.ValueText != "" {
				found++
			}
			write(FieldsSheet, 1, row, r.Form)
			write(FieldsSheet, 2, row, r.Path)
			write(FieldsSheet, 3, row, rec.Field.Label())
			write(FieldsSheet, 4, row, truncate(rec.StatementText, 140))
			write(FieldsSheet, 5, row, rec.ValueText)
			write(FieldsSheet, 6, row, rec.NumericValue)
			// 1-based for readers; -1 stays as "not found"
			if rec.PageNumber >= 0 {
				write(FieldsSheet, 7, row, rec.PageNumber+1)
			} else {
				write(FieldsSheet, 7, row, "")
			}
			write(FieldsSheet, 8, row, rec.StatementPattern)
			write(FieldsSheet, 9, row, rec.ValuePattern)
			row++
		}

		write(SummarySheet, 1, si+2, r.Form)
		write(SummarySheet, 2, si+2, r.Path)
		write(SummarySheet, 3, si+2, r.Status)
		write(SummarySheet, 4, si+2, found)
		write(SummarySheet, 5, si+2, parser.PayThisAmount(r.Records))
	}

	_ = f.SetColWidth(FieldsSheet, "A", "A", 16)
	_ = f.SetColWidth(FieldsSheet, "B", "B", 40)
	_ = f.SetColWidth(FieldsSheet, "C", "C", 24)
	_ = f.SetColWidth(FieldsSheet, "D", "D", 60)
	_ = f.SetColWidth(FieldsSheet, "E", "G", 14)
	_ = f.SetColWidth(FieldsSheet, "H", "I", 40)
	_ = f.SetColWidth(SummarySheet, "A", "A", 16)
	_ = f.SetColWidth(SummarySheet, "B", "B", 40)
	_ = f.SetColWidth(SummarySheet, "C", "E", 16)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
