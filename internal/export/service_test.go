package export

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/tax-parser/constants"
	"github.com/joseph-ayodele/tax-parser/internal/common"
	"github.com/joseph-ayodele/tax-parser/internal/entity"
	"github.com/joseph-ayodele/tax-parser/internal/parser"
	"github.com/joseph-ayodele/tax-parser/internal/repository"
)

func open(t *testing.T, data []byte) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestWorkbookLayout(t *testing.T) {
	data, err := Workbook([]Report{{
		Form: "8c.pdf", Path: "/w/8c.pdf", Status: "PARSED",
		Records: []parser.FieldRecord{
			{Field: constants.TotalIncome, PageNumber: -1},
			{Field: constants.AmountOwed, StatementText: "This is the amount you owe", ValueText: "1,041.", PageNumber: 0, NumericValue: 1041},
		},
	}})
	require.NoError(t, err)
	f := open(t, data)

	assert.Equal(t, []string{FieldsSheet, SummarySheet}, f.GetSheetList())
	rows, err := f.GetRows(FieldsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Statement Pattern", rows[0][7])
	assert.Equal(t, "Total Income", rows[1][2])
	assert.Equal(t, "Amount Owed", rows[2][2])
	assert.Equal(t, "1041", rows[2][5])
	assert.Equal(t, "1", rows[2][6])

	sum, err := f.GetRows(SummarySheet)
	require.NoError(t, err)
	require.Len(t, sum, 2)
	assert.Equal(t, []string{"8c.pdf", "/w/8c.pdf", "PARSED", "1", "-1041"}, sum[1])
}

func TestExportTaxFormsXLSX(t *testing.T) {
	ctx := context.Background()
	db, err := repository.Open(ctx, repository.Config{DSN: ":memory:"}, nil)
	require.NoError(t, err)
	defer db.Close()
	forms := repository.NewTaxFormRepository(db, nil)
	fields := repository.NewTaxFieldRepository(db, nil)
	svc := NewService(forms, fields, nil)

	a, err := forms.Create(ctx, "7.pdf", "/w/7.pdf", time.Now())
	require.NoError(t, err)
	_, err = forms.Create(ctx, "8c.pdf", "/w/8c.pdf", time.Now())
	require.NoError(t, err)
	require.NoError(t, fields.ReplaceForForm(ctx, a.ID, []entity.TaxField{
		entity.NewTaxField(a.ID, parser.FieldRecord{Field: constants.Overpaid, ValueText: "7. 169.", NumericValue: 7469, PageNumber: 1}),
	}))

	data, err := svc.ExportTaxFormsXLSX(ctx, []uuid.UUID{a.ID})
	require.NoError(t, err)
	sum, _ := open(t, data).GetRows(SummarySheet)
	require.Len(t, sum, 2)
	assert.Equal(t, "7469", sum[1][4])

	data, err = svc.ExportTaxFormsXLSX(ctx, nil)
	require.NoError(t, err)
	sum, _ = open(t, data).GetRows(SummarySheet)
	assert.Len(t, sum, 3)

	_, err = svc.ExportTaxFormsXLSX(ctx, []uuid.UUID{uuid.New()})
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab…", truncate("abcdef", 3))
}
