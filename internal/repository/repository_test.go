package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/tax-parser/constants"
	"github.com/joseph-ayodele/tax-parser/internal/common"
	"github.com/joseph-ayodele/tax-parser/internal/entity"
	"github.com/joseph-ayodele/tax-parser/internal/parser"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), Config{DSN: ":memory:"}, nil)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	return db
}

func TestOpenSQLiteAndHealthCheck(t *testing.T) {
	db := openTestDB(t)
	assert.Equal(t, "sqlite3", db.Dialect())
	require.NoError(t, db.HealthCheck(context.Background(), time.Second))
	// migrations are idempotent
	require.NoError(t, db.Migrate(context.Background()))
}

func TestTaxFormLifecycle(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	forms := NewTaxFormRepository(db, nil)

	uploaded := time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)
	f, err := forms.Create(ctx, "7.pdf", "/w/7.pdf", uploaded)
	require.NoError(t, err)
	assert.Equal(t, constants.FormStatusUploaded, f.Status)

	got, err := forms.GetByID(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, "7.pdf", got.FileName)
	assert.True(t, uploaded.Equal(got.UploadedAt))
	assert.Nil(t, got.ParsedAt)
	assert.Nil(t, got.ErrorMessage)

	byPath, err := forms.GetByPath(ctx, "/w/7.pdf")
	require.NoError(t, err)
	assert.Equal(t, f.ID, byPath.ID)

	_, err = forms.Create(ctx, "7.pdf", "/w/7.pdf", uploaded)
	assert.ErrorIs(t, err, common.ErrDatabase)

	msg := "recognize page 1: boom"
	require.NoError(t, forms.SetStatus(ctx, f.ID, constants.FormStatusFailed, &msg))
	got, _ = forms.GetByID(ctx, f.ID)
	assert.Equal(t, constants.FormStatusFailed, got.Status)
	require.NotNil(t, got.ErrorMessage)
	assert.Equal(t, msg, *got.ErrorMessage)

	require.NoError(t, forms.SetStatus(ctx, f.ID, constants.FormStatusParsed, nil))
	got, _ = forms.GetByID(ctx, f.ID)
	assert.Nil(t, got.ErrorMessage)
	assert.NotNil(t, got.ParsedAt)

	_, err = forms.Create(ctx, "8c.pdf", "/w/8c.pdf", uploaded.Add(time.Hour))
	require.NoError(t, err)
	list, err := forms.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "8c.pdf", list[0].FileName)

	require.NoError(t, forms.Delete(ctx, f.ID))
	_, err = forms.GetByID(ctx, f.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.ErrorIs(t, forms.Delete(ctx, f.ID), common.ErrNotFound)
	assert.ErrorIs(t, forms.SetStatus(ctx, uuid.New(), constants.FormStatusRunning, nil), common.ErrNotFound)
}

func TestTaxFieldsReplace(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	forms := NewTaxFormRepository(db, nil)
	fields := NewTaxFieldRepository(db, nil)

	f, err := forms.Create(ctx, "7.pdf", "/w/7.pdf", time.Now())
	require.NoError(t, err)

	recs := []parser.FieldRecord{
		{Field: constants.Overpaid, StatementText: "This is the amount you overpaid", ValueText: "7. 169.", ValueNormalizedText: "7.169.", PageNumber: 1, NumericValue: 7469},
		{Field: constants.TotalIncome, StatementText: "This is your total income", ValueText: "220,640.", PageNumber: 0, NumericValue: 220640},
	}
	rows := make([]entity.TaxField, len(recs))
	for i, r := range recs {
		rows[i] = entity.NewTaxField(f.ID, r)
	}
	require.NoError(t, fields.ReplaceForForm(ctx, f.ID, rows))

	list, err := fields.ListByForm(ctx, f.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, constants.TotalIncome, list[0].TaxField)
	assert.Equal(t, recs[0], list[1].Record())

	// re-parse replaces instead of duplicating
	rows = []entity.TaxField{entity.NewTaxField(f.ID, parser.FieldRecord{Field: constants.TotalTax, PageNumber: -1})}
	require.NoError(t, fields.ReplaceForForm(ctx, f.ID, rows))
	list, err = fields.ListByForm(ctx, f.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, -1, list[0].PageNumber)

	one, err := fields.GetByFormAndKind(ctx, f.ID, constants.TotalTax)
	require.NoError(t, err)
	assert.Equal(t, rows[0].ID, one.ID)
	_, err = fields.GetByFormAndKind(ctx, f.ID, constants.AmountOwed)
	assert.ErrorIs(t, err, common.ErrNotFound)

	dup := []entity.TaxField{
		entity.NewTaxField(f.ID, parser.FieldRecord{Field: constants.TotalTax}),
		entity.NewTaxField(f.ID, parser.FieldRecord{Field: constants.TotalTax}),
	}
	assert.Error(t, fields.ReplaceForForm(ctx, f.ID, dup))
	list, _ = fields.ListByForm(ctx, f.ID)
	assert.Len(t, list, 1, "failed replace must roll back")

	require.NoError(t, forms.Delete(ctx, f.ID))
	list, err = fields.ListByForm(ctx, f.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}
