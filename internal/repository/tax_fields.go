package repository

import (
	"context"
	"fmt"
	"log/slog"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/tax-parser/constants"
	"github.com/joseph-ayodele/tax-parser/internal/common"
	"github.com/joseph-ayodele/tax-parser/internal/entity"
)

type TaxFieldRepository interface {
	// ReplaceForForm deletes the form's fields and inserts fields in one transaction.
	ReplaceForForm(ctx context.Context, formID uuid.UUID, fields []entity.TaxField) error
	ListByForm(ctx context.Context, formID uuid.UUID) ([]entity.TaxField, error)
	GetByFormAndKind(ctx context.Context, formID uuid.UUID, kind constants.FieldKind) (*entity.TaxField, error)
}

type taxFieldRepo struct {
	db     *DB
	logger *slog.Logger
}

func NewTaxFieldRepository(db *DB, logger *slog.Logger) TaxFieldRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &taxFieldRepo{db: db, logger: logger}
}

var taxFieldColumns = []string{
	"id", "tax_form_id", "tax_field",
	"instruction_text", "instruction_matched_pattern",
	"value_text", "value_normalized_text", "value_in_numeric", "value_matched_pattern",
	"page_number",
}

func (r *taxFieldRepo) ReplaceForForm(ctx context.Context, formID uuid.UUID, fields []entity.TaxField) error {
	tx, err := r.db.drv.Tx(ctx)
	if err != nil {
		return common.WrapError(fmt.Errorf("%w: %v", common.ErrDatabase, err), "begin")
	}
	b := r.db.builder()

	q, args := b.Delete("tax_fields").Where(entsql.EQ("tax_form_id", formID.String())).Query()
	if err := tx.Exec(ctx, q, args, nil); err != nil {
		_ = tx.Rollback()
		r.logger.Error("failed to clear tax fields", "form_id", formID, "error", err)
		return common.WrapError(fmt.Errorf("%w: %v", common.ErrDatabase, err), "clear tax fields")
	}

	if len(fields) > 0 {
		ins := b.Insert("tax_fields").Columns(taxFieldColumns...)
		for _, f := range fields {
			if f.TaxFormID != formID {
				_ = tx.Rollback()
				return common.NewAppError("INVALID_INPUT", fmt.Sprintf("field %s belongs to form %s", f.TaxField, f.TaxFormID), common.ErrInvalidInput)
			}
			ins.Values(
				f.ID.String(), formID.String(), string(f.TaxField),
				f.InstructionText, f.InstructionMatchedPattern,
				f.ValueText, f.ValueNormalizedText, f.ValueInNumeric, f.ValueMatchedPattern,
				f.PageNumber,
			)
		}
		q, args = ins.Query()
		if err := tx.Exec(ctx, q, args, nil); err != nil {
			_ = tx.Rollback()
			r.logger.Error("failed to insert tax fields", "form_id", formID, "count", len(fields), "error", err)
			return common.WrapError(fmt.Errorf("%w: %v", common.ErrDatabase, err), "insert tax fields")
		}
	}

	if err := tx.Commit(); err != nil {
		return common.WrapError(fmt.Errorf("%w: %v", common.ErrDatabase, err), "commit tax fields")
	}
	r.logger.Debug("tax fields replaced", "form_id", formID, "count", len(fields))
	return nil
}

// ListByForm returns the form's fields in canonical field order.
func (r *taxFieldRepo) ListByForm(ctx context.Context, formID uuid.UUID) ([]entity.TaxField, error) {
	b := r.db.builder()
	q, args := b.Select(taxFieldColumns...).From(b.Table("tax_fields")).
		Where(entsql.EQ("tax_form_id", formID.String())).
		Query()
	fields, err := r.query(ctx, q, args)
	if err != nil {
		r.logger.Error("failed to list tax fields", "form_id", formID, "error", err)
		return nil, err
	}

	order := make(map[constants.FieldKind]int)
	for i, k := range constants.AllFieldKinds() {
		order[k] = i
	}
	sorted := make([]entity.TaxField, 0, len(fields))
	for _, k := range constants.AllFieldKinds() {
		for _, f := range fields {
			if f.TaxField == k {
				sorted = append(sorted, f)
			}
		}
	}
	for _, f := range fields {
		if _, known := order[f.TaxField]; !known {
			sorted = append(sorted, f)
		}
	}
	return sorted, nil
}

func (r *taxFieldRepo) GetByFormAndKind(ctx context.Context, formID uuid.UUID, kind constants.FieldKind) (*entity.TaxField, error) {
	b := r.db.builder()
	q, args := b.Select(taxFieldColumns...).From(b.Table("tax_fields")).
		Where(entsql.And(
			entsql.EQ("tax_form_id", formID.String()),
			entsql.EQ("tax_field", string(kind)),
		)).
		Query()
	fields, err := r.query(ctx, q, args)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, common.NewAppError("NOT_FOUND", fmt.Sprintf("tax field %s of form %s", kind, formID), common.ErrNotFound)
	}
	return &fields[0], nil
}

func (r *taxFieldRepo) query(ctx context.Context, q string, args []any) ([]entity.TaxField, error) {
	var rows entsql.Rows
	if err := r.db.drv.Query(ctx, q, args, &rows); err != nil {
		return nil, common.WrapError(fmt.Errorf("%w: %v", common.ErrDatabase, err), "query tax fields")
	}
	defer rows.Close()

	var out []entity.TaxField
	for rows.Next() {
		var (
			id, formID, kind string
			f                entity.TaxField
		)
		if err := rows.Scan(&id, &formID, &kind,
			&f.InstructionText, &f.InstructionMatchedPattern,
			&f.ValueText, &f.ValueNormalizedText, &f.ValueInNumeric, &f.ValueMatchedPattern,
			&f.PageNumber,
		); err != nil {
			return nil, err
		}
		var err error
		if f.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("tax field id %q: %w", id, err)
		}
		if f.TaxFormID, err = uuid.Parse(formID); err != nil {
			return nil, fmt.Errorf("tax form id %q: %w", formID, err)
		}
		f.TaxField = constants.FieldKind(kind)
		out = append(out, f)
	}
	return out, rows.Err()
}
