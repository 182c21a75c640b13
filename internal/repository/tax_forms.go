package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/tax-parser/constants"
	"github.com/joseph-ayodele/tax-parser/internal/common"
	"github.com/joseph-ayodele/tax-parser/internal/entity"
)

type TaxFormRepository interface {
	Create(ctx context.Context, fileName, filePath string, uploadedAt time.Time) (*entity.TaxForm, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.TaxForm, error)
	GetByPath(ctx context.Context, filePath string) (*entity.TaxForm, error)
	List(ctx context.Context) ([]*entity.TaxForm, error)
	SetStatus(ctx context.Context, id uuid.UUID, status constants.FormStatus, errMsg *string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type taxFormRepo struct {
	db     *DB
	logger *slog.Logger
}

func NewTaxFormRepository(db *DB, logger *slog.Logger) TaxFormRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &taxFormRepo{db: db, logger: logger}
}

var taxFormColumns = []string{"id", "file_name", "file_path", "status", "error_message", "uploaded_at", "parsed_at"}

func (r *taxFormRepo) Create(ctx context.Context, fileName, filePath string, uploadedAt time.Time) (*entity.TaxForm, error) {
	form := &entity.TaxForm{
		ID:         uuid.New(),
		FileName:   fileName,
		FilePath:   filePath,
		Status:     constants.FormStatusUploaded,
		UploadedAt: uploadedAt.UTC(),
	}
	q, args := r.db.builder().Insert("tax_forms").
		Columns("id", "file_name", "file_path", "status", "uploaded_at").
		Values(form.ID.String(), form.FileName, form.FilePath, string(form.Status), form.UploadedAt).
		Query()
	if err := r.db.drv.Exec(ctx, q, args, nil); err != nil {
		r.logger.Error("failed to create tax form", "file_path", filePath, "error", err)
		return nil, common.WrapError(fmt.Errorf("%w: %v", common.ErrDatabase, err), "create tax form")
	}
	return form, nil
}

func (r *taxFormRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.TaxForm, error) {
	return r.getOne(ctx, entsql.EQ("id", id.String()), "id", id.String())
}

func (r *taxFormRepo) GetByPath(ctx context.Context, filePath string) (*entity.TaxForm, error) {
	return r.getOne(ctx, entsql.EQ("file_path", filePath), "file_path", filePath)
}

func (r *taxFormRepo) getOne(ctx context.Context, p *entsql.Predicate, key, val string) (*entity.TaxForm, error) {
	b := r.db.builder()
	q, args := b.Select(taxFormColumns...).From(b.Table("tax_forms")).Where(p).Limit(1).Query()
	forms, err := r.query(ctx, q, args)
	if err != nil {
		r.logger.Error("failed to get tax form", key, val, "error", err)
		return nil, err
	}
	if len(forms) == 0 {
		return nil, common.NewAppError("NOT_FOUND", fmt.Sprintf("tax form %s=%s", key, val), common.ErrNotFound)
	}
	return forms[0], nil
}

func (r *taxFormRepo) List(ctx context.Context) ([]*entity.TaxForm, error) {
	b := r.db.builder()
	q, args := b.Select(taxFormColumns...).From(b.Table("tax_forms")).
		OrderBy(entsql.Desc("uploaded_at"), "file_name").
		Query()
	forms, err := r.query(ctx, q, args)
	if err != nil {
		r.logger.Error("failed to list tax forms", "error", err)
		return nil, err
	}
	return forms, nil
}

// SetStatus moves a form to status. errMsg is stored for FAILED and cleared
// otherwise; PARSED also stamps parsed_at.
func (r *taxFormRepo) SetStatus(ctx context.Context, id uuid.UUID, status constants.FormStatus, errMsg *string) error {
	u := r.db.builder().Update("tax_forms").Set("status", string(status))
	if errMsg != nil {
		u.Set("error_message", *errMsg)
	} else {
		u.SetNull("error_message")
	}
	if status == constants.FormStatusParsed {
		u.Set("parsed_at", time.Now().UTC())
	}
	q, args := u.Where(entsql.EQ("id", id.String())).Query()

	var res entsql.Result
	if err := r.db.drv.Exec(ctx, q, args, &res); err != nil {
		r.logger.Error("failed to set tax form status", "id", id, "status", status, "error", err)
		return common.WrapError(fmt.Errorf("%w: %v", common.ErrDatabase, err), "set tax form status")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.NewAppError("NOT_FOUND", fmt.Sprintf("tax form %s", id), common.ErrNotFound)
	}
	return nil
}

// Delete removes the form; its fields go with it.
func (r *taxFormRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.drv.Tx(ctx)
	if err != nil {
		return err
	}
	b := r.db.builder()
	qf, af := b.Delete("tax_fields").Where(entsql.EQ("tax_form_id", id.String())).Query()
	if err := tx.Exec(ctx, qf, af, nil); err != nil {
		_ = tx.Rollback()
		return common.WrapError(fmt.Errorf("%w: %v", common.ErrDatabase, err), "delete tax fields")
	}
	q, args := b.Delete("tax_forms").Where(entsql.EQ("id", id.String())).Query()
	var res entsql.Result
	if err := tx.Exec(ctx, q, args, &res); err != nil {
		_ = tx.Rollback()
		r.logger.Error("failed to delete tax form", "id", id, "error", err)
		return common.WrapError(fmt.Errorf("%w: %v", common.ErrDatabase, err), "delete tax form")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		_ = tx.Rollback()
		return common.NewAppError("NOT_FOUND", fmt.Sprintf("tax form %s", id), common.ErrNotFound)
	}
	return tx.Commit()
}

func (r *taxFormRepo) query(ctx context.Context, q string, args []any) ([]*entity.TaxForm, error) {
	var rows entsql.Rows
	if err := r.db.drv.Query(ctx, q, args, &rows); err != nil {
		return nil, common.WrapError(fmt.Errorf("%w: %v", common.ErrDatabase, err), "query tax forms")
	}
	defer rows.Close()

	var out []*entity.TaxForm
	for rows.Next() {
		var (
			id, status       string
			errMsg           entsql.NullString
			uploaded, parsed nullTime
			f                entity.TaxForm
		)
		if err := rows.Scan(&id, &f.FileName, &f.FilePath, &status, &errMsg, &uploaded, &parsed); err != nil {
			return nil, err
		}
		uid, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("tax form id %q: %w", id, err)
		}
		f.ID = uid
		f.Status = constants.FormStatus(status)
		if errMsg.Valid {
			msg := errMsg.String
			f.ErrorMessage = &msg
		}
		f.UploadedAt = uploaded.Time
		f.ParsedAt = parsed.ptr()
		out = append(out, &f)
	}
	return out, rows.Err()
}
