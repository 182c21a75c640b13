package server

import (
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/tax-parser/constants"
	"github.com/joseph-ayodele/tax-parser/internal/common"
	"github.com/joseph-ayodele/tax-parser/internal/entity"
	"github.com/joseph-ayodele/tax-parser/internal/export"
	"github.com/joseph-ayodele/tax-parser/internal/fields"
	"github.com/joseph-ayodele/tax-parser/internal/ingest"
	"github.com/joseph-ayodele/tax-parser/internal/pagecache"
	"github.com/joseph-ayodele/tax-parser/internal/parser"
	"github.com/joseph-ayodele/tax-parser/internal/pipeline"
	"github.com/joseph-ayodele/tax-parser/internal/repository"
)

type TaxFormService struct {
	forms     repository.TaxFormRepository
	fields    repository.TaxFieldRepository
	processor *pipeline.Processor
	ingestor  ingest.Ingestor
	exporter  *export.Service
	layout    pagecache.Layout
	logger    *slog.Logger
}

func NewTaxFormService(
	forms repository.TaxFormRepository,
	taxFields repository.TaxFieldRepository,
	proc *pipeline.Processor,
	ing ingest.Ingestor,
	exporter *export.Service,
	layout pagecache.Layout,
	logger *slog.Logger,
) *TaxFormService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaxFormService{
		forms:     forms,
		fields:    taxFields,
		processor: proc,
		ingestor:  ing,
		exporter:  exporter,
		layout:    layout,
		logger:    logger,
	}
}

var _ TaxFormServiceServer = (*TaxFormService)(nil)

// requestedKinds validates tax_fields before any work starts.
func requestedKinds(req *structpb.Struct) ([]constants.FieldKind, error) {
	kinds, err := fields.ParseKinds(stringList(req, "tax_fields"))
	if err != nil {
		return nil, common.InvalidArgumentError(err.Error())
	}
	return kinds, nil
}

func formID(req *structpb.Struct) (uuid.UUID, error) {
	raw := strings.TrimSpace(stringField(req, "id"))
	if err := common.ValidateAndReturnError(common.NewValidator().Field("id", raw, common.Required, common.UUID)); err != nil {
		return uuid.Nil, err
	}
	return uuid.MustParse(raw), nil
}

// UploadTaxForm stores the PDF bytes, registers the form and parses it before returning.
// Uploading a file name again replaces the earlier upload and its cached pages.
func (s *TaxFormService) UploadTaxForm(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	kinds, err := requestedKinds(req)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(stringField(req, "file_name"))
	v := common.NewValidator().Field("file_name", name, common.Required, common.PDFFileName)
	content, decErr := base64.StdEncoding.DecodeString(stringField(req, "content"))
	if decErr != nil {
		return nil, common.InvalidArgumentError("content must be base64")
	}
	v.Field("content", content, common.Required)
	if err := common.ValidateAndReturnError(v); err != nil {
		s.logger.Error("invalid upload request", "file_name", name, "error", err)
		return nil, err
	}

	path := s.layout.SourcePath(name)
	form, err := s.forms.GetByPath(ctx, path)
	switch {
	case err == nil:
	case errors.Is(err, common.ErrNotFound):
		form = nil
		if err := ingest.CheckStem(ctx, s.forms, path); err != nil {
			s.logger.Error("upload rejected", "file_name", name, "error", err)
			return nil, common.ToStatus(err)
		}
	default:
		return nil, common.ToStatus(err)
	}

	file, err := s.layout.Store(name, content)
	if err != nil {
		s.logger.Error("failed to store upload", "file_name", name, "error", err)
		return nil, common.InternalErrorf("store upload: %v", err)
	}

	if form != nil {
		if err := s.processor.Forget(form); err != nil {
			return nil, common.ToStatus(err)
		}
	} else {
		form, err = s.forms.Create(ctx, name, file.Path, time.Now())
		if err != nil {
			return nil, common.ToStatus(err)
		}
	}
	s.logger.Info("tax form uploaded", "form_id", form.ID, "file_name", name, "bytes", len(content))

	return s.parse(ctx, form.ID, kinds, false)
}

// ParseTaxForm parses an already registered form again.
func (s *TaxFormService) ParseTaxForm(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	kinds, err := requestedKinds(req)
	if err != nil {
		return nil, err
	}
	id, err := formID(req)
	if err != nil {
		return nil, err
	}
	return s.parse(ctx, id, kinds, boolField(req, "force"))
}

func (s *TaxFormService) parse(ctx context.Context, id uuid.UUID, kinds []constants.FieldKind, force bool) (*structpb.Struct, error) {
	agg, err := s.processor.ProcessForm(ctx, id, force)
	if err != nil {
		s.logger.Error("pipeline.failed", "form_id", id, "error", err)
		return nil, common.ToStatus(err)
	}
	form, err := s.forms.GetByID(ctx, id)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	sum := agg.Summarize(kinds)
	return formResult(form, sum.Fields, sum.PayThisAmount)
}

// GetTaxForm returns the form with its stored fields, optionally narrowed by tax_fields.
func (s *TaxFormService) GetTaxForm(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	kinds, err := requestedKinds(req)
	if err != nil {
		return nil, err
	}
	id, err := formID(req)
	if err != nil {
		return nil, err
	}
	form, err := s.forms.GetByID(ctx, id)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	rows, err := s.fields.ListByForm(ctx, id)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	all := entity.Records(rows)
	return formResult(form, filterRecords(all, kinds), parser.PayThisAmount(all))
}

func filterRecords(recs []parser.FieldRecord, kinds []constants.FieldKind) []parser.FieldRecord {
	if len(kinds) == 0 {
		return recs
	}
	byKind := make(map[constants.FieldKind]parser.FieldRecord, len(recs))
	for _, r := range recs {
		byKind[r.Field] = r
	}
	out := make([]parser.FieldRecord, 0, len(kinds))
	for _, k := range kinds {
		if r, ok := byKind[k]; ok {
			out = append(out, r)
		}
	}
	return out
}

func (s *TaxFormService) ListTaxForms(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	forms, err := s.forms.List(ctx)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	out := make([]any, len(forms))
	for i, f := range forms {
		out[i] = formMap(f)
	}
	return structpb.NewStruct(map[string]any{"forms": out})
}

// DeleteTaxForm removes the form, its fields and its cached pages. An uploaded
// source file is removed too; files registered from elsewhere are left alone.
func (s *TaxFormService) DeleteTaxForm(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := formID(req)
	if err != nil {
		return nil, err
	}
	form, err := s.forms.GetByID(ctx, id)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	if err := s.forms.Delete(ctx, id); err != nil {
		return nil, common.ToStatus(err)
	}
	if err := s.processor.Forget(form); err != nil {
		s.logger.Warn("failed to drop cached pages", "form_id", id, "error", err)
	}
	if filepath.Dir(form.FilePath) == filepath.Clean(s.layout.Root) {
		if err := os.Remove(form.FilePath); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("failed to remove uploaded file", "path", form.FilePath, "error", err)
		}
	}
	s.logger.Info("tax form deleted", "form_id", id)
	return structpb.NewStruct(map[string]any{"id": id.String(), "deleted": true})
}

func (s *TaxFormService) ListFieldKinds(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	kinds := constants.AllFieldKinds()
	out := make([]any, len(kinds))
	for i, k := range kinds {
		out[i] = map[string]any{"field": string(k), "label": k.Label(), "derived": k.IsDerived()}
	}
	return structpb.NewStruct(map[string]any{"field_kinds": out})
}

// ExportTaxForms returns a base64 XLSX for ids, or for every form when ids is empty.
func (s *TaxFormService) ExportTaxForms(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	raw := stringList(req, "ids")
	ids := make([]uuid.UUID, 0, len(raw))
	for _, r := range raw {
		id, err := uuid.Parse(strings.TrimSpace(r))
		if err != nil {
			return nil, common.InvalidArgumentErrorf("ids: %q must be a valid UUID", r)
		}
		ids = append(ids, id)
	}
	xlsx, err := s.exporter.ExportTaxFormsXLSX(ctx, ids)
	if err != nil {
		s.logger.Error("export.xlsx.failed", "error", err)
		return nil, common.ToStatus(err)
	}
	return structpb.NewStruct(map[string]any{
		"xlsx": base64.StdEncoding.EncodeToString(xlsx),
	})
}

// IngestDirectory registers every PDF under root_path; registered forms are
// parsed by the background queue.
func (s *TaxFormService) IngestDirectory(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	root := strings.TrimSpace(stringField(req, "root_path"))
	if root == "" {
		return nil, common.InvalidArgumentError("root_path is required")
	}
	skipHidden := true
	if v, ok := req.GetFields()["skip_hidden"]; ok {
		skipHidden = v.GetBoolValue()
	}

	s.logger.Info("starting directory ingest", "root", root, "skip_hidden", skipHidden)
	results, stats, err := s.ingestor.ScanDirectory(ctx, root, skipHidden)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	items := make([]any, len(results))
	for i, r := range results {
		items[i] = map[string]any{
			"source_path":  r.SourcePath,
			"form_id":      r.FormID,
			"deduplicated": r.Deduplicated,
			"queued":       r.Queued,
			"error":        r.Err,
		}
	}
	return structpb.NewStruct(map[string]any{
		"scanned":      stats.Scanned,
		"matched":      stats.Matched,
		"succeeded":    stats.Succeeded,
		"deduplicated": stats.Deduplicated,
		"failed":       stats.Failed,
		"results":      items,
	})
}
