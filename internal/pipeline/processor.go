package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/tax-parser/constants"
	"github.com/joseph-ayodele/tax-parser/internal/annotation"
	"github.com/joseph-ayodele/tax-parser/internal/common"
	"github.com/joseph-ayodele/tax-parser/internal/entity"
	"github.com/joseph-ayodele/tax-parser/internal/pagecache"
	"github.com/joseph-ayodele/tax-parser/internal/parser"
	"github.com/joseph-ayodele/tax-parser/internal/repository"
)

// PageLoader is the page annotation cache as the processor uses it.
type PageLoader interface {
	Load(ctx context.Context, f pagecache.File) (*annotation.PageSet, error)
	Invalidate(stem string, images bool) error
}

// Processor coordinates rasterize + recognize (through the page cache), field
// parsing and persistence for one tax form.
type Processor struct {
	Logger *slog.Logger
	Forms  repository.TaxFormRepository
	Fields repository.TaxFieldRepository
	Pages  PageLoader
	Parser *parser.Parser

	locks *keyedMutex
}

func NewProcessor(logger *slog.Logger, forms repository.TaxFormRepository, taxFields repository.TaxFieldRepository, pages PageLoader, p *parser.Parser) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		Logger: logger,
		Forms:  forms,
		Fields: taxFields,
		Pages:  pages,
		Parser: p,
		locks:  newKeyedMutex(),
	}
}

// ProcessForm parses the form and replaces its stored fields. force drops the
// cached annotations first so every page is recognized again. Runs for the same
// form are serialized; different forms proceed in parallel.
//
// On failure the form is marked FAILED with the error message and no fields are
// written.
func (p *Processor) ProcessForm(ctx context.Context, formID uuid.UUID, force bool) (*parser.Aggregate, error) {
	unlock := p.locks.Lock(formID.String())
	defer unlock()

	ctx = common.WithFormID(ctx, formID.String())
	logger := common.LoggerFromContext(ctx, p.Logger)
	start := time.Now()

	form, err := p.Forms.GetByID(ctx, formID)
	if err != nil {
		return nil, err
	}
	if err := p.Forms.SetStatus(ctx, formID, constants.FormStatusRunning, nil); err != nil {
		return nil, err
	}

	agg, err := p.run(ctx, form, force)
	if err != nil {
		logger.Error("processor.parse.failed", "file", form.FilePath, "error", err)
		msg := err.Error()
		if serr := p.Forms.SetStatus(context.WithoutCancel(ctx), formID, constants.FormStatusFailed, &msg); serr != nil {
			logger.Error("failed to mark tax form failed", "error", serr)
		}
		return nil, err
	}

	if err := p.Forms.SetStatus(ctx, formID, constants.FormStatusParsed, nil); err != nil {
		return nil, err
	}
	logger.Info("processor.parse.ok",
		"file", form.FilePath,
		"pay_this_amount", parser.PayThisAmount(agg.Records(nil)),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return agg, nil
}

func (p *Processor) run(ctx context.Context, form *entity.TaxForm, force bool) (*parser.Aggregate, error) {
	file := pagecache.File{Path: form.FilePath}
	if force {
		if err := p.Pages.Invalidate(file.Stem(), false); err != nil {
			return nil, fmt.Errorf("invalidate cache: %w", err)
		}
	}
	pages, err := p.Pages.Load(ctx, file)
	if err != nil {
		return nil, err
	}
	agg := p.Parser.Parse(pages)

	recs := agg.Records(nil)
	rows := make([]entity.TaxField, len(recs))
	for i, r := range recs {
		rows[i] = entity.NewTaxField(form.ID, r)
	}
	if err := p.Fields.ReplaceForForm(ctx, form.ID, rows); err != nil {
		return nil, err
	}
	return agg, nil
}

// Forget drops a form's cached annotations and page images, e.g. after delete.
func (p *Processor) Forget(form *entity.TaxForm) error {
	unlock := p.locks.Lock(form.ID.String())
	defer unlock()
	return p.Pages.Invalidate(pagecache.File{Path: form.FilePath}.Stem(), true)
}
