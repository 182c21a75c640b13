// Package app wires the configured components the commands share.
package app

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/tax-parser/internal/common"
	"github.com/joseph-ayodele/tax-parser/internal/ocr"
	"github.com/joseph-ayodele/tax-parser/internal/pagecache"
	"github.com/joseph-ayodele/tax-parser/internal/parser"
	"github.com/joseph-ayodele/tax-parser/internal/pipeline"
	"github.com/joseph-ayodele/tax-parser/internal/repository"
)

// Engine is everything needed to turn a PDF into field records, without storage.
type Engine struct {
	Layout pagecache.Layout
	Cache  *pagecache.Cache
	Parser *parser.Parser
}

// App adds persistence and the form processor on top of Engine.
type App struct {
	*Engine
	DB        *repository.DB
	Forms     repository.TaxFormRepository
	Fields    repository.TaxFieldRepository
	Processor *pipeline.Processor
}

func OCRConfig(c common.OCRConfig) ocr.Config {
	return ocr.Config{
		Engine:      c.Engine,
		Pdftoppm:    c.Pdftoppm,
		Tesseract:   c.Tesseract,
		Lang:        c.Lang,
		DPI:         c.DPI,
		PSM:         c.PSM,
		TessdataDir: c.TessdataDir,
	}
}

func RepositoryConfig(c common.DatabaseConfig) repository.Config {
	return repository.Config{
		DSN:              c.DSN,
		MaxConns:         c.MaxConns,
		MinConns:         c.MinConns,
		MaxConnLifetime:  c.MaxConnLifetime,
		MaxConnIdleTime:  c.MaxConnIdleTime,
		DialTimeout:      c.DialTimeout,
		StatementTimeout: c.StatementTimeout,
	}
}

func NewEngine(cfg *common.Config, logger *slog.Logger) (*Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}
	oc := OCRConfig(cfg.OCR)
	recognizer, err := ocr.NewRecognizer(oc, logger)
	if err != nil {
		return nil, err
	}
	p, err := parser.New(logger)
	if err != nil {
		return nil, err
	}
	layout := pagecache.Layout{Root: cfg.Storage.WorkDir}
	return &Engine{
		Layout: layout,
		Cache:  pagecache.New(layout, ocr.NewRasterizer(oc, logger), recognizer, logger),
		Parser: p,
	}, nil
}

// New opens the database and builds the full stack. Close releases it.
func New(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	eng, err := NewEngine(cfg, logger)
	if err != nil {
		return nil, err
	}
	db, err := repository.Open(ctx, RepositoryConfig(cfg.Database), logger)
	if err != nil {
		return nil, err
	}
	forms := repository.NewTaxFormRepository(db, logger)
	fields := repository.NewTaxFieldRepository(db, logger)
	return &App{
		Engine:    eng,
		DB:        db,
		Forms:     forms,
		Fields:    fields,
		Processor: pipeline.NewProcessor(logger, forms, fields, eng.Cache, eng.Parser),
	}, nil
}

func (a *App) Close() {
	a.DB.Close()
}
