package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/tax-parser/constants"
	"github.com/joseph-ayodele/tax-parser/internal/app"
	"github.com/joseph-ayodele/tax-parser/internal/common"
	"github.com/joseph-ayodele/tax-parser/internal/export"
	"github.com/joseph-ayodele/tax-parser/internal/fields"
	"github.com/joseph-ayodele/tax-parser/internal/pagecache"
	"github.com/joseph-ayodele/tax-parser/internal/parser"
)

// result is one line of the JSON output.
type result struct {
	File  string `json:"file"`
	Error string `json:"error,omitempty"`
	*parser.Summary
}

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	fs := pflag.NewFlagSet("taxparse", pflag.ContinueOnError)
	dir := fs.String("dir", "", "directory of tax form PDFs (required)")
	out := fs.String("out", "", "optional XLSX report path")
	kindsFlag := fs.StringSlice("fields", nil, "field kinds to report (default: all)")
	force := fs.Bool("force", false, "recognize every page again instead of replaying cached annotations")

	cfg, err := common.LoadConfig(fs, os.Args[1:])
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(2)
	}
	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(2)
	}
	kinds, err := fields.ParseKinds(*kindsFlag)
	if err != nil {
		printError("Error: %v (known: %s)\n", err, strings.Join(constants.FieldKindsAsStringSlice(), ", "))
		os.Exit(2)
	}
	logger := common.NewLogger(cfg.Log, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	eng, err := app.NewEngine(cfg, logger)
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}

	pdfs, err := listPDFs(*dir)
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
	results := parseAll(ctx, eng, pdfs, kinds, *force, cfg.Queue.Workers, logger)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}

	if *out != "" {
		if err := writeReport(*out, results); err != nil {
			printError("Error: %v\n", err)
			os.Exit(1)
		}
		logger.Info("report written", "path", *out)
	}

	for _, r := range results {
		if r.Error != "" {
			os.Exit(1)
		}
	}
}

func listPDFs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") || !constants.IsAllowedExt(filepath.Ext(e.Name())) {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	sort.Strings(out)
	return out, nil
}

// parseAll parses documents in parallel, bounded by workers. One document's
// failure is reported in its result and does not stop the others.
func parseAll(ctx context.Context, eng *app.Engine, pdfs []string, kinds []constants.FieldKind, force bool, workers int, logger *slog.Logger) []result {
	results := make([]result, len(pdfs))
	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, path := range pdfs {
		i, path := i, path
		g.Go(func() error {
			results[i] = parseOne(gctx, eng, path, kinds, force, logger)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func parseOne(ctx context.Context, eng *app.Engine, path string, kinds []constants.FieldKind, force bool, logger *slog.Logger) result {
	r := result{File: path}
	f := pagecache.File{Path: path}
	if force {
		if err := eng.Cache.Invalidate(f.Stem(), false); err != nil {
			r.Error = err.Error()
			return r
		}
	}
	pages, err := eng.Cache.Load(ctx, f)
	if err != nil {
		logger.Error("parse failed", "file", path, "error", err)
		r.Error = err.Error()
		return r
	}
	sum := eng.Parser.Parse(pages).Summarize(kinds)
	r.Summary = &sum
	return r
}

func writeReport(path string, results []result) error {
	reports := make([]export.Report, 0, len(results))
	for _, r := range results {
		rep := export.Report{Form: filepath.Base(r.File), Path: r.File, Status: string(constants.FormStatusParsed)}
		if r.Error != "" {
			rep.Status = string(constants.FormStatusFailed)
		} else {
			rep.Records = r.Fields
		}
		reports = append(reports, rep)
	}
	data, err := export.Workbook(reports)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
