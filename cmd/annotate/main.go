package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/pflag"

	"github.com/joseph-ayodele/tax-parser/internal/annotation"
	"github.com/joseph-ayodele/tax-parser/internal/app"
	"github.com/joseph-ayodele/tax-parser/internal/common"
	"github.com/joseph-ayodele/tax-parser/internal/pagecache"
)

type pageSummary struct {
	Page        int      `json:"page"`
	Annotations int      `json:"annotations"`
	Record      string   `json:"record"`
	Lines       []string `json:"lines,omitempty"`
}

func main() {
	fs := pflag.NewFlagSet("annotate", pflag.ContinueOnError)
	force := fs.Bool("force", false, "drop cached annotations before building")
	images := fs.Bool("images", false, "with --force, also drop rendered page images")
	lines := fs.Bool("lines", false, "print the recognized text of every annotation")

	cfg, err := common.LoadConfig(fs, os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	if fs.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "Usage: annotate [options] file.pdf...\n")
		os.Exit(2)
	}
	logger := common.NewLogger(cfg.Log, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	eng, err := app.NewEngine(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	failed := false
	for _, path := range fs.Args() {
		f := pagecache.File{Path: path}
		if *force {
			if err := eng.Cache.Invalidate(f.Stem(), *images); err != nil {
				logger.Error("invalidate failed", "file", path, "error", err)
				failed = true
				continue
			}
		}
		set, err := eng.Cache.Load(ctx, f)
		if err != nil {
			logger.Error("annotate failed", "file", path, "error", err)
			failed = true
			continue
		}
		_ = enc.Encode(map[string]any{"file": path, "pages": summarize(eng.Layout, f, set, *lines)})
	}
	if failed {
		os.Exit(1)
	}
}

func summarize(layout pagecache.Layout, f pagecache.File, set *annotation.PageSet, withLines bool) []pageSummary {
	out := make([]pageSummary, 0, set.Len())
	for _, p := range set.Pages() {
		s := pageSummary{
			Page:        p.Index(),
			Annotations: p.Len(),
			Record:      layout.AnnotationFile(f.Stem(), p.Index()),
		}
		if withLines {
			for _, a := range p.Annotations() {
				s.Lines = append(s.Lines, a.Text())
			}
		}
		out = append(out, s)
	}
	return out
}
