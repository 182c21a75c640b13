package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/joseph-ayodele/tax-parser/constants"
)

// Rasterizer renders a PDF into one PNG per page with pdftoppm.
type Rasterizer struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewRasterizer(cfg Config, logger *slog.Logger) *Rasterizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Rasterizer{cfg: cfg.withDefaults(), runner: execRunner{}, logger: logger}
}

// PageFileName is the stored name of the page at 0-based index.
func PageFileName(index int, ext string) string {
	return fmt.Sprintf("page_%d.%s", index+1, ext)
}

// RenderPages writes page_1.png..page_N.png into outDir and returns them in page
// order. If outDir already exists it is trusted as a previous render and only listed.
// Pages are rendered into a sibling temp dir and moved into place at the end, so
// outDir never holds a partial render.
func (r *Rasterizer) RenderPages(ctx context.Context, pdfPath, outDir string) ([]string, error) {
	if st, err := os.Stat(outDir); err == nil && st.IsDir() {
		pages, err := ListPageImages(outDir)
		if err != nil {
			return nil, err
		}
		r.logger.Debug("ocr.render.cached", "dir", outDir, "pages", len(pages))
		return pages, nil
	}

	if err := os.MkdirAll(filepath.Dir(outDir), 0o755); err != nil {
		return nil, fmt.Errorf("create image root: %w", err)
	}
	tmpDir, err := os.MkdirTemp(filepath.Dir(outDir), ".render-*")
	if err != nil {
		return nil, err
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r <dpi> -png <in.pdf> <tmp/page>
	_, errb, err := r.runner.Run(ctx, r.logger, r.cfg.Pdftoppm, "-r", strconv.Itoa(r.cfg.DPI), "-png", pdfPath, prefix)
	if err != nil {
		return nil, fmt.Errorf("pdftoppm: %w: %s", err, truncate(string(errb), 512))
	}

	// pdftoppm pads the page suffix to the width of the page count (page-01.png)
	rendered, err := filepath.Glob(prefix + "-*." + constants.PageImageExt)
	if err != nil {
		return nil, err
	}
	if len(rendered) == 0 {
		return nil, fmt.Errorf("pdftoppm produced no images for %s", pdfPath)
	}
	SortPageImages(rendered)

	for i, src := range rendered {
		if err := os.Rename(src, filepath.Join(tmpDir, PageFileName(i, constants.PageImageExt))); err != nil {
			return nil, err
		}
	}
	if err := os.Rename(tmpDir, outDir); err != nil {
		return nil, fmt.Errorf("move rendered pages: %w", err)
	}

	if n, err := PageCount(pdfPath); err != nil {
		r.logger.Warn("ocr.render.page_count_unavailable", "path", pdfPath, "error", err)
	} else if n != len(rendered) {
		r.logger.Warn("ocr.render.page_count_mismatch", "path", pdfPath, "pdf_pages", n, "images", len(rendered))
	}

	r.logger.Info("ocr.render.ok", "path", pdfPath, "dir", outDir, "pages", len(rendered), "dpi", r.cfg.DPI)
	return ListPageImages(outDir)
}

// ListPageImages returns the page images in dir sorted by page number.
func ListPageImages(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*."+constants.PageImageExt))
	if err != nil {
		return nil, err
	}
	SortPageImages(matches)
	return matches, nil
}

// SortPageImages orders paths by the integer after the last '_' or '-' in the file
// stem, so page_10 follows page_9. Names without a number sort last, by name.
func SortPageImages(paths []string) {
	sort.SliceStable(paths, func(i, j int) bool {
		ni, oki := pageSuffix(paths[i])
		nj, okj := pageSuffix(paths[j])
		switch {
		case oki && okj && ni != nj:
			return ni < nj
		case oki != okj:
			return oki
		default:
			return paths[i] < paths[j]
		}
	})
}

func pageSuffix(path string) (int, bool) {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	cut := strings.LastIndexAny(stem, "_-")
	if cut < 0 {
		return 0, false
	}
	n, err := strconv.Atoi(stem[cut+1:])
	if err != nil {
		return 0, false
	}
	return n, true
}

// PageCount reads the number of pages from the PDF structure.
func PageCount(pdfPath string) (int, error) {
	f, err := os.Open(pdfPath)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	pdfCtx, err := api.ReadContext(f, conf)
	if err != nil {
		return 0, fmt.Errorf("pdfcpu read: %w", err)
	}
	if err := pdfCtx.EnsurePageCount(); err != nil {
		return 0, err
	}
	return pdfCtx.PageCount, nil
}
