package pagecache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/joseph-ayodele/tax-parser/internal/annotation"
	"github.com/joseph-ayodele/tax-parser/internal/common"
	"github.com/joseph-ayodele/tax-parser/internal/ocr"
)

// RecognitionError reports a page the recognizer could not read. It matches
// common.ErrRecognitionFailure and the underlying cause with errors.Is.
type RecognitionError struct {
	PageIndex int
	Image     string
	Err       error
}

func (e *RecognitionError) Error() string {
	return fmt.Sprintf("recognize page %d (%s): %v", e.PageIndex, e.Image, e.Err)
}

func (e *RecognitionError) Unwrap() []error {
	return []error{common.ErrRecognitionFailure, e.Err}
}

// Renderer produces the page images of a PDF, one per page in page order.
type Renderer interface {
	RenderPages(ctx context.Context, pdfPath, outDir string) ([]string, error)
}

// Cache builds and replays page annotations. Built page sets are also kept in
// memory so a page index maps to one *annotation.Page per process.
//
// Cache does not serialize builds of the same document; callers that build
// concurrently must hold a per-document lock.
type Cache struct {
	layout     Layout
	renderer   Renderer
	recognizer ocr.Recognizer
	logger     *slog.Logger

	mu   sync.Mutex
	docs map[string]*annotation.PageSet
}

func New(layout Layout, renderer Renderer, recognizer ocr.Recognizer, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		layout:     layout,
		renderer:   renderer,
		recognizer: recognizer,
		logger:     logger,
		docs:       make(map[string]*annotation.PageSet),
	}
}

func (c *Cache) Layout() Layout { return c.layout }

// GetOrBuild returns the page at index, replaying its record when one exists and
// otherwise recognizing imagePath once and persisting the result. The record
// directory and the record file are checked separately: an existing directory
// with a missing page file still recognizes that page.
func (c *Cache) GetOrBuild(ctx context.Context, doc annotation.Document, index int, imagePath string) (*annotation.Page, error) {
	if set := c.memo(doc.Stem()); set != nil {
		if p, ok := set.Page(index); ok {
			return p, nil
		}
	}

	path := c.layout.AnnotationFile(doc.Stem(), index)
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		anns, err := DecodeRecord(data)
		if err != nil {
			return nil, fmt.Errorf("page %d record %s: %w", index, path, err)
		}
		c.logger.Debug("pagecache.page.replay", "doc", doc.Stem(), "page_index", index, "annotations", len(anns))
		return annotation.NewPage(doc, index, anns), nil
	case !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("read page %d record: %w", index, err)
	}

	start := time.Now()
	frags, err := c.recognizer.Recognize(ctx, imagePath)
	if err != nil {
		return nil, &RecognitionError{PageIndex: index, Image: imagePath, Err: err}
	}
	anns := make([]annotation.Annotation, len(frags))
	for i, f := range frags {
		anns[i] = annotation.New(f.Text, annotation.BBox(f.BBox))
	}

	dir := c.layout.AnnotationDir(doc.Stem())
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create annotation dir: %w", err)
		}
	}
	data, err = EncodeRecord(anns)
	if err != nil {
		return nil, err
	}
	if err := writeAtomic(path, data); err != nil {
		return nil, fmt.Errorf("write page %d record: %w", index, err)
	}

	c.logger.Info("pagecache.page.ocr",
		"doc", doc.Stem(),
		"page_index", index,
		"annotations", len(anns),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return annotation.NewPage(doc, index, anns), nil
}

// Build returns every page of doc given its page images in page order. The
// first failing page aborts the build and nothing is memoized.
func (c *Cache) Build(ctx context.Context, doc annotation.Document, images []string) (*annotation.PageSet, error) {
	if set := c.memo(doc.Stem()); set != nil && set.Len() == len(images) {
		return set, nil
	}
	pages := make([]*annotation.Page, 0, len(images))
	for i, img := range images {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p, err := c.GetOrBuild(ctx, doc, i, img)
		if err != nil {
			return nil, err
		}
		pages = append(pages, p)
	}
	set := annotation.NewPageSet(doc, pages)

	c.mu.Lock()
	c.docs[doc.Stem()] = set
	c.mu.Unlock()
	return set, nil
}

// Load renders f into its image directory if needed and builds its pages.
func (c *Cache) Load(ctx context.Context, f File) (*annotation.PageSet, error) {
	if set := c.memo(f.Stem()); set != nil {
		return set, nil
	}
	if c.renderer == nil {
		return nil, errors.New("pagecache: no renderer configured")
	}
	images, err := c.renderer.RenderPages(ctx, f.Path, c.layout.ImageDir(f.Stem()))
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", f.Path, err)
	}
	return c.Build(ctx, f, images)
}

// Invalidate drops the memoized pages and the persisted records of a document.
// Page images are kept; pass images=true to remove them as well.
func (c *Cache) Invalidate(stem string, images bool) error {
	c.forget(stem)
	if err := os.RemoveAll(c.layout.AnnotationDir(stem)); err != nil {
		return err
	}
	if images {
		if err := os.RemoveAll(c.layout.ImageDir(stem)); err != nil {
			return err
		}
	}
	c.logger.Info("pagecache.invalidate", "doc", stem, "images", images)
	return nil
}

// InvalidatePage removes one page record so the next build recognizes it again.
func (c *Cache) InvalidatePage(stem string, index int) error {
	c.forget(stem)
	err := os.Remove(c.layout.AnnotationFile(stem, index))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (c *Cache) memo(stem string) *annotation.PageSet {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.docs[stem]
}

func (c *Cache) forget(stem string) {
	c.mu.Lock()
	delete(c.docs, stem)
	c.mu.Unlock()
}
