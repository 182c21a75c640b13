// Package pagecache memoizes recognized page annotations per document. A page is
// recognized at most once: the first build persists one JSON record per page and
// later builds replay it. File existence is the only cache key.
package pagecache

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/tax-parser/constants"
	"github.com/joseph-ayodele/tax-parser/internal/ocr"
)

const recordExt = "json"

// File is a source PDF on disk. Its stem names the document's storage directories.
type File struct {
	Path string
}

func (f File) Stem() string {
	base := filepath.Base(f.Path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Layout maps documents to storage paths under Root:
//
//	<root>/<name>.pdf
//	<root>/images/<stem>/page_<n>.png
//	<root>/annotations/<stem>/page_<n>.json
//
// n is 1-based on disk; every in-memory index is 0-based. ocr.PageFileName does
// the shift for both the rendered images and AnnotationFile.
type Layout struct {
	Root string
}

func (l Layout) ImageDir(stem string) string {
	return filepath.Join(l.Root, "images", stem)
}

func (l Layout) AnnotationDir(stem string) string {
	return filepath.Join(l.Root, "annotations", stem)
}

// AnnotationFile is the persisted record of the page at 0-based index.
func (l Layout) AnnotationFile(stem string, index int) string {
	return filepath.Join(l.AnnotationDir(stem), ocr.PageFileName(index, recordExt))
}

// SourcePath is where an uploaded file named name is stored.
func (l Layout) SourcePath(name string) string {
	return filepath.Join(l.Root, filepath.Base(name))
}

// Store writes uploaded bytes to SourcePath(name), replacing any previous upload.
func (l Layout) Store(name string, content []byte) (File, error) {
	if !constants.IsAllowedExt(filepath.Ext(name)) {
		return File{}, fmt.Errorf("unsupported file type %q", filepath.Ext(name))
	}
	if err := os.MkdirAll(l.Root, 0o755); err != nil {
		return File{}, err
	}
	path := l.SourcePath(name)
	if err := writeAtomic(path, content); err != nil {
		return File{}, err
	}
	return File{Path: path}, nil
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
