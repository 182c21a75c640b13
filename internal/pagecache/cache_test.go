package pagecache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/tax-parser/internal/annotation"
	"github.com/joseph-ayodele/tax-parser/internal/common"
	"github.com/joseph-ayodele/tax-parser/internal/ocr"
)

type countingRecognizer struct {
	mu    sync.Mutex
	calls map[string]int
	pages map[string][]ocr.Fragment
	fail  map[string]error
}

func newCountingRecognizer() *countingRecognizer {
	return &countingRecognizer{calls: map[string]int{}, pages: map[string][]ocr.Fragment{}, fail: map[string]error{}}
}

func (r *countingRecognizer) Recognize(_ context.Context, image string) ([]ocr.Fragment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[image]++
	if err := r.fail[image]; err != nil {
		return nil, err
	}
	return r.pages[image], nil
}

func (r *countingRecognizer) total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		n += c
	}
	return n
}

type staticRenderer struct {
	images []string
	calls  int
}

func (s *staticRenderer) RenderPages(context.Context, string, string) ([]string, error) {
	s.calls++
	return s.images, nil
}

func twoPages(rec *countingRecognizer) []string {
	rec.pages["p1.png"] = []ocr.Fragment{
		{Text: "This is your total income", Confidence: 93, BBox: [4]float64{10, 10, 200, 20}},
		{Text: "220,640.", Confidence: 88, BBox: [4]float64{210, 10, 260, 20}},
	}
	rec.pages["p2.png"] = []ocr.Fragment{
		{Text: "Add lines 22 and 23. This is your total tax", BBox: [4]float64{1, 2, 3, 5}},
	}
	return []string{"p1.png", "p2.png"}
}

func TestBuildIsIdempotentAcrossProcesses(t *testing.T) {
	layout := Layout{Root: t.TempDir()}
	rec := newCountingRecognizer()
	images := twoPages(rec)
	doc := File{Path: filepath.Join(layout.Root, "7.pdf")}

	first, err := New(layout, nil, rec, nil).Build(context.Background(), doc, images)
	require.NoError(t, err)
	assert.Equal(t, 2, rec.total())

	// a fresh cache stands in for a new process: everything replays from disk
	second, err := New(layout, nil, rec, nil).Build(context.Background(), doc, images)
	require.NoError(t, err)
	assert.Equal(t, 2, rec.total())

	for i := 0; i < 2; i++ {
		a, _ := first.Page(i)
		b, _ := second.Page(i)
		assert.Equal(t, a.Annotations(), b.Annotations())
	}

	b1, err := os.ReadFile(layout.AnnotationFile("7", 0))
	require.NoError(t, err)
	anns, _ := first.Page(0)
	enc, _ := EncodeRecord(anns.Annotations())
	assert.Equal(t, enc, b1)
	assert.Contains(t, string(b1), "\n    {")
	assert.FileExists(t, filepath.Join(layout.Root, "annotations", "7", "page_2.json"))
}

func TestBuildMemoizesPages(t *testing.T) {
	layout := Layout{Root: t.TempDir()}
	rec := newCountingRecognizer()
	images := twoPages(rec)
	doc := File{Path: "7.pdf"}
	c := New(layout, nil, rec, nil)

	a, err := c.Build(context.Background(), doc, images)
	require.NoError(t, err)
	b, err := c.Build(context.Background(), doc, images)
	require.NoError(t, err)
	assert.Same(t, a, b)

	p, err := c.GetOrBuild(context.Background(), doc, 1, "p2.png")
	require.NoError(t, err)
	want, _ := a.Page(1)
	assert.Same(t, want, p)
}

func TestGetOrBuildDirectoryExistsFileMissing(t *testing.T) {
	layout := Layout{Root: t.TempDir()}
	rec := newCountingRecognizer()
	images := twoPages(rec)
	doc := File{Path: "7.pdf"}

	require.NoError(t, os.MkdirAll(layout.AnnotationDir("7"), 0o755))
	_, err := New(layout, nil, rec, nil).GetOrBuild(context.Background(), doc, 1, images[1])
	require.NoError(t, err)
	assert.Equal(t, 1, rec.calls["p2.png"])

	// page 0 is still missing and gets recognized; page 1 replays
	_, err = New(layout, nil, rec, nil).Build(context.Background(), doc, images)
	require.NoError(t, err)
	assert.Equal(t, 1, rec.calls["p1.png"])
	assert.Equal(t, 1, rec.calls["p2.png"])
}

func TestRecognitionFailureIsNotCached(t *testing.T) {
	layout := Layout{Root: t.TempDir()}
	rec := newCountingRecognizer()
	images := twoPages(rec)
	cause := errors.New("tesseract crashed")
	rec.fail["p2.png"] = cause
	c := New(layout, nil, rec, nil)
	doc := File{Path: "7.pdf"}

	_, err := c.Build(context.Background(), doc, images)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrRecognitionFailure)
	assert.ErrorIs(t, err, cause)
	var re *RecognitionError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, 1, re.PageIndex)
	assert.Equal(t, "p2.png", re.Image)
	assert.NoFileExists(t, layout.AnnotationFile("7", 1))

	delete(rec.fail, "p2.png")
	set, err := c.Build(context.Background(), doc, images)
	require.NoError(t, err)
	assert.Equal(t, 2, set.Len())
	assert.Equal(t, 1, rec.calls["p1.png"])
}

func TestEmptyPageIsValid(t *testing.T) {
	layout := Layout{Root: t.TempDir()}
	rec := newCountingRecognizer()
	c := New(layout, nil, rec, nil)
	p, err := c.GetOrBuild(context.Background(), File{Path: "blank.pdf"}, 0, "blank.png")
	require.NoError(t, err)
	assert.Equal(t, 0, p.Len())

	b, err := os.ReadFile(layout.AnnotationFile("blank", 0))
	require.NoError(t, err)
	assert.Equal(t, "[]", string(b))

	_, err = New(layout, nil, rec, nil).GetOrBuild(context.Background(), File{Path: "blank.pdf"}, 0, "blank.png")
	require.NoError(t, err)
	assert.Equal(t, 1, rec.total())
}

func TestInvalidate(t *testing.T) {
	layout := Layout{Root: t.TempDir()}
	rec := newCountingRecognizer()
	images := twoPages(rec)
	c := New(layout, nil, rec, nil)
	doc := File{Path: "7.pdf"}

	_, err := c.Build(context.Background(), doc, images)
	require.NoError(t, err)
	require.NoError(t, c.InvalidatePage("7", 0))
	_, err = c.Build(context.Background(), doc, images)
	require.NoError(t, err)
	assert.Equal(t, 2, rec.calls["p1.png"])
	assert.Equal(t, 1, rec.calls["p2.png"])

	require.NoError(t, c.Invalidate("7", false))
	assert.NoDirExists(t, layout.AnnotationDir("7"))
	_, err = c.Build(context.Background(), doc, images)
	require.NoError(t, err)
	assert.Equal(t, 3, rec.calls["p1.png"])
}

func TestLoadRendersThenBuilds(t *testing.T) {
	layout := Layout{Root: t.TempDir()}
	rec := newCountingRecognizer()
	r := &staticRenderer{images: twoPages(rec)}
	c := New(layout, r, rec, nil)

	set, err := c.Load(context.Background(), File{Path: "/in/7.pdf"})
	require.NoError(t, err)
	assert.Equal(t, 2, set.Len())
	assert.Equal(t, "7", set.Document().Stem())

	_, err = c.Load(context.Background(), File{Path: "/in/7.pdf"})
	require.NoError(t, err)
	assert.Equal(t, 1, r.calls)
}

func TestDecodeRecordRejectsMalformed(t *testing.T) {
	for _, in := range []string{
		`{"text":"x"}`,
		`[{"text":"x","bbox":[1,2,3],"center":[1,2]}]`,
		`[{"text":1,"bbox":[1,2,3,4],"center":[1,2]}]`,
		`not json`,
	} {
		_, err := DecodeRecord([]byte(in))
		assert.Error(t, err, in)
	}

	anns, err := DecodeRecord([]byte(`[{"text":"a b","bbox":[0,0,10,4],"center":[0,0]}]`))
	require.NoError(t, err)
	require.Len(t, anns, 1)
	assert.Equal(t, annotation.Point{5, 2}, anns[0].Center())
}

func TestLayoutPaths(t *testing.T) {
	l := Layout{Root: "/w"}
	assert.Equal(t, "/w/images/7", l.ImageDir("7"))
	assert.Equal(t, "/w/annotations/7/page_3.json", l.AnnotationFile("7", 2))
	assert.Equal(t, "/w/7.pdf", l.SourcePath("../../7.pdf"))
	assert.Equal(t, "8c", File{Path: "/x/8c.pdf"}.Stem())
}

func TestStoreUpload(t *testing.T) {
	l := Layout{Root: t.TempDir()}
	f, err := l.Store("7.pdf", []byte("%PDF-1.7"))
	require.NoError(t, err)
	b, err := os.ReadFile(f.Path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7", string(b))

	_, err = l.Store("7.docx", []byte("x"))
	assert.Error(t, err)
}
