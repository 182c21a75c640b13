package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"
)

// Fragment is one recognized text line. BBox is x_min, y_min, x_max, y_max in
// image pixels; Confidence is 0..100 as reported by the engine.
type Fragment struct {
	Text       string
	Confidence float64
	BBox       [4]float64
}

// Recognizer turns one page image into fragments in reading order.
type Recognizer interface {
	Recognize(ctx context.Context, imagePath string) ([]Fragment, error)
}

// NewRecognizer picks the engine named in cfg.
func NewRecognizer(cfg Config, logger *slog.Logger) (Recognizer, error) {
	switch cfg.withDefaults().Engine {
	case "tesseract":
		return NewTesseract(cfg, logger), nil
	case "gosseract":
		g, err := NewGosseract(cfg, logger)
		if err != nil {
			return nil, err
		}
		return g, nil
	default:
		return nil, fmt.Errorf("unknown ocr engine %q", cfg.Engine)
	}
}

// Tesseract recognizes through the tesseract CLI in hOCR mode.
type Tesseract struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewTesseract(cfg Config, logger *slog.Logger) *Tesseract {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tesseract{cfg: cfg.withDefaults(), runner: execRunner{}, logger: logger}
}

func (t *Tesseract) Recognize(ctx context.Context, imagePath string) ([]Fragment, error) {
	start := time.Now()
	// tesseract <img> stdout -l <lang> [--psm N] [--tessdata-dir D] hocr
	args := []string{imagePath, "stdout", "-l", t.cfg.Lang}
	if t.cfg.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(t.cfg.PSM))
	}
	if t.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", t.cfg.TessdataDir)
	}
	args = append(args, "hocr")

	out, errb, err := t.runner.Run(ctx, t.logger, t.cfg.Tesseract, args...)
	if err != nil {
		return nil, fmt.Errorf("tesseract: %w: %s", err, truncate(string(errb), 512))
	}
	frags, err := ParseHOCR(out)
	if err != nil {
		return nil, fmt.Errorf("tesseract hocr: %w", err)
	}
	t.logger.Debug("ocr.recognize.ok",
		"image", imagePath,
		"fragments", len(frags),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return frags, nil
}
