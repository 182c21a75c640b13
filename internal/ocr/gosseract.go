//go:build gosseract

package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// Gosseract recognizes in-process through libtesseract. A client is created per
// call; gosseract clients are not safe for concurrent use.
type Gosseract struct {
	cfg    Config
	logger *slog.Logger
}

func NewGosseract(cfg Config, logger *slog.Logger) (*Gosseract, error) {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gosseract{cfg: cfg.withDefaults(), logger: logger}, nil
}

func (g *Gosseract) Recognize(ctx context.Context, imagePath string) ([]Fragment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	client := gosseract.NewClient()
	defer client.Close()

	if g.cfg.TessdataDir != "" {
		if err := client.SetTessdataPrefix(g.cfg.TessdataDir); err != nil {
			return nil, err
		}
	}
	if err := client.SetLanguage(g.cfg.Lang); err != nil {
		return nil, fmt.Errorf("set language: %w", err)
	}
	if g.cfg.PSM > 0 {
		if err := client.SetPageSegMode(gosseract.PageSegMode(g.cfg.PSM)); err != nil {
			return nil, fmt.Errorf("set psm: %w", err)
		}
	}
	if err := client.SetImage(imagePath); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, fmt.Errorf("gosseract: %w", err)
	}
	frags := make([]Fragment, 0, len(boxes))
	for _, b := range boxes {
		text := strings.TrimSpace(b.Word)
		if text == "" {
			continue
		}
		frags = append(frags, Fragment{
			Text:       text,
			Confidence: b.Confidence,
			BBox:       [4]float64{float64(b.Box.Min.X), float64(b.Box.Min.Y), float64(b.Box.Max.X), float64(b.Box.Max.Y)},
		})
	}
	g.logger.Debug("ocr.recognize.ok", "image", imagePath, "fragments", len(frags), "engine", "gosseract")
	return frags, nil
}
