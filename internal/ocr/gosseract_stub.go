//go:build !gosseract

package ocr

import (
	"context"
	"errors"
	"log/slog"
)

// ErrGosseractNotEnabled is returned when the in-process recognizer was not
// compiled in. Rebuild with -tags gosseract to enable it.
var ErrGosseractNotEnabled = errors.New("gosseract recognizer not enabled; rebuild with -tags gosseract")

type Gosseract struct{}

func NewGosseract(Config, *slog.Logger) (*Gosseract, error) {
	return nil, ErrGosseractNotEnabled
}

func (g *Gosseract) Recognize(context.Context, string) ([]Fragment, error) {
	return nil, ErrGosseractNotEnabled
}
