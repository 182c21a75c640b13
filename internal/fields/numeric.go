package fields

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/tax-parser/internal/common"
)

var (
	amountStripper = strings.NewReplacer(" ", "", ",", "")
	reCents        = regexp.MustCompile(`^([+-]?\d+)\.\d{1,2}$`)
)

// ParseAmount turns a recognized amount into whole dollars.
// Order: drop spaces and thousands separators, drop one trailing '.', then parse
// base 10. A one or two digit fraction left over is cents and is discarded.
// Anything else is ErrNormalization.
func ParseAmount(text string) (int64, error) {
	s := amountStripper.Replace(text)
	s = strings.TrimSuffix(s, ".")
	if s == "" {
		return 0, fmt.Errorf("%w: empty amount", common.ErrNormalization)
	}
	if m := reCents.FindStringSubmatch(s); m != nil {
		s = m[1]
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an amount", common.ErrNormalization, text)
	}
	return n, nil
}

// ToInteger is ParseAmount with the historical contract: unparsable text yields 0
// and a warning. Callers that must tell zero from garbage use ParseAmount.
func ToInteger(text string, logger *slog.Logger) int64 {
	n, err := ParseAmount(text)
	if err != nil {
		if logger == nil {
			logger = slog.Default()
		}
		if text == "" {
			logger.Debug("fields.normalize.empty")
		} else {
			logger.Warn("fields.normalize.failed", "text", text, "error", err)
		}
		return 0
	}
	return n
}
