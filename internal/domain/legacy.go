package domain

import (
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

var legacyDateLayouts = []string{"2006-01-02", "02/01/2006"}

// ParseLegacyDate разбирает даты из старых записей: epoch-миллисекунды,
// "yyyy-MM-dd" или "dd/MM/yyyy". Пустая строка даёт нулевое время.
func ParseLegacyDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}

	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return FromMillis(ms), nil
	}

	for _, layout := range legacyDateLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t, nil
		}
	}

	return time.Time{}, errors.Mark(errors.Newf("unrecognized date %q", raw), ErrValidation)
}
