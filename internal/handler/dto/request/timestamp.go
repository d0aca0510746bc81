package request

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/vladislavdragonenkov/quadrental/internal/domain"
)

// Timestamp принимает epoch-миллисекунды числом или строку в одном из старых форматов.
// null, 0 и пустая строка означают «не задано».
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}

	if data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return errors.Wrap(err, "decode timestamp string")
		}
		parsed, err := domain.ParseLegacyDate(raw)
		if err != nil {
			return err
		}
		t.Time = parsed
		return nil
	}

	ms, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return errors.Mark(errors.Wrapf(err, "timestamp %s", data), domain.ErrValidation)
	}
	t.Time = domain.FromMillis(ms)
	return nil
}
