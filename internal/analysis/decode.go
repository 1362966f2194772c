package analysis

import (
	"encoding/json"
	"fmt"
	"strings"
)

// span delimits the JSON value expected inside a model reply.
type span struct {
	open, close byte
}

var (
	arraySpan  = span{open: '[', close: ']'}
	objectSpan = span{open: '{', close: '}'}
)

// find returns the text from the first opening to the last closing
// delimiter, or the whole reply when there is no such span. Models often
// wrap JSON in prose or code fences.
func (s span) find(raw string) string {
	start := strings.IndexByte(raw, s.open)
	if start == -1 {
		return raw
	}
	end := strings.LastIndexByte(raw, s.close)
	if end <= start {
		return raw
	}
	return raw[start : end+1]
}

// parseOr decodes the JSON value found in raw and passes it to convert.
// On any failure it returns fallback and the reason; a non-nil error means
// fallback was used, never that the caller must abort.
func parseOr[T any](raw string, s span, fallback T, convert func(any) (T, error)) (T, error) {
	var value any
	if err := json.Unmarshal([]byte(s.find(raw)), &value); err != nil {
		return fallback, fmt.Errorf("decode json: %w", err)
	}

	out, err := convert(value)
	if err != nil {
		return fallback, err
	}

	return out, nil
}
