package header

import (
	"bytes"
	"strconv"
	"strings"
	"time"
)

// Serialize renders a parsed header back to a delimited block of
// `key: value` lines.
//
// Keys are emitted in declared-options order to keep output stable.
// Re-parsing the result with the same Options yields an equal header, as
// long as no list element itself contains a comma (the line format cannot
// escape the separator).
func Serialize(h Header, opts Options) []byte {
	var buf bytes.Buffer
	buf.WriteString(Delimiter)
	buf.WriteByte('\n')
	for _, f := range opts.Fields {
		value, ok := h[f.Key]
		if !ok {
			continue
		}
		buf.WriteString(f.Key)
		buf.WriteString(": ")
		buf.WriteString(formatValue(value))
		buf.WriteByte('\n')
	}
	buf.WriteString(Delimiter)
	buf.WriteByte('\n')
	return buf.Bytes()
}

func formatValue(v any) string {
	switch vv := v.(type) {
	case string:
		return vv
	case int:
		return strconv.Itoa(vv)
	case time.Time:
		return vv.Format(layoutDateTime)
	case []string:
		return strings.Join(vv, ", ")
	case []int:
		parts := make([]string, len(vv))
		for i, n := range vv {
			parts[i] = strconv.Itoa(n)
		}
		return strings.Join(parts, ", ")
	case []time.Time:
		parts := make([]string, len(vv))
		for i, ts := range vv {
			parts[i] = ts.Format(layoutDateTime)
		}
		return strings.Join(parts, ", ")
	default:
		return ""
	}
}
