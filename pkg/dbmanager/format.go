package dbmanager

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"sql-research-assistant/internal/constants"
)

// FormatResult renders rows as a list of tuples, e.g. [(1523,)] or
// [('United Kingdom', 12.5), ('France', 3.0)]. No rows render as "".
func FormatResult(rows [][]interface{}) string {
	if len(rows) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("[")
	for i, row := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(")
		for j, value := range row {
			if j > 0 {
				b.WriteString(", ")
			}
			b.WriteString(reprValue(value))
		}
		if len(row) == 1 {
			b.WriteString(",")
		}
		b.WriteString(")")
	}
	b.WriteString("]")
	return b.String()
}

func reprValue(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return "None"
	case string:
		return quoteString(truncate(v, constants.MaxResultValueLength))
	case []byte:
		return quoteString(truncate(string(v), constants.MaxResultValueLength))
	case time.Time:
		return quoteString(v.Format("2006-01-02 15:04:05"))
	default:
		return plainValue(v)
	}
}

// plainValue renders a value without quoting, as used in example rows.
func plainValue(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return "None"
	case bool:
		if v {
			return "True"
		}
		return "False"
	case float32:
		return formatFloat(float64(v))
	case float64:
		return formatFloat(v)
	case string:
		return v
	case []byte:
		return string(v)
	case time.Time:
		return v.Format("2006-01-02 15:04:05")
	default:
		return fmt.Sprintf("%v", v)
	}
}

func formatFloat(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e16 {
		return strconv.FormatFloat(f, 'f', 1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// quoteString quotes s the way a Python repr of a str does.
func quoteString(s string) string {
	quote := byte('\'')
	if strings.ContainsRune(s, '\'') && !strings.ContainsRune(s, '"') {
		quote = '"'
	}

	var b strings.Builder
	b.WriteByte(quote)
	for _, r := range s {
		switch {
		case r == '\\':
			b.WriteString(`\\`)
		case r == rune(quote):
			b.WriteByte('\\')
			b.WriteByte(quote)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r == '\t':
			b.WriteString(`\t`)
		case r < 0x20 || r == 0x7f:
			fmt.Fprintf(&b, `\x%02x`, r)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte(quote)
	return b.String()
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
