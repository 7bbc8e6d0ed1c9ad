package merge

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	nonLabelChars = regexp.MustCompile(`[^a-z0-9 ]`)
	whitespaceRun = regexp.MustCompile(`\s+`)
	yearPattern   = regexp.MustCompile(`(20\d{2}|19\d{2})`)
)

// NormalizeLabel lowercases text, turns every character outside [a-z0-9 ] into a
// space, collapses whitespace and trims.
func NormalizeLabel(text string) string {
	if text == "" {
		return ""
	}
	s := strings.ToLower(text)
	s = nonLabelChars.ReplaceAllString(s, " ")
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}

// NormalizePeriod extracts the first plausible calendar year (1900-2099) from a raw
// period label such as "12 Months Ended Sep. 28, 2024". Text without a year is
// returned unchanged so that no period is ever dropped.
func NormalizePeriod(text string) string {
	if m := yearPattern.FindString(text); m != "" {
		return m
	}
	return text
}

// NormalizeValues re-keys a raw value mapping by normalized period. When two raw
// keys collapse onto the same year, the later non-null value in key order wins.
func NormalizeValues(values map[string]Value) map[string]*float64 {
	out := make(map[string]*float64, len(values))
	for _, raw := range sortedKeys(values) {
		p := NormalizePeriod(raw)
		v := values[raw].Float()
		if existing, ok := out[p]; ok && existing != nil && v == nil {
			continue
		}
		out[p] = v
	}
	return out
}

// NormalizeValue coerces a raw cell to a float, or nil when it is not numeric.
// Strings lose currency symbols and thousands separators; "(2,722)" is -2722.
func NormalizeValue(raw any) *float64 {
	switch v := raw.(type) {
	case nil:
		return nil
	case float64:
		return finite(v)
	case float32:
		return finite(float64(v))
	case int:
		return finite(float64(v))
	case int64:
		return finite(float64(v))
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return nil
		}
		return finite(f)
	case string:
		return parseNumericCell(v)
	default:
		return nil
	}
}

func parseNumericCell(txt string) *float64 {
	txt = strings.TrimSpace(strings.ReplaceAll(txt, "\u00a0", ""))
	switch txt {
	case "", "—", "-", "— —", "–":
		return nil
	}
	txt = strings.ReplaceAll(txt, "$", "")
	txt = strings.ReplaceAll(txt, ",", "")
	txt = strings.TrimSpace(txt)

	negative := false
	if strings.Contains(txt, "(") && strings.Contains(txt, ")") {
		negative = true
		txt = strings.TrimSpace(strings.NewReplacer("(", "", ")", "").Replace(txt))
	}
	f, err := strconv.ParseFloat(txt, 64)
	if err != nil {
		return nil
	}
	if negative {
		f = -math.Abs(f)
	}
	return finite(f)
}

func finite(f float64) *float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// hasEvidence reports whether v counts as numeric evidence for matching.
// Null and zero are "no evidence".
func hasEvidence(v *float64) bool {
	return v != nil && *v != 0
}

// =============================================================================
// RAW VALUE
// =============================================================================

// Value is a raw statement cell: a JSON number, a numeric string or null.
type Value struct {
	v *float64
}

// NumberValue wraps a float.
func NumberValue(f float64) Value { return Value{v: &f} }

// NullValue is an absent cell.
func NullValue() Value { return Value{} }

// Float returns the normalized value, nil when the cell is null or non-numeric.
func (v Value) Float() *float64 {
	if v.v == nil {
		return nil
	}
	f := *v.v
	return &f
}

// UnmarshalJSON accepts numbers, strings and null. Other JSON types are a
// structural error.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("empty value")
	}
	switch data[0] {
	case 'n':
		v.v = nil
		return nil
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v.v = NormalizeValue(s)
		return nil
	case '{', '[', 't', 'f':
		return fmt.Errorf("unsupported value %s", truncate(string(data), 32))
	default:
		v.v = NormalizeValue(json.Number(data))
		return nil
	}
}

// MarshalJSON writes the value or null.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.v == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*v.v)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
