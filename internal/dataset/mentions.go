package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/mr1hm/disaster-dashboard/internal/models"
)

var ErrUnparseable = errors.New("extracted locations unparseable")

var (
	latitudeKeys  = []string{"latitude", "lat"}
	longitudeKeys = []string{"longitude", "lon", "lng"}
	nameKeys      = []string{"name", "location", "place", "text"}
)

// ParseLocationMentions turns the serialized extracted_locations cell into
// mentions. Malformed input yields an empty slice so one bad row never aborts
// a view; mentions without usable coordinates are dropped.
func ParseLocationMentions(raw string) []models.LocationMention {
	mentions, _ := DecodeLocationMentions(raw)
	return mentions
}

// DecodeLocationMentions is ParseLocationMentions with the parse error
// reported. The returned slice is always non-nil.
func DecodeLocationMentions(raw string) ([]models.LocationMention, error) {
	mentions := []models.LocationMention{}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return mentions, nil
	}

	var items []any
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		converted, cerr := pythonLiteralToJSON(raw)
		if cerr != nil {
			return mentions, fmt.Errorf("%w: %v", ErrUnparseable, cerr)
		}
		if err := json.Unmarshal([]byte(converted), &items); err != nil {
			return mentions, fmt.Errorf("%w: %v", ErrUnparseable, err)
		}
	}

	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		lat, ok := numberField(obj, latitudeKeys)
		if !ok {
			continue
		}
		lon, ok := numberField(obj, longitudeKeys)
		if !ok {
			continue
		}
		m := models.LocationMention{
			Latitude:  lat,
			Longitude: lon,
			Name:      stringField(obj, nameKeys),
		}
		if !m.Coordinates().Valid() {
			continue
		}
		mentions = append(mentions, m)
	}

	return mentions, nil
}

func numberField(obj map[string]any, keys []string) (float64, bool) {
	for _, k := range keys {
		switch v := obj[k].(type) {
		case float64:
			return v, true
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

func stringField(obj map[string]any, keys []string) string {
	for _, k := range keys {
		if s, ok := obj[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// pythonLiteralToJSON rewrites the subset of Python literal syntax that
// pandas writes for list-of-dict cells: single-quoted strings, tuples,
// True/False/None and signed nan/inf.
func pythonLiteralToJSON(s string) (string, error) {
	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == '\'' || c == '"':
			n, err := writeQuoted(&b, s[i:])
			if err != nil {
				return "", err
			}
			i += n
		case c == '(':
			b.WriteByte('[')
			i++
		case c == ')':
			b.WriteByte(']')
			i++
		case c == '-' && isNonFinite(identAt(s, i+1)):
			// -inf and -nan both become null.
			i++
		case isIdentStart(c):
			word := identAt(s, i)
			switch {
			case word == "True":
				b.WriteString("true")
			case word == "False":
				b.WriteString("false")
			case word == "None" || isNonFinite(word):
				b.WriteString("null")
			default:
				b.WriteString(word)
			}
			i += len(word)
		default:
			b.WriteByte(c)
			i++
		}
	}

	return b.String(), nil
}

// writeQuoted copies one quoted string starting at s[0] as a JSON string and
// returns how many bytes of s it consumed. Python-only escapes (\', \xNN,
// \UXXXXXXXX) are translated; unknown escapes keep their backslash.
func writeQuoted(b *strings.Builder, s string) (int, error) {
	quote := s[0]
	b.WriteByte('"')

	for i := 1; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\' && i+1 < len(s):
			n, err := writeEscape(b, s[i+1:])
			if err != nil {
				return 0, err
			}
			i += n
		case c == quote:
			b.WriteByte('"')
			return i + 1, nil
		case c == '"':
			b.WriteString(`\"`)
		default:
			b.WriteByte(c)
		}
	}

	return 0, errors.New("unterminated string")
}

// writeEscape translates the escape whose letter starts s and returns the
// bytes consumed after the backslash.
func writeEscape(b *strings.Builder, s string) (int, error) {
	switch next := s[0]; next {
	case '\'':
		b.WriteByte('\'')
		return 1, nil
	case '"', '\\', 'n', 'r', 't', 'b', 'f', 'u':
		b.WriteByte('\\')
		b.WriteByte(next)
		return 1, nil
	case 'x':
		r, err := hexRune(s[1:], 2)
		if err != nil {
			return 0, err
		}
		fmt.Fprintf(b, `\u%04x`, r)
		return 3, nil
	case 'U':
		r, err := hexRune(s[1:], 8)
		if err != nil {
			return 0, err
		}
		if !utf8.ValidRune(r) {
			return 0, fmt.Errorf("invalid code point %U", r)
		}
		if r < 0x20 {
			fmt.Fprintf(b, `\u%04x`, r)
		} else {
			b.WriteRune(r)
		}
		return 9, nil
	default:
		b.WriteString(`\\`)
		b.WriteByte(next)
		return 1, nil
	}
}

func hexRune(s string, digits int) (rune, error) {
	if len(s) < digits {
		return 0, errors.New("truncated escape")
	}
	v, err := strconv.ParseUint(s[:digits], 16, 32)
	if err != nil {
		return 0, fmt.Errorf("bad escape %q", s[:digits])
	}
	return rune(v), nil
}

func identAt(s string, i int) string {
	j := i
	for j < len(s) && isIdentPart(s[j]) {
		j++
	}
	if j == i || !isIdentStart(s[i]) {
		return ""
	}
	return s[i:j]
}

func isNonFinite(word string) bool {
	switch word {
	case "nan", "NaN", "inf", "Infinity":
		return true
	}
	return false
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
