package models

import (
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"
)

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"02 Jan 2006, 03:04 PM",
	"02 Jan 2006 15:04:05",
	"02-01-2006 15:04:05",
	"02-01-2006",
}

// NumberField returns the first parsable number among keys, or 0.
func NumberField(data map[string]any, keys ...string) float64 {
	if v := NumberPtr(data, keys...); v != nil {
		return *v
	}
	return 0
}

// NumberPtr returns the first parsable number among keys, or nil when none is present.
func NumberPtr(data map[string]any, keys ...string) *float64 {
	for _, key := range keys {
		value, ok := data[key]
		if !ok || value == nil {
			continue
		}
		if n, ok := toNumber(value); ok {
			return &n
		}
	}
	return nil
}

func toNumber(value any) (float64, bool) {
	var n float64

	switch v := value.(type) {
	case float64:
		n = v
	case float32:
		n = float64(v)
	case int:
		n = float64(v)
	case int64:
		n = float64(v)
	case int32:
		n = float64(v)
	case uint64:
		n = float64(v)
	case bool:
		return 0, false
	case string:
		parsed, ok := parseNumberText(v)
		if !ok {
			return 0, false
		}
		n = parsed
	case interface{ Float64() (float64, error) }:
		parsed, err := v.Float64()
		if err != nil {
			return 0, false
		}
		n = parsed
	default:
		return 0, false
	}

	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

// parseNumberText accepts "1000", "1,000.50" and currency-prefixed forms like "Rs. 499".
func parseNumberText(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, false
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return n, true
	}

	isNumeric := func(r rune) bool { return unicode.IsDigit(r) || r == '-' || r == '+' }
	s = strings.TrimLeftFunc(s, func(r rune) bool { return !isNumeric(r) })
	s = strings.TrimRightFunc(s, func(r rune) bool { return !unicode.IsDigit(r) })
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return 0, false
	}

	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// TextField returns the first non-empty value among keys rendered as text.
func TextField(data map[string]any, keys ...string) string {
	for _, key := range keys {
		switch v := data[key].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case int:
			return strconv.Itoa(v)
		case int64:
			return strconv.FormatInt(v, 10)
		case bool:
			return strconv.FormatBool(v)
		}
	}
	return ""
}

// FlagField reports whether any of keys holds a truthy value (true, 1, "yes", "true", "1").
func FlagField(data map[string]any, keys ...string) bool {
	for _, key := range keys {
		switch v := data[key].(type) {
		case bool:
			if v {
				return true
			}
		case float64:
			if v != 0 {
				return true
			}
		case int:
			if v != 0 {
				return true
			}
		case string:
			switch strings.ToLower(strings.TrimSpace(v)) {
			case "1", "true", "yes", "y", "cod":
				return true
			}
		}
	}
	return false
}

// TimeField returns the first parsable timestamp among keys, or nil.
func TimeField(data map[string]any, keys ...string) *time.Time {
	for _, key := range keys {
		if t, ok := toTime(data[key]); ok {
			return &t
		}
	}
	return nil
}

func toTime(value any) (time.Time, bool) {
	switch v := value.(type) {
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range dateLayouts {
			if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
				return t, true
			}
		}
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			return fromEpoch(n), true
		}
	case float64:
		if v > 0 {
			return fromEpoch(v), true
		}
	}
	return time.Time{}, false
}

func fromEpoch(n float64) time.Time {
	// values this large are milliseconds
	if n > 1e12 {
		return time.UnixMilli(int64(n))
	}
	return time.Unix(int64(n), 0)
}
