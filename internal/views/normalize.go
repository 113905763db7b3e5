package views

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
)

// NumberOrNil parses raw into a finite number. It returns nil when raw is
// absent, empty or not numeric. The literal value 0 is a present number,
// distinct from absent.
func NumberOrNil(raw interface{}) *float64 {
	switch v := raw.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil
		}
		return &v
	case float32:
		f := float64(v)
		return &f
	case int:
		f := float64(v)
		return &f
	case int64:
		f := float64(v)
		return &f
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		return &f
	default:
		return nil
	}
}

// DisplayList flattens raw into a display string: lists are joined with
// ", ", a scalar becomes its string form, absent becomes "".
func DisplayList(raw interface{}) string {
	parts := elements(raw)
	return strings.Join(parts, ", ")
}

// ShortNames produces a compact human label for fields that reference
// linked records, such as family lookups. Composite names are truncated to
// their primary component: everything after the first "+" is dropped,
// otherwise everything after the first "," is dropped.
func ShortNames(raw interface{}) string {
	parts := elements(raw)
	short := make([]string, 0, len(parts))
	for _, p := range parts {
		s := strings.TrimSpace(p)
		if idx := strings.Index(s, "+"); idx >= 0 {
			s = s[:idx]
		} else if idx := strings.Index(s, ","); idx >= 0 {
			s = s[:idx]
		}
		short = append(short, strings.TrimSpace(s))
	}
	return strings.Join(short, ", ")
}

// DomainLabel reduces a booking URL to its host with any leading "www."
// stripped. Unparseable input yields the literal "Link" so a row can still
// render something clickable; empty input yields "".
func DomainLabel(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "Link"
	}
	return strings.TrimPrefix(u.Host, "www.")
}

// elements normalizes scalar-or-list input into a string slice.
func elements(raw interface{}) []string {
	switch v := raw.(type) {
	case nil:
		return nil
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, scalarString(item))
		}
		return out
	case []string:
		return v
	default:
		return []string{scalarString(v)}
	}
}

func scalarString(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	case bool:
		return strconv.FormatBool(s)
	case nil:
		return ""
	default:
		return fmt.Sprint(s)
	}
}
