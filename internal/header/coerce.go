package header

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"siteforge/internal/errors"
)

// Datetime layouts accepted by coercion, tried in order. Both are
// interpreted in local time; the date-only form means midnight.
const (
	layoutDateTime = "2006-01-02 15:04:05"
	layoutDate     = "2006-01-02"
)

// coerce converts one raw header value to its declared type. The first
// failure aborts the whole parse; no partial header is ever returned.
func coerce(filename, key string, t Type, raw string, line int) (any, error) {
	value := strings.TrimSpace(raw)

	switch t.kind {
	case kindString:
		return value, nil

	case kindInteger:
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, errors.InvalidInteger(filename, key, line)
		}
		return n, nil

	case kindDateTime:
		return coerceDateTime(filename, key, value, line)

	case kindList:
		return coerceList(filename, key, t, value, line)

	default:
		return nil, errors.InvalidValueType(filename, key)
	}
}

func coerceDateTime(filename, key, value string, line int) (time.Time, error) {
	if ts, err := time.ParseInLocation(layoutDateTime, value, time.Local); err == nil {
		return ts, nil
	}
	if ts, err := time.ParseInLocation(layoutDate, value, time.Local); err == nil {
		return ts, nil
	}
	detail := fmt.Sprintf("%q matches neither %q nor %q", value, layoutDateTime, layoutDate)
	return time.Time{}, errors.InvalidDateTime(filename, key, detail, line)
}

// coerceList splits on comma, trims each segment, drops empty segments and
// coerces the rest with the element rule. The first element failure becomes
// the whole value's error.
func coerceList(filename, key string, t Type, value string, line int) (any, error) {
	elem := t.elem
	switch elem.kind {
	case kindList:
		return nil, errors.UnsupportedListOfList(filename, key)
	case kindString, kindInteger, kindDateTime:
	default:
		return nil, errors.InvalidValueType(filename, key)
	}

	var segments []string
	for _, seg := range strings.Split(value, ",") {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		segments = append(segments, seg)
	}

	switch elem.kind {
	case kindString:
		out := make([]string, 0, len(segments))
		out = append(out, segments...)
		return out, nil
	case kindInteger:
		out := make([]int, 0, len(segments))
		for _, seg := range segments {
			n, err := strconv.Atoi(seg)
			if err != nil {
				return nil, errors.InvalidInteger(filename, key, line)
			}
			out = append(out, n)
		}
		return out, nil
	default:
		out := make([]time.Time, 0, len(segments))
		for _, seg := range segments {
			ts, err := coerceDateTime(filename, key, seg, line)
			if err != nil {
				return nil, err
			}
			out = append(out, ts)
		}
		return out, nil
	}
}
