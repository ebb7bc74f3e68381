package errors

import (
	"fmt"
	"strings"
)

// HeaderNotFound reports that the end of the stream was reached before the
// opening header delimiter.
func HeaderNotFound(path string, line int) *Error {
	return &Error{
		Kind:    KindHeaderNotFound,
		Message: "no header block found",
		Path:    path,
		Line:    line,
	}
}

// UnexpectedEOF reports that a header block was opened but never closed.
func UnexpectedEOF(path string, line int) *Error {
	return &Error{
		Kind:    KindUnexpectedEOF,
		Message: "unexpected end of stream inside header block",
		Path:    path,
		Line:    line,
	}
}

// MissingRequiredKeys reports required keys that are absent from a header.
// keys is in discovery order; the message lists them reversed. The reversed
// listing is kept for output compatibility with earlier releases.
func MissingRequiredKeys(path string, keys []string) *Error {
	reversed := make([]string, len(keys))
	for i, k := range keys {
		reversed[len(keys)-1-i] = k
	}

	var msg string
	if len(reversed) == 1 {
		msg = fmt.Sprintf("`%s` is required, but it's missing", reversed[0])
	} else {
		quoted := make([]string, len(reversed))
		for i, k := range reversed {
			quoted[i] = "`" + k + "`"
		}
		msg = strings.Join(quoted, ", ") + " are required, but they are missing"
	}

	return &Error{
		Kind:    KindMissingRequiredKeys,
		Message: msg,
		Path:    path,
		Keys:    reversed,
	}
}

// InvalidInteger reports a header value that does not parse as a whole
// decimal integer.
func InvalidInteger(path, key string, line int) *Error {
	return &Error{
		Kind:    KindInvalidInteger,
		Message: fmt.Sprintf("value of `%s` is not a valid integer", key),
		Path:    path,
		Line:    line,
		Key:     key,
	}
}

// InvalidDateTime reports a header value that matches neither supported
// datetime layout.
func InvalidDateTime(path, key, detail string, line int) *Error {
	return &Error{
		Kind:    KindInvalidDateTime,
		Message: fmt.Sprintf("value of `%s` is not a valid datetime: %s", key, detail),
		Path:    path,
		Line:    line,
		Key:     key,
	}
}

// InvalidValueType reports a declared header type outside the supported set.
func InvalidValueType(path, key string) *Error {
	return &Error{
		Kind:    KindInvalidValueType,
		Message: fmt.Sprintf("`%s` declares an unsupported value type", key),
		Path:    path,
		Key:     key,
	}
}

// UnsupportedListOfList reports a list-of-list type declaration.
func UnsupportedListOfList(path, key string) *Error {
	return &Error{
		Kind:    KindUnsupportedListOfList,
		Message: fmt.Sprintf("`%s` declares a list of lists, which is not supported", key),
		Path:    path,
		Key:     key,
	}
}

// File wraps a filesystem failure for a path, keeping the underlying os
// error as the cause so callers can inspect it with errors.Is (for example
// fs.ErrNotExist).
func File(err error, path string) *Error {
	return &Error{
		Kind:    KindFile,
		Message: err.Error(),
		Path:    path,
		Cause:   err,
	}
}

// InvalidTemplate reports a template compilation failure.
func InvalidTemplate(path string, err error) *Error {
	return &Error{
		Kind:    KindInvalidTemplate,
		Message: fmt.Sprintf("template compilation failed: %v", err),
		Path:    path,
		Cause:   err,
	}
}
