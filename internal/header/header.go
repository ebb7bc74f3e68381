// Package header extracts and types the delimited metadata block at the
// top of a content file.
//
// A header is a plain-text block delimited by a line containing exactly
// `---` at both start and end; interior lines are `key: value` pairs split
// on the first colon. Unknown keys are ignored, required keys are enforced
// before any value coercion, and coercion is all-or-nothing.
package header

import (
	"bufio"
	"io"
	"strings"

	"siteforge/internal/errors"
)

// Delimiter is the exact line that opens and closes a header block.
const Delimiter = "---"

// Header maps matched keys to their type-coerced values. Values are
// string, int, time.Time or slices thereof, per the declared Options.
type Header map[string]any

type rawPair struct {
	key   string
	value string
	line  int
}

// Parse scans r for a header block and returns the typed values for the
// keys declared in opts. filename is used for diagnostics only.
//
// Lines before the opening delimiter are discarded; reaching end-of-stream
// without an opening delimiter fails with HeaderNotFound, and without a
// closing delimiter with UnexpectedEOF. The missing-required check runs
// before any coercion, so a header missing `title` fails the same way no
// matter how malformed its other values are.
func Parse(r io.Reader, filename string, opts Options) (Header, error) {
	pairs, err := scanBlock(r, filename)
	if err != nil {
		return nil, err
	}

	retained := make(map[string]rawPair)
	for _, p := range pairs {
		if _, declared := opts.field(p.key); !declared {
			continue
		}
		if _, seen := retained[p.key]; seen {
			continue
		}
		retained[p.key] = p
	}

	var missing []string
	for _, key := range opts.Required {
		if _, ok := retained[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, errors.MissingRequiredKeys(filename, missing)
	}

	h := make(Header, len(retained))
	for _, f := range opts.Fields {
		p, ok := retained[f.Key]
		if !ok {
			continue
		}
		value, err := coerce(filename, f.Key, f.Type, p.value, p.line)
		if err != nil {
			return nil, err
		}
		h[f.Key] = value
	}
	return h, nil
}

// scanBlock runs the two-phase line scan and returns the interior pairs in
// an ordered append list.
func scanBlock(r io.Reader, filename string) ([]rawPair, error) {
	sc := bufio.NewScanner(r)
	line := 0

	opened := false
	for sc.Scan() {
		line++
		if trimLine(sc.Text()) == Delimiter {
			opened = true
			break
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.File(err, filename)
	}
	if !opened {
		return nil, errors.HeaderNotFound(filename, line)
	}

	var pairs []rawPair
	closed := false
	for sc.Scan() {
		line++
		text := trimLine(sc.Text())
		if text == Delimiter {
			closed = true
			break
		}
		key, value, cut := strings.Cut(text, ":")
		if !cut {
			// A line with no colon becomes (trimmed-whole-line, "").
			key, value = text, ""
		}
		pairs = append(pairs, rawPair{key: strings.TrimSpace(key), value: value, line: line})
	}
	if err := sc.Err(); err != nil {
		return nil, errors.File(err, filename)
	}
	if !closed {
		return nil, errors.UnexpectedEOF(filename, line)
	}
	return pairs, nil
}

// SkipHeader advances r past a leading header block without capturing
// values, using the same two-phase scan as Parse.
//
// If no opening delimiter is ever found, the whole stream is consumed.
// That discards headerless content; the behavior is long-standing and
// callers rely on Parse to reject such files first.
func SkipHeader(r *bufio.Reader) error {
	if err := readUntilDelimiter(r); err != nil {
		return err
	}
	return readUntilDelimiter(r)
}

func readUntilDelimiter(r *bufio.Reader) error {
	for {
		text, err := r.ReadString('\n')
		if trimLine(strings.TrimSuffix(text, "\n")) == Delimiter {
			return nil
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func trimLine(s string) string {
	return strings.TrimSuffix(s, "\r")
}
