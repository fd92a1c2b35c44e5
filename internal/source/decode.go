package source

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"DocLoader/internal/store"
)

var (
	ErrNotArray      = errors.New("expected a JSON array of objects")
	ErrIntOutOfRange = errors.New("integer out of int64 range")
)

// ResourceName maps a file name or object key to the container it loads
// into: the base name with its last extension removed.
func ResourceName(key string) string {
	base := path.Base(filepath.ToSlash(key))
	return strings.TrimSuffix(base, path.Ext(base))
}

// DecodeRecords reads a JSON array of objects. The input must be UTF-8; a
// leading byte-order mark is stripped. Integer literals come back as int64 and
// must fit in it, other numbers as float64.
func DecodeRecords(r io.Reader) ([]store.Record, error) {
	tr := transform.NewReader(r, transform.Chain(encoding.UTF8Validator, unicode.BOMOverride(transform.Nop)))
	dec := json.NewDecoder(tr)
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		if errors.Is(err, encoding.ErrInvalidUTF8) {
			return nil, err
		}
		return nil, fmt.Errorf("unexpected data after top-level value")
	}

	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%w, got %s", ErrNotArray, kind(raw))
	}
	out := make([]store.Record, 0, len(items))
	for i, it := range items {
		obj, ok := it.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: element %d is %s", ErrNotArray, i, kind(it))
		}
		for k, v := range obj {
			n, err := normalize(v)
			if err != nil {
				return nil, fmt.Errorf("element %d: key %q: %w", i, k, err)
			}
			obj[k] = n
		}
		out = append(out, obj)
	}
	return out, nil
}

func normalize(v any) (any, error) {
	switch t := v.(type) {
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n, nil
		}
		if !strings.ContainsAny(t.String(), ".eE") {
			return nil, fmt.Errorf("%w: %s", ErrIntOutOfRange, t)
		}
		return t.Float64()
	case map[string]any:
		for k, e := range t {
			n, err := normalize(e)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			t[k] = n
		}
		return t, nil
	case []any:
		for i, e := range t {
			n, err := normalize(e)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			t[i] = n
		}
		return t, nil
	default:
		return v, nil
	}
}

func kind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "an object"
	case []any:
		return "an array"
	case string:
		return "a string"
	case bool:
		return "a boolean"
	default:
		return "a number"
	}
}
