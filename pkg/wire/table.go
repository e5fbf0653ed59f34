// Package wire implements the self-describing textual message frame that
// drones and controllers exchange over the multicast socket.
package wire

import (
	"bytes"
	"fmt"
	"io"

	json "github.com/goccy/go-json"
)

// Table is an insertion-ordered string-keyed map, the Go analogue of the
// original protocol's blobmsg table: attribute order is preserved across
// encode/decode so handlers that build up a reply (cfg_get's sections, for
// example) are reproduced byte-for-byte in the order they were written.
type Table struct {
	keys   []string
	values map[string]any
}

// NewTable returns an empty, ready-to-use table.
func NewTable() *Table {
	return &Table{values: map[string]any{}}
}

// Set inserts or overwrites key. The first time key is seen, it is appended
// to the iteration order; updating an existing key keeps its original
// position.
func (t *Table) Set(key string, value any) *Table {
	if _, ok := t.values[key]; !ok {
		t.keys = append(t.keys, key)
	}
	t.values[key] = value
	return t
}

// Get returns the raw decoded value for key.
func (t *Table) Get(key string) (any, bool) {
	v, ok := t.values[key]
	return v, ok
}

// Keys returns the keys in insertion/decode order.
func (t *Table) Keys() []string {
	return append([]string(nil), t.keys...)
}

// Len reports the number of entries.
func (t *Table) Len() int {
	return len(t.keys)
}

// GetString returns key as a string, failing if absent or of another type.
func (t *Table) GetString(key string) (string, bool) {
	v, ok := t.values[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// GetUint32 coerces a decoded numeric value (always float64 after JSON
// decode) into a uint32.
func (t *Table) GetUint32(key string) (uint32, bool) {
	v, ok := t.values[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return uint32(n), true
	case uint32:
		return n, true
	case int:
		return uint32(n), true
	default:
		return 0, false
	}
}

// GetTable returns a nested table value.
func (t *Table) GetTable(key string) (*Table, bool) {
	v, ok := t.values[key]
	if !ok {
		return nil, false
	}
	sub, ok := v.(*Table)
	return sub, ok
}

// GetStringSlice returns an array-valued key as a slice of strings, failing
// if any element is not a string.
func (t *Table) GetStringSlice(key string) ([]string, bool) {
	v, ok := t.values[key]
	if !ok {
		return nil, false
	}
	raw, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(raw))
	for _, e := range raw {
		s, ok := e.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

// MarshalJSON writes the table as a JSON object, preserving insertion order.
func (t *Table) MarshalJSON() ([]byte, error) {
	if t == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range t.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := marshalValue(t.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func marshalValue(v any) ([]byte, error) {
	switch tv := v.(type) {
	case *Table:
		return tv.MarshalJSON()
	default:
		return json.Marshal(v)
	}
}

// UnmarshalJSON decodes a JSON object into the table, recording key order as
// it streams through the tokens and recursing into nested objects as
// *Table rather than map[string]any.
func (t *Table) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	delim, ok := tok.(json.Delim)
	if !ok || delim != '{' {
		return fmt.Errorf("wire: expected object, got %v", tok)
	}

	t.keys = nil
	t.values = map[string]any{}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("wire: expected string key, got %v", keyTok)
		}

		val, err := decodeValue(dec)
		if err != nil {
			return err
		}
		t.Set(key, val)
	}

	if _, err := dec.Token(); err != nil && err != io.EOF {
		return err
	}
	return nil
}

// decodeValue decodes the next JSON value from dec, producing *Table for
// objects, []any for arrays, and plain Go scalars otherwise.
func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch v := tok.(type) {
	case json.Delim:
		switch v {
		case '{':
			sub := &Table{values: map[string]any{}}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("wire: expected string key, got %v", keyTok)
				}
				val, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				sub.Set(key, val)
			}
			if _, err := dec.Token(); err != nil { // consume '}'
				return nil, err
			}
			return sub, nil
		case '[':
			var arr []any
			for dec.More() {
				val, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				arr = append(arr, val)
			}
			if _, err := dec.Token(); err != nil { // consume ']'
				return nil, err
			}
			return arr, nil
		default:
			return nil, fmt.Errorf("wire: unexpected delimiter %v", v)
		}
	default:
		return tok, nil
	}
}
