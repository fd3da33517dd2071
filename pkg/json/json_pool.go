// Package json provides JSON serialization backed by goccy/go-json with pooled buffers.
//
// Map keys are always emitted in sorted order, which the descriptor encoding
// relies on for byte-identical output.
package json

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	gojson "github.com/goccy/go-json"
)

var bufferPool = sync.Pool{
	New: func() interface{} {
		return bytes.NewBuffer(make([]byte, 0, 4096))
	},
}

// GetBuffer gets a pooled buffer
func GetBuffer() *bytes.Buffer {
	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

// PutBuffer returns a buffer to the pool
func PutBuffer(buf *bytes.Buffer) {
	if buf.Cap() > 1<<20 {
		return
	}
	bufferPool.Put(buf)
}

// Marshal encodes v with sorted map keys and without HTML escaping.
func Marshal(v interface{}) ([]byte, error) {
	buf := GetBuffer()
	defer PutBuffer(buf)

	enc := gojson.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}

	// Encode appends a newline
	out := bytes.TrimSuffix(buf.Bytes(), []byte("\n"))
	result := make([]byte, len(out))
	copy(result, out)
	return result, nil
}

// Unmarshal decodes data into v
func Unmarshal(data []byte, v interface{}) error {
	return gojson.Unmarshal(data, v)
}

// MarshalIndent is used for human-facing output
func MarshalIndent(v interface{}, prefix, indent string) ([]byte, error) {
	return gojson.MarshalIndent(v, prefix, indent)
}

// MarshalToWriter writes v as indented JSON followed by a newline
func MarshalToWriter(w io.Writer, v interface{}) error {
	enc := gojson.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// DecodeObject decodes a string that must hold exactly one JSON object into
// out, which is expected to point at a map. Values that are not objects
// (including null) and any trailing data are rejected.
func DecodeObject(s string, out interface{}) error {
	trimmed := bytes.TrimSpace([]byte(s))
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return fmt.Errorf("expected a JSON object, got %q", s)
	}
	if !gojson.Valid(trimmed) {
		return fmt.Errorf("malformed JSON object %q", s)
	}
	dec := gojson.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return err
	}
	return nil
}
