package json

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalSortsMapKeys(t *testing.T) {
	first := map[string]interface{}{"zeta": 1, "alpha": "a", "mid": map[string]string{"y": "1", "b": "2"}}
	second := map[string]interface{}{"mid": map[string]string{"b": "2", "y": "1"}, "alpha": "a", "zeta": 1}

	a, err := Marshal(first)
	require.NoError(t, err)
	b, err := Marshal(second)
	require.NoError(t, err)

	assert.Equal(t, `{"alpha":"a","mid":{"b":"2","y":"1"},"zeta":1}`, string(a))
	assert.True(t, bytes.Equal(a, b))
}

func TestMarshalDoesNotEscapeHTML(t *testing.T) {
	out, err := Marshal(map[string]string{"url": "http://host/?a=1&b=<2>"})
	require.NoError(t, err)
	assert.Equal(t, `{"url":"http://host/?a=1&b=<2>"}`, string(out))
}

func TestDecodeObject(t *testing.T) {
	t.Run("string map", func(t *testing.T) {
		var m map[string]string
		require.NoError(t, DecodeObject(`{"in-1":"com.example.Serde"}`, &m))
		assert.Equal(t, map[string]string{"in-1": "com.example.Serde"}, m)
	})

	t.Run("arbitrary values", func(t *testing.T) {
		var m map[string]interface{}
		require.NoError(t, DecodeObject(` {"hosts":["a","b"],"port":9200,"tls":true} `, &m))
		assert.Len(t, m, 3)
		assert.Equal(t, true, m["tls"])
	})

	t.Run("rejects non objects", func(t *testing.T) {
		var m map[string]string
		for _, in := range []string{"", "null", `["a"]`, `"x"`, "12"} {
			assert.Error(t, DecodeObject(in, &m), in)
		}
	})

	t.Run("rejects malformed", func(t *testing.T) {
		var m map[string]string
		assert.Error(t, DecodeObject(`{"a":`, &m))
		assert.Error(t, DecodeObject(`{"a":1}`, &m))
		assert.Error(t, DecodeObject(`{"a":"b"} {"c":"d"}`, &m))
		assert.Error(t, DecodeObject(`{"a":"b"}}`, &m))
		assert.Error(t, DecodeObject(`{"a":"b"}]`, &m))
		assert.Error(t, DecodeObject(`{"a":"b"} junk`, &m))
	})
}

func TestMarshalToWriter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, MarshalToWriter(&buf, map[string]interface{}{"b": "<x>", "a": 1}))
	assert.Equal(t, "{\n  \"a\": 1,\n  \"b\": \"<x>\"\n}\n", buf.String())
}
