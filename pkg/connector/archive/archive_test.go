package archive

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ajitpratap0/nebula-io/pkg/config"
	"github.com/ajitpratap0/nebula-io/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		ref  string
		want RefKind
	}{
		{"/opt/connectors/es.nar", RefLocal},
		{"connectors/es.zip", RefLocal},
		{"", RefLocal},
		{"http://repo/es.nar", RefURL},
		{"https://repo/es.nar", RefURL},
		{"file:/tmp/es.nar", RefURL},
		{"file:///tmp/es.nar", RefURL},
		{"gs://bucket/es.nar", RefURL},
		{"s3://bucket/es.nar", RefURL},
		{"builtin://elastic", RefBuiltin},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.ref))
		})
	}
}

func TestBuiltinIsIdempotent(t *testing.T) {
	ref := Builtin("foo")
	assert.Equal(t, "builtin://foo", ref)
	assert.Equal(t, ref, Builtin(ref))
	assert.Equal(t, "foo", BuiltinName(ref))
}

func TestOpenPackage(t *testing.T) {
	dir := t.TempDir()
	p := testutil.WriteArchive(t, dir, "es.nar", testutil.SinkDefinition, map[string]string{
		"lib/es-client.jar": "binary",
	})

	pkg, err := OpenPackage(p)
	require.NoError(t, err)
	defer pkg.Close()

	def := pkg.Definition
	assert.Equal(t, "elastic", def.Name)
	assert.Equal(t, "io.nebula.sinks.ElasticSink", def.ClassFor(config.KindSink))
	assert.Empty(t, def.ClassFor(config.KindSource))
	assert.Equal(t, "io.nebula.records.GenericRecord", def.TypeFor(config.KindSink))
	assert.True(t, def.HasClass("io.nebula.sinks.ElasticBulkSink"))
	assert.False(t, def.HasClass("io.nebula.sinks.Missing"))
	assert.False(t, def.HasClass(""))
	assert.ElementsMatch(t, []string{"connector.yaml", "lib/es-client.jar"}, pkg.Entries())

	require.NoError(t, pkg.Close())
	require.NoError(t, pkg.Close())
}

func TestOpenPackageErrors(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		_, err := OpenPackage(filepath.Join(dir, "nope.nar"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to open connector package")
	})

	t.Run("not a zip", func(t *testing.T) {
		p := filepath.Join(dir, "plain.nar")
		require.NoError(t, os.WriteFile(p, []byte("not a zip"), 0o600))
		_, err := OpenPackage(p)
		assert.Error(t, err)
	})

	t.Run("no definition", func(t *testing.T) {
		p := testutil.WriteArchive(t, dir, "empty.nar", "", map[string]string{"README": "x"})
		_, err := ReadDefinition(p)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connector.yaml not found")
	})

	t.Run("nameless definition", func(t *testing.T) {
		p := testutil.WriteArchive(t, dir, "nameless.nar", "sinkClass: a.B\n", nil)
		_, err := ReadDefinition(p)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "does not declare a name")
	})
}

type stubGetter struct {
	srv *httptest.Server
}

func (s stubGetter) Get(ctx context.Context, url string, _ map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return s.srv.Client().Do(req)
}

func TestFetchHTTP(t *testing.T) {
	src := testutil.WriteArchive(t, t.TempDir(), "es.nar", testutil.SinkDefinition, nil)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/es.nar" {
			http.NotFound(w, r)
			return
		}
		f, err := os.Open(src)
		if err != nil {
			t.Error(err)
			return
		}
		defer f.Close()
		_, _ = io.Copy(w, f)
	}))
	defer srv.Close()

	fetcher := NewFetcher(stubGetter{srv: srv}, "", "")

	p, cleanup, err := fetcher.Fetch(context.Background(), srv.URL+"/es.nar")
	require.NoError(t, err)

	def, err := ReadDefinition(p)
	require.NoError(t, err)
	assert.Equal(t, "elastic", def.Name)

	cleanup()
	_, err = os.Stat(p)
	assert.True(t, os.IsNotExist(err))

	_, cleanup, err = fetcher.Fetch(context.Background(), srv.URL+"/missing.nar")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	cleanup()
}

func TestFetchFileURL(t *testing.T) {
	src := testutil.WriteArchive(t, t.TempDir(), "es.nar", testutil.SinkDefinition, nil)
	fetcher := NewFetcher(nil, "", "")

	for _, ref := range []string{"file:" + src, "file://" + src} {
		p, cleanup, err := fetcher.Fetch(context.Background(), ref)
		require.NoError(t, err)
		assert.Equal(t, src, p)
		cleanup()
		_, err = os.Stat(src)
		assert.NoError(t, err, "file: packages are never removed")
	}
}

func TestFetchRejects(t *testing.T) {
	fetcher := NewFetcher(nil, "", "")

	_, _, err := fetcher.Fetch(context.Background(), "ftp://host/es.nar")
	assert.Error(t, err)

	_, _, err = fetcher.Fetch(context.Background(), "http://host/es.nar")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "no HTTP client configured"))
}

func TestSplitObjectURL(t *testing.T) {
	bucket, key, err := splitObjectURL("s3://connectors/sinks/es.nar", "s3://")
	require.NoError(t, err)
	assert.Equal(t, "connectors", bucket)
	assert.Equal(t, "sinks/es.nar", key)

	_, _, err = splitObjectURL("gs://connectors", "gs://")
	assert.Error(t, err)
	_, _, err = splitObjectURL("gs:///es.nar", "gs://")
	assert.Error(t, err)
}
