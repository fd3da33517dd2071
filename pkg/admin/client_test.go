package admin

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ajitpratap0/nebula-io/pkg/clients"
	"github.com/ajitpratap0/nebula-io/pkg/config"
	"github.com/ajitpratap0/nebula-io/pkg/connector/registry"
	"github.com/ajitpratap0/nebula-io/pkg/descriptor"
	"github.com/ajitpratap0/nebula-io/pkg/errors"
	jsonpool "github.com/ajitpratap0/nebula-io/pkg/json"
	"github.com/ajitpratap0/nebula-io/pkg/metrics"
	"github.com/ajitpratap0/nebula-io/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var _ registry.BuiltinLister = (*Client)(nil)

type recorded struct {
	method     string
	path       string
	descriptor map[string]interface{}
	data       string
	url        string
	hasData    bool
}

func newServer(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	hc, err := clients.NewHTTPClient(nil, zaptest.NewLogger(t))
	require.NoError(t, err)
	hc.SetMetrics(metrics.NewCollector())
	return New(srv.URL+"/", hc, zaptest.NewLogger(t)), srv
}

func recordUpload(t *testing.T, rec *recorded) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec.method = r.Method
		rec.path = r.URL.Path
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := jsonpool.Unmarshal([]byte(r.FormValue(DescriptorPart)), &rec.descriptor); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		rec.url = r.FormValue(URLField)
		if f, _, err := r.FormFile(DataPart); err == nil {
			data, _ := io.ReadAll(f)
			rec.data = string(data)
			rec.hasData = true
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func sinkDescriptor(archiveRef string) *descriptor.Descriptor {
	return &descriptor.Descriptor{
		Kind:                 config.KindSink,
		Tenant:               "public",
		Namespace:            "default",
		Name:                 "es",
		Parallelism:          1,
		ProcessingGuarantees: config.AtLeastOnce,
		Archive:              archiveRef,
	}
}

func TestCreateWithLocalArchive(t *testing.T) {
	nar := testutil.WriteArchive(t, t.TempDir(), "elastic.nar", testutil.SinkDefinition, nil)

	var rec recorded
	c, _ := newServer(t, recordUpload(t, &rec))
	require.NoError(t, c.Create(context.Background(), sinkDescriptor(nar)))

	assert.Equal(t, http.MethodPost, rec.method)
	assert.Equal(t, "/admin/v3/sinks/public/default/es", rec.path)
	assert.Equal(t, "es", rec.descriptor["name"])
	assert.True(t, rec.hasData)
	assert.NotEmpty(t, rec.data)
	assert.Empty(t, rec.url)
}

func TestUpdateWithPackageURL(t *testing.T) {
	var rec recorded
	c, _ := newServer(t, recordUpload(t, &rec))
	require.NoError(t, c.Update(context.Background(), sinkDescriptor("https://repo.example.com/es.nar")))

	assert.Equal(t, http.MethodPut, rec.method)
	assert.Equal(t, "https://repo.example.com/es.nar", rec.url)
	assert.False(t, rec.hasData)
}

func TestCreateBuiltin(t *testing.T) {
	var rec recorded
	c, _ := newServer(t, recordUpload(t, &rec))

	d := sinkDescriptor("builtin://elastic")
	d.Builtin = "elastic"
	require.NoError(t, c.Create(context.Background(), d))

	assert.Equal(t, "elastic", rec.descriptor["builtin"])
	assert.False(t, rec.hasData)
	assert.Empty(t, rec.url)
}

func TestCreateMissingArchive(t *testing.T) {
	c, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	err := c.Create(context.Background(), sinkDescriptor("/does/not/exist.nar"))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeArchiveNotFound))
}

func TestRemoteErrors(t *testing.T) {
	c, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/admin/v3/sinks/public/default/es":
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"reason":"Sink es already exists"}`))
		default:
			http.Error(w, "boom", http.StatusInternalServerError)
		}
	})

	err := c.Create(context.Background(), sinkDescriptor("builtin://elastic"))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeRemoteAPI))
	assert.Equal(t, http.StatusConflict, StatusCode(err))
	assert.EqualError(t, err, "remote_api: 409 Sink es already exists")

	_, err = c.List(context.Background(), config.KindSink, "public", "other")
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, StatusCode(err))
	reason, _ := errors.Detail(err, "reason")
	assert.Equal(t, "boom", reason)
}

func TestConnectionError(t *testing.T) {
	c, srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {})
	srv.Close()

	err := c.Delete(context.Background(), Ref{Kind: config.KindSource, Tenant: "t", Namespace: "n", Name: "x"})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeRemoteAPI))
	assert.Equal(t, 0, StatusCode(err))

	var e *errors.Error
	require.ErrorAs(t, err, &e)
	assert.NotNil(t, e.Cause, "transport error is kept")

	nar := testutil.WriteArchive(t, t.TempDir(), "es.nar", testutil.SinkDefinition, nil)
	err = c.Create(context.Background(), &descriptor.Descriptor{
		Kind: config.KindSink, Tenant: "t", Namespace: "n", Name: "es", Archive: nar,
	})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeRemoteAPI))
}

func TestConnectorOperations(t *testing.T) {
	var calls []string
	c, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		switch r.URL.Path {
		case "/admin/v3/sources/public/default":
			_, _ = w.Write([]byte(`["a","b"]`))
		case "/admin/v3/sources/public/default/kin":
			_, _ = w.Write([]byte(`{"name":"kin","parallelism":2}`))
		case "/admin/v3/sources/public/default/kin/status", "/admin/v3/sources/public/default/kin/1/status":
			_, _ = w.Write([]byte(`{"numRunning":1}`))
		}
	})

	ctx := context.Background()
	ref := Ref{Kind: config.KindSource, Tenant: "public", Namespace: "default", Name: "kin"}
	one := 1

	names, err := c.List(ctx, config.KindSource, "public", "default")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)

	got, err := c.Get(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, "kin", got["name"])

	status, err := c.Status(ctx, ref, nil)
	require.NoError(t, err)
	assert.NotNil(t, status["numRunning"])

	_, err = c.Status(ctx, ref, &one)
	require.NoError(t, err)

	require.NoError(t, c.Restart(ctx, ref, nil))
	require.NoError(t, c.Stop(ctx, ref, &one))
	require.NoError(t, c.Delete(ctx, ref))

	assert.Equal(t, []string{
		"GET /admin/v3/sources/public/default",
		"GET /admin/v3/sources/public/default/kin",
		"GET /admin/v3/sources/public/default/kin/status",
		"GET /admin/v3/sources/public/default/kin/1/status",
		"POST /admin/v3/sources/public/default/kin/restart",
		"POST /admin/v3/sources/public/default/kin/1/stop",
		"DELETE /admin/v3/sources/public/default/kin",
	}, calls)
}

func TestListBuiltins(t *testing.T) {
	c, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/admin/v3/sinks/builtinsinks", r.URL.Path)
		_, _ = w.Write([]byte(`[{"name":"elastic","description":"Writes to Elasticsearch","sinkClass":"a.ElasticSink"},{"name":"kinesis","sourceClass":"a.KinesisSource"}]`))
	})

	defs, err := c.ListBuiltins(context.Background(), config.KindSink)
	require.NoError(t, err)
	require.Len(t, defs, 2)
	assert.Equal(t, "a.ElasticSink", defs[0].SinkClass)

	ref, err := registry.NewClusterResolver(c).Resolve(context.Background(), config.KindSink, "elastic")
	require.NoError(t, err)
	assert.Equal(t, "builtin://elastic", ref)

	_, err = registry.NewClusterResolver(c).Resolve(context.Background(), config.KindSink, "kinesis")
	assert.True(t, errors.IsType(err, errors.ErrorTypeUnknownConnectorType))
}
