package cli

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/ajitpratap0/nebula-io/pkg/descriptor"
	"github.com/ajitpratap0/nebula-io/pkg/errors"
	jsonpool "github.com/ajitpratap0/nebula-io/pkg/json"
	"github.com/ajitpratap0/nebula-io/pkg/metrics"
	"github.com/ajitpratap0/nebula-io/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAdmin records the requests it serves.
type fakeAdmin struct {
	mu          sync.Mutex
	requests    []string
	descriptors []*descriptor.Descriptor
	status      int
	builtins    string
	auth        []string
}

func (f *fakeAdmin) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)
	f.auth = append(f.auth, r.Header.Get("Authorization"))

	if strings.HasSuffix(r.URL.Path, "/builtinsinks") || strings.HasSuffix(r.URL.Path, "/builtinsources") {
		_, _ = w.Write([]byte(f.builtins))
		return
	}
	if r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/status") {
		_, _ = w.Write([]byte(`{"numInstances":1,"numRunning":1}`))
		return
	}
	if f.status != 0 {
		w.WriteHeader(f.status)
		_, _ = w.Write([]byte(`{"reason":"Sink es already exists"}`))
		return
	}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		if err := r.ParseMultipartForm(1 << 20); err == nil {
			var d descriptor.Descriptor
			if jsonpool.Unmarshal([]byte(r.FormValue("descriptor")), &d) == nil {
				f.descriptors = append(f.descriptors, &d)
			}
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

type harness struct {
	admin  *fakeAdmin
	url    string
	out    bytes.Buffer
	errOut bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	h := &harness{admin: &fakeAdmin{
		builtins: `[{"name":"elastic","description":"Writes records to an Elasticsearch index using the bulk API, one document per record, creating the index when it does not exist yet.","sinkClass":"a.ElasticSink"},{"name":"kinesis","sourceClass":"a.KinesisSource"}]`,
	}}
	srv := httptest.NewServer(h.admin)
	t.Cleanup(srv.Close)
	h.url = srv.URL
	return h
}

func (h *harness) run(args ...string) error {
	h.out.Reset()
	h.errOut.Reset()
	app := NewApp(&h.out, &h.errOut)
	app.metrics = metrics.NewCollector()
	return app.Execute(context.Background(), append([]string{"--admin-url", h.url}, args...))
}

func TestSinkCreate(t *testing.T) {
	h := newHarness(t)
	nar := testutil.WriteArchive(t, t.TempDir(), "elastic.nar", testutil.SinkDefinition, nil)

	err := h.run("sink", "create", "--name", "es", "-a", nar, "--inputs", "topicA,topicB", "--sink-config", `{"index":"logs"}`)
	require.NoError(t, err)
	assert.Contains(t, h.out.String(), "Created successfully")

	require.Equal(t, []string{"POST /admin/v3/sinks/public/default/es"}, h.admin.requests)
	require.Len(t, h.admin.descriptors, 1)
	d := h.admin.descriptors[0]
	assert.Equal(t, "io.nebula.sinks.ElasticSink", d.ClassName)
	assert.Equal(t, nar, d.Archive)
	require.NotNil(t, d.Input)
	assert.Equal(t, []descriptor.TopicSpec{{Topic: "topicA"}, {Topic: "topicB"}}, d.Input.Topics)
	assert.Equal(t, "logs", d.Configs["index"])
}

func TestSinkCreateConflict(t *testing.T) {
	h := newHarness(t)

	err := h.run("sink", "create", "--name", "es", "-a", "/tmp/es.nar", "-t", "elastic", "-i", "a")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeParameterConflict))
	assert.Empty(t, h.admin.requests)
}

func TestSinkCreateDeprecatedFlags(t *testing.T) {
	h := newHarness(t)
	nar := testutil.WriteArchive(t, t.TempDir(), "elastic.nar", testutil.SinkDefinition, nil)

	err := h.run("sink", "create", "--name", "es", "-a", nar, "-i", "a",
		"--subs-name", "new-sub", "--subsName", "old-sub", "--processingGuarantees", "EFFECTIVELY_ONCE")
	require.NoError(t, err)

	require.Len(t, h.admin.descriptors, 1)
	assert.Equal(t, "old-sub", h.admin.descriptors[0].Input.SubscriptionName)
	assert.Equal(t, "EFFECTIVELY_ONCE", string(h.admin.descriptors[0].ProcessingGuarantees))
	assert.Contains(t, h.out.String()+h.errOut.String(), "Flag --subsName has been deprecated, use --subs-name instead")
}

func TestSinkCreateBuiltinType(t *testing.T) {
	h := newHarness(t)

	err := h.run("sink", "create", "--name", "es", "--sink-type", "elastic", "-i", "a")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"GET /admin/v3/sinks/builtinsinks",
		"POST /admin/v3/sinks/public/default/es",
	}, h.admin.requests)
	require.Len(t, h.admin.descriptors, 1)
	assert.Equal(t, "builtin://elastic", h.admin.descriptors[0].Archive)
	assert.Equal(t, "elastic", h.admin.descriptors[0].Builtin)

	err = h.run("sink", "create", "--name", "es", "--sink-type", "kinesis", "-i", "a")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeUnknownConnectorType))
	assert.Contains(t, err.Error(), "available sinks are: elastic")
}

func TestSinkCreateRemoteError(t *testing.T) {
	h := newHarness(t)
	h.admin.status = http.StatusConflict

	err := h.run("sink", "create", "--name", "es", "--sink-type", "elastic", "-i", "a")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeRemoteAPI))
	assert.Contains(t, err.Error(), "failed to create sink public/default/es")
	assert.Contains(t, err.Error(), "Sink es already exists")
}

func TestPackageDownloadOmitsAdminCredentials(t *testing.T) {
	h := newHarness(t)
	nar := testutil.WriteArchive(t, t.TempDir(), "elastic.nar", testutil.SinkDefinition, nil)
	data, err := os.ReadFile(nar)
	require.NoError(t, err)

	var mu sync.Mutex
	var packageAuth []string
	packages := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		packageAuth = append(packageAuth, r.Header.Get("Authorization"))
		mu.Unlock()
		_, _ = w.Write(data)
	}))
	t.Cleanup(packages.Close)

	clientFile := filepath.Join(t.TempDir(), "client.yaml")
	require.NoError(t, os.WriteFile(clientFile, []byte("auth_plugin: token\nauth_params: token:admin-secret\n"), 0o600))

	err = h.run("--config", clientFile, "sink", "create", "--name", "es", "-a", packages.URL+"/elastic.nar", "-i", "a")
	require.NoError(t, err)

	require.Len(t, packageAuth, 1)
	assert.Empty(t, packageAuth[0], "package host must not see Admin API credentials")
	assert.Equal(t, []string{"Bearer admin-secret"}, h.admin.auth)
	require.Len(t, h.admin.descriptors, 1)
	assert.Equal(t, "io.nebula.sinks.ElasticSink", h.admin.descriptors[0].ClassName)
}

func TestSourceUpdateFromConfigFile(t *testing.T) {
	h := newHarness(t)
	nar := testutil.WriteArchive(t, t.TempDir(), "kinesis.nar", testutil.SourceDefinition, nil)
	cfgFile := filepath.Join(t.TempDir(), "source.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("tenant: acme\nnamespace: ingest\nname: kin\ntopicName: events\nparallelism: 2\n"), 0o600))

	err := h.run("source", "update", "-a", nar, "--source-config-file", cfgFile, "--parallelism", "4")
	require.NoError(t, err)
	assert.Contains(t, h.out.String(), "Updated successfully")

	assert.Equal(t, []string{"PUT /admin/v3/sources/acme/ingest/kin"}, h.admin.requests)
	d := h.admin.descriptors[0]
	assert.Equal(t, 4, d.Parallelism)
	assert.Equal(t, "avro", d.Output.SchemaType)
}

func TestConnectorManagement(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run("sink", "delete", "--name", "es"))
	assert.Contains(t, h.out.String(), "Deleted successfully")
	require.NoError(t, h.run("source", "getstatus", "--name", "kin", "--instance-id", "2"))
	assert.Equal(t, "{\n  \"numInstances\": 1,\n  \"numRunning\": 1\n}\n", h.out.String())
	require.NoError(t, h.run("sink", "restart", "--tenant", "acme", "--name", "es"))
	assert.Contains(t, h.out.String(), "Restarted successfully")
	require.NoError(t, h.run("sink", "stop", "--name", "es", "--instance-id", "0"))
	require.NoError(t, h.run("sources", "list"))

	assert.Equal(t, []string{
		"DELETE /admin/v3/sinks/public/default/es",
		"GET /admin/v3/sources/public/default/kin/2/status",
		"POST /admin/v3/sinks/acme/default/es/restart",
		"POST /admin/v3/sinks/public/default/es/0/stop",
		"GET /admin/v3/sources/public/default",
	}, h.admin.requests)

	err := h.run("sink", "delete")
	assert.True(t, errors.IsType(err, errors.ErrorTypeMissingField))

	err = h.run("sink", "get-status", "--name", "es", "--instance-id", "first")
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfigParse))
	assert.Len(t, h.admin.requests, 5)
}

func TestListBuiltins(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run("sink", "available-sinks"))
	out := h.out.String()
	assert.Contains(t, out, "elastic\n")
	assert.NotContains(t, out, "kinesis")
	assert.Contains(t, out, strings.Repeat("-", 40))
	for _, line := range strings.Split(out, "\n") {
		assert.LessOrEqual(t, len(line), 80)
	}

	require.NoError(t, h.run("source", "list-builtins"))
	assert.Contains(t, h.out.String(), "kinesis")
}

func TestLocalRun(t *testing.T) {
	h := newHarness(t)
	dir := t.TempDir()
	nar := testutil.WriteArchive(t, dir, "kinesis.nar", testutil.SourceDefinition, nil)

	err := h.run("--connectors-dir", dir, "source", "localrun",
		"--source-type", "kinesis", "--name", "kin", "-o", "events",
		"--brokerServiceUrl", "pulsar://localhost:6650")
	require.NoError(t, err)

	assert.Empty(t, h.admin.requests)
	assert.Contains(t, h.out.String(), `"archive": "`+nar+`"`)
	assert.Contains(t, h.out.String(), "broker: pulsar://localhost:6650")
}

func TestMetricsTextfile(t *testing.T) {
	h := newHarness(t)
	textfile := filepath.Join(t.TempDir(), "nebula_io.prom")

	err := h.run("--metrics-textfile", textfile, "sink", "create", "--name", "es", "-i", "a")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeMissingField))

	data, err := os.ReadFile(textfile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `nebula_io_pipeline_runs_total{kind="sink",outcome="missing_required_field"} 1`)
}

func TestVersion(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.run("version"))
	assert.Contains(t, h.out.String(), "Nebula IO v"+Version)
}
