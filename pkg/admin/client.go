// Package admin is a client for the connector endpoints of the Admin API.
package admin

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ajitpratap0/nebula-io/pkg/clients"
	"github.com/ajitpratap0/nebula-io/pkg/config"
	"github.com/ajitpratap0/nebula-io/pkg/connector/archive"
	"github.com/ajitpratap0/nebula-io/pkg/descriptor"
	"github.com/ajitpratap0/nebula-io/pkg/errors"
	jsonpool "github.com/ajitpratap0/nebula-io/pkg/json"
	"github.com/ajitpratap0/nebula-io/pkg/observability"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// BasePath prefixes every connector endpoint.
const BasePath = "/admin/v3"

// Multipart field names of create and update.
const (
	DescriptorPart = "descriptor"
	DataPart       = "data"
	URLField       = "url"
)

// Ref names one deployed connector.
type Ref struct {
	Kind      config.Kind
	Tenant    string
	Namespace string
	Name      string
}

// FQN returns tenant/namespace/name.
func (r Ref) FQN() string {
	return r.Tenant + "/" + r.Namespace + "/" + r.Name
}

// RefOf returns the reference of a descriptor.
func RefOf(d *descriptor.Descriptor) Ref {
	return Ref{Kind: d.Kind, Tenant: d.Tenant, Namespace: d.Namespace, Name: d.Name}
}

// Client talks to the Admin API.
type Client struct {
	baseURL string
	http    *clients.HTTPClient
	logger  *zap.Logger
}

// New creates a client for the Admin API at baseURL.
func New(baseURL string, httpClient *clients.HTTPClient, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		logger:  logger.With(zap.String("component", "admin_client")),
	}
}

func (c *Client) collection(kind config.Kind) string {
	return c.baseURL + BasePath + "/" + kind.Plural()
}

func (c *Client) connectorURL(r Ref, suffix ...string) string {
	parts := []string{c.collection(r.Kind), url.PathEscape(r.Tenant), url.PathEscape(r.Namespace), url.PathEscape(r.Name)}
	for _, s := range suffix {
		parts = append(parts, url.PathEscape(s))
	}
	return strings.Join(parts, "/")
}

// Create registers a new connector from d.
func (c *Client) Create(ctx context.Context, d *descriptor.Descriptor) error {
	return c.upload(ctx, http.MethodPost, "create", d)
}

// Update replaces the definition of an existing connector.
func (c *Client) Update(ctx context.Context, d *descriptor.Descriptor) error {
	return c.upload(ctx, http.MethodPut, "update", d)
}

// upload sends d as a multipart form: the descriptor part, plus the package
// itself for local archives or its URL for package URLs. Builtin connectors
// send the descriptor alone.
func (c *Client) upload(ctx context.Context, method, op string, d *descriptor.Descriptor) (err error) {
	ctx, span := observability.StartSpan(ctx, "admin."+op,
		attribute.String("kind", string(d.Kind)), attribute.String("fqn", d.FQN()))
	defer func() { observability.EndSpan(span, err) }()

	payload, err := descriptor.Marshal(d)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to encode descriptor")
	}

	var file *os.File
	if archive.Classify(d.Archive) == archive.RefLocal {
		file, err = os.Open(d.Archive)
		if err != nil {
			return errors.Wrap(err, errors.ErrorTypeArchiveNotFound, fmt.Sprintf("failed to open archive %s", d.Archive))
		}
		defer func() { _ = file.Close() }()
	}

	pr, pw := io.Pipe()
	form := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeForm(form, payload, d.Archive, file))
	}()
	defer func() { _ = pr.Close() }()

	headers := map[string]string{"Content-Type": form.FormDataContentType()}
	var resp *http.Response
	if method == http.MethodPost {
		resp, err = c.http.Post(ctx, c.connectorURL(RefOf(d)), pr, headers)
	} else {
		resp, err = c.http.Put(ctx, c.connectorURL(RefOf(d)), pr, headers)
	}
	if err != nil {
		return connectionError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := checkResponse(resp); err != nil {
		return err
	}
	c.logger.Debug("connector uploaded", zap.String("op", op), zap.String("fqn", d.FQN()))
	return nil
}

func writeForm(form *multipart.Writer, payload []byte, ref string, file *os.File) error {
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q`, DescriptorPart))
	header.Set("Content-Type", "application/json")
	part, err := form.CreatePart(header)
	if err != nil {
		return err
	}
	if _, err := part.Write(payload); err != nil {
		return err
	}

	switch {
	case file != nil:
		w, err := form.CreateFormFile(DataPart, filepath.Base(file.Name()))
		if err != nil {
			return err
		}
		if _, err := io.Copy(w, file); err != nil {
			return err
		}
	case archive.IsURL(ref):
		if err := form.WriteField(URLField, ref); err != nil {
			return err
		}
	}
	return form.Close()
}

// Delete removes a connector.
func (c *Client) Delete(ctx context.Context, r Ref) error {
	return c.do(ctx, "delete", http.MethodDelete, c.connectorURL(r), nil)
}

// Get returns the connector definition as stored by the cluster.
func (c *Client) Get(ctx context.Context, r Ref) (map[string]interface{}, error) {
	var out map[string]interface{}
	if err := c.do(ctx, "get", http.MethodGet, c.connectorURL(r), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// List returns the connector names in a namespace.
func (c *Client) List(ctx context.Context, kind config.Kind, tenant, namespace string) ([]string, error) {
	u := strings.Join([]string{c.collection(kind), url.PathEscape(tenant), url.PathEscape(namespace)}, "/")
	var out []string
	if err := c.do(ctx, "list", http.MethodGet, u, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Status returns the runtime status of every instance, or of one instance
// when instance is non-nil.
func (c *Client) Status(ctx context.Context, r Ref, instance *int) (map[string]interface{}, error) {
	var out map[string]interface{}
	if err := c.do(ctx, "status", http.MethodGet, c.instanceURL(r, instance, "status"), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Restart restarts every instance, or one instance when instance is non-nil.
func (c *Client) Restart(ctx context.Context, r Ref, instance *int) error {
	return c.do(ctx, "restart", http.MethodPost, c.instanceURL(r, instance, "restart"), nil)
}

// Stop stops every instance, or one instance when instance is non-nil.
func (c *Client) Stop(ctx context.Context, r Ref, instance *int) error {
	return c.do(ctx, "stop", http.MethodPost, c.instanceURL(r, instance, "stop"), nil)
}

func (c *Client) instanceURL(r Ref, instance *int, action string) string {
	if instance == nil {
		return c.connectorURL(r, action)
	}
	return c.connectorURL(r, strconv.Itoa(*instance), action)
}

// ListBuiltins returns the definitions of the connectors bundled with the
// cluster.
func (c *Client) ListBuiltins(ctx context.Context, kind config.Kind) ([]archive.Definition, error) {
	var out []archive.Definition
	u := c.collection(kind) + "/builtin" + kind.Plural()
	if err := c.do(ctx, "list-builtins", http.MethodGet, u, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, op, method, u string, out interface{}) (err error) {
	ctx, span := observability.StartSpan(ctx, "admin."+op, attribute.String("url", u))
	defer func() { observability.EndSpan(span, err) }()

	var resp *http.Response
	headers := map[string]string{"Accept": "application/json"}
	switch method {
	case http.MethodGet:
		resp, err = c.http.Get(ctx, u, headers)
	case http.MethodDelete:
		resp, err = c.http.Delete(ctx, u, headers)
	default:
		resp, err = c.http.Post(ctx, u, nil, headers)
	}
	if err != nil {
		return connectionError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := checkResponse(resp); err != nil {
		return err
	}
	if out == nil {
		return nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeRemoteAPI, "failed to read response")
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := jsonpool.Unmarshal(body, out); err != nil {
		return errors.Wrap(err, errors.ErrorTypeRemoteAPI, "failed to decode response")
	}
	return nil
}

// connectionError reports a request that never got a response. It is a
// RemoteAPI error without a status; the transport error is kept as the cause.
func connectionError(err error) error {
	return errors.Wrap(err, errors.ErrorTypeRemoteAPI, "admin API request failed")
}

// remoteReason is the error body of the Admin API.
type remoteReason struct {
	Reason string `json:"reason"`
}

// checkResponse turns a non-2xx response into a RemoteAPI error carrying the
// status and the server's reason.
func checkResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	reason := strings.TrimSpace(string(body))
	var r remoteReason
	if err := jsonpool.Unmarshal(body, &r); err == nil && r.Reason != "" {
		reason = r.Reason
	}
	if reason == "" {
		reason = http.StatusText(resp.StatusCode)
	}

	return errors.Newf(errors.ErrorTypeRemoteAPI, "%d %s", resp.StatusCode, reason).
		WithDetail("status", resp.StatusCode).
		WithDetail("reason", reason)
}

// StatusCode returns the HTTP status carried by a RemoteAPI error, or 0.
func StatusCode(err error) int {
	v, ok := errors.Detail(err, "status")
	if !ok {
		return 0
	}
	code, _ := v.(int)
	return code
}
