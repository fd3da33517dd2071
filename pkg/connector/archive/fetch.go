package archive

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/ajitpratap0/nebula-io/pkg/logger"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// HTTPGetter is the subset of clients.HTTPClient the fetcher needs.
type HTTPGetter interface {
	Get(ctx context.Context, url string, headers map[string]string) (*http.Response, error)
}

// Fetcher downloads package URLs to temporary files so they can be inspected
// locally.
type Fetcher struct {
	HTTP HTTPGetter
	// GCSCredentialsFile is passed to the storage client for gs:// URLs
	GCSCredentialsFile string
	// S3Region overrides the region from the default AWS config chain
	S3Region string

	logger *zap.Logger
}

// NewFetcher creates a fetcher. httpClient may be nil when no http(s) URL is
// expected.
func NewFetcher(httpClient HTTPGetter, gcsCredentialsFile, s3Region string) *Fetcher {
	return &Fetcher{
		HTTP:               httpClient,
		GCSCredentialsFile: gcsCredentialsFile,
		S3Region:           s3Region,
		logger:             logger.Get().With(zap.String("component", "package_fetcher")),
	}
}

// Fetch makes ref available as a local file. The returned cleanup removes any
// temporary copy and is safe to call on every path, including errors.
func (f *Fetcher) Fetch(ctx context.Context, ref string) (string, func(), error) {
	noop := func() {}

	switch {
	case strings.HasPrefix(ref, "file:"):
		p, err := filePath(ref)
		if err != nil {
			return "", noop, err
		}
		return p, noop, nil
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return f.download(ctx, ref, f.fetchHTTP)
	case strings.HasPrefix(ref, "gs://"):
		return f.download(ctx, ref, f.fetchGCS)
	case strings.HasPrefix(ref, "s3://"):
		return f.download(ctx, ref, f.fetchS3)
	}
	return "", noop, fmt.Errorf("unsupported package URL %q", ref)
}

func (f *Fetcher) download(ctx context.Context, ref string, fetch func(context.Context, string, *os.File) error) (string, func(), error) {
	tmp, err := os.CreateTemp("", "nebula-io-package-*.zip")
	if err != nil {
		return "", func() {}, fmt.Errorf("failed to create temp file: %w", err)
	}
	cleanup := func() {
		_ = os.Remove(tmp.Name())
	}

	err = fetch(ctx, ref, tmp)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		cleanup()
		return "", func() {}, fmt.Errorf("failed to fetch package %s: %w", ref, err)
	}

	f.logger.Debug("package fetched", zap.String("url", ref), zap.String("path", tmp.Name()))
	return tmp.Name(), cleanup, nil
}

func (f *Fetcher) fetchHTTP(ctx context.Context, ref string, w *os.File) error {
	if f.HTTP == nil {
		return fmt.Errorf("no HTTP client configured")
	}
	resp, err := f.HTTP.Get(ctx, ref, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	_, err = io.Copy(w, resp.Body)
	return err
}

func (f *Fetcher) fetchGCS(ctx context.Context, ref string, w *os.File) error {
	bucket, object, err := splitObjectURL(ref, "gs://")
	if err != nil {
		return err
	}

	var opts []option.ClientOption
	if f.GCSCredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(f.GCSCredentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return fmt.Errorf("failed to create GCS client: %w", err)
	}
	defer client.Close()

	r, err := client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return err
	}
	defer r.Close()

	_, err = io.Copy(w, r)
	return err
}

func (f *Fetcher) fetchS3(ctx context.Context, ref string, w *os.File) error {
	bucket, key, err := splitObjectURL(ref, "s3://")
	if err != nil {
		return err
	}

	var opts []func(*awsconfig.LoadOptions) error
	if f.S3Region != "" {
		opts = append(opts, awsconfig.WithRegion(f.S3Region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return fmt.Errorf("failed to load AWS config: %w", err)
	}

	downloader := manager.NewDownloader(s3.NewFromConfig(cfg))
	_, err = downloader.Download(ctx, w, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	return err
}

// splitObjectURL splits scheme://bucket/key.
func splitObjectURL(ref, scheme string) (string, string, error) {
	rest := strings.TrimPrefix(ref, scheme)
	bucket, key, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("invalid object URL %q, expected %s<bucket>/<key>", ref, scheme)
	}
	return bucket, key, nil
}

// filePath returns the local path of a file: URL.
func filePath(ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("invalid file URL %q: %w", ref, err)
	}
	p := u.Path
	if p == "" {
		p = u.Opaque
	}
	if p == "" {
		return "", fmt.Errorf("invalid file URL %q: empty path", ref)
	}
	return p, nil
}
