// Package localrun hands a resolved descriptor to a connector runtime on the
// local machine instead of submitting it to a cluster.
package localrun

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"

	"github.com/ajitpratap0/nebula-io/pkg/descriptor"
	"github.com/ajitpratap0/nebula-io/pkg/errors"
	jsonpool "github.com/ajitpratap0/nebula-io/pkg/json"
	"go.uber.org/zap"
)

// Options are the client settings a local runtime needs to reach the broker.
type Options struct {
	BrokerServiceURL            string `json:"brokerServiceUrl,omitempty"`
	ClientAuthPlugin            string `json:"clientAuthPlugin,omitempty"`
	ClientAuthParams            string `json:"-"`
	UseTLS                      bool   `json:"useTls"`
	TLSAllowInsecure            bool   `json:"tlsAllowInsecure"`
	HostnameVerificationEnabled bool   `json:"hostnameVerificationEnabled"`
	TLSTrustCertPath            string `json:"tlsTrustCertPath,omitempty"`
}

// args renders the options as runtime flags.
func (o Options) args() []string {
	var out []string
	add := func(flag, v string) {
		if v != "" {
			out = append(out, "--"+flag, v)
		}
	}
	add("broker-service-url", o.BrokerServiceURL)
	add("client-auth-plugin", o.ClientAuthPlugin)
	add("client-auth-params", o.ClientAuthParams)
	add("tls-trust-cert-path", o.TLSTrustCertPath)
	out = append(out,
		"--use-tls="+strconv.FormatBool(o.UseTLS),
		"--tls-allow-insecure="+strconv.FormatBool(o.TLSAllowInsecure),
		"--hostname-verification-enabled="+strconv.FormatBool(o.HostnameVerificationEnabled))
	return out
}

// Runner runs a descriptor locally.
type Runner interface {
	Run(ctx context.Context, d *descriptor.Descriptor, opts Options) error
}

// New returns a ProcessRunner for binary, or a PrintRunner when binary is empty.
func New(binary string, stdout, stderr io.Writer, logger *zap.Logger) Runner {
	if binary == "" {
		return &PrintRunner{Out: stdout}
	}
	return &ProcessRunner{Binary: binary, Stdout: stdout, Stderr: stderr, Logger: logger}
}

// ProcessRunner writes the descriptor to a temporary file and runs the
// connector runtime binary on it until the runtime exits or ctx is done.
type ProcessRunner struct {
	Binary string
	Stdout io.Writer
	Stderr io.Writer
	Logger *zap.Logger
}

// Run implements Runner
func (r *ProcessRunner) Run(ctx context.Context, d *descriptor.Descriptor, opts Options) error {
	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	payload, err := descriptor.MarshalIndent(d)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to encode descriptor")
	}

	f, err := os.CreateTemp("", "nebula-io-descriptor-*.json")
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to create descriptor file")
	}
	defer func() {
		_ = f.Close()
		_ = os.Remove(f.Name())
	}()
	if _, err := f.Write(payload); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write descriptor file")
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write descriptor file")
	}

	args := append([]string{"--descriptor", f.Name()}, opts.args()...)
	cmd := exec.CommandContext(ctx, r.Binary, args...)
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr

	logger.Info("starting local runtime",
		zap.String("binary", r.Binary),
		zap.String("connector", d.FQN()),
		zap.String("kind", string(d.Kind)))

	if err := cmd.Run(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal,
			fmt.Sprintf("local runtime %s failed for %s %s", r.Binary, d.Kind, d.FQN()))
	}
	return nil
}

// PrintRunner prints the descriptor and the run options instead of running them.
type PrintRunner struct {
	Out io.Writer
}

// Run implements Runner
func (r *PrintRunner) Run(_ context.Context, d *descriptor.Descriptor, opts Options) error {
	out := r.Out
	if out == nil {
		out = os.Stdout
	}
	if err := jsonpool.MarshalToWriter(out, d); err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to encode descriptor")
	}
	if opts.BrokerServiceURL != "" {
		_, err := fmt.Fprintf(out, "broker: %s (tls=%t)\n", opts.BrokerServiceURL, opts.UseTLS)
		return err
	}
	return nil
}
