package cli

import (
	"github.com/ajitpratap0/nebula-io/internal/localrun"
	"github.com/ajitpratap0/nebula-io/internal/pipeline"
	"github.com/ajitpratap0/nebula-io/pkg/config"
	"github.com/spf13/pflag"
)

// deprecate registers a hidden legacy spelling of canonical.
func deprecate(fs *pflag.FlagSet, name, canonical string) {
	_ = fs.MarkDeprecated(name, "use --"+canonical+" instead")
}

// addDeployFlags registers the flags of create, update and local-run.
func addDeployFlags(fs *pflag.FlagSet, kind config.Kind) {
	k := string(kind)

	fs.String("tenant", "", "The "+k+"'s tenant")
	fs.String("namespace", "", "The "+k+"'s namespace")
	fs.String("name", "", "The "+k+"'s name")
	fs.StringP("archive", "a", "", "Path to the archive file for the "+k+", a package URL or builtin://<type>")
	fs.StringP(k+"-type", "t", "", "The "+k+"'s connector provider")
	fs.String("classname", "", "The "+k+"'s class name if archive is file-url-path (file://)")
	fs.String("className", "", "")
	deprecate(fs, "className", "classname")
	fs.Int("parallelism", config.DefaultParallelism, "The "+k+"'s parallelism factor (i.e. the number of instances to run)")
	fs.String("processing-guarantees", "", "The processing guarantees (ATLEAST_ONCE, ATMOST_ONCE, EFFECTIVELY_ONCE)")
	fs.String("processingGuarantees", "", "")
	deprecate(fs, "processingGuarantees", "processing-guarantees")

	fs.Float64("cpu", 0, "The CPU (in cores) that needs to be allocated per instance")
	fs.Int64("ram", 0, "The RAM (in bytes) that needs to be allocated per instance")
	fs.Int64("disk", 0, "The disk (in bytes) that needs to be allocated per instance")

	fs.String(k+"-config-file", "", "The path to a YAML config file specifying the "+k+"'s configuration")
	fs.String(k+"ConfigFile", "", "")
	deprecate(fs, k+"ConfigFile", k+"-config-file")
	fs.String(k+"-config", "", "User defined configs key/values as a JSON object")
	fs.String(k+"Config", "", "")
	deprecate(fs, k+"Config", k+"-config")

	switch kind {
	case config.KindSink:
		fs.StringP("inputs", "i", "", "The sink's input topic or topics (multiple topics can be specified as a comma-separated list)")
		fs.String("topics-pattern", "", "The topic pattern to consume from a list of topics under a namespace that match the pattern")
		fs.String("topicsPattern", "", "")
		deprecate(fs, "topicsPattern", "topics-pattern")
		fs.String("subs-name", "", "Source subscription name if user wants a specific subscription-name for input-topic consumer")
		fs.String("subsName", "", "")
		deprecate(fs, "subsName", "subs-name")
		fs.String("custom-serde-inputs", "", "The map of input topics to SerDe class names (as a JSON string)")
		fs.String("customSerdeInputs", "", "")
		deprecate(fs, "customSerdeInputs", "custom-serde-inputs")
		fs.String("custom-schema-inputs", "", "The map of input topics to schema types or class names (as a JSON string)")
		fs.Bool("retain-ordering", false, "Sink consumes and sinks messages in order")
		fs.Bool("retainOrdering", false, "")
		deprecate(fs, "retainOrdering", "retain-ordering")
		fs.Bool("auto-ack", true, "Whether or not the framework will automatically acknowledge messages")
		fs.Int64("timeout-ms", 0, "The message timeout in milliseconds")
	case config.KindSource:
		fs.String("destination-topic-name", "", "The topic to which data is sent")
		fs.StringP("destinationTopicName", "o", "", "")
		deprecate(fs, "destinationTopicName", "destination-topic-name")
		fs.String("deserialization-classname", "", "The SerDe classname for the source")
		fs.String("deserializationClassName", "", "")
		deprecate(fs, "deserializationClassName", "deserialization-classname")
		fs.String("schema-type", "", "The schema type (either a builtin schema like 'avro', 'json', etc, or custom Schema class name to be used to encode messages emitted from the source")
	}
}

// addLocalRunFlags registers the client settings of local-run.
func addLocalRunFlags(fs *pflag.FlagSet) {
	fs.String("broker-service-url", "", "The URL for the broker")
	fs.String("brokerServiceUrl", "", "")
	deprecate(fs, "brokerServiceUrl", "broker-service-url")
	fs.String("client-auth-plugin", "", "Client authentication plugin used by the local runtime to connect to the broker")
	fs.String("clientAuthPlugin", "", "")
	deprecate(fs, "clientAuthPlugin", "client-auth-plugin")
	fs.String("client-auth-params", "", "Client authentication param")
	fs.String("clientAuthParams", "", "")
	deprecate(fs, "clientAuthParams", "client-auth-params")
	fs.Bool("use-tls", false, "Use tls connection")
	fs.Bool("use_tls", false, "")
	deprecate(fs, "use_tls", "use-tls")
	fs.Bool("tls-allow-insecure", false, "Allow insecure tls connection")
	fs.Bool("tls_allow_insecure", false, "")
	deprecate(fs, "tls_allow_insecure", "tls-allow-insecure")
	fs.Bool("hostname-verification-enabled", false, "Enable hostname verification")
	fs.Bool("hostname_verification_enabled", false, "")
	deprecate(fs, "hostname_verification_enabled", "hostname-verification-enabled")
	fs.String("tls-trust-cert-path", "", "tls trust cert file path")
	fs.String("tls_trust_cert_path", "", "")
	deprecate(fs, "tls_trust_cert_path", "tls-trust-cert-path")
}

// changed reads flags only when the operator supplied them.
type changed struct {
	fs *pflag.FlagSet
}

func (c changed) str(name string) *string {
	if c.fs.Lookup(name) == nil || !c.fs.Changed(name) {
		return nil
	}
	v, _ := c.fs.GetString(name)
	return &v
}

func (c changed) boolean(name string) *bool {
	if c.fs.Lookup(name) == nil || !c.fs.Changed(name) {
		return nil
	}
	v, _ := c.fs.GetBool(name)
	return &v
}

func (c changed) integer(name string) *int {
	if c.fs.Lookup(name) == nil || !c.fs.Changed(name) {
		return nil
	}
	v, _ := c.fs.GetInt(name)
	return &v
}

func (c changed) int64(name string) *int64 {
	if c.fs.Lookup(name) == nil || !c.fs.Changed(name) {
		return nil
	}
	v, _ := c.fs.GetInt64(name)
	return &v
}

func (c changed) float(name string) *float64 {
	if c.fs.Lookup(name) == nil || !c.fs.Changed(name) {
		return nil
	}
	v, _ := c.fs.GetFloat64(name)
	return &v
}

// collectArgs builds the pipeline arguments from the supplied flags.
func collectArgs(fs *pflag.FlagSet, kind config.Kind) *pipeline.Args {
	f := changed{fs}
	k := string(kind)

	a := &pipeline.Args{
		Tenant:               f.str("tenant"),
		Namespace:            f.str("namespace"),
		Name:                 f.str("name"),
		ClassName:            f.str("classname"),
		Archive:              f.str("archive"),
		ConnectorType:        f.str(k + "-type"),
		Parallelism:          f.integer("parallelism"),
		ProcessingGuarantees: f.str("processing-guarantees"),
		CPU:                  f.float("cpu"),
		RAM:                  f.int64("ram"),
		Disk:                 f.int64("disk"),
		ConfigFile:           f.str(k + "-config-file"),
		Configs:              f.str(k + "-config"),

		DeprecatedClassName:            f.str("className"),
		DeprecatedProcessingGuarantees: f.str("processingGuarantees"),
		DeprecatedConfigFile:           f.str(k + "ConfigFile"),
		DeprecatedConfigs:              f.str(k + "Config"),

		Sink: pipeline.SinkArgs{
			Inputs:             f.str("inputs"),
			TopicsPattern:      f.str("topics-pattern"),
			SubsName:           f.str("subs-name"),
			CustomSerdeInputs:  f.str("custom-serde-inputs"),
			CustomSchemaInputs: f.str("custom-schema-inputs"),
			RetainOrdering:     f.boolean("retain-ordering"),
			AutoAck:            f.boolean("auto-ack"),
			TimeoutMs:          f.int64("timeout-ms"),

			DeprecatedSubsName:          f.str("subsName"),
			DeprecatedTopicsPattern:     f.str("topicsPattern"),
			DeprecatedCustomSerdeInputs: f.str("customSerdeInputs"),
			DeprecatedRetainOrdering:    f.boolean("retainOrdering"),
		},
		Source: pipeline.SourceArgs{
			DestinationTopicName:     f.str("destination-topic-name"),
			DeserializationClassName: f.str("deserialization-classname"),
			SchemaType:               f.str("schema-type"),

			DeprecatedDestinationTopicName:     f.str("destinationTopicName"),
			DeprecatedDeserializationClassName: f.str("deserializationClassName"),
		},
		LocalRun: pipeline.LocalRunArgs{
			BrokerServiceURL:            f.str("broker-service-url"),
			ClientAuthPlugin:            f.str("client-auth-plugin"),
			ClientAuthParams:            f.str("client-auth-params"),
			UseTLS:                      f.boolean("use-tls"),
			TLSAllowInsecure:            f.boolean("tls-allow-insecure"),
			HostnameVerificationEnabled: f.boolean("hostname-verification-enabled"),
			TLSTrustCertPath:            f.str("tls-trust-cert-path"),

			DeprecatedBrokerServiceURL:            f.str("brokerServiceUrl"),
			DeprecatedClientAuthPlugin:            f.str("clientAuthPlugin"),
			DeprecatedClientAuthParams:            f.str("clientAuthParams"),
			DeprecatedUseTLS:                      f.boolean("use_tls"),
			DeprecatedTLSAllowInsecure:            f.boolean("tls_allow_insecure"),
			DeprecatedHostnameVerificationEnabled: f.boolean("hostname_verification_enabled"),
			DeprecatedTLSTrustCertPath:            f.str("tls_trust_cert_path"),
		},
	}
	return a
}

// runOptions turns the merged local-run arguments into runner options.
func runOptions(a pipeline.LocalRunArgs) localrun.Options {
	deref := func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	}
	flag := func(b *bool) bool {
		return b != nil && *b
	}
	return localrun.Options{
		BrokerServiceURL:            deref(a.BrokerServiceURL),
		ClientAuthPlugin:            deref(a.ClientAuthPlugin),
		ClientAuthParams:            deref(a.ClientAuthParams),
		UseTLS:                      flag(a.UseTLS),
		TLSAllowInsecure:            flag(a.TLSAllowInsecure),
		HostnameVerificationEnabled: flag(a.HostnameVerificationEnabled),
		TLSTrustCertPath:            deref(a.TLSTrustCertPath),
	}
}
