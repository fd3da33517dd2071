package pipeline

import (
	"strings"
)

// Alias merges one deprecated flag into its canonical counterpart.
type Alias struct {
	Deprecated string
	Canonical  string

	merge func(a *Args) bool
}

// stringAlias copies a non-blank deprecated value over the canonical one,
// whether or not the canonical flag was also supplied.
func stringAlias(deprecated, canonical string, fields func(a *Args) (**string, **string)) Alias {
	return Alias{
		Deprecated: deprecated,
		Canonical:  canonical,
		merge: func(a *Args) bool {
			dep, canon := fields(a)
			if *dep == nil || strings.TrimSpace(**dep) == "" {
				return false
			}
			v := **dep
			*canon = &v
			return true
		},
	}
}

// boolAlias copies a supplied deprecated value over the canonical one.
func boolAlias(deprecated, canonical string, fields func(a *Args) (**bool, **bool)) Alias {
	return Alias{
		Deprecated: deprecated,
		Canonical:  canonical,
		merge: func(a *Args) bool {
			dep, canon := fields(a)
			if *dep == nil {
				return false
			}
			v := **dep
			*canon = &v
			return true
		},
	}
}

// ResolveAliases applies rules in order and returns the deprecated flags that
// were merged.
func ResolveAliases(a *Args, rules []Alias) []Alias {
	var applied []Alias
	for _, r := range rules {
		if r.merge(a) {
			applied = append(applied, r)
		}
	}
	return applied
}

var commonAliases = []Alias{
	stringAlias("processingGuarantees", "processing-guarantees", func(a *Args) (**string, **string) {
		return &a.DeprecatedProcessingGuarantees, &a.ProcessingGuarantees
	}),
	stringAlias("className", "classname", func(a *Args) (**string, **string) {
		return &a.DeprecatedClassName, &a.ClassName
	}),
}

var sinkAliases = []Alias{
	stringAlias("subsName", "subs-name", func(a *Args) (**string, **string) {
		return &a.Sink.DeprecatedSubsName, &a.Sink.SubsName
	}),
	stringAlias("topicsPattern", "topics-pattern", func(a *Args) (**string, **string) {
		return &a.Sink.DeprecatedTopicsPattern, &a.Sink.TopicsPattern
	}),
	stringAlias("customSerdeInputs", "custom-serde-inputs", func(a *Args) (**string, **string) {
		return &a.Sink.DeprecatedCustomSerdeInputs, &a.Sink.CustomSerdeInputs
	}),
	commonAliases[0],
	boolAlias("retainOrdering", "retain-ordering", func(a *Args) (**bool, **bool) {
		return &a.Sink.DeprecatedRetainOrdering, &a.Sink.RetainOrdering
	}),
	commonAliases[1],
	stringAlias("sinkConfigFile", "sink-config-file", func(a *Args) (**string, **string) {
		return &a.DeprecatedConfigFile, &a.ConfigFile
	}),
	stringAlias("sinkConfig", "sink-config", func(a *Args) (**string, **string) {
		return &a.DeprecatedConfigs, &a.Configs
	}),
}

var sourceAliases = []Alias{
	commonAliases[0],
	stringAlias("destinationTopicName", "destination-topic-name", func(a *Args) (**string, **string) {
		return &a.Source.DeprecatedDestinationTopicName, &a.Source.DestinationTopicName
	}),
	stringAlias("deserializationClassName", "deserialization-classname", func(a *Args) (**string, **string) {
		return &a.Source.DeprecatedDeserializationClassName, &a.Source.DeserializationClassName
	}),
	commonAliases[1],
	stringAlias("sourceConfigFile", "source-config-file", func(a *Args) (**string, **string) {
		return &a.DeprecatedConfigFile, &a.ConfigFile
	}),
	stringAlias("sourceConfig", "source-config", func(a *Args) (**string, **string) {
		return &a.DeprecatedConfigs, &a.Configs
	}),
}

var localRunAliases = []Alias{
	stringAlias("brokerServiceUrl", "broker-service-url", func(a *Args) (**string, **string) {
		return &a.LocalRun.DeprecatedBrokerServiceURL, &a.LocalRun.BrokerServiceURL
	}),
	stringAlias("clientAuthPlugin", "client-auth-plugin", func(a *Args) (**string, **string) {
		return &a.LocalRun.DeprecatedClientAuthPlugin, &a.LocalRun.ClientAuthPlugin
	}),
	stringAlias("clientAuthParams", "client-auth-params", func(a *Args) (**string, **string) {
		return &a.LocalRun.DeprecatedClientAuthParams, &a.LocalRun.ClientAuthParams
	}),
	boolAlias("use_tls", "use-tls", func(a *Args) (**bool, **bool) {
		return &a.LocalRun.DeprecatedUseTLS, &a.LocalRun.UseTLS
	}),
	boolAlias("tls_allow_insecure", "tls-allow-insecure", func(a *Args) (**bool, **bool) {
		return &a.LocalRun.DeprecatedTLSAllowInsecure, &a.LocalRun.TLSAllowInsecure
	}),
	boolAlias("hostname_verification_enabled", "hostname-verification-enabled", func(a *Args) (**bool, **bool) {
		return &a.LocalRun.DeprecatedHostnameVerificationEnabled, &a.LocalRun.HostnameVerificationEnabled
	}),
	stringAlias("tls_trust_cert_path", "tls-trust-cert-path", func(a *Args) (**string, **string) {
		return &a.LocalRun.DeprecatedTLSTrustCertPath, &a.LocalRun.TLSTrustCertPath
	}),
}

// LocalRunAliases returns the alias rules of the local-run client flags.
func LocalRunAliases() []Alias {
	return localRunAliases
}
