// Package config provides the configuration model of nebula-io.
//
// # Connector configuration
//
// SinkConfig and SourceConfig embed ConnectorConfig and together form the
// tagged variant consumed by the resolution pipeline. Both are plain values
// that can be decoded from YAML:
//
//	# sink.yaml
//	tenant: analytics
//	name: es-writer
//	archive: ./connectors/elastic.nar
//	inputs: [clicks, views]
//	resources:
//	  cpu: 0.5
//	configs:
//	  elasticSearchUrl: ${ES_URL}
//
// Environment variables written as ${VAR_NAME} are substituted before parsing.
// Keys missing from the file keep the defaults of NewSinkConfig/NewSourceConfig.
//
// # Client configuration
//
// ClientConfig holds the CLI's own settings (Admin API URL, authentication,
// connectors directory). It is loaded through viper from client.yaml, from
// NEBULA_IO_* environment variables, and from bound command-line flags.
package config
