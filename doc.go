// Package nebulaio is a command line for deploying sink and source connectors.
//
// Nebula IO turns an operator's flags, an optional YAML config file and a
// connector package into a single deployment descriptor, checks it, and either
// submits it to the cluster's Admin API or hands it to a local runtime.
//
// # Architecture
//
// Every create, update and local-run goes through the same resolution
// pipeline (internal/pipeline):
//
//  1. Merge deprecated flag spellings into their canonical flags.
//  2. Load the YAML config file, with ${VAR_NAME} environment substitution.
//  3. Apply flags over the file, field by field.
//  4. Resolve --archive or --sink-type/--source-type to a package reference.
//  5. Normalize defaults (tenant, namespace, processing guarantees).
//  6. Validate structure, then inspect the package for its connector class.
//  7. Convert to a descriptor and submit it.
//
// A failure at any stage stops the run with a typed error from pkg/errors.
//
// # Quick Start
//
// Deploy an Elasticsearch sink from a local package:
//
//	nebula-io sink create \
//	    --tenant public --namespace default --name es-writer \
//	    --archive ./connectors/elastic.nar \
//	    --inputs clicks,views \
//	    --sink-config '{"elasticSearchUrl":"http://es:9200"}'
//
// Deploy a builtin source and run it locally instead:
//
//	nebula-io source local-run --source-type kinesis \
//	    --name kinesis-events --destination-topic-name events \
//	    --connectors-dir ./connectors
//
// # Key Packages
//
//	internal/pipeline        - Configuration resolution pipeline
//	internal/cli             - Cobra commands for sinks and sources
//	internal/localrun        - Local runtime launcher
//	pkg/admin                - Admin API client
//	pkg/clients              - HTTP transport and authentication
//	pkg/config               - Connector and client configuration
//	pkg/connector/archive    - Package references, fetching, connector.yaml
//	pkg/connector/inspect    - Connector class and schema discovery
//	pkg/connector/registry   - Connector type to package resolution
//	pkg/descriptor           - Deployment descriptor
//	pkg/errors               - Structured error handling
//	pkg/logger               - Structured logging
//	pkg/metrics              - Prometheus metrics
//	pkg/observability        - Tracing
//
// # Configuration
//
// Client settings are read from $HOME/.nebula-io/client.yaml (or --config),
// from NEBULA_IO_* environment variables and from the global flags, in
// increasing order of precedence. A .env file in the working directory is
// loaded before anything else.
package nebulaio
