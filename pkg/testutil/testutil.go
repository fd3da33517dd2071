// Package testutil provides testing utilities for nebula-io
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// TestLogger creates a test logger that writes to the test output.
// The logger is automatically cleaned up when the test completes.
func TestLogger(t *testing.T) *zap.Logger {
	return zaptest.NewLogger(t)
}

// TestContext creates a test context with a 30-second timeout.
// The caller must call the returned cancel function to avoid leaks.
func TestContext(_ *testing.T) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

// SinkDefinition is a connector.yaml for a package shipping one sink class.
const SinkDefinition = `name: elastic
description: Writes records to an Elasticsearch index
sinkClass: io.nebula.sinks.ElasticSink
sinkType: io.nebula.records.GenericRecord
classes:
  - io.nebula.sinks.ElasticSink
  - io.nebula.sinks.ElasticBulkSink
`

// SourceDefinition is a connector.yaml for a package shipping one source class
// with an embedded Avro schema.
const SourceDefinition = `name: kinesis
description: Reads records from a Kinesis stream
sourceClass: io.nebula.sources.KinesisSource
sourceType: io.nebula.records.KinesisRecord
defaultSchemaType: avro
avroSchema: '{"type":"record","name":"KinesisRecord","fields":[{"name":"key","type":"string"},{"name":"data","type":"bytes"}]}'
classes:
  - io.nebula.sources.KinesisSource
`

// WriteArchive writes a zip connector package named name into dir holding
// definition as connector.yaml plus any extra entries. An empty definition
// produces a package without connector.yaml. It returns the archive path.
func WriteArchive(t *testing.T, dir, name, definition string, extra map[string]string) string {
	t.Helper()

	p := filepath.Join(dir, name)
	f, err := os.Create(p)
	require.NoError(t, err)

	zw := zip.NewWriter(f)
	write := func(entry, content string) {
		w, err := zw.Create(entry)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}

	if definition != "" {
		write("connector.yaml", definition)
	}
	for entry, content := range extra {
		write(entry, content)
	}

	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return p
}
