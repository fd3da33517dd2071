package archive

import (
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/ajitpratap0/nebula-io/pkg/config"
	"github.com/klauspost/compress/zip"
	"gopkg.in/yaml.v3"
)

// DefinitionFile is the descriptor every connector package carries at its root.
const DefinitionFile = "connector.yaml"

// maxDefinitionSize bounds how much of connector.yaml is read.
const maxDefinitionSize = 1 << 20

// Definition is the connector.yaml of a package. The Admin API returns the
// same structure (as JSON) for its builtin connectors.
type Definition struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`

	SourceClass string `yaml:"sourceClass" json:"sourceClass"`
	SinkClass   string `yaml:"sinkClass" json:"sinkClass"`

	// SourceType / SinkType are the record type classes the connector emits or accepts
	SourceType string `yaml:"sourceType" json:"sourceType,omitempty"`
	SinkType   string `yaml:"sinkType" json:"sinkType,omitempty"`

	DefaultSchemaType string `yaml:"defaultSchemaType" json:"defaultSchemaType,omitempty"`
	AvroSchema        string `yaml:"avroSchema" json:"avroSchema,omitempty"`

	// Classes lists every implementation class shipped in the package
	Classes []string `yaml:"classes" json:"classes,omitempty"`
}

// ClassFor returns the declared implementation class for kind.
func (d *Definition) ClassFor(kind config.Kind) string {
	if kind == config.KindSink {
		return d.SinkClass
	}
	return d.SourceClass
}

// TypeFor returns the declared record type for kind.
func (d *Definition) TypeFor(kind config.Kind) string {
	if kind == config.KindSink {
		return d.SinkType
	}
	return d.SourceType
}

// HasClass reports whether className is shipped in the package.
func (d *Definition) HasClass(className string) bool {
	if className == "" {
		return false
	}
	if className == d.SinkClass || className == d.SourceClass {
		return true
	}
	for _, c := range d.Classes {
		if c == className {
			return true
		}
	}
	return false
}

// Package is an open connector archive. Close must be called on every path.
type Package struct {
	Path       string
	Definition *Definition

	reader *zip.ReadCloser
}

// OpenPackage opens the zip archive at p and decodes its definition.
func OpenPackage(p string) (*Package, error) {
	r, err := zip.OpenReader(p)
	if err != nil {
		return nil, fmt.Errorf("failed to open connector package %s: %w", p, err)
	}

	def, err := readDefinition(&r.Reader)
	if err != nil {
		_ = r.Close()
		return nil, fmt.Errorf("invalid connector package %s: %w", p, err)
	}

	return &Package{Path: p, Definition: def, reader: r}, nil
}

// Close releases the archive.
func (p *Package) Close() error {
	if p == nil || p.reader == nil {
		return nil
	}
	err := p.reader.Close()
	p.reader = nil
	return err
}

// Entries returns the file names stored in the archive.
func (p *Package) Entries() []string {
	if p.reader == nil {
		return nil
	}
	names := make([]string, 0, len(p.reader.File))
	for _, f := range p.reader.File {
		names = append(names, f.Name)
	}
	return names
}

// ReadDefinition opens the archive at p just long enough to decode its definition.
func ReadDefinition(p string) (*Definition, error) {
	pkg, err := OpenPackage(p)
	if err != nil {
		return nil, err
	}
	defer pkg.Close()
	return pkg.Definition, nil
}

// ParseDefinition decodes a connector.yaml document.
func ParseDefinition(data []byte) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", DefinitionFile, err)
	}
	def.Name = strings.TrimSpace(def.Name)
	if def.Name == "" {
		return nil, fmt.Errorf("%s does not declare a name", DefinitionFile)
	}
	return &def, nil
}

func readDefinition(r *zip.Reader) (*Definition, error) {
	for _, f := range r.File {
		if path.Clean(f.Name) != DefinitionFile {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()

		data, err := io.ReadAll(io.LimitReader(rc, maxDefinitionSize))
		if err != nil {
			return nil, err
		}
		return ParseDefinition(data)
	}
	return nil, fmt.Errorf("%s not found", DefinitionFile)
}
