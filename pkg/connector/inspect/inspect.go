// Package inspect statically loads a connector package and checks it against
// the requested deployment before anything is submitted.
package inspect

import (
	"context"
	"fmt"

	"github.com/ajitpratap0/nebula-io/pkg/config"
	"github.com/ajitpratap0/nebula-io/pkg/connector/archive"
	"github.com/ajitpratap0/nebula-io/pkg/logger"
	"github.com/linkedin/goavro/v2"
	"go.uber.org/zap"
)

// Request describes what to inspect. An empty Archive means a builtin
// connector, which the cluster validates itself.
type Request struct {
	Kind config.Kind
	// Archive is a local path or a package URL
	Archive   string
	ClassName string
}

// Metadata is what inspection learned about the package.
type Metadata struct {
	ConnectorName string
	// ClassName is the requested class, or the package default when none was requested
	ClassName string
	// RecordType is the record type class the connector produces or consumes
	RecordType        string
	DefaultSchemaType string
	// AvroSchema is the canonical form of the schema embedded in the package
	AvroSchema string
}

// LoadError is a structured package load failure.
type LoadError struct {
	Archive string
	Reason  string
	Err     error
}

func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Fetcher makes a package URL available locally.
type Fetcher interface {
	Fetch(ctx context.Context, ref string) (string, func(), error)
}

// Inspector opens connector packages.
type Inspector struct {
	fetcher Fetcher
	logger  *zap.Logger
}

// New creates an inspector. fetcher is only used for package URLs.
func New(fetcher Fetcher) *Inspector {
	return &Inspector{
		fetcher: fetcher,
		logger:  logger.Get().With(zap.String("component", "package_inspector")),
	}
}

// Inspect loads the package named by req. Every handle and temporary file
// acquired here is released before it returns.
func (i *Inspector) Inspect(ctx context.Context, req Request) (*Metadata, error) {
	if req.Archive == "" {
		return &Metadata{ClassName: req.ClassName}, nil
	}

	p := req.Archive
	if archive.IsURL(p) {
		if i.fetcher == nil {
			return nil, &LoadError{Archive: req.Archive, Reason: fmt.Sprintf("cannot fetch package %s", req.Archive)}
		}
		local, cleanup, err := i.fetcher.Fetch(ctx, p)
		defer cleanup()
		if err != nil {
			return nil, &LoadError{Archive: req.Archive, Reason: "failed to download package", Err: err}
		}
		p = local
	}

	pkg, err := archive.OpenPackage(p)
	if err != nil {
		return nil, &LoadError{Archive: req.Archive, Reason: "failed to load package", Err: err}
	}
	defer pkg.Close()

	md, err := inspectDefinition(req, pkg.Definition)
	if err != nil {
		return nil, err
	}

	i.logger.Debug("package inspected",
		zap.String("archive", req.Archive),
		zap.String("class_name", md.ClassName),
		zap.String("record_type", md.RecordType))
	return md, nil
}

func inspectDefinition(req Request, def *archive.Definition) (*Metadata, error) {
	declared := def.ClassFor(req.Kind)

	className := req.ClassName
	switch {
	case className == "" && declared == "":
		return nil, &LoadError{
			Archive: req.Archive,
			Reason:  fmt.Sprintf("package %s does not declare a %s class and no class name was given", def.Name, req.Kind),
		}
	case className == "":
		className = declared
	case !def.HasClass(className):
		return nil, &LoadError{
			Archive: req.Archive,
			Reason:  fmt.Sprintf("%s class %s not found in package %s", req.Kind.Title(), className, def.Name),
		}
	}

	md := &Metadata{
		ConnectorName:     def.Name,
		ClassName:         className,
		RecordType:        def.TypeFor(req.Kind),
		DefaultSchemaType: def.DefaultSchemaType,
	}

	if def.AvroSchema != "" {
		codec, err := goavro.NewCodec(def.AvroSchema)
		if err != nil {
			return nil, &LoadError{
				Archive: req.Archive,
				Reason:  fmt.Sprintf("invalid avro schema in package %s", def.Name),
				Err:     err,
			}
		}
		md.AvroSchema = codec.CanonicalSchema()
	}

	return md, nil
}
