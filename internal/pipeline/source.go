package pipeline

import (
	"fmt"
	"strings"

	"github.com/ajitpratap0/nebula-io/pkg/config"
	"github.com/ajitpratap0/nebula-io/pkg/connector/inspect"
	"github.com/ajitpratap0/nebula-io/pkg/descriptor"
)

type sourceKind struct{}

func (sourceKind) Name() config.Kind { return config.KindSource }

func (sourceKind) New() *config.SourceConfig { return config.NewSourceConfig() }

func (sourceKind) Aliases() []Alias { return sourceAliases }

func (sourceKind) ApplyFields(a *Args) (func(*config.SourceConfig), error) {
	s := a.Source
	return func(c *config.SourceConfig) {
		if s.DestinationTopicName != nil {
			c.TopicName = *s.DestinationTopicName
		}
		if s.DeserializationClassName != nil {
			c.SerdeClassName = *s.DeserializationClassName
		}
		if s.SchemaType != nil {
			c.SchemaType = *s.SchemaType
		}
	}, nil
}

func (sourceKind) Validate(c *config.SourceConfig) error {
	if strings.TrimSpace(c.TopicName) == "" {
		return fmt.Errorf("destination topic name must be specified with --destination-topic-name")
	}
	if !validTopic(c.TopicName) {
		return fmt.Errorf("invalid destination topic name '%s'", c.TopicName)
	}
	if c.SerdeClassName != "" && c.SchemaType != "" {
		return fmt.Errorf("cannot specify both --deserialization-classname and --schema-type")
	}
	return nil
}

// Convert fills the output side. With neither a serde class nor a schema type
// set, the schema type declared by the package is used.
func (sourceKind) Convert(c *config.SourceConfig, md *inspect.Metadata, d *descriptor.Descriptor) {
	schemaType := c.SchemaType
	if schemaType == "" && c.SerdeClassName == "" {
		schemaType = md.DefaultSchemaType
	}

	d.Output = &descriptor.OutputSpec{
		Topic:          c.TopicName,
		SerdeClassName: c.SerdeClassName,
		SchemaType:     schemaType,
		TypeClassName:  md.RecordType,
		AvroSchema:     md.AvroSchema,
	}
}
