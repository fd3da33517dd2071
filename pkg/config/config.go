// Package config defines the connector configuration model shared by sinks and
// sources, plus the client settings of the nebula-io CLI.
//
// A connector configuration is built fresh for every invocation: it starts
// from NewSinkConfig / NewSourceConfig (or a YAML file decoded on top of those
// defaults) and is then mutated only by the resolution pipeline.
//
// Example usage:
//
//	cfg := config.NewSinkConfig()
//	if err := config.Load("sink.yaml", cfg); err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Inputs)
package config

import (
	"fmt"
	"strings"
)

const (
	// DefaultTenant is applied when no layer sets a tenant
	DefaultTenant = "public"
	// DefaultNamespace is applied when no layer sets a namespace
	DefaultNamespace = "default"
	// DefaultParallelism is the instance count of a fresh config
	DefaultParallelism = 1
)

// Kind tags a connector configuration as a sink or a source.
type Kind string

const (
	// KindSink exports data out of the cluster
	KindSink Kind = "sink"
	// KindSource imports data into the cluster
	KindSource Kind = "source"
)

// Plural returns the collection name used by the Admin API ("sinks", "sources").
func (k Kind) Plural() string {
	return string(k) + "s"
}

// Title returns the capitalised kind for messages.
func (k Kind) Title() string {
	if k == "" {
		return ""
	}
	return strings.ToUpper(string(k[:1])) + string(k[1:])
}

// ProcessingGuarantees is the delivery semantics enum. The empty value means unset.
type ProcessingGuarantees string

const (
	AtLeastOnce     ProcessingGuarantees = "ATLEAST_ONCE"
	AtMostOnce      ProcessingGuarantees = "ATMOST_ONCE"
	EffectivelyOnce ProcessingGuarantees = "EFFECTIVELY_ONCE"
)

// ParseProcessingGuarantees accepts the enum names case-insensitively.
func ParseProcessingGuarantees(s string) (ProcessingGuarantees, error) {
	switch ProcessingGuarantees(strings.ToUpper(strings.TrimSpace(s))) {
	case AtLeastOnce:
		return AtLeastOnce, nil
	case AtMostOnce:
		return AtMostOnce, nil
	case EffectivelyOnce:
		return EffectivelyOnce, nil
	}
	return "", fmt.Errorf("invalid processing guarantee %q (expected one of %s, %s, %s)",
		s, AtLeastOnce, AtMostOnce, EffectivelyOnce)
}

// Resources is the per-instance resource request. A nil field is unset, which
// is distinct from an explicit zero.
type Resources struct {
	// CPU in fractional cores
	CPU *float64 `yaml:"cpu,omitempty" json:"cpu,omitempty"`
	// RAM in bytes
	RAM *int64 `yaml:"ram,omitempty" json:"ram,omitempty"`
	// Disk in bytes
	Disk *int64 `yaml:"disk,omitempty" json:"disk,omitempty"`
}

// IsEmpty reports whether no field is set.
func (r *Resources) IsEmpty() bool {
	return r == nil || (r.CPU == nil && r.RAM == nil && r.Disk == nil)
}

// Clone returns a deep copy.
func (r *Resources) Clone() *Resources {
	if r == nil {
		return nil
	}
	out := &Resources{}
	if r.CPU != nil {
		v := *r.CPU
		out.CPU = &v
	}
	if r.RAM != nil {
		v := *r.RAM
		out.RAM = &v
	}
	if r.Disk != nil {
		v := *r.Disk
		out.Disk = &v
	}
	return out
}

// ConnectorConfig holds the fields common to sinks and sources.
type ConnectorConfig struct {
	Tenant    string `yaml:"tenant" json:"tenant,omitempty"`
	Namespace string `yaml:"namespace" json:"namespace,omitempty"`
	Name      string `yaml:"name" json:"name,omitempty"`
	// ClassName overrides the implementation class declared by the archive
	ClassName string `yaml:"className" json:"className,omitempty"`
	// Archive is a local path, a package URL or builtin://<name>
	Archive              string                 `yaml:"archive" json:"archive,omitempty"`
	Parallelism          int                    `yaml:"parallelism" json:"parallelism"`
	ProcessingGuarantees ProcessingGuarantees   `yaml:"processingGuarantees" json:"processingGuarantees,omitempty"`
	Resources            *Resources             `yaml:"resources" json:"resources,omitempty"`
	Configs              map[string]interface{} `yaml:"configs" json:"configs,omitempty"`
}

// FQN returns tenant/namespace/name.
func (c *ConnectorConfig) FQN() string {
	return c.Tenant + "/" + c.Namespace + "/" + c.Name
}

// SinkConfig describes a connector that consumes topics and exports them.
type SinkConfig struct {
	ConnectorConfig `yaml:",inline" json:",inline"`

	Inputs                 []string          `yaml:"inputs" json:"inputs,omitempty"`
	TopicToSerdeClassName  map[string]string `yaml:"topicToSerdeClassName" json:"topicToSerdeClassName,omitempty"`
	TopicToSchemaType      map[string]string `yaml:"topicToSchemaType" json:"topicToSchemaType,omitempty"`
	TopicsPattern          string            `yaml:"topicsPattern" json:"topicsPattern,omitempty"`
	SourceSubscriptionName string            `yaml:"sourceSubscriptionName" json:"sourceSubscriptionName,omitempty"`
	RetainOrdering         bool              `yaml:"retainOrdering" json:"retainOrdering"`
	AutoAck                bool              `yaml:"autoAck" json:"autoAck"`
	TimeoutMs              *int64            `yaml:"timeoutMs" json:"timeoutMs,omitempty"`
}

// SourceConfig describes a connector that imports data into a topic.
type SourceConfig struct {
	ConnectorConfig `yaml:",inline" json:",inline"`

	TopicName      string `yaml:"topicName" json:"topicName,omitempty"`
	SerdeClassName string `yaml:"serdeClassName" json:"serdeClassName,omitempty"`
	SchemaType     string `yaml:"schemaType" json:"schemaType,omitempty"`
}

// Connector is the tagged variant {*SinkConfig, *SourceConfig}.
type Connector interface {
	Kind() Kind
	Base() *ConnectorConfig
}

// Kind implements Connector
func (s *SinkConfig) Kind() Kind { return KindSink }

// Base implements Connector
func (s *SinkConfig) Base() *ConnectorConfig { return &s.ConnectorConfig }

// Kind implements Connector
func (s *SourceConfig) Kind() Kind { return KindSource }

// Base implements Connector
func (s *SourceConfig) Base() *ConnectorConfig { return &s.ConnectorConfig }

// NewSinkConfig returns a sink config holding only defaults.
func NewSinkConfig() *SinkConfig {
	return &SinkConfig{
		ConnectorConfig: ConnectorConfig{Parallelism: DefaultParallelism},
		AutoAck:         true,
	}
}

// NewSourceConfig returns a source config holding only defaults.
func NewSourceConfig() *SourceConfig {
	return &SourceConfig{
		ConnectorConfig: ConnectorConfig{Parallelism: DefaultParallelism},
	}
}

// InferMissing fills tenant and namespace with the platform defaults when no
// layer has set them.
func (c *ConnectorConfig) InferMissing() {
	if c.Tenant == "" {
		c.Tenant = DefaultTenant
	}
	if c.Namespace == "" {
		c.Namespace = DefaultNamespace
	}
}
