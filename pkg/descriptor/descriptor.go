// Package descriptor defines the deployment descriptor submitted to the Admin
// API (or handed to a local runner) once a connector configuration has been
// resolved and validated.
//
// A Descriptor is a plain value built field by field. Marshal encodes it with
// sorted map keys, so equal descriptors always serialise to identical bytes.
package descriptor

import (
	"github.com/ajitpratap0/nebula-io/pkg/config"
	jsonpool "github.com/ajitpratap0/nebula-io/pkg/json"
)

// SubscriptionType is how a sink's instances share its input subscription.
type SubscriptionType string

const (
	// SubscriptionShared spreads messages across instances
	SubscriptionShared SubscriptionType = "SHARED"
	// SubscriptionFailover keeps one active consumer, preserving ordering
	SubscriptionFailover SubscriptionType = "FAILOVER"
)

// Descriptor is the finalized connector deployment.
type Descriptor struct {
	Kind      config.Kind `json:"kind"`
	Tenant    string      `json:"tenant"`
	Namespace string      `json:"namespace"`
	Name      string      `json:"name"`
	ClassName string      `json:"className,omitempty"`

	Parallelism          int                         `json:"parallelism"`
	ProcessingGuarantees config.ProcessingGuarantees `json:"processingGuarantees"`
	AutoAck              *bool                       `json:"autoAck,omitempty"`

	Resources *config.Resources      `json:"resources,omitempty"`
	Configs   map[string]interface{} `json:"configs,omitempty"`

	// Archive is the reference the connector was resolved to
	Archive string `json:"archive,omitempty"`
	// Builtin names the bundled connector when Archive is builtin://<name>
	Builtin string `json:"builtin,omitempty"`

	Input  *InputSpec  `json:"input,omitempty"`
	Output *OutputSpec `json:"output,omitempty"`
}

// TopicSpec describes one consumed topic.
type TopicSpec struct {
	Topic          string `json:"topic"`
	SerdeClassName string `json:"serdeClassName,omitempty"`
	SchemaType     string `json:"schemaType,omitempty"`
	// Regex marks Topic as a topics pattern
	Regex bool `json:"regex,omitempty"`
}

// InputSpec is the consuming side of a sink.
type InputSpec struct {
	Topics           []TopicSpec      `json:"topics"`
	SubscriptionName string           `json:"subscriptionName,omitempty"`
	SubscriptionType SubscriptionType `json:"subscriptionType"`
	TimeoutMs        *int64           `json:"timeoutMs,omitempty"`
	TypeClassName    string           `json:"typeClassName,omitempty"`
}

// OutputSpec is the producing side of a source.
type OutputSpec struct {
	Topic          string `json:"topic"`
	SerdeClassName string `json:"serdeClassName,omitempty"`
	SchemaType     string `json:"schemaType,omitempty"`
	TypeClassName  string `json:"typeClassName,omitempty"`
	AvroSchema     string `json:"avroSchema,omitempty"`
}

// FQN returns tenant/namespace/name.
func (d *Descriptor) FQN() string {
	return d.Tenant + "/" + d.Namespace + "/" + d.Name
}

// Marshal encodes d deterministically.
func Marshal(d *Descriptor) ([]byte, error) {
	return jsonpool.Marshal(d)
}

// MarshalIndent encodes d deterministically for display.
func MarshalIndent(d *Descriptor) ([]byte, error) {
	return jsonpool.MarshalIndent(d, "", "  ")
}
