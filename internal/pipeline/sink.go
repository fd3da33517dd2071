package pipeline

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ajitpratap0/nebula-io/pkg/config"
	"github.com/ajitpratap0/nebula-io/pkg/connector/inspect"
	"github.com/ajitpratap0/nebula-io/pkg/descriptor"
	"github.com/samber/lo"
)

type sinkKind struct{}

func (sinkKind) Name() config.Kind { return config.KindSink }

func (sinkKind) New() *config.SinkConfig { return config.NewSinkConfig() }

func (sinkKind) Aliases() []Alias { return sinkAliases }

func (sinkKind) ApplyFields(a *Args) (func(*config.SinkConfig), error) {
	s := a.Sink

	var inputs []string
	if s.Inputs != nil {
		inputs = SplitTopics(*s.Inputs)
	}

	var serde, schema map[string]string
	if s.CustomSerdeInputs != nil {
		if err := decodeFlag("custom-serde-inputs", *s.CustomSerdeInputs, &serde); err != nil {
			return nil, err
		}
	}
	if s.CustomSchemaInputs != nil {
		if err := decodeFlag("custom-schema-inputs", *s.CustomSchemaInputs, &schema); err != nil {
			return nil, err
		}
	}

	return func(c *config.SinkConfig) {
		if s.Inputs != nil {
			c.Inputs = inputs
		}
		if s.TopicsPattern != nil {
			c.TopicsPattern = *s.TopicsPattern
		}
		if nonBlank(s.SubsName) != "" {
			c.SourceSubscriptionName = *s.SubsName
		}
		if s.CustomSerdeInputs != nil {
			c.TopicToSerdeClassName = serde
		}
		if s.CustomSchemaInputs != nil {
			c.TopicToSchemaType = schema
		}
		if s.RetainOrdering != nil {
			c.RetainOrdering = *s.RetainOrdering
		}
		if s.AutoAck != nil {
			c.AutoAck = *s.AutoAck
		}
		if s.TimeoutMs != nil {
			v := *s.TimeoutMs
			c.TimeoutMs = &v
		}
	}, nil
}

func (sinkKind) Validate(c *config.SinkConfig) error {
	if len(c.Inputs) == 0 && len(c.TopicToSerdeClassName) == 0 &&
		len(c.TopicToSchemaType) == 0 && c.TopicsPattern == "" {
		return fmt.Errorf("must specify at least one topic of input via --inputs, --topics-pattern, " +
			"--custom-serde-inputs or --custom-schema-inputs")
	}

	for _, topic := range c.Inputs {
		if !validTopic(topic) {
			return fmt.Errorf("invalid input topic name '%s'", topic)
		}
	}
	for _, topic := range sortedKeys(c.TopicToSerdeClassName) {
		if !validTopic(topic) {
			return fmt.Errorf("invalid input topic name '%s' in --custom-serde-inputs", topic)
		}
		if _, ok := c.TopicToSchemaType[topic]; ok {
			return fmt.Errorf("topic %s cannot have both a serde class and a schema type", topic)
		}
	}
	for _, topic := range sortedKeys(c.TopicToSchemaType) {
		if !validTopic(topic) {
			return fmt.Errorf("invalid input topic name '%s' in --custom-schema-inputs", topic)
		}
	}

	if c.TopicsPattern != "" && strings.TrimSpace(c.TopicsPattern) != c.TopicsPattern {
		return fmt.Errorf("invalid topics pattern '%s'", c.TopicsPattern)
	}
	if c.TimeoutMs != nil && *c.TimeoutMs <= 0 {
		return fmt.Errorf("timeout-ms must be positive, got %d", *c.TimeoutMs)
	}
	return nil
}

// Convert orders the input topics: explicit inputs as given, then topics only
// named by the serde map, then those only named by the schema map, then the
// topics pattern.
func (sinkKind) Convert(c *config.SinkConfig, md *inspect.Metadata, d *descriptor.Descriptor) {
	topics := make([]descriptor.TopicSpec, 0, len(c.Inputs)+len(c.TopicToSerdeClassName)+len(c.TopicToSchemaType)+1)
	listed := make(map[string]bool, len(c.Inputs))

	for _, topic := range c.Inputs {
		topics = append(topics, descriptor.TopicSpec{
			Topic:          topic,
			SerdeClassName: c.TopicToSerdeClassName[topic],
			SchemaType:     c.TopicToSchemaType[topic],
		})
		listed[topic] = true
	}
	for _, topic := range sortedKeys(c.TopicToSerdeClassName) {
		if listed[topic] {
			continue
		}
		topics = append(topics, descriptor.TopicSpec{Topic: topic, SerdeClassName: c.TopicToSerdeClassName[topic]})
		listed[topic] = true
	}
	for _, topic := range sortedKeys(c.TopicToSchemaType) {
		if listed[topic] {
			continue
		}
		topics = append(topics, descriptor.TopicSpec{Topic: topic, SchemaType: c.TopicToSchemaType[topic]})
	}
	if c.TopicsPattern != "" {
		topics = append(topics, descriptor.TopicSpec{Topic: c.TopicsPattern, Regex: true})
	}

	subType := descriptor.SubscriptionShared
	if c.RetainOrdering {
		subType = descriptor.SubscriptionFailover
	}

	var timeout *int64
	if c.TimeoutMs != nil {
		v := *c.TimeoutMs
		timeout = &v
	}

	autoAck := c.AutoAck
	d.AutoAck = &autoAck
	d.Input = &descriptor.InputSpec{
		Topics:           topics,
		SubscriptionName: c.SourceSubscriptionName,
		SubscriptionType: subType,
		TimeoutMs:        timeout,
		TypeClassName:    md.RecordType,
	}
}

// SplitTopics splits a comma separated topic list. Order and duplicates are
// kept; trailing empty elements are dropped.
func SplitTopics(s string) []string {
	parts := strings.Split(s, ",")
	for len(parts) > 0 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	return parts
}

func sortedKeys(m map[string]string) []string {
	keys := lo.Keys(m)
	sort.Strings(keys)
	return keys
}
