package descriptor

import (
	"testing"

	"github.com/ajitpratap0/nebula-io/pkg/config"
	jsonpool "github.com/ajitpratap0/nebula-io/pkg/json"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample(configs map[string]interface{}) *Descriptor {
	timeout := int64(5000)
	autoAck := true
	return &Descriptor{
		Kind:                 config.KindSink,
		Tenant:               "public",
		Namespace:            "default",
		Name:                 "es",
		ClassName:            "io.nebula.sinks.ElasticSink",
		Parallelism:          2,
		ProcessingGuarantees: config.AtLeastOnce,
		AutoAck:              &autoAck,
		Configs:              configs,
		Archive:              "/opt/connectors/es.nar",
		Input: &InputSpec{
			Topics: []TopicSpec{
				{Topic: "topicA"},
				{Topic: "topicB", SchemaType: "avro"},
				{Topic: "persistent://public/default/logs-.*", Regex: true},
			},
			SubscriptionType: SubscriptionShared,
			TimeoutMs:        &timeout,
		},
	}
}

func TestMarshalIsDeterministic(t *testing.T) {
	a := map[string]interface{}{}
	b := map[string]interface{}{}
	keys := []string{"zeta", "alpha", "mid", "beta", "omega", "gamma"}
	for i, k := range keys {
		a[k] = i
	}
	for i := len(keys) - 1; i >= 0; i-- {
		b[keys[i]] = i
	}

	first, err := Marshal(sample(a))
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := Marshal(sample(b))
		require.NoError(t, err)
		require.Equal(t, string(first), string(again))
	}

	assert.Contains(t, string(first), `"configs":{"alpha":1,"beta":3,"gamma":5,"mid":2,"omega":4,"zeta":0}`)
}

func TestMarshalShape(t *testing.T) {
	out, err := Marshal(sample(nil))
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, jsonpool.Unmarshal(out, &decoded))

	want := map[string]interface{}{
		"kind":                 "sink",
		"tenant":               "public",
		"namespace":            "default",
		"name":                 "es",
		"className":            "io.nebula.sinks.ElasticSink",
		"parallelism":          float64(2),
		"processingGuarantees": "ATLEAST_ONCE",
		"autoAck":              true,
		"archive":              "/opt/connectors/es.nar",
		"input": map[string]interface{}{
			"topics": []interface{}{
				map[string]interface{}{"topic": "topicA"},
				map[string]interface{}{"topic": "topicB", "schemaType": "avro"},
				map[string]interface{}{"topic": "persistent://public/default/logs-.*", "regex": true},
			},
			"subscriptionType": "SHARED",
			"timeoutMs":        float64(5000),
		},
	}
	if diff := cmp.Diff(want, decoded); diff != "" {
		t.Errorf("descriptor mismatch (-want +got):\n%s", diff)
	}
}

func TestFQN(t *testing.T) {
	assert.Equal(t, "public/default/es", sample(nil).FQN())
}
