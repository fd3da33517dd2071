package pipeline

// Args holds the flags of one invocation. A nil pointer means the flag was
// not supplied; the command layer sets a field only when the operator passed
// the flag explicitly.
type Args struct {
	Tenant        *string
	Namespace     *string
	Name          *string
	ClassName     *string
	Archive       *string
	ConnectorType *string

	Parallelism          *int
	ProcessingGuarantees *string

	CPU  *float64
	RAM  *int64
	Disk *int64

	ConfigFile *string
	// Configs is a JSON object
	Configs *string

	// Deprecated spellings shared by sinks and sources
	DeprecatedClassName            *string
	DeprecatedProcessingGuarantees *string
	DeprecatedConfigFile           *string
	DeprecatedConfigs              *string

	Sink     SinkArgs
	Source   SourceArgs
	LocalRun LocalRunArgs
}

// SinkArgs are the sink-only flags.
type SinkArgs struct {
	// Inputs is a comma separated topic list
	Inputs        *string
	TopicsPattern *string
	SubsName      *string
	// CustomSerdeInputs and CustomSchemaInputs are JSON objects of topic to class / schema type
	CustomSerdeInputs  *string
	CustomSchemaInputs *string
	RetainOrdering     *bool
	AutoAck            *bool
	TimeoutMs          *int64

	DeprecatedSubsName          *string
	DeprecatedTopicsPattern     *string
	DeprecatedCustomSerdeInputs *string
	DeprecatedRetainOrdering    *bool
}

// SourceArgs are the source-only flags.
type SourceArgs struct {
	DestinationTopicName     *string
	DeserializationClassName *string
	SchemaType               *string

	DeprecatedDestinationTopicName     *string
	DeprecatedDeserializationClassName *string
}

// LocalRunArgs are the client settings of local-run. They never reach the
// descriptor; the runner receives them alongside it.
type LocalRunArgs struct {
	BrokerServiceURL            *string
	ClientAuthPlugin            *string
	ClientAuthParams            *string
	UseTLS                      *bool
	TLSAllowInsecure            *bool
	HostnameVerificationEnabled *bool
	TLSTrustCertPath            *string

	DeprecatedBrokerServiceURL            *string
	DeprecatedClientAuthPlugin            *string
	DeprecatedClientAuthParams            *string
	DeprecatedUseTLS                      *bool
	DeprecatedTLSAllowInsecure            *bool
	DeprecatedHostnameVerificationEnabled *bool
	DeprecatedTLSTrustCertPath            *string
}

// Ptr returns a pointer to v, for building Args by hand.
func Ptr[T any](v T) *T {
	return &v
}
