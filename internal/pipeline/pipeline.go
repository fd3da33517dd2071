// Package pipeline resolves the flags, configuration file and legacy aliases
// of one sink or source invocation into a validated deployment descriptor.
//
// # Overview
//
// A Pipeline runs a fixed sequence of stages over a fresh configuration:
//
//	Parsed → Merged → Loaded → Applied → Resolved → Normalized → Validated → Converted → Submitted
//
// Any stage may fail, which moves the pipeline to Failed and keeps the error.
// Nothing is retried and nothing is submitted unless every stage before
// Submitted succeeded.
//
// # Basic Usage
//
//	p := pipeline.NewSink(pipeline.Options{
//	    Resolver:  registry.NewClusterResolver(adminClient),
//	    Inspector: inspect.New(fetcher),
//	})
//	desc, err := p.Run(ctx, args)
//	if err != nil {
//	    return err
//	}
//	err = p.Submit(ctx, func(ctx context.Context, d *descriptor.Descriptor) error {
//	    return adminClient.Create(ctx, d)
//	})
//
// Sinks and sources share this implementation; the differences live behind
// the Kind capability set.
package pipeline

import (
	"context"

	"github.com/ajitpratap0/nebula-io/pkg/config"
	"github.com/ajitpratap0/nebula-io/pkg/connector/inspect"
	"github.com/ajitpratap0/nebula-io/pkg/connector/registry"
	"github.com/ajitpratap0/nebula-io/pkg/descriptor"
	"github.com/ajitpratap0/nebula-io/pkg/errors"
	"github.com/ajitpratap0/nebula-io/pkg/logger"
	"github.com/ajitpratap0/nebula-io/pkg/metrics"
	"github.com/ajitpratap0/nebula-io/pkg/observability"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// State is the position of a pipeline in its stage sequence.
type State string

const (
	StateParsed     State = "parsed"
	StateMerged     State = "merged"
	StateLoaded     State = "loaded"
	StateApplied    State = "applied"
	StateResolved   State = "resolved"
	StateNormalized State = "normalized"
	StateValidated  State = "validated"
	StateConverted  State = "converted"
	StateSubmitted  State = "submitted"
	StateFailed     State = "failed"
)

// Kind is the capability set that distinguishes sinks from sources.
type Kind[C config.Connector] interface {
	Name() config.Kind
	// New returns a config holding only defaults
	New() C
	Aliases() []Alias
	// ApplyFields decodes the kind-specific flags and returns the assignments
	// to make. Nothing is assigned until every flag has decoded.
	ApplyFields(a *Args) (func(C), error)
	// Validate runs the kind-specific structural checks
	Validate(cfg C) error
	// Convert fills the kind-specific part of d
	Convert(cfg C, md *inspect.Metadata, d *descriptor.Descriptor)
}

// Inspector loads a connector package.
type Inspector interface {
	Inspect(ctx context.Context, req inspect.Request) (*inspect.Metadata, error)
}

// Submitter hands a finished descriptor to the Admin API or a local runner.
type Submitter func(ctx context.Context, d *descriptor.Descriptor) error

// Options configures the collaborators of a pipeline.
type Options struct {
	// Resolver turns --sink-type / --source-type into an archive reference
	Resolver registry.Resolver
	// Inspector defaults to a package inspector without URL support
	Inspector Inspector
	// LocalRun also merges the local-run client aliases
	LocalRun bool
	// Metrics defaults to metrics.Default
	Metrics *metrics.Collector
}

// Pipeline resolves one invocation. It is not reusable.
type Pipeline[C config.Connector] struct {
	kind   Kind[C]
	opts   Options
	logger *zap.Logger

	state State
	err   error

	cfg        C
	meta       *inspect.Metadata
	desc       *descriptor.Descriptor
	deprecated []Alias
}

// New creates a pipeline for kind.
func New[C config.Connector](kind Kind[C], opts Options) *Pipeline[C] {
	if opts.Inspector == nil {
		opts.Inspector = inspect.New(nil)
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.Default
	}
	return &Pipeline[C]{
		kind:   kind,
		opts:   opts,
		logger: logger.Get().With(zap.String("component", "pipeline"), zap.String("kind", string(kind.Name()))),
		state:  StateParsed,
	}
}

// NewSink creates a sink pipeline.
func NewSink(opts Options) *Pipeline[*config.SinkConfig] {
	return New[*config.SinkConfig](sinkKind{}, opts)
}

// NewSource creates a source pipeline.
func NewSource(opts Options) *Pipeline[*config.SourceConfig] {
	return New[*config.SourceConfig](sourceKind{}, opts)
}

// State returns the current state.
func (p *Pipeline[C]) State() State { return p.state }

// Err returns the error that moved the pipeline to Failed.
func (p *Pipeline[C]) Err() error { return p.err }

// Config returns the configuration as resolved so far.
func (p *Pipeline[C]) Config() C { return p.cfg }

// Metadata returns what package inspection reported, once validated.
func (p *Pipeline[C]) Metadata() *inspect.Metadata { return p.meta }

// Descriptor returns the converted descriptor.
func (p *Pipeline[C]) Descriptor() *descriptor.Descriptor { return p.desc }

// DeprecatedFlags returns the deprecated aliases merged during Run.
func (p *Pipeline[C]) DeprecatedFlags() []Alias { return p.deprecated }

type stage struct {
	state State
	run   func(ctx context.Context) error
}

// Run takes the pipeline from Parsed to Converted.
func (p *Pipeline[C]) Run(ctx context.Context, a *Args) (desc *descriptor.Descriptor, err error) {
	if p.state != StateParsed {
		return nil, errors.Newf(errors.ErrorTypeInternal, "pipeline cannot run from state %s", p.state)
	}
	if a == nil {
		a = &Args{}
	}

	kind := string(p.kind.Name())
	ctx, span := observability.StartSpan(ctx, "pipeline."+kind, attribute.String("kind", kind))
	defer func() {
		observability.EndSpan(span, err)
		if err != nil {
			p.opts.Metrics.RecordRun(kind, string(errors.TypeOf(err)))
		}
	}()

	stages := []stage{
		{StateMerged, func(context.Context) error { return p.mergeAliases(a) }},
		{StateLoaded, func(context.Context) error { return p.load(a) }},
		{StateApplied, func(context.Context) error { return p.apply(a) }},
		{StateResolved, func(ctx context.Context) error { return p.resolveArchive(ctx, a) }},
		{StateNormalized, func(context.Context) error { return p.normalize(a) }},
		{StateValidated, p.validate},
		{StateConverted, func(context.Context) error { return p.convert() }},
	}

	for _, s := range stages {
		if err := p.step(ctx, s); err != nil {
			return nil, err
		}
	}
	return p.desc, nil
}

// Submit hands the converted descriptor to submit. Errors from submit are
// returned unchanged and never retried.
func (p *Pipeline[C]) Submit(ctx context.Context, submit Submitter) error {
	if p.state != StateConverted {
		return errors.Newf(errors.ErrorTypeInternal, "cannot submit from state %s", p.state)
	}

	kind := string(p.kind.Name())
	err := p.step(ctx, stage{StateSubmitted, func(ctx context.Context) error {
		return submit(ctx, p.desc)
	}})
	if err != nil {
		p.opts.Metrics.RecordRun(kind, string(errors.TypeOf(err)))
		return err
	}
	p.opts.Metrics.RecordRun(kind, string(StateSubmitted))
	return nil
}

func (p *Pipeline[C]) step(ctx context.Context, s stage) error {
	ctx, span := observability.StartSpan(ctx, string(s.state))
	timer := metrics.NewTimer()

	err := s.run(ctx)

	p.opts.Metrics.ObserveStage(string(p.kind.Name()), string(s.state), timer.Stop())
	observability.EndSpan(span, err)

	if err != nil {
		p.state = StateFailed
		p.err = err
		p.logger.Debug("pipeline failed", zap.String("stage", string(s.state)), zap.Error(err))
		return err
	}

	p.state = s.state
	p.logger.Debug("pipeline stage complete", zap.String("state", string(s.state)))
	return nil
}

func (p *Pipeline[C]) mergeAliases(a *Args) error {
	rules := p.kind.Aliases()
	if p.opts.LocalRun {
		rules = append(append([]Alias{}, rules...), localRunAliases...)
	}

	p.deprecated = ResolveAliases(a, rules)
	for _, r := range p.deprecated {
		p.logger.Info("deprecated flag takes precedence",
			zap.String("deprecated", "--"+r.Deprecated),
			zap.String("flag", "--"+r.Canonical))
	}
	return nil
}
