package pipeline

import (
	"fmt"

	"github.com/ajitpratap0/nebula-io/pkg/config"
	"github.com/ajitpratap0/nebula-io/pkg/connector/archive"
	"github.com/ajitpratap0/nebula-io/pkg/connector/inspect"
	"github.com/ajitpratap0/nebula-io/pkg/descriptor"
	"github.com/samber/lo"
)

// convert builds the descriptor field by field.
func (p *Pipeline[C]) convert() error {
	base := p.cfg.Base()

	guarantees := config.AtLeastOnce
	if base.ProcessingGuarantees != "" {
		// validated already
		guarantees, _ = config.ParseProcessingGuarantees(string(base.ProcessingGuarantees))
	}

	className := base.ClassName
	if p.meta != nil && p.meta.ClassName != "" {
		className = p.meta.ClassName
	}

	d := &descriptor.Descriptor{
		Kind:                 p.kind.Name(),
		Tenant:               base.Tenant,
		Namespace:            base.Namespace,
		Name:                 base.Name,
		ClassName:            className,
		Parallelism:          base.Parallelism,
		ProcessingGuarantees: guarantees,
		Resources:            base.Resources.Clone(),
		Configs:              copyConfigs(base.Configs),
		Archive:              base.Archive,
	}
	if archive.IsBuiltin(base.Archive) {
		d.Builtin = archive.BuiltinName(base.Archive)
	}

	md := p.meta
	if md == nil {
		md = &inspect.Metadata{}
	}
	p.kind.Convert(p.cfg, md, d)

	p.desc = d
	return nil
}

// copyConfigs deep-copies the user configs. YAML decodes nested maps with
// non-string keys as map[interface{}]interface{}, which JSON cannot encode, so
// every nested key is turned into its string form.
func copyConfigs(in map[string]interface{}) map[string]interface{} {
	if len(in) == 0 {
		return nil
	}
	return lo.MapValues(in, func(v interface{}, _ string) interface{} {
		return stringKeys(v)
	})
}

func stringKeys(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		return lo.MapValues(t, func(v interface{}, _ string) interface{} {
			return stringKeys(v)
		})
	case map[interface{}]interface{}:
		return lo.MapEntries(t, func(k, v interface{}) (string, interface{}) {
			return fmt.Sprint(k), stringKeys(v)
		})
	case []interface{}:
		return lo.Map(t, func(v interface{}, _ int) interface{} {
			return stringKeys(v)
		})
	}
	return v
}
