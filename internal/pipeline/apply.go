package pipeline

import (
	"fmt"

	"github.com/ajitpratap0/nebula-io/pkg/config"
	"github.com/ajitpratap0/nebula-io/pkg/errors"
	jsonpool "github.com/ajitpratap0/nebula-io/pkg/json"
)

// apply overlays every supplied flag onto the baseline. All composite values
// are decoded first, so a malformed one leaves the config as loaded.
func (p *Pipeline[C]) apply(a *Args) error {
	common, err := parseCommon(p.kind.Name(), a)
	if err != nil {
		return err
	}
	specific, err := p.kind.ApplyFields(a)
	if err != nil {
		return err
	}

	common(p.cfg.Base())
	specific(p.cfg)
	return nil
}

func parseCommon(kind config.Kind, a *Args) (func(*config.ConnectorConfig), error) {
	var guarantees config.ProcessingGuarantees
	if a.ProcessingGuarantees != nil {
		g, err := config.ParseProcessingGuarantees(*a.ProcessingGuarantees)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfigParse, "invalid --processing-guarantees").
				WithDetail("field", "processing-guarantees")
		}
		guarantees = g
	}

	var configs map[string]interface{}
	if a.Configs != nil {
		flag := string(kind) + "-config"
		if err := decodeFlag(flag, *a.Configs, &configs); err != nil {
			return nil, err
		}
	}

	return func(c *config.ConnectorConfig) {
		if a.Tenant != nil {
			c.Tenant = *a.Tenant
		}
		if a.Namespace != nil {
			c.Namespace = *a.Namespace
		}
		if a.Name != nil {
			c.Name = *a.Name
		}
		if a.ClassName != nil {
			c.ClassName = *a.ClassName
		}
		if a.Parallelism != nil {
			c.Parallelism = *a.Parallelism
		}
		if a.ProcessingGuarantees != nil {
			c.ProcessingGuarantees = guarantees
		}
		if a.Configs != nil {
			c.Configs = configs
		}
	}, nil
}

// decodeFlag decodes a JSON object flag value into out.
func decodeFlag(flag, raw string, out interface{}) error {
	if err := jsonpool.DecodeObject(raw, out); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfigParse, fmt.Sprintf("invalid JSON in --%s", flag)).
			WithDetail("field", flag)
	}
	return nil
}
