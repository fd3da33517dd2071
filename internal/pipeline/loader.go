package pipeline

import (
	"fmt"
	"strings"

	"github.com/ajitpratap0/nebula-io/pkg/config"
	"github.com/ajitpratap0/nebula-io/pkg/errors"
	"go.uber.org/zap"
)

// load produces the baseline: the config file decoded over the defaults, or
// the defaults alone.
func (p *Pipeline[C]) load(a *Args) error {
	cfg := p.kind.New()

	path := value(a.ConfigFile)
	if strings.TrimSpace(path) == "" {
		p.cfg = cfg
		return nil
	}

	if err := config.Load(path, cfg); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfigParse,
			fmt.Sprintf("failed to load %s config file %s", p.kind.Name(), path)).
			WithDetail("field", string(p.kind.Name())+"-config-file")
	}

	p.logger.Debug("config file loaded", zap.String("path", path))
	p.cfg = cfg
	return nil
}

func value[T any](v *T) T {
	var zero T
	if v == nil {
		return zero
	}
	return *v
}

// nonBlank returns the trimmed value of a supplied, non-blank string flag.
func nonBlank(v *string) string {
	if v == nil {
		return ""
	}
	return strings.TrimSpace(*v)
}
