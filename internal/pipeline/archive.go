package pipeline

import (
	"context"

	"github.com/ajitpratap0/nebula-io/pkg/errors"
	"go.uber.org/zap"
)

// resolveArchive settles the archive reference. --archive and the connector
// type flag are mutually exclusive, even when one of them is blank; a
// connector type replaces any archive the config file named.
func (p *Pipeline[C]) resolveArchive(ctx context.Context, a *Args) error {
	kind := p.kind.Name()
	if a.Archive != nil && a.ConnectorType != nil {
		return errors.Newf(errors.ErrorTypeParameterConflict, "cannot specify both archive and %s-type", kind)
	}

	archiveFlag := nonBlank(a.Archive)
	typeFlag := nonBlank(a.ConnectorType)

	base := p.cfg.Base()
	switch {
	case archiveFlag != "":
		base.Archive = archiveFlag
	case typeFlag != "":
		if p.opts.Resolver == nil {
			return errors.Newf(errors.ErrorTypeInternal, "no connector registry available to resolve %s-type %s", kind, typeFlag)
		}
		ref, err := p.opts.Resolver.Resolve(ctx, kind, typeFlag)
		if err != nil {
			return err
		}
		base.Archive = ref
		p.logger.Debug("connector type resolved", zap.String("type", typeFlag), zap.String("archive", ref))
	}
	return nil
}
