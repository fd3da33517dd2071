package pipeline

import (
	"context"
	"fmt"
	"os"
	"strings"
	"unicode"

	"github.com/ajitpratap0/nebula-io/pkg/config"
	"github.com/ajitpratap0/nebula-io/pkg/connector/archive"
	"github.com/ajitpratap0/nebula-io/pkg/connector/inspect"
	"github.com/ajitpratap0/nebula-io/pkg/errors"
)

// validate runs the ordered checks; the first failure stops the pipeline.
func (p *Pipeline[C]) validate(ctx context.Context) error {
	kind := p.kind.Name()
	base := p.cfg.Base()

	ref := strings.TrimSpace(base.Archive)
	if ref == "" {
		return errors.Newf(errors.ErrorTypeMissingField,
			"%s archive not specified, use --archive or --%s-type", kind, kind).
			WithDetail("field", "archive")
	}

	refKind := archive.Classify(ref)
	if refKind == archive.RefLocal {
		if _, err := os.Stat(ref); err != nil {
			return errors.Newf(errors.ErrorTypeArchiveNotFound, "%s archive %s does not exist", kind, ref).
				WithDetail("archive", ref)
		}
	}

	if err := validateCommon(base); err != nil {
		return validationError(err)
	}
	if err := p.kind.Validate(p.cfg); err != nil {
		return validationError(err)
	}

	req := inspect.Request{Kind: kind, ClassName: base.ClassName}
	if refKind != archive.RefBuiltin {
		req.Archive = ref
	}
	md, err := p.opts.Inspector.Inspect(ctx, req)
	if err != nil {
		return validationError(err).WithDetail("archive", ref)
	}
	if md == nil {
		md = &inspect.Metadata{ClassName: base.ClassName}
	}
	p.meta = md
	return nil
}

// validationError carries err's message verbatim.
func validationError(err error) *errors.Error {
	return errors.New(errors.ErrorTypeConfigValidation, err.Error())
}

func validateCommon(c *config.ConnectorConfig) error {
	if c.Parallelism <= 0 {
		return fmt.Errorf("parallelism must be a positive number, got %d", c.Parallelism)
	}
	if c.ProcessingGuarantees != "" {
		if _, err := config.ParseProcessingGuarantees(string(c.ProcessingGuarantees)); err != nil {
			return err
		}
	}
	if r := c.Resources; r != nil {
		if r.CPU != nil && *r.CPU <= 0 {
			return fmt.Errorf("cpu must be positive, got %v", *r.CPU)
		}
		if r.RAM != nil && *r.RAM <= 0 {
			return fmt.Errorf("ram must be positive, got %d", *r.RAM)
		}
		if r.Disk != nil && *r.Disk <= 0 {
			return fmt.Errorf("disk must be positive, got %d", *r.Disk)
		}
	}
	return nil
}

// validTopic reports whether name can name a topic.
func validTopic(name string) bool {
	if name == "" {
		return false
	}
	return strings.IndexFunc(name, unicode.IsSpace) < 0
}
