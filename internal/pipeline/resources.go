package pipeline

import (
	"github.com/ajitpratap0/nebula-io/pkg/config"
)

// normalize merges the resource overrides and infers tenant and namespace.
func (p *Pipeline[C]) normalize(a *Args) error {
	base := p.cfg.Base()
	base.Resources = MergeResources(base.Resources, a.CPU, a.RAM, a.Disk)
	base.InferMissing()
	return nil
}

// MergeResources replaces each field of prior independently when its override
// is present. Fields with neither stay unset; prior is never modified.
func MergeResources(prior *config.Resources, cpu *float64, ram, disk *int64) *config.Resources {
	if cpu == nil && ram == nil && disk == nil {
		return prior
	}

	out := prior.Clone()
	if out == nil {
		out = &config.Resources{}
	}
	if cpu != nil {
		v := *cpu
		out.CPU = &v
	}
	if ram != nil {
		v := *ram
		out.RAM = &v
	}
	if disk != nil {
		v := *disk
		out.Disk = &v
	}
	return out
}
