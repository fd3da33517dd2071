// Package registry maps connector type names to archive references, either by
// scanning a local connectors directory or by asking the cluster for its
// builtin connectors.
package registry

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/ajitpratap0/nebula-io/pkg/config"
	"github.com/ajitpratap0/nebula-io/pkg/connector/archive"
	"github.com/ajitpratap0/nebula-io/pkg/errors"
	"github.com/ajitpratap0/nebula-io/pkg/logger"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Entry is one connector found in a connectors directory.
type Entry struct {
	Name       string
	Path       string
	Definition *archive.Definition
}

// Registry manages connector types found in local packages
type Registry struct {
	sinks   map[string]*Entry
	sources map[string]*Entry
	mu      sync.RWMutex
	logger  *zap.Logger
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		sinks:   make(map[string]*Entry),
		sources: make(map[string]*Entry),
		logger:  logger.Get().With(zap.String("component", "connector_registry")),
	}
}

// Register adds entry under kind. A name can be registered once per kind.
func (r *Registry) Register(kind config.Kind, entry *Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m := r.entries(kind)
	if existing, exists := m[entry.Name]; exists {
		return errors.Newf(errors.ErrorTypeConfigValidation, "%s connector %s already registered from %s",
			kind, entry.Name, existing.Path)
	}

	m[entry.Name] = entry
	r.logger.Debug("connector registered",
		zap.String("kind", string(kind)),
		zap.String("name", entry.Name),
		zap.String("path", entry.Path))
	return nil
}

// Lookup returns the entry registered under name.
func (r *Registry) Lookup(kind config.Kind, name string) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries(kind)[name]
	return e, ok
}

// Names returns the sorted names registered for kind.
func (r *Registry) Names(kind config.Kind) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.entries(kind))
}

func (r *Registry) entries(kind config.Kind) map[string]*Entry {
	if kind == config.KindSink {
		return r.sinks
	}
	return r.sources
}

// Scan registers every *.nar and *.zip package in dir whose definition
// declares a sink and/or source class. Unreadable packages are skipped.
func Scan(dir string) (*Registry, error) {
	r := NewRegistry()

	files, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			r.logger.Debug("connectors directory does not exist", zap.String("dir", dir))
			return r, nil
		}
		return nil, errors.Wrap(err, errors.ErrorTypeFile, fmt.Sprintf("failed to read connectors directory %s", dir))
	}

	for _, f := range files {
		ext := strings.ToLower(filepath.Ext(f.Name()))
		if f.IsDir() || (ext != ".nar" && ext != ".zip") {
			continue
		}

		p := filepath.Join(dir, f.Name())
		def, err := archive.ReadDefinition(p)
		if err != nil {
			r.logger.Warn("skipping connector package", zap.String("path", p), zap.Error(err))
			continue
		}

		entry := &Entry{Name: def.Name, Path: p, Definition: def}
		for _, kind := range []config.Kind{config.KindSink, config.KindSource} {
			if def.ClassFor(kind) == "" {
				continue
			}
			if err := r.Register(kind, entry); err != nil {
				r.logger.Warn("duplicate connector type", zap.String("path", p), zap.Error(err))
			}
		}
	}

	return r, nil
}

// Resolver turns a connector type name into a canonical archive reference.
type Resolver interface {
	Resolve(ctx context.Context, kind config.Kind, connectorType string) (string, error)
}

// LocalResolver resolves connector types from a local connectors directory.
// The directory is scanned once, on first use.
type LocalResolver struct {
	Dir string

	once     sync.Once
	registry *Registry
	err      error
}

// NewLocalResolver creates a resolver over dir.
func NewLocalResolver(dir string) *LocalResolver {
	return &LocalResolver{Dir: dir}
}

// Resolve returns the local archive path of connectorType.
func (l *LocalResolver) Resolve(_ context.Context, kind config.Kind, connectorType string) (string, error) {
	l.once.Do(func() {
		l.registry, l.err = Scan(l.Dir)
	})
	if l.err != nil {
		return "", l.err
	}

	entry, ok := l.registry.Lookup(kind, connectorType)
	if !ok {
		return "", unknownType(kind, connectorType, l.registry.Names(kind))
	}
	return entry.Path, nil
}

// BuiltinLister returns the builtin connectors the cluster offers.
type BuiltinLister interface {
	ListBuiltins(ctx context.Context, kind config.Kind) ([]archive.Definition, error)
}

// ClusterResolver resolves connector types against the cluster's builtin
// connectors. Every call fetches the list again.
type ClusterResolver struct {
	lister BuiltinLister
}

// NewClusterResolver creates a resolver backed by lister.
func NewClusterResolver(lister BuiltinLister) *ClusterResolver {
	return &ClusterResolver{lister: lister}
}

// Resolve returns builtin://<name>. A name already carrying the builtin
// scheme resolves to itself.
func (c *ClusterResolver) Resolve(ctx context.Context, kind config.Kind, connectorType string) (string, error) {
	defs, err := c.lister.ListBuiltins(ctx, kind)
	if err != nil {
		return "", err
	}

	name := archive.BuiltinName(connectorType)
	available := BuiltinNames(kind, defs)
	if !lo.Contains(available, name) {
		return "", unknownType(kind, connectorType, available)
	}
	return archive.Builtin(name), nil
}

// BuiltinNames returns the sorted names of defs that implement kind.
func BuiltinNames(kind config.Kind, defs []archive.Definition) []string {
	names := lo.FilterMap(defs, func(d archive.Definition, _ int) (string, bool) {
		return d.Name, d.ClassFor(kind) != ""
	})
	names = lo.Uniq(names)
	sort.Strings(names)
	return names
}

func unknownType(kind config.Kind, connectorType string, available []string) error {
	list := strings.Join(available, ", ")
	if list == "" {
		list = "(none)"
	}
	return errors.Newf(errors.ErrorTypeUnknownConnectorType,
		"invalid %s type '%s' -- available %ss are: %s", kind, connectorType, kind, list).
		WithDetail("available", available)
}

func sortedKeys(m map[string]*Entry) []string {
	keys := lo.Keys(m)
	sort.Strings(keys)
	return keys
}
