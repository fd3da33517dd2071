// Package archive handles connector packages: classifying archive
// references, reading the connector.yaml definition packaged inside a zip
// archive, and fetching remote packages for inspection.
package archive

import (
	"strings"
)

// BuiltinScheme prefixes references to connectors bundled with the cluster.
const BuiltinScheme = "builtin://"

// urlPrefixes are the package URL schemes the Admin API can fetch itself.
var urlPrefixes = []string{"http://", "https://", "file:", "gs://", "s3://"}

// RefKind classifies an archive reference.
type RefKind int

const (
	// RefLocal is a path on the local filesystem
	RefLocal RefKind = iota
	// RefURL is a package URL
	RefURL
	// RefBuiltin is builtin://<name>
	RefBuiltin
)

// String returns the lower-case name of the kind.
func (k RefKind) String() string {
	switch k {
	case RefURL:
		return "url"
	case RefBuiltin:
		return "builtin"
	default:
		return "local"
	}
}

// Classify returns the kind of ref. Blank references classify as local.
func Classify(ref string) RefKind {
	switch {
	case IsBuiltin(ref):
		return RefBuiltin
	case IsURL(ref):
		return RefURL
	default:
		return RefLocal
	}
}

// IsURL reports whether ref is a package URL.
func IsURL(ref string) bool {
	for _, p := range urlPrefixes {
		if strings.HasPrefix(ref, p) {
			return true
		}
	}
	return false
}

// IsBuiltin reports whether ref uses the builtin scheme.
func IsBuiltin(ref string) bool {
	return strings.HasPrefix(ref, BuiltinScheme)
}

// BuiltinName strips the builtin scheme, if present.
func BuiltinName(ref string) string {
	return strings.TrimPrefix(ref, BuiltinScheme)
}

// Builtin returns the canonical builtin reference for name. Passing an
// already canonical reference returns it unchanged.
func Builtin(name string) string {
	return BuiltinScheme + BuiltinName(name)
}
