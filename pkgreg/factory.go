// Package pkgreg implements the package factory registry: selecting, by
// file extension or explicit probe, which package reader implementation
// should take ownership of a given path, and falling back to the host
// filesystem when nothing more specific claims it.
package pkgreg

import (
	"strings"

	"github.com/veyronfs/adefs/mount"
)

// Package is the contract a package reader (host-FS, GCF, ZIP, S3, Consul)
// implements. Mount attaches the reader's directory backends under node;
// Scan must be called first to populate them.
type Package interface {
	Scan() error
	Mount(node *mount.Node) error
}

// Factory constructs Package readers for paths it claims responsibility
// for, mirroring IPackageFactory.
type Factory interface {
	Name() string
	Description() string
	FileTypes() []string
	IsSupported(path string) bool
	CreatePackage(path string) (Package, error)
}

// HostFSFactoryFunc is supplied by the caller (normally pkg/hostfs) so this
// package doesn't need to import it directly and risk a cycle.
type HostFSFactoryFunc func(path string) (Package, error)

// Registry holds every registered Factory, keyed by lower-cased file
// extension with last-registration-wins semantics for overlapping types,
// plus an ordered probe list used when a path's extension isn't a direct
// hit, and a default host-FS constructor used when nothing else claims the
// path — mirroring AdeFS::get_package_factory/create_package.
type Registry struct {
	byType   map[string]Factory
	ordered  []Factory
	hostFS   HostFSFactoryFunc
}

func NewRegistry(hostFS HostFSFactoryFunc) *Registry {
	return &Registry{
		byType: make(map[string]Factory),
		hostFS: hostFS,
	}
}

// Register adds f to the probe list and, for each of its FileTypes
// (lower-cased), sets it as that extension's factory — overwriting any
// prior registration for the same extension.
func (r *Registry) Register(f Factory) {
	r.ordered = append(r.ordered, f)
	for _, t := range f.FileTypes() {
		r.byType[strings.ToLower(t)] = f
	}
}

// extensionOf returns the lower-cased suffix after the last '.', rejecting
// anything containing a path separator or wildcard (mirrors
// AdeFS::get_package_factory's rejection of '/','\\','*' in the candidate
// extension).
func extensionOf(path string) (string, bool) {
	idx := strings.LastIndexByte(path, '.')
	if idx < 0 {
		return "", false
	}
	ext := path[idx+1:]
	if strings.ContainsAny(ext, `/\*`) {
		return "", false
	}
	return strings.ToLower(ext), true
}

func (r *Registry) getFactory(path string) (Factory, bool) {
	if ext, ok := extensionOf(path); ok {
		if f, ok := r.byType[ext]; ok {
			return f, true
		}
	}
	for _, f := range r.ordered {
		if f.IsSupported(path) {
			return f, true
		}
	}
	return nil, false
}

// CreatePackage resolves path to a Factory (by extension, then by ordered
// probe), constructs its Package and scans it; if that fails — or no
// Factory claims the path at all — falls back to the host-FS Package
// constructor and scans that instead, mirroring
// AdeFS::create_package's best-effort fallback.
func (r *Registry) CreatePackage(path string) (Package, error) {
	if f, ok := r.getFactory(path); ok {
		pkg, err := f.CreatePackage(path)
		if err == nil {
			if err := pkg.Scan(); err == nil {
				return pkg, nil
			}
		}
	}
	pkg, err := r.hostFS(path)
	if err != nil {
		return nil, err
	}
	if err := pkg.Scan(); err != nil {
		return nil, err
	}
	return pkg, nil
}
