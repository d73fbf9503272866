package hostfs

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/veyronfs/adefs/mount"
	"github.com/veyronfs/adefs/pkgreg"
)

// dirEntry pairs a discovered host directory with the relative mount path
// (from the package root) it should be attached under.
type dirEntry struct {
	relPath string
	dir     *Directory
}

// Package walks a host directory subtree and builds one Directory backend
// per discovered subdirectory, mirroring PackageFS::scan's recursive
// fs-tree-to-backend-tree transform. Subdirectories are scanned
// concurrently via errgroup, bounded by the number of directories found at
// each level.
type Package struct {
	root string

	mu        sync.Mutex
	owned     []*Directory
	entries   []dirEntry
	mountRefs []mount.Directory
}

func NewPackage(root string) *Package {
	return &Package{root: root}
}

func (p *Package) Scan() error {
	p.mu.Lock()
	p.owned = nil
	p.entries = nil
	p.mu.Unlock()

	return p.scanDir("")
}

func (p *Package) scanDir(rel string) error {
	abs := filepath.Join(p.root, rel)
	dir, err := newDirectory(abs)
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.owned = append(p.owned, dir)
	p.entries = append(p.entries, dirEntry{relPath: rel, dir: dir})
	p.mu.Unlock()

	subdirs, err := listSubdirs(abs)
	if err != nil {
		return err
	}

	var g errgroup.Group
	for _, name := range subdirs {
		name := name
		g.Go(func() error {
			return p.scanDir(filepath.Join(rel, name))
		})
	}
	return g.Wait()
}

func listSubdirs(abs string) ([]string, error) {
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() || name == "CVS" || name == ".git" {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

// Mount attaches every scanned Directory at its relative path beneath
// node, mirroring PackageFS::mount. The weak pointers the mount tree holds
// must track the same allocation this package keeps alive in mountRefs —
// a loop-local interface value would be collectible the moment Mount
// returns, even while the package itself stays mounted.
func (p *Package) Mount(node *mount.Node) error {
	p.mu.Lock()
	entries := p.entries
	p.mu.Unlock()

	refs := make([]mount.Directory, len(entries))
	for i, e := range entries {
		refs[i] = e.dir
	}

	p.mu.Lock()
	p.mountRefs = refs
	p.mu.Unlock()

	for i, e := range entries {
		node.Mount(relToMountPath(e.relPath), &p.mountRefs[i])
	}
	return nil
}

func relToMountPath(rel string) string {
	if rel == "" || rel == "." {
		return "/"
	}
	return "/" + strings.ReplaceAll(filepath.ToSlash(rel), "\\", "/")
}

// Factory constructs host-FS Packages for any path that is itself an
// existing directory. vfs.New registers it as the last probe; the
// registry's host-FS fallback constructor is supplied separately.
type Factory struct{}

func (Factory) Name() string        { return "hostfs" }
func (Factory) Description() string { return "host filesystem subtree" }
func (Factory) FileTypes() []string { return nil }

func (Factory) IsSupported(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func (Factory) CreatePackage(path string) (pkgreg.Package, error) {
	return NewPackage(path), nil
}
