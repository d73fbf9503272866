// Package vfs is the facade a caller actually talks to: one mount tree, a
// package factory registry, and the bookkeeping needed to keep a package's
// strong reference alive for as long as it stays mounted. Grounded on
// VirtualFileSystem's mount/resolve/Stat/Open/Create surface, adapted to
// the mount-tree + weak-reference ownership model the rest of this module
// uses instead of a flat path-prefix map.
package vfs

import (
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/veyronfs/adefs/data"
	"github.com/veyronfs/adefs/file"
	"github.com/veyronfs/adefs/log"
	"github.com/veyronfs/adefs/mount"
	"github.com/veyronfs/adefs/pkg/gcf"
	"github.com/veyronfs/adefs/pkg/hostfs"
	"github.com/veyronfs/adefs/pkg/zip"
	"github.com/veyronfs/adefs/pkgreg"
)

// FS is the virtual filesystem: a mount tree rooted at "/", the registry
// that resolves a path to a package reader, and the set of packages
// currently mounted — owned here so their directories' weak references
// stay alive.
type FS struct {
	mu       sync.Mutex
	root     *mount.Node
	registry *pkgreg.Registry
	log      *log.Logger

	owned map[string]pkgreg.Package
}

// New constructs an empty VFS, registering the GCF and ZIP package readers
// and the host-FS fallback.
func New(opts ...Option) *FS {
	o := newDefaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	logger := log.New("adefs", o.LogLevel, o.LogFile, o.NoTerminalLog)

	registry := pkgreg.NewRegistry(func(path string) (pkgreg.Package, error) {
		return hostfs.NewPackage(path), nil
	})
	registry.Register(gcf.Factory{})
	registry.Register(zip.Factory{})
	registry.Register(hostfs.Factory{})

	fs := &FS{
		root:     mount.NewRoot(),
		registry: registry,
		log:      logger,
		owned:    make(map[string]pkgreg.Package),
	}

	if o.BaseRootMount {
		if err := fs.MountPackage("/", "."); err != nil {
			logger.Warn("base root mount failed: %v", err)
		}
	}

	return fs
}

// MountPackage resolves localPath through the package registry (by
// extension, then by probe, falling back to host-FS) and mounts the
// resulting package at mountPath, mirroring mount(package_name, mountpoint).
func (f *FS) MountPackage(mountPath, localPath string) error {
	id := uuid.NewString()
	clog := f.log.With(id)

	pkg, err := f.registry.CreatePackage(localPath)
	if err != nil {
		clog.Error("load %s -> %s failed: %v", localPath, mountPath, err)
		return err
	}

	return f.mountPackage(mountPath, pkg, clog)
}

// Mount attaches an already-scanned package (typically S3 or Consul, which
// the registry never probes for since they aren't path-extension driven) at
// mountPath.
func (f *FS) Mount(mountPath string, pkg pkgreg.Package) error {
	id := uuid.NewString()
	return f.mountPackage(mountPath, pkg, f.log.With(id))
}

func (f *FS) mountPackage(mountPath string, pkg pkgreg.Package, clog *log.CorrelatedLogger) error {
	mountPath = cleanPath(mountPath)

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, exists := f.owned[mountPath]; exists {
		return data.ErrExist
	}

	base := f.root.GetOrCreateMountpoint(mountPath, true)
	if err := pkg.Mount(base); err != nil {
		clog.Error("mount %s failed: %v", mountPath, err)
		return err
	}

	f.owned[mountPath] = pkg
	clog.Info("mounted package at %s", mountPath)
	return nil
}

// Unmount drops the strong reference to the package mounted at mountPath,
// letting its directories' weak references expire, and removes the mount
// node itself. Fails with data.ErrNotMounted if nothing is mounted there,
// or data.ErrMountBusy if nested mounts still exist beneath it.
func (f *FS) Unmount(mountPath string) error {
	mountPath = cleanPath(mountPath)

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, exists := f.owned[mountPath]; !exists {
		return data.ErrNotMounted
	}

	if err := f.root.Unmount(mountPath); err != nil {
		return err
	}

	delete(f.owned, mountPath)
	return nil
}

// OpenFile resolves path to its owning directory and opens it under mode.
func (f *FS) OpenFile(path string, mode data.Mode) (file.File, error) {
	id := uuid.NewString()
	clog := f.log.With(id)

	handle, err := f.currentRoot().OpenFile(path, mode)
	if err != nil {
		clog.Debug("open %s failed: %v", path, err)
		return nil, err
	}
	clog.Debug("opened %s", path)
	return handle, nil
}

// Load opens path for reading and performs a single read into buf,
// mirroring load(path, buf): openfile(path, READ).read(buf).
func (f *FS) Load(path string, buf []byte) (int, error) {
	h, err := f.OpenFile(path, data.ModeRead)
	if err != nil {
		return 0, err
	}
	defer h.Close()
	return h.Read(buf)
}

// LoadChunks opens path for reading and loops, reading into buf and invoking
// callback with the offset read so far, the buffer, and the number of bytes
// just read, until EOF or failure, mirroring load(path, callback, buf).
func (f *FS) LoadChunks(path string, buf []byte, callback func(offset int64, buf []byte, n int)) error {
	h, err := f.OpenFile(path, data.ModeRead)
	if err != nil {
		return err
	}
	defer h.Close()

	var offset int64
	for {
		n, err := h.Read(buf)
		if n > 0 {
			callback(offset, buf, n)
			offset += int64(n)
		}
		if h.IsFail() || h.IsEof() || n == 0 {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// LoadBytes opens path, allocates a buffer sized to its Stat size, and reads
// exactly that many bytes, mirroring load(path) -> bytes. A short read
// returns an empty buffer rather than the partial one.
func (f *FS) LoadBytes(path string) ([]byte, error) {
	fi, err := f.Stat(path)
	if err != nil {
		return nil, err
	}

	h, err := f.OpenFile(path, data.ModeRead)
	if err != nil {
		return nil, err
	}
	defer h.Close()

	buf := make([]byte, fi.Size)
	var total int64
	for total < fi.Size {
		n, err := h.Read(buf[total:])
		total += int64(n)
		if err != nil || n == 0 {
			break
		}
	}
	if total != fi.Size {
		return []byte{}, nil
	}
	return buf, nil
}

// Stat returns the metadata for path without opening it.
func (f *FS) Stat(path string) (data.FileInfo, error) {
	dir, name, err := f.currentRoot().FindFileOwner(path, data.AttrRead)
	if err != nil {
		return data.FileInfo{}, err
	}
	fi, ok := dir.Stat(name)
	if !ok {
		return data.FileInfo{}, data.ErrNotExist
	}
	return fi, nil
}

// List returns the directory entries visible at path across every
// shadowing layer mounted there.
func (f *FS) List(path string) ([]data.FileInfo, error) {
	node := f.currentRoot().GetOrCreateMountpoint(path, false)
	if node == nil {
		return nil, data.ErrNotExist
	}

	var out []data.FileInfo
	for _, dir := range node.Directories() {
		out = append(out, dir.List()...)
	}
	return out, nil
}

// Reset drops every mounted package, returning the VFS to an empty root.
func (f *FS) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.root = mount.NewRoot()
	f.owned = make(map[string]pkgreg.Package)
}

func (f *FS) currentRoot() *mount.Node {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.root
}

func cleanPath(p string) string {
	p = strings.TrimPrefix(p, "/")
	p = strings.TrimSuffix(p, "/")
	return p
}
