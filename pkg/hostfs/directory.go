// Package hostfs is the default package reader: it mounts a subtree of the
// host filesystem one backend per directory, matching the source's
// PackageFS/DirectoryFS split.
package hostfs

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/veyronfs/adefs/data"
	"github.com/veyronfs/adefs/file"
)

// Directory backs a single host directory. It re-stats every entry on each
// lookup rather than caching Scan-time metadata, since a host directory's
// contents can change underneath a long-lived mount — mirroring
// DirectoryFS::rescan_file being called per access rather than once at
// scan time.
type Directory struct {
	mu   sync.Mutex
	root string
	// names holds the lower-cased name -> real on-disk name mapping
	// discovered at scan time; stat results are always refreshed live.
	names map[string]string
}

func newDirectory(root string) (*Directory, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	d := &Directory{root: root, names: make(map[string]string)}
	for _, e := range entries {
		name := e.Name()
		if name == "." || name == ".." || name == "CVS" || name == ".git" {
			continue
		}
		d.names[strings.ToLower(name)] = name
	}
	return d, nil
}

func (d *Directory) FileExists(name string) bool {
	d.mu.Lock()
	_, ok := d.names[name]
	d.mu.Unlock()
	return ok
}

func (d *Directory) Stat(name string) (data.FileInfo, bool) {
	d.mu.Lock()
	real, ok := d.names[name]
	d.mu.Unlock()
	if !ok {
		return data.FileInfo{}, false
	}

	info, err := os.Stat(filepath.Join(d.root, real))
	if err != nil {
		return data.FileInfo{}, false
	}
	return toFileInfo(real, info), true
}

func (d *Directory) List() []data.FileInfo {
	d.mu.Lock()
	names := make([]string, 0, len(d.names))
	for _, real := range d.names {
		names = append(names, real)
	}
	d.mu.Unlock()

	out := make([]data.FileInfo, 0, len(names))
	for _, real := range names {
		info, err := os.Stat(filepath.Join(d.root, real))
		if err != nil {
			continue
		}
		out = append(out, toFileInfo(real, info))
	}
	return out
}

func (d *Directory) Open(name string, mode data.Mode) (file.File, error) {
	d.mu.Lock()
	real, ok := d.names[name]
	d.mu.Unlock()
	if !ok {
		if !mode.Has(data.ModeWrite) {
			return nil, data.ErrNotExist
		}
		real = name
	}

	flag := translateMode(mode)
	f, err := os.OpenFile(filepath.Join(d.root, real), flag, 0644)
	if err != nil {
		return nil, err
	}

	if mode.Has(data.ModeWrite) {
		d.mu.Lock()
		d.names[name] = real
		d.mu.Unlock()
	}

	info, err := f.Stat()
	size := int64(0)
	if err == nil {
		size = info.Size()
	}

	df := file.NewDiskFile(f, size)
	if mode.Has(data.ModeAtEnd) {
		_ = df.SeekFrom(0, data.SeekEnd)
	}
	return df, nil
}

func (d *Directory) Attributes() data.Attributes {
	return data.AttrRead | data.AttrWrite | data.AttrRandom
}

func translateMode(mode data.Mode) int {
	var flag int
	switch {
	case mode.Has(data.ModeRead) && mode.Has(data.ModeWrite):
		flag = os.O_RDWR
	case mode.Has(data.ModeWrite):
		flag = os.O_WRONLY
	default:
		flag = os.O_RDONLY
	}
	if mode.Has(data.ModeWrite) {
		flag |= os.O_CREATE
	}
	if mode.Has(data.ModeTruncate) {
		flag |= os.O_TRUNC
	}
	if mode.Has(data.ModeAppend) {
		flag |= os.O_APPEND
	}
	return flag
}

func toFileInfo(name string, info os.FileInfo) data.FileInfo {
	attrs := data.AttrRead | data.AttrRandom
	if info.Mode().Perm()&0200 != 0 {
		attrs |= data.AttrWrite
	}
	if info.IsDir() {
		attrs |= data.AttrDir
	}
	return data.FileInfo{
		Name:       name,
		Size:       info.Size(),
		Attributes: attrs,
		ModTime:    info.ModTime(),
	}
}
