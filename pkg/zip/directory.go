package zip

import (
	"os"
	"sync"

	"github.com/veyronfs/adefs/data"
	"github.com/veyronfs/adefs/file"
)

// Directory backs one folder's worth of ZIP entries, mirroring
// DirectoryZIP's case-insensitive map<string,int32> of file indices.
type Directory struct {
	mu      sync.Mutex
	files   map[string]data.FileInfo
	backing *os.File
}

func newDirectory() *Directory {
	return &Directory{files: make(map[string]data.FileInfo)}
}

func (d *Directory) addFile(lower string, fi data.FileInfo) {
	d.mu.Lock()
	d.files[lower] = fi
	d.mu.Unlock()
}

func (d *Directory) setBackingFile(f *os.File) {
	d.mu.Lock()
	d.backing = f
	d.mu.Unlock()
}

func (d *Directory) FileExists(name string) bool {
	d.mu.Lock()
	_, ok := d.files[name]
	d.mu.Unlock()
	return ok
}

func (d *Directory) Stat(name string) (data.FileInfo, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fi, ok := d.files[name]
	return fi, ok
}

func (d *Directory) List() []data.FileInfo {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]data.FileInfo, 0, len(d.files))
	for _, fi := range d.files {
		out = append(out, fi)
	}
	return out
}

func (d *Directory) Open(name string, mode data.Mode) (file.File, error) {
	if mode.Has(data.ModeWrite) {
		return nil, data.ErrReadOnly
	}

	d.mu.Lock()
	fi, ok := d.files[name]
	backing := d.backing
	d.mu.Unlock()
	if !ok {
		return nil, data.ErrNotExist
	}

	switch fi.CompressionMethod {
	case methodStored:
		return file.NewWindowFile(backing, fi.DataOffset, fi.Size), nil
	case methodDeflated:
		return openDeflated(backing, fi, mode)
	default:
		return nil, data.ErrUnsupported
	}
}

func (d *Directory) Attributes() data.Attributes {
	return data.AttrRead | data.AttrRandom
}
