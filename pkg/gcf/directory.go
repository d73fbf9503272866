package gcf

import (
	"sync"

	"github.com/veyronfs/adefs/data"
	"github.com/veyronfs/adefs/file"
)

// fileEntry mirrors DirectoryGCF::FileInfo: the directory-entry index acts
// as the file's id, used to look up its size and first data block in the
// owning Package.
type fileEntry struct {
	displayName string
	entryIndex  uint32
}

// Directory backs one folder entry of a GCF archive's directory tree.
type Directory struct {
	mu  sync.Mutex
	pkg *Package
	// lower-cased name -> fileEntry, mirroring DirectoryGCF's
	// case-insensitive map<string,FileInfo>.
	files map[string]fileEntry
}

func newDirectory(pkg *Package) *Directory {
	return &Directory{pkg: pkg, files: make(map[string]fileEntry)}
}

func (d *Directory) addFile(lower, display string, entryIndex uint32) {
	d.mu.Lock()
	d.files[lower] = fileEntry{displayName: display, entryIndex: entryIndex}
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
	fe, ok := d.files[name]
	d.mu.Unlock()
	if !ok {
		return data.FileInfo{}, false
	}
	size, block, ok := d.pkg.fileInfo(fe.entryIndex)
	if !ok {
		return data.FileInfo{}, false
	}
	return data.FileInfo{
		Name:       fe.displayName,
		Size:       int64(size),
		Attributes: data.AttrRead | data.AttrRandom,
		FileID:     fe.entryIndex,
		BlockIndex: block,
	}, true
}

func (d *Directory) List() []data.FileInfo {
	d.mu.Lock()
	entries := make([]fileEntry, 0, len(d.files))
	for _, fe := range d.files {
		entries = append(entries, fe)
	}
	d.mu.Unlock()

	out := make([]data.FileInfo, 0, len(entries))
	for _, fe := range entries {
		size, block, ok := d.pkg.fileInfo(fe.entryIndex)
		if !ok {
			continue
		}
		out = append(out, data.FileInfo{
			Name:       fe.displayName,
			Size:       int64(size),
			Attributes: data.AttrRead | data.AttrRandom,
			FileID:     fe.entryIndex,
			BlockIndex: block,
		})
	}
	return out
}

func (d *Directory) Open(name string, mode data.Mode) (file.File, error) {
	if mode.Has(data.ModeWrite) {
		return nil, data.ErrReadOnly
	}

	d.mu.Lock()
	fe, ok := d.files[name]
	d.mu.Unlock()
	if !ok {
		return nil, data.ErrNotExist
	}

	size, firstBlock, ok := d.pkg.fileInfo(fe.entryIndex)
	if !ok {
		return nil, data.ErrNotExist
	}

	return newFile(d.pkg, int64(size), firstBlock), nil
}

func (d *Directory) Attributes() data.Attributes {
	return data.AttrRead | data.AttrRandom
}
