package consulpkg

import (
	"sync"

	"github.com/hashicorp/consul/api"

	"github.com/veyronfs/adefs/data"
	"github.com/veyronfs/adefs/file"
)

// Directory backs one key prefix's worth of entries, all fully materialized
// at scan time — unlike the host-FS, GCF and ZIP readers, Consul KV values
// come back whole from List and there is no cheaper ranged fetch to defer.
type Directory struct {
	client     *api.Client
	listPrefix string

	mu      sync.Mutex
	entries map[string]data.FileInfo
}

func newDirectory(client *api.Client, listPrefix string) *Directory {
	return &Directory{client: client, listPrefix: listPrefix, entries: make(map[string]data.FileInfo)}
}

func (d *Directory) addEntry(lower string, fi data.FileInfo) {
	d.mu.Lock()
	d.entries[lower] = fi
	d.mu.Unlock()
}

func (d *Directory) FileExists(name string) bool {
	d.mu.Lock()
	_, ok := d.entries[name]
	d.mu.Unlock()
	return ok
}

func (d *Directory) Stat(name string) (data.FileInfo, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fi, ok := d.entries[name]
	return fi, ok
}

func (d *Directory) List() []data.FileInfo {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]data.FileInfo, 0, len(d.entries))
	for _, fi := range d.entries {
		out = append(out, fi)
	}
	return out
}

func (d *Directory) Open(name string, mode data.Mode) (file.File, error) {
	d.mu.Lock()
	fi, ok := d.entries[name]
	d.mu.Unlock()
	if !ok {
		return nil, data.ErrNotExist
	}

	if mode.Has(data.ModeWrite) {
		return &writeBackFile{
			MemoryFile: file.NewMemoryFile(mode, fi.Data),
			d:          d,
			lower:      name,
			key:        fi.Key,
		}, nil
	}

	return file.NewMemoryFile(mode, fi.Data), nil
}

// writeBackFile re-puts the accumulated buffer to Consul KV on Close, since
// KV values are replaced whole — there is no partial-write call to make.
type writeBackFile struct {
	*file.MemoryFile
	d     *Directory
	lower string
	key   string
}

func (w *writeBackFile) Close() error {
	buf := w.Bytes()
	_, err := w.d.client.KV().Put(&api.KVPair{Key: w.key, Value: buf}, nil)
	if err != nil {
		return err
	}

	w.d.mu.Lock()
	if fi, ok := w.d.entries[w.lower]; ok {
		fi.Size = int64(len(buf))
		fi.Data = buf
		w.d.entries[w.lower] = fi
	}
	w.d.mu.Unlock()

	return w.MemoryFile.Close()
}

func (d *Directory) Attributes() data.Attributes {
	return data.AttrRead | data.AttrWrite
}
