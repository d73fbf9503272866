package s3pkg

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/minio/minio-go/v7"

	"github.com/veyronfs/adefs/data"
	"github.com/veyronfs/adefs/file"
)

// Directory backs one prefix's worth of S3 objects, grouped the way a
// non-recursive ListObjects call groups a bucket listing by "/".
type Directory struct {
	client *minio.Client
	bucket string

	mu      sync.Mutex
	objects map[string]data.FileInfo
}

func newDirectory(client *minio.Client, bucket string) *Directory {
	return &Directory{client: client, bucket: bucket, objects: make(map[string]data.FileInfo)}
}

func (d *Directory) addObject(lower string, fi data.FileInfo) {
	d.mu.Lock()
	d.objects[lower] = fi
	d.mu.Unlock()
}

func (d *Directory) FileExists(name string) bool {
	d.mu.Lock()
	_, ok := d.objects[name]
	d.mu.Unlock()
	return ok
}

func (d *Directory) Stat(name string) (data.FileInfo, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fi, ok := d.objects[name]
	return fi, ok
}

func (d *Directory) List() []data.FileInfo {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]data.FileInfo, 0, len(d.objects))
	for _, fi := range d.objects {
		out = append(out, fi)
	}
	return out
}

func (d *Directory) Open(name string, mode data.Mode) (file.File, error) {
	d.mu.Lock()
	fi, ok := d.objects[name]
	d.mu.Unlock()
	if !ok {
		return nil, data.ErrNotExist
	}

	ctx := context.Background()

	if mode.Has(data.ModeWrite) {
		return d.openForWrite(ctx, fi, mode)
	}

	object, err := d.client.GetObject(ctx, d.bucket, fi.Key, minio.GetObjectOptions{})
	if err != nil {
		return nil, translateErr(err)
	}
	defer object.Close()

	buf, err := io.ReadAll(object)
	if err != nil {
		return nil, translateErr(err)
	}
	return file.NewMemoryFile(mode, buf), nil
}

// openForWrite materializes the object's current content (if any) into a
// MemoryFile whose Close re-uploads it: S3 has no partial-write primitive,
// so every write is a full read-modify-write PutObject the same way
// WriteObject does it against a minio backend.
func (d *Directory) openForWrite(ctx context.Context, fi data.FileInfo, mode data.Mode) (file.File, error) {
	var existing []byte
	if fi.Size > 0 {
		object, err := d.client.GetObject(ctx, d.bucket, fi.Key, minio.GetObjectOptions{})
		if err == nil {
			existing, _ = io.ReadAll(object)
			object.Close()
		}
	}

	return &writeBackFile{
		MemoryFile: file.NewMemoryFile(mode, existing),
		d:          d,
		key:        fi.Key,
		lower:      d.lowerOf(fi.Key),
	}, nil
}

func (d *Directory) lowerOf(key string) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	for lower, fi := range d.objects {
		if fi.Key == key {
			return lower
		}
	}
	return ""
}

// writeBackFile wraps a MemoryFile so Close uploads the accumulated buffer
// back to S3 before releasing it, since minio has no streaming random-access
// write.
type writeBackFile struct {
	*file.MemoryFile
	d     *Directory
	key   string
	lower string
}

func (w *writeBackFile) Close() error {
	buf := w.Bytes()
	_, err := w.d.client.PutObject(context.Background(), w.d.bucket, w.key, bytes.NewReader(buf), int64(len(buf)), minio.PutObjectOptions{})
	if err != nil {
		return err
	}

	w.d.mu.Lock()
	if fi, ok := w.d.objects[w.lower]; ok {
		fi.Size = int64(len(buf))
		w.d.objects[w.lower] = fi
	}
	w.d.mu.Unlock()

	return w.MemoryFile.Close()
}

func (d *Directory) Attributes() data.Attributes {
	return data.AttrRead | data.AttrWrite | data.AttrRandom
}

func translateErr(err error) error {
	resp := minio.ToErrorResponse(err)
	if resp.Code == "NoSuchKey" {
		return data.ErrNotExist
	}
	return err
}
