// Package s3pkg exposes objects in an S3-compatible bucket as a package,
// grouping keys by their "/"-delimited prefixes into directories the same
// way ListObjects with a non-recursive prefix groups a bucket listing.
package s3pkg

import (
	"context"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/veyronfs/adefs/data"
	"github.com/veyronfs/adefs/mount"
)

// Config names the bucket and key prefix a Package scans.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
	// Prefix restricts the scan to keys under this prefix; empty scans the
	// whole bucket.
	Prefix string
}

// Package owns a minio client and the Directory tree built from one Scan of
// its bucket and prefix.
type Package struct {
	cfg Config

	mu        sync.Mutex
	owned     []*Directory
	mounted   map[string]*Directory
	mountRefs []mount.Directory
}

func NewPackage(cfg Config) *Package {
	return &Package{cfg: cfg}
}

func (p *Package) Scan() error {
	client, err := minio.New(p.cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(p.cfg.AccessKey, p.cfg.SecretKey, ""),
		Secure: p.cfg.UseSSL,
	})
	if err != nil {
		return err
	}

	ctx := context.Background()
	objectsCh := client.ListObjects(ctx, p.cfg.Bucket, minio.ListObjectsOptions{
		Prefix:    p.cfg.Prefix,
		Recursive: true,
	})

	p.mu.Lock()
	defer p.mu.Unlock()

	p.owned = nil
	p.mounted = make(map[string]*Directory)
	root := newDirectory(client, p.cfg.Bucket)
	p.owned = append(p.owned, root)
	p.mounted[""] = root

	getDir := func(relDir string) *Directory {
		if d, ok := p.mounted[relDir]; ok {
			return d
		}
		d := newDirectory(client, p.cfg.Bucket)
		p.mounted[relDir] = d
		p.owned = append(p.owned, d)
		return d
	}

	// A network error mid-listing leaves the package scanned-but-empty
	// rather than failing Scan outright, matching how a corrupt local
	// archive is handled elsewhere in this module: the mount succeeds with
	// zero entries instead of aborting the whole vfs.
	for obj := range objectsCh {
		if obj.Err != nil {
			empty := newDirectory(client, p.cfg.Bucket)
			p.owned = []*Directory{empty}
			p.mounted = map[string]*Directory{"": empty}
			break
		}

		rel := strings.TrimPrefix(obj.Key, p.cfg.Prefix)
		rel = strings.TrimPrefix(rel, "/")
		if rel == "" || strings.HasSuffix(rel, "/") {
			continue
		}

		relDir, base := splitKey(rel)
		dir := getDir(relDir)
		dir.addObject(strings.ToLower(base), data.FileInfo{
			Name:       base,
			Size:       obj.Size,
			Attributes: data.AttrRead | data.AttrWrite,
			Key:        obj.Key,
			ETag:       obj.ETag,
		})
		ensureAncestors(p.mounted, &p.owned, client, p.cfg.Bucket, relDir)
	}

	return nil
}

func ensureAncestors(dirs map[string]*Directory, owned *[]*Directory, client *minio.Client, bucket, relDir string) {
	if relDir == "" {
		return
	}
	parent, _ := splitKey(relDir)
	if _, ok := dirs[parent]; !ok {
		d := newDirectory(client, bucket)
		dirs[parent] = d
		*owned = append(*owned, d)
	}
	ensureAncestors(dirs, owned, client, bucket, parent)
}

func splitKey(full string) (dir, base string) {
	idx := strings.LastIndexByte(full, '/')
	if idx < 0 {
		return "", full
	}
	return full[:idx], full[idx+1:]
}

// Mount attaches every scanned Directory at its relative path beneath node.
// mountRefs holds the same allocation the mount tree weakly points at, so
// the package's own strong reference to the slice is what keeps the
// directory reachable for as long as it stays mounted.
func (p *Package) Mount(node *mount.Node) error {
	p.mu.Lock()
	mounted := p.mounted
	p.mu.Unlock()

	type entry struct {
		path string
		dir  *Directory
	}
	entries := make([]entry, 0, len(mounted))
	for rel, d := range mounted {
		path := rel
		if path == "" {
			path = "/"
		}
		entries = append(entries, entry{path: path, dir: d})
	}

	refs := make([]mount.Directory, len(entries))
	for i, e := range entries {
		refs[i] = e.dir
	}

	p.mu.Lock()
	p.mountRefs = refs
	p.mu.Unlock()

	for i, e := range entries {
		node.Mount(e.path, &p.mountRefs[i])
	}
	return nil
}
