// Package consulpkg materializes a tree of keys under a Consul KV prefix
// into a package, grounded on ConsulBackend's key layout: one KV entry per
// object, "/"-delimited keys form the directory structure, everything fully
// read into memory since Consul KV has no ranged-read primitive.
package consulpkg

import (
	"strings"
	"sync"

	"github.com/hashicorp/consul/api"

	"github.com/veyronfs/adefs/data"
	"github.com/veyronfs/adefs/mount"
)

// Config mirrors ConsulBackendConfig's fields.
type Config struct {
	Address    string
	Token      string
	Datacenter string
	Namespace  string
	// Prefix scopes the scan to keys under this prefix. Default "/" scans
	// the whole KV store.
	Prefix string
}

func (c Config) normalized() Config {
	if c.Address == "" {
		c.Address = "127.0.0.1:8500"
	}
	if c.Prefix == "" {
		c.Prefix = "/"
	}
	return c
}

// Package owns a Consul API client and the Directory tree built from one
// recursive KV().List of its prefix.
type Package struct {
	cfg Config

	mu        sync.Mutex
	mounted   map[string]*Directory
	mountRefs []mount.Directory
}

func NewPackage(cfg Config) *Package {
	return &Package{cfg: cfg.normalized()}
}

func (p *Package) Scan() error {
	clientConfig := api.DefaultConfig()
	clientConfig.Address = p.cfg.Address
	if p.cfg.Token != "" {
		clientConfig.Token = p.cfg.Token
	}
	if p.cfg.Datacenter != "" {
		clientConfig.Datacenter = p.cfg.Datacenter
	}
	if p.cfg.Namespace != "" {
		clientConfig.Namespace = p.cfg.Namespace
	}

	client, err := api.NewClient(clientConfig)
	if err != nil {
		return err
	}

	listPrefix := strings.TrimPrefix(p.cfg.Prefix, "/")
	// A listing failure leaves the package scanned-but-empty rather than
	// failing Scan, the same way pkg/s3pkg handles a network error.
	pairs, _, err := client.KV().List(listPrefix, nil)
	if err != nil {
		pairs = nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.mounted = make(map[string]*Directory)
	root := newDirectory(client, listPrefix)
	p.mounted[""] = root

	getDir := func(relDir string) *Directory {
		if d, ok := p.mounted[relDir]; ok {
			return d
		}
		d := newDirectory(client, listPrefix)
		p.mounted[relDir] = d
		return d
	}

	for _, pair := range pairs {
		rel := strings.TrimPrefix(pair.Key, listPrefix)
		rel = strings.TrimPrefix(rel, "/")
		if rel == "" || strings.HasSuffix(rel, "/") {
			continue
		}

		relDir, base := splitKey(rel)
		dir := getDir(relDir)
		dir.addEntry(strings.ToLower(base), data.FileInfo{
			Name:       base,
			Size:       int64(len(pair.Value)),
			Attributes: data.AttrRead | data.AttrWrite,
			Key:        pair.Key,
			Data:       pair.Value,
		})
		p.ensureAncestors(client, listPrefix, relDir)
	}

	return nil
}

func (p *Package) ensureAncestors(client *api.Client, listPrefix, relDir string) {
	if relDir == "" {
		return
	}
	parent, _ := splitKey(relDir)
	if _, ok := p.mounted[parent]; !ok {
		p.mounted[parent] = newDirectory(client, listPrefix)
	}
	p.ensureAncestors(client, listPrefix, parent)
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
