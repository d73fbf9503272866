// Package mount implements the mount-point tree: a recursive namespace of
// named nodes, each carrying zero or more directory backends attached by a
// package reader's Mount. Resolution descends the tree one path segment at
// a time; lookup of a leaf name walks the node's directories in LIFO order
// so a later mount() shadows an earlier one at the same node.
package mount

import (
	"github.com/veyronfs/adefs/data"
	"github.com/veyronfs/adefs/file"
)

// Directory is the backend contract a package reader attaches to a mount
// node. Implementations are pkg/hostfs.Directory, pkg/gcf.Directory,
// pkg/zip.Directory, pkg/s3pkg.Directory and pkg/consulpkg.Directory.
type Directory interface {
	// FileExists reports whether name (already lower-cased by the caller)
	// is present in this directory.
	FileExists(name string) bool

	// Stat returns metadata for name, or ok=false if absent.
	Stat(name string) (data.FileInfo, bool)

	// List returns every entry this directory holds.
	List() []data.FileInfo

	// Open opens name under mode and returns a handle satisfying
	// file.File. Returns data.ErrNotExist if name is absent.
	Open(name string, mode data.Mode) (file.File, error)

	// Attributes reports this directory's capability mask, checked
	// against a Mode's RequiredAttributes before Open is attempted.
	Attributes() data.Attributes
}
