package mount

import (
	"strings"
	"sync"
	"weak"

	"github.com/veyronfs/adefs/data"
	"github.com/veyronfs/adefs/file"
)

// Node is one mount point in the tree. A node owns a set of named children
// (one per path segment mounted beneath it) and a LIFO-ordered list of
// directory backends mounted directly at it. Directories are held by weak
// reference: a package reader owns the strong reference it hands to Mount
// from its own Mount method, and unmounting the package (dropping that
// strong reference) makes
// every node pointing at its directories see them disappear on next lookup,
// without the tree needing to know the package was unmounted.
type Node struct {
	name       string
	attributes data.Attributes
	parent     *Node

	mu         sync.Mutex
	children   map[string]*Node
	directories []weak.Pointer[Directory]
}

// NewRoot creates the tree root, readable and writable by default.
func NewRoot() *Node {
	return &Node{
		name:       "",
		attributes: data.AttrRead | data.AttrWrite,
		children:   make(map[string]*Node),
	}
}

func (n *Node) Name() string {
	return n.name
}

// FullPath reconstructs the absolute, lower-cased path to this node by
// walking parent pointers.
func (n *Node) FullPath() string {
	if n.parent == nil {
		return "/"
	}
	var segs []string
	for cur := n; cur.parent != nil; cur = cur.parent {
		segs = append([]string{cur.name}, segs...)
	}
	return "/" + strings.Join(segs, "/")
}

// GetOrCreateMountpoint walks path one lower-cased segment at a time,
// creating intermediate nodes (inheriting this node's attributes) when
// create is true, mirroring MountPoint::get_mountpoint.
func (n *Node) GetOrCreateMountpoint(path string, create bool) *Node {
	path = strings.TrimPrefix(path, "/")
	if path == "" {
		return n
	}

	head, rest := splitFirstSegment(path)
	head = strings.ToLower(head)

	n.mu.Lock()
	child, ok := n.children[head]
	if !ok {
		if !create {
			n.mu.Unlock()
			return nil
		}
		child = &Node{
			name:       head,
			attributes: n.attributes,
			parent:     n,
			children:   make(map[string]*Node),
		}
		n.children[head] = child
	}
	n.mu.Unlock()

	if rest == "" {
		return child
	}
	return child.GetOrCreateMountpoint(rest, create)
}

// Mount attaches the directory pointed to by ref to the node reached by
// path, creating intermediate nodes as needed. ref must point at a slot the
// caller (a package reader) keeps a strong reference to for as long as the
// directory should stay mounted — typically an element of a slice the
// reader's own Mount method populates and owns. The node only ever holds a weak
// reference: when the reader is dropped (e.g. on Reset/Unmount of the whole
// package), ref's target is collected and every node pointing at it sees an
// expired reference on its next lookup.
func (n *Node) Mount(path string, ref *Directory) {
	target := n.GetOrCreateMountpoint(path, true)

	target.mu.Lock()
	target.directories = append(target.directories, weak.Make(ref))
	target.mu.Unlock()
}

// Unmount drops every directory attached at the node reached by path and
// removes that node from its parent. Returns data.ErrNotMounted if path
// resolves to nothing, or data.ErrMountBusy if the node still has child
// mounts.
func (n *Node) Unmount(path string) error {
	target := n.GetOrCreateMountpoint(path, false)
	if target == nil {
		return data.ErrNotMounted
	}

	target.mu.Lock()
	defer target.mu.Unlock()
	if len(target.children) > 0 {
		return data.ErrMountBusy
	}
	target.directories = nil

	if target.parent != nil {
		target.parent.mu.Lock()
		delete(target.parent.children, target.name)
		target.parent.mu.Unlock()
	}
	return nil
}

// FindFileOwner descends path segment by segment; on the final segment it
// iterates this node's directories in reverse (LIFO) order, skipping
// expired weak references and directories whose attributes don't satisfy
// required, returning the first directory whose FileExists matches.
func (n *Node) FindFileOwner(path string, required data.Attributes) (Directory, string, error) {
	path = strings.TrimPrefix(path, "/")
	if path == "" {
		return nil, "", data.ErrInvalid
	}

	if idx := strings.IndexByte(path, '/'); idx >= 0 {
		head := strings.ToLower(path[:idx])
		n.mu.Lock()
		child, ok := n.children[head]
		n.mu.Unlock()
		if !ok {
			return nil, "", data.ErrNotMounted
		}
		return child.FindFileOwner(path[idx+1:], required)
	}

	if !n.attributes.Has(required) {
		return nil, "", data.ErrPermission
	}

	name := strings.ToLower(path)

	n.mu.Lock()
	dirs := make([]weak.Pointer[Directory], len(n.directories))
	copy(dirs, n.directories)
	n.mu.Unlock()

	for i := len(dirs) - 1; i >= 0; i-- {
		ref := dirs[i].Value()
		if ref == nil {
			continue
		}
		dir := *ref
		if !dir.Attributes().Has(required) {
			continue
		}
		if dir.FileExists(name) {
			return dir, name, nil
		}
	}
	return nil, "", data.ErrNotExist
}

// OpenFile resolves path to its owning directory and opens the leaf name
// under mode, mirroring MountPoint::openfile.
func (n *Node) OpenFile(path string, mode data.Mode) (file.File, error) {
	dir, name, err := n.FindFileOwner(path, mode.RequiredAttributes())
	if err != nil {
		return nil, err
	}
	return dir.Open(name, mode)
}

// Walk calls fn for this node and every descendant, depth first.
func (n *Node) Walk(fn func(*Node)) {
	fn(n)
	n.mu.Lock()
	children := make([]*Node, 0, len(n.children))
	for _, c := range n.children {
		children = append(children, c)
	}
	n.mu.Unlock()
	for _, c := range children {
		c.Walk(fn)
	}
}

// Directories returns the still-alive directories mounted directly at this
// node, in mount order (not reversed).
func (n *Node) Directories() []Directory {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Directory, 0, len(n.directories))
	for _, ref := range n.directories {
		if v := ref.Value(); v != nil {
			out = append(out, *v)
		}
	}
	return out
}

func splitFirstSegment(path string) (head, rest string) {
	if idx := strings.IndexByte(path, '/'); idx >= 0 {
		return path[:idx], path[idx+1:]
	}
	return path, ""
}
