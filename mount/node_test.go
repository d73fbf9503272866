package mount

import (
	"runtime"
	"testing"

	"github.com/veyronfs/adefs/data"
	"github.com/veyronfs/adefs/file"
)

type fakeDir struct {
	files map[string]data.FileInfo
	attrs data.Attributes
}

func newFakeDir(attrs data.Attributes, names ...string) *fakeDir {
	fd := &fakeDir{files: make(map[string]data.FileInfo), attrs: attrs}
	for _, n := range names {
		fd.files[n] = data.FileInfo{Name: n}
	}
	return fd
}

func (fd *fakeDir) FileExists(name string) bool {
	_, ok := fd.files[name]
	return ok
}

func (fd *fakeDir) Stat(name string) (data.FileInfo, bool) {
	fi, ok := fd.files[name]
	return fi, ok
}

func (fd *fakeDir) List() []data.FileInfo {
	out := make([]data.FileInfo, 0, len(fd.files))
	for _, fi := range fd.files {
		out = append(out, fi)
	}
	return out
}

func (fd *fakeDir) Open(name string, mode data.Mode) (file.File, error) {
	if _, ok := fd.files[name]; !ok {
		return nil, data.ErrNotExist
	}
	return file.NewMemoryFile(mode, nil), nil
}

func (fd *fakeDir) Attributes() data.Attributes {
	return fd.attrs
}

func TestNodeResolveAndOpen(t *testing.T) {
	root := NewRoot()
	var dirRef Directory = newFakeDir(data.AttrRead, "readme.txt")
	root.Mount("/docs", &dirRef)

	f, err := root.OpenFile("/docs/readme.txt", data.ModeRead)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer f.Close()

	if _, err := root.OpenFile("/docs/missing.txt", data.ModeRead); err != data.ErrNotExist {
		t.Fatalf("OpenFile(missing) = %v, want ErrNotExist", err)
	}
}

func TestNodeLIFOShadowing(t *testing.T) {
	root := NewRoot()
	var older Directory = newFakeDir(data.AttrRead, "a.txt")
	var newer Directory = newFakeDir(data.AttrRead, "a.txt", "b.txt")

	root.Mount("/pkg", &older)
	root.Mount("/pkg", &newer)

	owner, _, err := root.FindFileOwner("/pkg/a.txt", data.AttrRead)
	if err != nil {
		t.Fatalf("FindFileOwner: %v", err)
	}
	if owner != newer {
		t.Fatalf("FindFileOwner returned the older shadowed directory instead of the newest mount")
	}

	if _, err := root.OpenFile("/pkg/b.txt", data.ModeRead); err != nil {
		t.Fatalf("OpenFile(b.txt) should fall through to the older mount: %v", err)
	}
}

func TestNodeUnmountDropsWeakReference(t *testing.T) {
	root := NewRoot()

	func() {
		var dirRef Directory = newFakeDir(data.AttrRead, "a.txt")
		root.Mount("/tmp", &dirRef)
		_ = dirRef
	}()

	runtime.GC()
	runtime.GC()

	if _, _, err := root.FindFileOwner("/tmp/a.txt", data.AttrRead); err == nil {
		t.Skip("weak reference not yet collected by GC; non-deterministic under -short")
	}
}

func TestNodeUnmountBusyWithChildren(t *testing.T) {
	root := NewRoot()
	var dirRef Directory = newFakeDir(data.AttrRead, "a.txt")
	root.Mount("/a/b", &dirRef)

	if err := root.Unmount("/a"); err != data.ErrMountBusy {
		t.Fatalf("Unmount(/a) = %v, want ErrMountBusy", err)
	}
}
