package vfs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/veyronfs/adefs/data"
)

func TestFSMountHostDirAndReadFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "sub", "hello.txt"), []byte("hi there"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	fs := New(WithoutTerminalLog())
	if err := fs.MountPackage("/data", dir); err != nil {
		t.Fatalf("MountPackage: %v", err)
	}

	f, err := fs.OpenFile("/data/sub/hello.txt", 0)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer f.Close()

	buf := make([]byte, 8)
	if _, err := f.Read(buf); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(buf) != "hi there" {
		t.Fatalf("Read = %q", buf)
	}
}

func TestFSLoadBytesReadsWholeFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "note.txt"), []byte("hello"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	fs := New(WithoutTerminalLog())
	if err := fs.MountPackage("/", dir); err != nil {
		t.Fatalf("MountPackage: %v", err)
	}

	content, err := fs.LoadBytes("/note.txt")
	if err != nil {
		t.Fatalf("LoadBytes: %v", err)
	}
	if string(content) != "hello" {
		t.Fatalf("LoadBytes = %q, want %q", content, "hello")
	}
}

func TestFSLoadChunksInvokesCallbackPerRead(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "note.txt"), []byte("hello world"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	fs := New(WithoutTerminalLog())
	if err := fs.MountPackage("/", dir); err != nil {
		t.Fatalf("MountPackage: %v", err)
	}

	var got []byte
	buf := make([]byte, 4)
	err := fs.LoadChunks("/note.txt", buf, func(offset int64, chunk []byte, n int) {
		if offset != int64(len(got)) {
			t.Fatalf("callback offset = %d, want %d", offset, len(got))
		}
		got = append(got, chunk[:n]...)
	})
	if err != nil {
		t.Fatalf("LoadChunks: %v", err)
	}
	if string(got) != "hello world" {
		t.Fatalf("LoadChunks assembled = %q, want %q", got, "hello world")
	}
}

func TestFSStatAndList(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("123"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	fs := New(WithoutTerminalLog())
	if err := fs.MountPackage("/", dir); err != nil {
		t.Fatalf("MountPackage: %v", err)
	}

	fi, err := fs.Stat("/a.txt")
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if fi.Size != 3 {
		t.Fatalf("Stat size = %d, want 3", fi.Size)
	}

	entries, err := fs.List("/")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 || entries[0].Name != "a.txt" {
		t.Fatalf("List = %+v", entries)
	}
}

func TestFSDoubleMountAtSamePathFails(t *testing.T) {
	dir := t.TempDir()

	fs := New(WithoutTerminalLog())
	if err := fs.MountPackage("/x", dir); err != nil {
		t.Fatalf("MountPackage: %v", err)
	}
	if err := fs.MountPackage("/x", dir); err != data.ErrExist {
		t.Fatalf("second MountPackage = %v, want ErrExist", err)
	}
}

func TestFSUnmountUnknownPath(t *testing.T) {
	fs := New(WithoutTerminalLog())
	if err := fs.Unmount("/nope"); err != data.ErrNotMounted {
		t.Fatalf("Unmount = %v, want ErrNotMounted", err)
	}
}
