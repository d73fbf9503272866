package zip

import (
	"bytes"
	"encoding/binary"
	"os"
	"testing"

	"github.com/veyronfs/adefs/mount"
)

// buildMiniZIP assembles a minimal, valid ZIP byte stream containing a
// single stored (uncompressed) entry, laid out exactly as
// Package.scanLocked expects: local file header + data, then one central
// directory entry, then the end-of-central-directory record.
func buildMiniZIP(t *testing.T, name string, content []byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := func(v any) {
		if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
			t.Fatalf("binary.Write: %v", err)
		}
	}

	localOffset := buf.Len()
	w(uint32(sigLocalFileHeader))
	w(fileHeader{
		CompressionMethod: methodStored,
		SizeCompressed:    uint32(len(content)),
		SizeUncompressed:  uint32(len(content)),
		FilenameSize:      uint16(len(name)),
	})
	buf.WriteString(name)
	buf.Write(content)

	dirOffset := buf.Len()
	w(uint32(sigCentralDirEntry))
	w(dirEntry{
		CompressionMethod: methodStored,
		SizeCompressed:    uint32(len(content)),
		SizeUncompressed:  uint32(len(content)),
		FilenameSize:      uint16(len(name)),
		FileOffset:        uint32(localOffset),
	})
	buf.WriteString(name)
	dirSize := buf.Len() - dirOffset

	w(uint32(sigEndOfCentralDir))
	w(centralDir{
		DirEntryCountDisk: 1,
		DirEntryCount:     1,
		DirSize:           uint32(dirSize),
		DirOffset:         uint32(dirOffset),
	})

	return buf.Bytes()
}

func TestPackageScanAndReadStoredEntry(t *testing.T) {
	content := []byte("the quick brown fox")
	raw := buildMiniZIP(t, "fox.txt", content)

	tmp, err := os.CreateTemp(t.TempDir(), "*.zip")
	if err != nil {
		t.Fatalf("CreateTemp: %v", err)
	}
	if _, err := tmp.Write(raw); err != nil {
		t.Fatalf("Write: %v", err)
	}
	tmp.Close()

	pkg := NewPackage(tmp.Name())
	if err := pkg.Scan(); err != nil {
		t.Fatalf("Scan: %v", err)
	}

	root := mount.NewRoot()
	if err := pkg.Mount(root); err != nil {
		t.Fatalf("Mount: %v", err)
	}

	f, err := root.OpenFile("/fox.txt", 0)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer f.Close()

	buf := make([]byte, len(content))
	if _, err := f.Read(buf); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(buf) != string(content) {
		t.Fatalf("Read content = %q, want %q", buf, content)
	}
}

func TestPackageScanNestedDirectory(t *testing.T) {
	content := []byte("nested")
	raw := buildMiniZIP(t, "a/b/c.txt", content)

	tmp, err := os.CreateTemp(t.TempDir(), "*.zip")
	if err != nil {
		t.Fatalf("CreateTemp: %v", err)
	}
	if _, err := tmp.Write(raw); err != nil {
		t.Fatalf("Write: %v", err)
	}
	tmp.Close()

	pkg := NewPackage(tmp.Name())
	if err := pkg.Scan(); err != nil {
		t.Fatalf("Scan: %v", err)
	}

	root := mount.NewRoot()
	if err := pkg.Mount(root); err != nil {
		t.Fatalf("Mount: %v", err)
	}

	if _, err := root.OpenFile("/a/b/c.txt", 0); err != nil {
		t.Fatalf("OpenFile(/a/b/c.txt): %v", err)
	}
}
