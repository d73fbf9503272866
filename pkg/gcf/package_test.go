package gcf

import (
	"bytes"
	"encoding/binary"
	"os"
	"testing"

	"github.com/veyronfs/adefs/mount"
)

// buildMiniGCF assembles a minimal, valid GCF byte stream in memory: one
// root folder containing a single file split across two fragmented data
// blocks, laid out in exactly the section order Package.Scan expects.
func buildMiniGCF(t *testing.T, content []byte, blockSize uint32) []byte {
	t.Helper()

	var body bytes.Buffer
	w := func(v any) {
		if err := binary.Write(&body, binary.LittleEndian, v); err != nil {
			t.Fatalf("binary.Write: %v", err)
		}
	}

	blockCount := (uint32(len(content)) + blockSize - 1) / blockSize

	w(blockEntryHeader{BlockCount: 1, BlocksUsed: 1})
	w(blockEntry{
		FileDataOffset:      0,
		FileDataSize:        uint32(len(content)),
		FirstDataBlockIndex: 0,
		NextBlockEntryIndex: 1,
		PreviousBlockEntryIndex: 1,
		DirectoryIndex:      1, // points at the file's directory entry index
	})

	w(fragMapHeader{BlockCount: blockCount})
	for i := uint32(0); i < blockCount; i++ {
		next := i + 1
		if next >= blockCount {
			next = blockCount // end-of-chain sentinel
		}
		w(next)
	}

	nameBlob := []byte("hello.txt\x00")
	dirEntries := []directoryEntry{
		{NameOffset: uint32(len(nameBlob)), DirectoryType: directoryTypeFolder, ParentIndex: noIndex, NextIndex: 0, FirstIndex: 1},
		{NameOffset: 0, ItemSize: uint32(len(content)), ChecksumIndex: noIndex, DirectoryType: 1, ParentIndex: 0, NextIndex: 0, FirstIndex: 0},
	}
	directorySize := uint32(binary.Size(directoryHeader{})) + uint32(binary.Size(directoryEntry{})*len(dirEntries)) + uint32(len(nameBlob))
	w(directoryHeader{ItemCount: uint32(len(dirEntries)), NameSize: uint32(len(nameBlob)), DirectorySize: directorySize})
	for _, e := range dirEntries {
		w(e)
	}
	body.Write(nameBlob)

	w(directoryMapHeader{})
	for range dirEntries {
		w(directoryMapEntry{})
	}

	// ChecksumSize excludes only the 8-byte checksumHeader itself; this
	// fixture has no checksum map entries or checksums beyond the two fixed
	// headers, so ChecksumSize covers just the 16-byte checksumMapHeader.
	w(checksumHeader{ChecksumSize: 16})
	w(checksumMapHeader{})

	headerSize := binary.Size(header{})
	dataHeaderOffset := headerSize + body.Len() + binary.Size(dataBlockHeader{})
	w(dataBlockHeader{
		BlockCount:       blockCount,
		BlockSize:        blockSize,
		FirstBlockOffset: uint32(dataHeaderOffset),
		BlocksUsed:       blockCount,
	})

	padded := make([]byte, blockCount*blockSize)
	copy(padded, content)
	body.Write(padded)

	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, header{
		FormatVersion: 6, // > 5: no GCFBlockEntryMapHeader section
		CacheID:       1,
		GCFVersion:    1,
		FileSize:      uint32(headerSize + body.Len()),
		BlockSize:     blockSize,
		BlockCount:    blockCount,
	}); err != nil {
		t.Fatalf("binary.Write header: %v", err)
	}
	buf.Write(body.Bytes())

	return buf.Bytes()
}

func TestPackageScanAndReadAcrossBlockBoundary(t *testing.T) {
	content := []byte("HelloWorld!!")
	raw := buildMiniGCF(t, content, 8)

	tmp, err := os.CreateTemp(t.TempDir(), "*.gcf")
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

	f, err := root.OpenFile("/hello.txt", 0)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer f.Close()

	buf := make([]byte, len(content))
	n, err := f.Read(buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if n != len(content) {
		t.Fatalf("Read n = %d, want %d", n, len(content))
	}
	if string(buf) != string(content) {
		t.Fatalf("Read content = %q, want %q", buf, content)
	}
	if !f.(*File).IsEof() {
		t.Fatalf("expected IsEof() after reading the whole file")
	}
}

func TestPackageScanLeavesPackageEmptyOnFileSizeMismatch(t *testing.T) {
	content := []byte("HelloWorld!!")
	raw := buildMiniGCF(t, content, 8)
	raw = append(raw, 0xFF) // FileSize no longer matches actual length

	tmp, err := os.CreateTemp(t.TempDir(), "*.gcf")
	if err != nil {
		t.Fatalf("CreateTemp: %v", err)
	}
	if _, err := tmp.Write(raw); err != nil {
		t.Fatalf("Write: %v", err)
	}
	tmp.Close()

	pkg := NewPackage(tmp.Name())
	if err := pkg.Scan(); err != nil {
		t.Fatalf("Scan: %v, want success with an empty package", err)
	}

	root := mount.NewRoot()
	if err := pkg.Mount(root); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	if _, err := root.OpenFile("/hello.txt", 0); err == nil {
		t.Fatalf("OpenFile succeeded on a package that should have scanned empty")
	}
}
