package gcf

import (
	"encoding/binary"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/veyronfs/adefs/data"
	"github.com/veyronfs/adefs/mount"
	"github.com/veyronfs/adefs/pkgreg"
)

// Package owns one open GCF file and every Directory backend built from its
// directory-entry tree. Scan reads every section of the archive in the
// exact order PackageGCF::scan does.
type Package struct {
	path string

	mu               sync.Mutex
	f                *os.File
	blockSize        uint32
	blockCount       uint32
	firstBlockOffset uint32
	fragMap          []uint32

	// fileSize/blockIndex per directory-entry index, populated from the
	// directory entries' ItemSize and the parallel directory-map array's
	// first-block-index.
	fileSize   map[uint32]uint32
	blockIndex map[uint32]uint32

	owned   []*Directory
	entries []struct {
		relPath string
		dir     *Directory
	}
	mountRefs []mount.Directory
}

func NewPackage(path string) *Package {
	return &Package{path: path}
}

func (p *Package) Scan() error {
	f, err := os.Open(p.path)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.scanLocked(f); err != nil {
		f.Close()
		return err
	}
	p.f = f
	return nil
}

func (p *Package) scanLocked(f *os.File) error {
	var hdr header
	if err := readStruct(f, &hdr); err != nil {
		return data.ErrBadFormat
	}

	info, err := f.Stat()
	if err != nil {
		return err
	}
	if int64(hdr.FileSize) != info.Size() {
		// FileSize mismatch is the corruption gate: leave the package
		// scanned-but-empty rather than failing Scan outright, the same
		// silent-failure policy pkg/s3pkg uses for a mid-listing network
		// error — the package mounts with zero entries instead of
		// aborting the whole vfs.
		p.owned = nil
		p.entries = nil
		return nil
	}

	p.blockSize = hdr.BlockSize
	p.blockCount = hdr.BlockCount

	var beh blockEntryHeader
	if err := readStruct(f, &beh); err != nil {
		return data.ErrBadFormat
	}
	blockEntries := make([]blockEntry, beh.BlockCount)
	for i := range blockEntries {
		if err := readStruct(f, &blockEntries[i]); err != nil {
			return data.ErrBadFormat
		}
	}

	var fmh fragMapHeader
	if err := readStruct(f, &fmh); err != nil {
		return data.ErrBadFormat
	}
	fragMap := make([]uint32, fmh.BlockCount)
	for i := range fragMap {
		if err := binary.Read(f, binary.LittleEndian, &fragMap[i]); err != nil {
			return data.ErrBadFormat
		}
	}
	p.fragMap = fragMap

	// GCFBlockEntryMapHeader + entries are only present in archives with
	// FormatVersion <= 5; later formats omit this section entirely.
	if hdr.FormatVersion <= 5 {
		var bemh blockEntryMapHeader
		if err := readStruct(f, &bemh); err != nil {
			return data.ErrBadFormat
		}
		for i := uint32(0); i < bemh.BlockCount; i++ {
			var bem blockEntryMap
			if err := readStruct(f, &bem); err != nil {
				return data.ErrBadFormat
			}
		}
	}

	dirHeaderPos, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		return data.ErrBadFormat
	}
	var dh directoryHeader
	if err := readStruct(f, &dh); err != nil {
		return data.ErrBadFormat
	}
	dirEntries := make([]directoryEntry, dh.ItemCount)
	for i := range dirEntries {
		if err := readStruct(f, &dirEntries[i]); err != nil {
			return data.ErrBadFormat
		}
	}

	// The packed name blob sits immediately after the directory entries
	// array; the Info1/Copy/Local sections follow the names, not the other
	// way around.
	nameBlob := make([]byte, dh.NameSize)
	if _, err := io.ReadFull(f, nameBlob); err != nil {
		return data.ErrBadFormat
	}

	// The directory-map array sits DirectorySize bytes past the directory
	// header itself; seeking there directly skips the Info1/Info2/Copy/Local
	// sections without needing to interpret them, matching
	// PackageGCF::scan's dirpos + DirectorySize jump.
	if _, err := f.Seek(dirHeaderPos+int64(dh.DirectorySize), io.SeekStart); err != nil {
		return data.ErrBadFormat
	}

	var dmh directoryMapHeader
	if err := readStruct(f, &dmh); err != nil {
		return data.ErrBadFormat
	}
	dirMap := make([]uint32, dh.ItemCount)
	for i := range dirMap {
		var dme directoryMapEntry
		if err := readStruct(f, &dme); err != nil {
			return data.ErrBadFormat
		}
		dirMap[i] = dme.FirstBlockIndex
	}

	var ch checksumHeader
	if err := readStruct(f, &ch); err != nil {
		return data.ErrBadFormat
	}
	var cmh checksumMapHeader
	if err := readStruct(f, &cmh); err != nil {
		return data.ErrBadFormat
	}
	// The checksum map entries and the checksums themselves are read past
	// but never verified: checksum verification is explicitly out of
	// scope, matching PackageGCF::scan's own skip-without-verify.
	// ChecksumSize excludes only the 8-byte GCFChecksumHeader itself
	// (data_pos = chksum_pos + ChecksumSize + sizeof(GCFChecksumHeader)); the
	// 16-byte checksumMapHeader already read counts against it.
	checksumBytes := int64(ch.ChecksumSize) - 16
	if checksumBytes > 0 {
		if _, err := f.Seek(checksumBytes, io.SeekCurrent); err != nil {
			return data.ErrBadFormat
		}
	}

	var dbh dataBlockHeader
	if err := readStruct(f, &dbh); err != nil {
		return data.ErrBadFormat
	}
	p.firstBlockOffset = dbh.FirstBlockOffset

	// Build directory-entry-index -> (size, first data block) from each
	// entry's own ItemSize and the parallel directory-map array, mirroring
	// PackageGCF::scan_directory's add_file(entry.ItemSize,
	// dir_map.at(entry_index)).
	fileSize := make(map[uint32]uint32, len(dirEntries))
	blockIndex := make(map[uint32]uint32, len(dirEntries))
	for i, entry := range dirEntries {
		fileSize[uint32(i)] = entry.ItemSize
		blockIndex[uint32(i)] = dirMap[i]
	}
	p.fileSize = fileSize
	p.blockIndex = blockIndex

	names := func(offset uint32) string {
		end := int(offset)
		for end < len(nameBlob) && nameBlob[end] != 0 {
			end++
		}
		return string(nameBlob[offset:end])
	}

	// Walk the FirstIndex/NextIndex/DirectoryType sibling/child linked
	// structure recursively, mirroring PackageGCF::scan_directory, building
	// one Directory per folder entry.
	p.owned = nil
	p.entries = nil

	var walk func(entryIndex uint32, relPath string)
	walk = func(entryIndex uint32, relPath string) {
		dir := newDirectory(p)
		p.owned = append(p.owned, dir)
		p.entries = append(p.entries, struct {
			relPath string
			dir     *Directory
		}{relPath: relPath, dir: dir})

		child := dirEntries[entryIndex].FirstIndex
		for child != 0 {
			entry := dirEntries[child]
			name := names(entry.NameOffset)
			if entry.DirectoryType == directoryTypeFolder {
				walk(child, joinRel(relPath, name))
			} else {
				dir.addFile(strings.ToLower(name), name, child)
			}
			child = entry.NextIndex
		}
	}
	walk(0, "")

	return nil
}

// Mount attaches every scanned Directory at its relative path beneath node.
// mountRefs gives the weak pointer the mount tree stores a strong referent
// with the same lifetime as the package itself — a loop-local mount.Directory
// box would be collected out from under the mount tree independently of
// whether the package is still mounted.
func (p *Package) Mount(node *mount.Node) error {
	p.mu.Lock()
	entries := p.entries
	p.mu.Unlock()

	refs := make([]mount.Directory, len(entries))
	for i, e := range entries {
		refs[i] = e.dir
	}

	p.mu.Lock()
	p.mountRefs = refs
	p.mu.Unlock()

	for i, e := range entries {
		path := e.relPath
		if path == "" {
			path = "/"
		}
		node.Mount(path, &p.mountRefs[i])
	}
	return nil
}

func (p *Package) fileInfo(entryIndex uint32) (size, firstBlock uint32, ok bool) {
	size, ok = p.fileSize[entryIndex]
	if !ok {
		return 0, 0, false
	}
	return size, p.blockIndex[entryIndex], true
}

// getBlockIndex walks the fragmentation chain n hops forward from first,
// mirroring PackageGCF::get_block_index.
func (p *Package) getBlockIndex(first uint32, n uint32) uint32 {
	block := first
	for ; n > 0; n-- {
		block = p.fragMap[block]
	}
	return block
}

func (p *Package) nextBlock(block uint32) uint32 {
	return p.fragMap[block]
}

// readBlockData reads n bytes starting at offset within block directly from
// the archive's data-block region.
func (p *Package) readBlockData(block uint32, offsetInBlock int64, buf []byte) (int, error) {
	absolute := int64(p.firstBlockOffset) + int64(block)*int64(p.blockSize) + offsetInBlock
	return p.f.ReadAt(buf, absolute)
}

// isEndOfChain reports whether block is the fragmentation map's "no next
// block" sentinel (its own block count).
func (p *Package) isEndOfChain(block uint32) bool {
	return block >= p.blockCount
}

func readStruct(r io.Reader, v any) error {
	return binary.Read(r, binary.LittleEndian, v)
}

func joinRel(parent, name string) string {
	if parent == "" {
		return "/" + name
	}
	return parent + "/" + name
}

// Factory constructs gcf Packages for paths with a ".gcf" extension,
// mirroring PackageFactoryGCF::is_supported.
type Factory struct{}

func (Factory) Name() string          { return "gcf" }
func (Factory) Description() string   { return "Valve GCF (Game Cache File) archive" }
func (Factory) FileTypes() []string   { return []string{"gcf"} }

func (Factory) IsSupported(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), ".gcf")
}

func (Factory) CreatePackage(path string) (pkgreg.Package, error) {
	return NewPackage(path), nil
}
