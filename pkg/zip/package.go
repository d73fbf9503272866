package zip

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

// maxEOCDSearch is the maximum number of trailing bytes scanned for the
// end-of-central-directory signature: a comment can be at most 0xFFFF
// bytes, plus the 18 fixed bytes that follow the signature, plus the
// 4-byte signature itself.
const maxEOCDSearch = 0xFFFF + sizeofCentralDir + 4

// Package owns one open ZIP file and the Directory tree built from its
// central directory, mirroring PackageZIP.
type Package struct {
	path string

	mu    sync.Mutex
	f     *os.File
	owned []*Directory
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
	info, err := f.Stat()
	if err != nil {
		return err
	}
	size := info.Size()

	searchLen := size
	if searchLen > maxEOCDSearch {
		searchLen = maxEOCDSearch
	}
	tail := make([]byte, searchLen)
	if _, err := f.ReadAt(tail, size-searchLen); err != nil && err != io.EOF {
		return data.ErrBadFormat
	}

	eocdOffset := -1
	for i := len(tail) - 4; i >= 0; i-- {
		if binary.LittleEndian.Uint32(tail[i:i+4]) == sigEndOfCentralDir {
			eocdOffset = i
			break
		}
	}
	if eocdOffset < 0 {
		return data.ErrBadFormat
	}

	var cd centralDir
	if err := binary.Read(sliceReader(tail[eocdOffset+4:]), binary.LittleEndian, &cd); err != nil {
		return data.ErrBadFormat
	}
	if cd.DiskNumber != 0 || cd.CentralDirDiskNum != 0 {
		return data.ErrUnsupported // multi-file ZIP packages are not supported
	}

	p.owned = nil
	p.entries = nil
	root := newDirectory()
	p.owned = append(p.owned, root)
	dirs := map[string]*Directory{"": root}

	getDir := func(relDir string) *Directory {
		if d, ok := dirs[relDir]; ok {
			return d
		}
		d := newDirectory()
		dirs[relDir] = d
		p.owned = append(p.owned, d)
		return d
	}

	offset := int64(cd.DirOffset)
	for i := uint16(0); i < cd.DirEntryCount; i++ {
		var sigBuf [4]byte
		if _, err := f.ReadAt(sigBuf[:], offset); err != nil {
			return data.ErrBadFormat
		}
		if binary.LittleEndian.Uint32(sigBuf[:]) != sigCentralDirEntry {
			return data.ErrBadFormat
		}

		fixed := make([]byte, sizeofDirEntry)
		if _, err := f.ReadAt(fixed, offset+4); err != nil {
			return data.ErrBadFormat
		}
		var de dirEntry
		if err := binary.Read(sliceReader(fixed), binary.LittleEndian, &de); err != nil {
			return data.ErrBadFormat
		}

		nameBuf := make([]byte, de.FilenameSize)
		if _, err := f.ReadAt(nameBuf, offset+4+sizeofDirEntry); err != nil {
			return data.ErrBadFormat
		}
		filename := string(nameBuf)

		if _, err := f.ReadAt(sigBuf[:], int64(de.FileOffset)); err != nil {
			return data.ErrBadFormat
		}
		if binary.LittleEndian.Uint32(sigBuf[:]) != sigLocalFileHeader {
			return data.ErrBadFormat
		}

		localFixed := make([]byte, sizeofZipFileHeader)
		if _, err := f.ReadAt(localFixed, int64(de.FileOffset)+4); err != nil {
			return data.ErrBadFormat
		}
		var fh fileHeader
		if err := binary.Read(sliceReader(localFixed), binary.LittleEndian, &fh); err != nil {
			return data.ErrBadFormat
		}

		if fh.SizeUncompressed != 0 || (len(filename) > 0 && filename[len(filename)-1] != '/') {
			dataOffset := int64(de.FileOffset) + 4 + sizeofZipFileHeader + int64(fh.FilenameSize) + int64(fh.ExtraSize)

			relDir, base := splitPath(filename)
			dir := getDir(relDir)
			dir.addFile(strings.ToLower(base), data.FileInfo{
				Name:              base,
				Size:              int64(fh.SizeUncompressed),
				Attributes:        data.AttrRead | data.AttrRandom,
				CompressedSize:    int64(fh.SizeCompressed),
				CompressionMethod: fh.CompressionMethod,
				DataOffset:        dataOffset,
				CRC32:             fh.CRC,
			})
			ensureAncestors(dirs, &p.owned, relDir)
		}

		offset += 4 + int64(sizeofDirEntry) + int64(de.FilenameSize) + int64(de.ExtraSize) + int64(de.CommentSize)
	}

	p.entries = p.entries[:0]
	for rel, d := range dirs {
		p.entries = append(p.entries, struct {
			relPath string
			dir     *Directory
		}{relPath: rel, dir: d})
	}

	return nil
}

// ensureAncestors guarantees every ancestor directory of relDir has an
// entry in dirs, even if it contains no files directly (only
// subdirectories), mirroring PackageZIP::get_directory's path-segment walk.
func ensureAncestors(dirs map[string]*Directory, owned *[]*Directory, relDir string) {
	if relDir == "" {
		return
	}
	parent, _ := splitPath(relDir)
	if _, ok := dirs[parent]; !ok {
		d := newDirectory()
		dirs[parent] = d
		*owned = append(*owned, d)
	}
	ensureAncestors(dirs, owned, parent)
}

func splitPath(full string) (dir, base string) {
	full = strings.TrimSuffix(full, "/")
	idx := strings.LastIndexByte(full, '/')
	if idx < 0 {
		return "", full
	}
	return full[:idx], full[idx+1:]
}

// Mount attaches every scanned Directory at its relative path beneath node.
// mountRefs keeps the weak-pointed allocation alive for as long as the
// package is mounted; a loop-local mount.Directory box would not survive a
// GC past Mount's return.
func (p *Package) Mount(node *mount.Node) error {
	p.mu.Lock()
	entries := p.entries
	f := p.f
	p.mu.Unlock()

	refs := make([]mount.Directory, len(entries))
	for i, e := range entries {
		e.dir.setBackingFile(f)
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

func sliceReader(b []byte) io.Reader {
	return &byteReader{b: b}
}

type byteReader struct {
	b []byte
}

func (r *byteReader) Read(p []byte) (int, error) {
	n := copy(p, r.b)
	r.b = r.b[n:]
	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}

// Factory constructs zip Packages for paths with a ".zip" extension.
type Factory struct{}

func (Factory) Name() string        { return "zip" }
func (Factory) Description() string { return "ZIP archive" }
func (Factory) FileTypes() []string { return []string{"zip"} }

func (Factory) IsSupported(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), ".zip")
}

func (Factory) CreatePackage(path string) (pkgreg.Package, error) {
	return NewPackage(path), nil
}
