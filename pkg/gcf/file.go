package gcf

import (
	"io"

	"github.com/veyronfs/adefs/data"
)

// File walks a block chain through the package's fragmentation map,
// mirroring FileGCF's pointer/block bookkeeping: blockNum is the current
// block (an index into the archive's data-block region), blockOffset is
// the distance from the start of that block to the logical file pointer,
// and blockDataAvail is how many bytes remain in the current block before
// the chain must advance via the fragmentation map.
type File struct {
	pkg   *Package
	size  int64
	first uint32

	filePointer    int64
	blockNum       uint32
	blockOffset    int64
	blockDataAvail int64

	fail  bool
	count int64
}

func newFile(pkg *Package, size int64, first uint32) *File {
	f := &File{pkg: pkg, size: size, first: first}
	f.updateBlockInfo()
	return f
}

// updateBlockInfo recomputes blockNum/blockOffset/blockDataAvail from the
// current filePointer, mirroring FileGCF::update_block_info.
func (f *File) updateBlockInfo() {
	blockSize := int64(f.pkg.blockSize)
	if blockSize == 0 {
		return
	}
	hops := uint32(f.filePointer / blockSize)
	f.blockNum = f.pkg.getBlockIndex(f.first, hops)
	f.blockOffset = f.filePointer % blockSize
	f.blockDataAvail = blockSize - f.blockOffset
}

func (f *File) Get() (byte, bool) {
	var b [1]byte
	n, err := f.Read(b[:])
	if n == 0 || err != nil {
		return 0, false
	}
	return b[0], true
}

func (f *File) Read(buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		if f.filePointer >= f.size {
			break
		}
		if f.pkg.isEndOfChain(f.blockNum) {
			break
		}

		want := int64(len(buf) - total)
		if want > f.blockDataAvail {
			want = f.blockDataAvail
		}
		if remaining := f.size - f.filePointer; want > remaining {
			want = remaining
		}
		if want <= 0 {
			next := f.pkg.nextBlock(f.blockNum)
			if f.pkg.isEndOfChain(next) {
				break
			}
			f.blockNum = next
			f.blockOffset = 0
			f.blockDataAvail = int64(f.pkg.blockSize)
			continue
		}

		n, err := f.pkg.readBlockData(f.blockNum, f.blockOffset, buf[total:total+int(want)])
		if n > 0 {
			total += n
			f.filePointer += int64(n)
			f.blockOffset += int64(n)
			f.blockDataAvail -= int64(n)
		}
		if err != nil && err != io.EOF {
			f.fail = true
			f.count = int64(total)
			return total, err
		}
		if n == 0 {
			break
		}

		if f.blockDataAvail == 0 {
			next := f.pkg.nextBlock(f.blockNum)
			f.blockNum = next
			f.blockOffset = 0
			f.blockDataAvail = int64(f.pkg.blockSize)
		}
	}

	f.count = int64(total)
	if total < len(buf) {
		f.fail = true
	}
	return total, nil
}

func (f *File) Write(buf []byte) (int, error) {
	return 0, data.ErrReadOnly
}

// Ignore skips forward by n bytes, or, if delim is non-negative, reads up to
// n bytes one at a time and stops as soon as one of them equals delim,
// mirroring FileGCF::ignore.
func (f *File) Ignore(n int64, delim int) int64 {
	if delim < 0 {
		avail := f.size - f.filePointer
		if n > avail {
			n = avail
		}
		if n < 0 {
			n = 0
		}
		f.filePointer += n
		f.updateBlockInfo()
		return n
	}

	var skipped int64
	for skipped < n {
		b, ok := f.Get()
		if !ok {
			break
		}
		skipped++
		if int(b) == delim {
			break
		}
	}
	return skipped
}

// Seek sets the absolute file pointer, clamped to size, mirroring
// FileGCF::seek(filepos).
func (f *File) Seek(pos int64) error {
	if pos < 0 {
		pos = 0
	}
	if pos > f.size {
		pos = f.size
	}
	f.filePointer = pos
	f.updateBlockInfo()
	return nil
}

func (f *File) SeekFrom(offset int64, origin data.SeekOrigin) error {
	var base int64
	switch origin {
	case data.SeekBeginning:
		base = 0
	case data.SeekCurrent:
		base = f.filePointer
	case data.SeekEnd:
		base = f.size
	default:
		return data.ErrInvalid
	}
	return f.Seek(base + offset)
}

func (f *File) Tell() int64 {
	return f.filePointer
}

func (f *File) IsFail() bool {
	return f.fail
}

func (f *File) IsEof() bool {
	return f.filePointer >= f.size
}

func (f *File) Count() int64 {
	return f.count
}

func (f *File) Size() int64 {
	return f.size
}

func (f *File) Close() error {
	return nil
}
