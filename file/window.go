package file

import (
	"github.com/veyronfs/adefs/data"
)

// WindowFile is a read-only handle over a fixed byte range of an
// io.ReaderAt, used by stored (uncompressed) ZIP entries. It mirrors
// FileZIPStore: seeks and reads are relative to a fixed base offset and
// clamped to a fixed length, never touching bytes outside the window.
type WindowFile struct {
	baseState
	r        ReaderAt
	base     int64
	length   int64
	position int64
}

// ReaderAt is the minimal capability WindowFile needs from its backing
// store; satisfied by *os.File and by anything else that can do ranged
// reads (e.g. a seek-and-read wrapper around a network GET).
type ReaderAt interface {
	ReadAt(p []byte, off int64) (int, error)
}

func NewWindowFile(r ReaderAt, base, length int64) *WindowFile {
	return &WindowFile{r: r, base: base, length: length}
}

func (wf *WindowFile) Get() (byte, bool) {
	if wf.position >= wf.length {
		wf.fail = true
		wf.count = 0
		return 0, false
	}
	var b [1]byte
	n, err := wf.r.ReadAt(b[:], wf.base+wf.position)
	if n == 0 || err != nil {
		wf.fail = true
		wf.count = 0
		return 0, false
	}
	wf.position++
	wf.count = 1
	return b[0], true
}

func (wf *WindowFile) Read(buf []byte) (int, error) {
	avail := wf.length - wf.position
	if avail < 0 {
		avail = 0
	}
	n := int64(len(buf))
	if n > avail {
		n = avail
	}
	if n <= 0 {
		wf.count = 0
		return 0, nil
	}
	read, err := wf.r.ReadAt(buf[:n], wf.base+wf.position)
	wf.position += int64(read)
	wf.count = int64(read)
	if err != nil {
		wf.fail = true
	}
	return read, err
}

func (wf *WindowFile) Write(buf []byte) (int, error) {
	return 0, data.ErrReadOnly
}

// Ignore skips forward by n bytes, or, if delim is non-negative, reads up to
// n bytes one at a time and stops as soon as one of them equals delim,
// mirroring FileZIPStore::ignore's delegation to the delimited stream
// ignore.
func (wf *WindowFile) Ignore(n int64, delim int) int64 {
	if delim < 0 {
		avail := wf.length - wf.position
		if n > avail {
			n = avail
		}
		if n < 0 {
			n = 0
		}
		wf.position += n
		return n
	}

	var skipped int64
	for skipped < n {
		b, ok := wf.Get()
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

func (wf *WindowFile) Seek(pos int64) error {
	if pos < 0 {
		return data.ErrInvalid
	}
	if pos > wf.length {
		pos = wf.length
	}
	wf.position = pos
	return nil
}

func (wf *WindowFile) SeekFrom(offset int64, origin data.SeekOrigin) error {
	var base int64
	switch origin {
	case data.SeekBeginning:
		base = 0
	case data.SeekCurrent:
		base = wf.position
	case data.SeekEnd:
		base = wf.length
	default:
		return data.ErrInvalid
	}
	return wf.Seek(base + offset)
}

func (wf *WindowFile) Tell() int64 {
	return wf.position
}

func (wf *WindowFile) IsEof() bool {
	return wf.position >= wf.length
}

func (wf *WindowFile) Size() int64 {
	return wf.length
}

func (wf *WindowFile) Close() error {
	return nil
}
