package file

import (
	"io"
	"os"

	"github.com/veyronfs/adefs/data"
)

// DiskFile wraps an *os.File opened against the host filesystem, used by
// the host-FS package. Mode bits are translated into os.OpenFile flags by
// the caller (pkg/hostfs); DiskFile itself just adapts os.File to File.
type DiskFile struct {
	baseState
	f    *os.File
	size int64
}

func NewDiskFile(f *os.File, size int64) *DiskFile {
	return &DiskFile{f: f, size: size}
}

func (df *DiskFile) Get() (byte, bool) {
	var b [1]byte
	n, err := df.f.Read(b[:])
	if n == 0 || err != nil {
		df.fail = true
		df.count = 0
		return 0, false
	}
	df.count = 1
	return b[0], true
}

func (df *DiskFile) Read(buf []byte) (int, error) {
	n, err := df.f.Read(buf)
	df.count = int64(n)
	if err != nil && err != io.EOF {
		df.fail = true
	}
	return n, err
}

func (df *DiskFile) Write(buf []byte) (int, error) {
	n, err := df.f.Write(buf)
	df.count = int64(n)
	if err != nil {
		df.fail = true
	}
	return n, err
}

// Ignore skips forward by n bytes, or, if delim is non-negative, reads up to
// n bytes one at a time and stops as soon as one of them equals delim,
// mirroring FileFS::ignore's delegation to the delimited stream ignore.
func (df *DiskFile) Ignore(n int64, delim int) int64 {
	if delim < 0 {
		cur, err := df.f.Seek(0, io.SeekCurrent)
		if err != nil {
			return 0
		}
		end, err := df.f.Seek(0, io.SeekEnd)
		if err != nil {
			return 0
		}
		avail := end - cur
		if n > avail {
			n = avail
		}
		if n < 0 {
			n = 0
		}
		if _, err := df.f.Seek(cur+n, io.SeekStart); err != nil {
			return 0
		}
		return n
	}

	var skipped int64
	for skipped < n {
		b, ok := df.Get()
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

func (df *DiskFile) Seek(pos int64) error {
	_, err := df.f.Seek(pos, io.SeekStart)
	return err
}

func (df *DiskFile) SeekFrom(offset int64, origin data.SeekOrigin) error {
	var whence int
	switch origin {
	case data.SeekBeginning:
		whence = io.SeekStart
	case data.SeekCurrent:
		whence = io.SeekCurrent
	case data.SeekEnd:
		whence = io.SeekEnd
	default:
		return data.ErrInvalid
	}
	_, err := df.f.Seek(offset, whence)
	return err
}

func (df *DiskFile) Tell() int64 {
	pos, _ := df.f.Seek(0, io.SeekCurrent)
	return pos
}

func (df *DiskFile) IsEof() bool {
	pos := df.Tell()
	return pos >= df.size
}

func (df *DiskFile) Size() int64 {
	return df.size
}

func (df *DiskFile) Close() error {
	return df.f.Close()
}
