package file

import (
	"github.com/veyronfs/adefs/data"
)

// MemoryFile is a handle over a byte slice already held in memory — used by
// the Consul KV package and by deflated ZIP entries, both of which
// materialize their full content at open time rather than streaming it.
//
// Two behaviors are corrected relative to where this type's semantics come
// from: Tell returns the real cursor position rather than an unconditional
// zero, and SeekFrom is implemented instead of being a no-op.
type MemoryFile struct {
	baseState
	data     []byte
	position int64
	mode     data.Mode
}

// NewMemoryFile creates a handle over data. If mode has ModeTruncate set the
// handle starts empty regardless of data's contents. If mode has ModeAppend
// or ModeAtEnd set, the initial position is the end of the content.
func NewMemoryFile(mode data.Mode, data_ []byte) *MemoryFile {
	mf := &MemoryFile{mode: mode}
	if !mode.Has(data.ModeTruncate) {
		mf.data = append([]byte(nil), data_...)
	}
	if mode.Has(data.ModeAppend) || mode.Has(data.ModeAtEnd) {
		mf.position = int64(len(mf.data))
	}
	return mf
}

func (mf *MemoryFile) Bytes() []byte {
	return mf.data
}

func (mf *MemoryFile) Get() (byte, bool) {
	if mf.position >= int64(len(mf.data)) {
		mf.fail = true
		mf.count = 0
		return 0, false
	}
	b := mf.data[mf.position]
	mf.position++
	mf.count = 1
	return b, true
}

func (mf *MemoryFile) Read(buf []byte) (int, error) {
	avail := int64(len(mf.data)) - mf.position
	if avail < 0 {
		avail = 0
	}
	n := int64(len(buf))
	if n > avail {
		n = avail
	}
	copy(buf, mf.data[mf.position:mf.position+n])
	mf.position += n
	mf.count = n
	if n < int64(len(buf)) {
		mf.fail = true
	}
	return int(n), nil
}

func (mf *MemoryFile) Write(buf []byte) (int, error) {
	end := mf.position + int64(len(buf))
	if end > int64(len(mf.data)) {
		grown := make([]byte, end)
		copy(grown, mf.data)
		mf.data = grown
	}
	copy(mf.data[mf.position:end], buf)
	mf.position = end
	mf.count = int64(len(buf))
	return len(buf), nil
}

// Ignore skips forward by n bytes, or, if delim is non-negative, reads up to
// n bytes one at a time and stops as soon as one of them equals delim,
// mirroring FileInMemory::ignore's delimited form (the source's own
// unconditional-no-op is not reproduced, same as Tell/SeekFrom above).
func (mf *MemoryFile) Ignore(n int64, delim int) int64 {
	if delim < 0 {
		avail := int64(len(mf.data)) - mf.position
		if n > avail {
			n = avail
		}
		if n < 0 {
			n = 0
		}
		mf.position += n
		return n
	}

	var skipped int64
	for skipped < n {
		b, ok := mf.Get()
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

// Seek sets the absolute position directly, matching the source's
// unclamped filepos-based seek.
func (mf *MemoryFile) Seek(pos int64) error {
	if pos < 0 {
		return data.ErrInvalid
	}
	mf.position = pos
	return nil
}

func (mf *MemoryFile) SeekFrom(offset int64, origin data.SeekOrigin) error {
	var base int64
	switch origin {
	case data.SeekBeginning:
		base = 0
	case data.SeekCurrent:
		base = mf.position
	case data.SeekEnd:
		base = int64(len(mf.data))
	default:
		return data.ErrInvalid
	}
	return mf.Seek(base + offset)
}

func (mf *MemoryFile) Tell() int64 {
	return mf.position
}

func (mf *MemoryFile) IsEof() bool {
	return mf.position > int64(len(mf.data))
}

func (mf *MemoryFile) Size() int64 {
	return int64(len(mf.data))
}

func (mf *MemoryFile) Close() error {
	return nil
}
