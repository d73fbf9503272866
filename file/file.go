// Package file defines the unified file-handle abstraction shared by every
// package reader and implements the two concrete handle kinds that do not
// need a package-specific variant: an in-memory handle and a plain host
// disk handle.
package file

import "github.com/veyronfs/adefs/data"

// File is the single handle contract every package type opens against.
// Get/Read/Write operate at the current position; Seek/Tell report and move
// it; Ignore discards up to n bytes without copying them — if delim is
// negative it is a plain forward skip, otherwise it stops early the moment
// a byte equal to delim is consumed; IsFail/IsEof report sticky state set by
// the last operation; Count returns the byte count transferred by the last
// Read/Get; Size reports the handle's total extent.
type File interface {
	Get() (byte, bool)
	Read(buf []byte) (int, error)
	Write(buf []byte) (int, error)
	Ignore(n int64, delim int) int64
	Seek(pos int64) error
	SeekFrom(offset int64, origin data.SeekOrigin) error
	Tell() int64
	IsFail() bool
	IsEof() bool
	Count() int64
	Size() int64
	Close() error
}

// baseState holds the sticky fail/eof flags and last-transfer count shared
// by every File implementation, mirroring the fields IFile's concrete
// subclasses each carried individually.
type baseState struct {
	fail  bool
	count int64
}

func (b *baseState) IsFail() bool { return b.fail }
func (b *baseState) Count() int64 { return b.count }
