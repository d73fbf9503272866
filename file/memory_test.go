package file

import (
	"testing"

	"github.com/veyronfs/adefs/data"
)

func TestMemoryFileTellReportsPosition(t *testing.T) {
	mf := NewMemoryFile(0, []byte("hello world"))

	buf := make([]byte, 5)
	if _, err := mf.Read(buf); err != nil {
		t.Fatalf("Read: %v", err)
	}

	if got := mf.Tell(); got != 5 {
		t.Fatalf("Tell() = %d, want 5", got)
	}
}

func TestMemoryFileSeekFromEnd(t *testing.T) {
	mf := NewMemoryFile(0, []byte("hello world"))

	if err := mf.SeekFrom(-5, data.SeekEnd); err != nil {
		t.Fatalf("SeekFrom: %v", err)
	}
	if got := mf.Tell(); got != 6 {
		t.Fatalf("Tell() after SeekFrom(End,-5) = %d, want 6", got)
	}

	b, ok := mf.Get()
	if !ok || b != 'w' {
		t.Fatalf("Get() = %q,%v, want 'w',true", b, ok)
	}
}

func TestMemoryFileIsEofStrictlyPastEnd(t *testing.T) {
	mf := NewMemoryFile(0, []byte("ab"))

	if err := mf.Seek(2); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	if mf.IsEof() {
		t.Fatalf("IsEof() at position == size should be false")
	}

	if err := mf.Seek(3); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	if !mf.IsEof() {
		t.Fatalf("IsEof() at position > size should be true")
	}
}

func TestMemoryFileAppendModeStartsAtEnd(t *testing.T) {
	mf := NewMemoryFile(data.ModeAppend, []byte("abc"))

	if got := mf.Tell(); got != 3 {
		t.Fatalf("Tell() = %d, want 3", got)
	}
}

func TestMemoryFileTruncateModeStartsEmpty(t *testing.T) {
	mf := NewMemoryFile(data.ModeTruncate, []byte("abc"))

	if got := mf.Size(); got != 0 {
		t.Fatalf("Size() = %d, want 0", got)
	}
}

func TestMemoryFileWriteGrows(t *testing.T) {
	mf := NewMemoryFile(data.ModeWrite, nil)

	n, err := mf.Write([]byte("hi"))
	if err != nil || n != 2 {
		t.Fatalf("Write() = %d,%v, want 2,nil", n, err)
	}
	if got := mf.Size(); got != 2 {
		t.Fatalf("Size() = %d, want 2", got)
	}
}
