package zip

import (
	"io"
	"os"

	"github.com/klauspost/compress/flate"

	"github.com/veyronfs/adefs/data"
	"github.com/veyronfs/adefs/file"
)

// openDeflated reads a deflated entry's full compressed range, inflates it
// into a pre-sized buffer and returns it as an in-memory handle. PackageZIP
// leaves inflate() as an external collaborator the caller must supply; this
// is the concrete implementation that contract resolves to here.
func openDeflated(backing *os.File, fi data.FileInfo, mode data.Mode) (file.File, error) {
	compressed := make([]byte, fi.CompressedSize)
	if _, err := backing.ReadAt(compressed, fi.DataOffset); err != nil && err != io.EOF {
		return nil, err
	}

	dst := make([]byte, fi.Size)
	zr := flate.NewReader(byteSliceReader(compressed))
	defer zr.Close()

	if _, err := io.ReadFull(zr, dst); err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, data.ErrBadFormat
	}

	return file.NewMemoryFile(mode&^data.ModeWrite, dst), nil
}

func byteSliceReader(b []byte) io.Reader {
	return &byteReader{b: b}
}
