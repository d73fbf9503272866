// Package gcf reads Valve GCF (Game Cache File) archives: a fixed
// little-endian binary layout read sequentially section by section, with a
// directory tree encoded as a sibling/child linked structure and file data
// addressed indirectly through a block fragmentation map.
package gcf

// Every struct below is laid out exactly as the archive's on-disk
// #pragma pack(push,1) C structs — all fields are uint32, so there is no
// padding to account for and encoding/binary.Read can decode each struct
// directly.

type header struct {
	Dummy0, Dummy1      uint32
	FormatVersion       uint32
	CacheID             uint32
	GCFVersion          uint32
	Dummy3, Dummy4      uint32
	FileSize            uint32
	BlockSize           uint32
	BlockCount          uint32
	Dummy5              uint32
}

type blockEntryHeader struct {
	BlockCount                       uint32
	BlocksUsed                       uint32
	Dummy0, Dummy1, Dummy2, Dummy3, Dummy4 uint32
	Checksum                         uint32
}

type blockEntry struct {
	EntryType               uint32
	FileDataOffset          uint32
	FileDataSize            uint32
	FirstDataBlockIndex     uint32
	NextBlockEntryIndex     uint32
	PreviousBlockEntryIndex uint32
	DirectoryIndex          uint32
}

type fragMapHeader struct {
	BlockCount     uint32
	Dummy0, Dummy1 uint32
	Checksum       uint32
}

type blockEntryMapHeader struct {
	BlockCount           uint32
	FirstBlockEntryIndex uint32
	LastBlockEntryIndex  uint32
	Dummy0               uint32
	Checksum             uint32
}

type blockEntryMap struct {
	PreviousBlockEntryIndex uint32
	NextBlockEntryIndex     uint32
}

type directoryHeader struct {
	Dummy0        uint32
	CacheID       uint32
	GCFVersion    uint32
	ItemCount     uint32
	FileCount     uint32
	Dummy1        uint32
	DirectorySize uint32
	NameSize      uint32
	Info1Count    uint32
	CopyCount     uint32
	LocalCount    uint32
	Dummy2        uint32
	Dummy3        uint32
	Checksum      uint32
}

type directoryEntry struct {
	NameOffset     uint32
	ItemSize       uint32
	ChecksumIndex  uint32
	DirectoryType  uint32
	ParentIndex    uint32
	NextIndex      uint32
	FirstIndex     uint32
}

// DirectoryType == 0 marks a folder entry; anything else is a file.
const directoryTypeFolder = 0

// noIndex is the sentinel used for ParentIndex/ChecksumIndex ("none").
const noIndex = 0xFFFFFFFF

type directoryMapHeader struct {
	Dummy0, Dummy1 uint32
}

type directoryMapEntry struct {
	FirstBlockIndex uint32
}

type checksumHeader struct {
	Dummy0       uint32
	ChecksumSize uint32
}

type checksumMapHeader struct {
	Dummy0       uint32
	Dummy1       uint32
	ItemCount    uint32
	ChecksumCount uint32
}

type dataBlockHeader struct {
	GCFVersion      uint32
	BlockCount      uint32
	BlockSize       uint32
	FirstBlockOffset uint32
	BlocksUsed      uint32
	Checksum        uint32
}
