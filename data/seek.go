package data

// SeekOrigin mirrors the source's Seek enum (BEGINNING, CURRENT, END).
type SeekOrigin int

const (
	SeekBeginning SeekOrigin = iota
	SeekCurrent
	SeekEnd
)
