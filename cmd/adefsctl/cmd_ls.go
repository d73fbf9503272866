package main

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/veyronfs/adefs/vfs"
)

// lsCommand loads an archive and lists one directory within it.
type lsCommand struct{}

func (*lsCommand) Name() string            { return "ls" }
func (*lsCommand) Description() string     { return "List a directory inside an archive" }
func (*lsCommand) Usage() string           { return "ls <archive> [inner-path]" }
func (*lsCommand) GetFlags() *CommandFlagSet { return nil }

func (c *lsCommand) Execute(fs *vfs.FS, args *CommandArgs) (int, error) {
	if len(args.Args) < 1 {
		return 1, fmt.Errorf("ls requires an archive path")
	}
	inner := "/"
	if len(args.Args) > 1 {
		inner = args.Args[1]
	}

	if err := fs.MountPackage("/", args.Args[0]); err != nil {
		return 1, err
	}

	entries, err := fs.List(inner)
	if err != nil {
		return 1, err
	}

	for _, fi := range entries {
		if fi.IsDir() {
			fmt.Printf("%-40s <dir>\n", fi.Name+"/")
		} else {
			fmt.Printf("%-40s %s\n", fi.Name, humanize.Bytes(uint64(fi.Size)))
		}
	}
	return 0, nil
}
