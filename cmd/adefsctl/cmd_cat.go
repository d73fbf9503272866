package main

import (
	"fmt"
	"os"

	"github.com/veyronfs/adefs/vfs"
)

// catCommand loads an archive and streams one file within it to stdout.
type catCommand struct{}

func (*catCommand) Name() string            { return "cat" }
func (*catCommand) Description() string     { return "Print a file from inside an archive" }
func (*catCommand) Usage() string           { return "cat <archive> <inner-path>" }
func (*catCommand) GetFlags() *CommandFlagSet { return nil }

func (c *catCommand) Execute(fs *vfs.FS, args *CommandArgs) (int, error) {
	if len(args.Args) < 2 {
		return 1, fmt.Errorf("cat requires an archive path and an inner path")
	}

	if err := fs.MountPackage("/", args.Args[0]); err != nil {
		return 1, err
	}

	content, err := fs.LoadBytes(args.Args[1])
	if err != nil {
		return 1, err
	}
	os.Stdout.Write(content)
	return 0, nil
}
