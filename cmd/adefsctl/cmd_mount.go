package main

import (
	"fmt"

	"github.com/veyronfs/adefs/vfs"
)

// mountCommand validates that a path can be mounted at "/" and reports
// success, without doing anything else — useful to check an archive before
// handing it to ls/cat/tree.
type mountCommand struct{}

func (*mountCommand) Name() string            { return "mount" }
func (*mountCommand) Description() string     { return "Verify a path can be mounted" }
func (*mountCommand) Usage() string            { return "mount <path>" }
func (*mountCommand) GetFlags() *CommandFlagSet { return nil }

func (c *mountCommand) Execute(fs *vfs.FS, args *CommandArgs) (int, error) {
	if len(args.Args) < 1 {
		return 1, fmt.Errorf("mount requires a path")
	}

	if err := fs.MountPackage("/", args.Args[0]); err != nil {
		return 1, err
	}

	fmt.Printf("mounted %s at /\n", args.Args[0])
	return 0, nil
}
