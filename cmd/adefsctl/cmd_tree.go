package main

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/veyronfs/adefs/vfs"
)

// treeCommand loads an archive or host directory and prints its mount tree,
// one line per directory with a humanized byte count per file.
type treeCommand struct{}

func (*treeCommand) Name() string        { return "tree" }
func (*treeCommand) Description() string { return "Mount a path and print its directory tree" }
func (*treeCommand) Usage() string       { return "tree <path>" }
func (*treeCommand) GetFlags() *CommandFlagSet { return nil }

func (c *treeCommand) Execute(fs *vfs.FS, args *CommandArgs) (int, error) {
	if len(args.Args) < 1 {
		return 1, fmt.Errorf("tree requires a path")
	}
	local := args.Args[0]

	if err := fs.MountPackage("/", local); err != nil {
		return 1, err
	}

	printNode(fs, "/", 0)
	return 0, nil
}

func printNode(fs *vfs.FS, path string, depth int) {
	entries, err := fs.List(path)
	if err != nil {
		return
	}

	indent := strings.Repeat("  ", depth)
	for _, fi := range entries {
		if fi.IsDir() {
			fmt.Printf("%s%s/\n", indent, fi.Name)
			printNode(fs, joinPath(path, fi.Name), depth+1)
		} else {
			fmt.Printf("%s%s  (%s)\n", indent, fi.Name, humanize.Bytes(uint64(fi.Size)))
		}
	}
}

func joinPath(base, name string) string {
	base = strings.TrimSuffix(base, "/")
	return base + "/" + name
}
