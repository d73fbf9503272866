package main

import (
	"fmt"
	"os"

	"github.com/veyronfs/adefs/vfs"
)

func main() {
	fs := vfs.New(vfs.WithoutTerminalLog())

	cm := NewCommandManager(fs)
	for _, cmd := range []Command{
		&mountCommand{},
		&lsCommand{},
		&catCommand{},
		&treeCommand{},
	} {
		if err := cm.Register(cmd); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: adefsctl <command> [args]")
		printUsage(cm)
		os.Exit(1)
	}

	code, err := cm.Execute(os.Args[1:]...)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(code)
}

func printUsage(cm *CommandManager) {
	for _, cmd := range cm.List() {
		fmt.Fprintf(os.Stderr, "  %-8s %s\n", cmd.Name(), cmd.Usage())
	}
}
