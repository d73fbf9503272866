// Command line driver for adefs, grounded on the facade's own hand-rolled
// Command/CommandArgs/CommandFlagSet framework rather than a third-party
// flag/cobra library — kept in the same style since the facade never
// depended on one either.
package main

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/veyronfs/adefs/vfs"
)

// Command is one adefsctl subcommand.
type Command interface {
	Name() string
	Description() string
	Usage() string
	Execute(fs *vfs.FS, args *CommandArgs) (int, error)
	GetFlags() *CommandFlagSet
}

type CommandArgs struct {
	Args  []string
	Flags map[string]any
	Raw   []string
}

type CommandFlagSet struct {
	Flags map[string]*CommandFlag
}

type CommandFlag struct {
	Name        string
	Short       string
	Type        string
	Default     any
	Required    bool
	Description string
}

type CommandParser struct {
	flagSet *CommandFlagSet
}

type CommandManager struct {
	mu   sync.RWMutex
	fs   *vfs.FS
	cmds map[string]Command
}

func NewCommandManager(fs *vfs.FS) *CommandManager {
	return &CommandManager{fs: fs, cmds: make(map[string]Command)}
}

func (cm *CommandManager) Register(cmd Command) error {
	if cmd == nil || cmd.Name() == "" {
		return fmt.Errorf("command must be non-nil with a name")
	}

	cm.mu.Lock()
	defer cm.mu.Unlock()

	if _, exists := cm.cmds[cmd.Name()]; exists {
		return fmt.Errorf("command already registered: %s", cmd.Name())
	}
	cm.cmds[cmd.Name()] = cmd
	return nil
}

func (cm *CommandManager) Get(name string) (Command, error) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	cmd, exists := cm.cmds[name]
	if !exists {
		return nil, fmt.Errorf("command not found: %s", name)
	}
	return cmd, nil
}

func (cm *CommandManager) List() []Command {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	out := make([]Command, 0, len(cm.cmds))
	for _, cmd := range cm.cmds {
		out = append(out, cmd)
	}
	return out
}

func (cm *CommandManager) Execute(args ...string) (int, error) {
	if len(args) == 0 {
		return 1, fmt.Errorf("no command specified")
	}

	cmd, err := cm.Get(args[0])
	if err != nil {
		return 1, err
	}

	flagSet := cmd.GetFlags()
	if flagSet == nil {
		flagSet = &CommandFlagSet{Flags: make(map[string]*CommandFlag)}
	}

	parsed, err := (&CommandParser{flagSet: flagSet}).Parse(args[1:])
	if err != nil {
		return 1, fmt.Errorf("parse error: %w", err)
	}

	return cmd.Execute(cm.fs, parsed)
}

func (cp *CommandParser) Parse(raw []string) (*CommandArgs, error) {
	args := &CommandArgs{Flags: make(map[string]any), Raw: raw}

	for name, flag := range cp.flagSet.Flags {
		if flag.Default != nil {
			args.Flags[name] = flag.Default
		}
	}

	longToName := make(map[string]string)
	shortToName := make(map[string]string)
	for name, flag := range cp.flagSet.Flags {
		longToName[flag.Name] = name
		if flag.Short != "" {
			shortToName[flag.Short] = name
		}
	}

	for i := 0; i < len(raw); i++ {
		arg := raw[i]

		if arg == "--" {
			args.Args = append(args.Args, raw[i+1:]...)
			break
		}

		if strings.HasPrefix(arg, "--") {
			key, value, hasValue := parseLongFlag(arg)
			name, exists := longToName[key]
			if !exists {
				return nil, fmt.Errorf("unknown flag: --%s", key)
			}
			flag := cp.flagSet.Flags[name]
			switch {
			case flag.Type == "bool":
				args.Flags[name] = true
			case hasValue:
				args.Flags[name] = coerce(value, flag.Type)
			case i+1 < len(raw) && !strings.HasPrefix(raw[i+1], "-"):
				args.Flags[name] = coerce(raw[i+1], flag.Type)
				i++
			default:
				return nil, fmt.Errorf("flag %s requires a value", key)
			}
			continue
		}

		if strings.HasPrefix(arg, "-") && len(arg) > 1 && arg != "-" {
			name, exists := shortToName[arg[1:]]
			if !exists {
				return nil, fmt.Errorf("unknown flag: %s", arg)
			}
			flag := cp.flagSet.Flags[name]
			if flag.Type == "bool" {
				args.Flags[name] = true
			} else if i+1 < len(raw) && !strings.HasPrefix(raw[i+1], "-") {
				args.Flags[name] = coerce(raw[i+1], flag.Type)
				i++
			} else {
				return nil, fmt.Errorf("flag %s requires a value", arg)
			}
			continue
		}

		args.Args = append(args.Args, arg)
	}

	for name, flag := range cp.flagSet.Flags {
		if flag.Required {
			if _, ok := args.Flags[name]; !ok {
				return nil, fmt.Errorf("required flag: --%s", flag.Name)
			}
		}
	}

	return args, nil
}

func parseLongFlag(arg string) (key, value string, hasValue bool) {
	arg = strings.TrimPrefix(arg, "--")
	if idx := strings.Index(arg, "="); idx >= 0 {
		return arg[:idx], arg[idx+1:], true
	}
	return arg, "", false
}

func coerce(value, typeStr string) any {
	switch typeStr {
	case "int":
		v, _ := strconv.ParseInt(value, 10, 64)
		return v
	case "bool":
		return value == "true" || value == "1" || value == "yes"
	default:
		return value
	}
}
