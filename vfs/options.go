package vfs

import "github.com/veyronfs/adefs/log"

type Options struct {
	LogLevel      log.Level
	LogFile       string
	NoTerminalLog bool
	BaseRootMount bool
}

type Option func(*Options)

func newDefaultOptions() *Options {
	return &Options{LogLevel: log.Info}
}

func WithLogLevel(level log.Level) Option {
	return func(o *Options) { o.LogLevel = level }
}

func WithoutTerminalLog() Option {
	return func(o *Options) { o.NoTerminalLog = true }
}

func WithLogFile(file string) Option {
	return func(o *Options) { o.LogFile = file }
}

// WithBaseRootMount mounts the process's working directory as a host-FS
// package at "/" when the VFS is constructed.
func WithBaseRootMount() Option {
	return func(o *Options) { o.BaseRootMount = true }
}
