// Package log is a small leveled logger writing to the terminal and/or a
// rotated file, grounded on the VFS facade's own logger. JSON mode encodes
// with goccy/go-json instead of the standard library; every entry can carry
// a correlation ID so a mount or an open file handle's whole lifetime can be
// grepped out of a shared log stream.
package log

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/goccy/go-json"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Rotation struct {
	MaxSize    int
	MaxBackups int
	MaxAge     int
	Compress   bool
}

type Logger struct {
	writer io.Writer

	Name  string
	Level Level

	TimeFormat string
	File       string
	NoColor    bool
	JSON       bool
	NoTerminal bool
	Rotation   *Rotation
}

type logEntry struct {
	Timestamp     string `json:"timestamp"`
	Level         string `json:"level"`
	Service       string `json:"service,omitempty"`
	CorrelationID string `json:"correlation_id,omitempty"`
	Message       string `json:"message"`
}

func New(name string, level Level, file string, noTerminal bool) *Logger {
	l := &Logger{
		Name:       name,
		Level:      level,
		File:       file,
		NoTerminal: noTerminal,

		TimeFormat: "2006-01-02 15:04:05",
		Rotation: &Rotation{
			MaxSize:    128,
			MaxBackups: 5,
			MaxAge:     16,
			Compress:   false,
		},
	}

	l.setupWriter()
	return l
}

func (l *Logger) setupWriter() {
	var writers []io.Writer

	if !l.NoTerminal {
		writers = append(writers, os.Stdout)
	}

	if l.File != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   l.File,
			MaxSize:    l.Rotation.MaxSize,
			MaxBackups: l.Rotation.MaxBackups,
			MaxAge:     l.Rotation.MaxAge,
			Compress:   l.Rotation.Compress,
		})
	}

	if len(writers) == 0 {
		writers = append(writers, os.Stdout)
	}

	l.writer = io.MultiWriter(writers...)
}

func (l *Logger) log(level Level, correlationID, msg string, args ...any) {
	if level < l.Level {
		return
	}

	timestamp := time.Now().Format(l.TimeFormat)
	formatted := fmt.Sprintf(msg, args...)

	if l.JSON {
		entry := logEntry{
			Timestamp:     timestamp,
			Level:         level.String(),
			Service:       l.Name,
			CorrelationID: correlationID,
			Message:       formatted,
		}
		b, _ := json.Marshal(entry)
		fmt.Fprintf(l.writer, "%s\n", b)
	} else {
		prefix := fmt.Sprintf("[%s] %-5s", timestamp, level)
		if l.Name != "" {
			prefix = fmt.Sprintf("%s [%s]", prefix, l.Name)
		}
		if correlationID != "" {
			prefix = fmt.Sprintf("%s (%s)", prefix, correlationID)
		}

		if !l.NoTerminal && !l.NoColor {
			fmt.Fprintf(l.writer, "%s%s %s\033[0m\n", colorFor(level), prefix, formatted)
		} else {
			fmt.Fprintf(l.writer, "%s %s\n", prefix, formatted)
		}
	}

	if level == Fatal {
		os.Exit(1)
	}
}

func (l *Logger) Debug(msg string, args ...any) { l.log(Debug, "", msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.log(Info, "", msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.log(Warn, "", msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.log(Error, "", msg, args...) }
func (l *Logger) Fatal(msg string, args ...any) { l.log(Fatal, "", msg, args...) }

// With returns a logger that tags every entry it emits with correlationID,
// used to follow one mount or open file handle's lifetime through a shared
// log stream.
func (l *Logger) With(correlationID string) *CorrelatedLogger {
	return &CorrelatedLogger{l: l, id: correlationID}
}

// CorrelatedLogger is a Logger bound to one correlation ID.
type CorrelatedLogger struct {
	l  *Logger
	id string
}

func (c *CorrelatedLogger) Debug(msg string, args ...any) { c.l.log(Debug, c.id, msg, args...) }
func (c *CorrelatedLogger) Info(msg string, args ...any)  { c.l.log(Info, c.id, msg, args...) }
func (c *CorrelatedLogger) Warn(msg string, args ...any)  { c.l.log(Warn, c.id, msg, args...) }
func (c *CorrelatedLogger) Error(msg string, args ...any) { c.l.log(Error, c.id, msg, args...) }
func (c *CorrelatedLogger) Fatal(msg string, args ...any) { c.l.log(Fatal, c.id, msg, args...) }

func (l *Logger) Named(name string) *Logger {
	return &Logger{
		writer: l.writer,

		Name:  fmt.Sprintf("%s/%s", l.Name, name),
		Level: l.Level,

		TimeFormat: l.TimeFormat,
		File:       l.File,
		NoColor:    l.NoColor,
		NoTerminal: l.NoTerminal,
		JSON:       l.JSON,
		Rotation:   l.Rotation,
	}
}
