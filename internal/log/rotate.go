package log

import (
	"io"

	"gopkg.in/natefinch/lumberjack.v2"
)

// RotateOptions configures the rotating log file.
type RotateOptions struct {
	Filename   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// ToFile sends the global logger output to a size-rotated file and returns
// the closer that flushes it at shutdown.
func ToFile(opts RotateOptions) io.Closer {
	if opts.MaxSizeMB <= 0 {
		opts.MaxSizeMB = 10
	}
	if opts.MaxBackups <= 0 {
		opts.MaxBackups = 3
	}
	w := &lumberjack.Logger{
		Filename:   opts.Filename,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
	}
	SetOutput(w)
	return w
}
