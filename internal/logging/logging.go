package logging

import (
	"io"
	"log"
	"os"

	"github.com/npezzotti/go-housematch/internal/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

const prefix = "[housematch] "

// New returns the process logger. With a log file configured, output is
// written to stderr and to a size-rotated file; the returned closer releases
// the file and is a no-op otherwise.
func New(cfg config.LogConfig) (*log.Logger, io.Closer) {
	return newLogger(os.Stderr, cfg)
}

func newLogger(console io.Writer, cfg config.LogConfig) (*log.Logger, io.Closer) {
	if cfg.File == "" {
		return log.New(console, prefix, log.LstdFlags), nopCloser{}
	}

	rotating := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}

	return log.New(io.MultiWriter(console, rotating), prefix, log.LstdFlags), rotating
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
