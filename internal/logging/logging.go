// Package logging owns the process-wide, append-only log sink.
package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

const TimeFormat = "2006-01-02 15:04:05"

// Sink is an append-only log file with size-based rotation.
type Sink struct {
	file   *lumberjack.Logger
	logger zerolog.Logger
}

// Open appends to path, creating the file and its directory when needed.
func Open(path string, maxSizeMB int) (*Sink, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("log file path is required")
	}
	file := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: 3,
	}
	return &Sink{file: file, logger: New(file)}, nil
}

// Logger returns the root logger writing to the sink.
func (s *Sink) Logger() zerolog.Logger {
	if s == nil {
		return zerolog.Nop()
	}
	return s.logger
}

func (s *Sink) Close() error {
	if s == nil || s.file == nil {
		return nil
	}
	return s.file.Close()
}

// New renders events as "<time> <LEVEL> <message> key=value" lines on w.
func New(w io.Writer) zerolog.Logger {
	out := zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    true,
		TimeFormat: TimeFormat,
		PartsOrder: []string{
			zerolog.TimestampFieldName,
			zerolog.LevelFieldName,
			zerolog.MessageFieldName,
		},
		FormatLevel: func(i interface{}) string {
			level, _ := i.(string)
			return strings.ToUpper(level)
		},
	}
	return zerolog.New(out).With().Timestamp().Logger()
}
