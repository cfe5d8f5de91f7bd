package core

import (
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// NewLogger creates the logging service every component receives.
// The returned Closer closes the log file, if one was opened.
func NewLogger(cfg LoggingConfiguration) (*logrus.Logger, io.Closer, error) {
	level := logrus.InfoLevel
	if cfg.Level != "" {
		lvl, err := logrus.ParseLevel(cfg.Level)
		if err != nil {
			return nil, nil, errors.Wrap(err, "logging level")
		}
		level = lvl
	}

	var (
		writers []io.Writer
		closer  io.Closer = nopCloser{}
	)
	if cfg.Path != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
			return nil, nil, errors.Wrap(err, "create log directory")
		}
		f, err := os.OpenFile(cfg.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, errors.Wrap(err, "open log file")
		}
		writers = append(writers, f)
		closer = f
	}
	if cfg.Console || len(writers) == 0 {
		writers = append(writers, os.Stdout)
	}

	logger := logrus.New()
	logger.SetLevel(level)
	logger.SetOutput(io.MultiWriter(writers...))
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
		DisableColors:   cfg.Path != "",
	})
	return logger, closer, nil
}
