package config

import (
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// SetupLog configures the standard logger. The returned closer closes the log
// file, if any.
func SetupLog(fs afero.Fs, cfg *Config) (io.Closer, error) {
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	if cfg.LogJSON {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{})
	}

	if cfg.LogPath == "" {
		logrus.SetOutput(os.Stderr)
		return nopCloser{}, nil
	}

	if err := fs.MkdirAll(filepath.Dir(cfg.LogPath), os.ModePerm); err != nil {
		return nil, errors.Wrap(err, "failed to make log directory")
	}

	f, err := fs.OpenFile(cfg.LogPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open log file")
	}

	logrus.SetOutput(f)
	return f, nil
}
