package logger

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"civicpulse/config"
)

var (
	loggers   = make(map[string]*logrus.Logger)
	loggersMu sync.Mutex

	cfg    *config.LogConfig
	output io.Writer
)

// Init configures the shared log output. Safe to call again (tests); existing
// named loggers are re-pointed at the new output.
func Init(c *config.LogConfig) {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	if c == nil {
		c = &config.LogConfig{Level: "info", Format: "text"}
	}
	cfg = c

	output = os.Stdout
	if c.FilePath != "" {
		output = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   c.FilePath,
			MaxSize:    c.MaxSizeMB,
			MaxBackups: c.MaxBackups,
			MaxAge:     c.MaxAgeDays,
			Compress:   true,
		})
	}

	for name, l := range loggers {
		configure(l, name)
	}
}

// GetLogger returns the named component logger (report, scoring, router, ...)
func GetLogger(name string) *logrus.Entry {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	if cfg == nil {
		cfg = &config.LogConfig{Level: "info", Format: "text"}
		output = os.Stdout
	}

	l, ok := loggers[name]
	if !ok {
		l = logrus.New()
		configure(l, name)
		loggers[name] = l
	}
	return l.WithField("component", name)
}

func configure(l *logrus.Logger, name string) {
	l.SetOutput(output)

	level, err := logrus.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	if strings.EqualFold(cfg.Format, "json") {
		l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000Z07:00"})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}
