package main

import (
	"os"

	"github.com/op/go-logging"
	"gopkg.in/natefinch/lumberjack.v2"
)

var logFormat = logging.MustStringFormatter(
	`%{time:2006-01-02 15:04:05.000} %{level:.4s} => %{message}`,
)

func newLogger() *logging.Logger {
	logger := logging.MustGetLogger(app)

	backends := []logging.Backend{
		leveled(logging.NewLogBackend(os.Stdout, "", 0)),
	}

	if config.LogFile != "" {
		rotated := &lumberjack.Logger{
			Filename:   config.LogFile,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     15,
			Compress:   true,
		}
		backends = append(backends, leveled(logging.NewLogBackend(rotated, "", 0)))
	}

	logging.SetBackend(backends...)

	return logger
}

func leveled(b logging.Backend) logging.LeveledBackend {
	formatBackend := logging.NewBackendFormatter(b, logFormat)
	levelBackend := logging.AddModuleLevel(formatBackend)
	levelBackend.SetLevel(config.LogLevel, "")

	return levelBackend
}
