package logger

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/mythrivebuddy/thrive_server/config"
)

// Setup 根据配置初始化全局 logrus
func Setup(cfg config.LogConfig) {
	logrus.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	if cfg.Format == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

// Component 返回带 component 字段的 logger
func Component(name string) *logrus.Entry {
	return logrus.WithField("component", name)
}
