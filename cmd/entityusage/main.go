package main

import (
	"os"

	"github.com/sirupsen/logrus"
)

const (
	appName = "entityusage"
	appSHA  = "compiled-and-deployed-at"
)

func main() {
	host, _ := os.Hostname()
	// Instantiate a root logger that is passed to every component.
	rootLogger := logrus.New()
	logger := rootLogger.WithFields(logrus.Fields{
		"app":  appName,
		"SHA":  appSHA,
		"host": host,
	})

	if err := newRootCmd(logger).Execute(); err != nil {
		logger.WithField("err", err).Error("shutting down due to an error")
		os.Exit(1)
	}
}
