package util

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Trace logs the elapsed time of a block: defer util.Trace("render")()
func Trace(msg string) func() {
	start := time.Now()
	return func() {
		logrus.WithField("elapsed", time.Since(start).String()).Debug(msg)
	}
}
