package testutil

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Test binaries only print logs when run with -v. Packages opt in by
// importing testutil.
func init() {
	logrus.SetLevel(logrus.TraceLevel)
	if !isVerbose(os.Args) {
		logrus.StandardLogger().Out = io.Discard
	}
}

func isVerbose(args []string) bool {
	for _, arg := range args {
		name, value, _ := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if name != "test.v" {
			continue
		}
		return value != "false"
	}
	return false
}

// DisableLogging silences the standard logger until reset is called.
func DisableLogging() (reset func()) {
	logger := logrus.StandardLogger()
	out, level := logger.Out, logger.GetLevel()
	logger.Out = io.Discard
	return func() {
		logger.Out = out
		logger.SetLevel(level)
	}
}
