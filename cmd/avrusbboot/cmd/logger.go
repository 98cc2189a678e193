package cmd

import (
	"fmt"
	"strings"

	"github.com/golang/glog"
)

// glogLogger adapts glog to bootloader.Logger. Debug output needs -v=1.
type glogLogger struct{}

func (glogLogger) Debug(msg string, keysAndValues ...interface{}) {
	if glog.V(1) {
		glog.InfoDepth(1, formatLog(msg, keysAndValues))
	}
}

func (glogLogger) Info(msg string, keysAndValues ...interface{}) {
	glog.InfoDepth(1, formatLog(msg, keysAndValues))
}

func (glogLogger) Warn(msg string, keysAndValues ...interface{}) {
	glog.WarningDepth(1, formatLog(msg, keysAndValues))
}

func (glogLogger) Error(msg string, keysAndValues ...interface{}) {
	glog.ErrorDepth(1, formatLog(msg, keysAndValues))
}

// formatLog renders msg followed by key=value pairs. A trailing key without
// value is printed as is.
func formatLog(msg string, keysAndValues []interface{}) string {
	var sb strings.Builder
	sb.WriteString(msg)
	for i := 0; i < len(keysAndValues); i += 2 {
		sb.WriteByte(' ')
		if i+1 < len(keysAndValues) {
			fmt.Fprintf(&sb, "%v=%v", keysAndValues[i], keysAndValues[i+1])
		} else {
			fmt.Fprintf(&sb, "%v", keysAndValues[i])
		}
	}
	return sb.String()
}
