package log

import (
	"fmt"
	"os"
	"strings"

	"github.com/v2rayA/beego/v2/logs"
)

var logger = logs.NewLogger()

func init() {
	logger.EnableFuncCallDepth(true)
	logger.SetLogFuncCallDepth(3)
	_ = logger.SetLogger(logs.AdapterConsole)
}

// InitLog configures the process logger. logWay is "console" or "file".
func InitLog(logWay string, logFile string, logLevel string, maxDays int64, disableColor bool, disableTimestamp bool) {
	logger.Reset()
	switch logWay {
	case "file":
		cfg := fmt.Sprintf(`{"filename":%q,"maxdays":%d,"daily":true}`, logFile, maxDays)
		if err := logger.SetLogger(logs.AdapterFile, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "InitLog: %v\n", err)
			_ = logger.SetLogger(logs.AdapterConsole)
		}
	default:
		cfg := fmt.Sprintf(`{"color":%v}`, !disableColor)
		_ = logger.SetLogger(logs.AdapterConsole, cfg)
	}
	logger.SetLevel(parseLevel(logLevel))
	if disableTimestamp {
		logger.EnableFuncCallDepth(false)
	}
}

func parseLevel(level string) int {
	switch strings.ToLower(level) {
	case "trace":
		return logs.LevelDebug
	case "debug":
		return logs.LevelDebug
	case "info":
		return logs.LevelInformational
	case "warn", "warning":
		return logs.LevelWarning
	case "error":
		return logs.LevelError
	default:
		return logs.LevelInformational
	}
}

func Trace(format string, v ...interface{}) {
	logger.Debug(format, v...)
}

func Debug(format string, v ...interface{}) {
	logger.Debug(format, v...)
}

func Info(format string, v ...interface{}) {
	logger.Info(format, v...)
}

func Warn(format string, v ...interface{}) {
	logger.Warn(format, v...)
}

func Error(format string, v ...interface{}) {
	logger.Error(format, v...)
}

func Fatal(format string, v ...interface{}) {
	logger.Critical(format, v...)
	logger.Flush()
	os.Exit(1)
}
