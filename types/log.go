package types

import "strings"

// LogLevel orders severities from Error (most severe) to Diagnostics.
// A sink drops any message whose level is numerically above its limit.
type LogLevel uint32

const (
	LogError LogLevel = iota
	LogWarning
	LogInfo
	LogVerbose
	LogDebug
	LogDiagnostics
)

var logLevelNames = [...]string{"error", "warning", "info", "verbose", "debug", "diagnostics"}

func (l LogLevel) String() string {
	if int(l) < len(logLevelNames) {
		return logLevelNames[l]
	}
	return "unknown"
}

// Char is the one-letter tag used in formatted log lines.
func (l LogLevel) Char() byte {
	const tags = "EWIVDD"
	if int(l) < len(tags) {
		return tags[l]
	}
	return '?'
}

// ParseLogLevel accepts the names above (case-insensitive) plus "warn".
func ParseLogLevel(s string) (LogLevel, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warn" {
		return LogWarning, true
	}
	for i, n := range logLevelNames {
		if n == s {
			return LogLevel(i), true
		}
	}
	return LogInfo, false
}
