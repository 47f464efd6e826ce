package logging

import (
	"fmt"
	"path/filepath"
	"time"
)

const sessionStamp = "20060102_150405"

// SessionFilePath names a per-session artifact: <app>.<start>.<ext>.
func SessionFilePath(dir, appName, ext string, sessionStart time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("%s.%s.%s", appName, sessionStart.Format(sessionStamp), ext))
}

// LogFilePath is the session log file inside logsDir.
func LogFilePath(logsDir, appName string, sessionStart time.Time) string {
	return SessionFilePath(logsDir, appName, "log", sessionStart)
}

// JournalFilePath is the default SQLite journal dump inside logsDir.
func JournalFilePath(logsDir, appName string, sessionStart time.Time) string {
	return SessionFilePath(logsDir, appName, "db", sessionStart)
}
