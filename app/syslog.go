package app

import (
	"fmt"
	"sync"
	"time"
)

const sysLogMaxEntries = 500

// SysLogEntry is a single system log line.
type SysLogEntry struct {
	Time    time.Time
	Package string
	Message string
}

var (
	sysLogMu      sync.Mutex
	sysLogEntries []*SysLogEntry
)

// Log records a package-tagged log line. Lines go to stdout and to the
// in-memory ring buffer shown on the status page.
func Log(pkg, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	fmt.Printf("[%s] %s\n", pkg, msg)

	entry := &SysLogEntry{
		Time:    time.Now(),
		Package: pkg,
		Message: msg,
	}
	sysLogMu.Lock()
	sysLogEntries = append(sysLogEntries, entry)
	if len(sysLogEntries) > sysLogMaxEntries {
		sysLogEntries = sysLogEntries[len(sysLogEntries)-sysLogMaxEntries:]
	}
	sysLogMu.Unlock()
}

// GetSysLog returns a copy of the system log in reverse-chronological order.
func GetSysLog() []*SysLogEntry {
	sysLogMu.Lock()
	defer sysLogMu.Unlock()
	result := make([]*SysLogEntry, len(sysLogEntries))
	for i, e := range sysLogEntries {
		result[len(sysLogEntries)-1-i] = e
	}
	return result
}
