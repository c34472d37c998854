// Package logger provides leveled, component-tagged logging for ntbridge.
// Components are short tags like "transport" or "classify" so log output
// can be filtered per subsystem.
package logger

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

var levelNames = map[Level]string{
	DEBUG: "DEBUG",
	INFO:  "INFO",
	WARN:  "WARN",
	ERROR: "ERROR",
}

var (
	mu       sync.Mutex
	minLevel = INFO
	output   = os.Stderr
)

// SetLevel sets the minimum level that will be emitted.
func SetLevel(l Level) {
	mu.Lock()
	minLevel = l
	mu.Unlock()
}

// ParseLevel maps a config string ("debug", "info", ...) to a Level.
// Unknown values default to INFO.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DEBUG
	case "warn", "warning":
		return WARN
	case "error":
		return ERROR
	default:
		return INFO
	}
}

func logf(level Level, component, msg string, fields map[string]any) {
	mu.Lock()
	defer mu.Unlock()
	if level < minLevel {
		return
	}

	var b strings.Builder
	b.WriteString(time.Now().Format("2006-01-02 15:04:05.000"))
	b.WriteString(" [")
	b.WriteString(levelNames[level])
	b.WriteString("] [")
	b.WriteString(component)
	b.WriteString("] ")
	b.WriteString(msg)

	if len(fields) > 0 {
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%v", k, fields[k])
		}
	}
	b.WriteByte('\n')
	output.WriteString(b.String())
}

func DebugC(component, msg string) { logf(DEBUG, component, msg, nil) }
func InfoC(component, msg string)  { logf(INFO, component, msg, nil) }
func WarnC(component, msg string)  { logf(WARN, component, msg, nil) }
func ErrorC(component, msg string) { logf(ERROR, component, msg, nil) }

func DebugCF(component, msg string, fields map[string]any) { logf(DEBUG, component, msg, fields) }
func InfoCF(component, msg string, fields map[string]any)  { logf(INFO, component, msg, fields) }
func WarnCF(component, msg string, fields map[string]any)  { logf(WARN, component, msg, fields) }
func ErrorCF(component, msg string, fields map[string]any) { logf(ERROR, component, msg, fields) }
