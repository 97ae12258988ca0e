// Package logger provides namespaced debug logging for solgas components.
//
// Every component gets its own logger via New("pkg:concern"); output is
// gated by the DEBUG environment variable using the same glob syntax as
// the "debug" npm package (DEBUG=compilation:*,-compilation:cache).
package logger

import (
	"fmt"
	"hash/fnv"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

// Logger is a debug logger scoped to a single namespace, e.g. "compilation:service".
type Logger struct {
	namespace string
	enabled   bool
	lastLog   time.Time
	mu        sync.Mutex
	color     string
}

var (
	debugEnv    = os.Getenv("DEBUG")
	debugColors = os.Getenv("DEBUG_COLORS") != "0"
	isTTY       = isatty.IsTerminal(os.Stderr.Fd())

	// patternCache memoizes computeEnabled by namespace: DEBUG is read once at
	// process start and loggers are created far more often than DEBUG changes.
	patternCache     = make(map[string]bool)
	patternCacheLock sync.RWMutex

	colorPalette = []string{
		"\033[38;5;33m",  // Blue
		"\033[38;5;35m",  // Green
		"\033[38;5;166m", // Orange
		"\033[38;5;125m", // Purple
		"\033[38;5;37m",  // Cyan
		"\033[38;5;161m", // Magenta
		"\033[38;5;136m", // Yellow
		"\033[38;5;124m", // Red
		"\033[38;5;28m",  // Dark green
		"\033[38;5;63m",  // Light blue
	}

	colorReset = "\033[0m"
)

// New creates a Logger for namespace. Enabled state and color are computed once,
// at construction time, from the DEBUG/DEBUG_COLORS environment.
func New(namespace string) *Logger {
	return &Logger{
		namespace: namespace,
		enabled:   cachedEnabled(namespace),
		lastLog:   time.Now(),
		color:     selectColor(namespace),
	}
}

func cachedEnabled(namespace string) bool {
	patternCacheLock.RLock()
	enabled, ok := patternCache[namespace]
	patternCacheLock.RUnlock()
	if ok {
		return enabled
	}

	enabled = computeEnabled(namespace)

	patternCacheLock.Lock()
	patternCache[namespace] = enabled
	patternCacheLock.Unlock()
	return enabled
}

func selectColor(namespace string) string {
	if !debugColors || !isTTY {
		return ""
	}
	h := fnv.New32a()
	h.Write([]byte(namespace))
	return colorPalette[h.Sum32()%uint32(len(colorPalette))]
}

// Enabled reports whether this logger currently writes output.
func (l *Logger) Enabled() bool {
	return l.enabled
}

func (l *Logger) write(message string) {
	l.mu.Lock()
	now := time.Now()
	diff := now.Sub(l.lastLog)
	l.lastLog = now
	l.mu.Unlock()

	if l.color != "" {
		fmt.Fprintf(os.Stderr, "%s%s%s %s +%s\n", l.color, l.namespace, colorReset, message, formatDuration(diff))
	} else {
		fmt.Fprintf(os.Stderr, "%s %s +%s\n", l.namespace, message, formatDuration(diff))
	}
}

// Printf logs a formatted message if the logger is enabled.
func (l *Logger) Printf(format string, args ...interface{}) {
	if !l.enabled {
		return
	}
	l.write(fmt.Sprintf(format, args...))
}

// Print logs args joined the way fmt.Sprint joins them, if the logger is enabled.
func (l *Logger) Print(args ...interface{}) {
	if !l.enabled {
		return
	}
	l.write(fmt.Sprint(args...))
}

// Println behaves like Print; the trailing newline is always added regardless.
func (l *Logger) Println(args ...interface{}) {
	if !l.enabled {
		return
	}
	l.write(fmt.Sprintln(args...))
}

// LazyPrintf only calls fn, and only formats/logs its result, when the logger is
// enabled. Use this to skip building expensive diagnostic strings (e.g. pretty-printing
// an AST) on the hot compile path when DEBUG isn't set.
func (l *Logger) LazyPrintf(fn func() string) {
	if !l.enabled {
		return
	}
	l.write(fn())
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Microsecond:
		return fmt.Sprintf("%dns", d.Nanoseconds())
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	case d < time.Hour:
		return fmt.Sprintf("%.1fm", d.Minutes())
	default:
		return fmt.Sprintf("%.1fh", d.Hours())
	}
}

func computeEnabled(namespace string) bool {
	patterns := strings.Split(debugEnv, ",")
	enabled := false
	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		if strings.HasPrefix(pattern, "-") {
			if matchPattern(namespace, strings.TrimPrefix(pattern, "-")) {
				return false
			}
			continue
		}
		if matchPattern(namespace, pattern) {
			enabled = true
		}
	}
	return enabled
}

func matchPattern(namespace, pattern string) bool {
	if pattern == "*" || pattern == namespace {
		return true
	}
	if !strings.Contains(pattern, "*") {
		return false
	}
	if strings.HasSuffix(pattern, "*") && !strings.HasPrefix(pattern, "*") {
		return strings.HasPrefix(namespace, strings.TrimSuffix(pattern, "*"))
	}
	if strings.HasPrefix(pattern, "*") && !strings.HasSuffix(pattern, "*") {
		return strings.HasSuffix(namespace, strings.TrimPrefix(pattern, "*"))
	}
	parts := strings.SplitN(pattern, "*", 2)
	if len(parts) == 2 {
		return strings.HasPrefix(namespace, parts[0]) && strings.HasSuffix(namespace, parts[1])
	}
	return false
}
