package logger

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
	FATAL
)

var levelNames = map[LogLevel]string{
	DEBUG: "DEBUG",
	INFO:  "INFO",
	WARN:  "WARN",
	ERROR: "ERROR",
	FATAL: "FATAL",
}

var (
	mu           sync.RWMutex
	currentLevel = INFO
	sink         *fileSink
)

type fileSink struct {
	file         *os.File
	path         string
	maxSizeBytes int64
	currentSize  int64
	rotateMu     sync.Mutex
}

type entry struct {
	Level     string                 `json:"level"`
	Timestamp string                 `json:"timestamp"`
	Component string                 `json:"component,omitempty"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

func SetLevel(level LogLevel) {
	mu.Lock()
	defer mu.Unlock()
	currentLevel = level
}

func GetLevel() LogLevel {
	mu.RLock()
	defer mu.RUnlock()
	return currentLevel
}

// EnableFileLogging mirrors console output to a JSON-lines file. A maxSizeMB
// of 0 disables rotation.
func EnableFileLogging(path string, maxSizeMB int) error {
	mu.Lock()
	defer mu.Unlock()

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	var size int64
	if stat, statErr := file.Stat(); statErr == nil {
		size = stat.Size()
	}

	if sink != nil && sink.file != nil {
		sink.file.Close()
	}
	sink = &fileSink{
		file:         file,
		path:         path,
		maxSizeBytes: int64(maxSizeMB) * 1024 * 1024,
		currentSize:  size,
	}

	log.Println("File logging enabled:", path)
	return nil
}

func DisableFileLogging() {
	mu.Lock()
	defer mu.Unlock()
	if sink != nil && sink.file != nil {
		sink.file.Close()
		sink = nil
	}
}

func (s *fileSink) rotate() error {
	s.rotateMu.Lock()
	defer s.rotateMu.Unlock()

	s.file.Close()
	rotated := fmt.Sprintf("%s.%s", s.path, time.Now().Format("20060102-150405"))
	if err := os.Rename(s.path, rotated); err != nil {
		if file, openErr := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644); openErr == nil {
			s.file = file
		}
		return fmt.Errorf("failed to rotate log file: %w", err)
	}

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to reopen log file: %w", err)
	}
	s.file = file
	s.currentSize = 0
	return nil
}

func logMessage(level LogLevel, component, message string, fields map[string]interface{}) {
	if level < GetLevel() {
		return
	}

	e := entry{
		Level:     levelNames[level],
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Component: component,
		Message:   message,
		Fields:    fields,
	}

	mu.RLock()
	s := sink
	mu.RUnlock()

	if s != nil {
		if s.maxSizeBytes > 0 && s.currentSize >= s.maxSizeBytes {
			if err := s.rotate(); err != nil {
				log.Printf("Failed to rotate log file: %v", err)
			}
		}
		if data, err := json.Marshal(e); err == nil {
			if n, writeErr := s.file.WriteString(string(data) + "\n"); writeErr == nil {
				s.currentSize += int64(n)
			}
		}
	}

	var fieldStr string
	if len(fields) > 0 {
		parts := make([]string, 0, len(fields))
		for k, v := range fields {
			parts = append(parts, fmt.Sprintf("%s=%v", k, v))
		}
		fieldStr = fmt.Sprintf(" {%s}", strings.Join(parts, ", "))
	}

	componentStr := ""
	if component != "" {
		componentStr = fmt.Sprintf(" %s:", component)
	}

	log.Printf("[%s] [%s]%s %s%s", e.Timestamp, levelNames[level], componentStr, message, fieldStr)

	if level == FATAL {
		os.Exit(1)
	}
}

func Debug(message string) { logMessage(DEBUG, "", message, nil) }
func Info(message string)  { logMessage(INFO, "", message, nil) }
func Warn(message string)  { logMessage(WARN, "", message, nil) }
func Error(message string) { logMessage(ERROR, "", message, nil) }
func Fatal(message string) { logMessage(FATAL, "", message, nil) }

func DebugC(component, message string) { logMessage(DEBUG, component, message, nil) }
func InfoC(component, message string)  { logMessage(INFO, component, message, nil) }
func WarnC(component, message string)  { logMessage(WARN, component, message, nil) }
func ErrorC(component, message string) { logMessage(ERROR, component, message, nil) }
func FatalC(component, message string) { logMessage(FATAL, component, message, nil) }

func DebugCF(component, message string, fields map[string]interface{}) {
	logMessage(DEBUG, component, message, fields)
}

func InfoCF(component, message string, fields map[string]interface{}) {
	logMessage(INFO, component, message, fields)
}

func WarnCF(component, message string, fields map[string]interface{}) {
	logMessage(WARN, component, message, fields)
}

func ErrorCF(component, message string, fields map[string]interface{}) {
	logMessage(ERROR, component, message, fields)
}
