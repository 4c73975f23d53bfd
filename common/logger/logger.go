package logger

import (
	"io"
	"log"
	"os"
	"strings"
)

type LogLevel int

const (
	ERROR LogLevel = iota
	WARN
	INFO
	DEBUG
	TRACE
)

const logFlags = log.Ldate | log.Ltime | log.Lshortfile

var (
	nullWriter   = &NullWriter{}
	currentLevel = ERROR
	Info         *log.Logger
	Warn         *log.Logger
	Error        *log.Logger
	Debug        *log.Logger
	Trace        *log.Logger
)

func StringToLogLevel(value string) LogLevel {
	switch strings.ToLower(value) {
	case "error":
		return ERROR
	case "warn":
		return WARN
	case "info":
		return INFO
	case "debug":
		return DEBUG
	case "trace":
		return TRACE
	}
	log.Printf("Invalid log level: '%s'. Returning INFO", value)
	return INFO
}

func (s LogLevel) String() string {
	switch s {
	case ERROR:
		return "ERROR"
	case WARN:
		return "WARN"
	case INFO:
		return "INFO"
	case DEBUG:
		return "DEBUG"
	case TRACE:
		return "TRACE"
	}
	return "UNKNOWN"
}

type NullWriter struct {
	io.Writer
}

func (s *NullWriter) Write(p []byte) (n int, err error) {
	return len(p), nil
}

func init() {
	initializeWriters(ERROR, os.Stderr, nullWriter)
}

func IsLogLevel(logLevel LogLevel) bool {
	return currentLevel >= logLevel
}

func Initialize(logLevel LogLevel) {
	log.Printf("Initialize loggers: '%s'", logLevel.String())
	initializeWriters(logLevel, os.Stderr, os.Stdout)
}

// InitializeWithWriter sends every enabled level to the same writer.
func InitializeWithWriter(logLevel LogLevel, writer io.Writer) {
	initializeWriters(logLevel, writer, writer)
}

func initializeWriters(logLevel LogLevel, errorWriter io.Writer, writer io.Writer) {
	currentLevel = logLevel
	Error = log.New(writerForLevel(logLevel, ERROR, errorWriter), "ERROR: ", logFlags)
	Warn = log.New(writerForLevel(logLevel, WARN, writer), "WARN:  ", logFlags)
	Info = log.New(writerForLevel(logLevel, INFO, writer), "INFO:  ", logFlags)
	Debug = log.New(writerForLevel(logLevel, DEBUG, writer), "DEBUG: ", logFlags)
	Trace = log.New(writerForLevel(logLevel, TRACE, writer), "TRACE: ", logFlags)
}

func writerForLevel(current LogLevel, level LogLevel, writer io.Writer) io.Writer {
	if current >= level {
		return writer
	}
	return nullWriter
}
