package logger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// RequestIDHeader carries the request id back to the caller
const RequestIDHeader = "X-Request-ID"

// CustomJSONFormatter puts the level and request id in front of every entry
type CustomJSONFormatter struct {
	TimestampFormat string
	PrettyPrint     bool
	SortKeys        bool
}

// fixed leading keys, in output order
var leadingFields = []string{"timestamp", "level", "request_id", "message"}

// keys printed right after the leading ones
var priorityFields = []string{
	"method",
	"path",
	"status",
	"duration_ms",
	"route",
	"tx_hash",
	"component",
	"error",
}

// Format renders the entry as a single JSON object with a stable key order
func (f *CustomJSONFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	// 원본 수정 방지용 복사
	data := make(logrus.Fields, len(entry.Data))
	for k, v := range entry.Data {
		data[k] = v
	}

	timestampFormat := f.TimestampFormat
	if timestampFormat == "" {
		timestampFormat = "2006-01-02T15:04:05.000Z07:00"
	}

	keys := make([]string, 0, len(data)+len(leadingFields))
	values := make(map[string]interface{}, len(data)+len(leadingFields))
	take := func(key string, value interface{}) {
		if err, ok := value.(error); ok {
			value = err.Error()
		}
		keys = append(keys, key)
		values[key] = value
	}

	for _, key := range leadingFields {
		switch key {
		case "timestamp":
			take(key, entry.Time.Format(timestampFormat))
		case "level":
			take(key, strings.ToUpper(entry.Level.String()))
		case "message":
			take(key, entry.Message)
		default:
			if v, ok := data[key]; ok {
				take(key, v)
				delete(data, key)
			}
		}
	}

	for _, key := range priorityFields {
		if v, ok := data[key]; ok {
			take(key, v)
			delete(data, key)
		}
	}

	rest := make([]string, 0, len(data))
	for k := range data {
		rest = append(rest, k)
	}
	if f.SortKeys {
		sort.Strings(rest)
	}
	for _, k := range rest {
		take(k, data[k])
	}

	b := entry.Buffer
	if b == nil {
		b = &bytes.Buffer{}
	}

	// 순서 보장을 위해 수동으로 JSON 구성
	sep, kv := ",", ":"
	if f.PrettyPrint {
		sep, kv = ",\n  ", ": "
	}
	b.WriteString("{")
	if f.PrettyPrint {
		b.WriteString("\n  ")
	}
	for i, key := range keys {
		if i > 0 {
			b.WriteString(sep)
		}
		keyBytes, _ := json.Marshal(key)
		valueBytes, err := json.Marshal(values[key])
		if err != nil {
			valueBytes, _ = json.Marshal(fmt.Sprintf("%v", values[key]))
		}
		b.Write(keyBytes)
		b.WriteString(kv)
		b.Write(valueBytes)
	}
	if f.PrettyPrint {
		b.WriteString("\n")
	}
	b.WriteString("}\n")
	return b.Bytes(), nil
}

// ColoredTextFormatter is a human readable formatter for local runs
type ColoredTextFormatter struct {
	TimestampFormat string
}

// ANSI colors
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorYellow = "\033[33m"
	ColorBlue   = "\033[34m"
	ColorGreen  = "\033[32m"
	ColorWhite  = "\033[37m"
	ColorCyan   = "\033[36m"
)

// Format renders "[LEVEL] timestamp message k=v ..."
func (f *ColoredTextFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var levelColor, levelText string
	switch entry.Level {
	case logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel:
		levelColor, levelText = ColorRed, "ERROR"
	case logrus.WarnLevel:
		levelColor, levelText = ColorYellow, "WARN "
	case logrus.InfoLevel:
		levelColor, levelText = ColorGreen, "INFO "
	case logrus.DebugLevel:
		levelColor, levelText = ColorBlue, "DEBUG"
	default:
		levelColor, levelText = ColorWhite, "TRACE"
	}

	timestampFormat := f.TimestampFormat
	if timestampFormat == "" {
		timestampFormat = "2006-01-02 15:04:05"
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s[%s]%s %s%s%s %s%s%s",
		levelColor, levelText, ColorReset,
		ColorCyan, entry.Time.Format(timestampFormat), ColorReset,
		ColorWhite, entry.Message, ColorReset,
	)

	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&buf, " %s%s%s=%v", ColorBlue, k, ColorReset, entry.Data[k])
	}

	buf.WriteString("\n")
	return buf.Bytes(), nil
}

var (
	appLogger     *logrus.Logger
	appLoggerOnce sync.Once
	currentDate   string
	logFile       io.WriteCloser
	logMutex      sync.Mutex
)

// LogConfig holds logger settings
type LogConfig struct {
	BaseDir         string `json:"base_dir"`
	MaxSize         int    `json:"max_size"`
	MaxBackups      int    `json:"max_backups"`
	MaxAge          int    `json:"max_age"`
	Compress        bool   `json:"compress"`
	Level           string `json:"level"`
	Format          string `json:"format"` // json, text, colored
	PrettyPrint     bool   `json:"pretty_print"`
	SortKeys        bool   `json:"sort_keys"`
	TimestampFormat string `json:"timestamp_format"`
}

// DefaultLogConfig returns the production defaults. BaseDir is empty, so
// nothing is written to disk unless a directory is configured.
func DefaultLogConfig() LogConfig {
	return LogConfig{
		MaxSize:         100,
		MaxBackups:      30,
		MaxAge:          90,
		Compress:        true,
		Level:           "info",
		Format:          "json",
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
	}
}

// GetLogger returns the process logger, configured from LOG_* variables
// unless InitGlobalLogger ran first
func GetLogger() *logrus.Logger {
	appLoggerOnce.Do(func() {
		config := DefaultLogConfig()
		if format := os.Getenv("LOG_FORMAT"); format != "" {
			config.Format = format
		}
		if level := os.Getenv("LOG_LEVEL"); level != "" {
			config.Level = level
		}
		if dir := os.Getenv("LOG_DIR"); dir != "" {
			config.BaseDir = dir
		}
		appLogger = NewLogger(config)
	})
	return appLogger
}

// InitGlobalLogger configures the process logger and the logrus standard
// logger with config. Only the first call has an effect.
func InitGlobalLogger(config LogConfig) *logrus.Logger {
	appLoggerOnce.Do(func() {
		appLogger = NewLogger(config)
	})

	logrus.SetFormatter(appLogger.Formatter)
	logrus.SetOutput(appLogger.Out)
	logrus.SetLevel(appLogger.Level)
	return appLogger
}

// NewLogger builds a logger from config
func NewLogger(config LogConfig) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(config.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	logger.SetFormatter(newFormatter(config))

	if config.BaseDir != "" {
		setupDailyLogFile(logger, config)
		go dailyLogRotation(logger, config)
	} else {
		logger.SetOutput(os.Stdout)
	}

	return logger
}

func newFormatter(config LogConfig) logrus.Formatter {
	switch config.Format {
	case "colored", "color":
		return &ColoredTextFormatter{TimestampFormat: config.TimestampFormat}
	case "text":
		return &logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: config.TimestampFormat,
		}
	default:
		return &CustomJSONFormatter{
			TimestampFormat: config.TimestampFormat,
			PrettyPrint:     config.PrettyPrint,
			SortKeys:        config.SortKeys,
		}
	}
}

// setupDailyLogFile points the logger at <BaseDir>/yyyy/mm/dd/app.log
func setupDailyLogFile(logger *logrus.Logger, config LogConfig) {
	logMutex.Lock()
	defer logMutex.Unlock()

	now := time.Now()
	currentDate = now.Format("2006-01-02")

	logDir := filepath.Join(config.BaseDir, now.Format("2006/01/02"))
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		logger.SetOutput(os.Stdout)
		logger.WithError(err).Error("Failed to create log directory")
		return
	}

	if logFile != nil {
		logFile.Close()
	}

	logPath := filepath.Join(logDir, "app.log")
	lumber := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    config.MaxSize,
		MaxBackups: config.MaxBackups,
		MaxAge:     config.MaxAge,
		Compress:   config.Compress,
	}

	logFile = lumber
	logger.SetOutput(io.MultiWriter(lumber, os.Stdout))

	logger.WithFields(logrus.Fields{
		"log_path": logPath,
		"date":     currentDate,
	}).Info("Log file rotated")
}

// dailyLogRotation switches to a new directory at every local midnight
func dailyLogRotation(logger *logrus.Logger, config LogConfig) {
	for {
		now := time.Now()
		tomorrow := now.AddDate(0, 0, 1)
		midnight := time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), 0, 0, 0, 0, now.Location())
		time.Sleep(time.Until(midnight))
		setupDailyLogFile(logger, config)
	}
}

// LoggingMiddleware logs the start and completion of every request and tags
// it with a request id
func LoggingMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		req := c.Request()
		res := c.Response()
		log := GetLogger()

		requestID := req.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("request_id", requestID)
		res.Header().Set(RequestIDHeader, requestID)

		log.WithFields(logrus.Fields{
			"request_id":     requestID,
			"method":         req.Method,
			"path":           req.URL.Path,
			"remote_addr":    req.RemoteAddr,
			"user_agent":     req.UserAgent(),
			"content_length": req.ContentLength,
		}).Info("Request started")

		err := next(c)
		if err != nil {
			c.Error(err)
		}
		duration := time.Since(start)

		logFields := logrus.Fields{
			"request_id":  requestID,
			"method":      req.Method,
			"path":        req.URL.Path,
			"status":      res.Status,
			"duration_ms": duration.Milliseconds(),
			"size":        res.Size,
		}
		if err != nil {
			logFields["error"] = err.Error()
		}

		switch {
		case res.Status >= 500:
			log.WithFields(logFields).Error("Request completed")
		case res.Status >= 400:
			log.WithFields(logFields).Warn("Request completed")
		default:
			log.WithFields(logFields).Info("Request completed")
		}

		return nil
	}
}

// RequestLogger returns a logger entry bound to the current request
func RequestLogger(c echo.Context) *logrus.Entry {
	requestID, ok := c.Get("request_id").(string)
	if !ok {
		requestID = "unknown"
	}

	return GetLogger().WithFields(logrus.Fields{
		"request_id": requestID,
		"method":     c.Request().Method,
		"path":       c.Request().URL.Path,
	})
}
