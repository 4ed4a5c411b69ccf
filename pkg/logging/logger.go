package logging

import (
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ANSI color codes
const (
	Reset = "\033[0m"
	Bold  = "\033[1m"
	Dim   = "\033[2m"

	Red           = "\033[31m"
	Yellow        = "\033[33m"
	Blue          = "\033[34m"
	White         = "\033[37m"
	Gray          = "\033[90m"
	BrightRed     = "\033[91m"
	BrightGreen   = "\033[92m"
	BrightYellow  = "\033[93m"
	BrightMagenta = "\033[95m"
	BrightCyan    = "\033[96m"
	BrightWhite   = "\033[97m"
)

// ColoredLogger wraps zap.Logger with colored output
type ColoredLogger struct {
	*zap.Logger
	enableColors bool
}

// Component represents different parts of the system for color coding
type Component string

const (
	ComponentClient  Component = "CLIENT"
	ComponentChannel Component = "CHANNEL"
	ComponentRelay   Component = "RELAY"
	ComponentPush    Component = "PUSH"
	ComponentSession Component = "SESSION"
	ComponentGeneral Component = "GENERAL"
)

// getComponentColor returns the color for a specific component
func getComponentColor(component Component) string {
	switch component {
	case ComponentClient:
		return Blue
	case ComponentChannel:
		return BrightCyan
	case ComponentRelay:
		return BrightGreen
	case ComponentPush:
		return BrightMagenta
	case ComponentSession:
		return BrightYellow
	case ComponentGeneral:
		return Yellow
	default:
		return White
	}
}

// getLevelColor returns the color for a log level
func getLevelColor(level zapcore.Level) string {
	switch level {
	case zapcore.DebugLevel:
		return Gray
	case zapcore.InfoLevel:
		return BrightWhite
	case zapcore.WarnLevel:
		return BrightYellow
	case zapcore.ErrorLevel:
		return BrightRed
	case zapcore.DPanicLevel, zapcore.PanicLevel, zapcore.FatalLevel:
		return Red
	default:
		return White
	}
}

var levelLetters = map[zapcore.Level]string{
	zapcore.DebugLevel: "D",
	zapcore.InfoLevel:  "I",
	zapcore.WarnLevel:  "W",
	zapcore.ErrorLevel: "E",
}

// coloredConsoleEncoder creates a custom encoder with colors
func coloredConsoleEncoder(enableColors bool) zapcore.Encoder {
	config := zap.NewDevelopmentEncoderConfig()

	// Ultra-short timestamp: HH:MM:SS (no milliseconds, no date, no timezone)
	config.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		timeStr := t.Format("15:04:05")
		if enableColors {
			enc.AppendString(fmt.Sprintf("%s%s%s", Dim, timeStr, Reset))
		} else {
			enc.AppendString(timeStr)
		}
	}

	// Single letter level: D, I, W, E
	config.EncodeLevel = func(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
		levelStr, ok := levelLetters[level]
		if !ok {
			levelStr = "?"
		}
		if enableColors {
			enc.AppendString(getLevelColor(level) + Bold + levelStr + Reset)
		} else {
			enc.AppendString(levelStr)
		}
	}

	// Just filename, no line number for cleaner output
	config.EncodeCaller = func(caller zapcore.EntryCaller, enc zapcore.PrimitiveArrayEncoder) {
		file := caller.File
		// Extract just the filename from the path
		if idx := strings.LastIndex(file, "/"); idx >= 0 {
			file = file[idx+1:]
		}
		// Remove .go extension for even more compact format
		if strings.HasSuffix(file, ".go") {
			file = file[:len(file)-3]
		}
		if enableColors {
			enc.AppendString(fmt.Sprintf("%s%s%s", Dim, file, Reset))
		} else {
			enc.AppendString(file)
		}
	}

	return zapcore.NewConsoleEncoder(config)
}

// Options selects level, encoding and destination of a logger.
type Options struct {
	Level      string // debug, info, warn, error
	Format     string // console (colored) or json
	OutputFile string // empty means stdout
	Colors     bool
}

// ParseLevel maps a level name to a zap level. Empty means info.
func ParseLevel(level string) (zapcore.Level, error) {
	if level == "" {
		return zapcore.InfoLevel, nil
	}
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", level)
	}
	return l, nil
}

// New builds a logger from opts.
func New(opts Options) (*ColoredLogger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	var sink zapcore.WriteSyncer = zapcore.AddSync(os.Stdout)
	colors := opts.Colors
	if opts.OutputFile != "" {
		file, err := os.OpenFile(opts.OutputFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %w", opts.OutputFile, err)
		}
		sink = zapcore.AddSync(file)
		colors = false
	}

	var encoder zapcore.Encoder
	switch opts.Format {
	case "", "console":
		encoder = coloredConsoleEncoder(colors)
	case "json":
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
		colors = false
	default:
		return nil, fmt.Errorf("unknown log format %q", opts.Format)
	}

	core := zapcore.NewCore(encoder, sink, level)
	return &ColoredLogger{
		Logger:       zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)),
		enableColors: colors,
	}, nil
}

// For returns the underlying zap logger tagged with component, for
// packages that take a plain *zap.Logger.
func (l *ColoredLogger) For(component Component) *zap.Logger {
	return l.Logger.WithOptions(zap.AddCallerSkip(-1)).With(zap.String("component", string(component)))
}

// tag prefixes msg with the component name, colored when enabled.
func (l *ColoredLogger) tag(component Component, msg string) string {
	if l.enableColors {
		return getComponentColor(component) + "[" + string(component) + "]" + Reset + " " + msg
	}
	return "[" + string(component) + "] " + msg
}

// Component-specific logging methods
func (l *ColoredLogger) ComponentInfo(component Component, msg string, fields ...zap.Field) {
	l.Info(l.tag(component, msg), fields...)
}

func (l *ColoredLogger) ComponentWarn(component Component, msg string, fields ...zap.Field) {
	l.Warn(l.tag(component, msg), fields...)
}

func (l *ColoredLogger) ComponentError(component Component, msg string, fields ...zap.Field) {
	l.Error(l.tag(component, msg), fields...)
}

func (l *ColoredLogger) ComponentDebug(component Component, msg string, fields ...zap.Field) {
	l.Debug(l.tag(component, msg), fields...)
}

// StandardLogger adapts a ColoredLogger to printf-style callers such as
// chi's request logger. Lines are logged at info level.
type StandardLogger struct {
	logger    *ColoredLogger
	component Component
}

// StandardFor adapts logger for component.
func StandardFor(logger *ColoredLogger, component Component) *StandardLogger {
	return &StandardLogger{logger: logger, component: component}
}

func (s *StandardLogger) Printf(format string, v ...any) {
	s.write(fmt.Sprintf(format, v...))
}

// Print satisfies chi's middleware.LoggerInterface.
func (s *StandardLogger) Print(v ...any) {
	s.write(fmt.Sprint(v...))
}

func (s *StandardLogger) write(msg string) {
	// zap terminates lines itself
	s.logger.ComponentInfo(s.component, strings.TrimSuffix(msg, "\n"))
}
